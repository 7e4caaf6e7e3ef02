package usecase

import (
	"context"

	"github.com/DRSN-tech/product-catalog/internal/domain"
)

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*ProductInfo, error)
	GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error)
	ListProducts(ctx context.Context) ([]ProductInfo, error)
	ListLowStock(ctx context.Context, threshold *int64) ([]ProductInfo, error)
	ExistsProduct(ctx context.Context, id int64) (bool, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	RecordMovement(ctx context.Context, req *RecordMovementReq) (*RecordMovementRes, error)
}
