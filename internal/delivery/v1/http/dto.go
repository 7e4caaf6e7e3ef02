package http

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
)

// ProductRequest — тело создания и изменения продукта.
type ProductRequest struct {
	Name     string      `json:"name" example:"Laptop"`
	Code     string      `json:"code" example:"PROD-0001"`
	Category string      `json:"category" example:"Electronics"`
	Price    json.Number `json:"price" swaggertype:"number" example:"999.99"`
	Stock    int64       `json:"stock" example:"10"`
}

// MovementRequest — тело движения остатка. Цена участвует в ключе идемпотентности в том виде, как пришла.
type MovementRequest struct {
	Category string      `json:"category" example:"Electronics"`
	Code     string      `json:"code" example:"PROD-0001"`
	Price    json.Number `json:"price" swaggertype:"number" example:"999.99"`
}

type ProductResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Code      string      `json:"code"`
	Category  string      `json:"category"`
	Price     json.Number `json:"price" swaggertype:"number"`
	Stock     int64       `json:"stock"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
	NotFound []int64           `json:"not_found"`
}

type MovementResponse struct {
	Applied        bool   `json:"applied"`
	ProductID      int64  `json:"product_id"`
	Quantity       int64  `json:"quantity"`
	Stock          *int64 `json:"stock,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	createdAt := p.CreatedAt
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		Category:  p.Category,
		Price:     json.Number(p.Price.String()),
		Stock:     p.Stock,
		CreatedAt: &createdAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func newProductInfoResponse(p usecase.ProductInfo) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Code:     p.Code,
		Category: p.Category,
		Price:    json.Number(p.Price.String()),
		Stock:    p.Stock,
	}
}

func newArrProductInfoResponse(products []usecase.ProductInfo) []ProductResponse {
	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, newProductInfoResponse(p))
	}

	return res
}

func newMovementResponse(res *usecase.RecordMovementRes) MovementResponse {
	out := MovementResponse{
		Applied:        res.Status == usecase.MovementApplied,
		ProductID:      res.ProductID,
		Quantity:       res.Quantity,
		IdempotencyKey: res.IdempotencyKey,
	}
	if out.Applied {
		stock := res.Stock
		out.Stock = &stock
	}

	return out
}
