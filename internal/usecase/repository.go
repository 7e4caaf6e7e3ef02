package usecase

import (
	"context"

	"github.com/DRSN-tech/product-catalog/internal/domain"
)

// TxManager выполняет fn в одной транзакции: любая ошибка fn приводит к откату.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	GetProductsInfo(ctx context.Context, ids []int64) ([]ProductInfo, error)
	List(ctx context.Context) ([]*domain.Product, error)
	ListLowStock(ctx context.Context, threshold int64) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateStock(ctx context.Context, id int64, stock int64) error
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

type IdempotencyRepository interface {
	FindByKey(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	Insert(ctx context.Context, record *domain.IdempotencyRecord) (*domain.IdempotencyRecord, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

// CacheRepository — кэш карточек продуктов.
// После DeleteProducts запоздавший SetProducts не должен возвращать в кэш данные, прочитанные до удаления.
type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}
