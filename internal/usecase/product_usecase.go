package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/go-playground/validator/v10"
)

const cacheFillTimeout = 500 * time.Millisecond

// ProductUseCase реализует бизнес-логику каталога продуктов.
type ProductUseCase struct {
	txManager         TxManager
	productRepo       ProductRepository
	outboxRepo        OutboxRepository
	cacheRepo         CacheRepository
	authorizer        Authorizer
	movements         MovementProcessor
	validate          *validator.Validate
	lowStockThreshold int64
	logger            logger.Logger
}

func NewProductUC(
	txManager TxManager,
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	authorizer Authorizer,
	movements MovementProcessor,
	lowStockThreshold int64,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		txManager:         txManager,
		productRepo:       productRepo,
		outboxRepo:        outboxRepo,
		cacheRepo:         cacheRepo,
		authorizer:        authorizer,
		movements:         movements,
		validate:          NewValidator(),
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

// CreateProduct добавляет продукт. Код продукта уникален.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := validateStruct(p.validate, req, req.Price); err != nil {
		return nil, e.Wrap(op, err)
	}

	var created *domain.Product
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		exists, err := p.productRepo.ExistsByCode(ctx, req.Code)
		if err != nil {
			return err
		}
		if exists {
			return e.ErrProductCodeExists
		}

		created, err = p.productRepo.Create(ctx, domain.NewProduct(req.Name, req.Code, req.Category, req.Price, req.Stock))
		if err != nil {
			return err
		}

		return emitEvent(ctx, p.outboxRepo, ProductCreated, created.ID, productEventFields(created))
	})
	if err != nil {
		return nil, classify(op, err)
	}

	p.logger.Infof("%s: product %d (%s) created", op, created.ID, created.Code)
	return created, nil
}

// GetProduct возвращает продукт по идентификатору, используя кэш.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*ProductInfo, error) {
	const op = "ProductUseCase.GetProduct"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	res, err := p.GetProductsInfo(ctx, NewGetProductsReq([]int64{id}))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(res.Products) == 0 {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	return &res.Products[0], nil
}

// GetProductsInfo возвращает информацию о продуктах по их идентификаторам.
func (p *ProductUseCase) GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error) {
	const op = "ProductUseCase.GetProductsInfo"

	// Валидация
	if len(req.IDs) == 0 {
		return nil, e.Wrap(op, e.ErrNoProducts)
	}

	// Поиск продуктов в кэше
	cacheProductsMap, err := p.cacheRepo.GetProducts(ctx, req.IDs)
	var nonCacheable []int64
	if err != nil {
		p.logger.Warnf("Failed to get products from cache: %v", e.Wrap(op, err))
		cacheProductsMap = nil
		nonCacheable = append(nonCacheable, req.IDs...)
	} else {
		for _, productID := range req.IDs {
			if _, ok := cacheProductsMap[productID]; !ok {
				nonCacheable = append(nonCacheable, productID)
			}
		}
	}

	// Получение продуктов из БД
	var productsInfoFromDB []ProductInfo
	if len(nonCacheable) > 0 {
		productsInfoFromDB, err = p.productRepo.GetProductsInfo(ctx, nonCacheable)
		if err != nil {
			return nil, classify(op, err)
		}

		if len(productsInfoFromDB) > 0 {
			// Фоновое добавление продуктов в кэш
			go func(products []ProductInfo) {
				bgCtx, cancel := context.WithTimeout(context.Background(), cacheFillTimeout)
				defer cancel()

				if err := p.cacheRepo.SetProducts(bgCtx, products); err != nil {
					p.logger.Warnf("Failed to cache products in background: %v", e.Wrap(op, err))
				}
			}(productsInfoFromDB)
		}
	}

	dbProductsMap := make(map[int64]ProductInfo, len(productsInfoFromDB))
	for _, productInfo := range productsInfoFromDB {
		dbProductsMap[productInfo.ID] = productInfo
	}

	// Формирование результата
	result := make([]ProductInfo, 0, len(req.IDs))
	notFoundProducts := make([]int64, 0)
	for _, id := range req.IDs {
		if pr, ok := cacheProductsMap[id]; ok {
			result = append(result, pr)
		} else if pr, ok := dbProductsMap[id]; ok {
			result = append(result, pr)
		} else {
			notFoundProducts = append(notFoundProducts, id)
		}
	}

	return NewGetProductsRes(result, notFoundProducts), nil
}

func (p *ProductUseCase) ListProducts(ctx context.Context) ([]ProductInfo, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.List(ctx)
	if err != nil {
		return nil, classify(op, err)
	}

	return NewArrProductInfo(products), nil
}

// ListLowStock возвращает продукты с остатком строго ниже порога. Без порога используется значение из конфигурации.
func (p *ProductUseCase) ListLowStock(ctx context.Context, threshold *int64) ([]ProductInfo, error) {
	const op = "ProductUseCase.ListLowStock"

	limit := p.lowStockThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, e.Wrap(op, e.ErrInvalidThreshold)
		}
		limit = *threshold
	}

	products, err := p.productRepo.ListLowStock(ctx, limit)
	if err != nil {
		return nil, classify(op, err)
	}

	return NewArrProductInfo(products), nil
}

func (p *ProductUseCase) ExistsProduct(ctx context.Context, id int64) (bool, error) {
	const op = "ProductUseCase.ExistsProduct"

	if id <= 0 {
		return false, nil
	}

	exists, err := p.productRepo.ExistsByID(ctx, id)
	if err != nil {
		return false, classify(op, err)
	}

	return exists, nil
}

// UpdateProduct изменяет продукт. Доступно только администратору; проверка прав выполняется до любых чтений.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if err := p.authorizer.Authorize(ctx, req.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.ID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	if err := validateStruct(p.validate, req, req.Price); err != nil {
		return nil, e.Wrap(op, err)
	}

	var updated *domain.Product
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		current, err := p.productRepo.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		if current.Code != req.Code {
			exists, err := p.productRepo.ExistsByCode(ctx, req.Code)
			if err != nil {
				return err
			}
			if exists {
				return e.ErrProductCodeExists
			}
		}

		current.Apply(domain.NewProduct(req.Name, req.Code, req.Category, req.Price, req.Stock))
		updated, err = p.productRepo.Update(ctx, current)
		if err != nil {
			return err
		}

		return emitEvent(ctx, p.outboxRepo, ProductUpdated, updated.ID, productEventFields(updated))
	})
	if err != nil {
		return nil, classify(op, err)
	}

	p.invalidate(ctx, op, updated.ID)
	p.logger.Infof("%s: product %d updated by user %d", op, updated.ID, req.UserID)

	return updated, nil
}

func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	if id <= 0 {
		return e.Wrap(op, e.ErrInvalidID)
	}

	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		if err := p.productRepo.Delete(ctx, id); err != nil {
			return err
		}

		return emitEvent(ctx, p.outboxRepo, ProductDeleted, id, nil)
	})
	if err != nil {
		return classify(op, err)
	}

	p.invalidate(ctx, op, id)
	p.logger.Infof("%s: product %d deleted", op, id)

	return nil
}

// RecordMovement делегирует движение остатка процессору движений.
func (p *ProductUseCase) RecordMovement(ctx context.Context, req *RecordMovementReq) (*RecordMovementRes, error) {
	res, err := p.movements.RecordMovement(ctx, req)
	if err != nil {
		return nil, e.Wrap("ProductUseCase.RecordMovement", err)
	}

	return res, nil
}

// invalidate удаляет продукт из кэша. Ошибка кэша не влияет на результат операции.
func (p *ProductUseCase) invalidate(ctx context.Context, op string, id int64) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
}
