package converter

import (
	"time"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/shopspring/decimal"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) (*domain.Product, error)
	ToArrEntity(models []*ProductModel) ([]*domain.Product, error)
}

// IdempotencyRecordConverter преобразует записи журнала идемпотентности.
type IdempotencyRecordConverter interface {
	ToModel(entity *domain.IdempotencyRecord) *IdempotencyRecordModel
	ToEntity(model *IdempotencyRecordModel) *domain.IdempotencyRecord
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func NewProductConverter() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	return &ProductModel{
		ID:        entity.ID,
		Name:      entity.Name,
		Code:      entity.Code,
		Category:  entity.Category,
		Price:     entity.Price.String(),
		Stock:     entity.Stock,
		CreatedAt: ConvertTime(entity.CreatedAt),
		UpdatedAt: ConvertPointerTime(entity.UpdatedAt),
	}
}

func (ProductConverterImpl) ToEntity(model *ProductModel) (*domain.Product, error) {
	if model == nil {
		return nil, nil
	}

	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, err
	}

	return &domain.Product{
		ID:        model.ID,
		Name:      model.Name,
		Code:      model.Code,
		Category:  model.Category,
		Price:     price,
		Stock:     model.Stock,
		CreatedAt: ConvertTime(model.CreatedAt),
		UpdatedAt: ConvertPointerTime(model.UpdatedAt),
	}, nil
}

func (c ProductConverterImpl) ToArrEntity(models []*ProductModel) ([]*domain.Product, error) {
	res := make([]*domain.Product, 0, len(models))
	for _, model := range models {
		entity, err := c.ToEntity(model)
		if err != nil {
			return nil, err
		}
		res = append(res, entity)
	}

	return res, nil
}

type IdempotencyRecordConverterImpl struct{}

func NewIdempotencyRecordConverter() *IdempotencyRecordConverterImpl {
	return &IdempotencyRecordConverterImpl{}
}

func (IdempotencyRecordConverterImpl) ToModel(entity *domain.IdempotencyRecord) *IdempotencyRecordModel {
	if entity == nil {
		return nil
	}

	return &IdempotencyRecordModel{
		ID:        entity.ID,
		Key:       entity.Key,
		ProductID: entity.ProductID,
		Quantity:  entity.Quantity,
		CreatedAt: ConvertTime(entity.CreatedAt),
	}
}

func (IdempotencyRecordConverterImpl) ToEntity(model *IdempotencyRecordModel) *domain.IdempotencyRecord {
	if model == nil {
		return nil
	}

	return &domain.IdempotencyRecord{
		ID:        model.ID,
		Key:       model.Key,
		ProductID: model.ProductID,
		Quantity:  model.Quantity,
		CreatedAt: ConvertTime(model.CreatedAt),
	}
}

type OutboxEventConverterImpl struct{}

func NewOutboxEventConverter() *OutboxEventConverterImpl {
	return &OutboxEventConverterImpl{}
}

func (OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(ConvertOutboxEventType(entity.EventType)),
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      string(ConvertOutBoxStatus(entity.Status)),
		CreatedAt:   ConvertTime(entity.CreatedAt),
		ProcessedAt: ConvertPointerTime(entity.ProcessedAt),
	}
}

func (OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   ConvertTime(model.CreatedAt),
		ProcessedAt: ConvertPointerTime(model.ProcessedAt),
	}
}

func (c OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		res = append(res, c.ToEntity(model))
	}

	return res
}

func ConvertPointerTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func ConvertTime(t time.Time) time.Time {
	return t
}

func ConvertOutBoxStatus(s usecase.OutboxStatus) usecase.OutboxStatus {
	if s == "" {
		return usecase.Pending
	}
	return s
}

func ConvertOutboxEventType(t usecase.OutboxEventType) usecase.OutboxEventType {
	return t
}
