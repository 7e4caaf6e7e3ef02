package converter

import (
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/shopspring/decimal"
)

type ProductInfoConverter interface {
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	ToUseCase(model *ProductInfoRedisModel) (*usecase.ProductInfo, error)
	ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel
}

type ProductInfoConverterImpl struct{}

func NewProductInfoConverter() *ProductInfoConverterImpl {
	return &ProductInfoConverterImpl{}
}

func (ProductInfoConverterImpl) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	if entity == nil {
		return nil
	}

	return &ProductInfoRedisModel{
		ID:       entity.ID,
		Name:     entity.Name,
		Code:     entity.Code,
		Category: entity.Category,
		Price:    entity.Price.String(),
		Stock:    entity.Stock,
	}
}

func (ProductInfoConverterImpl) ToUseCase(model *ProductInfoRedisModel) (*usecase.ProductInfo, error) {
	if model == nil {
		return nil, nil
	}

	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, err
	}

	return &usecase.ProductInfo{
		ID:       model.ID,
		Name:     model.Name,
		Code:     model.Code,
		Category: model.Category,
		Price:    price,
		Stock:    model.Stock,
	}, nil
}

func (c ProductInfoConverterImpl) ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel {
	res := make([]ProductInfoRedisModel, 0, len(entities))
	for i := range entities {
		res = append(res, *c.ToRedisModel(&entities[i]))
	}

	return res
}
