package domain

import (
	"math"
	"regexp"
	"time"

	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/shopspring/decimal"
)

// ProductCodePattern — формат бизнес-кода продукта (PROD-NNNN).
var ProductCodePattern = regexp.MustCompile(`^PROD-\d{4}$`)

// Product описывает продукт каталога
type Product struct {
	ID        int64
	Name      string
	Code      string // уникальный бизнес-код
	Category  string
	Price     decimal.Decimal
	Stock     int64
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewProduct(name, code, category string, price decimal.Decimal, stock int64) *Product {
	return &Product{
		Name:     name,
		Code:     code,
		Category: category,
		Price:    price,
		Stock:    stock,
	}
}

// AdjustStock прибавляет к остатку знаковую дельту.
// Движение, которое увело бы остаток в минус или за пределы int64, отклоняется, продукт при этом не меняется.
func (p *Product) AdjustStock(delta int64) error {
	if delta > 0 && p.Stock > math.MaxInt64-delta {
		return e.ErrInvalidQuantity
	}

	next := p.Stock + delta
	if next < 0 {
		return e.ErrInsufficientStock
	}

	p.Stock = next
	return nil
}

// Apply переносит изменяемые поля из другого продукта, сохраняя идентификатор и даты.
func (p *Product) Apply(src *Product) {
	p.Name = src.Name
	p.Code = src.Code
	p.Category = src.Category
	p.Price = src.Price
	p.Stock = src.Stock
}
