package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NewValidator регистрирует правила product_code и positive_price.
// decimal.Decimal валидируется по строковому представлению.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("product_code", func(fl validator.FieldLevel) bool {
		return domain.ProductCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("positive_price", func(fl validator.FieldLevel) bool {
		price, err := decimal.NewFromString(fl.Field().String())
		return err == nil && price.IsPositive()
	})

	return v
}

// validateStruct приводит ошибки валидатора к сентинелам пакета e.
func validateStruct(v *validator.Validate, req any, price decimal.Decimal) error {
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", e.ErrValidation, err)
		}

		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return e.ErrMissingFields
			}
			if fe.Tag() == "positive_price" {
				return e.ErrInvalidPrice
			}
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
		}

		return fmt.Errorf("%w: %s", e.ErrValidation, strings.Join(fields, ", "))
	}

	if !price.Equal(price.Round(2)) {
		return e.ErrPricePrecision
	}

	return nil
}
