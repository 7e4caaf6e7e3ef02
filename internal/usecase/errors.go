package usecase

import (
	"errors"

	"github.com/DRSN-tech/product-catalog/pkg/e"
)

var businessErrors = []error{
	e.ErrMissingFields,
	e.ErrInvalidPrice,
	e.ErrPricePrecision,
	e.ErrInvalidQuantity,
	e.ErrInvalidID,
	e.ErrValidation,
	e.ErrNoProducts,
	e.ErrUnauthorized,
	e.ErrProductNotFound,
	e.ErrProductCodeExists,
	e.ErrInsufficientStock,
	e.ErrStoreUnavailable,
}

// classify оставляет бизнес-ошибки как есть, а всё прочее считает отказом хранилища.
func classify(op string, err error) error {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return e.Wrap(op, err)
		}
	}

	return e.StoreUnavailable(op, err)
}
