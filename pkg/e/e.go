package e

import "fmt"

var (
	// Инфраструктурные ошибки
	ErrStoreUnavailable     = fmt.Errorf("store unavailable")
	ErrUpstreamUnavailable  = fmt.Errorf("upstream unavailable")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// Внутренние ошибки идемпотентности
	ErrIdempotencyKeyExists      = fmt.Errorf("idempotency key already exists")
	ErrIdempotencyRecordNotFound = fmt.Errorf("idempotency record not found")

	// 400 Bad Request
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidPrice       = fmt.Errorf("price must be a positive number")
	ErrPricePrecision     = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidQuantity    = fmt.Errorf("quantity must be a non-zero integer")
	ErrInvalidID          = fmt.Errorf("invalid product id")
	ErrInvalidUserID      = fmt.Errorf("missing or invalid X-User-Id header")
	ErrInvalidThreshold   = fmt.Errorf("threshold must be a non-negative integer")
	ErrValidation         = fmt.Errorf("validation failed")
	ErrInvalidRequestBody = fmt.Errorf("invalid request body")
	ErrNoProducts         = fmt.Errorf("no products requested")

	// 403 Forbidden
	ErrUnauthorized = fmt.Errorf("user does not have admin privileges")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 409 Conflict
	ErrProductCodeExists = fmt.Errorf("product code already exists")
	ErrInsufficientStock = fmt.Errorf("insufficient stock")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// StoreUnavailable помечает ошибку хранилища как ErrStoreUnavailable, сохраняя исходную причину.
func StoreUnavailable(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrStoreUnavailable, err)
}
