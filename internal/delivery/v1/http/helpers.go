package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	maxBodySize  = 1 << 20
	userIDHeader = "X-User-Id"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

var (
	badRequestErrors = []error{
		e.ErrMissingFields,
		e.ErrInvalidPrice,
		e.ErrPricePrecision,
		e.ErrInvalidQuantity,
		e.ErrInvalidID,
		e.ErrInvalidUserID,
		e.ErrInvalidThreshold,
		e.ErrValidation,
		e.ErrInvalidRequestBody,
		e.ErrNoProducts,
	}
	conflictErrors = []error{
		e.ErrProductCodeExists,
		e.ErrInsufficientStock,
	}
)

// ToHTTPResponse сопоставляет ошибку со статусом. В теле уходит только текст сентинела.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusForbidden, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, e.ErrStoreUnavailable.Error()
	}

	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict, target.Error()
		}
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}

	return http.StatusInternalServerError, e.ErrInternalServerError.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса, ограничивая его размер.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return e.Wrap("empty body", e.ErrInvalidRequestBody)
		}
		return e.Wrap(err.Error(), e.ErrInvalidRequestBody)
	}

	return nil
}

// parsePrice разбирает цену без округления. Точность проверяется в бизнес-логике.
func parsePrice(n json.Number) (decimal.Decimal, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return decimal.Decimal{}, e.ErrMissingFields
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, e.ErrInvalidPrice
	}

	return d, nil
}

func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrInvalidID
	}

	return id, nil
}

func parseUserID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, e.ErrInvalidUserID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrInvalidUserID
	}

	return id, nil
}

// parseIDs разбирает список идентификаторов вида "1,2,3".
func parseIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, e.ErrInvalidID
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, e.ErrNoProducts
	}

	return ids, nil
}

func parseInt64Query(r *http.Request, key string, errInvalid error) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errInvalid
	}

	return &v, nil
}
