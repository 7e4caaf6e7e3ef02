package domain

import (
	"strings"
	"time"
)

// IdempotencyRecord фиксирует, что движение остатка с данным ключом уже применено.
// Запись создаётся один раз и никогда не изменяется и не удаляется.
type IdempotencyRecord struct {
	ID        int64
	Key       string
	ProductID int64
	Quantity  int64
	CreatedAt time.Time
}

func NewIdempotencyRecord(key string, productID int64, quantity int64) *IdempotencyRecord {
	return &IdempotencyRecord{
		Key:       key,
		ProductID: productID,
		Quantity:  quantity,
	}
}

// DeriveIdempotencyKey строит ключ идемпотентности движения: UPPER(category)-code-price.
// Цена берётся ровно в том виде, в каком её прислал клиент, поэтому "10.0" и "10.00" дают разные ключи.
func DeriveIdempotencyKey(category, code, price string) string {
	return strings.ToUpper(category) + "-" + code + "-" + price
}
