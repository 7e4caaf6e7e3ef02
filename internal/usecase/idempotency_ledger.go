package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/pkg/e"
)

// IdempotencyLedger — журнал применённых движений остатка.
// Ключ записывается ровно один раз; гонку двух вставок решает уникальный индекс хранилища.
type IdempotencyLedger struct {
	repo IdempotencyRepository
}

func NewIdempotencyLedger(repo IdempotencyRepository) *IdempotencyLedger {
	return &IdempotencyLedger{repo: repo}
}

// Lookup сообщает, было ли движение с таким ключом уже применено.
func (l *IdempotencyLedger) Lookup(ctx context.Context, key string) (bool, error) {
	const op = "IdempotencyLedger.Lookup"

	_, err := l.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, e.ErrIdempotencyRecordNotFound) {
			return false, nil
		}
		return false, e.Wrap(op, err)
	}

	return true, nil
}

// Record записывает ключ. Возвращает false без ошибки, если ключ уже записан конкурентным запросом.
func (l *IdempotencyLedger) Record(ctx context.Context, key string, productID, quantity int64) (bool, error) {
	const op = "IdempotencyLedger.Record"

	_, err := l.repo.Insert(ctx, domain.NewIdempotencyRecord(key, productID, quantity))
	if err != nil {
		if errors.Is(err, e.ErrIdempotencyKeyExists) {
			return false, nil
		}
		return false, e.Wrap(op, err)
	}

	return true, nil
}
