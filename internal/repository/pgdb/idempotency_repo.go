package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// IdempotencyRepo хранит журнал применённых движений остатка.
type IdempotencyRepo struct {
	pool *pgxpool.Pool
	conv converter.IdempotencyRecordConverter
}

func NewIdempotencyRepo(pool *pgxpool.Pool, conv converter.IdempotencyRecordConverter) *IdempotencyRepo {
	return &IdempotencyRepo{
		pool: pool,
		conv: conv,
	}
}

func (r *IdempotencyRepo) FindByKey(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT id, idempotency_key, product_id, quantity, created_at
		FROM inventory_idempotency
		WHERE idempotency_key = $1
	`

	var model converter.IdempotencyRecordModel
	err := tr.FromCtx(ctx, r.pool).QueryRow(ctx, query, key).Scan(
		&model.ID, &model.Key, &model.ProductID, &model.Quantity, &model.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrIdempotencyRecordNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(&model), nil
}

// Insert записывает ключ. Если ключ уже есть, возвращается ErrIdempotencyKeyExists.
func (r *IdempotencyRepo) Insert(ctx context.Context, record *domain.IdempotencyRecord) (*domain.IdempotencyRecord, error) {
	model := r.conv.ToModel(record)
	query := `
		INSERT INTO inventory_idempotency (idempotency_key, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at;
	`

	err := tr.FromCtx(ctx, r.pool).QueryRow(ctx, query, model.Key, model.ProductID, model.Quantity).
		Scan(&model.ID, &model.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrIdempotencyKeyExists
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(model), nil
}
