package pgdb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/DRSN-tech/product-catalog/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPool подключается к POSTGRES_DSN и накатывает схему. Без базы тесты пропускаются.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres unavailable: %v", err)
	}

	schema, err := os.ReadFile("../../../db/migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE products, inventory_idempotency, outbox_events RESTART IDENTITY`)
	require.NoError(t, err)

	t.Cleanup(pool.Close)
	return pool
}

type repos struct {
	products *ProductRepo
	ledger   *IdempotencyRepo
	outbox   *OutboxEventRepo
}

func newRepos(pool *pgxpool.Pool) repos {
	return repos{
		products: NewProductRepo(pool, converter.NewProductConverter()),
		ledger:   NewIdempotencyRepo(pool, converter.NewIdempotencyRecordConverter()),
		outbox:   NewOutboxEventRepo(pool, converter.NewOutboxEventConverter()),
	}
}

func TestProductRepo_CRUD(t *testing.T) {
	pool := setupPool(t)
	r := newRepos(pool)
	ctx := context.Background()

	created, err := r.products.Create(ctx, domain.NewProduct("Laptop", "PROD-0001", "Electronics", decimal.RequireFromString("999.99"), 5))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "999.99", created.Price.StringFixed(2))

	_, err = r.products.Create(ctx, domain.NewProduct("Dup", "PROD-0001", "Electronics", decimal.RequireFromString("1"), 0))
	assert.ErrorIs(t, err, e.ErrProductCodeExists)

	got, err := r.products.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name)

	got.Name = "Laptop Pro"
	updated, err := r.products.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro", updated.Name)
	assert.NotNil(t, updated.UpdatedAt)

	low, err := r.products.ListLowStock(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, low, 1)

	exists, err := r.products.ExistsByCode(ctx, "PROD-0001")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, r.products.Delete(ctx, created.ID))
	_, err = r.products.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
	assert.ErrorIs(t, r.products.Delete(ctx, created.ID), e.ErrProductNotFound)
}

func TestProductRepo_UpdateStockRejectsNegative(t *testing.T) {
	pool := setupPool(t)
	r := newRepos(pool)
	ctx := context.Background()

	created, err := r.products.Create(ctx, domain.NewProduct("Laptop", "PROD-0001", "Electronics", decimal.RequireFromString("1"), 1))
	require.NoError(t, err)

	assert.ErrorIs(t, r.products.UpdateStock(ctx, created.ID, -1), e.ErrInsufficientStock)
	assert.ErrorIs(t, r.products.UpdateStock(ctx, 999999, 1), e.ErrProductNotFound)
}

func TestIdempotencyRepo_InsertOnce(t *testing.T) {
	pool := setupPool(t)
	r := newRepos(pool)
	ctx := context.Background()

	_, err := r.ledger.FindByKey(ctx, "FOOD-PROD-0003-10.00")
	assert.ErrorIs(t, err, e.ErrIdempotencyRecordNotFound)

	rec, err := r.ledger.Insert(ctx, domain.NewIdempotencyRecord("FOOD-PROD-0003-10.00", 1, 2))
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)

	_, err = r.ledger.Insert(ctx, domain.NewIdempotencyRecord("FOOD-PROD-0003-10.00", 1, 2))
	assert.ErrorIs(t, err, e.ErrIdempotencyKeyExists)

	found, err := r.ledger.FindByKey(ctx, "FOOD-PROD-0003-10.00")
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Quantity)
}

func TestInventoryMovement_ConcurrentSameKey(t *testing.T) {
	pool := setupPool(t)
	r := newRepos(pool)
	ctx := context.Background()

	product, err := r.products.Create(ctx, domain.NewProduct("Laptop", "PROD-0001", "Electronics", decimal.RequireFromString("999.99"), 0))
	require.NoError(t, err)

	uc := usecase.NewInventoryUC(
		tr.NewManager(pool),
		r.products,
		usecase.NewIdempotencyLedger(r.ledger),
		r.outbox,
		noopCache{},
		logger.Nop{},
	)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.RecordMovement(ctx, usecase.NewRecordMovementReq(product.ID, 3, "Electronics", "PROD-0001", "999.99"))
			if !assert.NoError(t, err) {
				return
			}
			if res.Status == usecase.MovementApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)

	got, err := r.products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Stock)

	events, err := r.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, usecase.InventoryMoved, events[0].EventType)
	require.NoError(t, r.outbox.MarkAsProcessed(ctx, events[0].ID))
}

func TestOutboxEventRepo_ReclaimsExpiredLease(t *testing.T) {
	pool := setupPool(t)
	r := newRepos(pool)
	ctx := context.Background()

	event, err := usecase.NewOutboxEvent(usecase.ProductCreated, 1, nil)
	require.NoError(t, err)
	created, err := r.outbox.Create(ctx, event)
	require.NoError(t, err)

	claimed, err := r.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// Аренда ещё действует: событие не выдаётся повторно
	claimed, err = r.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	// Воркер упал, не сняв processing
	_, err = pool.Exec(ctx,
		`UPDATE outbox_events SET processing_started_at = NOW() - make_interval(secs => $1) WHERE id = $2`,
		(DefaultProcessingLease + time.Minute).Seconds(), created.ID)
	require.NoError(t, err)

	claimed, err = r.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, created.ID, claimed[0].ID)

	var startedAt time.Time
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT processing_started_at FROM outbox_events WHERE id = $1`, created.ID).Scan(&startedAt))
	assert.WithinDuration(t, time.Now(), startedAt, time.Minute)

	require.NoError(t, r.outbox.MarkAsFailed(ctx, created.ID))

	var status string
	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM outbox_events WHERE id = $1`, created.ID).Scan(&status))
	assert.Equal(t, string(usecase.Failed), status)

	claimed, err = r.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

type noopCache struct{}

func (noopCache) GetProducts(context.Context, []int64) (map[int64]usecase.ProductInfo, error) {
	return map[int64]usecase.ProductInfo{}, nil
}

func (noopCache) SetProducts(context.Context, []usecase.ProductInfo) error { return nil }

func (noopCache) DeleteProducts(context.Context, []int64) error { return nil }
