package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type inventoryFixture struct {
	store   *memStore
	cache   *memCacheRepo
	uc      *InventoryUseCase
	product *domain.Product
}

func newInventoryFixture(t *testing.T, stock int64) *inventoryFixture {
	t.Helper()

	store := newMemStore()
	cache := newMemCacheRepo()
	product := store.seed(domain.NewProduct("Laptop", "PROD-0001", "Electronics", decimal.RequireFromString("999.99"), stock))

	uc := NewInventoryUC(
		&memTxManager{store: store},
		&memProductRepo{store: store},
		NewIdempotencyLedger(&memIdempotencyRepo{store: store}),
		&memOutboxRepo{store: store},
		cache,
		logger.Nop{},
	)

	return &inventoryFixture{store: store, cache: cache, uc: uc, product: product}
}

func (f *inventoryFixture) movement(quantity int64, price string) *RecordMovementReq {
	return NewRecordMovementReq(f.product.ID, quantity, "Electronics", "PROD-0001", price)
}

func TestRecordMovement_AppliesOnce(t *testing.T) {
	f := newInventoryFixture(t, 10)
	ctx := context.Background()

	first, err := f.uc.RecordMovement(ctx, f.movement(5, "999.99"))
	require.NoError(t, err)
	assert.Equal(t, MovementApplied, first.Status)
	assert.Equal(t, int64(15), first.Stock)
	assert.Equal(t, "ELECTRONICS-PROD-0001-999.99", first.IdempotencyKey)

	second, err := f.uc.RecordMovement(ctx, f.movement(5, "999.99"))
	require.NoError(t, err)
	assert.Equal(t, MovementAlreadyApplied, second.Status)
	assert.Equal(t, first.IdempotencyKey, second.IdempotencyKey)

	assert.Equal(t, int64(15), f.store.stockOf(f.product.ID))
	assert.Equal(t, []OutboxEventType{InventoryMoved}, f.store.outboxTypes())
	assert.Equal(t, []int64{f.product.ID}, f.cache.deletedIDs())
}

func TestRecordMovement_ReplayIgnoresQuantity(t *testing.T) {
	f := newInventoryFixture(t, 10)
	ctx := context.Background()

	_, err := f.uc.RecordMovement(ctx, f.movement(5, "999.99"))
	require.NoError(t, err)

	res, err := f.uc.RecordMovement(ctx, f.movement(-7, "999.99"))
	require.NoError(t, err)
	assert.Equal(t, MovementAlreadyApplied, res.Status)
	assert.Equal(t, int64(15), f.store.stockOf(f.product.ID))
}

func TestRecordMovement_PriceLiteralIsPartOfKey(t *testing.T) {
	f := newInventoryFixture(t, 10)
	ctx := context.Background()

	_, err := f.uc.RecordMovement(ctx, f.movement(1, "999.99"))
	require.NoError(t, err)

	res, err := f.uc.RecordMovement(ctx, f.movement(1, "999.990"))
	require.NoError(t, err)
	assert.Equal(t, MovementApplied, res.Status)
	assert.Equal(t, int64(12), f.store.stockOf(f.product.ID))
}

func TestRecordMovement_InsufficientStockRollsBack(t *testing.T) {
	f := newInventoryFixture(t, 2)
	ctx := context.Background()

	_, err := f.uc.RecordMovement(ctx, f.movement(-3, "999.99"))
	require.ErrorIs(t, err, e.ErrInsufficientStock)
	assert.NotErrorIs(t, err, e.ErrStoreUnavailable)

	assert.Equal(t, int64(2), f.store.stockOf(f.product.ID))
	assert.Empty(t, f.store.outboxTypes())

	// ключ не записан, после пополнения тот же запрос проходит
	_, err = f.uc.RecordMovement(ctx, NewRecordMovementReq(f.product.ID, 5, "Electronics", "PROD-0001", "1.00"))
	require.NoError(t, err)

	res, err := f.uc.RecordMovement(ctx, f.movement(-3, "999.99"))
	require.NoError(t, err)
	assert.Equal(t, MovementApplied, res.Status)
	assert.Equal(t, int64(4), res.Stock)
}

func TestRecordMovement_ProductNotFound(t *testing.T) {
	f := newInventoryFixture(t, 10)

	req := f.movement(1, "999.99")
	req.ProductID = 404

	_, err := f.uc.RecordMovement(context.Background(), req)
	require.ErrorIs(t, err, e.ErrProductNotFound)

	found, err := NewIdempotencyLedger(&memIdempotencyRepo{store: f.store}).Lookup(context.Background(), "ELECTRONICS-PROD-0001-999.99")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecordMovement_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *RecordMovementReq)
		wantErr error
	}{
		{"zero quantity", func(r *RecordMovementReq) { r.Quantity = 0 }, e.ErrInvalidQuantity},
		{"missing category", func(r *RecordMovementReq) { r.Category = " " }, e.ErrMissingFields},
		{"missing code", func(r *RecordMovementReq) { r.Code = "" }, e.ErrMissingFields},
		{"missing price", func(r *RecordMovementReq) { r.Price = "" }, e.ErrMissingFields},
		{"non numeric price", func(r *RecordMovementReq) { r.Price = "abc" }, e.ErrInvalidPrice},
		{"negative price", func(r *RecordMovementReq) { r.Price = "-1" }, e.ErrInvalidPrice},
		{"bad id", func(r *RecordMovementReq) { r.ProductID = 0 }, e.ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInventoryFixture(t, 10)
			req := f.movement(1, "999.99")
			tt.mutate(req)

			_, err := f.uc.RecordMovement(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(10), f.store.stockOf(f.product.ID))
		})
	}
}

func TestRecordMovement_StoreFaultIsStoreUnavailable(t *testing.T) {
	f := newInventoryFixture(t, 10)
	f.store.failOn["UpdateStock"] = errors.New("connection reset")

	_, err := f.uc.RecordMovement(context.Background(), f.movement(1, "999.99"))
	require.ErrorIs(t, err, e.ErrStoreUnavailable)
	assert.Equal(t, int64(10), f.store.stockOf(f.product.ID))
}

func TestRecordMovement_LookupFaultIsStoreUnavailable(t *testing.T) {
	f := newInventoryFixture(t, 10)
	f.store.failOn["FindByKey"] = errors.New("timeout")

	_, err := f.uc.RecordMovement(context.Background(), f.movement(1, "999.99"))
	require.ErrorIs(t, err, e.ErrStoreUnavailable)
}

func TestRecordMovement_OutboxFaultRollsBackEverything(t *testing.T) {
	f := newInventoryFixture(t, 10)
	f.store.failOn["OutboxCreate"] = errors.New("disk full")

	_, err := f.uc.RecordMovement(context.Background(), f.movement(1, "999.99"))
	require.ErrorIs(t, err, e.ErrStoreUnavailable)

	assert.Equal(t, int64(10), f.store.stockOf(f.product.ID))
	found, err := f.uc.ledger.Lookup(context.Background(), "ELECTRONICS-PROD-0001-999.99")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecordMovement_InsertConflictRollsBackStock(t *testing.T) {
	store := newMemStore()
	product := store.seed(domain.NewProduct("Laptop", "PROD-0001", "Electronics", decimal.RequireFromString("999.99"), 10))

	idem := &mockIdempotencyRepo{}
	idem.On("FindByKey", mock.Anything, "ELECTRONICS-PROD-0001-999.99").Return(nil, e.ErrIdempotencyRecordNotFound).Once()
	idem.On("Insert", mock.Anything, mock.MatchedBy(func(r *domain.IdempotencyRecord) bool {
		return r.Key == "ELECTRONICS-PROD-0001-999.99" && r.ProductID == product.ID && r.Quantity == 4
	})).Return(nil, e.ErrIdempotencyKeyExists).Once()

	cache := newMemCacheRepo()
	uc := NewInventoryUC(
		&memTxManager{store: store},
		&memProductRepo{store: store},
		NewIdempotencyLedger(idem),
		&memOutboxRepo{store: store},
		cache,
		logger.Nop{},
	)

	res, err := uc.RecordMovement(context.Background(), NewRecordMovementReq(product.ID, 4, "Electronics", "PROD-0001", "999.99"))
	require.NoError(t, err)
	assert.Equal(t, MovementAlreadyApplied, res.Status)
	assert.Equal(t, int64(10), store.stockOf(product.ID))
	assert.Empty(t, store.outboxTypes())
	assert.Empty(t, cache.deletedIDs())
	idem.AssertExpectations(t)
}

func TestRecordMovement_ConcurrentSameKeyAppliesOnce(t *testing.T) {
	f := newInventoryFixture(t, 0)
	const workers = 16

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		already int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.uc.RecordMovement(context.Background(), f.movement(3, "999.99"))
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			switch res.Status {
			case MovementApplied:
				applied++
			case MovementAlreadyApplied:
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, workers-1, already)
	assert.Equal(t, int64(3), f.store.stockOf(f.product.ID))
}

func TestRecordMovement_ConcurrentLookupMissResolvedByInsertConflict(t *testing.T) {
	f := newInventoryFixture(t, 0)

	// Оба вызова проходят проверку журнала до того, как любой из них запишет ключ
	var lookups sync.WaitGroup
	lookups.Add(2)
	f.store.afterLookup = func() {
		lookups.Done()
		lookups.Wait()
	}

	results := make(chan *RecordMovementRes, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.uc.RecordMovement(context.Background(), f.movement(3, "999.99"))
			if assert.NoError(t, err) {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	statuses := make([]MovementStatus, 0, 2)
	for res := range results {
		statuses = append(statuses, res.Status)
	}
	assert.ElementsMatch(t, []MovementStatus{MovementApplied, MovementAlreadyApplied}, statuses)
	assert.Equal(t, int64(3), f.store.stockOf(f.product.ID))
	assert.Equal(t, []OutboxEventType{InventoryMoved}, f.store.outboxTypes())

	f.store.mu.Lock()
	assert.Len(t, f.store.ledger, 1)
	f.store.mu.Unlock()
}

func TestRecordMovement_RejectsStockOverflow(t *testing.T) {
	f := newInventoryFixture(t, math.MaxInt64-1)

	_, err := f.uc.RecordMovement(context.Background(), f.movement(5, "999.99"))
	assert.ErrorIs(t, err, e.ErrInvalidQuantity)
	assert.Equal(t, int64(math.MaxInt64-1), f.store.stockOf(f.product.ID))
	assert.Empty(t, f.store.outboxTypes())

	f.store.mu.Lock()
	assert.Empty(t, f.store.ledger)
	f.store.mu.Unlock()
}

func TestRecordMovement_EmitsDecodablePayload(t *testing.T) {
	f := newInventoryFixture(t, 10)

	_, err := f.uc.RecordMovement(context.Background(), f.movement(2, "999.99"))
	require.NoError(t, err)

	f.store.mu.Lock()
	event := f.store.outbox[0]
	f.store.mu.Unlock()

	st, err := DecodeOutboxPayload(event.Payload)
	require.NoError(t, err)
	fields := st.AsMap()
	assert.Equal(t, string(InventoryMoved), fields["event_type"])
	assert.Equal(t, float64(2), fields["quantity"])
	assert.Equal(t, float64(12), fields["stock"])
	assert.Equal(t, "ELECTRONICS-PROD-0001-999.99", fields["idempotency_key"])
	assert.NotEmpty(t, event.EventID)
}
