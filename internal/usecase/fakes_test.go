package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/stretchr/testify/mock"
)

// memStore — хранилище в памяти. Транзакции не сериализуются целиком:
// GetByIDForUpdate держит блокировку строки до конца транзакции, откат выполняется по журналу отмены.
type memStore struct {
	mu sync.Mutex

	nextID   int64
	products map[int64]domain.Product
	ledger   map[string]domain.IdempotencyRecord
	outbox   []*OutboxEvent
	rowLocks map[int64]*sync.Mutex

	failOn map[string]error

	// afterLookup вызывается после каждого чтения ключа из журнала
	afterLookup func()
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[int64]domain.Product),
		ledger:   make(map[string]domain.IdempotencyRecord),
		rowLocks: make(map[int64]*sync.Mutex),
		failOn:   make(map[string]error),
	}
}

type memTxKey struct{}

// memTx — состояние одной транзакции: удерживаемые строки и журнал отмены.
type memTx struct {
	held map[int64]*sync.Mutex
	undo []func()
}

func txFromCtx(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// lockRow берёт блокировку строки на время транзакции. Вне транзакции ничего не делает.
func (s *memStore) lockRow(ctx context.Context, id int64) {
	tx := txFromCtx(ctx)
	if tx == nil {
		return
	}
	if _, ok := tx.held[id]; ok {
		return
	}

	s.mu.Lock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	tx.held[id] = l
}

// onRollback регистрирует отмену изменения. Вызывать под s.mu.
func (s *memStore) onRollback(ctx context.Context, fn func()) {
	if tx := txFromCtx(ctx); tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

func (s *memStore) fail(method string) error {
	return s.failOn[method]
}

func (s *memStore) seed(p *domain.Product) *domain.Product {
	return s.insertProduct(context.Background(), p)
}

func (s *memStore) insertProduct(ctx context.Context, p *domain.Product) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now()
	s.products[p.ID] = *p

	id := p.ID
	s.onRollback(ctx, func() { delete(s.products, id) })
	return p
}

func (s *memStore) stockOf(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) outboxTypes() []OutboxEventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]OutboxEventType, 0, len(s.outbox))
	for _, ev := range s.outbox {
		types = append(types, ev.EventType)
	}
	return types
}

// memTxManager

type memTxManager struct {
	store *memStore
}

func (m *memTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &memTx{held: make(map[int64]*sync.Mutex)}
	defer func() {
		for _, l := range tx.held {
			l.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		m.store.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.store.mu.Unlock()
		return err
	}
	return nil
}

// memProductRepo

type memProductRepo struct {
	store *memStore
}

func (r *memProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.store.fail("Create"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	for _, p := range r.store.products {
		if p.Code == product.Code {
			r.store.mu.Unlock()
			return nil, e.ErrProductCodeExists
		}
	}
	r.store.mu.Unlock()

	cp := *product
	return r.store.insertProduct(ctx, &cp), nil
}

func (r *memProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	if err := r.store.fail("GetByID"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &p, nil
}

func (r *memProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.store.fail("GetByIDForUpdate"); err != nil {
		return nil, err
	}
	r.store.lockRow(ctx, id)
	return r.GetByID(ctx, id)
}

func (r *memProductRepo) GetProductsInfo(_ context.Context, ids []int64) ([]ProductInfo, error) {
	if err := r.store.fail("GetProductsInfo"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res := make([]ProductInfo, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			res = append(res, NewProductInfo(&p))
		}
	}
	return res, nil
}

func (r *memProductRepo) List(_ context.Context) ([]*domain.Product, error) {
	if err := r.store.fail("List"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res := make([]*domain.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		p := p
		res = append(res, &p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *memProductRepo) ListLowStock(ctx context.Context, threshold int64) ([]*domain.Product, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*domain.Product, 0)
	for _, p := range all {
		if p.Stock < threshold {
			res = append(res, p)
		}
	}
	return res, nil
}

func (r *memProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.store.fail("Update"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, ok := r.store.products[product.ID]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	now := time.Now()
	cp := *product
	cp.UpdatedAt = &now
	r.store.products[product.ID] = cp
	r.store.onRollback(ctx, func() { r.store.products[prev.ID] = prev })
	return &cp, nil
}

func (r *memProductRepo) UpdateStock(ctx context.Context, id int64, stock int64) error {
	if err := r.store.fail("UpdateStock"); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, ok := r.store.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	p := prev
	p.Stock = stock
	r.store.products[id] = p
	r.store.onRollback(ctx, func() { r.store.products[id] = prev })
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id int64) error {
	if err := r.store.fail("Delete"); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, ok := r.store.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	delete(r.store.products, id)
	r.store.onRollback(ctx, func() { r.store.products[id] = prev })
	return nil
}

func (r *memProductRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	if err := r.store.fail("ExistsByID"); err != nil {
		return false, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, ok := r.store.products[id]
	return ok, nil
}

func (r *memProductRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	if err := r.store.fail("ExistsByCode"); err != nil {
		return false, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.products {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// memIdempotencyRepo

type memIdempotencyRepo struct {
	store *memStore
}

func (r *memIdempotencyRepo) FindByKey(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	if err := r.store.fail("FindByKey"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	rec, ok := r.store.ledger[key]
	hook := r.store.afterLookup
	r.store.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, e.ErrIdempotencyRecordNotFound
	}
	return &rec, nil
}

func (r *memIdempotencyRepo) Insert(ctx context.Context, record *domain.IdempotencyRecord) (*domain.IdempotencyRecord, error) {
	if err := r.store.fail("Insert"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.ledger[record.Key]; ok {
		return nil, e.ErrIdempotencyKeyExists
	}
	cp := *record
	cp.ID = int64(len(r.store.ledger) + 1)
	cp.CreatedAt = time.Now()
	r.store.ledger[record.Key] = cp
	r.store.onRollback(ctx, func() { delete(r.store.ledger, cp.Key) })
	return &cp, nil
}

// memOutboxRepo

type memOutboxRepo struct {
	store *memStore
}

func (r *memOutboxRepo) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	if err := r.store.fail("OutboxCreate"); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *event
	cp.ID = int64(len(r.store.outbox) + 1)
	r.store.outbox = append(r.store.outbox, &cp)
	r.store.onRollback(ctx, func() {
		for i, ev := range r.store.outbox {
			if ev == &cp {
				r.store.outbox = append(r.store.outbox[:i], r.store.outbox[i+1:]...)
				return
			}
		}
	})
	return &cp, nil
}

func (r *memOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (r *memOutboxRepo) MarkAsProcessed(context.Context, int64) error { return nil }

func (r *memOutboxRepo) MarkAsPending(context.Context, int64) error { return nil }

func (r *memOutboxRepo) MarkAsFailed(context.Context, int64) error { return nil }

// memCacheRepo повторяет контракт Redis-кэша: удалённый продукт получает метку,
// и последующее заполнение его не перезаписывает. Метки здесь бессрочные.

type memCacheRepo struct {
	mu          sync.Mutex
	items       map[int64]ProductInfo
	invalidated map[int64]bool
	deleted     []int64
	getErr      error

	beforeSet func()
	afterSet  func()
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{
		items:       make(map[int64]ProductInfo),
		invalidated: make(map[int64]bool),
	}
}

func (c *memCacheRepo) GetProducts(_ context.Context, ids []int64) (map[int64]ProductInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	res := make(map[int64]ProductInfo)
	for _, id := range ids {
		if p, ok := c.items[id]; ok {
			res[id] = p
		}
	}
	return res, nil
}

func (c *memCacheRepo) SetProducts(_ context.Context, products []ProductInfo) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	if c.afterSet != nil {
		defer c.afterSet()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		if c.invalidated[p.ID] {
			continue
		}
		c.items[p.ID] = p
	}
	return nil
}

func (c *memCacheRepo) DeleteProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.items, id)
		c.invalidated[id] = true
	}
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *memCacheRepo) deletedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.deleted...)
}

func (c *memCacheRepo) cached(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[id]
	return ok
}

// mockIdempotencyRepo для сценариев гонки между проверкой и вставкой.

type mockIdempotencyRepo struct {
	mock.Mock
}

func (m *mockIdempotencyRepo) FindByKey(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	args := m.Called(ctx, key)
	rec, _ := args.Get(0).(*domain.IdempotencyRecord)
	return rec, args.Error(1)
}

func (m *mockIdempotencyRepo) Insert(ctx context.Context, record *domain.IdempotencyRecord) (*domain.IdempotencyRecord, error) {
	args := m.Called(ctx, record)
	rec, _ := args.Get(0).(*domain.IdempotencyRecord)
	return rec, args.Error(1)
}

// stubResolver

type stubResolver struct {
	fn func(ctx context.Context, userID int64) RoleResult
}

func (s stubResolver) RoleOf(ctx context.Context, userID int64) RoleResult {
	return s.fn(ctx, userID)
}

func roleResolver(role string) stubResolver {
	return stubResolver{fn: func(context.Context, int64) RoleResult { return RoleFound(role) }}
}
