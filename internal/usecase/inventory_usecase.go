package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// errMovementAlreadyApplied откатывает транзакцию, когда ключ уже есть в журнале.
var errMovementAlreadyApplied = errors.New("movement already applied")

// InventoryUseCase применяет движения остатка ровно один раз на ключ идемпотентности.
type InventoryUseCase struct {
	txManager   TxManager
	productRepo ProductRepository
	ledger      *IdempotencyLedger
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	logger      logger.Logger
	movements   metric.Int64Counter
}

func NewInventoryUC(
	txManager TxManager,
	productRepo ProductRepository,
	ledger *IdempotencyLedger,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *InventoryUseCase {
	return &InventoryUseCase{
		txManager:   txManager,
		productRepo: productRepo,
		ledger:      ledger,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
		movements:   newCounter("inventory.movements", "Inventory movements by result"),
	}
}

// RecordMovement проверяет журнал, меняет остаток под блокировкой строки и записывает ключ.
// Всё выполняется в одной транзакции; уникальный индекс журнала решает гонку конкурентных запросов.
func (u *InventoryUseCase) RecordMovement(ctx context.Context, req *RecordMovementReq) (*RecordMovementRes, error) {
	const op = "InventoryUseCase.RecordMovement"

	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("product.id", req.ProductID),
		attribute.Int64("movement.quantity", req.Quantity),
	))
	defer span.End()

	if err := validateMovement(req); err != nil {
		u.count(ctx, "invalid")
		return nil, e.Wrap(op, err)
	}

	key := domain.DeriveIdempotencyKey(req.Category, req.Code, req.Price)
	res := &RecordMovementRes{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		IdempotencyKey: key,
	}

	err := u.txManager.Do(ctx, func(ctx context.Context) error {
		applied, err := u.ledger.Lookup(ctx, key)
		if err != nil {
			return err
		}
		if applied {
			return errMovementAlreadyApplied
		}

		product, err := u.productRepo.GetByIDForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}

		if err := product.AdjustStock(req.Quantity); err != nil {
			return err
		}

		if err := u.productRepo.UpdateStock(ctx, product.ID, product.Stock); err != nil {
			return err
		}

		recorded, err := u.ledger.Record(ctx, key, product.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !recorded {
			return errMovementAlreadyApplied
		}

		if err := emitEvent(ctx, u.outboxRepo, InventoryMoved, product.ID, map[string]any{
			"quantity":        req.Quantity,
			"stock":           product.Stock,
			"idempotency_key": key,
		}); err != nil {
			return err
		}

		res.Stock = product.Stock
		return nil
	})

	switch {
	case err == nil:
		res.Status = MovementApplied
	case errors.Is(err, errMovementAlreadyApplied):
		u.logger.Infof("%s: movement %q already applied", op, key)
		u.count(ctx, MovementAlreadyApplied.String())
		span.SetAttributes(attribute.String("movement.result", MovementAlreadyApplied.String()))
		return &RecordMovementRes{
			Status:         MovementAlreadyApplied,
			ProductID:      req.ProductID,
			Quantity:       req.Quantity,
			IdempotencyKey: key,
		}, nil
	default:
		err = classify(op, err)
		if errors.Is(err, e.ErrStoreUnavailable) {
			u.logger.Errorf(err, "%s: movement %q failed", op, key)
			span.RecordError(err)
			span.SetStatus(codes.Error, "store unavailable")
			u.count(ctx, "failed")
		} else {
			u.count(ctx, "rejected")
		}
		return nil, err
	}

	if err := u.cacheRepo.DeleteProducts(ctx, []int64{res.ProductID}); err != nil {
		u.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}

	u.count(ctx, MovementApplied.String())
	span.SetAttributes(attribute.String("movement.result", MovementApplied.String()))
	u.logger.Infof("%s: movement %q applied, product %d stock %d", op, key, res.ProductID, res.Stock)

	return res, nil
}

func (u *InventoryUseCase) count(ctx context.Context, result string) {
	u.movements.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// validateMovement проверяет поля, из которых строится ключ, и само количество.
func validateMovement(req *RecordMovementReq) error {
	if req.ProductID <= 0 {
		return e.ErrInvalidID
	}

	if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Price) == "" {
		return e.ErrMissingFields
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return e.ErrInvalidPrice
	}

	if req.Quantity == 0 {
		return e.ErrInvalidQuantity
	}

	return nil
}
