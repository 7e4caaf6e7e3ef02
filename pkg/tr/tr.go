package tr

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier — общий интерфейс пула соединений и открытой транзакции pgx.
type Querier = trmpgx.Tr

// NewManager создаёт менеджер транзакций поверх пула. Транзакция кладётся в контекст и достаётся через FromCtx.
func NewManager(pool *pgxpool.Pool) *manager.Manager {
	return manager.Must(trmpgx.NewDefaultFactory(pool))
}

// FromCtx извлекает транзакцию из контекста, а при её отсутствии возвращает сам пул.
func FromCtx(ctx context.Context, db Querier) Querier {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, db)
}
