package bob

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
	bobCtx "github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob/context"
)

type bobTransaction struct {
	db bob.DB
}

var _ api.TransactionManager = (*bobTransaction)(nil)

func NewTransactionManager(db bob.DB) api.TransactionManager {
	return &bobTransaction{db: db}
}

func NewTransactionManagerFromPool(pool *pgxpool.Pool) api.TransactionManager {
	return &bobTransaction{db: NewDB(pool)}
}

// RunInTx puts the executor of the transaction into the context passed to fn.
// Repositories look there first and fall back to their own connection.
// A nested call joins the running transaction.
//
//nolint:whitespace //editor/linter issue
func (b *bobTransaction) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if bobCtx.FromContext(ctx) != nil {
		return fn(ctx)
	}
	return b.db.RunInTx(ctx, nil, func(ctx context.Context, e bob.Executor) error {
		return fn(bobCtx.NewContext(ctx, e))
	})
}
