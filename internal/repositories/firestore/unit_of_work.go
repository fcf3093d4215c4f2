package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/tillpoint/api/internal/platform/firestore"
	"github.com/tillpoint/api/internal/repositories"
)

type transactionContextKey struct{}

func withTransaction(ctx context.Context, tx *firestore.Transaction) context.Context {
	return context.WithValue(ctx, transactionContextKey{}, tx)
}

// transactionFrom reports the ambient transaction started by UnitOfWork, if
// any. Repositories route their writes through it so grouped operations
// commit atomically.
func transactionFrom(ctx context.Context) (*firestore.Transaction, bool) {
	tx, ok := ctx.Value(transactionContextKey{}).(*firestore.Transaction)
	return tx, ok && tx != nil
}

// UnitOfWork groups repository writes into a single Firestore transaction.
type UnitOfWork struct {
	provider *pfirestore.Provider
}

var _ repositories.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork constructs a Firestore-backed unit of work.
func NewUnitOfWork(provider *pfirestore.Provider) (*UnitOfWork, error) {
	if provider == nil {
		return nil, errors.New("unit of work: firestore provider is required")
	}
	return &UnitOfWork{provider: provider}, nil
}

// RunInTx executes fn with an ambient transaction in the context. Reads must
// happen before writes within fn, per Firestore transaction semantics.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u == nil || u.provider == nil {
		return errors.New("unit of work not initialised")
	}
	if fn == nil {
		return errors.New("unit of work: function is required")
	}
	if _, ok := transactionFrom(ctx); ok {
		// Already transactional; nested calls join the outer transaction.
		return fn(ctx)
	}
	return u.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(withTransaction(ctx, tx))
	})
}
