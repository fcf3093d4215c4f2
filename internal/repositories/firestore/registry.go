package firestore

import (
	"context"
	"errors"
	"fmt"

	pfirestore "github.com/tillpoint/api/internal/platform/firestore"
	"github.com/tillpoint/api/internal/repositories"
)

// Registry wires the Firestore-backed repositories behind the
// repositories.Registry interface. The health repository is injected because
// its dependency checks span more than Firestore.
type Registry struct {
	provider *pfirestore.Provider

	carts     *CartRepository
	offers    *OfferRepository
	sales     *SaleRepository
	auditLogs *AuditLogRepository
	counters  *CounterRepository
	health    repositories.HealthRepository
	uow       *UnitOfWork
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the full Firestore repository set.
func NewRegistry(provider *pfirestore.Provider, health repositories.HealthRepository) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry: firestore provider is required")
	}

	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	offers, err := NewOfferRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	sales, err := NewSaleRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	auditLogs, err := NewAuditLogRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	uow, err := NewUnitOfWork(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	return &Registry{
		provider:  provider,
		carts:     carts,
		offers:    offers,
		sales:     sales,
		auditLogs: auditLogs,
		counters:  counters,
		health:    health,
		uow:       uow,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Carts returns the cart repository.
func (r *Registry) Carts() repositories.CartRepository { return r.carts }

// Offers returns the offer repository.
func (r *Registry) Offers() repositories.OfferRepository { return r.offers }

// Sales returns the sale repository.
func (r *Registry) Sales() repositories.SaleRepository { return r.sales }

// AuditLogs returns the audit log repository.
func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.auditLogs }

// Counters returns the counter repository.
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

// Health returns the dependency health repository, which may be nil when no
// checks were configured.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx executes fn inside a single Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.uow == nil {
		return errors.New("registry not initialised")
	}
	return r.uow.RunInTx(ctx, fn)
}
