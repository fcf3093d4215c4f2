package repositories

import (
	"context"
	"time"

	domain "github.com/tillpoint/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Carts() CartRepository
	Offers() OfferRepository
	Sales() SaleRepository
	AuditLogs() AuditLogRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CartRepository owns register cart persistence with optimistic locking guarantees.
type CartRepository interface {
	Insert(ctx context.Context, cart domain.Cart) error
	Update(ctx context.Context, cart domain.Cart, expectedUpdatedAt *time.Time) (domain.Cart, error)
	FindByID(ctx context.Context, tenantID string, cartID string) (domain.Cart, error)
	List(ctx context.Context, filter CartListFilter) (domain.CursorPage[domain.Cart], error)
}

// OfferRepository maintains the three offer catalogs per tenant.
type OfferRepository interface {
	InsertGroupOffer(ctx context.Context, offer domain.GroupOffer) error
	UpdateGroupOffer(ctx context.Context, offer domain.GroupOffer, expectedUpdatedAt *time.Time) (domain.GroupOffer, error)
	DeleteGroupOffer(ctx context.Context, tenantID string, offerID string) error
	FindGroupOffer(ctx context.Context, tenantID string, offerID string) (domain.GroupOffer, error)
	ListGroupOffers(ctx context.Context, filter OfferListFilter) (domain.CursorPage[domain.GroupOffer], error)

	InsertBogoOffer(ctx context.Context, offer domain.BogoOffer) error
	UpdateBogoOffer(ctx context.Context, offer domain.BogoOffer, expectedUpdatedAt *time.Time) (domain.BogoOffer, error)
	DeleteBogoOffer(ctx context.Context, tenantID string, offerID string) error
	FindBogoOffer(ctx context.Context, tenantID string, offerID string) (domain.BogoOffer, error)
	ListBogoOffers(ctx context.Context, filter OfferListFilter) (domain.CursorPage[domain.BogoOffer], error)

	InsertTimeDiscount(ctx context.Context, discount domain.TimeDiscount) error
	UpdateTimeDiscount(ctx context.Context, discount domain.TimeDiscount, expectedUpdatedAt *time.Time) (domain.TimeDiscount, error)
	DeleteTimeDiscount(ctx context.Context, tenantID string, discountID string) error
	FindTimeDiscount(ctx context.Context, tenantID string, discountID string) (domain.TimeDiscount, error)
	ListTimeDiscounts(ctx context.Context, filter OfferListFilter) (domain.CursorPage[domain.TimeDiscount], error)
}

// SaleRepository persists immutable sale records.
type SaleRepository interface {
	Insert(ctx context.Context, sale domain.Sale) error
	FindByID(ctx context.Context, tenantID string, saleID string) (domain.Sale, error)
	List(ctx context.Context, filter SaleListFilter) (domain.CursorPage[domain.Sale], error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type CartListFilter struct {
	TenantID   string
	RegisterID string
	Status     []domain.CartStatus
	Pagination domain.Pagination
}

type OfferListFilter struct {
	TenantID   string
	ActiveOnly bool
	Pagination domain.Pagination
}

type SaleListFilter struct {
	TenantID   string
	RegisterID string
	CashierID  string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

type AuditLogFilter struct {
	TenantID   string
	TargetRef  string
	Actor      string
	ActorType  string
	Action     string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

// CounterConfig customises increment behaviour and bounds for a counter.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}
