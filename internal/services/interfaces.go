package services

import (
	"context"
	"time"

	domain "github.com/tillpoint/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	SortOrder          = domain.SortOrder
	Cart               = domain.Cart
	CartLine           = domain.CartLine
	CartStatus         = domain.CartStatus
	GroupOffer         = domain.GroupOffer
	BogoOffer          = domain.BogoOffer
	TimeDiscount       = domain.TimeDiscount
	OfferSet           = domain.OfferSet
	AppliedDiscount    = domain.AppliedDiscount
	PricingSummary     = domain.PricingSummary
	Sale               = domain.Sale
	SaleLine           = domain.SaleLine
	SystemHealthReport = domain.SystemHealthReport
	AuditLogEntry      = domain.AuditLogEntry
)

// OfferService manages the three offer catalogs and assembles the active set
// handed to the promotion engine.
type OfferService interface {
	CreateGroupOffer(ctx context.Context, cmd UpsertGroupOfferCommand) (GroupOffer, error)
	UpdateGroupOffer(ctx context.Context, cmd UpsertGroupOfferCommand) (GroupOffer, error)
	GetGroupOffer(ctx context.Context, tenantID, offerID string) (GroupOffer, error)
	ListGroupOffers(ctx context.Context, filter OfferListFilter) (domain.CursorPage[GroupOffer], error)
	DeleteGroupOffer(ctx context.Context, cmd DeleteOfferCommand) error

	CreateBogoOffer(ctx context.Context, cmd UpsertBogoOfferCommand) (BogoOffer, error)
	UpdateBogoOffer(ctx context.Context, cmd UpsertBogoOfferCommand) (BogoOffer, error)
	GetBogoOffer(ctx context.Context, tenantID, offerID string) (BogoOffer, error)
	ListBogoOffers(ctx context.Context, filter OfferListFilter) (domain.CursorPage[BogoOffer], error)
	DeleteBogoOffer(ctx context.Context, cmd DeleteOfferCommand) error

	CreateTimeDiscount(ctx context.Context, cmd UpsertTimeDiscountCommand) (TimeDiscount, error)
	UpdateTimeDiscount(ctx context.Context, cmd UpsertTimeDiscountCommand) (TimeDiscount, error)
	GetTimeDiscount(ctx context.Context, tenantID, discountID string) (TimeDiscount, error)
	ListTimeDiscounts(ctx context.Context, filter OfferListFilter) (domain.CursorPage[TimeDiscount], error)
	DeleteTimeDiscount(ctx context.Context, cmd DeleteOfferCommand) error

	ListActiveOffers(ctx context.Context, tenantID string, at time.Time) (OfferSet, error)
}

// ActiveOfferSource yields the offer set used to price carts. OfferService
// satisfies it; pricing callers depend on this narrower surface.
type ActiveOfferSource interface {
	ListActiveOffers(ctx context.Context, tenantID string, at time.Time) (OfferSet, error)
}

// CartService manages register carts and reprices them on every mutation.
type CartService interface {
	CreateCart(ctx context.Context, cmd CreateCartCommand) (Cart, error)
	GetCart(ctx context.Context, tenantID, cartID string) (Cart, error)
	AddLine(ctx context.Context, cmd AddCartLineCommand) (PricedCart, error)
	UpdateLine(ctx context.Context, cmd UpdateCartLineCommand) (PricedCart, error)
	RemoveLine(ctx context.Context, cmd RemoveCartLineCommand) (PricedCart, error)
	SetNote(ctx context.Context, cmd SetCartNoteCommand) (Cart, error)
	PriceCart(ctx context.Context, tenantID, cartID string) (PricedCart, error)
	AbandonCart(ctx context.Context, cmd AbandonCartCommand) (Cart, error)
}

// SaleService finalizes carts into immutable sales and exposes sale reads.
type SaleService interface {
	CompleteSale(ctx context.Context, cmd CompleteSaleCommand) (Sale, error)
	GetSale(ctx context.Context, tenantID, saleID string) (Sale, error)
	ListSales(ctx context.Context, filter SaleListFilter) (domain.CursorPage[Sale], error)
}

// SalesExportService archives completed sales for downstream reporting.
type SalesExportService interface {
	ExportDailySales(ctx context.Context, cmd ExportDailySalesCommand) (SalesExportResult, error)
}

// SystemService aggregates utility endpoints (health checks, counters).
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
	NextCounterValue(ctx context.Context, cmd CounterCommand) (int64, error)
}

// AuditLogService centralizes immutable audit log persistence and retrieval.
type AuditLogService interface {
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error)
}

// BackgroundJobDispatcher fans completed-sale events and export jobs out to
// asynchronous consumers.
type BackgroundJobDispatcher interface {
	PublishSaleCompleted(ctx context.Context, event SaleCompletedEvent) error
	EnqueueSalesExport(ctx context.Context, payload SalesExportJobPayload) error
}

// ErrorTranslator converts repository or platform errors into domain-aware sentinel errors.
type ErrorTranslator interface {
	Translate(err error) error
}

// Command and DTO definitions ------------------------------------------------

// PricedCart pairs a repriced cart with the applied-discount summary.
type PricedCart struct {
	Cart    Cart
	Summary PricingSummary
}

type CreateCartCommand struct {
	TenantID   string
	RegisterID string
	CashierID  string
	Metadata   map[string]string
}

type AddCartLineCommand struct {
	TenantID          string
	CartID            string
	ProductID         string
	Name              string
	CategoryID        *string
	UnitPrice         float64
	Quantity          int
	IsWeightItem      bool
	MeasuredWeight    *float64
	WeightUnit        *string
	TareWeight        *float64
	IsScaleMeasured   bool
	LineSubtotal      *float64
	ExpectedUpdatedAt *time.Time
}

type UpdateCartLineCommand struct {
	TenantID          string
	CartID            string
	LineID            string
	Quantity          *int
	UnitPrice         *float64
	MeasuredWeight    *float64
	LineSubtotal      *float64
	ExpectedUpdatedAt *time.Time
}

type RemoveCartLineCommand struct {
	TenantID          string
	CartID            string
	LineID            string
	ExpectedUpdatedAt *time.Time
}

type SetCartNoteCommand struct {
	TenantID          string
	CartID            string
	Note              string
	ExpectedUpdatedAt *time.Time
}

type AbandonCartCommand struct {
	TenantID  string
	CartID    string
	CashierID string
	Reason    string
}

type CompleteSaleCommand struct {
	TenantID       string
	CartID         string
	RegisterID     string
	CashierID      string
	PaymentMethod  string
	IdempotencyKey string
}

type SaleListFilter struct {
	TenantID   string
	RegisterID string
	CashierID  string
	DateRange  domain.RangeQuery[time.Time]
	Pagination Pagination
}

type OfferListFilter struct {
	TenantID   string
	ActiveOnly bool
	Pagination Pagination
}

type DeleteOfferCommand struct {
	TenantID string
	OfferID  string
	ActorID  string
	// Deactivate keeps the document and only clears the active flag.
	Deactivate bool
}

type UpsertGroupOfferCommand struct {
	TenantID          string
	OfferID           *string
	ActorID           string
	Name              string
	Description       string
	Priority          int
	IsActive          bool
	StartDate         string
	EndDate           string
	ProductIDs        []string
	RequiredQuantity  int
	DiscountType      domain.GroupDiscountType
	DiscountValue     float64
	ExpectedUpdatedAt *time.Time
}

type UpsertBogoOfferCommand struct {
	TenantID          string
	OfferID           *string
	ActorID           string
	Name              string
	Description       string
	Priority          int
	IsActive          bool
	StartDate         string
	EndDate           string
	BuyProductIDs     []string
	BuyQuantity       int
	GetProductIDs     []string
	GetQuantity       int
	ApplyOn           domain.BogoApplyOn
	DiscountType      domain.BogoDiscountType
	DiscountValue     float64
	ExpectedUpdatedAt *time.Time
}

type UpsertTimeDiscountCommand struct {
	TenantID          string
	OfferID           *string
	ActorID           string
	Name              string
	Description       string
	Priority          int
	IsActive          bool
	StartDate         string
	EndDate           string
	Scope             domain.TimeDiscountScope
	CategoryIDs       []string
	DaysOfWeek        []int
	StartTime         string
	EndTime           string
	DiscountType      domain.TimeDiscountType
	DiscountValue     float64
	ExpectedUpdatedAt *time.Time
}

type ExportDailySalesCommand struct {
	TenantID    string
	Day         string
	RequestedBy string
}

type SalesExportResult struct {
	ObjectPath string
	SaleCount  int
	ExportedAt time.Time
}

// SaleCompletedEvent is published after a sale is durably persisted.
type SaleCompletedEvent struct {
	SaleID        string
	TenantID      string
	RegisterID    string
	ReceiptNumber string
	Total         float64
	CompletedAt   time.Time
}

type SalesExportJobPayload struct {
	TenantID    string
	Day         string
	RequestedBy string
}

// AuditLogRecord defines the payload accepted by the audit writer service.
type AuditLogRecord struct {
	TenantID              string
	Actor                 string
	ActorType             string
	Action                string
	TargetRef             string
	Severity              string
	RequestID             string
	OccurredAt            time.Time
	Metadata              map[string]any
	Diff                  map[string]AuditLogDiff
	SensitiveMetadataKeys []string
	SensitiveDiffKeys     []string
	IPAddress             string
	UserAgent             string
}

// AuditLogDiff captures before/after values for tracked fields.
type AuditLogDiff struct {
	Before any
	After  any
}

type AuditLogFilter struct {
	TenantID   string
	TargetRef  string
	Actor      string
	ActorType  string
	Action     string
	DateRange  domain.RangeQuery[time.Time]
	Pagination Pagination
}

type CounterCommand struct {
	CounterID string
	Step      int64
}
