package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents half-open range filters for numeric or timestamp
// fields. From is inclusive and To is exclusive; a nil bound is open.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CartStatus enumerates lifecycle states for register carts.
type CartStatus string

const (
	// CartStatusOpen indicates the cart is in progress at a register.
	CartStatusOpen CartStatus = "open"
	// CartStatusCheckedOut indicates the cart has been converted into a sale.
	CartStatusCheckedOut CartStatus = "checked_out"
	// CartStatusAbandoned indicates the cart was discarded without a sale.
	CartStatusAbandoned CartStatus = "abandoned"
)

// Cart aggregates the in-progress transaction state for a register.
type Cart struct {
	ID         string
	TenantID   string
	RegisterID string
	CashierID  string
	Status     CartStatus
	Lines      []CartLine
	Note       string
	Metadata   map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartLine stores a single product entry within a cart together with the
// discount attribution written by the promotion engine. Monetary fields are
// full-precision major units; rounding happens only at the payload and
// persistence boundaries.
type CartLine struct {
	LineID     string
	ProductID  string
	Name       string
	CategoryID *string
	UnitPrice  float64
	Quantity   int

	// Weight-priced items carry the scale reading that produced LineSubtotal.
	// The promotion engine values drawn units from these lines by that
	// subtotal, not by Quantity times UnitPrice.
	IsWeightItem    bool
	MeasuredWeight  *float64
	WeightUnit      *string
	TareWeight      *float64
	IsScaleMeasured bool

	LineSubtotal float64
	LineDiscount float64
	LineTotal    float64

	GroupOfferID       *string
	GroupInstanceIndex *int
	GroupDiscountShare float64

	BogoOfferID        *string
	BogoDiscountAmount float64

	TimeDiscountID     *string
	TimeDiscountAmount float64
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// AuditLogEntry stores normalized audit information for back-office review.
type AuditLogEntry struct {
	ID        string
	TenantID  string
	Actor     string
	ActorType string
	Action    string
	TargetRef string
	Metadata  map[string]any
	Diff      map[string]any
	IPHash    string
	UserAgent string
	Severity  string
	RequestID string
	CreatedAt time.Time
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}
