package domain

import "time"

// GroupDiscountType enumerates pricing strategies for group offers.
type GroupDiscountType string

const (
	// GroupDiscountFixedPrice sells the bundle for a flat price.
	GroupDiscountFixedPrice GroupDiscountType = "fixed_price"
	// GroupDiscountFixedAmount subtracts a flat amount from the bundle subtotal.
	GroupDiscountFixedAmount GroupDiscountType = "fixed_discount"
	// GroupDiscountPercentage subtracts a percentage of the bundle subtotal.
	GroupDiscountPercentage GroupDiscountType = "percentage"
)

// BogoApplyOn selects which eligible units a BOGO offer discounts.
type BogoApplyOn string

const (
	// BogoApplyCheapest discounts the lowest-priced eligible units first.
	BogoApplyCheapest BogoApplyOn = "cheapest"
	// BogoApplyMostExpensive discounts the highest-priced eligible units first.
	BogoApplyMostExpensive BogoApplyOn = "most_expensive"
	// BogoApplySpecific discounts eligible units in cart order.
	BogoApplySpecific BogoApplyOn = "specific"
)

// BogoDiscountType enumerates pricing strategies for BOGO targets.
type BogoDiscountType string

const (
	// BogoDiscountPercentage discounts targets by a percentage.
	BogoDiscountPercentage BogoDiscountType = "percentage"
	// BogoDiscountFixedAmount discounts targets by a flat amount.
	BogoDiscountFixedAmount BogoDiscountType = "fixed_discount"
	// BogoDiscountFree makes the targets free.
	BogoDiscountFree BogoDiscountType = "free"
)

// TimeDiscountScope selects which cart lines a time discount covers.
type TimeDiscountScope string

const (
	// TimeScopeAll covers every line in the cart.
	TimeScopeAll TimeDiscountScope = "all"
	// TimeScopeCategory covers lines whose category is listed on the discount.
	TimeScopeCategory TimeDiscountScope = "category"
)

// TimeDiscountType enumerates pricing strategies for time discounts.
type TimeDiscountType string

const (
	// TimeDiscountPercentage discounts each eligible line by a percentage.
	TimeDiscountPercentage TimeDiscountType = "percentage"
	// TimeDiscountFixedAmount splits a flat amount across eligible lines.
	TimeDiscountFixedAmount TimeDiscountType = "fixed_discount"
)

// OfferWindow carries the shared activation envelope for every offer kind.
// Dates are inclusive YYYY-MM-DD strings compared lexicographically; an empty
// bound is open on that side.
type OfferWindow struct {
	Priority  int
	IsActive  bool
	StartDate string
	EndDate   string
}

// GroupOffer bundles a required quantity of eligible products for a deal.
type GroupOffer struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	OfferWindow

	ProductIDs       []string
	RequiredQuantity int
	DiscountType     GroupDiscountType
	DiscountValue    float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BogoOffer discounts "get" units once enough "buy" units are in the cart.
type BogoOffer struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	OfferWindow

	BuyProductIDs []string
	BuyQuantity   int
	GetProductIDs []string
	GetQuantity   int
	ApplyOn       BogoApplyOn
	DiscountType  BogoDiscountType
	DiscountValue float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeDiscount applies during a recurring weekly window. Times are HH:MM
// 24-hour strings; windows never cross midnight.
type TimeDiscount struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	OfferWindow

	Scope         TimeDiscountScope
	CategoryIDs   []string
	DaysOfWeek    []int
	StartTime     string
	EndTime       string
	DiscountType  TimeDiscountType
	DiscountValue float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OfferSet groups the active offers handed to the promotion engine.
type OfferSet struct {
	GroupOffers   []GroupOffer
	BogoOffers    []BogoOffer
	TimeDiscounts []TimeDiscount
}
