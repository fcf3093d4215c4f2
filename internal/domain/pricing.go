package domain

import "math"

// MoneyEpsilon bounds the float drift tolerated by conservation checks.
const MoneyEpsilon = 1e-9

// DiscountKind labels the pass that produced an applied discount row.
type DiscountKind string

const (
	// DiscountKindGroup marks a group-offer instance.
	DiscountKindGroup DiscountKind = "group"
	// DiscountKindBogo marks a BOGO application.
	DiscountKindBogo DiscountKind = "bogo"
	// DiscountKindTime marks a time-window discount.
	DiscountKindTime DiscountKind = "time"
)

// AppliedDiscount records one applied offer instance for receipts and audits.
type AppliedDiscount struct {
	Kind            DiscountKind
	OfferID         string
	OfferName       string
	InstanceIndex   int
	QuantityApplied int
	DiscountAmount  float64

	// BOGO rows carry the offer's buy/get configuration for reporting.
	BuyQuantity int
	GetQuantity int
}

// PricingSummary aggregates the monetary results of a promotion engine run.
type PricingSummary struct {
	Lines         []AppliedDiscount
	Subtotal      float64
	TotalDiscount float64
	Total         float64
}

// RoundMoney rounds a major-unit amount to two decimal places, half away
// from zero. Used only at payload and persistence boundaries; the engine
// itself keeps full precision.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
