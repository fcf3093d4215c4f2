package domain

import "time"

// SaleLine is the immutable snapshot of a priced cart line at checkout.
// Amounts are rounded to two decimals when the sale is persisted.
type SaleLine struct {
	LineID       string
	ProductID    string
	Name         string
	CategoryID   *string
	UnitPrice    float64
	Quantity     int
	LineSubtotal float64
	LineDiscount float64
	LineTotal    float64

	IsWeightItem   bool
	MeasuredWeight *float64
	WeightUnit     *string
}

// Sale records a completed checkout. Sales are append-only; corrections are
// separate refund records, which this service does not manage.
type Sale struct {
	ID            string
	TenantID      string
	RegisterID    string
	CashierID     string
	CartID        string
	ReceiptNumber string
	Lines         []SaleLine
	Discounts     []AppliedDiscount
	Subtotal      float64
	TotalDiscount float64
	Total         float64
	PaymentMethod string
	CompletedAt   time.Time
}
