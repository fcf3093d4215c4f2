package services

import (
	"slices"

	domain "github.com/tillpoint/api/internal/domain"
)

// applyTimeDiscounts runs the time pass. Discounts arrive filtered to the
// current window and sorted by descending priority. Fixed amounts split
// evenly across eligible lines and cap at each line's subtotal; the capped
// remainder is not reallocated to other lines. Amounts read each line's full
// subtotal regardless of what earlier passes took, so a stacked LineDiscount
// can exceed LineSubtotal; LineTotal floors at zero and persistence clamps
// the stored discount.
func applyTimeDiscounts(lines []domain.CartLine, discounts []domain.TimeDiscount) []domain.AppliedDiscount {
	var summary []domain.AppliedDiscount

	for _, discount := range discounts {
		var eligible []int
		for i := range lines {
			if timeDiscountCovers(discount, lines[i]) {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) == 0 {
			continue
		}

		discountID := discount.ID
		perLineFixed := discount.DiscountValue / float64(len(eligible))
		total := 0.0
		for _, i := range eligible {
			line := &lines[i]
			var amount float64
			switch discount.DiscountType {
			case domain.TimeDiscountPercentage:
				amount = line.LineSubtotal * discount.DiscountValue / 100
			case domain.TimeDiscountFixedAmount:
				amount = perLineFixed
			}
			amount = clampDiscount(amount, line.LineSubtotal)
			if amount <= 0 {
				continue
			}
			line.TimeDiscountID = &discountID
			line.TimeDiscountAmount += amount
			line.LineDiscount += amount
			line.LineTotal = max(0, line.LineSubtotal-line.LineDiscount)
			total += amount
		}

		if total > 0 {
			summary = append(summary, domain.AppliedDiscount{
				Kind:            domain.DiscountKindTime,
				OfferID:         discount.ID,
				OfferName:       discount.Name,
				InstanceIndex:   1,
				QuantityApplied: len(eligible),
				DiscountAmount:  total,
			})
		}
	}
	return summary
}

func timeDiscountCovers(discount domain.TimeDiscount, line domain.CartLine) bool {
	switch discount.Scope {
	case domain.TimeScopeAll:
		return true
	case domain.TimeScopeCategory:
		return line.CategoryID != nil && slices.Contains(discount.CategoryIDs, *line.CategoryID)
	default:
		return false
	}
}
