package services

import (
	"slices"

	domain "github.com/tillpoint/api/internal/domain"
)

// unitDraw records how many units one allocation pulled from a cart line.
type unitDraw struct {
	index int
	units int
}

// applyGroupOffers runs the group pass over the cart lines. Offers arrive
// already filtered and sorted by descending priority; consumed units are
// tracked across offers within the pass so a higher-priority offer drains
// quantity before a lower-priority one sees it.
func applyGroupOffers(lines []domain.CartLine, offers []domain.GroupOffer) []domain.AppliedDiscount {
	var summary []domain.AppliedDiscount
	consumed := make([]int, len(lines))

	for _, offer := range offers {
		var eligible []int
		remaining := 0
		for i := range lines {
			if !slices.Contains(offer.ProductIDs, lines[i].ProductID) {
				continue
			}
			eligible = append(eligible, i)
			remaining += lines[i].Quantity - consumed[i]
		}
		if offer.RequiredQuantity <= 0 {
			continue
		}
		groupsAvailable := remaining / offer.RequiredQuantity
		if groupsAvailable <= 0 {
			continue
		}

		offerID := offer.ID
		for instance := 1; instance <= groupsAvailable; instance++ {
			draws := drawUnits(lines, consumed, eligible, offer.RequiredQuantity)
			groupSubtotal := 0.0
			for _, d := range draws {
				groupSubtotal += drawValue(lines[d.index], d.units)
			}

			discount := clampDiscount(groupDiscountAmount(offer, groupSubtotal), groupSubtotal)
			if groupSubtotal > 0 && discount > 0 {
				contributions := make([]float64, len(draws))
				for k, d := range draws {
					contributions[k] = drawValue(lines[d.index], d.units)
				}
				shares := proportionalShares(contributions, discount)
				instanceIndex := instance
				for k, d := range draws {
					line := &lines[d.index]
					line.GroupOfferID = &offerID
					line.GroupInstanceIndex = &instanceIndex
					line.GroupDiscountShare += shares[k]
					line.LineDiscount += shares[k]
					line.LineTotal = max(0, line.LineSubtotal-line.LineDiscount)
				}
			}

			summary = append(summary, domain.AppliedDiscount{
				Kind:            domain.DiscountKindGroup,
				OfferID:         offer.ID,
				OfferName:       offer.Name,
				InstanceIndex:   instance,
				QuantityApplied: offer.RequiredQuantity,
				DiscountAmount:  discount,
			})
		}
	}
	return summary
}

// drawValue prices units drawn from a line. Weighed lines sell at their
// scale-derived subtotal rather than Quantity times UnitPrice, so draws are
// valued against the subtotal and a line's proportional share stays within
// its own LineSubtotal.
func drawValue(line domain.CartLine, units int) float64 {
	if line.IsWeightItem {
		if line.Quantity <= 0 || units >= line.Quantity {
			return line.LineSubtotal
		}
		return line.LineSubtotal * float64(units) / float64(line.Quantity)
	}
	return float64(units) * line.UnitPrice
}

// drawUnits pulls up to need units from the eligible lines in cart order,
// advancing the shared consumed counters.
func drawUnits(lines []domain.CartLine, consumed []int, eligible []int, need int) []unitDraw {
	var draws []unitDraw
	for _, i := range eligible {
		if need <= 0 {
			break
		}
		available := lines[i].Quantity - consumed[i]
		if available <= 0 {
			continue
		}
		take := min(available, need)
		consumed[i] += take
		need -= take
		draws = append(draws, unitDraw{index: i, units: take})
	}
	return draws
}

func groupDiscountAmount(offer domain.GroupOffer, groupSubtotal float64) float64 {
	switch offer.DiscountType {
	case domain.GroupDiscountFixedPrice:
		return max(0, groupSubtotal-offer.DiscountValue)
	case domain.GroupDiscountFixedAmount:
		return min(offer.DiscountValue, groupSubtotal)
	case domain.GroupDiscountPercentage:
		return groupSubtotal * offer.DiscountValue / 100
	default:
		return 0
	}
}

func clampDiscount(amount, base float64) float64 {
	if amount < 0 {
		return 0
	}
	if amount > base {
		return base
	}
	return amount
}
