package services

import (
	"slices"
	"sort"

	domain "github.com/tillpoint/api/internal/domain"
)

// applyBogoOffers runs the BOGO pass. Offers arrive filtered and sorted by
// descending priority. A physical unit is drawn at most once per offer, so a
// unit spent as a buy unit is no longer available as a discount target.
func applyBogoOffers(lines []domain.CartLine, offers []domain.BogoOffer) []domain.AppliedDiscount {
	var summary []domain.AppliedDiscount
	consumed := make([]int, len(lines))

	for _, offer := range offers {
		buyEligible := eligibleIndexes(lines, offer.BuyProductIDs)
		getEligible := eligibleIndexes(lines, offer.GetProductIDs)
		if len(buyEligible) == 0 || len(getEligible) == 0 {
			continue
		}

		buyCount := remainingUnits(lines, consumed, buyEligible)
		getCount := remainingUnits(lines, consumed, getEligible)
		applications := min(buyCount/offer.BuyQuantity, getCount/offer.GetQuantity)
		if applications <= 0 {
			continue
		}

		offerID := offer.ID
		for application := 1; application <= applications; application++ {
			buys := drawUnits(lines, consumed, buyEligible, offer.BuyQuantity)
			if drawnUnits(buys) < offer.BuyQuantity {
				break
			}
			targets := drawUnits(lines, consumed, targetOrder(lines, getEligible, offer.ApplyOn), offer.GetQuantity)
			if drawnUnits(targets) < offer.GetQuantity {
				break
			}

			targetSubtotal := 0.0
			for _, t := range targets {
				targetSubtotal += drawValue(lines[t.index], t.units)
			}

			discount := clampDiscount(bogoDiscountAmount(offer, targetSubtotal), targetSubtotal)
			if targetSubtotal > 0 && discount > 0 {
				contributions := make([]float64, len(targets))
				for k, t := range targets {
					contributions[k] = drawValue(lines[t.index], t.units)
				}
				shares := proportionalShares(contributions, discount)
				for k, t := range targets {
					line := &lines[t.index]
					line.BogoOfferID = &offerID
					line.BogoDiscountAmount += shares[k]
					line.LineDiscount += shares[k]
					line.LineTotal = max(0, line.LineSubtotal-line.LineDiscount)
				}
			}

			summary = append(summary, domain.AppliedDiscount{
				Kind:            domain.DiscountKindBogo,
				OfferID:         offer.ID,
				OfferName:       offer.Name,
				InstanceIndex:   application,
				QuantityApplied: offer.GetQuantity,
				DiscountAmount:  discount,
				BuyQuantity:     offer.BuyQuantity,
				GetQuantity:     offer.GetQuantity,
			})
		}
	}
	return summary
}

func eligibleIndexes(lines []domain.CartLine, productIDs []string) []int {
	var eligible []int
	for i := range lines {
		if slices.Contains(productIDs, lines[i].ProductID) {
			eligible = append(eligible, i)
		}
	}
	return eligible
}

func remainingUnits(lines []domain.CartLine, consumed []int, indexes []int) int {
	total := 0
	for _, i := range indexes {
		if left := lines[i].Quantity - consumed[i]; left > 0 {
			total += left
		}
	}
	return total
}

func drawnUnits(draws []unitDraw) int {
	total := 0
	for _, d := range draws {
		total += d.units
	}
	return total
}

// targetOrder arranges the get-eligible lines according to the offer's
// apply-on mode. Price ties keep cart order; specific mode is plain cart
// order over the get set.
func targetOrder(lines []domain.CartLine, getEligible []int, applyOn domain.BogoApplyOn) []int {
	ordered := slices.Clone(getEligible)
	switch applyOn {
	case domain.BogoApplyCheapest:
		sort.SliceStable(ordered, func(a, b int) bool {
			return lines[ordered[a]].UnitPrice < lines[ordered[b]].UnitPrice
		})
	case domain.BogoApplyMostExpensive:
		sort.SliceStable(ordered, func(a, b int) bool {
			return lines[ordered[a]].UnitPrice > lines[ordered[b]].UnitPrice
		})
	}
	return ordered
}

func bogoDiscountAmount(offer domain.BogoOffer, targetSubtotal float64) float64 {
	switch offer.DiscountType {
	case domain.BogoDiscountPercentage:
		return targetSubtotal * offer.DiscountValue / 100
	case domain.BogoDiscountFixedAmount:
		return min(offer.DiscountValue, targetSubtotal)
	case domain.BogoDiscountFree:
		return targetSubtotal
	default:
		return 0
	}
}
