package services

import (
	"context"
	"slices"
	"sort"
	"time"

	domain "github.com/tillpoint/api/internal/domain"
)

// PromotionEngine applies group offers, BOGO offers, and time discounts to a
// cart in a single deterministic run. The engine performs no I/O and never
// mutates the caller's cart; callers pass the evaluation instant explicitly
// so repeated runs over the same inputs produce identical results.
type PromotionEngine struct {
	logger func(context.Context, string, map[string]any)
}

type PromotionEngineDeps struct {
	// Logger receives data-quality warnings for offers skipped as malformed.
	Logger func(context.Context, string, map[string]any)
}

func NewPromotionEngine(deps PromotionEngineDeps) *PromotionEngine {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &PromotionEngine{logger: logger}
}

// Apply reprices the cart against the offer set. Passes always run in the
// order group, BOGO, time; within a pass offers run by descending priority
// with input order breaking ties. Malformed offers are skipped inert.
// Activation dates and time windows are store-local wall clock values, so
// they evaluate against now in its own location.
func (e *PromotionEngine) Apply(ctx context.Context, cart domain.Cart, offers domain.OfferSet, now time.Time) (domain.Cart, domain.PricingSummary) {
	priced := cloneCart(cart)
	resetDiscounts(priced.Lines)

	groups := e.activeGroupOffers(ctx, offers.GroupOffers, now)
	bogos := e.activeBogoOffers(ctx, offers.BogoOffers, now)
	times := e.activeTimeDiscounts(ctx, offers.TimeDiscounts, now)

	summary := domain.PricingSummary{}
	summary.Lines = append(summary.Lines, applyGroupOffers(priced.Lines, groups)...)
	summary.Lines = append(summary.Lines, applyBogoOffers(priced.Lines, bogos)...)
	summary.Lines = append(summary.Lines, applyTimeDiscounts(priced.Lines, times)...)

	for i := range priced.Lines {
		line := &priced.Lines[i]
		line.LineTotal = max(0, line.LineSubtotal-line.LineDiscount)
		summary.Subtotal += line.LineSubtotal
		summary.TotalDiscount += line.LineDiscount
	}
	summary.Total = max(0, summary.Subtotal-summary.TotalDiscount)
	return priced, summary
}

// resetDiscounts returns every line to its undiscounted state so a run never
// observes the attribution left by a previous one.
func resetDiscounts(lines []domain.CartLine) {
	for i := range lines {
		line := &lines[i]
		line.LineDiscount = 0
		line.LineTotal = line.LineSubtotal
		line.GroupOfferID = nil
		line.GroupInstanceIndex = nil
		line.GroupDiscountShare = 0
		line.BogoOfferID = nil
		line.BogoDiscountAmount = 0
		line.TimeDiscountID = nil
		line.TimeDiscountAmount = 0
	}
}

func (e *PromotionEngine) activeGroupOffers(ctx context.Context, offers []domain.GroupOffer, now time.Time) []domain.GroupOffer {
	day := now.Format("2006-01-02")
	active := make([]domain.GroupOffer, 0, len(offers))
	for _, offer := range offers {
		if !offerWindowActive(offer.OfferWindow, day) {
			continue
		}
		if issue := groupOfferIssue(offer); issue != "" {
			e.warnSkipped(ctx, "group", offer.ID, issue)
			continue
		}
		active = append(active, offer)
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority > active[j].Priority })
	return active
}

func (e *PromotionEngine) activeBogoOffers(ctx context.Context, offers []domain.BogoOffer, now time.Time) []domain.BogoOffer {
	day := now.Format("2006-01-02")
	active := make([]domain.BogoOffer, 0, len(offers))
	for _, offer := range offers {
		if !offerWindowActive(offer.OfferWindow, day) {
			continue
		}
		if issue := bogoOfferIssue(offer); issue != "" {
			e.warnSkipped(ctx, "bogo", offer.ID, issue)
			continue
		}
		active = append(active, offer)
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority > active[j].Priority })
	return active
}

func (e *PromotionEngine) activeTimeDiscounts(ctx context.Context, discounts []domain.TimeDiscount, now time.Time) []domain.TimeDiscount {
	day := now.Format("2006-01-02")
	clock := now.Format("15:04")
	weekday := int(now.Weekday())
	active := make([]domain.TimeDiscount, 0, len(discounts))
	for _, discount := range discounts {
		if !offerWindowActive(discount.OfferWindow, day) {
			continue
		}
		if issue := timeDiscountIssue(discount); issue != "" {
			e.warnSkipped(ctx, "time", discount.ID, issue)
			continue
		}
		if !slices.Contains(discount.DaysOfWeek, weekday) {
			continue
		}
		if clock < discount.StartTime || clock > discount.EndTime {
			continue
		}
		active = append(active, discount)
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority > active[j].Priority })
	return active
}

// offerWindowActive checks the shared activation envelope. Dates are
// inclusive YYYY-MM-DD strings compared lexicographically; an empty bound is
// open on that side.
func offerWindowActive(w domain.OfferWindow, day string) bool {
	if !w.IsActive {
		return false
	}
	if w.StartDate != "" && day < w.StartDate {
		return false
	}
	if w.EndDate != "" && day > w.EndDate {
		return false
	}
	return true
}

func groupOfferIssue(offer domain.GroupOffer) string {
	if len(offer.ProductIDs) == 0 {
		return "no eligible products"
	}
	if offer.RequiredQuantity <= 0 {
		return "required quantity must be positive"
	}
	switch offer.DiscountType {
	case domain.GroupDiscountFixedPrice, domain.GroupDiscountFixedAmount, domain.GroupDiscountPercentage:
	default:
		return "unknown discount type"
	}
	if offer.DiscountValue < 0 {
		return "negative discount value"
	}
	if offer.DiscountType == domain.GroupDiscountPercentage && offer.DiscountValue > 100 {
		return "percentage exceeds 100"
	}
	return ""
}

func bogoOfferIssue(offer domain.BogoOffer) string {
	if len(offer.BuyProductIDs) == 0 || len(offer.GetProductIDs) == 0 {
		return "buy and get product sets are required"
	}
	if offer.BuyQuantity <= 0 || offer.GetQuantity <= 0 {
		return "buy and get quantities must be positive"
	}
	switch offer.ApplyOn {
	case domain.BogoApplyCheapest, domain.BogoApplyMostExpensive, domain.BogoApplySpecific:
	default:
		return "unknown apply-on mode"
	}
	switch offer.DiscountType {
	case domain.BogoDiscountPercentage, domain.BogoDiscountFixedAmount, domain.BogoDiscountFree:
	default:
		return "unknown discount type"
	}
	if offer.DiscountValue < 0 {
		return "negative discount value"
	}
	if offer.DiscountType == domain.BogoDiscountPercentage && offer.DiscountValue > 100 {
		return "percentage exceeds 100"
	}
	return ""
}

func timeDiscountIssue(discount domain.TimeDiscount) string {
	switch discount.Scope {
	case domain.TimeScopeAll:
	case domain.TimeScopeCategory:
		if len(discount.CategoryIDs) == 0 {
			return "category scope without categories"
		}
	default:
		return "unknown scope"
	}
	if len(discount.DaysOfWeek) == 0 {
		return "no active weekdays"
	}
	for _, d := range discount.DaysOfWeek {
		if d < 0 || d > 6 {
			return "weekday out of range"
		}
	}
	if !validClockString(discount.StartTime) || !validClockString(discount.EndTime) {
		return "invalid time window"
	}
	if discount.StartTime > discount.EndTime {
		return "window crosses midnight"
	}
	switch discount.DiscountType {
	case domain.TimeDiscountPercentage, domain.TimeDiscountFixedAmount:
	default:
		return "unknown discount type"
	}
	if discount.DiscountValue < 0 {
		return "negative discount value"
	}
	if discount.DiscountType == domain.TimeDiscountPercentage && discount.DiscountValue > 100 {
		return "percentage exceeds 100"
	}
	return ""
}

func validClockString(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	hh := v[:2]
	mm := v[3:]
	for _, r := range hh + mm {
		if r < '0' || r > '9' {
			return false
		}
	}
	return hh <= "23" && mm <= "59"
}

func (e *PromotionEngine) warnSkipped(ctx context.Context, kind, offerID, issue string) {
	e.logger(ctx, "promotion_engine.offer_skipped", map[string]any{
		"kind":     kind,
		"offer_id": offerID,
		"issue":    issue,
	})
}

func cloneCart(cart domain.Cart) domain.Cart {
	out := cart
	out.Lines = cloneCartLines(cart.Lines)
	if cart.Metadata != nil {
		out.Metadata = make(map[string]string, len(cart.Metadata))
		for k, v := range cart.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func cloneCartLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	for i, line := range lines {
		copied := line
		copied.CategoryID = cloneStringPointer(line.CategoryID)
		copied.MeasuredWeight = cloneFloatPointer(line.MeasuredWeight)
		copied.WeightUnit = cloneStringPointer(line.WeightUnit)
		copied.TareWeight = cloneFloatPointer(line.TareWeight)
		copied.GroupOfferID = cloneStringPointer(line.GroupOfferID)
		copied.GroupInstanceIndex = cloneIntPointer(line.GroupInstanceIndex)
		copied.BogoOfferID = cloneStringPointer(line.BogoOfferID)
		copied.TimeDiscountID = cloneStringPointer(line.TimeDiscountID)
		out[i] = copied
	}
	return out
}
