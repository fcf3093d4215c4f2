package services

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	domain "github.com/tillpoint/api/internal/domain"
)

// Tuesday 2025-06-10 14:30 UTC; weekday 2.
var engineNow = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

func testLine(lineID, productID string, price float64, qty int) CartLine {
	return CartLine{
		LineID:       lineID,
		ProductID:    productID,
		Name:         productID,
		UnitPrice:    price,
		Quantity:     qty,
		LineSubtotal: price * float64(qty),
	}
}

func testCart(lines ...CartLine) Cart {
	return Cart{
		ID:         "cart_1",
		TenantID:   "tenant_1",
		RegisterID: "reg_1",
		Status:     domain.CartStatusOpen,
		Lines:      lines,
	}
}

func activeWindow() domain.OfferWindow {
	return domain.OfferWindow{IsActive: true, StartDate: "2025-01-01", EndDate: "2025-12-31"}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= domain.MoneyEpsilon
}

func checkConservation(t *testing.T, cart Cart, summary PricingSummary) {
	t.Helper()
	lineDiscounts := 0.0
	subtotal := 0.0
	for _, line := range cart.Lines {
		lineDiscounts += line.LineDiscount
		subtotal += line.LineSubtotal
	}
	summaryDiscounts := 0.0
	for _, row := range summary.Lines {
		summaryDiscounts += row.DiscountAmount
	}
	if !almostEqual(lineDiscounts, summaryDiscounts) {
		t.Fatalf("line discounts %.12f do not match summary discounts %.12f", lineDiscounts, summaryDiscounts)
	}
	if !almostEqual(summary.Subtotal, subtotal) {
		t.Fatalf("summary subtotal %.12f, want %.12f", summary.Subtotal, subtotal)
	}
	if !almostEqual(summary.Total, summary.Subtotal-summary.TotalDiscount) {
		t.Fatalf("total %.12f does not equal subtotal-discount %.12f", summary.Total, summary.Subtotal-summary.TotalDiscount)
	}
}

func TestPromotionEngine_GroupOfferPercentage(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "apple", 2.00, 2),
		testLine("l2", "banana", 1.00, 1),
	)
	offer := GroupOffer{
		ID:               "g1",
		Name:             "Fruit bundle",
		OfferWindow:      activeWindow(),
		ProductIDs:       []string{"apple", "banana"},
		RequiredQuantity: 3,
		DiscountType:     domain.GroupDiscountPercentage,
		DiscountValue:    10,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{GroupOffers: []GroupOffer{offer}}, engineNow)

	if len(summary.Lines) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(summary.Lines))
	}
	row := summary.Lines[0]
	if row.Kind != domain.DiscountKindGroup || row.InstanceIndex != 1 || row.QuantityApplied != 3 {
		t.Fatalf("unexpected summary row: %+v", row)
	}
	// Group subtotal 5.00, 10% off, shares split 4:1 across lines.
	if !almostEqual(row.DiscountAmount, 0.5) {
		t.Fatalf("discount amount %.12f, want 0.5", row.DiscountAmount)
	}
	if !almostEqual(priced.Lines[0].GroupDiscountShare, 0.4) {
		t.Fatalf("apple share %.12f, want 0.4", priced.Lines[0].GroupDiscountShare)
	}
	if !almostEqual(priced.Lines[1].GroupDiscountShare, 0.1) {
		t.Fatalf("banana share %.12f, want 0.1", priced.Lines[1].GroupDiscountShare)
	}
	if priced.Lines[0].GroupOfferID == nil || *priced.Lines[0].GroupOfferID != "g1" {
		t.Fatalf("apple line missing group attribution: %+v", priced.Lines[0])
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_GroupOfferFixedPriceMultipleInstances(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(testLine("l1", "soda", 1.50, 4))
	offer := GroupOffer{
		ID:               "g2",
		Name:             "2 sodas for 2.50",
		OfferWindow:      activeWindow(),
		ProductIDs:       []string{"soda"},
		RequiredQuantity: 2,
		DiscountType:     domain.GroupDiscountFixedPrice,
		DiscountValue:    2.50,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{GroupOffers: []GroupOffer{offer}}, engineNow)

	if len(summary.Lines) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(summary.Lines))
	}
	// Each pair costs 3.00, fixed price 2.50, so 0.50 off per instance.
	for i, row := range summary.Lines {
		if row.InstanceIndex != i+1 {
			t.Fatalf("instance index %d, want %d", row.InstanceIndex, i+1)
		}
		if !almostEqual(row.DiscountAmount, 0.5) {
			t.Fatalf("instance %d discount %.12f, want 0.5", i+1, row.DiscountAmount)
		}
	}
	if !almostEqual(priced.Lines[0].LineDiscount, 1.0) {
		t.Fatalf("line discount %.12f, want 1.0", priced.Lines[0].LineDiscount)
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_GroupFixedPriceAboveSubtotalIsFreeDeal(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(testLine("l1", "gum", 0.80, 2))
	offer := GroupOffer{
		ID:               "g3",
		Name:             "Bundle",
		OfferWindow:      activeWindow(),
		ProductIDs:       []string{"gum"},
		RequiredQuantity: 2,
		DiscountType:     domain.GroupDiscountFixedPrice,
		DiscountValue:    5.00,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{GroupOffers: []GroupOffer{offer}}, engineNow)

	// Fixed price above the bundle subtotal must not grant a negative discount.
	if len(summary.Lines) != 1 || !almostEqual(summary.Lines[0].DiscountAmount, 0) {
		t.Fatalf("expected zero-discount instance, got %+v", summary.Lines)
	}
	if !almostEqual(priced.Lines[0].LineTotal, 1.60) {
		t.Fatalf("line total %.12f, want 1.60", priced.Lines[0].LineTotal)
	}
}

func TestPromotionEngine_GroupPriorityConsumesUnitsFirst(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(testLine("l1", "wine", 10.00, 3))
	low := GroupOffer{
		ID:               "low",
		Name:             "Low priority",
		OfferWindow:      domain.OfferWindow{Priority: 1, IsActive: true},
		ProductIDs:       []string{"wine"},
		RequiredQuantity: 2,
		DiscountType:     domain.GroupDiscountFixedAmount,
		DiscountValue:    1.00,
	}
	high := low
	high.ID = "high"
	high.Name = "High priority"
	high.Priority = 5
	high.DiscountValue = 3.00

	// Input order lists the low-priority offer first; the high-priority offer
	// must still run first and leave only one unit behind.
	_, summary := engine.Apply(context.Background(), cart, OfferSet{GroupOffers: []GroupOffer{low, high}}, engineNow)

	if len(summary.Lines) != 1 {
		t.Fatalf("expected only the high-priority offer to apply, got %+v", summary.Lines)
	}
	if summary.Lines[0].OfferID != "high" || !almostEqual(summary.Lines[0].DiscountAmount, 3.00) {
		t.Fatalf("unexpected winning offer: %+v", summary.Lines[0])
	}
}

func TestPromotionEngine_BogoCheapestTargets(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "shampoo", 6.00, 2),
		testLine("l2", "conditioner", 4.00, 1),
		testLine("l3", "soap", 2.00, 1),
	)
	offer := BogoOffer{
		ID:            "b1",
		Name:          "Buy 2 get 1 free",
		OfferWindow:   activeWindow(),
		BuyProductIDs: []string{"shampoo"},
		BuyQuantity:   2,
		GetProductIDs: []string{"conditioner", "soap"},
		GetQuantity:   1,
		ApplyOn:       domain.BogoApplyCheapest,
		DiscountType:  domain.BogoDiscountFree,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{BogoOffers: []BogoOffer{offer}}, engineNow)

	if len(summary.Lines) != 1 {
		t.Fatalf("expected 1 application, got %d", len(summary.Lines))
	}
	row := summary.Lines[0]
	if row.Kind != domain.DiscountKindBogo || row.BuyQuantity != 2 || row.GetQuantity != 1 {
		t.Fatalf("unexpected row: %+v", row)
	}
	// Soap is the cheapest eligible target and becomes free.
	if !almostEqual(row.DiscountAmount, 2.00) {
		t.Fatalf("discount %.12f, want 2.00", row.DiscountAmount)
	}
	if priced.Lines[2].BogoOfferID == nil || !almostEqual(priced.Lines[2].BogoDiscountAmount, 2.00) {
		t.Fatalf("soap line missing bogo attribution: %+v", priced.Lines[2])
	}
	if priced.Lines[1].BogoOfferID != nil {
		t.Fatalf("conditioner should be untouched: %+v", priced.Lines[1])
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_BogoMostExpensivePercentage(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "entree", 12.00, 2),
		testLine("l2", "dessert", 5.00, 1),
		testLine("l3", "dessert_deluxe", 8.00, 1),
	)
	offer := BogoOffer{
		ID:            "b2",
		Name:          "Half-price dessert",
		OfferWindow:   activeWindow(),
		BuyProductIDs: []string{"entree"},
		BuyQuantity:   2,
		GetProductIDs: []string{"dessert", "dessert_deluxe"},
		GetQuantity:   1,
		ApplyOn:       domain.BogoApplyMostExpensive,
		DiscountType:  domain.BogoDiscountPercentage,
		DiscountValue: 50,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{BogoOffers: []BogoOffer{offer}}, engineNow)

	if len(summary.Lines) != 1 || !almostEqual(summary.Lines[0].DiscountAmount, 4.00) {
		t.Fatalf("expected 4.00 off the deluxe dessert, got %+v", summary.Lines)
	}
	if !almostEqual(priced.Lines[2].BogoDiscountAmount, 4.00) {
		t.Fatalf("deluxe dessert discount %.12f, want 4.00", priced.Lines[2].BogoDiscountAmount)
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_BogoOverlappingBuyAndGetSets(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	// Buy and get sets overlap; with 3 units the naive count would allow one
	// application, and the buy draw must not double as the target.
	cart := testCart(testLine("l1", "coffee", 3.00, 3))
	offer := BogoOffer{
		ID:            "b3",
		Name:          "Buy 2 get 1",
		OfferWindow:   activeWindow(),
		BuyProductIDs: []string{"coffee"},
		BuyQuantity:   2,
		GetProductIDs: []string{"coffee"},
		GetQuantity:   1,
		ApplyOn:       domain.BogoApplySpecific,
		DiscountType:  domain.BogoDiscountFree,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{BogoOffers: []BogoOffer{offer}}, engineNow)

	if len(summary.Lines) != 1 || !almostEqual(summary.Lines[0].DiscountAmount, 3.00) {
		t.Fatalf("expected one free coffee, got %+v", summary.Lines)
	}
	if !almostEqual(priced.Lines[0].LineTotal, 6.00) {
		t.Fatalf("line total %.12f, want 6.00", priced.Lines[0].LineTotal)
	}
}

func TestPromotionEngine_TimeDiscountPercentageCategoryScope(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	bakery := "bakery"
	lineInScope := testLine("l1", "croissant", 2.00, 2)
	lineInScope.CategoryID = &bakery
	lineOutOfScope := testLine("l2", "coffee", 3.00, 1)

	cart := testCart(lineInScope, lineOutOfScope)
	discount := TimeDiscount{
		ID:            "t1",
		Name:          "Happy hour",
		OfferWindow:   activeWindow(),
		Scope:         domain.TimeScopeCategory,
		CategoryIDs:   []string{"bakery"},
		DaysOfWeek:    []int{2},
		StartTime:     "14:00",
		EndTime:       "16:00",
		DiscountType:  domain.TimeDiscountPercentage,
		DiscountValue: 25,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{TimeDiscounts: []TimeDiscount{discount}}, engineNow)

	if len(summary.Lines) != 1 {
		t.Fatalf("expected 1 time row, got %d", len(summary.Lines))
	}
	row := summary.Lines[0]
	if row.Kind != domain.DiscountKindTime || row.QuantityApplied != 1 || !almostEqual(row.DiscountAmount, 1.00) {
		t.Fatalf("unexpected time row: %+v", row)
	}
	if priced.Lines[1].TimeDiscountID != nil {
		t.Fatalf("uncategorized line should not receive a category discount")
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_TimeDiscountOutsideWindowSkipped(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	base := TimeDiscount{
		ID:            "t2",
		Name:          "Happy hour",
		OfferWindow:   activeWindow(),
		Scope:         domain.TimeScopeAll,
		DaysOfWeek:    []int{2},
		StartTime:     "14:00",
		EndTime:       "16:00",
		DiscountType:  domain.TimeDiscountPercentage,
		DiscountValue: 10,
	}
	cart := testCart(testLine("l1", "tea", 2.00, 1))

	cases := []struct {
		name string
		at   time.Time
		mod  func(*TimeDiscount)
		want int
	}{
		{name: "inside window", at: engineNow, want: 1},
		{name: "wrong weekday", at: engineNow.AddDate(0, 0, 1), want: 0},
		{name: "before start", at: time.Date(2025, 6, 10, 13, 59, 0, 0, time.UTC), want: 0},
		{name: "at start boundary", at: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC), want: 1},
		{name: "at end boundary", at: time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC), want: 1},
		{name: "after end", at: time.Date(2025, 6, 10, 16, 1, 0, 0, time.UTC), want: 0},
		{name: "cross midnight window rejected", at: engineNow, mod: func(d *TimeDiscount) {
			d.StartTime = "22:00"
			d.EndTime = "02:00"
		}, want: 0},
		{name: "expired date window", at: engineNow, mod: func(d *TimeDiscount) {
			d.EndDate = "2025-06-09"
		}, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			discount := base
			if tc.mod != nil {
				tc.mod(&discount)
			}
			_, summary := engine.Apply(context.Background(), cart, OfferSet{TimeDiscounts: []TimeDiscount{discount}}, tc.at)
			if len(summary.Lines) != tc.want {
				t.Fatalf("expected %d rows, got %+v", tc.want, summary.Lines)
			}
		})
	}
}

func TestPromotionEngine_TimeFixedAmountCapsPerLine(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "candy", 0.50, 1),
		testLine("l2", "cake", 9.00, 1),
	)
	discount := TimeDiscount{
		ID:            "t3",
		Name:          "Flat 4 off",
		OfferWindow:   activeWindow(),
		Scope:         domain.TimeScopeAll,
		DaysOfWeek:    []int{0, 1, 2, 3, 4, 5, 6},
		StartTime:     "00:00",
		EndTime:       "23:59",
		DiscountType:  domain.TimeDiscountFixedAmount,
		DiscountValue: 4.00,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{TimeDiscounts: []TimeDiscount{discount}}, engineNow)

	// 2.00 per line; the candy line caps at its 0.50 subtotal and the capped
	// remainder is not shifted onto the cake line.
	if !almostEqual(priced.Lines[0].TimeDiscountAmount, 0.50) {
		t.Fatalf("candy discount %.12f, want 0.50", priced.Lines[0].TimeDiscountAmount)
	}
	if !almostEqual(priced.Lines[1].TimeDiscountAmount, 2.00) {
		t.Fatalf("cake discount %.12f, want 2.00", priced.Lines[1].TimeDiscountAmount)
	}
	if len(summary.Lines) != 1 || !almostEqual(summary.Lines[0].DiscountAmount, 2.50) {
		t.Fatalf("unexpected summary: %+v", summary.Lines)
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_PassesStack(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "pizza", 8.00, 2),
		testLine("l2", "drink", 2.00, 2),
	)
	offers := OfferSet{
		GroupOffers: []GroupOffer{{
			ID: "g", Name: "Pizza pair", OfferWindow: activeWindow(),
			ProductIDs: []string{"pizza"}, RequiredQuantity: 2,
			DiscountType: domain.GroupDiscountFixedAmount, DiscountValue: 4.00,
		}},
		BogoOffers: []BogoOffer{{
			ID: "b", Name: "Free drink", OfferWindow: activeWindow(),
			BuyProductIDs: []string{"pizza"}, BuyQuantity: 2,
			GetProductIDs: []string{"drink"}, GetQuantity: 1,
			ApplyOn: domain.BogoApplySpecific, DiscountType: domain.BogoDiscountFree,
		}},
		TimeDiscounts: []TimeDiscount{{
			ID: "t", Name: "10% afternoon", OfferWindow: activeWindow(),
			Scope: domain.TimeScopeAll, DaysOfWeek: []int{2},
			StartTime: "12:00", EndTime: "18:00",
			DiscountType: domain.TimeDiscountPercentage, DiscountValue: 10,
		}},
	}

	priced, summary := engine.Apply(context.Background(), cart, offers, engineNow)

	// Units spent in the group pass remain visible to the BOGO pass.
	kinds := make([]domain.DiscountKind, 0, len(summary.Lines))
	for _, row := range summary.Lines {
		kinds = append(kinds, row.Kind)
	}
	want := []domain.DiscountKind{domain.DiscountKindGroup, domain.DiscountKindBogo, domain.DiscountKindTime}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("pass order %v, want %v", kinds, want)
	}
	// Group 4.00 + free drink 2.00 + 10% of the 20.00 subtotal.
	if !almostEqual(summary.TotalDiscount, 4.00+2.00+2.00) {
		t.Fatalf("total discount %.12f, want 8.00", summary.TotalDiscount)
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_PureAndIdempotent(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "apple", 2.00, 3),
		testLine("l2", "banana", 1.00, 2),
	)
	original := cloneCart(cart)
	offers := OfferSet{GroupOffers: []GroupOffer{{
		ID: "g", Name: "Bundle", OfferWindow: activeWindow(),
		ProductIDs: []string{"apple", "banana"}, RequiredQuantity: 2,
		DiscountType: domain.GroupDiscountPercentage, DiscountValue: 15,
	}}}

	first, firstSummary := engine.Apply(context.Background(), cart, offers, engineNow)
	if !reflect.DeepEqual(cart, original) {
		t.Fatalf("engine mutated the caller's cart")
	}

	second, secondSummary := engine.Apply(context.Background(), first, offers, engineNow)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repricing engine output changed it:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if !reflect.DeepEqual(firstSummary, secondSummary) {
		t.Fatalf("summary not stable across reruns")
	}
}

func TestPromotionEngine_MalformedOffersSkippedWithWarning(t *testing.T) {
	var events []string
	engine := NewPromotionEngine(PromotionEngineDeps{
		Logger: func(_ context.Context, event string, fields map[string]any) {
			events = append(events, event)
			if fields["issue"] == "" {
				t.Fatalf("skip warning missing issue field")
			}
		},
	})

	cart := testCart(testLine("l1", "apple", 2.00, 4))
	offers := OfferSet{
		GroupOffers: []GroupOffer{
			{ID: "bad_qty", OfferWindow: activeWindow(), ProductIDs: []string{"apple"}, RequiredQuantity: 0, DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10},
			{ID: "bad_type", OfferWindow: activeWindow(), ProductIDs: []string{"apple"}, RequiredQuantity: 2, DiscountType: "mystery", DiscountValue: 10},
			{ID: "ok", Name: "Good", OfferWindow: activeWindow(), ProductIDs: []string{"apple"}, RequiredQuantity: 2, DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10},
		},
		BogoOffers: []BogoOffer{
			{ID: "bad_bogo", OfferWindow: activeWindow(), BuyProductIDs: []string{"apple"}, BuyQuantity: 1, GetProductIDs: []string{"apple"}, GetQuantity: 1, ApplyOn: "sideways", DiscountType: domain.BogoDiscountFree},
		},
		TimeDiscounts: []TimeDiscount{
			{ID: "bad_time", OfferWindow: activeWindow(), Scope: domain.TimeScopeAll, DaysOfWeek: []int{2}, StartTime: "25:00", EndTime: "26:00", DiscountType: domain.TimeDiscountPercentage, DiscountValue: 5},
		},
	}

	_, summary := engine.Apply(context.Background(), cart, offers, engineNow)

	if len(summary.Lines) != 2 {
		t.Fatalf("expected only the valid offer's 2 instances, got %+v", summary.Lines)
	}
	for _, row := range summary.Lines {
		if row.OfferID != "ok" {
			t.Fatalf("malformed offer leaked into summary: %+v", row)
		}
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 skip warnings, got %d", len(events))
	}
}

func TestPromotionEngine_ResetClearsPriorAttribution(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	stale := "stale_offer"
	staleIdx := 3
	line := testLine("l1", "apple", 2.00, 1)
	line.LineDiscount = 1.23
	line.LineTotal = 0.77
	line.GroupOfferID = &stale
	line.GroupInstanceIndex = &staleIdx
	line.GroupDiscountShare = 1.23
	line.TimeDiscountID = &stale
	line.TimeDiscountAmount = 0.5

	priced, summary := engine.Apply(context.Background(), testCart(line), OfferSet{}, engineNow)

	got := priced.Lines[0]
	if got.LineDiscount != 0 || got.GroupOfferID != nil || got.GroupInstanceIndex != nil ||
		got.GroupDiscountShare != 0 || got.TimeDiscountID != nil || got.TimeDiscountAmount != 0 {
		t.Fatalf("stale attribution survived reset: %+v", got)
	}
	if !almostEqual(got.LineTotal, 2.00) || !almostEqual(summary.Total, 2.00) {
		t.Fatalf("reset totals wrong: line %+v, summary %+v", got, summary)
	}
}

func TestPromotionEngine_ZeroPriceLinesDoNotPanic(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(testLine("l1", "sample", 0, 2))
	offers := OfferSet{GroupOffers: []GroupOffer{{
		ID: "g", Name: "Free samples", OfferWindow: activeWindow(),
		ProductIDs: []string{"sample"}, RequiredQuantity: 2,
		DiscountType: domain.GroupDiscountPercentage, DiscountValue: 50,
	}}}

	priced, summary := engine.Apply(context.Background(), cart, offers, engineNow)

	// A zero-subtotal group emits an inert instance and touches no line.
	if len(summary.Lines) != 1 || !almostEqual(summary.Lines[0].DiscountAmount, 0) {
		t.Fatalf("unexpected summary: %+v", summary.Lines)
	}
	if priced.Lines[0].LineDiscount != 0 || priced.Lines[0].GroupOfferID != nil {
		t.Fatalf("zero-price line should be untouched: %+v", priced.Lines[0])
	}
	if summary.Total != 0 || summary.Subtotal != 0 {
		t.Fatalf("expected zero totals, got %+v", summary)
	}
}

func weighedLine(lineID, productID string, perUnit, weight float64) CartLine {
	w := weight
	unit := "kg"
	return CartLine{
		LineID:          lineID,
		ProductID:       productID,
		Name:            productID,
		UnitPrice:       perUnit,
		Quantity:        1,
		IsWeightItem:    true,
		MeasuredWeight:  &w,
		WeightUnit:      &unit,
		IsScaleMeasured: true,
		LineSubtotal:    perUnit * weight,
	}
}

func TestPromotionEngine_GroupValuesWeighedLineAtSubtotal(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	// 0.3 kg of cheese at 10.00/kg prices the line at 3.00, not 10.00.
	cart := testCart(
		weighedLine("l1", "cheese", 10.00, 0.3),
		testLine("l2", "cracker", 2.00, 1),
	)
	offer := GroupOffer{
		ID:               "g",
		Name:             "Cheese board",
		OfferWindow:      activeWindow(),
		ProductIDs:       []string{"cheese", "cracker"},
		RequiredQuantity: 2,
		DiscountType:     domain.GroupDiscountFixedAmount,
		DiscountValue:    10.00,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{GroupOffers: []GroupOffer{offer}}, engineNow)

	// Group subtotal is 5.00, so the 10.00 fixed amount clamps to 5.00 and
	// splits 3:2 across the weighed and unit lines.
	if !almostEqual(summary.Lines[0].DiscountAmount, 5.00) {
		t.Fatalf("discount amount %.12f, want 5.00", summary.Lines[0].DiscountAmount)
	}
	weighed := priced.Lines[0]
	if weighed.LineDiscount > weighed.LineSubtotal+domain.MoneyEpsilon {
		t.Fatalf("weighed line discount %.12f exceeds subtotal %.12f", weighed.LineDiscount, weighed.LineSubtotal)
	}
	if !almostEqual(weighed.LineDiscount, 3.00) || !almostEqual(weighed.LineTotal, 0) {
		t.Fatalf("weighed line misallocated: %+v", weighed)
	}
	if !almostEqual(priced.Lines[1].LineDiscount, 2.00) {
		t.Fatalf("cracker discount %.12f, want 2.00", priced.Lines[1].LineDiscount)
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_BogoValuesWeighedTargetAtSubtotal(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "bread", 4.00, 1),
		weighedLine("l2", "ham", 20.00, 0.2),
	)
	offer := BogoOffer{
		ID:            "b",
		Name:          "Bread ham deal",
		OfferWindow:   activeWindow(),
		BuyProductIDs: []string{"bread"},
		BuyQuantity:   1,
		GetProductIDs: []string{"ham"},
		GetQuantity:   1,
		ApplyOn:       domain.BogoApplySpecific,
		DiscountType:  domain.BogoDiscountFree,
	}

	priced, summary := engine.Apply(context.Background(), cart, OfferSet{BogoOffers: []BogoOffer{offer}}, engineNow)

	// The free target is worth the weighed 4.00, not 20.00 per unit.
	if !almostEqual(summary.Lines[0].DiscountAmount, 4.00) {
		t.Fatalf("discount amount %.12f, want 4.00", summary.Lines[0].DiscountAmount)
	}
	ham := priced.Lines[1]
	if !almostEqual(ham.BogoDiscountAmount, 4.00) || !almostEqual(ham.LineTotal, 0) {
		t.Fatalf("ham line misallocated: %+v", ham)
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_TimeWindowUsesLocalClock(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	// Tuesday 14:30 in UTC+9; the same instant is 05:30 UTC.
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	localNow := time.Date(2025, 6, 10, 14, 30, 0, 0, tokyo)

	cart := testCart(testLine("l1", "coffee", 3.00, 1))
	offers := OfferSet{TimeDiscounts: []TimeDiscount{{
		ID: "t", Name: "Afternoon break", OfferWindow: activeWindow(),
		Scope: domain.TimeScopeAll, DaysOfWeek: []int{2},
		StartTime: "14:00", EndTime: "16:00",
		DiscountType: domain.TimeDiscountPercentage, DiscountValue: 50,
	}}}

	priced, summary := engine.Apply(context.Background(), cart, offers, localNow)

	if len(summary.Lines) != 1 {
		t.Fatalf("expected the 14:00-16:00 window to match local 14:30, got %d rows", len(summary.Lines))
	}
	if !almostEqual(priced.Lines[0].TimeDiscountAmount, 1.50) {
		t.Fatalf("time discount %.12f, want 1.50", priced.Lines[0].TimeDiscountAmount)
	}
	checkConservation(t, priced, summary)
}

func TestPromotionEngine_TimePercentageReadsFullSubtotalAfterBogo(t *testing.T) {
	engine := NewPromotionEngine(PromotionEngineDeps{})

	cart := testCart(
		testLine("l1", "pastry", 5.00, 1),
		testLine("l2", "coffee", 2.00, 1),
	)
	offers := OfferSet{
		BogoOffers: []BogoOffer{{
			ID: "b", Name: "Free coffee", OfferWindow: activeWindow(),
			BuyProductIDs: []string{"pastry"}, BuyQuantity: 1,
			GetProductIDs: []string{"coffee"}, GetQuantity: 1,
			ApplyOn: domain.BogoApplySpecific, DiscountType: domain.BogoDiscountFree,
		}},
		TimeDiscounts: []TimeDiscount{{
			ID: "t", Name: "Happy hour", OfferWindow: activeWindow(),
			Scope: domain.TimeScopeAll, DaysOfWeek: []int{2},
			StartTime: "12:00", EndTime: "18:00",
			DiscountType: domain.TimeDiscountPercentage, DiscountValue: 10,
		}},
	}

	priced, _ := engine.Apply(context.Background(), cart, offers, engineNow)

	// The time percentage reads each line's full subtotal, so a line the
	// BOGO pass already zeroed stacks past its own subtotal in the cart
	// payload. Persistence clamps the stored figure; the floor keeps the
	// line total at zero here.
	coffee := priced.Lines[1]
	if !almostEqual(coffee.BogoDiscountAmount, 2.00) {
		t.Fatalf("bogo amount %.12f, want 2.00", coffee.BogoDiscountAmount)
	}
	if !almostEqual(coffee.TimeDiscountAmount, 0.20) {
		t.Fatalf("time amount %.12f, want 0.20", coffee.TimeDiscountAmount)
	}
	if !almostEqual(coffee.LineDiscount, 2.20) || coffee.LineTotal != 0 {
		t.Fatalf("stacked coffee line: %+v", coffee)
	}
}
