package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/repositories"
)

type fakeOfferRepository struct {
	groups   map[string]GroupOffer
	bogos    map[string]BogoOffer
	times    map[string]TimeDiscount
	failWith error
}

func newFakeOfferRepository() *fakeOfferRepository {
	return &fakeOfferRepository{
		groups: make(map[string]GroupOffer),
		bogos:  make(map[string]BogoOffer),
		times:  make(map[string]TimeDiscount),
	}
}

type fakeRepoError struct {
	notFound bool
	conflict bool
}

func (e fakeRepoError) Error() string       { return "repo error" }
func (e fakeRepoError) IsNotFound() bool    { return e.notFound }
func (e fakeRepoError) IsConflict() bool    { return e.conflict }
func (e fakeRepoError) IsUnavailable() bool { return false }

func (f *fakeOfferRepository) InsertGroupOffer(_ context.Context, offer domain.GroupOffer) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.groups[offer.ID] = offer
	return nil
}

func (f *fakeOfferRepository) UpdateGroupOffer(_ context.Context, offer domain.GroupOffer, _ *time.Time) (domain.GroupOffer, error) {
	if f.failWith != nil {
		return domain.GroupOffer{}, f.failWith
	}
	f.groups[offer.ID] = offer
	return offer, nil
}

func (f *fakeOfferRepository) DeleteGroupOffer(_ context.Context, _, offerID string) error {
	delete(f.groups, offerID)
	return nil
}

func (f *fakeOfferRepository) FindGroupOffer(_ context.Context, _, offerID string) (domain.GroupOffer, error) {
	offer, ok := f.groups[offerID]
	if !ok {
		return domain.GroupOffer{}, fakeRepoError{notFound: true}
	}
	return offer, nil
}

func (f *fakeOfferRepository) ListGroupOffers(_ context.Context, filter repositories.OfferListFilter) (domain.CursorPage[domain.GroupOffer], error) {
	page := domain.CursorPage[domain.GroupOffer]{}
	for _, offer := range f.groups {
		if filter.ActiveOnly && !offer.IsActive {
			continue
		}
		page.Items = append(page.Items, offer)
	}
	return page, nil
}

func (f *fakeOfferRepository) InsertBogoOffer(_ context.Context, offer domain.BogoOffer) error {
	f.bogos[offer.ID] = offer
	return nil
}

func (f *fakeOfferRepository) UpdateBogoOffer(_ context.Context, offer domain.BogoOffer, _ *time.Time) (domain.BogoOffer, error) {
	f.bogos[offer.ID] = offer
	return offer, nil
}

func (f *fakeOfferRepository) DeleteBogoOffer(_ context.Context, _, offerID string) error {
	delete(f.bogos, offerID)
	return nil
}

func (f *fakeOfferRepository) FindBogoOffer(_ context.Context, _, offerID string) (domain.BogoOffer, error) {
	offer, ok := f.bogos[offerID]
	if !ok {
		return domain.BogoOffer{}, fakeRepoError{notFound: true}
	}
	return offer, nil
}

func (f *fakeOfferRepository) ListBogoOffers(_ context.Context, filter repositories.OfferListFilter) (domain.CursorPage[domain.BogoOffer], error) {
	page := domain.CursorPage[domain.BogoOffer]{}
	for _, offer := range f.bogos {
		if filter.ActiveOnly && !offer.IsActive {
			continue
		}
		page.Items = append(page.Items, offer)
	}
	return page, nil
}

func (f *fakeOfferRepository) InsertTimeDiscount(_ context.Context, discount domain.TimeDiscount) error {
	f.times[discount.ID] = discount
	return nil
}

func (f *fakeOfferRepository) UpdateTimeDiscount(_ context.Context, discount domain.TimeDiscount, _ *time.Time) (domain.TimeDiscount, error) {
	f.times[discount.ID] = discount
	return discount, nil
}

func (f *fakeOfferRepository) DeleteTimeDiscount(_ context.Context, _, discountID string) error {
	delete(f.times, discountID)
	return nil
}

func (f *fakeOfferRepository) FindTimeDiscount(_ context.Context, _, discountID string) (domain.TimeDiscount, error) {
	discount, ok := f.times[discountID]
	if !ok {
		return domain.TimeDiscount{}, fakeRepoError{notFound: true}
	}
	return discount, nil
}

func (f *fakeOfferRepository) ListTimeDiscounts(_ context.Context, filter repositories.OfferListFilter) (domain.CursorPage[domain.TimeDiscount], error) {
	page := domain.CursorPage[domain.TimeDiscount]{}
	for _, discount := range f.times {
		if filter.ActiveOnly && !discount.IsActive {
			continue
		}
		page.Items = append(page.Items, discount)
	}
	return page, nil
}

type recordingAudit struct {
	records []AuditLogRecord
}

func (r *recordingAudit) Record(_ context.Context, record AuditLogRecord) {
	r.records = append(r.records, record)
}

func (r *recordingAudit) List(context.Context, AuditLogFilter) (domain.CursorPage[AuditLogEntry], error) {
	return domain.CursorPage[AuditLogEntry]{}, nil
}

func newTestOfferService(t *testing.T, repo repositories.OfferRepository, audit AuditLogService) OfferService {
	t.Helper()
	ids := 0
	svc, err := NewOfferService(OfferServiceDeps{
		Offers: repo,
		Audit:  audit,
		Clock:  func() time.Time { return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC) },
		IDGenerator: func() string {
			ids++
			return "offer_" + string(rune('a'+ids-1))
		},
	})
	if err != nil {
		t.Fatalf("new offer service: %v", err)
	}
	return svc
}

func TestOfferServiceCreateGroupOffer(t *testing.T) {
	repo := newFakeOfferRepository()
	audit := &recordingAudit{}
	svc := newTestOfferService(t, repo, audit)

	offer, err := svc.CreateGroupOffer(context.Background(), UpsertGroupOfferCommand{
		TenantID:         "tenant_1",
		ActorID:          "staff_1",
		Name:             "<b>Meal deal</b>",
		Priority:         3,
		IsActive:         true,
		StartDate:        "2025-06-01",
		EndDate:          "2025-06-30",
		ProductIDs:       []string{"burger", " fries "},
		RequiredQuantity: 2,
		DiscountType:     domain.GroupDiscountFixedPrice,
		DiscountValue:    5.00,
	})
	if err != nil {
		t.Fatalf("create group offer: %v", err)
	}
	if offer.ID == "" || offer.CreatedAt.IsZero() || offer.UpdatedAt.IsZero() {
		t.Fatalf("identity fields not populated: %+v", offer)
	}
	if offer.Name != "Meal deal" {
		t.Fatalf("expected sanitized name, got %q", offer.Name)
	}
	if len(offer.ProductIDs) != 2 || offer.ProductIDs[1] != "fries" {
		t.Fatalf("product ids not normalized: %v", offer.ProductIDs)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "offer.group.create" {
		t.Fatalf("expected audit record, got %+v", audit.records)
	}
}

func TestOfferServiceValidationFailures(t *testing.T) {
	repo := newFakeOfferRepository()
	svc := newTestOfferService(t, repo, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"group missing products", func() error {
			_, err := svc.CreateGroupOffer(ctx, UpsertGroupOfferCommand{
				TenantID: "t", Name: "x", IsActive: true,
				RequiredQuantity: 2, DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
			})
			return err
		}},
		{"group zero quantity", func() error {
			_, err := svc.CreateGroupOffer(ctx, UpsertGroupOfferCommand{
				TenantID: "t", Name: "x", IsActive: true, ProductIDs: []string{"p"},
				RequiredQuantity: 0, DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
			})
			return err
		}},
		{"group bad date", func() error {
			_, err := svc.CreateGroupOffer(ctx, UpsertGroupOfferCommand{
				TenantID: "t", Name: "x", IsActive: true, ProductIDs: []string{"p"},
				StartDate: "06/01/2025", RequiredQuantity: 1,
				DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
			})
			return err
		}},
		{"bogo unknown apply-on", func() error {
			_, err := svc.CreateBogoOffer(ctx, UpsertBogoOfferCommand{
				TenantID: "t", Name: "x", IsActive: true,
				BuyProductIDs: []string{"a"}, BuyQuantity: 1,
				GetProductIDs: []string{"b"}, GetQuantity: 1,
				ApplyOn: "sideways", DiscountType: domain.BogoDiscountFree,
			})
			return err
		}},
		{"time cross-midnight window", func() error {
			_, err := svc.CreateTimeDiscount(ctx, UpsertTimeDiscountCommand{
				TenantID: "t", Name: "x", IsActive: true,
				Scope: domain.TimeScopeAll, DaysOfWeek: []int{1},
				StartTime: "22:00", EndTime: "02:00",
				DiscountType: domain.TimeDiscountPercentage, DiscountValue: 10,
			})
			return err
		}},
		{"time weekday out of range", func() error {
			_, err := svc.CreateTimeDiscount(ctx, UpsertTimeDiscountCommand{
				TenantID: "t", Name: "x", IsActive: true,
				Scope: domain.TimeScopeAll, DaysOfWeek: []int{7},
				StartTime: "10:00", EndTime: "12:00",
				DiscountType: domain.TimeDiscountPercentage, DiscountValue: 10,
			})
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, ErrOfferInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestOfferServiceUpdatePreservesCreation(t *testing.T) {
	repo := newFakeOfferRepository()
	svc := newTestOfferService(t, repo, nil)
	ctx := context.Background()

	created, err := svc.CreateGroupOffer(ctx, UpsertGroupOfferCommand{
		TenantID: "t", ActorID: "s", Name: "Deal", IsActive: true,
		ProductIDs: []string{"p"}, RequiredQuantity: 2,
		DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateGroupOffer(ctx, UpsertGroupOfferCommand{
		TenantID: "t", OfferID: &created.ID, ActorID: "s", Name: "Deal v2", IsActive: false,
		ProductIDs: []string{"p", "q"}, RequiredQuantity: 3,
		DiscountType: domain.GroupDiscountFixedAmount, DiscountValue: 2,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("identity not preserved across update: %+v", updated)
	}
	if updated.Name != "Deal v2" || updated.RequiredQuantity != 3 || updated.IsActive {
		t.Fatalf("update fields not applied: %+v", updated)
	}
}

func TestOfferServiceTranslatesRepositoryErrors(t *testing.T) {
	repo := newFakeOfferRepository()
	svc := newTestOfferService(t, repo, nil)
	ctx := context.Background()

	if _, err := svc.GetGroupOffer(ctx, "t", "missing"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	repo.failWith = fakeRepoError{conflict: true}
	_, err := svc.CreateGroupOffer(ctx, UpsertGroupOfferCommand{
		TenantID: "t", Name: "x", IsActive: true, ProductIDs: []string{"p"},
		RequiredQuantity: 1, DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
	})
	if !errors.Is(err, ErrOfferConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestOfferServiceListActiveOffers(t *testing.T) {
	repo := newFakeOfferRepository()
	var warned []string
	svc, err := NewOfferService(OfferServiceDeps{
		Offers: repo,
		Clock:  func() time.Time { return engineNow },
		Logger: func(_ context.Context, event string, fields map[string]any) {
			warned = append(warned, fields["offer_id"].(string))
		},
	})
	if err != nil {
		t.Fatalf("new offer service: %v", err)
	}

	repo.groups["in_window"] = GroupOffer{
		ID: "in_window", TenantID: "t", Name: "ok",
		OfferWindow:      domain.OfferWindow{IsActive: true, StartDate: "2025-06-01", EndDate: "2025-06-30"},
		ProductIDs:       []string{"p"},
		RequiredQuantity: 2, DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
	}
	repo.groups["expired"] = GroupOffer{
		ID: "expired", TenantID: "t", Name: "old",
		OfferWindow:      domain.OfferWindow{IsActive: true, EndDate: "2025-01-31"},
		ProductIDs:       []string{"p"},
		RequiredQuantity: 2, DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
	}
	repo.groups["broken"] = GroupOffer{
		ID: "broken", TenantID: "t", Name: "bad",
		OfferWindow: domain.OfferWindow{IsActive: true},
		ProductIDs:  []string{"p"}, RequiredQuantity: -1,
		DiscountType: domain.GroupDiscountPercentage, DiscountValue: 10,
	}
	repo.times["window"] = TimeDiscount{
		ID: "window", TenantID: "t", Name: "happy hour",
		OfferWindow: domain.OfferWindow{IsActive: true},
		Scope:       domain.TimeScopeAll, DaysOfWeek: []int{2},
		StartTime: "14:00", EndTime: "16:00",
		DiscountType: domain.TimeDiscountPercentage, DiscountValue: 10,
	}

	set, err := svc.ListActiveOffers(context.Background(), "t", engineNow)
	if err != nil {
		t.Fatalf("list active offers: %v", err)
	}
	if len(set.GroupOffers) != 1 || set.GroupOffers[0].ID != "in_window" {
		t.Fatalf("unexpected group offers: %+v", set.GroupOffers)
	}
	// The time pass re-checks the clock window; the service only applies the
	// date envelope and validity.
	if len(set.TimeDiscounts) != 1 {
		t.Fatalf("unexpected time discounts: %+v", set.TimeDiscounts)
	}
	if len(warned) != 1 || warned[0] != "broken" {
		t.Fatalf("expected broken offer warning, got %v", warned)
	}
}
