package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/platform/auth"
	"github.com/tillpoint/api/internal/services"
)

type stubOfferService struct {
	services.OfferService

	createGroupFunc func(ctx context.Context, cmd services.UpsertGroupOfferCommand) (services.GroupOffer, error)
	updateGroupFunc func(ctx context.Context, cmd services.UpsertGroupOfferCommand) (services.GroupOffer, error)
	getGroupFunc    func(ctx context.Context, tenantID, offerID string) (services.GroupOffer, error)
	listGroupFunc   func(ctx context.Context, filter services.OfferListFilter) (domain.CursorPage[services.GroupOffer], error)
	deleteGroupFunc func(ctx context.Context, cmd services.DeleteOfferCommand) error

	createBogoFunc func(ctx context.Context, cmd services.UpsertBogoOfferCommand) (services.BogoOffer, error)
	createTimeFunc func(ctx context.Context, cmd services.UpsertTimeDiscountCommand) (services.TimeDiscount, error)
}

func (s *stubOfferService) CreateGroupOffer(ctx context.Context, cmd services.UpsertGroupOfferCommand) (services.GroupOffer, error) {
	return s.createGroupFunc(ctx, cmd)
}

func (s *stubOfferService) UpdateGroupOffer(ctx context.Context, cmd services.UpsertGroupOfferCommand) (services.GroupOffer, error) {
	return s.updateGroupFunc(ctx, cmd)
}

func (s *stubOfferService) GetGroupOffer(ctx context.Context, tenantID, offerID string) (services.GroupOffer, error) {
	return s.getGroupFunc(ctx, tenantID, offerID)
}

func (s *stubOfferService) ListGroupOffers(ctx context.Context, filter services.OfferListFilter) (domain.CursorPage[services.GroupOffer], error) {
	return s.listGroupFunc(ctx, filter)
}

func (s *stubOfferService) DeleteGroupOffer(ctx context.Context, cmd services.DeleteOfferCommand) error {
	return s.deleteGroupFunc(ctx, cmd)
}

func (s *stubOfferService) CreateBogoOffer(ctx context.Context, cmd services.UpsertBogoOfferCommand) (services.BogoOffer, error) {
	return s.createBogoFunc(ctx, cmd)
}

func (s *stubOfferService) CreateTimeDiscount(ctx context.Context, cmd services.UpsertTimeDiscountCommand) (services.TimeDiscount, error) {
	return s.createTimeFunc(ctx, cmd)
}

func managerContext(req *http.Request) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{
		UID:      "manager-1",
		TenantID: "tenant-1",
		Roles:    []string{auth.RoleManager},
	}))
}

func newOfferRouter(offers services.OfferService) chi.Router {
	handler := NewOfferHandlers(nil, offers)
	router := chi.NewRouter()
	router.Route("/offers", handler.Routes)
	return router
}

func TestOfferHandlersCreateGroupOffer(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	service := &stubOfferService{
		createGroupFunc: func(ctx context.Context, cmd services.UpsertGroupOfferCommand) (services.GroupOffer, error) {
			if cmd.TenantID != "tenant-1" || cmd.ActorID != "manager-1" {
				t.Fatalf("unexpected actor fields %+v", cmd)
			}
			if cmd.OfferID != nil {
				t.Fatalf("create must not carry an offer id")
			}
			if cmd.RequiredQuantity != 3 || cmd.DiscountType != domain.GroupDiscountFixedPrice {
				t.Fatalf("unexpected group fields %+v", cmd)
			}
			return services.GroupOffer{
				ID:          "offer-1",
				TenantID:    cmd.TenantID,
				Name:        cmd.Name,
				OfferWindow: domain.OfferWindow{Priority: cmd.Priority, IsActive: true},
				ProductIDs:  cmd.ProductIDs,

				RequiredQuantity: cmd.RequiredQuantity,
				DiscountType:     cmd.DiscountType,
				DiscountValue:    cmd.DiscountValue,
				CreatedAt:        now,
				UpdatedAt:        now,
			}, nil
		},
	}

	router := newOfferRouter(service)

	body := `{"name":"3 for 9","priority":10,"product_ids":["p1","p2"],"required_quantity":3,"discount_type":"fixed_price","discount_value":9}`
	req := httptest.NewRequest(http.MethodPost, "/offers/group", strings.NewReader(body))
	req = managerContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp groupOfferResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Offer.ID != "offer-1" || !resp.Offer.IsActive {
		t.Fatalf("unexpected offer payload %+v", resp.Offer)
	}
}

func TestOfferHandlersUpdateGroupOfferCarriesID(t *testing.T) {
	service := &stubOfferService{
		updateGroupFunc: func(ctx context.Context, cmd services.UpsertGroupOfferCommand) (services.GroupOffer, error) {
			if cmd.OfferID == nil || *cmd.OfferID != "offer-9" {
				t.Fatalf("expected offer id offer-9, got %v", cmd.OfferID)
			}
			if cmd.ExpectedUpdatedAt == nil {
				t.Fatalf("expected optimistic timestamp")
			}
			return services.GroupOffer{ID: "offer-9", TenantID: cmd.TenantID}, nil
		},
	}

	router := newOfferRouter(service)

	body := `{"name":"3 for 9","product_ids":["p1"],"required_quantity":3,"discount_type":"fixed_price","discount_value":9,"expected_updated_at":"2025-06-01T09:00:00Z"}`
	req := httptest.NewRequest(http.MethodPatch, "/offers/group/offer-9", strings.NewReader(body))
	req = managerContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestOfferHandlersListGroupOffersActiveFilter(t *testing.T) {
	service := &stubOfferService{
		listGroupFunc: func(ctx context.Context, filter services.OfferListFilter) (domain.CursorPage[services.GroupOffer], error) {
			if !filter.ActiveOnly {
				t.Fatalf("expected active-only filter")
			}
			if filter.Pagination.PageSize != 5 {
				t.Fatalf("expected page size 5, got %d", filter.Pagination.PageSize)
			}
			return domain.CursorPage[services.GroupOffer]{
				Items:         []services.GroupOffer{{ID: "offer-1"}},
				NextPageToken: "token-2",
			}, nil
		},
	}

	router := newOfferRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/offers/group?active=true&page_size=5", nil)
	req = managerContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp groupOfferListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Offers) != 1 || resp.NextPageToken != "token-2" {
		t.Fatalf("unexpected list payload %+v", resp)
	}
}

func TestOfferHandlersDeleteGroupOfferDeactivate(t *testing.T) {
	service := &stubOfferService{
		deleteGroupFunc: func(ctx context.Context, cmd services.DeleteOfferCommand) error {
			if !cmd.Deactivate {
				t.Fatalf("expected deactivate flag")
			}
			if cmd.OfferID != "offer-3" {
				t.Fatalf("unexpected offer id %q", cmd.OfferID)
			}
			return nil
		},
	}

	router := newOfferRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/offers/group/offer-3?deactivate=true", nil)
	req = managerContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
}

func TestOfferHandlersNotFoundTranslation(t *testing.T) {
	service := &stubOfferService{
		getGroupFunc: func(ctx context.Context, tenantID, offerID string) (services.GroupOffer, error) {
			return services.GroupOffer{}, services.ErrOfferNotFound
		},
	}

	router := newOfferRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/offers/group/missing", nil)
	req = managerContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "offer_not_found") {
		t.Fatalf("expected offer_not_found error, got %s", rr.Body.String())
	}
}

func TestOfferHandlersCreateBogoOffer(t *testing.T) {
	service := &stubOfferService{
		createBogoFunc: func(ctx context.Context, cmd services.UpsertBogoOfferCommand) (services.BogoOffer, error) {
			if cmd.BuyQuantity != 2 || cmd.GetQuantity != 1 {
				t.Fatalf("unexpected bogo quantities %+v", cmd)
			}
			if cmd.ApplyOn != domain.BogoApplyCheapest {
				t.Fatalf("unexpected apply_on %q", cmd.ApplyOn)
			}
			return services.BogoOffer{ID: "bogo-1", TenantID: cmd.TenantID}, nil
		},
	}

	router := newOfferRouter(service)

	body := `{"name":"Buy 2 get 1","buy_product_ids":["p1"],"buy_quantity":2,"get_product_ids":["p1"],"get_quantity":1,"apply_on":"cheapest","discount_type":"free","discount_value":0}`
	req := httptest.NewRequest(http.MethodPost, "/offers/bogo", strings.NewReader(body))
	req = managerContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestOfferHandlersCreateTimeDiscount(t *testing.T) {
	service := &stubOfferService{
		createTimeFunc: func(ctx context.Context, cmd services.UpsertTimeDiscountCommand) (services.TimeDiscount, error) {
			if cmd.StartTime != "15:00" || cmd.EndTime != "17:00" {
				t.Fatalf("unexpected window %+v", cmd)
			}
			if len(cmd.DaysOfWeek) != 2 {
				t.Fatalf("expected 2 days, got %v", cmd.DaysOfWeek)
			}
			return services.TimeDiscount{ID: "time-1", TenantID: cmd.TenantID}, nil
		},
	}

	router := newOfferRouter(service)

	body := `{"name":"Happy hour","scope":"all","days_of_week":[1,2],"start_time":"15:00","end_time":"17:00","discount_type":"percentage","discount_value":20}`
	req := httptest.NewRequest(http.MethodPost, "/offers/time", strings.NewReader(body))
	req = managerContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
}
