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
	platformstorage "github.com/tillpoint/api/internal/platform/storage"
	"github.com/tillpoint/api/internal/services"
)

func newSaleRouter(sales services.SaleService) chi.Router {
	handler := NewSaleHandlers(nil, sales)
	router := chi.NewRouter()
	router.Route("/sales", handler.Routes)
	return router
}

func TestSaleHandlersListSales(t *testing.T) {
	completedAt := time.Date(2025, 6, 10, 14, 45, 0, 0, time.UTC)
	service := &stubSaleService{
		listFunc: func(ctx context.Context, filter services.SaleListFilter) (domain.CursorPage[services.Sale], error) {
			if filter.TenantID != "tenant-1" {
				t.Fatalf("unexpected tenant %q", filter.TenantID)
			}
			if filter.RegisterID != "reg-1" {
				t.Fatalf("unexpected register %q", filter.RegisterID)
			}
			if filter.DateRange.From == nil || filter.DateRange.To == nil {
				t.Fatalf("expected bounded date range, got %+v", filter.DateRange)
			}
			if filter.Pagination.PageSize != 10 {
				t.Fatalf("expected page size 10, got %d", filter.Pagination.PageSize)
			}
			return domain.CursorPage[services.Sale]{
				Items: []services.Sale{
					{
						ID:            "sale-1",
						RegisterID:    "reg-1",
						CashierID:     "cashier-7",
						ReceiptNumber: "R-0001",
						Subtotal:      13.5,
						TotalDiscount: 4.5,
						Total:         9,
						PaymentMethod: "card",
						CompletedAt:   completedAt,
					},
				},
				NextPageToken: "token-next",
			}, nil
		},
	}

	router := newSaleRouter(service)

	url := "/sales?register_id=reg-1&from=2025-06-10T00:00:00Z&to=2025-06-11T00:00:00Z&page_size=10"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = cashierContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp saleListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sales) != 1 || resp.Sales[0].ID != "sale-1" {
		t.Fatalf("unexpected sales payload %+v", resp)
	}
	if resp.NextPageToken != "token-next" {
		t.Fatalf("expected next page token, got %q", resp.NextPageToken)
	}
}

func TestSaleHandlersListSalesRejectsBadPageSize(t *testing.T) {
	router := newSaleRouter(&stubSaleService{})

	req := httptest.NewRequest(http.MethodGet, "/sales?page_size=abc", nil)
	req = cashierContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSaleHandlersListSalesClampsPageSize(t *testing.T) {
	service := &stubSaleService{
		listFunc: func(ctx context.Context, filter services.SaleListFilter) (domain.CursorPage[services.Sale], error) {
			if filter.Pagination.PageSize != maxSalePageSize {
				t.Fatalf("expected clamped page size %d, got %d", maxSalePageSize, filter.Pagination.PageSize)
			}
			return domain.CursorPage[services.Sale]{Items: []services.Sale{}}, nil
		},
	}

	router := newSaleRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/sales?page_size=5000", nil)
	req = cashierContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestSaleHandlersGetSale(t *testing.T) {
	service := &stubSaleService{
		getFunc: func(ctx context.Context, tenantID, saleID string) (services.Sale, error) {
			if tenantID != "tenant-1" || saleID != "sale-2" {
				t.Fatalf("unexpected lookup %q %q", tenantID, saleID)
			}
			weight := 0.42
			unit := "kg"
			return services.Sale{
				ID:            "sale-2",
				ReceiptNumber: "R-0002",
				Lines: []domain.SaleLine{
					{
						LineID:         "line-1",
						ProductID:      "prod-1",
						Name:           "Grapes",
						UnitPrice:      6.99,
						Quantity:       1,
						LineSubtotal:   2.94,
						LineTotal:      2.94,
						IsWeightItem:   true,
						MeasuredWeight: &weight,
						WeightUnit:     &unit,
					},
				},
				Total: 2.94,
			}, nil
		},
	}

	router := newSaleRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/sales/sale-2", nil)
	req = cashierContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp saleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Sale.ID != "sale-2" {
		t.Fatalf("unexpected sale payload %+v", resp.Sale)
	}
	if len(resp.Sale.Lines) != 1 || !resp.Sale.Lines[0].IsWeightItem {
		t.Fatalf("expected weight line, got %+v", resp.Sale.Lines)
	}
}

func TestSaleHandlersGetSaleNotFound(t *testing.T) {
	service := &stubSaleService{
		getFunc: func(ctx context.Context, tenantID, saleID string) (services.Sale, error) {
			return services.Sale{}, services.ErrSaleNotFound
		},
	}

	router := newSaleRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/sales/missing", nil)
	req = cashierContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_found") {
		t.Fatalf("expected not_found error, got %s", rr.Body.String())
	}
}

type fakeReceiptSigner struct{}

func (fakeReceiptSigner) Email() string { return "receipts@tillpoint.iam.gserviceaccount.com" }

func (fakeReceiptSigner) SignBytes(context.Context, []byte) ([]byte, error) {
	return []byte("signature"), nil
}

func TestSaleHandlersReceiptURL(t *testing.T) {
	service := &stubSaleService{
		getFunc: func(ctx context.Context, tenantID, saleID string) (services.Sale, error) {
			return services.Sale{
				ID:            "sale-1",
				CashierID:     "cashier-7",
				ReceiptNumber: "R-0001",
			}, nil
		},
	}
	signing, err := platformstorage.NewClient(fakeReceiptSigner{})
	if err != nil {
		t.Fatalf("failed to build signing client: %v", err)
	}

	handler := NewSaleHandlers(nil, service, WithReceiptSigning(signing, "tillpoint-receipts"))
	router := chi.NewRouter()
	router.Route("/sales", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/sales/sale-1/receipt_url", nil)
	req = cashierContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp receiptURLResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.URL, "R-0001.pdf") {
		t.Fatalf("expected receipt object in url, got %q", resp.URL)
	}
	if resp.Method != http.MethodGet {
		t.Fatalf("expected GET method, got %q", resp.Method)
	}
	if resp.ExpiresAt == "" {
		t.Fatalf("expected expiry timestamp")
	}
}

func TestSaleHandlersReceiptURLUnconfigured(t *testing.T) {
	service := &stubSaleService{
		getFunc: func(ctx context.Context, tenantID, saleID string) (services.Sale, error) {
			return services.Sale{ID: "sale-1"}, nil
		},
	}

	router := newSaleRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/sales/sale-1/receipt_url", nil)
	req = cashierContext(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "receipts_unavailable") {
		t.Fatalf("expected receipts_unavailable error, got %s", rr.Body.String())
	}
}
