package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/platform/auth"
	"github.com/tillpoint/api/internal/platform/httpx"
	platformstorage "github.com/tillpoint/api/internal/platform/storage"
	"github.com/tillpoint/api/internal/services"
)

// SaleHandlers exposes read access to completed sales.
type SaleHandlers struct {
	authn         *auth.Authenticator
	sales         services.SaleService
	receipts      *platformstorage.Client
	receiptBucket string
	receiptExpiry time.Duration
}

const (
	defaultSalePageSize  = 20
	maxSalePageSize      = 100
	defaultReceiptExpiry = 10 * time.Minute
)

// SaleOption customises sale handler behaviour.
type SaleOption func(*SaleHandlers)

// WithReceiptSigning enables signed receipt download URLs backed by the given
// storage client and bucket.
func WithReceiptSigning(client *platformstorage.Client, bucket string) SaleOption {
	return func(h *SaleHandlers) {
		h.receipts = client
		h.receiptBucket = strings.TrimSpace(bucket)
	}
}

// WithReceiptExpiry overrides the lifetime of signed receipt URLs.
func WithReceiptExpiry(expiry time.Duration) SaleOption {
	return func(h *SaleHandlers) {
		if expiry > 0 {
			h.receiptExpiry = expiry
		}
	}
}

// NewSaleHandlers constructs handlers for the sale read endpoints.
func NewSaleHandlers(authn *auth.Authenticator, sales services.SaleService, opts ...SaleOption) *SaleHandlers {
	handlers := &SaleHandlers{
		authn:         authn,
		sales:         sales,
		receiptExpiry: defaultReceiptExpiry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handlers)
		}
	}
	return handlers
}

// Routes wires the /sales endpoints onto the provided router.
func (h *SaleHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/", h.listSales)
	r.Get("/{saleID}", h.getSale)
	r.Get("/{saleID}/receipt_url", h.getReceiptURL)
}

func (h *SaleHandlers) listSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		httpx.WriteError(ctx, w, httpx.NewError("sale_service_unavailable", "sale service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	query := r.URL.Query()

	pageSize := defaultSalePageSize
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be a positive integer", http.StatusBadRequest))
			return
		}
		if parsed > maxSalePageSize {
			parsed = maxSalePageSize
		}
		pageSize = parsed
	}

	var dateRange domain.RangeQuery[time.Time]
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		parsed, err := parseRFC3339(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "from must be an RFC 3339 timestamp", http.StatusBadRequest))
			return
		}
		dateRange.From = &parsed
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		parsed, err := parseRFC3339(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "to must be an RFC 3339 timestamp", http.StatusBadRequest))
			return
		}
		dateRange.To = &parsed
	}

	page, err := h.sales.ListSales(ctx, services.SaleListFilter{
		TenantID:   identity.TenantID,
		RegisterID: strings.TrimSpace(query.Get("register_id")),
		CashierID:  strings.TrimSpace(query.Get("cashier_id")),
		DateRange:  dateRange,
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	})
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	payload := saleListResponse{
		Sales:         make([]salePayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, sale := range page.Items {
		payload.Sales = append(payload.Sales, buildSalePayload(sale))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *SaleHandlers) getSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		httpx.WriteError(ctx, w, httpx.NewError("sale_service_unavailable", "sale service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	sale, err := h.sales.GetSale(ctx, identity.TenantID, chi.URLParam(r, "saleID"))
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, saleResponse{Sale: buildSalePayload(sale)})
}

func (h *SaleHandlers) getReceiptURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		httpx.WriteError(ctx, w, httpx.NewError("sale_service_unavailable", "sale service is unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.receipts == nil || h.receiptBucket == "" {
		httpx.WriteError(ctx, w, httpx.NewError("receipts_unavailable", "receipt downloads are not configured", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	sale, err := h.sales.GetSale(ctx, identity.TenantID, chi.URLParam(r, "saleID"))
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	objectPath, err := platformstorage.BuildObjectPath(platformstorage.PurposeReceipt, platformstorage.PathParams{
		TenantID:      identity.TenantID,
		SaleID:        sale.ID,
		ReceiptNumber: sale.ReceiptNumber,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "receipt path could not be resolved", http.StatusBadRequest))
		return
	}

	signed, err := h.receipts.SignedURL(ctx, h.receiptBucket, objectPath, platformstorage.DownloadOptions{
		ExpiresIn:   h.receiptExpiry,
		Disposition: "attachment",
		OwnerID:     sale.CashierID,
		Identity:    identity,
	})
	if err != nil {
		if errors.Is(err, platformstorage.ErrPermissionDenied) {
			httpx.WriteError(ctx, w, httpx.NewError("permission_denied", "you may not download this receipt", http.StatusForbidden))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("receipt_url_failed", "failed to sign receipt url", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, receiptURLResponse{
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: formatTime(signed.ExpiresAt),
	})
}

type receiptURLResponse struct {
	URL       string `json:"url"`
	Method    string `json:"method"`
	ExpiresAt string `json:"expires_at"`
}

type saleResponse struct {
	Sale salePayload `json:"sale"`
}

type saleListResponse struct {
	Sales         []salePayload `json:"sales"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type salePayload struct {
	ID            string                   `json:"id"`
	RegisterID    string                   `json:"register_id"`
	CashierID     string                   `json:"cashier_id"`
	CartID        string                   `json:"cart_id"`
	ReceiptNumber string                   `json:"receipt_number"`
	Lines         []saleLinePayload        `json:"lines"`
	Discounts     []appliedDiscountPayload `json:"discounts"`
	Subtotal      float64                  `json:"subtotal"`
	TotalDiscount float64                  `json:"total_discount"`
	Total         float64                  `json:"total"`
	PaymentMethod string                   `json:"payment_method"`
	CompletedAt   string                   `json:"completed_at"`
}

type saleLinePayload struct {
	LineID       string  `json:"line_id"`
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	CategoryID   *string `json:"category_id,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     int     `json:"quantity"`
	LineSubtotal float64 `json:"line_subtotal"`
	LineDiscount float64 `json:"line_discount"`
	LineTotal    float64 `json:"line_total"`

	IsWeightItem   bool     `json:"is_weight_item,omitempty"`
	MeasuredWeight *float64 `json:"measured_weight,omitempty"`
	WeightUnit     *string  `json:"weight_unit,omitempty"`
}

func buildSalePayload(sale services.Sale) salePayload {
	payload := salePayload{
		ID:            strings.TrimSpace(sale.ID),
		RegisterID:    strings.TrimSpace(sale.RegisterID),
		CashierID:     strings.TrimSpace(sale.CashierID),
		CartID:        strings.TrimSpace(sale.CartID),
		ReceiptNumber: sale.ReceiptNumber,
		Lines:         make([]saleLinePayload, 0, len(sale.Lines)),
		Discounts:     buildAppliedDiscounts(sale.Discounts),
		Subtotal:      domain.RoundMoney(sale.Subtotal),
		TotalDiscount: domain.RoundMoney(sale.TotalDiscount),
		Total:         domain.RoundMoney(sale.Total),
		PaymentMethod: sale.PaymentMethod,
	}
	if !sale.CompletedAt.IsZero() {
		payload.CompletedAt = formatTime(sale.CompletedAt)
	}
	for _, line := range sale.Lines {
		payload.Lines = append(payload.Lines, saleLinePayload{
			LineID:         strings.TrimSpace(line.LineID),
			ProductID:      strings.TrimSpace(line.ProductID),
			Name:           line.Name,
			CategoryID:     cloneStringPointer(line.CategoryID),
			UnitPrice:      domain.RoundMoney(line.UnitPrice),
			Quantity:       line.Quantity,
			LineSubtotal:   domain.RoundMoney(line.LineSubtotal),
			LineDiscount:   domain.RoundMoney(line.LineDiscount),
			LineTotal:      domain.RoundMoney(line.LineTotal),
			IsWeightItem:   line.IsWeightItem,
			MeasuredWeight: line.MeasuredWeight,
			WeightUnit:     cloneStringPointer(line.WeightUnit),
		})
	}
	return payload
}
