package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/platform/auth"
	"github.com/tillpoint/api/internal/platform/httpx"
	"github.com/tillpoint/api/internal/services"
)

// CartHandlers exposes authenticated register cart endpoints, including the
// checkout transition into the sale service.
type CartHandlers struct {
	authn           *auth.Authenticator
	carts           services.CartService
	sales           services.SaleService
	checkoutLimiter rateLimiter
}

const maxCartBodySize = 16 * 1024

// CartOption customises cart handler construction.
type CartOption func(*CartHandlers)

// WithCheckoutRateLimit throttles checkout attempts per cashier.
func WithCheckoutRateLimit(limit int, window time.Duration) CartOption {
	return func(h *CartHandlers) {
		h.checkoutLimiter = newSimpleRateLimiter(limit, window, nil)
	}
}

// NewCartHandlers constructs handlers enforcing Firebase authentication before invoking the cart service.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService, sales services.SaleService, opts ...CartOption) *CartHandlers {
	h := &CartHandlers{
		authn: authn,
		carts: carts,
		sales: sales,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /carts endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.createCart)
	r.Get("/{cartID}", h.getCart)
	r.Patch("/{cartID}", h.patchCart)
	r.Post("/{cartID}:abandon", h.abandonCart)
	r.Post("/{cartID}/price", h.priceCart)
	r.Post("/{cartID}/lines", h.addLine)
	r.Patch("/{cartID}/lines/{lineID}", h.updateLine)
	r.Delete("/{cartID}/lines/{lineID}", h.removeLine)
	r.Post("/{cartID}/checkout", h.checkout)
}

// requireTenantIdentity resolves the caller identity and its tenant claim,
// writing the error response itself when either is missing.
func requireTenantIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	if strings.TrimSpace(identity.TenantID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("tenant_missing", "token does not carry a tenant claim", http.StatusForbidden))
		return nil, false
	}
	return identity, true
}

func (h *CartHandlers) createCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createCartRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.CreateCart(ctx, services.CreateCartCommand{
		TenantID:   identity.TenantID,
		RegisterID: strings.TrimSpace(req.RegisterID),
		CashierID:  identity.UID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, cart)
	writeJSONResponse(w, http.StatusCreated, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, identity.TenantID, chi.URLParam(r, "cartID"))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) patchCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		Note              *string `json:"note"`
		ExpectedUpdatedAt *string `json:"expected_updated_at"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if req.Note == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "note is required", http.StatusBadRequest))
		return
	}

	expected, err := resolveExpectedUpdatedAt(r, req.ExpectedUpdatedAt)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cart, err := h.carts.SetNote(ctx, services.SetCartNoteCommand{
		TenantID:          identity.TenantID,
		CartID:            chi.URLParam(r, "cartID"),
		Note:              *req.Note,
		ExpectedUpdatedAt: expected,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) abandonCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	var reason string
	if r.ContentLength != 0 {
		body, err := readLimitedBody(r, maxCartBodySize)
		if err != nil && !errors.Is(err, errEmptyBody) {
			writeBodyError(ctx, w, err)
			return
		}
		if len(body) > 0 {
			var req struct {
				Reason string `json:"reason"`
			}
			if err := json.Unmarshal(body, &req); err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
				return
			}
			reason = req.Reason
		}
	}

	cart, err := h.carts.AbandonCart(ctx, services.AbandonCartCommand{
		TenantID:  identity.TenantID,
		CartID:    chi.URLParam(r, "cartID"),
		CashierID: identity.UID,
		Reason:    reason,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) priceCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	priced, err := h.carts.PriceCart(ctx, identity.TenantID, chi.URLParam(r, "cartID"))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, priced.Cart)
	writeJSONResponse(w, http.StatusOK, buildPricedCartResponse(priced))
}

func (h *CartHandlers) addLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addCartLineRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	expected, err := resolveExpectedUpdatedAt(r, req.ExpectedUpdatedAt)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	priced, err := h.carts.AddLine(ctx, services.AddCartLineCommand{
		TenantID:          identity.TenantID,
		CartID:            chi.URLParam(r, "cartID"),
		ProductID:         strings.TrimSpace(req.ProductID),
		Name:              strings.TrimSpace(req.Name),
		CategoryID:        cloneStringPointer(req.CategoryID),
		UnitPrice:         req.UnitPrice,
		Quantity:          req.Quantity,
		IsWeightItem:      req.IsWeightItem,
		MeasuredWeight:    req.MeasuredWeight,
		WeightUnit:        cloneStringPointer(req.WeightUnit),
		TareWeight:        req.TareWeight,
		IsScaleMeasured:   req.IsScaleMeasured,
		LineSubtotal:      req.LineSubtotal,
		ExpectedUpdatedAt: expected,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, priced.Cart)
	writeJSONResponse(w, http.StatusCreated, buildPricedCartResponse(priced))
}

func (h *CartHandlers) updateLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	req, err := parseUpdateLineRequest(body)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	expected, err := resolveExpectedUpdatedAt(r, req.expectedUpdatedAt)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	priced, err := h.carts.UpdateLine(ctx, services.UpdateCartLineCommand{
		TenantID:          identity.TenantID,
		CartID:            chi.URLParam(r, "cartID"),
		LineID:            chi.URLParam(r, "lineID"),
		Quantity:          req.quantity,
		UnitPrice:         req.unitPrice,
		MeasuredWeight:    req.measuredWeight,
		LineSubtotal:      req.lineSubtotal,
		ExpectedUpdatedAt: expected,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, priced.Cart)
	writeJSONResponse(w, http.StatusOK, buildPricedCartResponse(priced))
}

func (h *CartHandlers) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	expected, err := resolveExpectedUpdatedAt(r, nil)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	priced, err := h.carts.RemoveLine(ctx, services.RemoveCartLineCommand{
		TenantID:          identity.TenantID,
		CartID:            chi.URLParam(r, "cartID"),
		LineID:            chi.URLParam(r, "lineID"),
		ExpectedUpdatedAt: expected,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, priced.Cart)
	writeJSONResponse(w, http.StatusOK, buildPricedCartResponse(priced))
}

func (h *CartHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		httpx.WriteError(ctx, w, httpx.NewError("sale_service_unavailable", "sale service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	if h.checkoutLimiter != nil && !h.checkoutLimiter.Allow(identity.UID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many checkout attempts; slow down", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		RegisterID    string `json:"register_id"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_required", "Idempotency-Key header is required", http.StatusBadRequest))
		return
	}

	sale, err := h.sales.CompleteSale(ctx, services.CompleteSaleCommand{
		TenantID:       identity.TenantID,
		CartID:         chi.URLParam(r, "cartID"),
		RegisterID:     strings.TrimSpace(req.RegisterID),
		CashierID:      identity.UID,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, saleResponse{Sale: buildSalePayload(sale)})
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_found", "cart not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartClosed):
		httpx.WriteError(ctx, w, httpx.NewError("cart_closed", "cart is no longer open", http.StatusConflict))
	case errors.Is(err, services.ErrCartConflict):
		httpx.WriteError(ctx, w, httpx.NewError("cart_conflict", "cart has been modified; refresh and retry", http.StatusConflict))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "cart operation failed", http.StatusInternalServerError))
	}
}

func writeSaleError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrSaleInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrSaleNotFound), errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
	case errors.Is(err, services.ErrSaleEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart has no lines", http.StatusConflict))
	case errors.Is(err, services.ErrSaleCartNotOpen):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_open", "cart is not open", http.StatusConflict))
	case errors.Is(err, services.ErrSaleConflict):
		httpx.WriteError(ctx, w, httpx.NewError("sale_conflict", "sale has been modified concurrently; retry", http.StatusConflict))
	case errors.Is(err, services.ErrSaleUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("sale_service_unavailable", "sale service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("sale_error", "sale operation failed", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

// resolveExpectedUpdatedAt prefers the body timestamp and falls back to the
// If-Unmodified-Since header for clients that cannot set body fields.
func resolveExpectedUpdatedAt(r *http.Request, body *string) (*time.Time, error) {
	if body != nil {
		parsed, err := parseRFC3339(*body)
		if err != nil {
			return nil, errors.New("expected_updated_at must be an RFC 3339 timestamp")
		}
		return &parsed, nil
	}
	if ifUnmodified := strings.TrimSpace(r.Header.Get("If-Unmodified-Since")); ifUnmodified != "" {
		parsed, err := time.Parse(http.TimeFormat, ifUnmodified)
		if err != nil {
			return nil, errors.New("If-Unmodified-Since must be a valid HTTP-date")
		}
		return &parsed, nil
	}
	return nil, nil
}

func setCartResponseHeaders(w http.ResponseWriter, cart services.Cart) {
	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	if !cart.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", cart.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	if etag := buildCartETag(cart); etag != "" {
		w.Header().Set("ETag", etag)
	}
}

func buildCartETag(cart services.Cart) string {
	if strings.TrimSpace(cart.ID) == "" || cart.UpdatedAt.IsZero() {
		return ""
	}
	input := fmt.Sprintf("%s:%d", strings.TrimSpace(cart.ID), cart.UpdatedAt.UTC().UnixNano())
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf(`W/"%s"`, hex.EncodeToString(sum[:8]))
}

type updateLineRequest struct {
	quantity          *int
	unitPrice         *float64
	measuredWeight    *float64
	lineSubtotal      *float64
	expectedUpdatedAt *string
}

// parseUpdateLineRequest accepts only editable line fields so typos fail
// loudly instead of silently leaving the line unchanged.
func parseUpdateLineRequest(body []byte) (updateLineRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return updateLineRequest{}, errors.New("request body must be a JSON object")
	}
	if len(fields) == 0 {
		return updateLineRequest{}, errNoEditableFields
	}

	var req updateLineRequest
	for key, raw := range fields {
		if isJSONNull(raw) {
			return updateLineRequest{}, fmt.Errorf("field %q must not be null", key)
		}
		switch key {
		case "quantity":
			var v int
			if err := json.Unmarshal(raw, &v); err != nil {
				return updateLineRequest{}, errors.New("quantity must be an integer")
			}
			req.quantity = &v
		case "unit_price":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return updateLineRequest{}, errors.New("unit_price must be a number")
			}
			req.unitPrice = &v
		case "measured_weight":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return updateLineRequest{}, errors.New("measured_weight must be a number")
			}
			req.measuredWeight = &v
		case "line_subtotal":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return updateLineRequest{}, errors.New("line_subtotal must be a number")
			}
			req.lineSubtotal = &v
		case "expected_updated_at":
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return updateLineRequest{}, errors.New("expected_updated_at must be a string")
			}
			req.expectedUpdatedAt = &v
		default:
			return updateLineRequest{}, fmt.Errorf("field %q is not editable", key)
		}
	}
	return req, nil
}

type createCartRequest struct {
	RegisterID string            `json:"register_id"`
	Metadata   map[string]string `json:"metadata"`
}

type addCartLineRequest struct {
	ProductID         string   `json:"product_id"`
	Name              string   `json:"name"`
	CategoryID        *string  `json:"category_id"`
	UnitPrice         float64  `json:"unit_price"`
	Quantity          int      `json:"quantity"`
	IsWeightItem      bool     `json:"is_weight_item"`
	MeasuredWeight    *float64 `json:"measured_weight"`
	WeightUnit        *string  `json:"weight_unit"`
	TareWeight        *float64 `json:"tare_weight"`
	IsScaleMeasured   bool     `json:"is_scale_measured"`
	LineSubtotal      *float64 `json:"line_subtotal"`
	ExpectedUpdatedAt *string  `json:"expected_updated_at"`
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type pricedCartResponse struct {
	Cart    cartPayload           `json:"cart"`
	Summary pricingSummaryPayload `json:"summary"`
}

type cartPayload struct {
	ID         string            `json:"id"`
	RegisterID string            `json:"register_id"`
	CashierID  string            `json:"cashier_id"`
	Status     string            `json:"status"`
	Lines      []cartLinePayload `json:"lines"`
	LinesCount int               `json:"lines_count"`
	Note       string            `json:"note,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  string            `json:"created_at,omitempty"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
}

type cartLinePayload struct {
	LineID     string  `json:"line_id"`
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	CategoryID *string `json:"category_id,omitempty"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`

	IsWeightItem    bool     `json:"is_weight_item,omitempty"`
	MeasuredWeight  *float64 `json:"measured_weight,omitempty"`
	WeightUnit      *string  `json:"weight_unit,omitempty"`
	TareWeight      *float64 `json:"tare_weight,omitempty"`
	IsScaleMeasured bool     `json:"is_scale_measured,omitempty"`

	LineSubtotal float64 `json:"line_subtotal"`
	LineDiscount float64 `json:"line_discount"`
	LineTotal    float64 `json:"line_total"`

	GroupOfferID       *string  `json:"group_offer_id,omitempty"`
	GroupInstanceIndex *int     `json:"group_instance_index,omitempty"`
	GroupDiscountShare *float64 `json:"group_discount_share,omitempty"`
	BogoOfferID        *string  `json:"bogo_offer_id,omitempty"`
	BogoDiscountAmount *float64 `json:"bogo_discount_amount,omitempty"`
	TimeDiscountID     *string  `json:"time_discount_id,omitempty"`
	TimeDiscountAmount *float64 `json:"time_discount_amount,omitempty"`
}

type pricingSummaryPayload struct {
	Subtotal         float64                  `json:"subtotal"`
	TotalDiscount    float64                  `json:"total_discount"`
	Total            float64                  `json:"total"`
	AppliedDiscounts []appliedDiscountPayload `json:"applied_discounts"`
}

type appliedDiscountPayload struct {
	Kind            string  `json:"kind"`
	OfferID         string  `json:"offer_id"`
	OfferName       string  `json:"offer_name,omitempty"`
	InstanceIndex   int     `json:"instance_index,omitempty"`
	QuantityApplied int     `json:"quantity_applied,omitempty"`
	DiscountAmount  float64 `json:"discount_amount"`
	BuyQuantity     int     `json:"buy_quantity,omitempty"`
	GetQuantity     int     `json:"get_quantity,omitempty"`
}

func buildCartPayload(cart services.Cart) cartPayload {
	payload := cartPayload{
		ID:         strings.TrimSpace(cart.ID),
		RegisterID: strings.TrimSpace(cart.RegisterID),
		CashierID:  strings.TrimSpace(cart.CashierID),
		Status:     string(cart.Status),
		Lines:      buildCartLines(cart.Lines),
		LinesCount: len(cart.Lines),
		Metadata:   cloneStringMap(cart.Metadata),
	}
	if note := strings.TrimSpace(cart.Note); note != "" {
		payload.Note = note
	}
	if !cart.CreatedAt.IsZero() {
		payload.CreatedAt = formatTime(cart.CreatedAt)
	}
	if !cart.UpdatedAt.IsZero() {
		payload.UpdatedAt = formatTime(cart.UpdatedAt)
	}
	return payload
}

func buildCartLines(lines []domain.CartLine) []cartLinePayload {
	if len(lines) == 0 {
		return []cartLinePayload{}
	}

	payload := make([]cartLinePayload, 0, len(lines))
	for _, line := range lines {
		entry := cartLinePayload{
			LineID:          strings.TrimSpace(line.LineID),
			ProductID:       strings.TrimSpace(line.ProductID),
			Name:            line.Name,
			CategoryID:      cloneStringPointer(line.CategoryID),
			UnitPrice:       domain.RoundMoney(line.UnitPrice),
			Quantity:        line.Quantity,
			IsWeightItem:    line.IsWeightItem,
			MeasuredWeight:  line.MeasuredWeight,
			WeightUnit:      cloneStringPointer(line.WeightUnit),
			TareWeight:      line.TareWeight,
			IsScaleMeasured: line.IsScaleMeasured,
			LineSubtotal:    domain.RoundMoney(line.LineSubtotal),
			LineDiscount:    domain.RoundMoney(line.LineDiscount),
			LineTotal:       domain.RoundMoney(line.LineTotal),
		}
		if line.GroupOfferID != nil {
			entry.GroupOfferID = cloneStringPointer(line.GroupOfferID)
			if line.GroupInstanceIndex != nil {
				idx := *line.GroupInstanceIndex
				entry.GroupInstanceIndex = &idx
			}
			share := domain.RoundMoney(line.GroupDiscountShare)
			entry.GroupDiscountShare = &share
		}
		if line.BogoOfferID != nil {
			entry.BogoOfferID = cloneStringPointer(line.BogoOfferID)
			amount := domain.RoundMoney(line.BogoDiscountAmount)
			entry.BogoDiscountAmount = &amount
		}
		if line.TimeDiscountID != nil {
			entry.TimeDiscountID = cloneStringPointer(line.TimeDiscountID)
			amount := domain.RoundMoney(line.TimeDiscountAmount)
			entry.TimeDiscountAmount = &amount
		}
		payload = append(payload, entry)
	}
	return payload
}

func buildPricedCartResponse(priced services.PricedCart) pricedCartResponse {
	return pricedCartResponse{
		Cart:    buildCartPayload(priced.Cart),
		Summary: buildSummaryPayload(priced.Summary),
	}
}

func buildSummaryPayload(summary domain.PricingSummary) pricingSummaryPayload {
	payload := pricingSummaryPayload{
		Subtotal:         domain.RoundMoney(summary.Subtotal),
		TotalDiscount:    domain.RoundMoney(summary.TotalDiscount),
		Total:            domain.RoundMoney(summary.Total),
		AppliedDiscounts: buildAppliedDiscounts(summary.Lines),
	}
	return payload
}

func buildAppliedDiscounts(discounts []domain.AppliedDiscount) []appliedDiscountPayload {
	if len(discounts) == 0 {
		return []appliedDiscountPayload{}
	}

	payload := make([]appliedDiscountPayload, 0, len(discounts))
	for _, d := range discounts {
		payload = append(payload, appliedDiscountPayload{
			Kind:            string(d.Kind),
			OfferID:         d.OfferID,
			OfferName:       d.OfferName,
			InstanceIndex:   d.InstanceIndex,
			QuantityApplied: d.QuantityApplied,
			DiscountAmount:  domain.RoundMoney(d.DiscountAmount),
			BuyQuantity:     d.BuyQuantity,
			GetQuantity:     d.GetQuantity,
		})
	}
	return payload
}
