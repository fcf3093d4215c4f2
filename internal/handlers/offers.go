package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/platform/auth"
	"github.com/tillpoint/api/internal/platform/httpx"
	"github.com/tillpoint/api/internal/services"
)

// OfferHandlers exposes the back-office CRUD surface for promotional offers.
// All routes require the manager or admin role.
type OfferHandlers struct {
	authn  *auth.Authenticator
	offers services.OfferService
}

const maxOfferBodySize = 32 * 1024

// NewOfferHandlers constructs handlers for offer management endpoints.
func NewOfferHandlers(authn *auth.Authenticator, offers services.OfferService) *OfferHandlers {
	return &OfferHandlers{
		authn:  authn,
		offers: offers,
	}
}

// Routes wires the /offers endpoints onto the provided router.
func (h *OfferHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleManager, auth.RoleAdmin))
	}

	r.Route("/group", func(g chi.Router) {
		g.Get("/", h.listGroupOffers)
		g.Post("/", h.createGroupOffer)
		g.Get("/{offerID}", h.getGroupOffer)
		g.Patch("/{offerID}", h.updateGroupOffer)
		g.Delete("/{offerID}", h.deleteGroupOffer)
	})
	r.Route("/bogo", func(g chi.Router) {
		g.Get("/", h.listBogoOffers)
		g.Post("/", h.createBogoOffer)
		g.Get("/{offerID}", h.getBogoOffer)
		g.Patch("/{offerID}", h.updateBogoOffer)
		g.Delete("/{offerID}", h.deleteBogoOffer)
	})
	r.Route("/time", func(g chi.Router) {
		g.Get("/", h.listTimeDiscounts)
		g.Post("/", h.createTimeDiscount)
		g.Get("/{offerID}", h.getTimeDiscount)
		g.Patch("/{offerID}", h.updateTimeDiscount)
		g.Delete("/{offerID}", h.deleteTimeDiscount)
	})
}

func (h *OfferHandlers) requireService(ctx context.Context, w http.ResponseWriter) bool {
	if h.offers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("offer_service_unavailable", "offer service is unavailable", http.StatusServiceUnavailable))
		return false
	}
	return true
}

func writeOfferError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOfferInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOfferNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("offer_not_found", "offer not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOfferConflict):
		httpx.WriteError(ctx, w, httpx.NewError("offer_conflict", "offer has been modified; refresh and retry", http.StatusConflict))
	case errors.Is(err, services.ErrOfferUnavailable), errors.Is(err, services.ErrOfferRepositoryMissing):
		httpx.WriteError(ctx, w, httpx.NewError("offer_service_unavailable", "offer service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("offer_error", "offer operation failed", http.StatusInternalServerError))
	}
}

func parseOfferListFilter(r *http.Request, tenantID string) (services.OfferListFilter, error) {
	query := r.URL.Query()

	pageSize := defaultSalePageSize
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return services.OfferListFilter{}, errors.New("page_size must be a positive integer")
		}
		if parsed > maxSalePageSize {
			parsed = maxSalePageSize
		}
		pageSize = parsed
	}

	activeOnly := false
	if raw := strings.TrimSpace(query.Get("active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return services.OfferListFilter{}, errors.New("active must be a boolean")
		}
		activeOnly = parsed
	}

	return services.OfferListFilter{
		TenantID:   tenantID,
		ActiveOnly: activeOnly,
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	}, nil
}

func parseDeleteOfferCommand(r *http.Request, identity *auth.Identity) (services.DeleteOfferCommand, error) {
	cmd := services.DeleteOfferCommand{
		TenantID: identity.TenantID,
		OfferID:  chi.URLParam(r, "offerID"),
		ActorID:  identity.UID,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("deactivate")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return services.DeleteOfferCommand{}, errors.New("deactivate must be a boolean")
		}
		cmd.Deactivate = parsed
	}
	return cmd, nil
}

// offerWindowRequest carries the scheduling fields shared by all offer kinds.
type offerWindowRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Priority          int     `json:"priority"`
	IsActive          *bool   `json:"is_active"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	ExpectedUpdatedAt *string `json:"expected_updated_at"`
}

func (req offerWindowRequest) expected() (*time.Time, error) {
	if req.ExpectedUpdatedAt == nil {
		return nil, nil
	}
	parsed, err := parseRFC3339(*req.ExpectedUpdatedAt)
	if err != nil {
		return nil, errors.New("expected_updated_at must be an RFC 3339 timestamp")
	}
	return &parsed, nil
}

func (req offerWindowRequest) active() bool {
	if req.IsActive == nil {
		return true
	}
	return *req.IsActive
}

type groupOfferRequest struct {
	offerWindowRequest
	ProductIDs       []string `json:"product_ids"`
	RequiredQuantity int      `json:"required_quantity"`
	DiscountType     string   `json:"discount_type"`
	DiscountValue    float64  `json:"discount_value"`
}

type bogoOfferRequest struct {
	offerWindowRequest
	BuyProductIDs []string `json:"buy_product_ids"`
	BuyQuantity   int      `json:"buy_quantity"`
	GetProductIDs []string `json:"get_product_ids"`
	GetQuantity   int      `json:"get_quantity"`
	ApplyOn       string   `json:"apply_on"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue float64  `json:"discount_value"`
}

type timeDiscountRequest struct {
	offerWindowRequest
	Scope         string   `json:"scope"`
	CategoryIDs   []string `json:"category_ids"`
	DaysOfWeek    []int    `json:"days_of_week"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue float64  `json:"discount_value"`
}

func decodeOfferBody(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := readLimitedBody(r, maxOfferBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func (req groupOfferRequest) command(identity *auth.Identity, offerID *string) (services.UpsertGroupOfferCommand, error) {
	expected, err := req.expected()
	if err != nil {
		return services.UpsertGroupOfferCommand{}, err
	}
	return services.UpsertGroupOfferCommand{
		TenantID:          identity.TenantID,
		OfferID:           offerID,
		ActorID:           identity.UID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Priority:          req.Priority,
		IsActive:          req.active(),
		StartDate:         strings.TrimSpace(req.StartDate),
		EndDate:           strings.TrimSpace(req.EndDate),
		ProductIDs:        req.ProductIDs,
		RequiredQuantity:  req.RequiredQuantity,
		DiscountType:      domain.GroupDiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		ExpectedUpdatedAt: expected,
	}, nil
}

func (req bogoOfferRequest) command(identity *auth.Identity, offerID *string) (services.UpsertBogoOfferCommand, error) {
	expected, err := req.expected()
	if err != nil {
		return services.UpsertBogoOfferCommand{}, err
	}
	return services.UpsertBogoOfferCommand{
		TenantID:          identity.TenantID,
		OfferID:           offerID,
		ActorID:           identity.UID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Priority:          req.Priority,
		IsActive:          req.active(),
		StartDate:         strings.TrimSpace(req.StartDate),
		EndDate:           strings.TrimSpace(req.EndDate),
		BuyProductIDs:     req.BuyProductIDs,
		BuyQuantity:       req.BuyQuantity,
		GetProductIDs:     req.GetProductIDs,
		GetQuantity:       req.GetQuantity,
		ApplyOn:           domain.BogoApplyOn(req.ApplyOn),
		DiscountType:      domain.BogoDiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		ExpectedUpdatedAt: expected,
	}, nil
}

func (req timeDiscountRequest) command(identity *auth.Identity, offerID *string) (services.UpsertTimeDiscountCommand, error) {
	expected, err := req.expected()
	if err != nil {
		return services.UpsertTimeDiscountCommand{}, err
	}
	return services.UpsertTimeDiscountCommand{
		TenantID:          identity.TenantID,
		OfferID:           offerID,
		ActorID:           identity.UID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Priority:          req.Priority,
		IsActive:          req.active(),
		StartDate:         strings.TrimSpace(req.StartDate),
		EndDate:           strings.TrimSpace(req.EndDate),
		Scope:             domain.TimeDiscountScope(req.Scope),
		CategoryIDs:       req.CategoryIDs,
		DaysOfWeek:        req.DaysOfWeek,
		StartTime:         strings.TrimSpace(req.StartTime),
		EndTime:           strings.TrimSpace(req.EndTime),
		DiscountType:      domain.TimeDiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		ExpectedUpdatedAt: expected,
	}, nil
}

func (h *OfferHandlers) createGroupOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	var req groupOfferRequest
	if !decodeOfferBody(ctx, w, r, &req) {
		return
	}
	cmd, err := req.command(identity, nil)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	offer, err := h.offers.CreateGroupOffer(ctx, cmd)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, groupOfferResponse{Offer: buildGroupOfferPayload(offer)})
}

func (h *OfferHandlers) updateGroupOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	var req groupOfferRequest
	if !decodeOfferBody(ctx, w, r, &req) {
		return
	}
	offerID := chi.URLParam(r, "offerID")
	cmd, err := req.command(identity, &offerID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	offer, err := h.offers.UpdateGroupOffer(ctx, cmd)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, groupOfferResponse{Offer: buildGroupOfferPayload(offer)})
}

func (h *OfferHandlers) getGroupOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	offer, err := h.offers.GetGroupOffer(ctx, identity.TenantID, chi.URLParam(r, "offerID"))
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, groupOfferResponse{Offer: buildGroupOfferPayload(offer)})
}

func (h *OfferHandlers) listGroupOffers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	filter, err := parseOfferListFilter(r, identity.TenantID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.offers.ListGroupOffers(ctx, filter)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}

	payload := groupOfferListResponse{
		Offers:        make([]groupOfferPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, offer := range page.Items {
		payload.Offers = append(payload.Offers, buildGroupOfferPayload(offer))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OfferHandlers) deleteGroupOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	cmd, err := parseDeleteOfferCommand(r, identity)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	if err := h.offers.DeleteGroupOffer(ctx, cmd); err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OfferHandlers) createBogoOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	var req bogoOfferRequest
	if !decodeOfferBody(ctx, w, r, &req) {
		return
	}
	cmd, err := req.command(identity, nil)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	offer, err := h.offers.CreateBogoOffer(ctx, cmd)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, bogoOfferResponse{Offer: buildBogoOfferPayload(offer)})
}

func (h *OfferHandlers) updateBogoOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	var req bogoOfferRequest
	if !decodeOfferBody(ctx, w, r, &req) {
		return
	}
	offerID := chi.URLParam(r, "offerID")
	cmd, err := req.command(identity, &offerID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	offer, err := h.offers.UpdateBogoOffer(ctx, cmd)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, bogoOfferResponse{Offer: buildBogoOfferPayload(offer)})
}

func (h *OfferHandlers) getBogoOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	offer, err := h.offers.GetBogoOffer(ctx, identity.TenantID, chi.URLParam(r, "offerID"))
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, bogoOfferResponse{Offer: buildBogoOfferPayload(offer)})
}

func (h *OfferHandlers) listBogoOffers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	filter, err := parseOfferListFilter(r, identity.TenantID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.offers.ListBogoOffers(ctx, filter)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}

	payload := bogoOfferListResponse{
		Offers:        make([]bogoOfferPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, offer := range page.Items {
		payload.Offers = append(payload.Offers, buildBogoOfferPayload(offer))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OfferHandlers) deleteBogoOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	cmd, err := parseDeleteOfferCommand(r, identity)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	if err := h.offers.DeleteBogoOffer(ctx, cmd); err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OfferHandlers) createTimeDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	var req timeDiscountRequest
	if !decodeOfferBody(ctx, w, r, &req) {
		return
	}
	cmd, err := req.command(identity, nil)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	discount, err := h.offers.CreateTimeDiscount(ctx, cmd)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, timeDiscountResponse{Discount: buildTimeDiscountPayload(discount)})
}

func (h *OfferHandlers) updateTimeDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	var req timeDiscountRequest
	if !decodeOfferBody(ctx, w, r, &req) {
		return
	}
	offerID := chi.URLParam(r, "offerID")
	cmd, err := req.command(identity, &offerID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	discount, err := h.offers.UpdateTimeDiscount(ctx, cmd)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, timeDiscountResponse{Discount: buildTimeDiscountPayload(discount)})
}

func (h *OfferHandlers) getTimeDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	discount, err := h.offers.GetTimeDiscount(ctx, identity.TenantID, chi.URLParam(r, "offerID"))
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, timeDiscountResponse{Discount: buildTimeDiscountPayload(discount)})
}

func (h *OfferHandlers) listTimeDiscounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	filter, err := parseOfferListFilter(r, identity.TenantID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.offers.ListTimeDiscounts(ctx, filter)
	if err != nil {
		writeOfferError(ctx, w, err)
		return
	}

	payload := timeDiscountListResponse{
		Discounts:     make([]timeDiscountPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, discount := range page.Items {
		payload.Discounts = append(payload.Discounts, buildTimeDiscountPayload(discount))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OfferHandlers) deleteTimeDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(ctx, w) {
		return
	}
	identity, ok := requireTenantIdentity(ctx, w)
	if !ok {
		return
	}

	cmd, err := parseDeleteOfferCommand(r, identity)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	if err := h.offers.DeleteTimeDiscount(ctx, cmd); err != nil {
		writeOfferError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type offerWindowPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
	IsActive    bool   `json:"is_active"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type groupOfferPayload struct {
	ID string `json:"id"`
	offerWindowPayload
	ProductIDs       []string `json:"product_ids"`
	RequiredQuantity int      `json:"required_quantity"`
	DiscountType     string   `json:"discount_type"`
	DiscountValue    float64  `json:"discount_value"`
}

type bogoOfferPayload struct {
	ID string `json:"id"`
	offerWindowPayload
	BuyProductIDs []string `json:"buy_product_ids"`
	BuyQuantity   int      `json:"buy_quantity"`
	GetProductIDs []string `json:"get_product_ids"`
	GetQuantity   int      `json:"get_quantity"`
	ApplyOn       string   `json:"apply_on"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue float64  `json:"discount_value"`
}

type timeDiscountPayload struct {
	ID string `json:"id"`
	offerWindowPayload
	Scope         string   `json:"scope"`
	CategoryIDs   []string `json:"category_ids,omitempty"`
	DaysOfWeek    []int    `json:"days_of_week"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue float64  `json:"discount_value"`
}

type groupOfferResponse struct {
	Offer groupOfferPayload `json:"offer"`
}

type groupOfferListResponse struct {
	Offers        []groupOfferPayload `json:"offers"`
	NextPageToken string              `json:"next_page_token,omitempty"`
}

type bogoOfferResponse struct {
	Offer bogoOfferPayload `json:"offer"`
}

type bogoOfferListResponse struct {
	Offers        []bogoOfferPayload `json:"offers"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

type timeDiscountResponse struct {
	Discount timeDiscountPayload `json:"discount"`
}

type timeDiscountListResponse struct {
	Discounts     []timeDiscountPayload `json:"discounts"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

func buildWindowPayload(name, description string, window domain.OfferWindow, createdAt, updatedAt time.Time) offerWindowPayload {
	payload := offerWindowPayload{
		Name:        name,
		Description: description,
		Priority:    window.Priority,
		IsActive:    window.IsActive,
		StartDate:   window.StartDate,
		EndDate:     window.EndDate,
	}
	if !createdAt.IsZero() {
		payload.CreatedAt = formatTime(createdAt)
	}
	if !updatedAt.IsZero() {
		payload.UpdatedAt = formatTime(updatedAt)
	}
	return payload
}

func buildGroupOfferPayload(offer services.GroupOffer) groupOfferPayload {
	return groupOfferPayload{
		ID:                 offer.ID,
		offerWindowPayload: buildWindowPayload(offer.Name, offer.Description, offer.OfferWindow, offer.CreatedAt, offer.UpdatedAt),
		ProductIDs:         offer.ProductIDs,
		RequiredQuantity:   offer.RequiredQuantity,
		DiscountType:       string(offer.DiscountType),
		DiscountValue:      offer.DiscountValue,
	}
}

func buildBogoOfferPayload(offer services.BogoOffer) bogoOfferPayload {
	return bogoOfferPayload{
		ID:                 offer.ID,
		offerWindowPayload: buildWindowPayload(offer.Name, offer.Description, offer.OfferWindow, offer.CreatedAt, offer.UpdatedAt),
		BuyProductIDs:      offer.BuyProductIDs,
		BuyQuantity:        offer.BuyQuantity,
		GetProductIDs:      offer.GetProductIDs,
		GetQuantity:        offer.GetQuantity,
		ApplyOn:            string(offer.ApplyOn),
		DiscountType:       string(offer.DiscountType),
		DiscountValue:      offer.DiscountValue,
	}
}

func buildTimeDiscountPayload(discount services.TimeDiscount) timeDiscountPayload {
	return timeDiscountPayload{
		ID:                 discount.ID,
		offerWindowPayload: buildWindowPayload(discount.Name, discount.Description, discount.OfferWindow, discount.CreatedAt, discount.UpdatedAt),
		Scope:              string(discount.Scope),
		CategoryIDs:        discount.CategoryIDs,
		DaysOfWeek:         discount.DaysOfWeek,
		StartTime:          discount.StartTime,
		EndTime:            discount.EndTime,
		DiscountType:       string(discount.DiscountType),
		DiscountValue:      discount.DiscountValue,
	}
}
