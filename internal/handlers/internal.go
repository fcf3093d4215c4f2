package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillpoint/api/internal/platform/httpx"
	"github.com/tillpoint/api/internal/platform/idempotency"
	"github.com/tillpoint/api/internal/services"
)

// InternalHandlers exposes service-to-service maintenance endpoints. Caller
// authentication is enforced by the OIDC middleware mounted on the /internal
// group, not here.
type InternalHandlers struct {
	exports     services.SalesExportService
	dispatcher  services.BackgroundJobDispatcher
	idempotency idempotency.Store
	clock       func() time.Time
}

const (
	maxInternalBodySize          = 8 * 1024
	defaultIdempotencyCleanupMax = 500
)

// InternalOption customises internal handler construction.
type InternalOption func(*InternalHandlers)

// WithInternalExports wires the synchronous sales export service.
func WithInternalExports(exports services.SalesExportService) InternalOption {
	return func(h *InternalHandlers) {
		h.exports = exports
	}
}

// WithInternalDispatcher wires the background dispatcher used for async exports.
func WithInternalDispatcher(dispatcher services.BackgroundJobDispatcher) InternalOption {
	return func(h *InternalHandlers) {
		h.dispatcher = dispatcher
	}
}

// WithInternalIdempotencyStore wires the store scrubbed by the cleanup endpoint.
func WithInternalIdempotencyStore(store idempotency.Store) InternalOption {
	return func(h *InternalHandlers) {
		h.idempotency = store
	}
}

// WithInternalClock overrides the time source, primarily for tests.
func WithInternalClock(clock func() time.Time) InternalOption {
	return func(h *InternalHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewInternalHandlers constructs the internal maintenance handlers.
func NewInternalHandlers(opts ...InternalOption) *InternalHandlers {
	handlers := &InternalHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(handlers)
		}
	}
	return handlers
}

// Routes wires the /internal endpoints onto the provided router.
func (h *InternalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/maintenance/idempotency-cleanup", h.cleanupIdempotency)
	r.Post("/exports/sales", h.exportSales)
}

func (h *InternalHandlers) cleanupIdempotency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.idempotency == nil {
		httpx.WriteError(ctx, w, httpx.NewError("idempotency_store_unavailable", "idempotency store is not configured", http.StatusServiceUnavailable))
		return
	}

	limit := defaultIdempotencyCleanupMax
	if r.ContentLength != 0 {
		body, err := readLimitedBody(r, maxInternalBodySize)
		if err != nil && !errors.Is(err, errEmptyBody) {
			writeBodyError(ctx, w, err)
			return
		}
		if len(body) > 0 {
			var req struct {
				Limit int `json:"limit"`
			}
			if err := json.Unmarshal(body, &req); err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
				return
			}
			if req.Limit < 0 {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must not be negative", http.StatusBadRequest))
				return
			}
			if req.Limit > 0 {
				limit = req.Limit
			}
		}
	}

	removed, err := h.idempotency.CleanupExpired(ctx, h.clock().UTC(), limit)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("cleanup_failed", "idempotency cleanup failed", http.StatusServiceUnavailable))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *InternalHandlers) exportSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxInternalBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		TenantID    string `json:"tenant_id"`
		Day         string `json:"day"`
		RequestedBy string `json:"requested_by"`
		Async       bool   `json:"async"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	tenantID := strings.TrimSpace(req.TenantID)
	day := strings.TrimSpace(req.Day)
	if tenantID == "" || day == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "tenant_id and day are required", http.StatusBadRequest))
		return
	}
	requestedBy := strings.TrimSpace(req.RequestedBy)
	if requestedBy == "" {
		requestedBy = "internal"
	}

	if req.Async {
		if h.dispatcher == nil {
			httpx.WriteError(ctx, w, httpx.NewError("dispatcher_unavailable", "background dispatcher is not configured", http.StatusServiceUnavailable))
			return
		}
		if err := h.dispatcher.EnqueueSalesExport(ctx, services.SalesExportJobPayload{
			TenantID:    tenantID,
			Day:         day,
			RequestedBy: requestedBy,
		}); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("enqueue_failed", "failed to enqueue sales export", http.StatusServiceUnavailable))
			return
		}
		writeJSONResponse(w, http.StatusAccepted, map[string]any{"status": "enqueued"})
		return
	}

	if h.exports == nil {
		httpx.WriteError(ctx, w, httpx.NewError("export_service_unavailable", "sales export service is not configured", http.StatusServiceUnavailable))
		return
	}

	result, err := h.exports.ExportDailySales(ctx, services.ExportDailySalesCommand{
		TenantID:    tenantID,
		Day:         day,
		RequestedBy: requestedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExportInvalidInput):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		case errors.Is(err, services.ErrExportUnavailable):
			httpx.WriteError(ctx, w, httpx.NewError("export_unavailable", "sales export is unavailable", http.StatusServiceUnavailable))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("export_failed", "sales export failed", http.StatusInternalServerError))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"object_path": result.ObjectPath,
		"sale_count":  result.SaleCount,
		"exported_at": formatTime(result.ExportedAt),
	})
}
