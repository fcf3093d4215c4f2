package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	jobEventSalePublished  = "jobs.sale_completed.published"
	jobEventExportEnqueued = "jobs.sales_export.enqueued"
)

// ErrJobInvalidInput indicates required fields were missing from the payload.
var ErrJobInvalidInput = errors.New("jobs: invalid input")

// SaleEventPublisher delivers completed-sale notifications to the event bus.
type SaleEventPublisher interface {
	PublishSaleEvent(ctx context.Context, message SaleEventMessage) (string, error)
}

// ExportJobPublisher enqueues export work for the background worker pool.
type ExportJobPublisher interface {
	PublishExportJob(ctx context.Context, message ExportJobMessage) (string, error)
}

// SaleEventMessage is the payload delivered to downstream consumers via Pub/Sub.
type SaleEventMessage struct {
	SaleID        string    `json:"saleId"`
	TenantID      string    `json:"tenantId"`
	RegisterID    string    `json:"registerId"`
	ReceiptNumber string    `json:"receiptNumber"`
	Total         float64   `json:"total"`
	CompletedAt   time.Time `json:"completedAt"`
	PublishedAt   time.Time `json:"publishedAt"`
}

// ExportJobMessage is the payload delivered to export workers via Pub/Sub.
type ExportJobMessage struct {
	TenantID    string    `json:"tenantId"`
	Day         string    `json:"day"`
	RequestedBy string    `json:"requestedBy,omitempty"`
	QueuedAt    time.Time `json:"queuedAt"`
}

// BackgroundJobDispatcherDeps enumerates collaborators required to construct the dispatcher.
type BackgroundJobDispatcherDeps struct {
	SaleEvents SaleEventPublisher
	ExportJobs ExportJobPublisher
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type backgroundJobDispatcher struct {
	saleEvents SaleEventPublisher
	exportJobs ExportJobPublisher
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
}

var _ BackgroundJobDispatcher = (*backgroundJobDispatcher)(nil)

// NewBackgroundJobDispatcher wires dependencies into a BackgroundJobDispatcher implementation.
func NewBackgroundJobDispatcher(deps BackgroundJobDispatcherDeps) (BackgroundJobDispatcher, error) {
	if deps.SaleEvents == nil {
		return nil, errors.New("background job dispatcher: sale event publisher is required")
	}
	if deps.ExportJobs == nil {
		return nil, errors.New("background job dispatcher: export job publisher is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &backgroundJobDispatcher{
		saleEvents: deps.SaleEvents,
		exportJobs: deps.ExportJobs,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (d *backgroundJobDispatcher) PublishSaleCompleted(ctx context.Context, event SaleCompletedEvent) error {
	if strings.TrimSpace(event.TenantID) == "" || strings.TrimSpace(event.SaleID) == "" {
		return fmt.Errorf("%w: tenant and sale ids are required", ErrJobInvalidInput)
	}

	msg := SaleEventMessage{
		SaleID:        strings.TrimSpace(event.SaleID),
		TenantID:      strings.TrimSpace(event.TenantID),
		RegisterID:    strings.TrimSpace(event.RegisterID),
		ReceiptNumber: strings.TrimSpace(event.ReceiptNumber),
		Total:         event.Total,
		CompletedAt:   event.CompletedAt,
		PublishedAt:   d.clock(),
	}

	messageID, err := d.saleEvents.PublishSaleEvent(ctx, msg)
	if err != nil {
		return fmt.Errorf("publish sale event: %w", err)
	}

	d.logger(ctx, jobEventSalePublished, map[string]any{
		"messageId": messageID,
		"tenantId":  msg.TenantID,
		"saleId":    msg.SaleID,
	})
	return nil
}

func (d *backgroundJobDispatcher) EnqueueSalesExport(ctx context.Context, payload SalesExportJobPayload) error {
	tenantID := strings.TrimSpace(payload.TenantID)
	day := strings.TrimSpace(payload.Day)
	if tenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrJobInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return fmt.Errorf("%w: day must be formatted YYYY-MM-DD", ErrJobInvalidInput)
	}

	msg := ExportJobMessage{
		TenantID:    tenantID,
		Day:         day,
		RequestedBy: strings.TrimSpace(payload.RequestedBy),
		QueuedAt:    d.clock(),
	}

	messageID, err := d.exportJobs.PublishExportJob(ctx, msg)
	if err != nil {
		return fmt.Errorf("enqueue sales export: %w", err)
	}

	d.logger(ctx, jobEventExportEnqueued, map[string]any{
		"messageId": messageID,
		"tenantId":  tenantID,
		"day":       day,
	})
	return nil
}
