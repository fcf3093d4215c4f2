package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type captureSalePublisher struct {
	mu       sync.Mutex
	messages []SaleEventMessage
	err      error
}

func (c *captureSalePublisher) PublishSaleEvent(_ context.Context, msg SaleEventMessage) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, msg)
	return "pub-1", nil
}

type captureExportPublisher struct {
	mu       sync.Mutex
	messages []ExportJobMessage
	err      error
}

func (c *captureExportPublisher) PublishExportJob(_ context.Context, msg ExportJobMessage) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, msg)
	return "pub-2", nil
}

func newTestDispatcher(t *testing.T, sales *captureSalePublisher, exports *captureExportPublisher) BackgroundJobDispatcher {
	t.Helper()
	dispatcher, err := NewBackgroundJobDispatcher(BackgroundJobDispatcherDeps{
		SaleEvents: sales,
		ExportJobs: exports,
		Clock:      func() time.Time { return engineNow },
	})
	if err != nil {
		t.Fatalf("NewBackgroundJobDispatcher: %v", err)
	}
	return dispatcher
}

func TestDispatcherPublishSaleCompleted(t *testing.T) {
	sales := &captureSalePublisher{}
	exports := &captureExportPublisher{}
	dispatcher := newTestDispatcher(t, sales, exports)

	event := SaleCompletedEvent{
		SaleID:        " sale_1 ",
		TenantID:      "tenant_1",
		RegisterID:    "reg_1",
		ReceiptNumber: "R-20250610-0001",
		Total:         12.34,
		CompletedAt:   engineNow.Add(-time.Second),
	}
	if err := dispatcher.PublishSaleCompleted(context.Background(), event); err != nil {
		t.Fatalf("PublishSaleCompleted: %v", err)
	}

	if len(sales.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sales.messages))
	}
	msg := sales.messages[0]
	if msg.SaleID != "sale_1" {
		t.Fatalf("expected trimmed sale id, got %q", msg.SaleID)
	}
	if msg.Total != 12.34 || msg.ReceiptNumber != "R-20250610-0001" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !msg.PublishedAt.Equal(engineNow) {
		t.Fatalf("expected PublishedAt from clock, got %v", msg.PublishedAt)
	}
}

func TestDispatcherPublishSaleCompletedValidation(t *testing.T) {
	dispatcher := newTestDispatcher(t, &captureSalePublisher{}, &captureExportPublisher{})

	err := dispatcher.PublishSaleCompleted(context.Background(), SaleCompletedEvent{TenantID: "tenant_1"})
	if !errors.Is(err, ErrJobInvalidInput) {
		t.Fatalf("expected ErrJobInvalidInput, got %v", err)
	}
}

func TestDispatcherPublishSaleCompletedPropagatesPublisherError(t *testing.T) {
	sales := &captureSalePublisher{err: errors.New("topic closed")}
	dispatcher := newTestDispatcher(t, sales, &captureExportPublisher{})

	err := dispatcher.PublishSaleCompleted(context.Background(), SaleCompletedEvent{
		SaleID:   "sale_1",
		TenantID: "tenant_1",
	})
	if err == nil || !strings.Contains(err.Error(), "topic closed") {
		t.Fatalf("expected wrapped publisher error, got %v", err)
	}
}

func TestDispatcherEnqueueSalesExport(t *testing.T) {
	sales := &captureSalePublisher{}
	exports := &captureExportPublisher{}
	dispatcher := newTestDispatcher(t, sales, exports)

	payload := SalesExportJobPayload{
		TenantID:    "tenant_1",
		Day:         "2025-06-10",
		RequestedBy: " ops ",
	}
	if err := dispatcher.EnqueueSalesExport(context.Background(), payload); err != nil {
		t.Fatalf("EnqueueSalesExport: %v", err)
	}

	if len(exports.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(exports.messages))
	}
	msg := exports.messages[0]
	if msg.Day != "2025-06-10" || msg.RequestedBy != "ops" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !msg.QueuedAt.Equal(engineNow) {
		t.Fatalf("expected QueuedAt from clock, got %v", msg.QueuedAt)
	}
}

func TestDispatcherEnqueueSalesExportValidation(t *testing.T) {
	dispatcher := newTestDispatcher(t, &captureSalePublisher{}, &captureExportPublisher{})

	cases := []SalesExportJobPayload{
		{Day: "2025-06-10"},
		{TenantID: "tenant_1", Day: "10/06/2025"},
		{TenantID: "tenant_1", Day: ""},
	}
	for _, payload := range cases {
		if err := dispatcher.EnqueueSalesExport(context.Background(), payload); !errors.Is(err, ErrJobInvalidInput) {
			t.Fatalf("payload %+v: expected ErrJobInvalidInput, got %v", payload, err)
		}
	}
}

func TestNewBackgroundJobDispatcherRequiresPublishers(t *testing.T) {
	if _, err := NewBackgroundJobDispatcher(BackgroundJobDispatcherDeps{ExportJobs: &captureExportPublisher{}}); err == nil {
		t.Fatal("expected error when sale publisher missing")
	}
	if _, err := NewBackgroundJobDispatcher(BackgroundJobDispatcherDeps{SaleEvents: &captureSalePublisher{}}); err == nil {
		t.Fatal("expected error when export publisher missing")
	}
}
