package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/tillpoint/api/internal/domain"
	platformstorage "github.com/tillpoint/api/internal/platform/storage"
	"github.com/tillpoint/api/internal/repositories"
)

const exportPageSize = 500

var (
	// ErrExportInvalidInput indicates the caller supplied malformed export parameters.
	ErrExportInvalidInput = errors.New("sales export: invalid input")
	// ErrExportUnavailable indicates the sale store or archive could not be reached.
	ErrExportUnavailable = errors.New("sales export: unavailable")
)

// ExportArchiveWriter persists a rendered export file and returns its object path.
type ExportArchiveWriter interface {
	WriteObject(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
}

// SalesExportServiceDeps bundles collaborators required to construct the export service.
type SalesExportServiceDeps struct {
	Sales   repositories.SaleRepository
	Archive ExportArchiveWriter
	Clock   func() time.Time
	Logger  func(context.Context, string, map[string]any)
}

type salesExportService struct {
	sales   repositories.SaleRepository
	archive ExportArchiveWriter
	clock   func() time.Time
	logger  func(context.Context, string, map[string]any)
}

var _ SalesExportService = (*salesExportService)(nil)

// NewSalesExportService wires a SalesExportService that renders one JSONL
// archive per tenant per day.
func NewSalesExportService(deps SalesExportServiceDeps) (SalesExportService, error) {
	if deps.Sales == nil {
		return nil, errors.New("sales export: sale repository is required")
	}
	if deps.Archive == nil {
		return nil, errors.New("sales export: archive writer is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &salesExportService{
		sales:   deps.Sales,
		archive: deps.Archive,
		clock:   func() time.Time { return clock().UTC() },
		logger:  logger,
	}, nil
}

// exportRow is the JSONL line schema consumed by the reporting pipeline.
type exportRow struct {
	SaleID        string                   `json:"saleId"`
	ReceiptNumber string                   `json:"receiptNumber"`
	RegisterID    string                   `json:"registerId"`
	CashierID     string                   `json:"cashierId"`
	CompletedAt   time.Time                `json:"completedAt"`
	PaymentMethod string                   `json:"paymentMethod"`
	Subtotal      float64                  `json:"subtotal"`
	TotalDiscount float64                  `json:"totalDiscount"`
	Total         float64                  `json:"total"`
	Lines         []domain.SaleLine        `json:"lines"`
	Discounts     []domain.AppliedDiscount `json:"discounts,omitempty"`
}

func (s *salesExportService) ExportDailySales(ctx context.Context, cmd ExportDailySalesCommand) (SalesExportResult, error) {
	tenantID := strings.TrimSpace(cmd.TenantID)
	if tenantID == "" {
		return SalesExportResult{}, fmt.Errorf("%w: tenant id is required", ErrExportInvalidInput)
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(cmd.Day))
	if err != nil {
		return SalesExportResult{}, fmt.Errorf("%w: day must be formatted YYYY-MM-DD", ErrExportInvalidInput)
	}

	from := day
	to := day.AddDate(0, 0, 1)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	count := 0
	pageToken := ""
	for {
		page, err := s.sales.List(ctx, repositories.SaleListFilter{
			TenantID:   tenantID,
			DateRange:  domain.RangeQuery[time.Time]{From: &from, To: &to},
			Pagination: domain.Pagination{PageSize: exportPageSize, PageToken: pageToken},
		})
		if err != nil {
			return SalesExportResult{}, translateExportRepoError(err)
		}
		for _, sale := range page.Items {
			row := exportRow{
				SaleID:        sale.ID,
				ReceiptNumber: sale.ReceiptNumber,
				RegisterID:    sale.RegisterID,
				CashierID:     sale.CashierID,
				CompletedAt:   sale.CompletedAt,
				PaymentMethod: sale.PaymentMethod,
				Subtotal:      sale.Subtotal,
				TotalDiscount: sale.TotalDiscount,
				Total:         sale.Total,
				Lines:         sale.Lines,
				Discounts:     sale.Discounts,
			}
			if err := encoder.Encode(row); err != nil {
				return SalesExportResult{}, fmt.Errorf("sales export: encode sale %s: %w", sale.ID, err)
			}
			count++
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	objectPath, err := platformstorage.BuildObjectPath(platformstorage.PurposeSalesExport, platformstorage.PathParams{
		TenantID: tenantID,
		Day:      day.Format("2006-01-02"),
	})
	if err != nil {
		return SalesExportResult{}, fmt.Errorf("%w: %v", ErrExportInvalidInput, err)
	}
	written, err := s.archive.WriteObject(ctx, objectPath, "application/x-ndjson", buf.Bytes())
	if err != nil {
		return SalesExportResult{}, fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}

	exportedAt := s.clock()
	s.logger(ctx, "sales_export.completed", map[string]any{
		"tenant_id":   tenantID,
		"day":         day.Format("2006-01-02"),
		"sale_count":  count,
		"object_path": written,
	})
	return SalesExportResult{
		ObjectPath: written,
		SaleCount:  count,
		ExportedAt: exportedAt,
	}, nil
}

func translateExportRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
		return fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}
	return err
}
