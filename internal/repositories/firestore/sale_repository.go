package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/tillpoint/api/internal/domain"
	pfirestore "github.com/tillpoint/api/internal/platform/firestore"
	"github.com/tillpoint/api/internal/platform/pagination"
	"github.com/tillpoint/api/internal/repositories"
)

const salesCollection = "sales"

// SaleRepository stores completed sales under tenants/{tenantID}/sales.
// Sales are append-only; there is no update path.
type SaleRepository struct {
	provider *pfirestore.Provider
}

var _ repositories.SaleRepository = (*SaleRepository)(nil)

// NewSaleRepository constructs a Firestore-backed sale repository.
func NewSaleRepository(provider *pfirestore.Provider) (*SaleRepository, error) {
	if provider == nil {
		return nil, errors.New("sale repository: firestore provider is required")
	}
	return &SaleRepository{provider: provider}, nil
}

// Insert creates the sale document. A duplicate sale id surfaces as a
// conflict error, which checkout uses to detect idempotent retries.
func (r *SaleRepository) Insert(ctx context.Context, sale domain.Sale) error {
	if r == nil || r.provider == nil {
		return errors.New("sale repository not initialised")
	}
	tenantID := strings.TrimSpace(sale.TenantID)
	saleID := strings.TrimSpace(sale.ID)
	if tenantID == "" {
		return errors.New("sale repository: tenant id is required")
	}
	if saleID == "" {
		return errors.New("sale repository: sale id is required")
	}

	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return err
	}

	doc := encodeSale(sale)
	ref := coll.Doc(saleID)
	if tx, ok := transactionFrom(ctx); ok {
		if err := tx.Create(ref, doc); err != nil {
			return pfirestore.WrapError("sales.insert", err)
		}
		return nil
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("sales.insert", err)
	}
	return nil
}

// FindByID returns a single sale for the tenant.
func (r *SaleRepository) FindByID(ctx context.Context, tenantID string, saleID string) (domain.Sale, error) {
	if r == nil || r.provider == nil {
		return domain.Sale{}, errors.New("sale repository not initialised")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return domain.Sale{}, errors.New("sale repository: tenant id is required")
	}
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.Sale{}, errors.New("sale repository: sale id is required")
	}

	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.Sale{}, err
	}

	snap, err := coll.Doc(saleID).Get(ctx)
	if err != nil {
		return domain.Sale{}, pfirestore.WrapError("sales.get", err)
	}

	var doc saleDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Sale{}, fmt.Errorf("sale repository: decode %s: %w", snap.Ref.ID, err)
	}
	return decodeSale(tenantID, snap.Ref.ID, doc), nil
}

// List returns sales for a tenant ordered by completedAt (newest first).
// The date range is half-open: From inclusive, To exclusive.
func (r *SaleRepository) List(ctx context.Context, filter repositories.SaleListFilter) (domain.CursorPage[domain.Sale], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Sale]{}, errors.New("sale repository not initialised")
	}
	tenantID := strings.TrimSpace(filter.TenantID)
	if tenantID == "" {
		return domain.CursorPage[domain.Sale]{}, errors.New("sale repository: tenant id is required")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		completedAt, docID, err := pagination.DecodeTimeCursor(token)
		if err != nil {
			return domain.CursorPage[domain.Sale]{}, fmt.Errorf("sale repository: invalid page token: %w", err)
		}
		startAfter = []any{completedAt, docID}
	}

	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.CursorPage[domain.Sale]{}, err
	}

	query := coll.Query
	if registerID := strings.TrimSpace(filter.RegisterID); registerID != "" {
		query = query.Where("registerId", "==", registerID)
	}
	if cashierID := strings.TrimSpace(filter.CashierID); cashierID != "" {
		query = query.Where("cashierId", "==", cashierID)
	}
	if filter.DateRange.From != nil {
		query = query.Where("completedAt", ">=", filter.DateRange.From.UTC())
	}
	if filter.DateRange.To != nil {
		query = query.Where("completedAt", "<", filter.DateRange.To.UTC())
	}
	query = query.OrderBy("completedAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if len(startAfter) == 2 {
		query = query.StartAfter(startAfter...)
	}
	if fetchLimit > 0 {
		query = query.Limit(fetchLimit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	type saleRow struct {
		id   string
		data saleDocument
	}

	rows := make([]saleRow, 0, fetchLimit)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Sale]{}, pfirestore.WrapError("sales.list", err)
		}
		var doc saleDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Sale]{}, fmt.Errorf("sale repository: decode %s: %w", snap.Ref.ID, err)
		}
		rows = append(rows, saleRow{id: snap.Ref.ID, data: doc})
	}

	nextToken := ""
	if limit > 0 && len(rows) == fetchLimit {
		last := rows[len(rows)-1]
		nextToken = pagination.EncodeTimeCursor(last.data.CompletedAt, last.id)
		rows = rows[:len(rows)-1]
	}

	items := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeSale(tenantID, row.id, row.data))
	}

	return domain.CursorPage[domain.Sale]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

func (r *SaleRepository) collection(ctx context.Context, tenantID string) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(tenantsCollection).Doc(tenantID).Collection(salesCollection), nil
}

type saleDocument struct {
	RegisterID    string                    `firestore:"registerId"`
	CashierID     string                    `firestore:"cashierId"`
	CartID        string                    `firestore:"cartId"`
	ReceiptNumber string                    `firestore:"receiptNumber"`
	Lines         []saleLineDocument        `firestore:"lines"`
	Discounts     []appliedDiscountDocument `firestore:"discounts,omitempty"`
	Subtotal      float64                   `firestore:"subtotal"`
	TotalDiscount float64                   `firestore:"totalDiscount"`
	Total         float64                   `firestore:"total"`
	PaymentMethod string                    `firestore:"paymentMethod"`
	CompletedAt   time.Time                 `firestore:"completedAt"`
}

type saleLineDocument struct {
	LineID       string  `firestore:"lineId"`
	ProductID    string  `firestore:"productId"`
	Name         string  `firestore:"name,omitempty"`
	CategoryID   *string `firestore:"categoryId,omitempty"`
	UnitPrice    float64 `firestore:"unitPrice"`
	Quantity     int     `firestore:"quantity"`
	LineSubtotal float64 `firestore:"lineSubtotal"`
	LineDiscount float64 `firestore:"lineDiscount"`
	LineTotal    float64 `firestore:"lineTotal"`

	IsWeightItem   bool     `firestore:"isWeightItem,omitempty"`
	MeasuredWeight *float64 `firestore:"measuredWeight,omitempty"`
	WeightUnit     *string  `firestore:"weightUnit,omitempty"`
}

type appliedDiscountDocument struct {
	Kind            string  `firestore:"kind"`
	OfferID         string  `firestore:"offerId"`
	OfferName       string  `firestore:"offerName,omitempty"`
	InstanceIndex   int     `firestore:"instanceIndex,omitempty"`
	QuantityApplied int     `firestore:"quantityApplied,omitempty"`
	DiscountAmount  float64 `firestore:"discountAmount"`
	BuyQuantity     int     `firestore:"buyQuantity,omitempty"`
	GetQuantity     int     `firestore:"getQuantity,omitempty"`
}

func encodeSale(sale domain.Sale) saleDocument {
	doc := saleDocument{
		RegisterID:    strings.TrimSpace(sale.RegisterID),
		CashierID:     strings.TrimSpace(sale.CashierID),
		CartID:        strings.TrimSpace(sale.CartID),
		ReceiptNumber: strings.TrimSpace(sale.ReceiptNumber),
		Subtotal:      sale.Subtotal,
		TotalDiscount: sale.TotalDiscount,
		Total:         sale.Total,
		PaymentMethod: strings.TrimSpace(sale.PaymentMethod),
		CompletedAt:   sale.CompletedAt.UTC(),
	}
	if len(sale.Lines) > 0 {
		doc.Lines = make([]saleLineDocument, 0, len(sale.Lines))
		for _, line := range sale.Lines {
			doc.Lines = append(doc.Lines, saleLineDocument{
				LineID:       line.LineID,
				ProductID:    line.ProductID,
				Name:         line.Name,
				CategoryID:   line.CategoryID,
				UnitPrice:    line.UnitPrice,
				Quantity:     line.Quantity,
				LineSubtotal: line.LineSubtotal,
				LineDiscount: line.LineDiscount,
				LineTotal:    line.LineTotal,

				IsWeightItem:   line.IsWeightItem,
				MeasuredWeight: line.MeasuredWeight,
				WeightUnit:     line.WeightUnit,
			})
		}
	}
	if len(sale.Discounts) > 0 {
		doc.Discounts = make([]appliedDiscountDocument, 0, len(sale.Discounts))
		for _, d := range sale.Discounts {
			doc.Discounts = append(doc.Discounts, appliedDiscountDocument{
				Kind:            string(d.Kind),
				OfferID:         d.OfferID,
				OfferName:       d.OfferName,
				InstanceIndex:   d.InstanceIndex,
				QuantityApplied: d.QuantityApplied,
				DiscountAmount:  d.DiscountAmount,
				BuyQuantity:     d.BuyQuantity,
				GetQuantity:     d.GetQuantity,
			})
		}
	}
	return doc
}

func decodeSale(tenantID, saleID string, doc saleDocument) domain.Sale {
	sale := domain.Sale{
		ID:            saleID,
		TenantID:      tenantID,
		RegisterID:    doc.RegisterID,
		CashierID:     doc.CashierID,
		CartID:        doc.CartID,
		ReceiptNumber: doc.ReceiptNumber,
		Subtotal:      doc.Subtotal,
		TotalDiscount: doc.TotalDiscount,
		Total:         doc.Total,
		PaymentMethod: doc.PaymentMethod,
		CompletedAt:   doc.CompletedAt,
	}
	if len(doc.Lines) > 0 {
		sale.Lines = make([]domain.SaleLine, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			sale.Lines = append(sale.Lines, domain.SaleLine{
				LineID:       line.LineID,
				ProductID:    line.ProductID,
				Name:         line.Name,
				CategoryID:   line.CategoryID,
				UnitPrice:    line.UnitPrice,
				Quantity:     line.Quantity,
				LineSubtotal: line.LineSubtotal,
				LineDiscount: line.LineDiscount,
				LineTotal:    line.LineTotal,

				IsWeightItem:   line.IsWeightItem,
				MeasuredWeight: line.MeasuredWeight,
				WeightUnit:     line.WeightUnit,
			})
		}
	}
	if len(doc.Discounts) > 0 {
		sale.Discounts = make([]domain.AppliedDiscount, 0, len(doc.Discounts))
		for _, d := range doc.Discounts {
			sale.Discounts = append(sale.Discounts, domain.AppliedDiscount{
				Kind:            domain.DiscountKind(d.Kind),
				OfferID:         d.OfferID,
				OfferName:       d.OfferName,
				InstanceIndex:   d.InstanceIndex,
				QuantityApplied: d.QuantityApplied,
				DiscountAmount:  d.DiscountAmount,
				BuyQuantity:     d.BuyQuantity,
				GetQuantity:     d.GetQuantity,
			})
		}
	}
	return sale
}
