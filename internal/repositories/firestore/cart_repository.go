package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/tillpoint/api/internal/domain"
	pfirestore "github.com/tillpoint/api/internal/platform/firestore"
	"github.com/tillpoint/api/internal/platform/pagination"
	"github.com/tillpoint/api/internal/repositories"
)

const (
	tenantsCollection = "tenants"
	cartsCollection   = "carts"
)

// CartRepository stores register carts under tenants/{tenantID}/carts with
// the full line set embedded in each document.
type CartRepository struct {
	provider *pfirestore.Provider
}

var _ repositories.CartRepository = (*CartRepository)(nil)

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository: firestore provider is required")
	}
	return &CartRepository{provider: provider}, nil
}

// Insert creates a new cart document. It fails with a conflict error when a
// cart with the same id already exists for the tenant.
func (r *CartRepository) Insert(ctx context.Context, cart domain.Cart) error {
	if r == nil || r.provider == nil {
		return errors.New("cart repository not initialised")
	}
	tenantID := strings.TrimSpace(cart.TenantID)
	cartID := strings.TrimSpace(cart.ID)
	if tenantID == "" {
		return errors.New("cart repository: tenant id is required")
	}
	if cartID == "" {
		return errors.New("cart repository: cart id is required")
	}

	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return err
	}

	doc := encodeCart(cart)
	ref := coll.Doc(cartID)
	if tx, ok := transactionFrom(ctx); ok {
		if err := tx.Create(ref, doc); err != nil {
			return pfirestore.WrapError("carts.insert", err)
		}
		return nil
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("carts.insert", err)
	}
	return nil
}

// Update replaces the cart document. When expectedUpdatedAt is set, the write
// only succeeds if the stored updatedAt still matches; a mismatch surfaces as
// a conflict error.
func (r *CartRepository) Update(ctx context.Context, cart domain.Cart, expectedUpdatedAt *time.Time) (domain.Cart, error) {
	if r == nil || r.provider == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	tenantID := strings.TrimSpace(cart.TenantID)
	cartID := strings.TrimSpace(cart.ID)
	if tenantID == "" {
		return domain.Cart{}, errors.New("cart repository: tenant id is required")
	}
	if cartID == "" {
		return domain.Cart{}, errors.New("cart repository: cart id is required")
	}

	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.Cart{}, err
	}

	ref := coll.Doc(cartID)
	doc := encodeCart(cart)

	if tx, ok := transactionFrom(ctx); ok {
		// Reads must precede writes inside a Firestore transaction, so the
		// guarded variant is unavailable once the caller has started writing.
		if expectedUpdatedAt != nil {
			return domain.Cart{}, errors.New("cart repository: guarded update is not supported inside a transaction")
		}
		if err := tx.Set(ref, doc); err != nil {
			return domain.Cart{}, pfirestore.WrapError("carts.update", err)
		}
		return decodeCart(tenantID, cartID, doc), nil
	}

	if expectedUpdatedAt == nil {
		if _, err := ref.Set(ctx, doc); err != nil {
			return domain.Cart{}, pfirestore.WrapError("carts.update", err)
		}
		return decodeCart(tenantID, cartID, doc), nil
	}

	expected := expectedUpdatedAt.UTC()
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var stored cartDocument
		if err := snap.DataTo(&stored); err != nil {
			return fmt.Errorf("cart repository: decode %s: %w", snap.Ref.ID, err)
		}
		if !timestampsMatch(stored.UpdatedAt, expected) {
			return status.Errorf(codes.FailedPrecondition, "cart %s updated concurrently", cartID)
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return domain.Cart{}, pfirestore.WrapError("carts.update", err)
	}
	return decodeCart(tenantID, cartID, doc), nil
}

// FindByID returns a single cart for the tenant.
func (r *CartRepository) FindByID(ctx context.Context, tenantID string, cartID string) (domain.Cart, error) {
	if r == nil || r.provider == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return domain.Cart{}, errors.New("cart repository: tenant id is required")
	}
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return domain.Cart{}, errors.New("cart repository: cart id is required")
	}

	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.Cart{}, err
	}

	snap, err := coll.Doc(cartID).Get(ctx)
	if err != nil {
		return domain.Cart{}, pfirestore.WrapError("carts.get", err)
	}

	var doc cartDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Cart{}, fmt.Errorf("cart repository: decode %s: %w", snap.Ref.ID, err)
	}
	return decodeCart(tenantID, snap.Ref.ID, doc), nil
}

// List returns carts for a tenant ordered by updatedAt (newest first).
func (r *CartRepository) List(ctx context.Context, filter repositories.CartListFilter) (domain.CursorPage[domain.Cart], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Cart]{}, errors.New("cart repository not initialised")
	}
	tenantID := strings.TrimSpace(filter.TenantID)
	if tenantID == "" {
		return domain.CursorPage[domain.Cart]{}, errors.New("cart repository: tenant id is required")
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
		updatedAt, docID, err := pagination.DecodeTimeCursor(token)
		if err != nil {
			return domain.CursorPage[domain.Cart]{}, fmt.Errorf("cart repository: invalid page token: %w", err)
		}
		startAfter = []any{updatedAt, docID}
	}

	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.CursorPage[domain.Cart]{}, err
	}

	query := coll.Query
	if registerID := strings.TrimSpace(filter.RegisterID); registerID != "" {
		query = query.Where("registerId", "==", registerID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, s := range filter.Status {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status", "in", statuses)
	}
	query = query.OrderBy("updatedAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if len(startAfter) == 2 {
		query = query.StartAfter(startAfter...)
	}
	if fetchLimit > 0 {
		query = query.Limit(fetchLimit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	type cartRow struct {
		id   string
		data cartDocument
	}

	rows := make([]cartRow, 0, fetchLimit)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Cart]{}, pfirestore.WrapError("carts.list", err)
		}
		var doc cartDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Cart]{}, fmt.Errorf("cart repository: decode %s: %w", snap.Ref.ID, err)
		}
		rows = append(rows, cartRow{id: snap.Ref.ID, data: doc})
	}

	nextToken := ""
	if limit > 0 && len(rows) == fetchLimit {
		last := rows[len(rows)-1]
		nextToken = pagination.EncodeTimeCursor(last.data.UpdatedAt, last.id)
		rows = rows[:len(rows)-1]
	}

	items := make([]domain.Cart, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeCart(tenantID, row.id, row.data))
	}

	return domain.CursorPage[domain.Cart]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

func (r *CartRepository) collection(ctx context.Context, tenantID string) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(tenantsCollection).Doc(tenantID).Collection(cartsCollection), nil
}

type cartDocument struct {
	RegisterID string             `firestore:"registerId"`
	CashierID  string             `firestore:"cashierId"`
	Status     string             `firestore:"status"`
	Lines      []cartLineDocument `firestore:"lines,omitempty"`
	Note       string             `firestore:"note,omitempty"`
	Metadata   map[string]string  `firestore:"metadata,omitempty"`
	CreatedAt  time.Time          `firestore:"createdAt"`
	UpdatedAt  time.Time          `firestore:"updatedAt"`
}

type cartLineDocument struct {
	LineID     string  `firestore:"lineId"`
	ProductID  string  `firestore:"productId"`
	Name       string  `firestore:"name,omitempty"`
	CategoryID *string `firestore:"categoryId,omitempty"`
	UnitPrice  float64 `firestore:"unitPrice"`
	Quantity   int     `firestore:"quantity"`

	IsWeightItem    bool     `firestore:"isWeightItem,omitempty"`
	MeasuredWeight  *float64 `firestore:"measuredWeight,omitempty"`
	WeightUnit      *string  `firestore:"weightUnit,omitempty"`
	TareWeight      *float64 `firestore:"tareWeight,omitempty"`
	IsScaleMeasured bool     `firestore:"isScaleMeasured,omitempty"`

	LineSubtotal float64 `firestore:"lineSubtotal"`
	LineDiscount float64 `firestore:"lineDiscount"`
	LineTotal    float64 `firestore:"lineTotal"`

	GroupOfferID       *string `firestore:"groupOfferId,omitempty"`
	GroupInstanceIndex *int    `firestore:"groupInstanceIndex,omitempty"`
	GroupDiscountShare float64 `firestore:"groupDiscountShare,omitempty"`

	BogoOfferID        *string `firestore:"bogoOfferId,omitempty"`
	BogoDiscountAmount float64 `firestore:"bogoDiscountAmount,omitempty"`

	TimeDiscountID     *string `firestore:"timeDiscountId,omitempty"`
	TimeDiscountAmount float64 `firestore:"timeDiscountAmount,omitempty"`
}

func encodeCart(cart domain.Cart) cartDocument {
	doc := cartDocument{
		RegisterID: strings.TrimSpace(cart.RegisterID),
		CashierID:  strings.TrimSpace(cart.CashierID),
		Status:     string(cart.Status),
		Note:       cart.Note,
		Metadata:   cloneStringMap(cart.Metadata),
		CreatedAt:  cart.CreatedAt.UTC(),
		UpdatedAt:  cart.UpdatedAt.UTC(),
	}
	if len(cart.Lines) > 0 {
		doc.Lines = make([]cartLineDocument, 0, len(cart.Lines))
		for _, line := range cart.Lines {
			doc.Lines = append(doc.Lines, encodeCartLine(line))
		}
	}
	return doc
}

func encodeCartLine(line domain.CartLine) cartLineDocument {
	return cartLineDocument{
		LineID:     line.LineID,
		ProductID:  line.ProductID,
		Name:       line.Name,
		CategoryID: line.CategoryID,
		UnitPrice:  line.UnitPrice,
		Quantity:   line.Quantity,

		IsWeightItem:    line.IsWeightItem,
		MeasuredWeight:  line.MeasuredWeight,
		WeightUnit:      line.WeightUnit,
		TareWeight:      line.TareWeight,
		IsScaleMeasured: line.IsScaleMeasured,

		LineSubtotal: line.LineSubtotal,
		LineDiscount: line.LineDiscount,
		LineTotal:    line.LineTotal,

		GroupOfferID:       line.GroupOfferID,
		GroupInstanceIndex: line.GroupInstanceIndex,
		GroupDiscountShare: line.GroupDiscountShare,

		BogoOfferID:        line.BogoOfferID,
		BogoDiscountAmount: line.BogoDiscountAmount,

		TimeDiscountID:     line.TimeDiscountID,
		TimeDiscountAmount: line.TimeDiscountAmount,
	}
}

func decodeCart(tenantID, cartID string, doc cartDocument) domain.Cart {
	cart := domain.Cart{
		ID:         cartID,
		TenantID:   tenantID,
		RegisterID: doc.RegisterID,
		CashierID:  doc.CashierID,
		Status:     domain.CartStatus(doc.Status),
		Note:       doc.Note,
		Metadata:   cloneStringMap(doc.Metadata),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if len(doc.Lines) > 0 {
		cart.Lines = make([]domain.CartLine, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			cart.Lines = append(cart.Lines, decodeCartLine(line))
		}
	}
	return cart
}

func decodeCartLine(doc cartLineDocument) domain.CartLine {
	return domain.CartLine{
		LineID:     doc.LineID,
		ProductID:  doc.ProductID,
		Name:       doc.Name,
		CategoryID: doc.CategoryID,
		UnitPrice:  doc.UnitPrice,
		Quantity:   doc.Quantity,

		IsWeightItem:    doc.IsWeightItem,
		MeasuredWeight:  doc.MeasuredWeight,
		WeightUnit:      doc.WeightUnit,
		TareWeight:      doc.TareWeight,
		IsScaleMeasured: doc.IsScaleMeasured,

		LineSubtotal: doc.LineSubtotal,
		LineDiscount: doc.LineDiscount,
		LineTotal:    doc.LineTotal,

		GroupOfferID:       doc.GroupOfferID,
		GroupInstanceIndex: doc.GroupInstanceIndex,
		GroupDiscountShare: doc.GroupDiscountShare,

		BogoOfferID:        doc.BogoOfferID,
		BogoDiscountAmount: doc.BogoDiscountAmount,

		TimeDiscountID:     doc.TimeDiscountID,
		TimeDiscountAmount: doc.TimeDiscountAmount,
	}
}

// Firestore stores timestamps at microsecond precision, so the optimistic
// lock comparison tolerates sub-microsecond drift.
func timestampsMatch(stored, expected time.Time) bool {
	return stored.UTC().Truncate(time.Microsecond).Equal(expected.UTC().Truncate(time.Microsecond))
}
