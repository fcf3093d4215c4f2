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
	groupOffersCollection   = "offers_group"
	bogoOffersCollection    = "offers_bogo"
	timeDiscountsCollection = "offers_time"
)

// OfferRepository maintains the three offer catalogs under each tenant
// document. Group offers, BOGO offers, and time discounts live in separate
// subcollections so each catalog pages independently.
type OfferRepository struct {
	provider *pfirestore.Provider
}

var _ repositories.OfferRepository = (*OfferRepository)(nil)

// NewOfferRepository constructs a Firestore-backed offer repository.
func NewOfferRepository(provider *pfirestore.Provider) (*OfferRepository, error) {
	if provider == nil {
		return nil, errors.New("offer repository: firestore provider is required")
	}
	return &OfferRepository{provider: provider}, nil
}

// Group offers ---------------------------------------------------------------

// InsertGroupOffer creates a new group offer document.
func (r *OfferRepository) InsertGroupOffer(ctx context.Context, offer domain.GroupOffer) error {
	ref, err := r.docRef(ctx, offer.TenantID, groupOffersCollection, offer.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeGroupOffer(offer)); err != nil {
		return pfirestore.WrapError("offers_group.insert", err)
	}
	return nil
}

// UpdateGroupOffer replaces a group offer, optionally guarded by the stored
// updatedAt.
func (r *OfferRepository) UpdateGroupOffer(ctx context.Context, offer domain.GroupOffer, expectedUpdatedAt *time.Time) (domain.GroupOffer, error) {
	ref, err := r.docRef(ctx, offer.TenantID, groupOffersCollection, offer.ID)
	if err != nil {
		return domain.GroupOffer{}, err
	}
	doc := encodeGroupOffer(offer)
	if err := r.replaceGuarded(ctx, ref, "offers_group.update", doc, expectedUpdatedAt); err != nil {
		return domain.GroupOffer{}, err
	}
	return decodeGroupOffer(strings.TrimSpace(offer.TenantID), ref.ID, doc), nil
}

// DeleteGroupOffer removes a group offer. Missing documents surface as a
// not-found error.
func (r *OfferRepository) DeleteGroupOffer(ctx context.Context, tenantID string, offerID string) error {
	ref, err := r.docRef(ctx, tenantID, groupOffersCollection, offerID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("offers_group.delete", err)
	}
	return nil
}

// FindGroupOffer returns a single group offer for the tenant.
func (r *OfferRepository) FindGroupOffer(ctx context.Context, tenantID string, offerID string) (domain.GroupOffer, error) {
	ref, err := r.docRef(ctx, tenantID, groupOffersCollection, offerID)
	if err != nil {
		return domain.GroupOffer{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return domain.GroupOffer{}, pfirestore.WrapError("offers_group.get", err)
	}
	var doc groupOfferDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.GroupOffer{}, fmt.Errorf("offer repository: decode %s: %w", snap.Ref.ID, err)
	}
	return decodeGroupOffer(strings.TrimSpace(tenantID), snap.Ref.ID, doc), nil
}

// ListGroupOffers returns group offers ordered by priority (highest first).
func (r *OfferRepository) ListGroupOffers(ctx context.Context, filter repositories.OfferListFilter) (domain.CursorPage[domain.GroupOffer], error) {
	rows, nextToken, err := r.listOfferRows(ctx, filter, groupOffersCollection, "offers_group.list")
	if err != nil {
		return domain.CursorPage[domain.GroupOffer]{}, err
	}
	items := make([]domain.GroupOffer, 0, len(rows))
	for _, row := range rows {
		var doc groupOfferDocument
		if err := row.snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.GroupOffer]{}, fmt.Errorf("offer repository: decode %s: %w", row.snap.Ref.ID, err)
		}
		items = append(items, decodeGroupOffer(strings.TrimSpace(filter.TenantID), row.snap.Ref.ID, doc))
	}
	return domain.CursorPage[domain.GroupOffer]{Items: items, NextPageToken: nextToken}, nil
}

// BOGO offers ----------------------------------------------------------------

// InsertBogoOffer creates a new BOGO offer document.
func (r *OfferRepository) InsertBogoOffer(ctx context.Context, offer domain.BogoOffer) error {
	ref, err := r.docRef(ctx, offer.TenantID, bogoOffersCollection, offer.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeBogoOffer(offer)); err != nil {
		return pfirestore.WrapError("offers_bogo.insert", err)
	}
	return nil
}

// UpdateBogoOffer replaces a BOGO offer, optionally guarded by the stored
// updatedAt.
func (r *OfferRepository) UpdateBogoOffer(ctx context.Context, offer domain.BogoOffer, expectedUpdatedAt *time.Time) (domain.BogoOffer, error) {
	ref, err := r.docRef(ctx, offer.TenantID, bogoOffersCollection, offer.ID)
	if err != nil {
		return domain.BogoOffer{}, err
	}
	doc := encodeBogoOffer(offer)
	if err := r.replaceGuarded(ctx, ref, "offers_bogo.update", doc, expectedUpdatedAt); err != nil {
		return domain.BogoOffer{}, err
	}
	return decodeBogoOffer(strings.TrimSpace(offer.TenantID), ref.ID, doc), nil
}

// DeleteBogoOffer removes a BOGO offer.
func (r *OfferRepository) DeleteBogoOffer(ctx context.Context, tenantID string, offerID string) error {
	ref, err := r.docRef(ctx, tenantID, bogoOffersCollection, offerID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("offers_bogo.delete", err)
	}
	return nil
}

// FindBogoOffer returns a single BOGO offer for the tenant.
func (r *OfferRepository) FindBogoOffer(ctx context.Context, tenantID string, offerID string) (domain.BogoOffer, error) {
	ref, err := r.docRef(ctx, tenantID, bogoOffersCollection, offerID)
	if err != nil {
		return domain.BogoOffer{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return domain.BogoOffer{}, pfirestore.WrapError("offers_bogo.get", err)
	}
	var doc bogoOfferDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.BogoOffer{}, fmt.Errorf("offer repository: decode %s: %w", snap.Ref.ID, err)
	}
	return decodeBogoOffer(strings.TrimSpace(tenantID), snap.Ref.ID, doc), nil
}

// ListBogoOffers returns BOGO offers ordered by priority (highest first).
func (r *OfferRepository) ListBogoOffers(ctx context.Context, filter repositories.OfferListFilter) (domain.CursorPage[domain.BogoOffer], error) {
	rows, nextToken, err := r.listOfferRows(ctx, filter, bogoOffersCollection, "offers_bogo.list")
	if err != nil {
		return domain.CursorPage[domain.BogoOffer]{}, err
	}
	items := make([]domain.BogoOffer, 0, len(rows))
	for _, row := range rows {
		var doc bogoOfferDocument
		if err := row.snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.BogoOffer]{}, fmt.Errorf("offer repository: decode %s: %w", row.snap.Ref.ID, err)
		}
		items = append(items, decodeBogoOffer(strings.TrimSpace(filter.TenantID), row.snap.Ref.ID, doc))
	}
	return domain.CursorPage[domain.BogoOffer]{Items: items, NextPageToken: nextToken}, nil
}

// Time discounts -------------------------------------------------------------

// InsertTimeDiscount creates a new time discount document.
func (r *OfferRepository) InsertTimeDiscount(ctx context.Context, discount domain.TimeDiscount) error {
	ref, err := r.docRef(ctx, discount.TenantID, timeDiscountsCollection, discount.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeTimeDiscount(discount)); err != nil {
		return pfirestore.WrapError("offers_time.insert", err)
	}
	return nil
}

// UpdateTimeDiscount replaces a time discount, optionally guarded by the
// stored updatedAt.
func (r *OfferRepository) UpdateTimeDiscount(ctx context.Context, discount domain.TimeDiscount, expectedUpdatedAt *time.Time) (domain.TimeDiscount, error) {
	ref, err := r.docRef(ctx, discount.TenantID, timeDiscountsCollection, discount.ID)
	if err != nil {
		return domain.TimeDiscount{}, err
	}
	doc := encodeTimeDiscount(discount)
	if err := r.replaceGuarded(ctx, ref, "offers_time.update", doc, expectedUpdatedAt); err != nil {
		return domain.TimeDiscount{}, err
	}
	return decodeTimeDiscount(strings.TrimSpace(discount.TenantID), ref.ID, doc), nil
}

// DeleteTimeDiscount removes a time discount.
func (r *OfferRepository) DeleteTimeDiscount(ctx context.Context, tenantID string, discountID string) error {
	ref, err := r.docRef(ctx, tenantID, timeDiscountsCollection, discountID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("offers_time.delete", err)
	}
	return nil
}

// FindTimeDiscount returns a single time discount for the tenant.
func (r *OfferRepository) FindTimeDiscount(ctx context.Context, tenantID string, discountID string) (domain.TimeDiscount, error) {
	ref, err := r.docRef(ctx, tenantID, timeDiscountsCollection, discountID)
	if err != nil {
		return domain.TimeDiscount{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return domain.TimeDiscount{}, pfirestore.WrapError("offers_time.get", err)
	}
	var doc timeDiscountDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.TimeDiscount{}, fmt.Errorf("offer repository: decode %s: %w", snap.Ref.ID, err)
	}
	return decodeTimeDiscount(strings.TrimSpace(tenantID), snap.Ref.ID, doc), nil
}

// ListTimeDiscounts returns time discounts ordered by priority (highest first).
func (r *OfferRepository) ListTimeDiscounts(ctx context.Context, filter repositories.OfferListFilter) (domain.CursorPage[domain.TimeDiscount], error) {
	rows, nextToken, err := r.listOfferRows(ctx, filter, timeDiscountsCollection, "offers_time.list")
	if err != nil {
		return domain.CursorPage[domain.TimeDiscount]{}, err
	}
	items := make([]domain.TimeDiscount, 0, len(rows))
	for _, row := range rows {
		var doc timeDiscountDocument
		if err := row.snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.TimeDiscount]{}, fmt.Errorf("offer repository: decode %s: %w", row.snap.Ref.ID, err)
		}
		items = append(items, decodeTimeDiscount(strings.TrimSpace(filter.TenantID), row.snap.Ref.ID, doc))
	}
	return domain.CursorPage[domain.TimeDiscount]{Items: items, NextPageToken: nextToken}, nil
}

// Shared plumbing ------------------------------------------------------------

type offerRow struct {
	snap     *firestore.DocumentSnapshot
	priority int
}

// listOfferRows runs the shared offer list query. The active-date window is
// evaluated in the service layer because Firestore cannot combine range
// filters across startDate and endDate in one query.
func (r *OfferRepository) listOfferRows(ctx context.Context, filter repositories.OfferListFilter, collectionName, op string) ([]offerRow, string, error) {
	if r == nil || r.provider == nil {
		return nil, "", errors.New("offer repository not initialised")
	}
	tenantID := strings.TrimSpace(filter.TenantID)
	if tenantID == "" {
		return nil, "", errors.New("offer repository: tenant id is required")
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
		priority, docID, err := pagination.DecodeIntCursor(token)
		if err != nil {
			return nil, "", fmt.Errorf("offer repository: invalid page token: %w", err)
		}
		startAfter = []any{priority, docID}
	}

	coll, err := r.collection(ctx, tenantID, collectionName)
	if err != nil {
		return nil, "", err
	}

	query := coll.Query
	if filter.ActiveOnly {
		query = query.Where("isActive", "==", true)
	}
	query = query.OrderBy("priority", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if len(startAfter) == 2 {
		query = query.StartAfter(startAfter...)
	}
	if fetchLimit > 0 {
		query = query.Limit(fetchLimit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	rows := make([]offerRow, 0, fetchLimit)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, "", pfirestore.WrapError(op, err)
		}
		priority := 0
		if raw, err := snap.DataAt("priority"); err == nil {
			if v, ok := raw.(int64); ok {
				priority = int(v)
			}
		}
		rows = append(rows, offerRow{snap: snap, priority: priority})
	}

	nextToken := ""
	if limit > 0 && len(rows) == fetchLimit {
		last := rows[len(rows)-1]
		nextToken = pagination.EncodeIntCursor(last.priority, last.snap.Ref.ID)
		rows = rows[:len(rows)-1]
	}
	return rows, nextToken, nil
}

type storedUpdatedAt struct {
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// replaceGuarded swaps the full document inside a transaction. A missing
// document surfaces as not found; an updatedAt mismatch as a conflict.
func (r *OfferRepository) replaceGuarded(ctx context.Context, ref *firestore.DocumentRef, op string, doc any, expectedUpdatedAt *time.Time) error {
	if r == nil || r.provider == nil {
		return errors.New("offer repository not initialised")
	}
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if expectedUpdatedAt != nil {
			var stored storedUpdatedAt
			if err := snap.DataTo(&stored); err != nil {
				return fmt.Errorf("offer repository: decode %s: %w", snap.Ref.ID, err)
			}
			if !timestampsMatch(stored.UpdatedAt, expectedUpdatedAt.UTC()) {
				return status.Errorf(codes.FailedPrecondition, "offer %s updated concurrently", ref.ID)
			}
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return pfirestore.WrapError(op, err)
	}
	return nil
}

func (r *OfferRepository) collection(ctx context.Context, tenantID, collectionName string) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(tenantsCollection).Doc(tenantID).Collection(collectionName), nil
}

func (r *OfferRepository) docRef(ctx context.Context, tenantID, collectionName, docID string) (*firestore.DocumentRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("offer repository not initialised")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("offer repository: tenant id is required")
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, errors.New("offer repository: offer id is required")
	}
	coll, err := r.collection(ctx, tenantID, collectionName)
	if err != nil {
		return nil, err
	}
	return coll.Doc(docID), nil
}

// Documents ------------------------------------------------------------------

type groupOfferDocument struct {
	Name        string `firestore:"name"`
	Description string `firestore:"description,omitempty"`
	Priority    int    `firestore:"priority"`
	IsActive    bool   `firestore:"isActive"`
	StartDate   string `firestore:"startDate,omitempty"`
	EndDate     string `firestore:"endDate,omitempty"`

	ProductIDs       []string `firestore:"productIds"`
	RequiredQuantity int      `firestore:"requiredQuantity"`
	DiscountType     string   `firestore:"discountType"`
	DiscountValue    float64  `firestore:"discountValue"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type bogoOfferDocument struct {
	Name        string `firestore:"name"`
	Description string `firestore:"description,omitempty"`
	Priority    int    `firestore:"priority"`
	IsActive    bool   `firestore:"isActive"`
	StartDate   string `firestore:"startDate,omitempty"`
	EndDate     string `firestore:"endDate,omitempty"`

	BuyProductIDs []string `firestore:"buyProductIds"`
	BuyQuantity   int      `firestore:"buyQuantity"`
	GetProductIDs []string `firestore:"getProductIds"`
	GetQuantity   int      `firestore:"getQuantity"`
	ApplyOn       string   `firestore:"applyOn"`
	DiscountType  string   `firestore:"discountType"`
	DiscountValue float64  `firestore:"discountValue"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type timeDiscountDocument struct {
	Name        string `firestore:"name"`
	Description string `firestore:"description,omitempty"`
	Priority    int    `firestore:"priority"`
	IsActive    bool   `firestore:"isActive"`
	StartDate   string `firestore:"startDate,omitempty"`
	EndDate     string `firestore:"endDate,omitempty"`

	Scope         string   `firestore:"scope"`
	CategoryIDs   []string `firestore:"categoryIds,omitempty"`
	DaysOfWeek    []int    `firestore:"daysOfWeek"`
	StartTime     string   `firestore:"startTime"`
	EndTime       string   `firestore:"endTime"`
	DiscountType  string   `firestore:"discountType"`
	DiscountValue float64  `firestore:"discountValue"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func encodeGroupOffer(offer domain.GroupOffer) groupOfferDocument {
	return groupOfferDocument{
		Name:        strings.TrimSpace(offer.Name),
		Description: strings.TrimSpace(offer.Description),
		Priority:    offer.Priority,
		IsActive:    offer.IsActive,
		StartDate:   strings.TrimSpace(offer.StartDate),
		EndDate:     strings.TrimSpace(offer.EndDate),

		ProductIDs:       cloneStringSlice(offer.ProductIDs),
		RequiredQuantity: offer.RequiredQuantity,
		DiscountType:     string(offer.DiscountType),
		DiscountValue:    offer.DiscountValue,

		CreatedAt: offer.CreatedAt.UTC(),
		UpdatedAt: offer.UpdatedAt.UTC(),
	}
}

func decodeGroupOffer(tenantID, offerID string, doc groupOfferDocument) domain.GroupOffer {
	return domain.GroupOffer{
		ID:          offerID,
		TenantID:    tenantID,
		Name:        doc.Name,
		Description: doc.Description,
		OfferWindow: domain.OfferWindow{
			Priority:  doc.Priority,
			IsActive:  doc.IsActive,
			StartDate: doc.StartDate,
			EndDate:   doc.EndDate,
		},

		ProductIDs:       cloneStringSlice(doc.ProductIDs),
		RequiredQuantity: doc.RequiredQuantity,
		DiscountType:     domain.GroupDiscountType(doc.DiscountType),
		DiscountValue:    doc.DiscountValue,

		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func encodeBogoOffer(offer domain.BogoOffer) bogoOfferDocument {
	return bogoOfferDocument{
		Name:        strings.TrimSpace(offer.Name),
		Description: strings.TrimSpace(offer.Description),
		Priority:    offer.Priority,
		IsActive:    offer.IsActive,
		StartDate:   strings.TrimSpace(offer.StartDate),
		EndDate:     strings.TrimSpace(offer.EndDate),

		BuyProductIDs: cloneStringSlice(offer.BuyProductIDs),
		BuyQuantity:   offer.BuyQuantity,
		GetProductIDs: cloneStringSlice(offer.GetProductIDs),
		GetQuantity:   offer.GetQuantity,
		ApplyOn:       string(offer.ApplyOn),
		DiscountType:  string(offer.DiscountType),
		DiscountValue: offer.DiscountValue,

		CreatedAt: offer.CreatedAt.UTC(),
		UpdatedAt: offer.UpdatedAt.UTC(),
	}
}

func decodeBogoOffer(tenantID, offerID string, doc bogoOfferDocument) domain.BogoOffer {
	return domain.BogoOffer{
		ID:          offerID,
		TenantID:    tenantID,
		Name:        doc.Name,
		Description: doc.Description,
		OfferWindow: domain.OfferWindow{
			Priority:  doc.Priority,
			IsActive:  doc.IsActive,
			StartDate: doc.StartDate,
			EndDate:   doc.EndDate,
		},

		BuyProductIDs: cloneStringSlice(doc.BuyProductIDs),
		BuyQuantity:   doc.BuyQuantity,
		GetProductIDs: cloneStringSlice(doc.GetProductIDs),
		GetQuantity:   doc.GetQuantity,
		ApplyOn:       domain.BogoApplyOn(doc.ApplyOn),
		DiscountType:  domain.BogoDiscountType(doc.DiscountType),
		DiscountValue: doc.DiscountValue,

		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func encodeTimeDiscount(discount domain.TimeDiscount) timeDiscountDocument {
	return timeDiscountDocument{
		Name:        strings.TrimSpace(discount.Name),
		Description: strings.TrimSpace(discount.Description),
		Priority:    discount.Priority,
		IsActive:    discount.IsActive,
		StartDate:   strings.TrimSpace(discount.StartDate),
		EndDate:     strings.TrimSpace(discount.EndDate),

		Scope:         string(discount.Scope),
		CategoryIDs:   cloneStringSlice(discount.CategoryIDs),
		DaysOfWeek:    cloneIntSlice(discount.DaysOfWeek),
		StartTime:     strings.TrimSpace(discount.StartTime),
		EndTime:       strings.TrimSpace(discount.EndTime),
		DiscountType:  string(discount.DiscountType),
		DiscountValue: discount.DiscountValue,

		CreatedAt: discount.CreatedAt.UTC(),
		UpdatedAt: discount.UpdatedAt.UTC(),
	}
}

func decodeTimeDiscount(tenantID, discountID string, doc timeDiscountDocument) domain.TimeDiscount {
	return domain.TimeDiscount{
		ID:          discountID,
		TenantID:    tenantID,
		Name:        doc.Name,
		Description: doc.Description,
		OfferWindow: domain.OfferWindow{
			Priority:  doc.Priority,
			IsActive:  doc.IsActive,
			StartDate: doc.StartDate,
			EndDate:   doc.EndDate,
		},

		Scope:         domain.TimeDiscountScope(doc.Scope),
		CategoryIDs:   cloneStringSlice(doc.CategoryIDs),
		DaysOfWeek:    cloneIntSlice(doc.DaysOfWeek),
		StartTime:     doc.StartTime,
		EndTime:       doc.EndTime,
		DiscountType:  domain.TimeDiscountType(doc.DiscountType),
		DiscountValue: doc.DiscountValue,

		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func cloneIntSlice(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	out := make([]int, len(values))
	copy(out, values)
	return out
}
