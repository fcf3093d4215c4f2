package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/repositories"
)

// OfferServiceDeps bundles dependencies required to construct an OfferService implementation.
type OfferServiceDeps struct {
	Offers      repositories.OfferRepository
	Audit       AuditLogService
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type offerService struct {
	repo      repositories.OfferRepository
	audit     AuditLogService
	clock     func() time.Time
	generate  func() string
	logger    func(context.Context, string, map[string]any)
	sanitizer *bluemonday.Policy
}

var _ OfferService = (*offerService)(nil)

// NewOfferService wires an OfferService backed by the provided repositories.
func NewOfferService(deps OfferServiceDeps) (OfferService, error) {
	if deps.Offers == nil {
		return nil, ErrOfferRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	generate := deps.IDGenerator
	if generate == nil {
		generate = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &offerService{
		repo:      deps.Offers,
		audit:     deps.Audit,
		clock:     func() time.Time { return clock().UTC() },
		generate:  generate,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

func (s *offerService) CreateGroupOffer(ctx context.Context, cmd UpsertGroupOfferCommand) (GroupOffer, error) {
	offer, err := s.groupOfferFromCommand(cmd)
	if err != nil {
		return GroupOffer{}, err
	}
	now := s.clock()
	offer.ID = s.generate()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	if err := s.repo.InsertGroupOffer(ctx, offer); err != nil {
		return GroupOffer{}, translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.group.create", "offers/group/"+offer.ID)
	return offer, nil
}

func (s *offerService) UpdateGroupOffer(ctx context.Context, cmd UpsertGroupOfferCommand) (GroupOffer, error) {
	if cmd.OfferID == nil || strings.TrimSpace(*cmd.OfferID) == "" {
		return GroupOffer{}, fmt.Errorf("%w: offer id is required", ErrOfferInvalidInput)
	}
	offer, err := s.groupOfferFromCommand(cmd)
	if err != nil {
		return GroupOffer{}, err
	}
	existing, err := s.repo.FindGroupOffer(ctx, cmd.TenantID, *cmd.OfferID)
	if err != nil {
		return GroupOffer{}, translateOfferRepoError(err)
	}
	offer.ID = existing.ID
	offer.CreatedAt = existing.CreatedAt
	offer.UpdatedAt = s.clock()
	updated, err := s.repo.UpdateGroupOffer(ctx, offer, cmd.ExpectedUpdatedAt)
	if err != nil {
		return GroupOffer{}, translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.group.update", "offers/group/"+offer.ID)
	return updated, nil
}

func (s *offerService) GetGroupOffer(ctx context.Context, tenantID, offerID string) (GroupOffer, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(offerID) == "" {
		return GroupOffer{}, fmt.Errorf("%w: tenant and offer ids are required", ErrOfferInvalidInput)
	}
	offer, err := s.repo.FindGroupOffer(ctx, tenantID, offerID)
	if err != nil {
		return GroupOffer{}, translateOfferRepoError(err)
	}
	return offer, nil
}

func (s *offerService) ListGroupOffers(ctx context.Context, filter OfferListFilter) (domain.CursorPage[GroupOffer], error) {
	if strings.TrimSpace(filter.TenantID) == "" {
		return domain.CursorPage[GroupOffer]{}, fmt.Errorf("%w: tenant id is required", ErrOfferInvalidInput)
	}
	page, err := s.repo.ListGroupOffers(ctx, repositories.OfferListFilter{
		TenantID:   filter.TenantID,
		ActiveOnly: filter.ActiveOnly,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[GroupOffer]{}, translateOfferRepoError(err)
	}
	return page, nil
}

func (s *offerService) DeleteGroupOffer(ctx context.Context, cmd DeleteOfferCommand) error {
	if strings.TrimSpace(cmd.TenantID) == "" || strings.TrimSpace(cmd.OfferID) == "" {
		return fmt.Errorf("%w: tenant and offer ids are required", ErrOfferInvalidInput)
	}
	if cmd.Deactivate {
		offer, err := s.repo.FindGroupOffer(ctx, cmd.TenantID, cmd.OfferID)
		if err != nil {
			return translateOfferRepoError(err)
		}
		offer.IsActive = false
		offer.UpdatedAt = s.clock()
		if _, err := s.repo.UpdateGroupOffer(ctx, offer, nil); err != nil {
			return translateOfferRepoError(err)
		}
		s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.group.deactivate", "offers/group/"+cmd.OfferID)
		return nil
	}
	if err := s.repo.DeleteGroupOffer(ctx, cmd.TenantID, cmd.OfferID); err != nil {
		return translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.group.delete", "offers/group/"+cmd.OfferID)
	return nil
}

func (s *offerService) CreateBogoOffer(ctx context.Context, cmd UpsertBogoOfferCommand) (BogoOffer, error) {
	offer, err := s.bogoOfferFromCommand(cmd)
	if err != nil {
		return BogoOffer{}, err
	}
	now := s.clock()
	offer.ID = s.generate()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	if err := s.repo.InsertBogoOffer(ctx, offer); err != nil {
		return BogoOffer{}, translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.bogo.create", "offers/bogo/"+offer.ID)
	return offer, nil
}

func (s *offerService) UpdateBogoOffer(ctx context.Context, cmd UpsertBogoOfferCommand) (BogoOffer, error) {
	if cmd.OfferID == nil || strings.TrimSpace(*cmd.OfferID) == "" {
		return BogoOffer{}, fmt.Errorf("%w: offer id is required", ErrOfferInvalidInput)
	}
	offer, err := s.bogoOfferFromCommand(cmd)
	if err != nil {
		return BogoOffer{}, err
	}
	existing, err := s.repo.FindBogoOffer(ctx, cmd.TenantID, *cmd.OfferID)
	if err != nil {
		return BogoOffer{}, translateOfferRepoError(err)
	}
	offer.ID = existing.ID
	offer.CreatedAt = existing.CreatedAt
	offer.UpdatedAt = s.clock()
	updated, err := s.repo.UpdateBogoOffer(ctx, offer, cmd.ExpectedUpdatedAt)
	if err != nil {
		return BogoOffer{}, translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.bogo.update", "offers/bogo/"+offer.ID)
	return updated, nil
}

func (s *offerService) GetBogoOffer(ctx context.Context, tenantID, offerID string) (BogoOffer, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(offerID) == "" {
		return BogoOffer{}, fmt.Errorf("%w: tenant and offer ids are required", ErrOfferInvalidInput)
	}
	offer, err := s.repo.FindBogoOffer(ctx, tenantID, offerID)
	if err != nil {
		return BogoOffer{}, translateOfferRepoError(err)
	}
	return offer, nil
}

func (s *offerService) ListBogoOffers(ctx context.Context, filter OfferListFilter) (domain.CursorPage[BogoOffer], error) {
	if strings.TrimSpace(filter.TenantID) == "" {
		return domain.CursorPage[BogoOffer]{}, fmt.Errorf("%w: tenant id is required", ErrOfferInvalidInput)
	}
	page, err := s.repo.ListBogoOffers(ctx, repositories.OfferListFilter{
		TenantID:   filter.TenantID,
		ActiveOnly: filter.ActiveOnly,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[BogoOffer]{}, translateOfferRepoError(err)
	}
	return page, nil
}

func (s *offerService) DeleteBogoOffer(ctx context.Context, cmd DeleteOfferCommand) error {
	if strings.TrimSpace(cmd.TenantID) == "" || strings.TrimSpace(cmd.OfferID) == "" {
		return fmt.Errorf("%w: tenant and offer ids are required", ErrOfferInvalidInput)
	}
	if cmd.Deactivate {
		offer, err := s.repo.FindBogoOffer(ctx, cmd.TenantID, cmd.OfferID)
		if err != nil {
			return translateOfferRepoError(err)
		}
		offer.IsActive = false
		offer.UpdatedAt = s.clock()
		if _, err := s.repo.UpdateBogoOffer(ctx, offer, nil); err != nil {
			return translateOfferRepoError(err)
		}
		s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.bogo.deactivate", "offers/bogo/"+cmd.OfferID)
		return nil
	}
	if err := s.repo.DeleteBogoOffer(ctx, cmd.TenantID, cmd.OfferID); err != nil {
		return translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.bogo.delete", "offers/bogo/"+cmd.OfferID)
	return nil
}

func (s *offerService) CreateTimeDiscount(ctx context.Context, cmd UpsertTimeDiscountCommand) (TimeDiscount, error) {
	discount, err := s.timeDiscountFromCommand(cmd)
	if err != nil {
		return TimeDiscount{}, err
	}
	now := s.clock()
	discount.ID = s.generate()
	discount.CreatedAt = now
	discount.UpdatedAt = now
	if err := s.repo.InsertTimeDiscount(ctx, discount); err != nil {
		return TimeDiscount{}, translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.time.create", "offers/time/"+discount.ID)
	return discount, nil
}

func (s *offerService) UpdateTimeDiscount(ctx context.Context, cmd UpsertTimeDiscountCommand) (TimeDiscount, error) {
	if cmd.OfferID == nil || strings.TrimSpace(*cmd.OfferID) == "" {
		return TimeDiscount{}, fmt.Errorf("%w: discount id is required", ErrOfferInvalidInput)
	}
	discount, err := s.timeDiscountFromCommand(cmd)
	if err != nil {
		return TimeDiscount{}, err
	}
	existing, err := s.repo.FindTimeDiscount(ctx, cmd.TenantID, *cmd.OfferID)
	if err != nil {
		return TimeDiscount{}, translateOfferRepoError(err)
	}
	discount.ID = existing.ID
	discount.CreatedAt = existing.CreatedAt
	discount.UpdatedAt = s.clock()
	updated, err := s.repo.UpdateTimeDiscount(ctx, discount, cmd.ExpectedUpdatedAt)
	if err != nil {
		return TimeDiscount{}, translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.time.update", "offers/time/"+discount.ID)
	return updated, nil
}

func (s *offerService) GetTimeDiscount(ctx context.Context, tenantID, discountID string) (TimeDiscount, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(discountID) == "" {
		return TimeDiscount{}, fmt.Errorf("%w: tenant and discount ids are required", ErrOfferInvalidInput)
	}
	discount, err := s.repo.FindTimeDiscount(ctx, tenantID, discountID)
	if err != nil {
		return TimeDiscount{}, translateOfferRepoError(err)
	}
	return discount, nil
}

func (s *offerService) ListTimeDiscounts(ctx context.Context, filter OfferListFilter) (domain.CursorPage[TimeDiscount], error) {
	if strings.TrimSpace(filter.TenantID) == "" {
		return domain.CursorPage[TimeDiscount]{}, fmt.Errorf("%w: tenant id is required", ErrOfferInvalidInput)
	}
	page, err := s.repo.ListTimeDiscounts(ctx, repositories.OfferListFilter{
		TenantID:   filter.TenantID,
		ActiveOnly: filter.ActiveOnly,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[TimeDiscount]{}, translateOfferRepoError(err)
	}
	return page, nil
}

func (s *offerService) DeleteTimeDiscount(ctx context.Context, cmd DeleteOfferCommand) error {
	if strings.TrimSpace(cmd.TenantID) == "" || strings.TrimSpace(cmd.OfferID) == "" {
		return fmt.Errorf("%w: tenant and discount ids are required", ErrOfferInvalidInput)
	}
	if cmd.Deactivate {
		discount, err := s.repo.FindTimeDiscount(ctx, cmd.TenantID, cmd.OfferID)
		if err != nil {
			return translateOfferRepoError(err)
		}
		discount.IsActive = false
		discount.UpdatedAt = s.clock()
		if _, err := s.repo.UpdateTimeDiscount(ctx, discount, nil); err != nil {
			return translateOfferRepoError(err)
		}
		s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.time.deactivate", "offers/time/"+cmd.OfferID)
		return nil
	}
	if err := s.repo.DeleteTimeDiscount(ctx, cmd.TenantID, cmd.OfferID); err != nil {
		return translateOfferRepoError(err)
	}
	s.recordOfferAudit(ctx, cmd.TenantID, cmd.ActorID, "offer.time.delete", "offers/time/"+cmd.OfferID)
	return nil
}

// ListActiveOffers loads every offer kind for the tenant and keeps only the
// entries active at the given instant. Stored offers that fail validation are
// dropped with a data-quality warning rather than failing the whole load.
func (s *offerService) ListActiveOffers(ctx context.Context, tenantID string, at time.Time) (OfferSet, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return OfferSet{}, fmt.Errorf("%w: tenant id is required", ErrOfferInvalidInput)
	}
	at = at.UTC()
	day := at.Format("2006-01-02")
	set := OfferSet{}

	groupPage, err := s.collectGroupOffers(ctx, tenantID)
	if err != nil {
		return OfferSet{}, err
	}
	for _, offer := range groupPage {
		if !offerWindowActive(offer.OfferWindow, day) {
			continue
		}
		if issue := groupOfferIssue(offer); issue != "" {
			s.warnMalformed(ctx, tenantID, "group", offer.ID, issue)
			continue
		}
		set.GroupOffers = append(set.GroupOffers, offer)
	}

	bogoPage, err := s.collectBogoOffers(ctx, tenantID)
	if err != nil {
		return OfferSet{}, err
	}
	for _, offer := range bogoPage {
		if !offerWindowActive(offer.OfferWindow, day) {
			continue
		}
		if issue := bogoOfferIssue(offer); issue != "" {
			s.warnMalformed(ctx, tenantID, "bogo", offer.ID, issue)
			continue
		}
		set.BogoOffers = append(set.BogoOffers, offer)
	}

	timePage, err := s.collectTimeDiscounts(ctx, tenantID)
	if err != nil {
		return OfferSet{}, err
	}
	for _, discount := range timePage {
		if !offerWindowActive(discount.OfferWindow, day) {
			continue
		}
		if issue := timeDiscountIssue(discount); issue != "" {
			s.warnMalformed(ctx, tenantID, "time", discount.ID, issue)
			continue
		}
		set.TimeDiscounts = append(set.TimeDiscounts, discount)
	}

	return set, nil
}

const activeOfferPageSize = 200

func (s *offerService) collectGroupOffers(ctx context.Context, tenantID string) ([]GroupOffer, error) {
	var all []GroupOffer
	token := ""
	for {
		page, err := s.repo.ListGroupOffers(ctx, repositories.OfferListFilter{
			TenantID:   tenantID,
			ActiveOnly: true,
			Pagination: domain.Pagination{PageSize: activeOfferPageSize, PageToken: token},
		})
		if err != nil {
			return nil, translateOfferRepoError(err)
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

func (s *offerService) collectBogoOffers(ctx context.Context, tenantID string) ([]BogoOffer, error) {
	var all []BogoOffer
	token := ""
	for {
		page, err := s.repo.ListBogoOffers(ctx, repositories.OfferListFilter{
			TenantID:   tenantID,
			ActiveOnly: true,
			Pagination: domain.Pagination{PageSize: activeOfferPageSize, PageToken: token},
		})
		if err != nil {
			return nil, translateOfferRepoError(err)
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

func (s *offerService) collectTimeDiscounts(ctx context.Context, tenantID string) ([]TimeDiscount, error) {
	var all []TimeDiscount
	token := ""
	for {
		page, err := s.repo.ListTimeDiscounts(ctx, repositories.OfferListFilter{
			TenantID:   tenantID,
			ActiveOnly: true,
			Pagination: domain.Pagination{PageSize: activeOfferPageSize, PageToken: token},
		})
		if err != nil {
			return nil, translateOfferRepoError(err)
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// Validation and construction ------------------------------------------------

func (s *offerService) groupOfferFromCommand(cmd UpsertGroupOfferCommand) (GroupOffer, error) {
	window, err := buildOfferWindow(cmd.Priority, cmd.IsActive, cmd.StartDate, cmd.EndDate)
	if err != nil {
		return GroupOffer{}, err
	}
	offer := GroupOffer{
		TenantID:         strings.TrimSpace(cmd.TenantID),
		Name:             s.sanitizeText(cmd.Name),
		Description:      s.sanitizeText(cmd.Description),
		OfferWindow:      window,
		ProductIDs:       trimStrings(cmd.ProductIDs),
		RequiredQuantity: cmd.RequiredQuantity,
		DiscountType:     cmd.DiscountType,
		DiscountValue:    cmd.DiscountValue,
	}
	if offer.TenantID == "" {
		return GroupOffer{}, fmt.Errorf("%w: tenant id is required", ErrOfferInvalidInput)
	}
	if offer.Name == "" {
		return GroupOffer{}, fmt.Errorf("%w: name is required", ErrOfferInvalidInput)
	}
	if issue := groupOfferIssue(offer); issue != "" {
		return GroupOffer{}, fmt.Errorf("%w: %s", ErrOfferInvalidInput, issue)
	}
	return offer, nil
}

func (s *offerService) bogoOfferFromCommand(cmd UpsertBogoOfferCommand) (BogoOffer, error) {
	window, err := buildOfferWindow(cmd.Priority, cmd.IsActive, cmd.StartDate, cmd.EndDate)
	if err != nil {
		return BogoOffer{}, err
	}
	offer := BogoOffer{
		TenantID:      strings.TrimSpace(cmd.TenantID),
		Name:          s.sanitizeText(cmd.Name),
		Description:   s.sanitizeText(cmd.Description),
		OfferWindow:   window,
		BuyProductIDs: trimStrings(cmd.BuyProductIDs),
		BuyQuantity:   cmd.BuyQuantity,
		GetProductIDs: trimStrings(cmd.GetProductIDs),
		GetQuantity:   cmd.GetQuantity,
		ApplyOn:       cmd.ApplyOn,
		DiscountType:  cmd.DiscountType,
		DiscountValue: cmd.DiscountValue,
	}
	if offer.TenantID == "" {
		return BogoOffer{}, fmt.Errorf("%w: tenant id is required", ErrOfferInvalidInput)
	}
	if offer.Name == "" {
		return BogoOffer{}, fmt.Errorf("%w: name is required", ErrOfferInvalidInput)
	}
	if issue := bogoOfferIssue(offer); issue != "" {
		return BogoOffer{}, fmt.Errorf("%w: %s", ErrOfferInvalidInput, issue)
	}
	return offer, nil
}

func (s *offerService) timeDiscountFromCommand(cmd UpsertTimeDiscountCommand) (TimeDiscount, error) {
	window, err := buildOfferWindow(cmd.Priority, cmd.IsActive, cmd.StartDate, cmd.EndDate)
	if err != nil {
		return TimeDiscount{}, err
	}
	discount := TimeDiscount{
		TenantID:      strings.TrimSpace(cmd.TenantID),
		Name:          s.sanitizeText(cmd.Name),
		Description:   s.sanitizeText(cmd.Description),
		OfferWindow:   window,
		Scope:         cmd.Scope,
		CategoryIDs:   trimStrings(cmd.CategoryIDs),
		DaysOfWeek:    cmd.DaysOfWeek,
		StartTime:     strings.TrimSpace(cmd.StartTime),
		EndTime:       strings.TrimSpace(cmd.EndTime),
		DiscountType:  cmd.DiscountType,
		DiscountValue: cmd.DiscountValue,
	}
	if discount.TenantID == "" {
		return TimeDiscount{}, fmt.Errorf("%w: tenant id is required", ErrOfferInvalidInput)
	}
	if discount.Name == "" {
		return TimeDiscount{}, fmt.Errorf("%w: name is required", ErrOfferInvalidInput)
	}
	if issue := timeDiscountIssue(discount); issue != "" {
		return TimeDiscount{}, fmt.Errorf("%w: %s", ErrOfferInvalidInput, issue)
	}
	return discount, nil
}

func buildOfferWindow(priority int, isActive bool, startDate, endDate string) (domain.OfferWindow, error) {
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)
	if startDate != "" {
		if _, err := time.Parse("2006-01-02", startDate); err != nil {
			return domain.OfferWindow{}, fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrOfferInvalidInput)
		}
	}
	if endDate != "" {
		if _, err := time.Parse("2006-01-02", endDate); err != nil {
			return domain.OfferWindow{}, fmt.Errorf("%w: end date must be YYYY-MM-DD", ErrOfferInvalidInput)
		}
	}
	if startDate != "" && endDate != "" && startDate > endDate {
		return domain.OfferWindow{}, fmt.Errorf("%w: start date is after end date", ErrOfferInvalidInput)
	}
	return domain.OfferWindow{
		Priority:  priority,
		IsActive:  isActive,
		StartDate: startDate,
		EndDate:   endDate,
	}, nil
}

func (s *offerService) sanitizeText(v string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(v))
}

func trimStrings(in []string) []string {
	var out []string
	for _, v := range in {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *offerService) warnMalformed(ctx context.Context, tenantID, kind, offerID, issue string) {
	s.logger(ctx, "offer_service.malformed_offer_skipped", map[string]any{
		"tenant_id": tenantID,
		"kind":      kind,
		"offer_id":  offerID,
		"issue":     issue,
	})
	if s.audit != nil {
		s.audit.Record(ctx, AuditLogRecord{
			TenantID:  tenantID,
			Actor:     "system",
			ActorType: "system",
			Action:    "offer.malformed_skipped",
			TargetRef: "offers/" + kind + "/" + offerID,
			Severity:  "warning",
			Metadata:  map[string]any{"issue": issue},
		})
	}
}

func (s *offerService) recordOfferAudit(ctx context.Context, tenantID, actorID, action, targetRef string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditLogRecord{
		TenantID:  tenantID,
		Actor:     actorID,
		ActorType: "staff",
		Action:    action,
		TargetRef: targetRef,
	})
}

func translateOfferRepoError(err error) error {
	if repoErr, ok := err.(repositories.RepositoryError); ok {
		switch {
		case repoErr.IsNotFound():
			return ErrOfferNotFound
		case repoErr.IsConflict():
			return ErrOfferConflict
		case repoErr.IsUnavailable():
			return ErrOfferUnavailable
		}
	}
	return err
}
