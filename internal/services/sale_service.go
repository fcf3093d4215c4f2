package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/repositories"
)

const saleIDPrefix = "sale_"

var (
	// ErrSaleInvalidInput indicates the caller supplied malformed checkout data.
	ErrSaleInvalidInput = errors.New("sale service: invalid input")
	// ErrSaleNotFound indicates no sale exists for the provided identifier.
	ErrSaleNotFound = errors.New("sale service: sale not found")
	// ErrSaleConflict indicates a concurrent modification prevented completing the sale.
	ErrSaleConflict = errors.New("sale service: conflict")
	// ErrSaleUnavailable indicates the sale store could not be reached.
	ErrSaleUnavailable = errors.New("sale service: store unavailable")
	// ErrSaleCartNotOpen indicates checkout was attempted on a cart that is not open.
	ErrSaleCartNotOpen = errors.New("sale service: cart is not open")
	// ErrSaleEmptyCart indicates checkout was attempted on a cart with no lines.
	ErrSaleEmptyCart = errors.New("sale service: cart has no lines")
)

// SaleServiceDeps bundles collaborators required to construct a sale service instance.
type SaleServiceDeps struct {
	Carts       repositories.CartRepository
	Sales       repositories.SaleRepository
	Offers      ActiveOfferSource
	Engine      *PromotionEngine
	Counters    CounterService
	UnitOfWork  repositories.UnitOfWork
	Events      BackgroundJobDispatcher
	Audit       AuditLogService
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type saleService struct {
	carts      repositories.CartRepository
	sales      repositories.SaleRepository
	offers     ActiveOfferSource
	engine     *PromotionEngine
	counters   CounterService
	unitOfWork repositories.UnitOfWork
	events     BackgroundJobDispatcher
	audit      AuditLogService
	clock      func() time.Time
	generate   func() string
	logger     func(context.Context, string, map[string]any)
}

var _ SaleService = (*saleService)(nil)

// NewSaleService wires a SaleService that finalizes carts into immutable
// sale records.
func NewSaleService(deps SaleServiceDeps) (SaleService, error) {
	if deps.Carts == nil {
		return nil, errors.New("sale service: cart repository is required")
	}
	if deps.Sales == nil {
		return nil, errors.New("sale service: sale repository is required")
	}
	if deps.Offers == nil {
		return nil, errors.New("sale service: active offer source is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("sale service: promotion engine is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("sale service: counter service is required")
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
	return &saleService{
		carts:      deps.Carts,
		sales:      deps.Sales,
		offers:     deps.Offers,
		engine:     deps.Engine,
		counters:   deps.Counters,
		unitOfWork: deps.UnitOfWork,
		events:     deps.Events,
		audit:      deps.Audit,
		clock:      func() time.Time { return clock().UTC() },
		generate:   generate,
		logger:     logger,
	}, nil
}

// CompleteSale prices the cart one final time, freezes the result as a sale,
// and closes the cart. A repeated call with the same idempotency key returns
// the sale recorded by the first call.
func (s *saleService) CompleteSale(ctx context.Context, cmd CompleteSaleCommand) (Sale, error) {
	tenantID := strings.TrimSpace(cmd.TenantID)
	cartID := strings.TrimSpace(cmd.CartID)
	registerID := strings.TrimSpace(cmd.RegisterID)
	cashierID := strings.TrimSpace(cmd.CashierID)
	paymentMethod := strings.TrimSpace(cmd.PaymentMethod)
	if tenantID == "" || cartID == "" || registerID == "" || cashierID == "" {
		return Sale{}, fmt.Errorf("%w: tenant, cart, register, and cashier ids are required", ErrSaleInvalidInput)
	}
	if paymentMethod == "" {
		return Sale{}, fmt.Errorf("%w: payment method is required", ErrSaleInvalidInput)
	}

	saleID := s.generate()
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	if idempotencyKey != "" {
		saleID = saleIDForKey(tenantID, registerID, cartID, idempotencyKey)
		if existing, err := s.sales.FindByID(ctx, tenantID, saleID); err == nil {
			return existing, nil
		} else if translated := translateSaleRepoError(err); !errors.Is(translated, ErrSaleNotFound) {
			return Sale{}, translated
		}
	}

	cart, err := s.carts.FindByID(ctx, tenantID, cartID)
	if err != nil {
		if repoErr, ok := err.(repositories.RepositoryError); ok && repoErr.IsNotFound() {
			return Sale{}, fmt.Errorf("%w: cart %s", ErrSaleInvalidInput, cartID)
		}
		return Sale{}, translateSaleRepoError(err)
	}
	if cart.Status != domain.CartStatusOpen {
		return Sale{}, fmt.Errorf("%w: status %s", ErrSaleCartNotOpen, cart.Status)
	}
	if len(cart.Lines) == 0 {
		return Sale{}, ErrSaleEmptyCart
	}

	now := s.clock()
	offers, err := s.offers.ListActiveOffers(ctx, tenantID, now)
	if err != nil {
		return Sale{}, err
	}
	priced, summary := s.engine.Apply(ctx, cart, offers, now)

	receiptNumber, err := s.counters.NextReceiptNumber(ctx, tenantID)
	if err != nil {
		return Sale{}, fmt.Errorf("sale service: issue receipt number: %w", err)
	}

	sale := buildSale(saleID, receiptNumber, priced, summary, registerID, cashierID, paymentMethod, now)

	priced.Status = domain.CartStatusCheckedOut
	priced.UpdatedAt = now
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.sales.Insert(txCtx, sale); err != nil {
			return err
		}
		_, err := s.carts.Update(txCtx, priced, nil)
		return err
	})
	if err != nil {
		if repoErr, ok := err.(repositories.RepositoryError); ok && repoErr.IsConflict() && idempotencyKey != "" {
			if existing, findErr := s.sales.FindByID(ctx, tenantID, saleID); findErr == nil {
				return existing, nil
			}
		}
		return Sale{}, translateSaleRepoError(err)
	}

	s.publishCompleted(ctx, sale)
	if s.audit != nil {
		s.audit.Record(ctx, AuditLogRecord{
			TenantID:  tenantID,
			Actor:     cashierID,
			ActorType: "cashier",
			Action:    "sale.complete",
			TargetRef: "sales/" + sale.ID,
			Metadata: map[string]any{
				"receipt_number": sale.ReceiptNumber,
				"total":          sale.Total,
				"register_id":    registerID,
			},
		})
	}
	s.logger(ctx, "sale_service.sale_completed", map[string]any{
		"tenant_id":      tenantID,
		"sale_id":        sale.ID,
		"receipt_number": sale.ReceiptNumber,
		"total":          sale.Total,
	})
	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, tenantID, saleID string) (Sale, error) {
	tenantID = strings.TrimSpace(tenantID)
	saleID = strings.TrimSpace(saleID)
	if tenantID == "" || saleID == "" {
		return Sale{}, fmt.Errorf("%w: tenant and sale ids are required", ErrSaleInvalidInput)
	}
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return Sale{}, translateSaleRepoError(err)
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filter SaleListFilter) (domain.CursorPage[Sale], error) {
	tenantID := strings.TrimSpace(filter.TenantID)
	if tenantID == "" {
		return domain.CursorPage[Sale]{}, fmt.Errorf("%w: tenant id is required", ErrSaleInvalidInput)
	}
	page, err := s.sales.List(ctx, repositories.SaleListFilter{
		TenantID:   tenantID,
		RegisterID: strings.TrimSpace(filter.RegisterID),
		CashierID:  strings.TrimSpace(filter.CashierID),
		DateRange:  filter.DateRange,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[Sale]{}, translateSaleRepoError(err)
	}
	return page, nil
}

func (s *saleService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *saleService) publishCompleted(ctx context.Context, sale Sale) {
	if s.events == nil {
		return
	}
	event := SaleCompletedEvent{
		SaleID:        sale.ID,
		TenantID:      sale.TenantID,
		RegisterID:    sale.RegisterID,
		ReceiptNumber: sale.ReceiptNumber,
		Total:         sale.Total,
		CompletedAt:   sale.CompletedAt,
	}
	if err := s.events.PublishSaleCompleted(ctx, event); err != nil {
		s.logger(ctx, "sale_service.event_publish_failed", map[string]any{
			"tenant_id": sale.TenantID,
			"sale_id":   sale.ID,
			"error":     err.Error(),
		})
	}
}

// buildSale snapshots the priced cart. Engine output carries unrounded
// amounts; the sale record is the rounding boundary.
func buildSale(saleID, receiptNumber string, cart Cart, summary PricingSummary, registerID, cashierID, paymentMethod string, now time.Time) Sale {
	lines := make([]domain.SaleLine, 0, len(cart.Lines))
	var subtotal, totalDiscount float64
	for _, line := range cart.Lines {
		sub := domain.RoundMoney(line.LineSubtotal)
		disc := domain.RoundMoney(line.LineDiscount)
		if disc > sub {
			disc = sub
		}
		lines = append(lines, domain.SaleLine{
			LineID:         line.LineID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			CategoryID:     cloneStringPointer(line.CategoryID),
			UnitPrice:      line.UnitPrice,
			Quantity:       line.Quantity,
			LineSubtotal:   sub,
			LineDiscount:   disc,
			LineTotal:      domain.RoundMoney(sub - disc),
			IsWeightItem:   line.IsWeightItem,
			MeasuredWeight: cloneFloatPointer(line.MeasuredWeight),
			WeightUnit:     cloneStringPointer(line.WeightUnit),
		})
		subtotal += sub
		totalDiscount += disc
	}
	discounts := make([]domain.AppliedDiscount, len(summary.Lines))
	copy(discounts, summary.Lines)
	for i := range discounts {
		discounts[i].DiscountAmount = domain.RoundMoney(discounts[i].DiscountAmount)
	}
	return Sale{
		ID:            saleID,
		TenantID:      cart.TenantID,
		RegisterID:    registerID,
		CashierID:     cashierID,
		CartID:        cart.ID,
		ReceiptNumber: receiptNumber,
		Lines:         lines,
		Discounts:     discounts,
		Subtotal:      domain.RoundMoney(subtotal),
		TotalDiscount: domain.RoundMoney(totalDiscount),
		Total:         domain.RoundMoney(subtotal - totalDiscount),
		PaymentMethod: paymentMethod,
		CompletedAt:   now,
	}
}

// saleIDForKey derives a stable sale identifier so retried checkouts land on
// the same document.
func saleIDForKey(tenantID, registerID, cartID, key string) string {
	sum := sha256.Sum256([]byte(tenantID + "|" + registerID + "|" + cartID + "|" + key))
	return saleIDPrefix + hex.EncodeToString(sum[:])[:32]
}

func translateSaleRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrSaleNotFound
		case repoErr.IsConflict():
			return ErrSaleConflict
		case repoErr.IsUnavailable():
			return ErrSaleUnavailable
		}
	}
	return err
}
