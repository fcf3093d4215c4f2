package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/tillpoint/api/internal/domain"
	"github.com/tillpoint/api/internal/repositories"
)

var (
	// ErrCartInvalidInput indicates the caller supplied malformed cart data.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartNotFound indicates no cart exists for the provided identifier.
	ErrCartNotFound = errors.New("cart service: cart not found")
	// ErrCartConflict indicates the cart changed since the caller last read it.
	ErrCartConflict = errors.New("cart service: conflict")
	// ErrCartUnavailable indicates the cart store could not be reached.
	ErrCartUnavailable = errors.New("cart service: store unavailable")
	// ErrCartClosed indicates a mutation was attempted on a checked-out or abandoned cart.
	ErrCartClosed = errors.New("cart service: cart is closed")
)

// CartServiceDeps bundles collaborators required to construct a cart service instance.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Offers      ActiveOfferSource
	Engine      *PromotionEngine
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type cartService struct {
	carts    repositories.CartRepository
	offers   ActiveOfferSource
	engine   *PromotionEngine
	clock    func() time.Time
	generate func() string
	logger   func(context.Context, string, map[string]any)
}

var _ CartService = (*cartService)(nil)

// NewCartService wires a CartService that reprices carts through the
// promotion engine on every mutation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Offers == nil {
		return nil, errors.New("cart service: active offer source is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("cart service: promotion engine is required")
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
	return &cartService{
		carts:    deps.Carts,
		offers:   deps.Offers,
		engine:   deps.Engine,
		clock:    func() time.Time { return clock().UTC() },
		generate: generate,
		logger:   logger,
	}, nil
}

func (s *cartService) CreateCart(ctx context.Context, cmd CreateCartCommand) (Cart, error) {
	tenantID := strings.TrimSpace(cmd.TenantID)
	registerID := strings.TrimSpace(cmd.RegisterID)
	cashierID := strings.TrimSpace(cmd.CashierID)
	if tenantID == "" || registerID == "" || cashierID == "" {
		return Cart{}, fmt.Errorf("%w: tenant, register, and cashier ids are required", ErrCartInvalidInput)
	}
	now := s.clock()
	cart := Cart{
		ID:         s.generate(),
		TenantID:   tenantID,
		RegisterID: registerID,
		CashierID:  cashierID,
		Status:     domain.CartStatusOpen,
		Metadata:   copyStringMap(cmd.Metadata),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.carts.Insert(ctx, cart); err != nil {
		return Cart{}, translateCartRepoError(err)
	}
	s.logger(ctx, "cart_service.cart_created", map[string]any{
		"tenant_id": tenantID,
		"cart_id":   cart.ID,
		"register":  registerID,
	})
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, tenantID, cartID string) (Cart, error) {
	return s.loadCart(ctx, tenantID, cartID)
}

func (s *cartService) AddLine(ctx context.Context, cmd AddCartLineCommand) (PricedCart, error) {
	line, err := buildCartLine(cmd)
	if err != nil {
		return PricedCart{}, err
	}
	cart, err := s.loadOpenCart(ctx, cmd.TenantID, cmd.CartID)
	if err != nil {
		return PricedCart{}, err
	}
	line.LineID = s.generate()
	cart.Lines = append(cart.Lines, line)
	return s.repriceAndPersist(ctx, cart, cmd.ExpectedUpdatedAt)
}

func (s *cartService) UpdateLine(ctx context.Context, cmd UpdateCartLineCommand) (PricedCart, error) {
	lineID := strings.TrimSpace(cmd.LineID)
	if lineID == "" {
		return PricedCart{}, fmt.Errorf("%w: line id is required", ErrCartInvalidInput)
	}
	cart, err := s.loadOpenCart(ctx, cmd.TenantID, cmd.CartID)
	if err != nil {
		return PricedCart{}, err
	}
	idx := -1
	for i := range cart.Lines {
		if cart.Lines[i].LineID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return PricedCart{}, fmt.Errorf("%w: line %s", ErrCartNotFound, lineID)
	}

	line := &cart.Lines[idx]
	if cmd.Quantity != nil {
		if *cmd.Quantity <= 0 {
			return PricedCart{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
		}
		line.Quantity = *cmd.Quantity
	}
	if cmd.UnitPrice != nil {
		if *cmd.UnitPrice < 0 {
			return PricedCart{}, fmt.Errorf("%w: unit price cannot be negative", ErrCartInvalidInput)
		}
		line.UnitPrice = *cmd.UnitPrice
	}
	if cmd.MeasuredWeight != nil {
		if !line.IsWeightItem {
			return PricedCart{}, fmt.Errorf("%w: line is not weight-priced", ErrCartInvalidInput)
		}
		line.MeasuredWeight = cloneFloatPointer(cmd.MeasuredWeight)
	}
	switch {
	case cmd.LineSubtotal != nil:
		if *cmd.LineSubtotal < 0 {
			return PricedCart{}, fmt.Errorf("%w: line subtotal cannot be negative", ErrCartInvalidInput)
		}
		line.LineSubtotal = *cmd.LineSubtotal
	case !line.IsWeightItem:
		line.LineSubtotal = line.UnitPrice * float64(line.Quantity)
	}

	return s.repriceAndPersist(ctx, cart, cmd.ExpectedUpdatedAt)
}

func (s *cartService) RemoveLine(ctx context.Context, cmd RemoveCartLineCommand) (PricedCart, error) {
	lineID := strings.TrimSpace(cmd.LineID)
	if lineID == "" {
		return PricedCart{}, fmt.Errorf("%w: line id is required", ErrCartInvalidInput)
	}
	cart, err := s.loadOpenCart(ctx, cmd.TenantID, cmd.CartID)
	if err != nil {
		return PricedCart{}, err
	}
	remaining := make([]CartLine, 0, len(cart.Lines))
	found := false
	for _, line := range cart.Lines {
		if line.LineID == lineID {
			found = true
			continue
		}
		remaining = append(remaining, line)
	}
	if !found {
		return PricedCart{}, fmt.Errorf("%w: line %s", ErrCartNotFound, lineID)
	}
	cart.Lines = remaining
	return s.repriceAndPersist(ctx, cart, cmd.ExpectedUpdatedAt)
}

func (s *cartService) SetNote(ctx context.Context, cmd SetCartNoteCommand) (Cart, error) {
	cart, err := s.loadOpenCart(ctx, cmd.TenantID, cmd.CartID)
	if err != nil {
		return Cart{}, err
	}
	cart.Note = strings.TrimSpace(cmd.Note)
	cart.UpdatedAt = s.clock()
	updated, err := s.carts.Update(ctx, cart, cmd.ExpectedUpdatedAt)
	if err != nil {
		return Cart{}, translateCartRepoError(err)
	}
	return updated, nil
}

// PriceCart runs the engine against the current offer catalog without
// persisting, for register display refreshes.
func (s *cartService) PriceCart(ctx context.Context, tenantID, cartID string) (PricedCart, error) {
	cart, err := s.loadCart(ctx, tenantID, cartID)
	if err != nil {
		return PricedCart{}, err
	}
	now := s.clock()
	offers, err := s.offers.ListActiveOffers(ctx, cart.TenantID, now)
	if err != nil {
		return PricedCart{}, err
	}
	priced, summary := s.engine.Apply(ctx, cart, offers, now)
	return PricedCart{Cart: priced, Summary: summary}, nil
}

func (s *cartService) AbandonCart(ctx context.Context, cmd AbandonCartCommand) (Cart, error) {
	cart, err := s.loadOpenCart(ctx, cmd.TenantID, cmd.CartID)
	if err != nil {
		return Cart{}, err
	}
	cart.Status = domain.CartStatusAbandoned
	cart.UpdatedAt = s.clock()
	updated, err := s.carts.Update(ctx, cart, nil)
	if err != nil {
		return Cart{}, translateCartRepoError(err)
	}
	s.logger(ctx, "cart_service.cart_abandoned", map[string]any{
		"tenant_id": cart.TenantID,
		"cart_id":   cart.ID,
		"cashier":   strings.TrimSpace(cmd.CashierID),
		"reason":    strings.TrimSpace(cmd.Reason),
	})
	return updated, nil
}

func (s *cartService) repriceAndPersist(ctx context.Context, cart Cart, expectedUpdatedAt *time.Time) (PricedCart, error) {
	now := s.clock()
	offers, err := s.offers.ListActiveOffers(ctx, cart.TenantID, now)
	if err != nil {
		return PricedCart{}, err
	}
	priced, summary := s.engine.Apply(ctx, cart, offers, now)
	priced.UpdatedAt = now
	persisted, err := s.carts.Update(ctx, priced, expectedUpdatedAt)
	if err != nil {
		return PricedCart{}, translateCartRepoError(err)
	}
	return PricedCart{Cart: persisted, Summary: summary}, nil
}

func (s *cartService) loadCart(ctx context.Context, tenantID, cartID string) (Cart, error) {
	tenantID = strings.TrimSpace(tenantID)
	cartID = strings.TrimSpace(cartID)
	if tenantID == "" || cartID == "" {
		return Cart{}, fmt.Errorf("%w: tenant and cart ids are required", ErrCartInvalidInput)
	}
	cart, err := s.carts.FindByID(ctx, tenantID, cartID)
	if err != nil {
		return Cart{}, translateCartRepoError(err)
	}
	return cart, nil
}

func (s *cartService) loadOpenCart(ctx context.Context, tenantID, cartID string) (Cart, error) {
	cart, err := s.loadCart(ctx, tenantID, cartID)
	if err != nil {
		return Cart{}, err
	}
	if cart.Status != domain.CartStatusOpen {
		return Cart{}, fmt.Errorf("%w: status %s", ErrCartClosed, cart.Status)
	}
	return cart, nil
}

func buildCartLine(cmd AddCartLineCommand) (CartLine, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return CartLine{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return CartLine{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}
	if cmd.UnitPrice < 0 {
		return CartLine{}, fmt.Errorf("%w: unit price cannot be negative", ErrCartInvalidInput)
	}
	line := CartLine{
		ProductID:       productID,
		Name:            strings.TrimSpace(cmd.Name),
		CategoryID:      cloneStringPointer(cmd.CategoryID),
		UnitPrice:       cmd.UnitPrice,
		Quantity:        cmd.Quantity,
		IsWeightItem:    cmd.IsWeightItem,
		MeasuredWeight:  cloneFloatPointer(cmd.MeasuredWeight),
		WeightUnit:      cloneStringPointer(cmd.WeightUnit),
		TareWeight:      cloneFloatPointer(cmd.TareWeight),
		IsScaleMeasured: cmd.IsScaleMeasured,
	}
	switch {
	case cmd.LineSubtotal != nil:
		if *cmd.LineSubtotal < 0 {
			return CartLine{}, fmt.Errorf("%w: line subtotal cannot be negative", ErrCartInvalidInput)
		}
		line.LineSubtotal = *cmd.LineSubtotal
	case line.IsWeightItem:
		return CartLine{}, fmt.Errorf("%w: weight items require an explicit line subtotal", ErrCartInvalidInput)
	default:
		line.LineSubtotal = line.UnitPrice * float64(line.Quantity)
	}
	line.LineTotal = line.LineSubtotal
	return line, nil
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func translateCartRepoError(err error) error {
	if repoErr, ok := err.(repositories.RepositoryError); ok {
		switch {
		case repoErr.IsNotFound():
			return ErrCartNotFound
		case repoErr.IsConflict():
			return ErrCartConflict
		case repoErr.IsUnavailable():
			return ErrCartUnavailable
		}
	}
	return err
}
