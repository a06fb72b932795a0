// AngelaMos | 2026
// service.go

package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
)

type Service struct {
	repo Repository
	cart Cart
	cfg  config.StorefrontConfig
}

func NewService(repo Repository, cart Cart, cfg config.StorefrontConfig) *Service {
	return &Service{repo: repo, cart: cart, cfg: cfg}
}

func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	item := &Item{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		SessionCount: req.SessionCount,
		PackageType:  req.PackageType,
		Active:       req.Active == nil || *req.Active,
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem hides inactive items from everyone but admins.
func (s *Service) GetItem(ctx context.Context, id string, admin bool) (*Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Active && !admin {
		return nil, fmt.Errorf("get storefront item: %w", core.ErrNotFound)
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, params ListItemsParams) ([]Item, int, error) {
	return s.repo.ListItems(ctx, params)
}

func (s *Service) UpdateItem(
	ctx context.Context,
	id string,
	req UpdateItemRequest,
) (*Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.PriceCents != nil {
		item.PriceCents = *req.PriceCents
	}
	if req.SessionCount != nil {
		item.SessionCount = *req.SessionCount
	}
	if req.PackageType != nil {
		item.PackageType = *req.PackageType
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.repo.DeleteItem(ctx, id)
}

// SetCartItem sets the quantity of an item in the caller's cart.
func (s *Service) SetCartItem(
	ctx context.Context,
	userID, itemID string,
	quantity int,
) (*CartResponse, error) {
	if s.cfg.MaxItemAmount > 0 && quantity > s.cfg.MaxItemAmount {
		return nil, core.ValidationError(
			fmt.Sprintf("quantity must be at most %d", s.cfg.MaxItemAmount))
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Purchasable() {
		return nil, core.ConflictError("item is not available")
	}

	lines, err := s.cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, exists := lines[itemID]; !exists &&
		s.cfg.MaxCartItems > 0 && len(lines) >= s.cfg.MaxCartItems {
		return nil, core.ValidationError(
			fmt.Sprintf("cart can hold at most %d different items", s.cfg.MaxCartItems))
	}

	if err := s.cart.SetQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.ViewCart(ctx, userID)
}

func (s *Service) RemoveCartItem(ctx context.Context, userID, itemID string) (*CartResponse, error) {
	if err := s.cart.Remove(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.ViewCart(ctx, userID)
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	return s.cart.Clear(ctx, userID)
}

// ViewCart prices the cart with current item data. Lines whose item was
// removed from sale are dropped from the cart.
func (s *Service) ViewCart(ctx context.Context, userID string) (*CartResponse, error) {
	priced, err := s.priceCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{
		Items:    make([]CartLineResponse, 0, len(priced)),
		Currency: s.currency(),
	}
	for _, line := range priced {
		resp.Items = append(resp.Items, CartLineResponse{
			ItemID:         line.ItemID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotal(),
			Sessions:       line.Sessions(),
		})
		resp.TotalCents += line.LineTotal()
		resp.Sessions += line.Sessions()
	}
	return resp, nil
}

// Checkout turns the cart into a paid order and empties the cart.
func (s *Service) Checkout(ctx context.Context, userID string) (*Order, error) {
	lines, err := s.priceCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, core.ValidationError("cart is empty")
	}

	order := &Order{
		ID:       uuid.New().String(),
		UserID:   userID,
		Status:   OrderPaid,
		Currency: s.currency(),
		Items:    lines,
	}
	for i := range order.Items {
		order.Items[i].ID = uuid.New().String()
		order.Items[i].OrderID = order.ID
		order.TotalCents += order.Items[i].LineTotal()
		order.SessionsGranted += order.Items[i].Sessions()
	}

	event, err := events.New(events.TypeOrderCompleted, order.ID, userID, events.OrderCompleted{
		OrderID:         order.ID,
		UserID:          userID,
		TotalCents:      int64(order.TotalCents),
		Currency:        order.Currency,
		SessionsGranted: order.SessionsGranted,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateOrder(ctx, order, event); err != nil {
		return nil, err
	}

	// The order is committed; a stale cart only costs the user a click.
	if err := s.cart.Clear(ctx, userID); err != nil {
		slog.WarnContext(ctx, "clear cart after checkout",
			"user_id", userID,
			"order_id", order.ID,
			"error", err,
		)
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id, userID string, admin bool) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !admin {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	return order, nil
}

func (s *Service) ListOrders(
	ctx context.Context,
	userID string,
	page, pageSize int,
) ([]Order, int, error) {
	return s.repo.ListOrders(ctx, userID, pageSize, (page-1)*pageSize)
}

func (s *Service) priceCart(ctx context.Context, userID string) ([]OrderItem, error) {
	lines, err := s.cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	priced := make([]OrderItem, 0, len(lines))
	for itemID, qty := range lines {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		if item == nil || !item.Purchasable() {
			if rmErr := s.cart.Remove(ctx, userID, itemID); rmErr != nil {
				return nil, rmErr
			}
			continue
		}

		priced = append(priced, OrderItem{
			ItemID:         item.ID,
			Name:           item.Name,
			Quantity:       qty,
			UnitPriceCents: item.PriceCents,
			SessionCount:   item.SessionCount,
		})
	}

	sort.Slice(priced, func(i, j int) bool { return priced[i].Name < priced[j].Name })
	return priced, nil
}

func (s *Service) currency() string {
	if s.cfg.Currency == "" {
		return "USD"
	}
	return strings.ToUpper(s.cfg.Currency)
}
