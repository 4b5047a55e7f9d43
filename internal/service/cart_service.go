package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"semisto-service/internal/cart"
	"semisto-service/internal/models"
	"semisto-service/internal/redisclient"
	"semisto-service/internal/util"
	"semisto-service/internal/workflow"
)

const suggestionLimit = 3

// CartService handles cart business logic
type CartService struct {
	carts     CartRepository
	catalog   Catalog
	ttl       time.Duration
	threshold float64
	currency  string
	logger    *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts CartRepository, catalog Catalog, ttl time.Duration, freePickupThreshold float64, currency string) *CartService {
	return &CartService{
		carts:     carts,
		catalog:   catalog,
		ttl:       ttl,
		threshold: freePickupThreshold,
		currency:  currency,
		logger:    util.GetLogger(),
	}
}

// CartView is a cart with every derived value computed at read time
type CartView struct {
	*cart.Cart
	Subtotal               float64          `json:"subtotal"`
	ItemCount              int              `json:"item_count"`
	Currency               string           `json:"currency"`
	FreePickupThreshold    float64          `json:"free_pickup_threshold"`
	RemainingForFreePickup float64          `json:"remaining_for_free_pickup"`
	FreePickupProgress     float64          `json:"free_pickup_progress"`
	Suggestions            []models.Product `json:"suggestions"`
}

func (s *CartService) view(ctx context.Context, c *cart.Cart) *CartView {
	subtotal := c.Subtotal()
	return &CartView{
		Cart:                   c,
		Subtotal:               subtotal,
		ItemCount:              c.ItemCount(),
		Currency:               s.currency,
		FreePickupThreshold:    s.threshold,
		RemainingForFreePickup: cart.RemainingForFreePickup(subtotal, s.threshold),
		FreePickupProgress:     cart.FreePickupProgress(subtotal, s.threshold),
		Suggestions:            cart.Suggest(c, s.catalog.Products(ctx, ""), suggestionLimit),
	}
}

// Create starts an empty cart
func (s *CartService) Create(ctx context.Context) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Create")
	defer span.End()

	c := cart.New(uuid.New().String())
	if err := s.carts.SaveCart(ctx, c, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	util.CartOperationsTotal.WithLabelValues("create").Inc()
	s.logger.Debug("Cart created", zap.String("cart_id", c.ID))
	return s.view(ctx, c), nil
}

func (s *CartService) load(ctx context.Context, id string) (*cart.Cart, error) {
	c, err := s.carts.GetCart(ctx, id, s.ttl)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

// Get returns the cart with derived totals
func (s *CartService) Get(ctx context.Context, id string) (*CartView, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c), nil
}

// AddItem adds quantity of a catalog product, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, id, productID string, quantity int) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem",
		attribute.String("cart.id", id), attribute.String("product.id", productID))
	defer span.End()

	return s.mutate(ctx, id, "add", func(c *cart.Cart) error {
		product, ok := s.catalog.ProductByID(ctx, productID)
		if !ok {
			return ErrProductNotFound
		}
		return c.Add(product, quantity)
	})
}

// UpdateItem sets a line quantity; below 1 removes the line. The stock is
// checked against the current catalog entry.
func (s *CartService) UpdateItem(ctx context.Context, id, productID string, quantity int) (*CartView, error) {
	return s.mutate(ctx, id, "update", func(c *cart.Cart) error {
		if product, ok := s.catalog.ProductByID(ctx, productID); ok {
			c.Refresh(product)
		}
		return c.SetQuantity(productID, quantity)
	})
}

// RemoveItem deletes a line; removing an absent product is not an error
func (s *CartService) RemoveItem(ctx context.Context, id, productID string) (*CartView, error) {
	return s.mutate(ctx, id, "remove", func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *CartService) mutate(ctx context.Context, id, op string, fn func(c *cart.Cart) error) (*CartView, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	if err := s.carts.SaveCart(ctx, c, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	util.CartOperationsTotal.WithLabelValues(op).Inc()
	return s.view(ctx, c), nil
}

// Delete drops the cart
func (s *CartService) Delete(ctx context.Context, id string) error {
	if err := s.carts.DeleteCart(ctx, id); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	util.CartOperationsTotal.WithLabelValues("delete").Inc()
	return nil
}

// CartSummary feeds the checkout guards
func (s *CartService) CartSummary(ctx context.Context, id string) (workflow.CartSummary, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return workflow.CartSummary{}, err
	}
	return workflow.CartSummary{ItemCount: c.ItemCount(), Subtotal: c.Subtotal()}, nil
}
