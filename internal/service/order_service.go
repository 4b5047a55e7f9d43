package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"semisto-service/internal/broker"
	"semisto-service/internal/models"
	"semisto-service/internal/util"
	"semisto-service/internal/workflow"
)

// Result fields written back to completed runs
const (
	ResultReference = "reference"
	ResultOrderID   = "order_id"
	ResultTotal     = "total"
	ResultPickup    = "pickup"
)

func newReference(prefix string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}

// OrderService handles order business logic
type OrderService struct {
	store          OrderStore
	carts          *CartService
	catalog        Catalog
	eventPublisher EventPublisher
	currency       string
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	carts *CartService,
	catalog Catalog,
	eventPublisher EventPublisher,
	currency string,
) *OrderService {
	return &OrderService{
		store:          store,
		carts:          carts,
		catalog:        catalog,
		eventPublisher: eventPublisher,
		currency:       currency,
		logger:         util.GetLogger(),
	}
}

// CartSummary satisfies workflow.CheckoutBackend
func (s *OrderService) CartSummary(ctx context.Context, cartID string) (workflow.CartSummary, error) {
	return s.carts.CartSummary(ctx, cartID)
}

// PlaceOrder turns a cart into an order. The run id is the idempotency key,
// so a retried commit returns the order placed the first time. The cart is
// left in place; ReleaseCart removes it once the run is saved.
func (s *OrderService) PlaceOrder(ctx context.Context, req workflow.CheckoutRequest) (workflow.Fields, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate checkout commit detected",
			zap.String("run_id", req.RunID),
			zap.String("reference", existing.Reference))
		result := orderResult(existing)
		if pickup, ok := s.catalog.PickupLocation(ctx, existing.PickupLocationID); ok {
			result[ResultPickup] = pickup.Name
		}
		return result, nil
	}

	pickup, ok := s.catalog.PickupLocation(ctx, req.PickupLocationID)
	if !ok {
		return nil, ErrUnknownPickup
	}

	c, err := s.carts.load(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(c.Lines))
	itemData := make([]models.OrderItemData, 0, len(c.Lines))
	var total int64
	for _, line := range c.Lines {
		product, ok := s.catalog.ProductByID(ctx, line.Product.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.Product.ID)
		}
		unit := models.ToCents(product.Price)
		total += unit * int64(line.Quantity)

		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: unit,
		})
		itemData = append(itemData, models.OrderItemData{
			ProductID:      product.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: unit,
		})
	}

	order := &models.Order{
		Reference:        newReference("CMD"),
		CustomerName:     req.Name,
		CustomerEmail:    req.Email,
		CustomerPhone:    req.Phone,
		PickupLocationID: pickup.LabID,
		TotalCents:       total,
		Currency:         s.currency,
		Status:           models.OrderStatusPlaced,
		IdempotencyKey:   req.RunID,
	}

	if err := s.store.CreateOrder(ctx, order, items); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("reference", order.Reference),
		zap.Int64("total_cents", order.TotalCents))

	event := &models.OrderPlacedEvent{
		BaseEvent:        broker.NewBaseEvent(models.EventTypeOrderPlaced),
		OrderID:          order.ID,
		Reference:        order.Reference,
		CustomerName:     order.CustomerName,
		CustomerEmail:    order.CustomerEmail,
		PickupLocationID: order.PickupLocationID,
		TotalCents:       order.TotalCents,
		Items:            itemData,
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	result := orderResult(order)
	result[ResultPickup] = pickup.Name
	return result, nil
}

// ReleaseCart removes a checked out cart. A cart that already expired is not
// an error.
func (s *OrderService) ReleaseCart(ctx context.Context, cartID string) error {
	if cartID == "" {
		return nil
	}
	if err := s.carts.Delete(ctx, cartID); err != nil && !errors.Is(err, ErrCartNotFound) {
		return err
	}
	s.logger.Debug("Cart released after checkout", zap.String("cart_id", cartID))
	return nil
}

func orderResult(order *models.Order) workflow.Fields {
	return workflow.Fields{
		ResultReference: order.Reference,
		ResultOrderID:   strconv.FormatInt(order.ID, 10),
		ResultTotal:     strconv.FormatFloat(models.FromCents(order.TotalCents), 'f', 2, 64),
	}
}

// GetOrder retrieves an order and its items by public reference
func (s *OrderService) GetOrder(ctx context.Context, reference string) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrderByReference(ctx, reference)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return order, items, nil
}

// ErrInvalidTransition is returned when an order cannot move to the asked status
var ErrInvalidTransition = errors.New("invalid order status transition")

// orderTransitions lists where each status may go next. Collected and
// cancelled orders are final.
var orderTransitions = map[string][]string{
	models.OrderStatusPlaced: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:  {models.OrderStatusCollected, models.OrderStatusCancelled},
}

// UpdateStatus moves an order along its pickup lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, reference, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	order, err := s.store.GetOrderByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !slices.Contains(orderTransitions[from], status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("reference", reference),
		zap.String("from", from),
		zap.String("to", status))

	order.Status = status
	return order, nil
}
