package service

import (
	"context"
	"errors"
	"time"

	"semisto-service/internal/cart"
	"semisto-service/internal/models"
	"semisto-service/internal/workflow"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrUnknownPickup    = errors.New("unknown pickup location")
	ErrProposalNotFound = errors.New("funding proposal not found")
	ErrTargetNotFound   = errors.New("event or course not found")
	ErrRunNotFound      = errors.New("workflow run not found")
	ErrRunBusy          = errors.New("workflow run is being updated")
	ErrRunForbidden     = errors.New("workflow run belongs to another audience")
	ErrNoSeats          = errors.New("not enough seats left")
)

// CartRepository persists carts; implemented by redisclient.Client
type CartRepository interface {
	GetCart(ctx context.Context, id string, ttl time.Duration) (*cart.Cart, error)
	SaveCart(ctx context.Context, c *cart.Cart, ttl time.Duration) error
	DeleteCart(ctx context.Context, id string) error
}

// RunRepository persists workflow runs; implemented by redisclient.Client
type RunRepository interface {
	GetRun(ctx context.Context, id string) (*workflow.Run, error)
	SaveRun(ctx context.Context, run *workflow.Run, ttl time.Duration) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
}

// Catalog is the read side used by the services; implemented by catalog.Resolver
type Catalog interface {
	Products(ctx context.Context, country string) []models.Product
	ProductByID(ctx context.Context, id string) (models.Product, bool)
	PickupLocation(ctx context.Context, labID string) (models.PickupLocation, bool)
	EventByID(ctx context.Context, id string) (models.Event, bool)
	CourseByID(ctx context.Context, id string) (models.Course, bool)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

type DonationStore interface {
	CreateDonation(ctx context.Context, d *models.Donation) error
	GetDonationByIdempotencyKey(ctx context.Context, key string) (*models.Donation, error)
}

type RegistrationStore interface {
	CreateRegistration(ctx context.Context, r *models.Registration, capacity int) error
	GetRegistrationByIdempotencyKey(ctx context.Context, key string) (*models.Registration, error)
	CountSeats(ctx context.Context, targetType, targetID string) (int, error)
}

type FundingStore interface {
	AllocateFundingTx(ctx context.Context, proposal models.FundingProposal, alloc *models.FundingAllocation) (*models.FundingProgress, error)
	GetFundingProgress(ctx context.Context, proposalID string) (*models.FundingProgress, error)
	ListFundingProgress(ctx context.Context) (map[string]models.FundingProgress, error)
	GetAllocationByIdempotencyKey(ctx context.Context, key string) (*models.FundingAllocation, error)
	ListAllocationsByPartner(ctx context.Context, partnerID string) ([]models.FundingAllocation, error)
}

type ProcessedEventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// EventPublisher is implemented by broker.EventPublisher
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishDonationRecorded(ctx context.Context, event *models.DonationRecordedEvent) error
	PublishFundingAllocated(ctx context.Context, event *models.FundingAllocatedEvent) error
	PublishRegistrationConfirmed(ctx context.Context, event *models.RegistrationConfirmedEvent) error
}
