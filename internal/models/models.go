package models

import "time"

// Order represents a shop order placed through checkout
type Order struct {
	ID               int64     `db:"id" json:"id"`
	Reference        string    `db:"reference" json:"reference"`
	CustomerName     string    `db:"customer_name" json:"customer_name"`
	CustomerEmail    string    `db:"customer_email" json:"customer_email"`
	CustomerPhone    string    `db:"customer_phone" json:"customer_phone"`
	PickupLocationID string    `db:"pickup_location_id" json:"pickup_location_id"`
	TotalCents       int64     `db:"total_cents" json:"total_cents"`
	Currency         string    `db:"currency" json:"currency"`
	Status           string    `db:"status" json:"status"`
	IdempotencyKey   string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem represents a product line of an order
type OrderItem struct {
	ID             int64  `db:"id" json:"id"`
	OrderID        int64  `db:"order_id" json:"order_id"`
	ProductID      string `db:"product_id" json:"product_id"`
	ProductName    string `db:"product_name" json:"product_name"`
	Quantity       int    `db:"quantity" json:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unit_price_cents"`
}

// Donation represents a once-off or monthly gift
type Donation struct {
	ID             int64     `db:"id" json:"id"`
	Reference      string    `db:"reference" json:"reference"`
	ProjectID      string    `db:"project_id" json:"project_id,omitempty"`
	DonorName      string    `db:"donor_name" json:"donor_name"`
	DonorEmail     string    `db:"donor_email" json:"donor_email"`
	Message        string    `db:"message" json:"message,omitempty"`
	AmountCents    int64     `db:"amount_cents" json:"amount_cents"`
	Monthly        bool      `db:"monthly" json:"monthly"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Registration represents a seat booking for an event or a course
type Registration struct {
	ID             int64     `db:"id" json:"id"`
	Reference      string    `db:"reference" json:"reference"`
	TargetType     string    `db:"target_type" json:"target_type"`
	TargetID       string    `db:"target_id" json:"target_id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Seats          int       `db:"seats" json:"seats"`
	TotalCents     int64     `db:"total_cents" json:"total_cents"`
	PaymentMethod  string    `db:"payment_method" json:"payment_method,omitempty"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FundingProgress is the persisted raised amount of a funding proposal
type FundingProgress struct {
	ProposalID   string    `db:"proposal_id" json:"proposal_id"`
	TargetAmount int64     `db:"target_amount" json:"target_amount"`
	RaisedAmount int64     `db:"raised_amount" json:"raised_amount"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FundingAllocation is one partner contribution to a proposal
type FundingAllocation struct {
	ID              int64     `db:"id" json:"id"`
	Reference       string    `db:"reference" json:"reference"`
	ProposalID      string    `db:"proposal_id" json:"proposal_id"`
	PartnerID       string    `db:"partner_id" json:"partner_id"`
	RequestedAmount int64     `db:"requested_amount" json:"requested_amount"`
	Amount          int64     `db:"amount" json:"amount"`
	Status          string    `db:"status" json:"status"`
	IdempotencyKey  string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Order statuses
const (
	OrderStatusPlaced    = "PLACED"
	OrderStatusReady     = "READY_FOR_PICKUP"
	OrderStatusCollected = "COLLECTED"
	OrderStatusCancelled = "CANCELLED"
)

// Registration targets
const (
	RegistrationTargetEvent  = "event"
	RegistrationTargetCourse = "course"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// ToCents converts a euro amount to integer cents, rounding half away from zero
func ToCents(amount float64) int64 {
	if amount < 0 {
		return -int64(-amount*100 + 0.5)
	}
	return int64(amount*100 + 0.5)
}

// FromCents converts integer cents back to euros
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
