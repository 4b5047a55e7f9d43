package models

import "time"

// Event types
const (
	EventTypeOrderPlaced           = "ORDER_PLACED"
	EventTypeDonationRecorded      = "DONATION_RECORDED"
	EventTypeFundingAllocated      = "FUNDING_ALLOCATED"
	EventTypeRegistrationConfirmed = "REGISTRATION_CONFIRMED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when checkout completes
type OrderPlacedEvent struct {
	BaseEvent
	OrderID          int64           `json:"order_id"`
	Reference        string          `json:"reference"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	PickupLocationID string          `json:"pickup_location_id"`
	TotalCents       int64           `json:"total_cents"`
	Items            []OrderItemData `json:"items"`
}

// DonationRecordedEvent published when a donation flow completes
type DonationRecordedEvent struct {
	BaseEvent
	DonationID  int64  `json:"donation_id"`
	Reference   string `json:"reference"`
	DonorName   string `json:"donor_name"`
	DonorEmail  string `json:"donor_email"`
	AmountCents int64  `json:"amount_cents"`
	Monthly     bool   `json:"monthly"`
	ProjectID   string `json:"project_id,omitempty"`
}

// FundingAllocatedEvent published when a partner allocates funding
type FundingAllocatedEvent struct {
	BaseEvent
	AllocationID int64  `json:"allocation_id"`
	ProposalID   string `json:"proposal_id"`
	PartnerID    string `json:"partner_id"`
	Amount       int64  `json:"amount"`
	RaisedAmount int64  `json:"raised_amount"`
	TargetAmount int64  `json:"target_amount"`
}

// RegistrationConfirmedEvent published when a seat booking completes
type RegistrationConfirmedEvent struct {
	BaseEvent
	RegistrationID int64  `json:"registration_id"`
	Reference      string `json:"reference"`
	TargetType     string `json:"target_type"`
	TargetID       string `json:"target_id"`
	Email          string `json:"email"`
	Seats          int    `json:"seats"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}
