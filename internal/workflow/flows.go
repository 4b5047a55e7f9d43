package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"semisto-service/internal/models"
)

// Workflow kinds
const (
	KindCheckout     = "checkout"
	KindDonation     = "donation"
	KindFunding      = "funding"
	KindRegistration = "registration"
)

// Field names used by the concrete flows
const (
	FieldCartID           = "cart_id"
	FieldItemCount        = "item_count"
	FieldSubtotal         = "subtotal"
	FieldName             = "name"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldMessage          = "message"
	FieldPickupLocationID = "pickup_location_id"
	FieldProjectID        = "project_id"
	FieldProposalID       = "proposal_id"
	FieldPartnerID        = "partner_id"
	FieldProposalStatus   = "proposal_status"
	FieldRemaining        = "remaining"
	FieldTargetType       = "target_type"
	FieldTargetID         = "target_id"
	FieldSeats            = "seats"
	FieldUnitPrice        = "unit_price"
	FieldSpotsAvailable   = "spots_available"
	FieldPaymentMethod    = "payment_method"
	FieldImpact           = "impact"
)

const (
	FrequencyOnce    = "once"
	FrequencyMonthly = "monthly"

	PaymentTransfer = "transfer"
	PaymentOnSite   = "on_site"
)

// amountFields are only written by the amount actions
var amountFields = []string{FieldAmountMode, FieldPreset, FieldCustomAmount, FieldFrequency}

var (
	DonationPresets = []float64{10, 25, 50, 100, 250}
	FundingPresets  = []float64{1000, 2500, 5000, 10000}
)

// CheckoutRequest carries what a completed checkout run collected
type CheckoutRequest struct {
	RunID            string
	CartID           string
	Name             string
	Email            string
	Phone            string
	PickupLocationID string
}

// CartSummary is the part of a cart the checkout guards need
type CartSummary struct {
	ItemCount int
	Subtotal  float64
}

type CheckoutBackend interface {
	CartSummary(ctx context.Context, cartID string) (CartSummary, error)
	PlaceOrder(ctx context.Context, req CheckoutRequest) (Fields, error)
	ReleaseCart(ctx context.Context, cartID string) error
}

// NewCheckoutFlow builds cart -> info -> pickup -> confirm. The cart is
// released only after the completed run is saved, so a commit retried after
// a failed save still finds it.
func NewCheckoutFlow(backend CheckoutBackend) *Definition {
	return &Definition{
		Kind:      KindCheckout,
		Protected: []string{FieldItemCount, FieldSubtotal},
		Steps: []Step{
			{Name: "cart", Guard: All(Required(FieldCartID), nonEmptyCart)},
			{Name: "info", Guard: All(Required(FieldName, FieldEmail, FieldPhone), Email(FieldEmail))},
			{Name: "pickup", Guard: Required(FieldPickupLocationID)},
			{Name: "confirm"},
		},
		Prepare: func(ctx context.Context, f Fields) error {
			if f[FieldCartID] == "" {
				return nil
			}
			summary, err := backend.CartSummary(ctx, f[FieldCartID])
			if err != nil {
				return err
			}
			f[FieldItemCount] = strconv.Itoa(summary.ItemCount)
			f[FieldSubtotal] = strconv.FormatFloat(summary.Subtotal, 'f', 2, 64)
			return nil
		},
		Commit: func(ctx context.Context, run *Run) (Fields, error) {
			return backend.PlaceOrder(ctx, CheckoutRequest{
				RunID:            run.ID,
				CartID:           run.Fields[FieldCartID],
				Name:             strings.TrimSpace(run.Fields[FieldName]),
				Email:            strings.TrimSpace(run.Fields[FieldEmail]),
				Phone:            strings.TrimSpace(run.Fields[FieldPhone]),
				PickupLocationID: run.Fields[FieldPickupLocationID],
			})
		},
		Settle: func(ctx context.Context, run *Run) error {
			return backend.ReleaseCart(ctx, run.Fields[FieldCartID])
		},
	}
}

func nonEmptyCart(f Fields) Problems {
	if n, _ := strconv.Atoi(f[FieldItemCount]); n < 1 {
		return Problems{"cart": "is empty"}
	}
	return nil
}

// DonationRequest carries what a completed donation run collected
type DonationRequest struct {
	RunID     string
	Amount    float64
	Monthly   bool
	Name      string
	Email     string
	Message   string
	ProjectID string
}

// DonateFunc records a donation
type DonateFunc func(ctx context.Context, req DonationRequest) (Fields, error)

type impactTier struct {
	threshold float64
	text      string
}

var impactTiers = []impactTier{
	{10, "1 arbuste à petits fruits planté"},
	{25, "5 arbres fruitiers en pépinière"},
	{50, "10m² de jardin-forêt créé"},
	{100, "1 journée de formation offerte"},
	{250, "50m² de forêt comestible plantée"},
}

// ImpactMessage describes what an amount pays for: the highest tier not
// above it, or "" below the first tier.
func ImpactMessage(amount float64) string {
	text := ""
	for _, t := range impactTiers {
		if t.threshold <= amount {
			text = t.text
		}
	}
	return text
}

// NewDonationFlow builds amount -> info -> thanks. A run starts on the 50
// preset, once-off.
func NewDonationFlow(onDonate DonateFunc) *Definition {
	def := &Definition{
		Kind: KindDonation,
		Defaults: Fields{
			FieldAmountMode: AmountModePreset,
			FieldPreset:     "50",
			FieldFrequency:  FrequencyOnce,
		},
		Presets:     DonationPresets,
		Coerce:      ParseFloatPrefix,
		Frequencies: []string{FrequencyOnce, FrequencyMonthly},
		Protected:   amountFields,
	}

	def.Steps = []Step{
		{Name: "amount", Guard: PositiveAmount(def)},
		{Name: "info", Guard: All(Required(FieldName, FieldEmail), Email(FieldEmail))},
		{Name: "thanks"},
	}

	def.Commit = func(ctx context.Context, run *Run) (Fields, error) {
		amount := Amount(def, run.Fields)
		result, err := onDonate(ctx, DonationRequest{
			RunID:     run.ID,
			Amount:    amount,
			Monthly:   run.Fields[FieldFrequency] == FrequencyMonthly,
			Name:      strings.TrimSpace(run.Fields[FieldName]),
			Email:     strings.TrimSpace(run.Fields[FieldEmail]),
			Message:   run.Fields[FieldMessage],
			ProjectID: run.Fields[FieldProjectID],
		})
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = Fields{}
		}
		result[FieldAmount] = strconv.FormatFloat(amount, 'f', -1, 64)
		if impact := ImpactMessage(amount); impact != "" {
			result[FieldImpact] = impact
		}
		return result, nil
	}

	return def
}

// FundingRequest carries a partner allocation toward a proposal
type FundingRequest struct {
	RunID      string
	ProposalID string
	PartnerID  string
	Amount     int64
}

// ProposalSummary is the funding state the funding guards need
type ProposalSummary struct {
	Status       string
	TargetAmount int64
	RaisedAmount int64
}

func (p ProposalSummary) Remaining() int64 {
	if p.RaisedAmount >= p.TargetAmount {
		return 0
	}
	return p.TargetAmount - p.RaisedAmount
}

type FundingBackend interface {
	ProposalSummary(ctx context.Context, proposalID string) (ProposalSummary, error)
	Allocate(ctx context.Context, req FundingRequest) (Fields, error)
}

// NewFundingFlow builds info -> amount -> confirm -> success
func NewFundingFlow(backend FundingBackend) *Definition {
	def := &Definition{
		Kind:      KindFunding,
		Presets:   FundingPresets,
		Coerce:    ParseIntPrefix,
		Protected: append([]string{FieldPartnerID, FieldProposalStatus, FieldRemaining}, amountFields...),
	}

	def.Steps = []Step{
		{Name: "info", Guard: All(Required(FieldProposalID), openProposal)},
		{Name: "amount", Guard: PositiveAmount(def)},
		{Name: "confirm"},
		{Name: "success"},
	}

	def.Prepare = func(ctx context.Context, f Fields) error {
		if f[FieldProposalID] == "" {
			return nil
		}
		summary, err := backend.ProposalSummary(ctx, f[FieldProposalID])
		if err != nil {
			return err
		}
		f[FieldProposalStatus] = summary.Status
		f[FieldRemaining] = strconv.FormatInt(summary.Remaining(), 10)
		return nil
	}

	def.Commit = func(ctx context.Context, run *Run) (Fields, error) {
		return backend.Allocate(ctx, FundingRequest{
			RunID:      run.ID,
			ProposalID: run.Fields[FieldProposalID],
			PartnerID:  run.Fields[FieldPartnerID],
			Amount:     int64(Amount(def, run.Fields)),
		})
	}

	return def
}

func openProposal(f Fields) Problems {
	if f[FieldProposalID] == "" {
		return nil
	}
	switch {
	case f[FieldProposalStatus] == models.ProposalStatusClosed:
		return Problems{FieldProposalID: "is closed"}
	case f[FieldProposalStatus] == models.ProposalStatusFunded || f[FieldRemaining] == "0":
		return Problems{FieldProposalID: "is already fully funded"}
	}
	return nil
}

// RegistrationTarget is the bookable event or course behind a registration
type RegistrationTarget struct {
	Title          string
	UnitPrice      float64
	SpotsAvailable int
}

// RegistrationRequest carries what a completed registration run collected
type RegistrationRequest struct {
	RunID         string
	TargetType    string
	TargetID      string
	Seats         int
	UnitPrice     float64
	Name          string
	Email         string
	PaymentMethod string
}

type RegistrationBackend interface {
	RegistrationTarget(ctx context.Context, targetType, targetID string) (RegistrationTarget, error)
	Register(ctx context.Context, req RegistrationRequest) (Fields, error)
}

// NewRegistrationFlow builds seats -> info -> payment -> confirm. The payment
// step disappears for free events and courses.
func NewRegistrationFlow(backend RegistrationBackend) *Definition {
	return &Definition{
		Kind:      KindRegistration,
		Defaults:  Fields{FieldSeats: "1"},
		Protected: []string{FieldUnitPrice, FieldSpotsAvailable},
		Steps: []Step{
			{Name: "seats", Guard: All(Required(FieldTargetType, FieldTargetID), seatsAvailable)},
			{Name: "info", Guard: All(Required(FieldName, FieldEmail), Email(FieldEmail))},
			{Name: "payment", Guard: paymentChosen, Skip: isFree},
			{Name: "confirm"},
		},
		Prepare: func(ctx context.Context, f Fields) error {
			if f[FieldTargetType] == "" || f[FieldTargetID] == "" {
				return nil
			}
			target, err := backend.RegistrationTarget(ctx, f[FieldTargetType], f[FieldTargetID])
			if err != nil {
				return err
			}
			f[FieldUnitPrice] = strconv.FormatFloat(target.UnitPrice, 'f', 2, 64)
			f[FieldSpotsAvailable] = strconv.Itoa(target.SpotsAvailable)
			if isFree(f) {
				delete(f, FieldPaymentMethod)
			}
			return nil
		},
		Commit: func(ctx context.Context, run *Run) (Fields, error) {
			seats, _ := strconv.Atoi(run.Fields[FieldSeats])
			price, _ := strconv.ParseFloat(run.Fields[FieldUnitPrice], 64)
			return backend.Register(ctx, RegistrationRequest{
				RunID:         run.ID,
				TargetType:    run.Fields[FieldTargetType],
				TargetID:      run.Fields[FieldTargetID],
				Seats:         seats,
				UnitPrice:     price,
				Name:          strings.TrimSpace(run.Fields[FieldName]),
				Email:         strings.TrimSpace(run.Fields[FieldEmail]),
				PaymentMethod: run.Fields[FieldPaymentMethod],
			})
		},
	}
}

func isFree(f Fields) bool {
	price, err := strconv.ParseFloat(f[FieldUnitPrice], 64)
	return err == nil && price == 0
}

func seatsAvailable(f Fields) Problems {
	seats, err := strconv.Atoi(strings.TrimSpace(f[FieldSeats]))
	if err != nil || seats < 1 {
		return Problems{FieldSeats: "must be at least 1"}
	}
	if spots, err := strconv.Atoi(f[FieldSpotsAvailable]); err == nil && seats > spots {
		if spots == 0 {
			return Problems{FieldSeats: "no spots left"}
		}
		return Problems{FieldSeats: fmt.Sprintf("only %d spots left", spots)}
	}
	return nil
}

func paymentChosen(f Fields) Problems {
	switch f[FieldPaymentMethod] {
	case PaymentTransfer, PaymentOnSite:
		return nil
	case "":
		return Problems{FieldPaymentMethod: "is required"}
	default:
		return Problems{FieldPaymentMethod: "must be transfer or on_site"}
	}
}

// Definitions is a convenience for wiring every flow into one engine
func Definitions(checkout CheckoutBackend, donate DonateFunc, funding FundingBackend, registration RegistrationBackend) []*Definition {
	return []*Definition{
		NewCheckoutFlow(checkout),
		NewDonationFlow(donate),
		NewFundingFlow(funding),
		NewRegistrationFlow(registration),
	}
}
