package portal

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"semisto-service/internal/models"
)

//go:embed data/partner-portal-data.json
var partnerData []byte

var validate = validator.New()

// Data is the partner portal snapshot
type Data struct {
	Partner          models.Partner           `json:"partner"`
	Packages         []models.Package         `json:"packages" validate:"required,min=1,dive"`
	Engagements      []models.Engagement      `json:"engagements" validate:"dive"`
	FundingProposals []models.FundingProposal `json:"fundingProposals" validate:"required,min=1,dive"`
	Fundings         []models.Funding         `json:"fundings" validate:"dive"`
	ImpactMetrics    models.ImpactMetrics     `json:"impactMetrics"`
}

// Load decodes and validates a partner snapshot
func Load(raw []byte) (*Data, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var d Data
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode partner data: %w", err)
	}
	if err := validate.Struct(&d); err != nil {
		return nil, fmt.Errorf("invalid partner data: %w", err)
	}
	return &d, nil
}

// Repository serves read access to one partner's portal data
type Repository struct {
	data *Data
}

func NewRepository(data *Data) *Repository {
	return &Repository{data: data}
}

// DefaultRepository uses the snapshot compiled into the binary
func DefaultRepository() (*Repository, error) {
	d, err := Load(partnerData)
	if err != nil {
		return nil, err
	}
	return NewRepository(d), nil
}

func (r *Repository) Partner() models.Partner {
	return r.data.Partner
}

func (r *Repository) Packages() []models.Package {
	return slices.Clone(r.data.Packages)
}

func (r *Repository) PackageByID(id string) (models.Package, bool) {
	for _, p := range r.data.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return models.Package{}, false
}

func (r *Repository) Engagements() []models.Engagement {
	return slices.Clone(r.data.Engagements)
}

func (r *Repository) EngagementByID(id string) (models.Engagement, bool) {
	for _, e := range r.data.Engagements {
		if e.ID == id {
			return e, true
		}
	}
	return models.Engagement{}, false
}

func (r *Repository) FundingProposals() []models.FundingProposal {
	return slices.Clone(r.data.FundingProposals)
}

func (r *Repository) FundingProposalByID(id string) (models.FundingProposal, bool) {
	for _, p := range r.data.FundingProposals {
		if p.ID == id {
			return p, true
		}
	}
	return models.FundingProposal{}, false
}

func (r *Repository) Fundings() []models.Funding {
	return slices.Clone(r.data.Fundings)
}

func (r *Repository) ImpactMetrics() models.ImpactMetrics {
	m := r.data.ImpactMetrics
	m.History = slices.Clone(m.History)
	return m
}
