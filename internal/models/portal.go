package models

type Partner struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Type         string `json:"type" validate:"oneof=enterprise institution municipality"`
	Logo         string `json:"logo"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactRole  string `json:"contactRole"`
	JoinedDate   string `json:"joinedDate" validate:"omitempty,datetime=2006-01-02"`
	Description  string `json:"description"`
}

// Package is a predefined partner-engagement offering
type Package struct {
	ID          string   `json:"id" validate:"required"`
	Type        string   `json:"type" validate:"oneof=citizen-project team-building sponsorship recurring-patronage training ambassador"`
	Title       string   `json:"title" validate:"required"`
	ShortTitle  string   `json:"shortTitle"`
	Description string   `json:"description"`
	Includes    []string `json:"includes"`
	PriceRange  string   `json:"priceRange"`
	Duration    string   `json:"duration"`
	ImageURL    string   `json:"imageUrl"`
	Highlighted bool     `json:"highlighted"`
}

type EngagementEvent struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Type        string `json:"type" validate:"oneof=milestone workshop planting team-building reporting"`
	Status      string `json:"status" validate:"oneof=completed upcoming"`
	Description string `json:"description"`
}

type EngagementDocument struct {
	ID       string `json:"id" validate:"required"`
	Title    string `json:"title"`
	Type     string `json:"type" validate:"oneof=report design certificate"`
	Date     string `json:"date"`
	URL      string `json:"url"`
	FileSize string `json:"fileSize"`
}

type EngagementMedia struct {
	ID           string `json:"id" validate:"required"`
	Type         string `json:"type" validate:"oneof=photo video"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     string `json:"duration,omitempty"`
}

type NextEngagementEvent struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// Engagement is a partner's instance of a package
type Engagement struct {
	ID          string               `json:"id" validate:"required"`
	PackageID   string               `json:"packageId" validate:"required"`
	PackageType string               `json:"packageType"`
	Title       string               `json:"title" validate:"required"`
	Status      string               `json:"status" validate:"oneof=active completed pending"`
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate"`
	LabName     string               `json:"labName"`
	LabContact  string               `json:"labContact"`
	TotalBudget float64              `json:"totalBudget" validate:"gte=0"`
	Location    *string              `json:"location"`
	Progress    int                  `json:"progress" validate:"gte=0,lte=100"`
	NextEvent   *NextEngagementEvent `json:"nextEvent"`
	Events      []EngagementEvent    `json:"events" validate:"dive"`
	Documents   []EngagementDocument `json:"documents" validate:"dive"`
	Media       []EngagementMedia    `json:"media" validate:"dive"`
}

// FundingProposal is a fundraising target open for partner contributions
type FundingProposal struct {
	ID                string   `json:"id" validate:"required"`
	Title             string   `json:"title" validate:"required"`
	LabName           string   `json:"labName"`
	Description       string   `json:"description"`
	TargetAmount      int64    `json:"targetAmount" validate:"gt=0"`
	RaisedAmount      int64    `json:"raisedAmount" validate:"gte=0,ltefield=TargetAmount"`
	RaisedPercent     int      `json:"raisedPercent" validate:"gte=0,lte=100"`
	ContributorsCount int      `json:"contributorsCount" validate:"gte=0"`
	Status            string   `json:"status" validate:"oneof=new open funded closed"`
	Deadline          string   `json:"deadline"`
	Location          string   `json:"location"`
	Hectares          float64  `json:"hectares" validate:"gte=0"`
	TreesPlanned      int      `json:"treesPlanned" validate:"gte=0"`
	ImageURL          string   `json:"imageUrl"`
	Tags              []string `json:"tags"`
}

// Funding statuses
const (
	FundingStatusAllocated = "allocated"
	FundingStatusSpent     = "spent"
	FundingStatusPending   = "pending"
)

// Proposal statuses
const (
	ProposalStatusNew    = "new"
	ProposalStatusOpen   = "open"
	ProposalStatusFunded = "funded"
	ProposalStatusClosed = "closed"
)

type Funding struct {
	ID            string `json:"id" validate:"required"`
	ProposalID    string `json:"proposalId" validate:"required"`
	ProposalTitle string `json:"proposalTitle"`
	Amount        int64  `json:"amount" validate:"gt=0"`
	Date          string `json:"date"`
	Status        string `json:"status" validate:"oneof=allocated spent pending"`
	LabName       string `json:"labName"`
}

type ImpactMonthly struct {
	Month    string  `json:"month" validate:"required"`
	Invested float64 `json:"invested" validate:"gte=0"`
	Trees    int     `json:"trees" validate:"gte=0"`
	Hectares float64 `json:"hectares" validate:"gte=0"`
}

type ImpactMetrics struct {
	TotalInvested         float64         `json:"totalInvested" validate:"gte=0"`
	HectaresContributed   float64         `json:"hectaresContributed" validate:"gte=0"`
	TreesPlanted          int             `json:"treesPlanted" validate:"gte=0"`
	TreesPlanned          int             `json:"treesPlanned" validate:"gte=0"`
	ParticipantsMobilized int             `json:"participantsMobilized" validate:"gte=0"`
	EventsSponsored       int             `json:"eventsSponsored" validate:"gte=0"`
	CO2OffsetTons         float64         `json:"co2OffsetTons" validate:"gte=0"`
	ProjectsSupported     int             `json:"projectsSupported" validate:"gte=0"`
	LabsReached           int             `json:"labsReached" validate:"gte=0"`
	History               []ImpactMonthly `json:"history" validate:"dive"`
}

// AuthUser is the identity behind a portal session
type AuthUser struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	PartnerID string `json:"partnerId"`
}
