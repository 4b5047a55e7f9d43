package models

// Lab is a regional chapter that scopes courses, events, projects and worksites
type Lab struct {
	ID      string   `json:"id" validate:"required"`
	Slug    string   `json:"slug" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	Country string   `json:"country" validate:"required"`
	Region  string   `json:"region"`
	Poles   []PoleID `json:"poles,omitempty" validate:"dive,oneof=design-studio academy nursery roots"`
	Email   string   `json:"email,omitempty" validate:"omitempty,email"`
}

// PoleID names a service line offered by a lab
type PoleID string

const (
	PoleDesignStudio PoleID = "design-studio"
	PoleAcademy      PoleID = "academy"
	PoleNursery      PoleID = "nursery"
	PoleRoots        PoleID = "roots"
)

// Product is a nursery item sold in the shop
type Product struct {
	ID          string            `json:"id" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	Type        string            `json:"type"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory,omitempty"`
	Description string            `json:"description"`
	Price       float64           `json:"price" validate:"gte=0"`
	Stock       int               `json:"stock" validate:"gte=0"`
	Image       string            `json:"image,omitempty"`
	Countries   []string          `json:"countries"`
	Specs       map[string]string `json:"specs,omitempty"`
}

// InStock reports whether at least one unit can be ordered
func (p Product) InStock() bool {
	return p.Stock > 0
}

// AvailableIn reports whether the product ships to the given country
func (p Product) AvailableIn(country string) bool {
	for _, c := range p.Countries {
		if c == country {
			return true
		}
	}
	return false
}

type Course struct {
	ID               string   `json:"id" validate:"required"`
	Slug             string   `json:"slug" validate:"required"`
	LabID            string   `json:"labId" validate:"required"`
	Title            string   `json:"title" validate:"required"`
	Category         string   `json:"category"`
	Level            string   `json:"level"`
	Format           string   `json:"format"`
	ShortDescription string   `json:"shortDescription"`
	Description      string   `json:"description"`
	Duration         string   `json:"duration"`
	Location         string   `json:"location"`
	NextSession      string   `json:"nextSession"`
	Price            float64  `json:"price" validate:"gte=0"`
	SpotsTotal       int      `json:"spotsTotal" validate:"gte=0"`
	SpotsAvailable   int      `json:"spotsAvailable" validate:"gte=0,ltefield=SpotsTotal"`
	Instructors      []string `json:"instructors"`
	Image            string   `json:"image,omitempty"`
}

func (c Course) LabRef() string { return c.LabID }

type Event struct {
	ID             string   `json:"id" validate:"required"`
	LabID          string   `json:"labId" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string   `json:"time"`
	Duration       string   `json:"duration"`
	Location       string   `json:"location"`
	Address        string   `json:"address"`
	Price          float64  `json:"price" validate:"gte=0"`
	SpotsTotal     int      `json:"spotsTotal" validate:"gte=0"`
	SpotsAvailable int      `json:"spotsAvailable" validate:"gte=0,ltefield=SpotsTotal"`
	Speakers       []string `json:"speakers,omitempty"`
	Image          string   `json:"image,omitempty"`
}

func (e Event) LabRef() string { return e.LabID }

type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type Testimonial struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

type Project struct {
	ID            string       `json:"id" validate:"required"`
	Slug          string       `json:"slug" validate:"required"`
	LabID         string       `json:"labId" validate:"required"`
	Title         string       `json:"title" validate:"required"`
	Description   string       `json:"description"`
	Location      string       `json:"location"`
	Coordinates   Coordinates  `json:"coordinates"`
	ClientType    string       `json:"clientType"`
	Status        string       `json:"status"`
	Surface       float64      `json:"surface" validate:"gte=0"`
	TreesPlanted  int          `json:"treesPlanted" validate:"gte=0"`
	FundingGoal   float64      `json:"fundingGoal" validate:"gte=0"`
	FundingRaised float64      `json:"fundingRaised" validate:"gte=0"`
	FundingStatus string       `json:"fundingStatus,omitempty"`
	Images        []string     `json:"images,omitempty"`
	Testimonial   *Testimonial `json:"testimonial,omitempty"`
}

func (p Project) LabRef() string { return p.LabID }

type Article struct {
	ID          string   `json:"id" validate:"required"`
	Slug        string   `json:"slug" validate:"required"`
	LabID       string   `json:"labId,omitempty"`
	Title       string   `json:"title" validate:"required"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	Category    string   `json:"category"`
	Author      string   `json:"author"`
	PublishedAt string   `json:"publishedAt" validate:"omitempty,datetime=2006-01-02"`
	IsFeatured  bool     `json:"isFeatured"`
	Tags        []string `json:"tags,omitempty"`
	Image       string   `json:"image,omitempty"`
}

func (a Article) LabRef() string { return a.LabID }

type Worksite struct {
	ID          string `json:"id" validate:"required"`
	LabID       string `json:"labId" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Volunteers  int    `json:"volunteers" validate:"gte=0"`
}

func (w Worksite) LabRef() string { return w.LabID }

type PressItem struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Source  string `json:"source"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Excerpt string `json:"excerpt"`
	URL     string `json:"url" validate:"omitempty,url"`
	Image   string `json:"image,omitempty"`
}

type Resource struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	IsFree      bool   `json:"isFree"`
}

type DesignProfile struct {
	ID          string   `json:"id" validate:"required"`
	LabID       string   `json:"labId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Role        string   `json:"role"`
	Bio         string   `json:"bio"`
	Specialties []string `json:"specialties,omitempty"`
}

func (d DesignProfile) LabRef() string { return d.LabID }

type ImpactStats struct {
	TreesPlanted    int     `json:"treesPlanted" validate:"gte=0"`
	Hectares        float64 `json:"hectares" validate:"gte=0"`
	Projects        int     `json:"projects" validate:"gte=0"`
	Volunteers      int     `json:"volunteers" validate:"gte=0"`
	PeopleTrained   int     `json:"peopleTrained" validate:"gte=0"`
	Labs            int     `json:"labs" validate:"gte=0"`
	SpeciesPlanted  int     `json:"speciesPlanted" validate:"gte=0"`
	CO2OffsetTonnes float64 `json:"co2OffsetTonnes" validate:"gte=0"`
}

type MapProject struct {
	ID          string      `json:"id" validate:"required"`
	LabID       string      `json:"labId" validate:"required"`
	Title       string      `json:"title" validate:"required"`
	Coordinates Coordinates `json:"coordinates"`
	Status      string      `json:"status"`
	Surface     float64     `json:"surface" validate:"gte=0"`
}

func (m MapProject) LabRef() string { return m.LabID }

type PotentialZone struct {
	ID          string      `json:"id" validate:"required"`
	Name        string      `json:"name" validate:"required"`
	Coordinates Coordinates `json:"coordinates"`
	Hectares    float64     `json:"hectares" validate:"gte=0"`
	Potential   string      `json:"potential"`
}

// PickupLocation is a lab where shop orders can be collected
type PickupLocation struct {
	LabID   string `json:"labId" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

func (p PickupLocation) LabRef() string { return p.LabID }
