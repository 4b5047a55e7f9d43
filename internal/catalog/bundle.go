package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"semisto-service/internal/models"
)

//go:embed data/sample-data.json
var sampleData []byte

// Bundle is the static catalog snapshot served when the remote API is
// disabled or unavailable. It is validated once, when loaded.
type Bundle struct {
	Labs            []models.Lab            `json:"labs" validate:"required,min=1,dive"`
	Courses         []models.Course         `json:"courses" validate:"required,min=1,dive"`
	Events          []models.Event          `json:"events" validate:"required,min=1,dive"`
	Projects        []models.Project        `json:"projects" validate:"required,min=1,dive"`
	Worksites       []models.Worksite       `json:"worksites" validate:"required,min=1,dive"`
	Products        []models.Product        `json:"products" validate:"required,min=1,dive"`
	Articles        []models.Article        `json:"articles" validate:"required,min=1,dive"`
	PressItems      []models.PressItem      `json:"pressItems" validate:"required,min=1,dive"`
	Resources       []models.Resource       `json:"resources" validate:"required,min=1,dive"`
	DesignProfiles  []models.DesignProfile  `json:"designProfiles" validate:"required,min=1,dive"`
	ImpactStats     models.ImpactStats      `json:"impactStats"`
	MapProjects     []models.MapProject     `json:"mapProjects" validate:"required,min=1,dive"`
	PotentialZones  []models.PotentialZone  `json:"potentialZones" validate:"required,min=1,dive"`
	PickupLocations []models.PickupLocation `json:"pickupLocations" validate:"required,min=1,dive"`
}

// LoadBundle decodes and validates a snapshot. Unknown fields are rejected so
// that a renamed key in the snapshot is caught instead of silently dropped.
func LoadBundle(data []byte) (*Bundle, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode catalog snapshot: %w", err)
	}

	if err := validate.Struct(&b); err != nil {
		return nil, fmt.Errorf("invalid catalog snapshot: %w", err)
	}

	return &b, nil
}

// DefaultBundle loads the snapshot compiled into the binary
func DefaultBundle() (*Bundle, error) {
	return LoadBundle(sampleData)
}
