package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"semisto-service/internal/models"
	"semisto-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Fallback reasons reported in metrics and logs
const (
	ReasonDisabled = "disabled"
	ReasonRequest  = "request"
	ReasonStatus   = "status"
	ReasonEmpty    = "empty"
	ReasonDecode   = "decode"
	ReasonInvalid  = "invalid"
)

// Resource binds a remote endpoint to its slice of the static snapshot
type Resource[T any] struct {
	Name     string
	Path     string
	fallback func(*Bundle) T
}

var (
	Labs            = Resource[[]models.Lab]{"labs", "/website/labs", func(b *Bundle) []models.Lab { return slices.Clone(b.Labs) }}
	Courses         = Resource[[]models.Course]{"courses", "/website/courses", func(b *Bundle) []models.Course { return slices.Clone(b.Courses) }}
	Events          = Resource[[]models.Event]{"events", "/website/events", func(b *Bundle) []models.Event { return slices.Clone(b.Events) }}
	Projects        = Resource[[]models.Project]{"projects", "/website/projects", func(b *Bundle) []models.Project { return slices.Clone(b.Projects) }}
	Worksites       = Resource[[]models.Worksite]{"worksites", "/website/worksites", func(b *Bundle) []models.Worksite { return slices.Clone(b.Worksites) }}
	Products        = Resource[[]models.Product]{"products", "/website/products", func(b *Bundle) []models.Product { return slices.Clone(b.Products) }}
	Articles        = Resource[[]models.Article]{"articles", "/website/articles", func(b *Bundle) []models.Article { return slices.Clone(b.Articles) }}
	PressItems      = Resource[[]models.PressItem]{"press", "/website/press", func(b *Bundle) []models.PressItem { return slices.Clone(b.PressItems) }}
	Resources       = Resource[[]models.Resource]{"resources", "/website/resources", func(b *Bundle) []models.Resource { return slices.Clone(b.Resources) }}
	DesignProfiles  = Resource[[]models.DesignProfile]{"design-profiles", "/website/design-profiles", func(b *Bundle) []models.DesignProfile { return slices.Clone(b.DesignProfiles) }}
	Impact          = Resource[models.ImpactStats]{"impact", "/website/impact", func(b *Bundle) models.ImpactStats { return b.ImpactStats }}
	MapProjects     = Resource[[]models.MapProject]{"map-projects", "/website/map/projects", func(b *Bundle) []models.MapProject { return slices.Clone(b.MapProjects) }}
	PotentialZones  = Resource[[]models.PotentialZone]{"map-zones", "/website/map/zones", func(b *Bundle) []models.PotentialZone { return slices.Clone(b.PotentialZones) }}
	PickupLocations = Resource[[]models.PickupLocation]{"pickup-locations", "/website/pickup-locations", func(b *Bundle) []models.PickupLocation { return slices.Clone(b.PickupLocations) }}
)

// Resolver reads catalog entities from the remote API and falls back to the
// static snapshot on any failure. Nothing is cached between calls.
type Resolver struct {
	client    *http.Client
	baseURL   string
	useRemote bool
	bundle    *Bundle
	logger    *zap.Logger
}

// NewResolver creates a new catalog resolver
func NewResolver(baseURL string, useRemote bool, timeout time.Duration, bundle *Bundle) *Resolver {
	return &Resolver{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		useRemote: useRemote,
		bundle:    bundle,
		logger:    util.Named("catalog"),
	}
}

type remoteError struct {
	reason string
	err    error
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.reason, e.err)
}

func (e *remoteError) Unwrap() error {
	return e.err
}

// Fetch resolves a resource. It never fails: every remote failure mode
// degrades to the snapshot value.
func Fetch[T any](ctx context.Context, r *Resolver, res Resource[T]) T {
	ctx, span := util.StartSpan(ctx, "catalog.Fetch", attribute.String("resource", res.Name))
	defer span.End()

	if !r.useRemote {
		util.CatalogFallbackTotal.WithLabelValues(res.Name, ReasonDisabled).Inc()
		return res.fallback(r.bundle)
	}

	value, err := fetchRemote[T](ctx, r, res.Name, res.Path)
	if err != nil {
		reason := ReasonRequest
		var re *remoteError
		if errors.As(err, &re) {
			reason = re.reason
		}

		util.CatalogFallbackTotal.WithLabelValues(res.Name, reason).Inc()
		r.logger.Warn("Remote catalog unavailable, serving snapshot",
			zap.String("resource", res.Name),
			zap.String("reason", reason),
			zap.Error(err))
		span.SetAttributes(attribute.String("fallback_reason", reason))

		return res.fallback(r.bundle)
	}

	return value
}

func fetchRemote[T any](ctx context.Context, r *Resolver, name, path string) (T, error) {
	var zero T

	start := time.Now()
	defer func() {
		util.CatalogFetchLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return zero, &remoteError{ReasonRequest, err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return zero, &remoteError{ReasonRequest, err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &remoteError{ReasonStatus, fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &remoteError{ReasonRequest, err}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return zero, &remoteError{ReasonEmpty, errors.New("empty response body")}
	}

	var value T
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return zero, &remoteError{ReasonDecode, err}
	}

	if err := validatePayload(value); err != nil {
		return zero, &remoteError{ReasonInvalid, err}
	}

	return value, nil
}

// LabScoped is implemented by entities carrying an optional lab foreign key
type LabScoped interface {
	LabRef() string
}

// ByLab narrows items to one lab. An empty lab id keeps everything.
func ByLab[T LabScoped](items []T, labID string) []T {
	if labID == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.LabRef() == labID {
			out = append(out, item)
		}
	}
	return out
}

func (r *Resolver) Labs(ctx context.Context) []models.Lab {
	return Fetch(ctx, r, Labs)
}

func (r *Resolver) LabBySlug(ctx context.Context, slug string) (models.Lab, bool) {
	for _, l := range r.Labs(ctx) {
		if l.Slug == slug {
			return l, true
		}
	}
	return models.Lab{}, false
}

func (r *Resolver) LabSlugs(ctx context.Context) []string {
	labs := r.Labs(ctx)
	slugs := make([]string, 0, len(labs))
	for _, l := range labs {
		slugs = append(slugs, l.Slug)
	}
	return slugs
}

func (r *Resolver) Courses(ctx context.Context, labID string) []models.Course {
	return ByLab(Fetch(ctx, r, Courses), labID)
}

func (r *Resolver) CourseBySlug(ctx context.Context, slug string) (models.Course, bool) {
	for _, c := range r.Courses(ctx, "") {
		if c.Slug == slug {
			return c, true
		}
	}
	return models.Course{}, false
}

// CourseByID matches on id or slug
func (r *Resolver) CourseByID(ctx context.Context, id string) (models.Course, bool) {
	for _, c := range r.Courses(ctx, "") {
		if c.ID == id || c.Slug == id {
			return c, true
		}
	}
	return models.Course{}, false
}

func (r *Resolver) Events(ctx context.Context, labID string) []models.Event {
	return ByLab(Fetch(ctx, r, Events), labID)
}

func (r *Resolver) EventByID(ctx context.Context, id string) (models.Event, bool) {
	for _, e := range r.Events(ctx, "") {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (r *Resolver) Projects(ctx context.Context, labID string) []models.Project {
	return ByLab(Fetch(ctx, r, Projects), labID)
}

func (r *Resolver) ProjectBySlug(ctx context.Context, slug string) (models.Project, bool) {
	for _, p := range r.Projects(ctx, "") {
		if p.Slug == slug {
			return p, true
		}
	}
	return models.Project{}, false
}

func (r *Resolver) Articles(ctx context.Context, labID string) []models.Article {
	return ByLab(Fetch(ctx, r, Articles), labID)
}

func (r *Resolver) ArticleBySlug(ctx context.Context, slug string) (models.Article, bool) {
	for _, a := range r.Articles(ctx, "") {
		if a.Slug == slug {
			return a, true
		}
	}
	return models.Article{}, false
}

// Products returns the shop catalog, narrowed to one country when given
func (r *Resolver) Products(ctx context.Context, country string) []models.Product {
	all := Fetch(ctx, r, Products)
	if country == "" {
		return all
	}
	out := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.AvailableIn(country) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Resolver) ProductByID(ctx context.Context, id string) (models.Product, bool) {
	for _, p := range r.Products(ctx, "") {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (r *Resolver) Worksites(ctx context.Context, labID string) []models.Worksite {
	return ByLab(Fetch(ctx, r, Worksites), labID)
}

func (r *Resolver) ImpactStats(ctx context.Context) models.ImpactStats {
	return Fetch(ctx, r, Impact)
}

func (r *Resolver) MapProjects(ctx context.Context) []models.MapProject {
	return Fetch(ctx, r, MapProjects)
}

func (r *Resolver) PotentialZones(ctx context.Context) []models.PotentialZone {
	return Fetch(ctx, r, PotentialZones)
}

func (r *Resolver) DesignProfiles(ctx context.Context, labID string) []models.DesignProfile {
	return ByLab(Fetch(ctx, r, DesignProfiles), labID)
}

func (r *Resolver) PressItems(ctx context.Context) []models.PressItem {
	return Fetch(ctx, r, PressItems)
}

func (r *Resolver) Resources(ctx context.Context) []models.Resource {
	return Fetch(ctx, r, Resources)
}

func (r *Resolver) PickupLocations(ctx context.Context) []models.PickupLocation {
	return Fetch(ctx, r, PickupLocations)
}

func (r *Resolver) PickupLocation(ctx context.Context, labID string) (models.PickupLocation, bool) {
	for _, p := range r.PickupLocations(ctx) {
		if p.LabID == labID {
			return p, true
		}
	}
	return models.PickupLocation{}, false
}
