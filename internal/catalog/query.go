package catalog

import (
	"sort"

	"semisto-service/internal/models"
)

const (
	ArticlesPerPage = 9
	MaxFeatured     = 2
	MaxRelated      = 4
	FilterAll       = "all"
)

// Page is one slice of a paginated listing
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// Paginate returns the 1-based page of items. Pages past the end are empty.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage < 1 {
		perPage = len(items)
		if perPage == 0 {
			perPage = 1
		}
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		Total:      total,
	}
}

// ArticleListing is the blog index: featured articles on top, the rest paginated
type ArticleListing struct {
	Category string               `json:"category"`
	Featured []models.Article     `json:"featured"`
	Regular  Page[models.Article] `json:"regular"`
	Total    int                  `json:"total"`
}

// ListArticles filters by category, lifts up to two featured articles out of
// the listing and paginates the remainder.
func ListArticles(articles []models.Article, category string, page int) ArticleListing {
	if category == "" {
		category = FilterAll
	}

	filtered := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if category == FilterAll || a.Category == category {
			filtered = append(filtered, a)
		}
	}

	featured := make([]models.Article, 0, MaxFeatured)
	regular := make([]models.Article, 0, len(filtered))
	for _, a := range filtered {
		if a.IsFeatured && len(featured) < MaxFeatured {
			featured = append(featured, a)
			continue
		}
		regular = append(regular, a)
	}

	return ArticleListing{
		Category: category,
		Featured: featured,
		Regular:  Paginate(regular, page, ArticlesPerPage),
		Total:    len(filtered),
	}
}

// FilterEvents keeps events of one type and orders them chronologically
func FilterEvents(events []models.Event, eventType string) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if eventType == "" || eventType == FilterAll || e.Type == eventType {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

func FilterResources(resources []models.Resource, resourceType string) []models.Resource {
	if resourceType == "" || resourceType == FilterAll {
		return resources
	}
	out := make([]models.Resource, 0, len(resources))
	for _, r := range resources {
		if r.Type == resourceType {
			out = append(out, r)
		}
	}
	return out
}

// RelatedProducts lists other products of the same category
func RelatedProducts(products []models.Product, product models.Product) []models.Product {
	out := make([]models.Product, 0, MaxRelated)
	for _, p := range products {
		if len(out) == MaxRelated {
			break
		}
		if p.ID != product.ID && p.Category == product.Category {
			out = append(out, p)
		}
	}
	return out
}
