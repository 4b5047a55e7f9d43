package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"semisto-service/internal/catalog"
)

// listCatalog serves one resource, narrowed by the lab, country, type and
// category query parameters where they apply
func (h *Handler) listCatalog(c *gin.Context) {
	ctx := c.Request.Context()
	lab := c.Query("lab")

	var body any
	switch c.Param("resource") {
	case catalog.Labs.Name:
		body = h.catalog.Labs(ctx)
	case catalog.Courses.Name:
		body = h.catalog.Courses(ctx, lab)
	case catalog.Events.Name:
		body = catalog.FilterEvents(h.catalog.Events(ctx, lab), c.Query("type"))
	case catalog.Projects.Name:
		body = h.catalog.Projects(ctx, lab)
	case catalog.Articles.Name:
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		body = catalog.ListArticles(h.catalog.Articles(ctx, lab), c.Query("category"), page)
	case catalog.Products.Name:
		body = h.catalog.Products(ctx, c.Query("country"))
	case catalog.Worksites.Name:
		body = h.catalog.Worksites(ctx, lab)
	case catalog.Impact.Name:
		body = h.catalog.ImpactStats(ctx)
	case catalog.MapProjects.Name:
		body = catalog.ByLab(h.catalog.MapProjects(ctx), lab)
	case catalog.PotentialZones.Name:
		body = h.catalog.PotentialZones(ctx)
	case catalog.DesignProfiles.Name:
		body = h.catalog.DesignProfiles(ctx, lab)
	case catalog.PressItems.Name:
		body = h.catalog.PressItems(ctx)
	case catalog.Resources.Name:
		body = catalog.FilterResources(h.catalog.Resources(ctx), c.Query("type"))
	case catalog.PickupLocations.Name:
		body = catalog.ByLab(h.catalog.PickupLocations(ctx), lab)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown catalog resource"})
		return
	}

	c.JSON(http.StatusOK, body)
}

// getCatalogItem looks an entity up by slug, or by id for events and products
func (h *Handler) getCatalogItem(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")

	var (
		body  any
		found bool
	)
	switch c.Param("resource") {
	case catalog.Labs.Name:
		body, found = h.catalog.LabBySlug(ctx, slug)
	case catalog.Courses.Name:
		body, found = h.catalog.CourseBySlug(ctx, slug)
	case catalog.Projects.Name:
		body, found = h.catalog.ProjectBySlug(ctx, slug)
	case catalog.Articles.Name:
		body, found = h.catalog.ArticleBySlug(ctx, slug)
	case catalog.Events.Name:
		body, found = h.catalog.EventByID(ctx, slug)
	case catalog.Products.Name:
		product, ok := h.catalog.ProductByID(ctx, slug)
		if ok {
			body = gin.H{
				"product": product,
				"related": catalog.RelatedProducts(h.catalog.Products(ctx, ""), product),
			}
		}
		found = ok
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown catalog resource"})
		return
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.JSON(http.StatusOK, body)
}

// eventCalendar serves an event as an .ics download
func (h *Handler) eventCalendar(c *gin.Context) {
	event, ok := h.catalog.EventByID(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	ics, err := catalog.EventCalendar(event, time.Now())
	if err != nil {
		h.respondError(c, "Failed to build calendar", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, event.ID))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}
