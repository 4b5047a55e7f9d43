package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"semisto-service/internal/auth"
	"semisto-service/internal/cart"
	"semisto-service/internal/catalog"
	"semisto-service/internal/service"
	"semisto-service/internal/store"
	"semisto-service/internal/util"
	"semisto-service/internal/workflow"
)

// Checker reports whether a dependency is reachable
type Checker func(ctx context.Context) error

// Dependencies groups what the handlers need
type Dependencies struct {
	Catalog      *catalog.Resolver
	Carts        *service.CartService
	Workflows    *service.WorkflowService
	Orders       *service.OrderService
	Portal       *service.PortalService
	Auth         *auth.Authenticator
	SecureCookie bool
	Checks       map[string]Checker
}

// Handler contains HTTP handlers
type Handler struct {
	catalog      *catalog.Resolver
	carts        *service.CartService
	workflows    *service.WorkflowService
	orders       *service.OrderService
	portal       *service.PortalService
	auth         *auth.Authenticator
	secureCookie bool
	checks       map[string]Checker
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		catalog:      deps.Catalog,
		carts:        deps.Carts,
		workflows:    deps.Workflows,
		orders:       deps.Orders,
		portal:       deps.Portal,
		auth:         deps.Auth,
		secureCookie: deps.SecureCookie,
		checks:       deps.Checks,
		logger:       util.Named("http"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))
	router.Use(h.auth.Gate())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/catalog/:resource", h.listCatalog)
		v1.GET("/catalog/:resource/:slug", h.getCatalogItem)
		v1.GET("/events/:id/calendar.ics", h.eventCalendar)

		v1.POST("/carts", h.createCart)
		v1.GET("/carts/:id", h.getCart)
		v1.DELETE("/carts/:id", h.deleteCart)
		v1.POST("/carts/:id/items", h.addCartItem)
		v1.PUT("/carts/:id/items/:productId", h.updateCartItem)
		v1.DELETE("/carts/:id/items/:productId", h.removeCartItem)

		v1.GET("/workflows", h.listWorkflowKinds)
		v1.POST("/workflows/:kind", h.startWorkflow)
		v1.GET("/workflows/run/:id", h.getWorkflowRun)
		v1.POST("/workflows/run/:id/actions", h.dispatchWorkflowAction)

		v1.GET("/orders/:reference", h.getOrder)
		v1.PATCH("/orders/:reference/status", h.updateOrderStatus)
	}

	router.GET("/api/portal/me", h.portalMe)

	router.GET(auth.LoginPath, h.loginPage)
	router.POST(auth.LoginPath, h.login)

	p := router.Group("/portal")
	{
		p.GET("/logout", h.logout)
		p.POST("/logout", h.logout)
		p.GET("/", h.portalDashboard)
		p.GET("/packages", h.portalPackages)
		p.GET("/packages/:id", h.portalPackage)
		p.GET("/engagements", h.portalEngagements)
		p.GET("/engagements/:id", h.portalEngagement)
		p.GET("/funding", h.portalProposals)
		p.GET("/funding/:id", h.portalProposal)
		p.POST("/funding/:id/workflow", h.portalStartFunding)
		p.GET("/funding-runs/:id", h.portalFundingRun)
		p.POST("/funding-runs/:id/actions", h.portalFundingAction)
		p.GET("/fundings", h.portalFundings)
		p.GET("/impact", h.portalImpact)
		p.GET("/impact/export", h.portalImpactExport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": failed,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps service errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, message string, err error) {
	var verr *workflow.ValidationError
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    message,
			"step":     verr.Step,
			"problems": verr.Problems,
		})
		return
	case errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrProposalNotFound),
		errors.Is(err, service.ErrTargetNotFound),
		errors.Is(err, workflow.ErrUnknownKind),
		errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrUnknownPickup),
		errors.Is(err, workflow.ErrUnknownAction),
		errors.Is(err, workflow.ErrUnsupportedAction):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrRunForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrRunBusy),
		errors.Is(err, service.ErrNoSeats),
		errors.Is(err, workflow.ErrAlreadyCompleted),
		errors.Is(err, service.ErrProposalClosed),
		errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
