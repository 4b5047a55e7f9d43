package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"semisto-service/internal/auth"
	"semisto-service/internal/models"
	"semisto-service/internal/service"
	"semisto-service/internal/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// loginPage stands in for the rendered form; it only echoes the error flag
func (h *Handler) loginPage(c *gin.Context) {
	token, _ := c.Cookie(auth.CookieName)
	if h.auth.IsAuthorized(token) {
		c.Redirect(http.StatusFound, auth.HomePath)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":  "login",
		"error": c.Query("error"),
	})
}

func (h *Handler) login(c *gin.Context) {
	token, err := h.auth.Login(c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		h.logger.Info("Portal login rejected", zap.String("client_ip", c.ClientIP()))
		c.Redirect(http.StatusFound, auth.LoginPath+"?error=invalid")
		return
	}

	auth.SetSessionCookie(c, token, h.secureCookie)
	c.Redirect(http.StatusFound, auth.HomePath)
}

func (h *Handler) logout(c *gin.Context) {
	auth.ClearSessionCookie(c, h.secureCookie)
	c.Redirect(http.StatusFound, auth.LoginPath)
}

// portalMe is the JSON session probe; it answers 401 instead of redirecting
func (h *Handler) portalMe(c *gin.Context) {
	token, _ := c.Cookie(auth.CookieName)
	user, ok := h.auth.CurrentUser(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"partner": h.portal.Repository().Partner(),
	})
}

func sessionUser(c *gin.Context) models.AuthUser {
	user, _ := auth.UserFromContext(c)
	return user
}

func (h *Handler) portalDashboard(c *gin.Context) {
	d, err := h.portal.Dashboard(c.Request.Context(), sessionUser(c).PartnerID)
	if err != nil {
		h.respondError(c, "Failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) portalPackages(c *gin.Context) {
	c.JSON(http.StatusOK, h.portal.Repository().Packages())
}

func (h *Handler) portalPackage(c *gin.Context) {
	p, ok := h.portal.Repository().PackageByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) portalEngagements(c *gin.Context) {
	c.JSON(http.StatusOK, h.portal.Repository().Engagements())
}

func (h *Handler) portalEngagement(c *gin.Context) {
	e, ok := h.portal.Repository().EngagementByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Engagement not found"})
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) portalProposals(c *gin.Context) {
	proposals, err := h.portal.Funding().Proposals(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to load funding proposals", err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

func (h *Handler) portalProposal(c *gin.Context) {
	p, err := h.portal.Funding().Proposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to load funding proposal", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// portalStartFunding opens a funding run for the signed-in partner
func (h *Handler) portalStartFunding(c *gin.Context) {
	run, err := h.workflows.Start(c.Request.Context(), workflow.KindFunding, workflow.Fields{
		workflow.FieldProposalID: c.Param("id"),
		workflow.FieldPartnerID:  sessionUser(c).PartnerID,
	})
	if err != nil {
		h.respondError(c, "Failed to start funding", err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

// portalFundingRun and portalFundingAction drive the signed-in partner's own
// funding runs
func (h *Handler) portalFundingRun(c *gin.Context) {
	h.showRun(c, service.PartnerScope(sessionUser(c).PartnerID))
}

func (h *Handler) portalFundingAction(c *gin.Context) {
	h.applyAction(c, service.PartnerScope(sessionUser(c).PartnerID))
}

func (h *Handler) portalFundings(c *gin.Context) {
	fundings, err := h.portal.Funding().Fundings(c.Request.Context(), sessionUser(c).PartnerID)
	if err != nil {
		h.respondError(c, "Failed to load fundings", err)
		return
	}
	c.JSON(http.StatusOK, fundings)
}

func (h *Handler) portalImpact(c *gin.Context) {
	c.JSON(http.StatusOK, h.portal.Repository().ImpactMetrics())
}

func (h *Handler) portalImpactExport(c *gin.Context) {
	buf, name, err := h.portal.ImpactReport(c.Request.Context(), sessionUser(c).PartnerID)
	if err != nil {
		h.respondError(c, "Failed to export impact report", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
