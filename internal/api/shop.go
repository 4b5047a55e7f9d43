package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"semisto-service/internal/service"
	"semisto-service/internal/workflow"
)

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=READY_FOR_PICKUP COLLECTED CANCELLED"`
}

type startWorkflowRequest struct {
	Fields workflow.Fields `json:"fields"`
}

func (h *Handler) createCart(c *gin.Context) {
	view, err := h.carts.Create(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to create cart", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.carts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get cart", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) deleteCart(c *gin.Context) {
	if err := h.carts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "Failed to delete cart", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.carts.AddItem(c.Request.Context(), c.Param("id"), req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(c, "Failed to add item", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// updateCartItem sets a quantity; zero or less removes the line
func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.carts.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("productId"), *req.Quantity)
	if err != nil {
		h.respondError(c, "Failed to update item", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	view, err := h.carts.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		h.respondError(c, "Failed to remove item", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) listWorkflowKinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kinds": h.workflows.Kinds()})
}

// startWorkflow starts any public flow. Funding runs belong to a partner and
// start from the portal instead.
func (h *Handler) startWorkflow(c *gin.Context) {
	kind := c.Param("kind")
	if kind == workflow.KindFunding {
		c.JSON(http.StatusForbidden, gin.H{"error": "Funding workflows start from the partner portal"})
		return
	}

	var req startWorkflowRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
	}

	run, err := h.workflows.Start(c.Request.Context(), kind, req.Fields)
	if err != nil {
		h.respondError(c, "Failed to start workflow", err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

// getWorkflowRun serves public runs. Funding runs are only reachable from the
// partner portal.
func (h *Handler) getWorkflowRun(c *gin.Context) {
	h.showRun(c, service.PublicScope)
}

func (h *Handler) dispatchWorkflowAction(c *gin.Context) {
	h.applyAction(c, service.PublicScope)
}

func (h *Handler) showRun(c *gin.Context, scope service.Scope) {
	run, err := h.workflows.GetScoped(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		h.respondError(c, "Failed to get workflow", err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// applyAction applies one action to a run the scope admits. A blocked
// transition answers 422 with the problems and the unchanged run.
func (h *Handler) applyAction(c *gin.Context, scope service.Scope) {
	var action workflow.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	run, err := h.workflows.DispatchScoped(c.Request.Context(), c.Param("id"), c.GetHeader("Idempotency-Key"), scope, action)
	if err != nil {
		var verr *workflow.ValidationError
		if run != nil && errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    "Step incomplete",
				"step":     verr.Step,
				"problems": verr.Problems,
				"run":      run,
			})
			return
		}
		h.respondError(c, "Failed to apply action", err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, items, err := h.orders.GetOrder(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.respondError(c, "Order not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// updateOrderStatus is used by the lab staff handing out pickup orders
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("reference"), req.Status)
	if err != nil {
		h.respondError(c, "Failed to update order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}
