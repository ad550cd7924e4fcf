package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/taskmarket/internal/http/middleware"
	"github.com/nurpe/taskmarket/internal/service"
)

type createBidRequest struct {
	TaskID           string  `json:"taskId" binding:"required"`
	Amount           float64 `json:"amount" binding:"required"`
	Proposal         string  `json:"proposal" binding:"required"`
	DeliveryTimeDays int     `json:"deliveryTimeDays" binding:"required"`
	Phone            string  `json:"phone"`
}

func (h *Handler) createBid(c *gin.Context) {
	principal := middleware.MustPrincipal(c)

	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid taskId"})
		return
	}

	bid, err := h.bids.Create(c.Request.Context(), principal, service.CreateBidInput{
		TaskID:           taskID,
		Amount:           req.Amount,
		Proposal:         req.Proposal,
		DeliveryTimeDays: req.DeliveryTimeDays,
		Phone:            req.Phone,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.PresentBid(*bid, principal.ID))
}

func (h *Handler) listTaskBids(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	taskID, ok := parseID(c)
	if !ok {
		return
	}

	number, limit, sortBy, sortOrder := pageQuery(c)
	bids, total, err := h.bids.ListForTask(c.Request.Context(), principal, taskID, number, limit, sortBy, sortOrder)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "bids", bids, total, number, limit)
}

func (h *Handler) myBids(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	number, limit, sortBy, sortOrder := pageQuery(c)

	bids, total, err := h.bids.ListMine(c.Request.Context(), principal, c.Query("status"), number, limit, sortBy, sortOrder)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "bids", bids, total, number, limit)
}

type updateBidRequest struct {
	Amount           *float64 `json:"amount"`
	Proposal         *string  `json:"proposal"`
	DeliveryTimeDays *int     `json:"deliveryTimeDays"`
}

func (h *Handler) updateBid(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.bids.Update(c.Request.Context(), principal, id, service.UpdateBidInput{
		Amount:           req.Amount,
		Proposal:         req.Proposal,
		DeliveryTimeDays: req.DeliveryTimeDays,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.PresentBid(*bid, principal.ID))
}

func (h *Handler) deleteBid(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.bids.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bid deleted"})
}

func (h *Handler) acceptBid(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	bid, err := h.bids.Accept(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.PresentBid(*bid, principal.ID))
}

func (h *Handler) rejectBid(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	bid, err := h.bids.Reject(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.PresentBid(*bid, principal.ID))
}

func (h *Handler) withdrawBid(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	bid, err := h.bids.Withdraw(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.PresentBid(*bid, principal.ID))
}

func (h *Handler) bidStats(c *gin.Context) {
	stats, err := h.bids.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
