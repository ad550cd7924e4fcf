package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/taskmarket/internal/http/middleware"
	"github.com/nurpe/taskmarket/internal/service"
)

type createDisputeRequest struct {
	PaymentID   string `json:"paymentId" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (h *Handler) createDispute(c *gin.Context) {
	principal := middleware.MustPrincipal(c)

	var req createDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paymentId"})
		return
	}

	dispute, err := h.disputes.Create(c.Request.Context(), principal, service.CreateDisputeInput{
		PaymentID:   paymentID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

func (h *Handler) getDispute(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	dispute, err := h.disputes.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

func (h *Handler) myDisputes(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	number, limit, _, _ := pageQuery(c)

	disputes, total, err := h.disputes.ListMine(c.Request.Context(), principal, c.Query("status"), number, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "disputes", disputes, total, number, limit)
}

func (h *Handler) listAllDisputes(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	number, limit, _, _ := pageQuery(c)

	disputes, total, err := h.disputes.ListAll(c.Request.Context(), principal, c.Query("status"), number, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "disputes", disputes, total, number, limit)
}

type disputeMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) addDisputeMessage(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req disputeMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.disputes.AddMessage(c.Request.Context(), principal, id, req.Message)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) listDisputeMessages(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	messages, err := h.disputes.Messages(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type resolveDisputeRequest struct {
	Resolution      string  `json:"resolution" binding:"required"`
	ResolutionNotes string  `json:"resolutionNotes" binding:"required"`
	RefundAmount    float64 `json:"refundAmount"`
}

func (h *Handler) resolveDispute(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dispute, err := h.disputes.Resolve(c.Request.Context(), principal, id, service.ResolveDisputeInput{
		Resolution:      req.Resolution,
		ResolutionNotes: req.ResolutionNotes,
		RefundAmount:    req.RefundAmount,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

func (h *Handler) disputeStats(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	stats, err := h.disputes.Stats(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statusBreakdown": stats})
}
