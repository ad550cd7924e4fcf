package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/taskmarket/internal/http/middleware"
	"github.com/nurpe/taskmarket/internal/service"
)

type createReviewRequest struct {
	TaskID  string `json:"taskId" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func (h *Handler) createReview(c *gin.Context) {
	principal := middleware.MustPrincipal(c)

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid taskId"})
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), principal, service.CreateReviewInput{
		TaskID:  taskID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) getReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	review, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) listReviews(c *gin.Context) {
	var taskID *uuid.UUID
	if raw := c.Query("taskId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid taskId"})
			return
		}
		taskID = &parsed
	}
	rating, _ := strconv.Atoi(c.Query("rating"))

	number, limit, sortBy, sortOrder := pageQuery(c)
	reviews, total, err := h.reviews.List(c.Request.Context(), taskID, rating, c.Query("reviewerId"), number, limit, sortBy, sortOrder)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "reviews", reviews, total, number, limit)
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func (h *Handler) updateReview(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), principal, id, service.UpdateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) deleteReview(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}

func (h *Handler) reviewStats(c *gin.Context) {
	stats, err := h.reviews.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
