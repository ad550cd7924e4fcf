package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/taskmarket/internal/service"
)

type Handler struct {
	tasks         *service.TaskService
	bids          *service.BidService
	notifications *service.NotificationService
	disputes      *service.DisputeService
	reviews       *service.ReviewService
	log           zerolog.Logger
}

func NewHandler(
	tasks *service.TaskService,
	bids *service.BidService,
	notifications *service.NotificationService,
	disputes *service.DisputeService,
	reviews *service.ReviewService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		tasks:         tasks,
		bids:          bids,
		notifications: notifications,
		disputes:      disputes,
		reviews:       reviews,
		log:           log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/api")
	protected.Use(authMiddleware)

	protected.POST("/tasks", h.createTask)
	protected.GET("/tasks", h.listTasks)
	protected.GET("/tasks/my", h.myTasks)
	protected.GET("/tasks/stats", h.taskStats)
	protected.GET("/tasks/stats/export", h.exportStats)
	protected.GET("/tasks/:id", h.getTask)
	protected.PUT("/tasks/:id", h.updateTask)
	protected.DELETE("/tasks/:id", h.deleteTask)
	protected.POST("/tasks/:id/start", h.startTask)
	protected.POST("/tasks/:id/submit", h.submitTask)
	protected.POST("/tasks/:id/review-submission", h.reviewSubmission)
	protected.GET("/tasks/:id/statement", h.taskStatement)
	protected.GET("/tasks/:id/bids", h.listTaskBids)
	protected.POST("/tasks/:id/assign", h.assignTask)

	protected.POST("/bids", h.createBid)
	protected.GET("/bids/my", h.myBids)
	protected.GET("/bids/stats", h.bidStats)
	protected.PUT("/bids/:id", h.updateBid)
	protected.DELETE("/bids/:id", h.deleteBid)
	protected.POST("/bids/:id/accept", h.acceptBid)
	protected.POST("/bids/:id/reject", h.rejectBid)
	protected.POST("/bids/:id/withdraw", h.withdrawBid)

	protected.GET("/notifications", h.listNotifications)
	protected.GET("/notifications/unread-count", h.unreadCount)
	protected.POST("/notifications/read-all", h.markAllNotificationsRead)
	protected.POST("/notifications/:id/read", h.markNotificationRead)
	protected.DELETE("/notifications/clear-old", h.clearOldNotifications)
	protected.DELETE("/notifications/:id", h.deleteNotification)

	protected.POST("/disputes", h.createDispute)
	protected.GET("/disputes", h.listAllDisputes)
	protected.GET("/disputes/my", h.myDisputes)
	protected.GET("/disputes/stats", h.disputeStats)
	protected.GET("/disputes/:id", h.getDispute)
	protected.GET("/disputes/:id/messages", h.listDisputeMessages)
	protected.POST("/disputes/:id/messages", h.addDisputeMessage)
	protected.POST("/disputes/:id/resolve", h.resolveDispute)

	protected.POST("/reviews", h.createReview)
	protected.GET("/reviews", h.listReviews)
	protected.GET("/reviews/stats", h.reviewStats)
	protected.GET("/reviews/:id", h.getReview)
	protected.PUT("/reviews/:id", h.updateReview)
	protected.DELETE("/reviews/:id", h.deleteReview)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads the shared pagination query params. Validation happens in
// the service layer against each listing's sortable fields.
func pageQuery(c *gin.Context) (number, limit int, sortBy, sortOrder string) {
	number, _ = strconv.Atoi(c.Query("page"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	return number, limit, c.Query("sortBy"), c.Query("sortOrder")
}

func listResponse(c *gin.Context, key string, items interface{}, total int64, number, limit int) {
	if number < 1 {
		number = 1
	}
	c.JSON(http.StatusOK, gin.H{
		key:     items,
		"total": total,
		"page":  number,
		"limit": limit,
	})
}
