package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/taskmarket/internal/http/middleware"
	"github.com/nurpe/taskmarket/internal/model"
	"github.com/nurpe/taskmarket/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

type createTaskRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description" binding:"required"`
	Category     string  `json:"category" binding:"required"`
	College      string  `json:"college" binding:"required"`
	Budget       float64 `json:"budget" binding:"required"`
	Deadline     string  `json:"deadline" binding:"required"`
	Location     string  `json:"location"`
	Requirements string  `json:"requirements"`
}

func (h *Handler) createTask(c *gin.Context) {
	principal := middleware.MustPrincipal(c)

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deadline, err := parseDate(req.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline"})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), principal, service.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		College:      req.College,
		Budget:       req.Budget,
		Deadline:     deadline,
		Location:     req.Location,
		Requirements: req.Requirements,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) getTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) listTasks(c *gin.Context) {
	minBudget, _ := strconv.ParseFloat(c.Query("minBudget"), 64)
	maxBudget, _ := strconv.ParseFloat(c.Query("maxBudget"), 64)
	filter := model.TaskFilter{
		Category:  model.TaskCategory(c.Query("category")),
		College:   c.Query("college"),
		Status:    model.TaskStatus(c.Query("status")),
		MinBudget: minBudget,
		MaxBudget: maxBudget,
		Search:    c.Query("search"),
	}

	number, limit, sortBy, sortOrder := pageQuery(c)
	tasks, total, err := h.tasks.List(c.Request.Context(), filter, number, limit, sortBy, sortOrder)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "tasks", tasks, total, number, limit)
}

func (h *Handler) myTasks(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	number, limit, sortBy, sortOrder := pageQuery(c)

	tasks, total, err := h.tasks.ListMine(c.Request.Context(), principal, c.Query("status"), number, limit, sortBy, sortOrder)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "tasks", tasks, total, number, limit)
}

type updateTaskRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	College      *string  `json:"college"`
	Budget       *float64 `json:"budget"`
	Deadline     *string  `json:"deadline"`
	Location     *string  `json:"location"`
	Requirements *string  `json:"requirements"`
}

func (h *Handler) updateTask(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		College:      req.College,
		Budget:       req.Budget,
		Location:     req.Location,
		Requirements: req.Requirements,
	}
	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline"})
			return
		}
		input.Deadline = &deadline
	}

	task, err := h.tasks.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

func (h *Handler) startTask(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, err := h.tasks.Start(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type submitTaskRequest struct {
	SubmissionURL   string `json:"submissionUrl" binding:"required"`
	SubmissionNotes string `json:"submissionNotes"`
}

func (h *Handler) submitTask(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req submitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.Submit(c.Request.Context(), principal, id, service.SubmitTaskInput{
		SubmissionURL:   req.SubmissionURL,
		SubmissionNotes: req.SubmissionNotes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type reviewSubmissionRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

func (h *Handler) reviewSubmission(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req reviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.ReviewSubmission(c.Request.Context(), principal, id, *req.Approve)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) taskStatement(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	fileName, content, err := h.tasks.Statement(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, contentTypePDF, content)
}

func (h *Handler) taskStats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) exportStats(c *gin.Context) {
	fileName, content, err := h.tasks.ExportStats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, contentTypeXLSX, content)
}

type assignTaskRequest struct {
	BidID string `json:"bidId" binding:"required"`
}

func (h *Handler) assignTask(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	taskID, ok := parseID(c)
	if !ok {
		return
	}

	var req assignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bidID, err := uuid.Parse(req.BidID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bidId"})
		return
	}

	bid, err := h.bids.Assign(c.Request.Context(), principal, taskID, bidID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.PresentBid(*bid, principal.ID))
}

func parseDate(raw string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
