package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
)

const (
	minTitleLength        = 3
	maxTitleLength        = 100
	minDescriptionLength  = 10
	maxDescriptionLength  = 1000
	minCollegeLength      = 2
	maxCollegeLength      = 100
	maxLocationLength     = 100
	maxRequirementsLength = 500
)

var taskSortFields = map[string]string{
	"createdAt": "created_at",
	"deadline":  "deadline",
	"budget":    "budget",
	"status":    "status",
	"bidCount":  "bid_count",
}

// StatementGenerator renders the completion statement document.
type StatementGenerator interface {
	Generate(statement model.CompletionStatement) ([]byte, error)
}

// ReportGenerator renders the marketplace stats workbook.
type ReportGenerator interface {
	Generate(report model.MarketReport) ([]byte, error)
}

// TaskService owns task state transitions driven by creation, work
// submission and review outcomes. Bid-driven transitions live in
// BidService so both accept paths share one implementation.
type TaskService struct {
	tasks     TaskStore
	bids      BidStore
	payments  PaymentStore
	notifier  Notifier
	statement StatementGenerator
	report    ReportGenerator
	log       zerolog.Logger
}

func NewTaskService(tasks TaskStore, bids BidStore, payments PaymentStore, notifier Notifier, statement StatementGenerator, report ReportGenerator, log zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:     tasks,
		bids:      bids,
		payments:  payments,
		notifier:  notifier,
		statement: statement,
		report:    report,
		log:       log,
	}
}

type CreateTaskInput struct {
	Title        string
	Description  string
	Category     string
	College      string
	Budget       float64
	Deadline     time.Time
	Location     string
	Requirements string
}

func (s *TaskService) Create(ctx context.Context, principal model.Principal, input CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if len(title) < minTitleLength || len(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be between %d and %d characters", ErrInvalidInput, minTitleLength, maxTitleLength)
	}
	description := strings.TrimSpace(input.Description)
	if len(description) < minDescriptionLength || len(description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description must be between %d and %d characters", ErrInvalidInput, minDescriptionLength, maxDescriptionLength)
	}
	category := model.TaskCategory(input.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("%w: invalid category", ErrInvalidInput)
	}
	college := strings.TrimSpace(input.College)
	if len(college) < minCollegeLength || len(college) > maxCollegeLength {
		return nil, fmt.Errorf("%w: college name must be between %d and %d characters", ErrInvalidInput, minCollegeLength, maxCollegeLength)
	}
	if input.Budget < 1 {
		return nil, fmt.Errorf("%w: budget must be a positive number", ErrInvalidInput)
	}
	if input.Deadline.IsZero() || input.Deadline.Before(startOfToday()) {
		return nil, fmt.Errorf("%w: deadline must be today or in the future", ErrInvalidInput)
	}
	location := strings.TrimSpace(input.Location)
	if len(location) > maxLocationLength {
		return nil, fmt.Errorf("%w: location cannot exceed %d characters", ErrInvalidInput, maxLocationLength)
	}
	requirements := strings.TrimSpace(input.Requirements)
	if len(requirements) > maxRequirementsLength {
		return nil, fmt.Errorf("%w: requirements cannot exceed %d characters", ErrInvalidInput, maxRequirementsLength)
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:           uuid.New(),
		Title:        title,
		Description:  description,
		Category:     category,
		College:      college,
		Budget:       input.Budget,
		Deadline:     input.Deadline,
		Location:     location,
		Requirements: requirements,
		Status:       model.TaskStatusOpen,
		OwnerID:      principal.ID,
		OwnerEmail:   principal.Email,
		OwnerName:    principal.FullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return s.getTask(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter, number, limit int, sortBy, sortOrder string) ([]model.Task, int64, error) {
	page, err := NormalizePage(number, limit, sortBy, sortOrder, taskSortFields)
	if err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, filter.Status)
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid category", ErrInvalidInput)
	}
	return s.tasks.List(ctx, filter, page)
}

func (s *TaskService) ListMine(ctx context.Context, principal model.Principal, status string, number, limit int, sortBy, sortOrder string) ([]model.Task, int64, error) {
	filter := model.TaskFilter{OwnerID: principal.ID, Status: model.TaskStatus(status)}
	return s.List(ctx, filter, number, limit, sortBy, sortOrder)
}

type UpdateTaskInput struct {
	Title        *string
	Description  *string
	College      *string
	Budget       *float64
	Deadline     *time.Time
	Location     *string
	Requirements *string
}

// Update patches task fields while the task is still open; once a bid is
// accepted the posting is frozen.
func (s *TaskService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != principal.ID {
		return nil, fmt.Errorf("%w: you can only update your own tasks", ErrPermissionDenied)
	}
	if task.Status != model.TaskStatusOpen {
		return nil, fmt.Errorf("%w: only open tasks can be updated", ErrInvalidState)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if len(title) < minTitleLength || len(title) > maxTitleLength {
			return nil, fmt.Errorf("%w: title must be between %d and %d characters", ErrInvalidInput, minTitleLength, maxTitleLength)
		}
		task.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if len(description) < minDescriptionLength || len(description) > maxDescriptionLength {
			return nil, fmt.Errorf("%w: description must be between %d and %d characters", ErrInvalidInput, minDescriptionLength, maxDescriptionLength)
		}
		task.Description = description
	}
	if input.College != nil {
		college := strings.TrimSpace(*input.College)
		if len(college) < minCollegeLength || len(college) > maxCollegeLength {
			return nil, fmt.Errorf("%w: college name must be between %d and %d characters", ErrInvalidInput, minCollegeLength, maxCollegeLength)
		}
		task.College = college
	}
	if input.Budget != nil {
		if *input.Budget < 1 {
			return nil, fmt.Errorf("%w: budget must be a positive number", ErrInvalidInput)
		}
		task.Budget = *input.Budget
	}
	if input.Deadline != nil {
		if input.Deadline.Before(startOfToday()) {
			return nil, fmt.Errorf("%w: deadline must be today or in the future", ErrInvalidInput)
		}
		task.Deadline = *input.Deadline
	}
	if input.Location != nil {
		location := strings.TrimSpace(*input.Location)
		if len(location) > maxLocationLength {
			return nil, fmt.Errorf("%w: location cannot exceed %d characters", ErrInvalidInput, maxLocationLength)
		}
		task.Location = location
	}
	if input.Requirements != nil {
		requirements := strings.TrimSpace(*input.Requirements)
		if len(requirements) > maxRequirementsLength {
			return nil, fmt.Errorf("%w: requirements cannot exceed %d characters", ErrInvalidInput, maxRequirementsLength)
		}
		task.Requirements = requirements
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete refuses while any bid still references the task, which keeps the
// bid counter consistent with the actual bid count.
func (s *TaskService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}
	if task.OwnerID != principal.ID {
		return fmt.Errorf("%w: you can only delete your own tasks", ErrPermissionDenied)
	}

	count, err := s.bids.CountForTask(ctx, task.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: task still has bids", ErrInvalidState)
	}
	return s.tasks.Delete(ctx, id)
}

// Start is the optional explicit step moving a directly-assigned task into
// in-progress before work can be submitted.
func (s *TaskService) Start(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.AssignedFreelancerID == nil || *task.AssignedFreelancerID != principal.ID {
		return nil, fmt.Errorf("%w: only the assigned freelancer can start work", ErrPermissionDenied)
	}
	if task.Status != model.TaskStatusAssigned {
		return nil, fmt.Errorf("%w: task is not awaiting a start", ErrInvalidState)
	}

	changed, err := s.tasks.MarkStarted(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: task is not awaiting a start", ErrInvalidState)
	}
	task.Status = model.TaskStatusInProgress
	return task, nil
}

type SubmitTaskInput struct {
	SubmissionURL   string
	SubmissionNotes string
}

func (s *TaskService) Submit(ctx context.Context, principal model.Principal, id uuid.UUID, input SubmitTaskInput) (*model.Task, error) {
	url := strings.TrimSpace(input.SubmissionURL)
	if url == "" {
		return nil, fmt.Errorf("%w: submission url is required", ErrInvalidInput)
	}

	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.AssignedFreelancerID == nil || *task.AssignedFreelancerID != principal.ID {
		return nil, fmt.Errorf("%w: only the assigned freelancer can submit work", ErrPermissionDenied)
	}
	if task.Status != model.TaskStatusInProgress {
		return nil, fmt.Errorf("%w: task must be in progress to submit work", ErrInvalidState)
	}

	now := time.Now().UTC()
	changed, err := s.tasks.MarkSubmitted(ctx, task.ID, url, input.SubmissionNotes, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: task must be in progress to submit work", ErrInvalidState)
	}

	task.Status = model.TaskStatusSubmitted
	task.SubmissionURL = &url
	notes := input.SubmissionNotes
	task.SubmissionNotes = &notes
	task.SubmittedAt = &now

	s.notifier.Publish(ctx, &model.Notification{
		RecipientID: task.OwnerID,
		Type:        model.NotificationTaskSubmitted,
		Title:       "Work Submitted",
		Message:     fmt.Sprintf("Work has been submitted for %q. Please review and approve.", task.Title),
		TaskID:      &task.ID,
		ActionURL:   bidActionURLPrefix + task.ID.String(),
		Priority:    model.PriorityHigh,
	})

	return task, nil
}

// ReviewSubmission is the owner's verdict on submitted work: approval
// completes the task and releases the escrowed payment, a revision request
// loops the task back to assigned.
func (s *TaskService) ReviewSubmission(ctx context.Context, principal model.Principal, id uuid.UUID, approve bool) (*model.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != principal.ID {
		return nil, fmt.Errorf("%w: only the task owner can review submitted work", ErrPermissionDenied)
	}
	if task.Status != model.TaskStatusSubmitted {
		return nil, fmt.Errorf("%w: task has no submission to review", ErrInvalidState)
	}

	now := time.Now().UTC()
	target := model.TaskStatusAssigned
	var completedAt *time.Time
	if approve {
		target = model.TaskStatusCompleted
		completedAt = &now
	}

	changed, err := s.tasks.ResolveSubmission(ctx, task.ID, target, completedAt)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: task has no submission to review", ErrInvalidState)
	}
	task.Status = target

	freelancerID := ""
	if task.AssignedFreelancerID != nil {
		freelancerID = *task.AssignedFreelancerID
	}

	if approve {
		task.CompletedAt = completedAt
		task.ClientApprovedAt = completedAt
		s.releaseEscrow(ctx, task, now)
		if freelancerID != "" {
			s.notifier.Publish(ctx, &model.Notification{
				RecipientID: freelancerID,
				Type:        model.NotificationTaskCompleted,
				Title:       "Work Approved",
				Message:     fmt.Sprintf("Your work on %q has been approved.", task.Title),
				TaskID:      &task.ID,
				ActionURL:   bidActionURLPrefix + task.ID.String(),
				Priority:    model.PriorityHigh,
			})
		}
		return task, nil
	}

	if freelancerID != "" {
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: freelancerID,
			Type:        model.NotificationSystemMessage,
			Title:       "Revision Requested",
			Message:     fmt.Sprintf("The client requested changes to your work on %q.", task.Title),
			TaskID:      &task.ID,
			ActionURL:   bidActionURLPrefix + task.ID.String(),
			Priority:    model.PriorityMedium,
		})
	}
	return task, nil
}

func (s *TaskService) releaseEscrow(ctx context.Context, task *model.Task, now time.Time) {
	payment, err := s.payments.GetByTask(ctx, task.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error().Err(err).Str("task_id", task.ID.String()).Msg("escrow lookup failed")
		}
		return
	}
	if payment.Status != model.PaymentStatusEscrowed && payment.Status != model.PaymentStatusSubmitted {
		return
	}
	if err := s.payments.MarkReleased(ctx, payment.ID, now); err != nil {
		s.log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("escrow release failed")
		return
	}
	if task.AssignedFreelancerID != nil {
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: *task.AssignedFreelancerID,
			Type:        model.NotificationPaymentReleased,
			Title:       "Payment Released",
			Message:     fmt.Sprintf("₹%.0f has been released for %q", payment.Amount, task.Title),
			TaskID:      &task.ID,
			Priority:    model.PriorityHigh,
		})
	}
}

// Statement renders the completion statement for a finished task. Only the
// two parties to the work may request it.
func (s *TaskService) Statement(ctx context.Context, principal model.Principal, id uuid.UUID) (string, []byte, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return "", nil, err
	}
	assigned := task.AssignedFreelancerID != nil && *task.AssignedFreelancerID == principal.ID
	if task.OwnerID != principal.ID && !assigned {
		return "", nil, fmt.Errorf("%w: statement is available to the task parties only", ErrPermissionDenied)
	}
	if task.Status != model.TaskStatusCompleted {
		return "", nil, fmt.Errorf("%w: task is not completed", ErrInvalidState)
	}
	if task.AcceptedBidID == nil {
		return "", nil, fmt.Errorf("%w: task has no accepted bid", ErrInvalidState)
	}

	bid, err := s.bids.Get(ctx, *task.AcceptedBidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("%w: accepted bid", ErrNotFound)
		}
		return "", nil, err
	}

	content, err := s.statement.Generate(model.CompletionStatement{
		Task:        *task,
		AcceptedBid: *bid,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", nil, err
	}

	fileName := fmt.Sprintf("statement-%s.pdf", task.ID)
	return fileName, content, nil
}

// ExportStats builds the marketplace activity workbook.
func (s *TaskService) ExportStats(ctx context.Context) (string, []byte, error) {
	taskCount, totalBudget, err := s.tasks.Totals(ctx)
	if err != nil {
		return "", nil, err
	}
	bidCount, totalBidAmount, err := s.bids.Totals(ctx)
	if err != nil {
		return "", nil, err
	}
	taskBreakdown, err := s.tasks.StatusBreakdown(ctx)
	if err != nil {
		return "", nil, err
	}
	bidBreakdown, err := s.bids.StatusBreakdown(ctx)
	if err != nil {
		return "", nil, err
	}
	categories, err := s.tasks.CategoryBreakdown(ctx)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	content, err := s.report.Generate(model.MarketReport{
		GeneratedAt:         now,
		TotalTasks:          taskCount,
		TotalBudget:         totalBudget,
		TotalBids:           bidCount,
		TotalBidAmount:      totalBidAmount,
		TaskStatusBreakdown: taskBreakdown,
		BidStatusBreakdown:  bidBreakdown,
		CategoryBreakdown:   categories,
	})
	if err != nil {
		return "", nil, err
	}

	fileName := fmt.Sprintf("marketplace-stats-%s.xlsx", now.Format("20060102"))
	return fileName, content, nil
}

type TaskStats struct {
	TotalTasks        int64
	TotalBudget       float64
	StatusBreakdown   []model.StatusCount
	CategoryBreakdown []model.CategoryCount
}

func (s *TaskService) Stats(ctx context.Context) (*TaskStats, error) {
	count, budget, err := s.tasks.Totals(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.tasks.StatusBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.tasks.CategoryBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	return &TaskStats{
		TotalTasks:        count,
		TotalBudget:       budget,
		StatusBreakdown:   breakdown,
		CategoryBreakdown: categories,
	}, nil
}

func (s *TaskService) getTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task", ErrNotFound)
		}
		return nil, err
	}
	applyDeadlinePolicy(ctx, s.tasks, task, s.log)
	return task, nil
}

// applyDeadlinePolicy lazily cancels a task whose deadline passed while it
// was still open. The compare-and-swap in the store guarantees the cancel
// never overrides a task that moved on in the meantime.
func applyDeadlinePolicy(ctx context.Context, tasks TaskStore, task *model.Task, log zerolog.Logger) {
	if task.Status != model.TaskStatusOpen {
		return
	}
	now := time.Now().UTC()
	if !task.Deadline.Before(now) {
		return
	}
	changed, err := tasks.CancelIfOpen(ctx, task.ID, now)
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("deadline cancel failed")
		return
	}
	if changed {
		task.Status = model.TaskStatusCancelled
	}
}

func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
