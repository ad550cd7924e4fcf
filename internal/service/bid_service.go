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
	maxProposalLength  = 1000
	maxDeliveryDays    = 365
	bidActionURLPrefix = "/task/"
	browseTasksURL     = "/browse-tasks"
)

var bidSortFields = map[string]string{
	"createdAt": "created_at",
	"amount":    "amount",
	"status":    "status",
}

// BidService is the bid lifecycle engine: creation, acceptance, rejection,
// withdrawal and the atomic side effects on the task store and the
// notification sink.
type BidService struct {
	tasks    TaskStore
	bids     BidStore
	profiles ProfileStore
	notifier Notifier
	log      zerolog.Logger
}

func NewBidService(tasks TaskStore, bids BidStore, profiles ProfileStore, notifier Notifier, log zerolog.Logger) *BidService {
	return &BidService{
		tasks:    tasks,
		bids:     bids,
		profiles: profiles,
		notifier: notifier,
		log:      log,
	}
}

type CreateBidInput struct {
	TaskID           uuid.UUID
	Amount           float64
	Proposal         string
	DeliveryTimeDays int
	Phone            string
}

func (s *BidService) Create(ctx context.Context, principal model.Principal, input CreateBidInput) (*model.Bid, error) {
	if input.Amount < 1 {
		return nil, fmt.Errorf("%w: amount must be at least 1", ErrInvalidInput)
	}
	proposal := strings.TrimSpace(input.Proposal)
	if proposal == "" || len(proposal) > maxProposalLength {
		return nil, fmt.Errorf("%w: proposal must be between 1 and %d characters", ErrInvalidInput, maxProposalLength)
	}
	if input.DeliveryTimeDays < 1 || input.DeliveryTimeDays > maxDeliveryDays {
		return nil, fmt.Errorf("%w: delivery time must be between 1 and %d days", ErrInvalidInput, maxDeliveryDays)
	}

	task, err := s.getTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.TaskStatusOpen {
		return nil, fmt.Errorf("%w: task is not open for bidding", ErrInvalidState)
	}
	if task.OwnerID == principal.ID {
		return nil, fmt.Errorf("%w: cannot bid on your own task", ErrPermissionDenied)
	}

	if _, err := s.bids.GetLiveBid(ctx, task.ID, principal.ID); err == nil {
		return nil, fmt.Errorf("%w: you have already placed a bid on this task", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stats := s.lookupStats(ctx, principal.ID)

	now := time.Now().UTC()
	bid := &model.Bid{
		ID:                       uuid.New(),
		TaskID:                   task.ID,
		FreelancerID:             principal.ID,
		FreelancerEmail:          principal.Email,
		FreelancerName:           principal.FullName,
		FreelancerPhone:          strings.TrimSpace(input.Phone),
		Amount:                   input.Amount,
		Proposal:                 proposal,
		DeliveryTimeDays:         input.DeliveryTimeDays,
		Status:                   model.BidStatusPending,
		FreelancerRating:         stats.Rating,
		FreelancerCompletedTasks: stats.TasksCompleted,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.bids.Create(ctx, bid); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: you have already placed a bid on this task", ErrConflict)
		}
		return nil, err
	}

	s.notifier.Publish(ctx, &model.Notification{
		RecipientID: task.OwnerID,
		Type:        model.NotificationBidReceived,
		Title:       "New Bid Received",
		Message:     fmt.Sprintf("%s placed a bid of ₹%.0f on your task %q", principal.FullName, bid.Amount, task.Title),
		TaskID:      &task.ID,
		BidID:       &bid.ID,
		ActionURL:   bidActionURLPrefix + task.ID.String(),
		Priority:    model.PriorityMedium,
	})

	return bid, nil
}

// lookupStats degrades to a zeroed snapshot when the profile service fails
// or the profile is absent; bid creation must not depend on it.
func (s *BidService) lookupStats(ctx context.Context, userID string) model.FreelancerStats {
	stats, err := s.profiles.FindStats(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile lookup failed, using default stats")
		return model.FreelancerStats{}
	}
	if stats == nil {
		return model.FreelancerStats{}
	}
	return *stats
}

// Accept marks the bid accepted, moves the task to in-progress and bulk
// rejects every sibling bid still pending, all inside one transaction.
// The accepted bidder's contact details become visible from here on.
func (s *BidService) Accept(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, error) {
	return s.acceptTransition(ctx, principal, bidID, nil, model.TaskStatusInProgress)
}

// Assign is the direct-assignment path: the owner picks a bid on the task
// explicitly. It enforces the same invariants as Accept through the same
// transition, differing only in the final status and notification.
func (s *BidService) Assign(ctx context.Context, principal model.Principal, taskID, bidID uuid.UUID) (*model.Bid, error) {
	return s.acceptTransition(ctx, principal, bidID, &taskID, model.TaskStatusAssigned)
}

func (s *BidService) acceptTransition(ctx context.Context, principal model.Principal, bidID uuid.UUID, taskID *uuid.UUID, finalStatus model.TaskStatus) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if taskID != nil && bid.TaskID != *taskID {
		return nil, fmt.Errorf("%w: bid does not belong to this task", ErrNotFound)
	}

	task, err := s.getTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != principal.ID {
		return nil, fmt.Errorf("%w: only the task owner can accept bids", ErrPermissionDenied)
	}
	if task.Status != model.TaskStatusOpen {
		return nil, fmt.Errorf("%w: task is no longer open", ErrInvalidState)
	}
	if bid.Status != model.BidStatusPending {
		return nil, fmt.Errorf("%w: bid is no longer pending", ErrInvalidState)
	}

	now := time.Now().UTC()
	result, err := s.bids.Accept(ctx, AcceptBidParams{
		TaskID:       task.ID,
		BidID:        bid.ID,
		FreelancerID: bid.FreelancerID,
		ClientID:     task.OwnerID,
		Amount:       bid.Amount,
		FinalStatus:  finalStatus,
		Now:          now,
	})
	if err != nil {
		// A concurrent accept won the compare-and-swap.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task is no longer open", ErrInvalidState)
		}
		return nil, err
	}

	bid.Status = model.BidStatusAccepted
	bid.AcceptedAt = &now

	s.fanOutAcceptance(ctx, task, bid, result, finalStatus)
	return bid, nil
}

// fanOutAcceptance emits notifications after the transaction has
// committed. Emission is at-least-once; a lost notification never rolls
// back entity state.
func (s *BidService) fanOutAcceptance(ctx context.Context, task *model.Task, bid *model.Bid, result *AcceptBidResult, finalStatus model.TaskStatus) {
	actionURL := bidActionURLPrefix + task.ID.String()

	if finalStatus == model.TaskStatusAssigned {
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: bid.FreelancerID,
			Type:        model.NotificationTaskAssigned,
			Title:       "Task Assigned!",
			Message:     fmt.Sprintf("You have been assigned to complete the task: %q", task.Title),
			TaskID:      &task.ID,
			BidID:       &bid.ID,
			ActionURL:   actionURL,
			Priority:    model.PriorityHigh,
		})
	} else {
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: bid.FreelancerID,
			Type:        model.NotificationBidAccepted,
			Title:       "Bid Accepted!",
			Message:     fmt.Sprintf("Your bid of ₹%.0f on %q has been accepted!", bid.Amount, task.Title),
			TaskID:      &task.ID,
			BidID:       &bid.ID,
			ActionURL:   actionURL,
			Priority:    model.PriorityHigh,
		})
	}

	for i := range result.RejectedBids {
		rejected := result.RejectedBids[i]
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: rejected.FreelancerID,
			Type:        model.NotificationBidRejected,
			Title:       "Bid Not Selected",
			Message:     fmt.Sprintf("Your bid on %q was not selected. Keep applying to other tasks!", task.Title),
			TaskID:      &task.ID,
			BidID:       &rejected.ID,
			ActionURL:   browseTasksURL,
			Priority:    model.PriorityLow,
		})
	}

	if result.Payment != nil {
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: bid.FreelancerID,
			Type:        model.NotificationPaymentEscrowed,
			Title:       "Payment Escrowed",
			Message:     fmt.Sprintf("₹%.0f has been escrowed for %q", result.Payment.Amount, task.Title),
			TaskID:      &task.ID,
			ActionURL:   actionURL,
			Priority:    model.PriorityMedium,
		})
	}
}

// Reject declines a single pending bid without touching task status.
func (s *BidService) Reject(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	task, err := s.getTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != principal.ID {
		return nil, fmt.Errorf("%w: only the task owner can reject bids", ErrPermissionDenied)
	}
	if bid.Status != model.BidStatusPending {
		return nil, fmt.Errorf("%w: bid is no longer pending", ErrInvalidState)
	}

	now := time.Now().UTC()
	changed, err := s.bids.MarkRejected(ctx, bid.ID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: bid is no longer pending", ErrInvalidState)
	}
	bid.Status = model.BidStatusRejected
	bid.RejectedAt = &now

	s.notifier.Publish(ctx, &model.Notification{
		RecipientID: bid.FreelancerID,
		Type:        model.NotificationBidRejected,
		Title:       "Bid Not Selected",
		Message:     fmt.Sprintf("Your bid on %q was not selected. Keep applying to other tasks!", task.Title),
		TaskID:      &task.ID,
		BidID:       &bid.ID,
		ActionURL:   browseTasksURL,
		Priority:    model.PriorityLow,
	})

	return bid, nil
}

// Withdraw is self-initiated, so no notification is emitted. Withdrawing
// an already-withdrawn bid fails rather than silently succeeding again.
func (s *BidService) Withdraw(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.FreelancerID != principal.ID {
		return nil, fmt.Errorf("%w: you can only withdraw your own bids", ErrPermissionDenied)
	}
	if bid.Status != model.BidStatusPending {
		return nil, fmt.Errorf("%w: can only withdraw pending bids", ErrInvalidState)
	}

	now := time.Now().UTC()
	changed, err := s.bids.MarkWithdrawn(ctx, bid.ID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: can only withdraw pending bids", ErrInvalidState)
	}
	bid.Status = model.BidStatusWithdrawn
	bid.WithdrawnAt = &now
	return bid, nil
}

type UpdateBidInput struct {
	Amount           *float64
	Proposal         *string
	DeliveryTimeDays *int
}

func (s *BidService) Update(ctx context.Context, principal model.Principal, bidID uuid.UUID, input UpdateBidInput) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.FreelancerID != principal.ID {
		return nil, fmt.Errorf("%w: you can only update your own bids", ErrPermissionDenied)
	}
	if bid.Status != model.BidStatusPending {
		return nil, fmt.Errorf("%w: can only update pending bids", ErrInvalidState)
	}

	if input.Amount != nil {
		if *input.Amount < 1 {
			return nil, fmt.Errorf("%w: amount must be at least 1", ErrInvalidInput)
		}
		bid.Amount = *input.Amount
	}
	if input.Proposal != nil {
		proposal := strings.TrimSpace(*input.Proposal)
		if proposal == "" || len(proposal) > maxProposalLength {
			return nil, fmt.Errorf("%w: proposal must be between 1 and %d characters", ErrInvalidInput, maxProposalLength)
		}
		*input.Proposal = proposal
		bid.Proposal = proposal
	}
	if input.DeliveryTimeDays != nil {
		if *input.DeliveryTimeDays < 1 || *input.DeliveryTimeDays > maxDeliveryDays {
			return nil, fmt.Errorf("%w: delivery time must be between 1 and %d days", ErrInvalidInput, maxDeliveryDays)
		}
		bid.DeliveryTimeDays = *input.DeliveryTimeDays
	}

	if err := s.bids.UpdateFields(ctx, bid.ID, input.Amount, input.Proposal, input.DeliveryTimeDays); err != nil {
		return nil, err
	}
	return bid, nil
}

// Delete removes a bid the freelancer no longer wants listed. Pending bids
// must be withdrawn first; the task's bid counter is decremented with a
// floor of zero.
func (s *BidService) Delete(ctx context.Context, principal model.Principal, bidID uuid.UUID) error {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.FreelancerID != principal.ID {
		return fmt.Errorf("%w: you can only delete your own bids", ErrPermissionDenied)
	}
	if bid.Status == model.BidStatusPending || bid.Status == model.BidStatusAccepted {
		return fmt.Errorf("%w: withdraw the bid before deleting it", ErrInvalidState)
	}
	return s.bids.Delete(ctx, bid.ID)
}

// ListForTask applies the visibility rule: the task owner sees every bid,
// anyone else only their own. All views pass through the disclosure policy.
func (s *BidService) ListForTask(ctx context.Context, principal model.Principal, taskID uuid.UUID, number, limit int, sortBy, sortOrder string) ([]BidView, int64, error) {
	page, err := NormalizePage(number, limit, sortBy, sortOrder, bidSortFields)
	if err != nil {
		return nil, 0, err
	}

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, 0, err
	}

	freelancerID := ""
	if task.OwnerID != principal.ID {
		freelancerID = principal.ID
	}

	bids, total, err := s.bids.ListForTask(ctx, task.ID, freelancerID, page)
	if err != nil {
		return nil, 0, err
	}
	return PresentBids(bids, principal.ID), total, nil
}

func (s *BidService) ListMine(ctx context.Context, principal model.Principal, status string, number, limit int, sortBy, sortOrder string) ([]model.BidWithTask, int64, error) {
	page, err := NormalizePage(number, limit, sortBy, sortOrder, bidSortFields)
	if err != nil {
		return nil, 0, err
	}

	var bidStatus model.BidStatus
	if status != "" {
		bidStatus = model.BidStatus(status)
		if !bidStatus.Valid() {
			return nil, 0, fmt.Errorf("%w: unknown bid status %q", ErrInvalidInput, status)
		}
	}

	return s.bids.ListForFreelancer(ctx, principal.ID, bidStatus, page)
}

type BidStats struct {
	TotalBids       int64
	TotalBidAmount  float64
	StatusBreakdown []model.StatusCount
}

func (s *BidService) Stats(ctx context.Context) (*BidStats, error) {
	count, amount, err := s.bids.Totals(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.bids.StatusBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	return &BidStats{
		TotalBids:       count,
		TotalBidAmount:  amount,
		StatusBreakdown: breakdown,
	}, nil
}

func (s *BidService) getBid(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	bid, err := s.bids.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bid", ErrNotFound)
		}
		return nil, err
	}
	return bid, nil
}

func (s *BidService) getTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
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
