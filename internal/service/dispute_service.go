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
	minDisputeDescription = 20
	maxDisputeDescription = 2000
	maxDisputeMessage     = 1000
)

var disputeSortFields = map[string]string{
	"createdAt": "created_at",
	"status":    "status",
}

// AuthorizationPolicy decides who may act as a dispute resolver.
type AuthorizationPolicy interface {
	CanResolveDisputes(principal model.Principal) bool
}

// RolePolicy grants resolution to admins, or to anyone when AllowAny is set
// (deployments without a role claim in their tokens).
type RolePolicy struct {
	AllowAny bool
}

func (p RolePolicy) CanResolveDisputes(principal model.Principal) bool {
	return p.AllowAny || principal.IsAdmin()
}

// DisputeService manages payment disputes between the two parties of a
// task. Opening a dispute freezes the payment; resolution applies one of
// the fixed outcome codes across payment and task atomically.
type DisputeService struct {
	disputes DisputeStore
	payments PaymentStore
	tasks    TaskStore
	notifier Notifier
	policy   AuthorizationPolicy
	log      zerolog.Logger
}

func NewDisputeService(disputes DisputeStore, payments PaymentStore, tasks TaskStore, notifier Notifier, policy AuthorizationPolicy, log zerolog.Logger) *DisputeService {
	return &DisputeService{
		disputes: disputes,
		payments: payments,
		tasks:    tasks,
		notifier: notifier,
		policy:   policy,
		log:      log,
	}
}

type CreateDisputeInput struct {
	PaymentID   uuid.UUID
	Reason      string
	Description string
}

func (s *DisputeService) Create(ctx context.Context, principal model.Principal, input CreateDisputeInput) (*model.Dispute, error) {
	reason := model.DisputeReason(input.Reason)
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: invalid dispute reason", ErrInvalidInput)
	}
	description := strings.TrimSpace(input.Description)
	if len(description) < minDisputeDescription || len(description) > maxDisputeDescription {
		return nil, fmt.Errorf("%w: description must be between %d and %d characters", ErrInvalidInput, minDisputeDescription, maxDisputeDescription)
	}

	payment, err := s.payments.Get(ctx, input.PaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment", ErrNotFound)
		}
		return nil, err
	}

	var respondentID string
	switch principal.ID {
	case payment.ClientID:
		respondentID = payment.FreelancerID
	case payment.FreelancerID:
		respondentID = payment.ClientID
	default:
		return nil, fmt.Errorf("%w: only the payment parties can open a dispute", ErrPermissionDenied)
	}

	if payment.Status != model.PaymentStatusEscrowed && payment.Status != model.PaymentStatusSubmitted {
		return nil, fmt.Errorf("%w: payment is not disputable in its current state", ErrInvalidState)
	}
	if _, err := s.disputes.GetByPayment(ctx, payment.ID); err == nil {
		return nil, fmt.Errorf("%w: payment already has a dispute", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	dispute := &model.Dispute{
		ID:            uuid.New(),
		TaskID:        payment.TaskID,
		PaymentID:     payment.ID,
		InitiatorID:   principal.ID,
		RespondentID:  respondentID,
		Reason:        reason,
		Description:   description,
		Status:        model.DisputeStatusOpen,
		DisputeAmount: payment.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: payment already has a dispute", ErrConflict)
		}
		return nil, err
	}

	s.notifier.Publish(ctx, &model.Notification{
		RecipientID: respondentID,
		Type:        model.NotificationDisputeCreated,
		Title:       "Dispute Opened",
		Message:     fmt.Sprintf("A dispute has been opened over a payment of ₹%.0f.", payment.Amount),
		TaskID:      &payment.TaskID,
		DisputeID:   &dispute.ID,
		Priority:    model.PriorityUrgent,
	})

	return dispute, nil
}

func (s *DisputeService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Dispute, error) {
	dispute, err := s.getDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(principal, dispute) {
		return nil, fmt.Errorf("%w: not a party to this dispute", ErrPermissionDenied)
	}
	return dispute, nil
}

func (s *DisputeService) ListMine(ctx context.Context, principal model.Principal, status string, number, limit int) ([]model.Dispute, int64, error) {
	page, err := NormalizePage(number, limit, "createdAt", "desc", disputeSortFields)
	if err != nil {
		return nil, 0, err
	}
	return s.disputes.ListForUser(ctx, principal.ID, model.DisputeStatus(status), page)
}

// ListAll is the resolver queue.
func (s *DisputeService) ListAll(ctx context.Context, principal model.Principal, status string, number, limit int) ([]model.Dispute, int64, error) {
	if !s.policy.CanResolveDisputes(principal) {
		return nil, 0, fmt.Errorf("%w: dispute queue is restricted to resolvers", ErrPermissionDenied)
	}
	page, err := NormalizePage(number, limit, "createdAt", "desc", disputeSortFields)
	if err != nil {
		return nil, 0, err
	}
	return s.disputes.List(ctx, model.DisputeStatus(status), page)
}

func (s *DisputeService) AddMessage(ctx context.Context, principal model.Principal, disputeID uuid.UUID, message string) (*model.DisputeMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" || len(message) > maxDisputeMessage {
		return nil, fmt.Errorf("%w: message must be between 1 and %d characters", ErrInvalidInput, maxDisputeMessage)
	}

	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	isResolver := s.policy.CanResolveDisputes(principal)
	if !s.isParty(principal, dispute) && !isResolver {
		return nil, fmt.Errorf("%w: not a party to this dispute", ErrPermissionDenied)
	}
	if dispute.Status == model.DisputeStatusResolved || dispute.Status == model.DisputeStatusClosed {
		return nil, fmt.Errorf("%w: dispute is closed", ErrInvalidState)
	}

	msg := &model.DisputeMessage{
		ID:             uuid.New(),
		DisputeID:      dispute.ID,
		SenderID:       principal.ID,
		SenderName:     principal.FullName,
		Message:        message,
		IsAdminMessage: isResolver && !s.isParty(principal, dispute),
		SentAt:         time.Now().UTC(),
	}
	if err := s.disputes.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	other := dispute.RespondentID
	if principal.ID == dispute.RespondentID {
		other = dispute.InitiatorID
	}
	if other != principal.ID {
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: other,
			Type:        model.NotificationSystemMessage,
			Title:       "New Dispute Message",
			Message:     "A new message was posted on your dispute.",
			TaskID:      &dispute.TaskID,
			DisputeID:   &dispute.ID,
			Priority:    model.PriorityMedium,
		})
	}
	return msg, nil
}

func (s *DisputeService) Messages(ctx context.Context, principal model.Principal, disputeID uuid.UUID) ([]model.DisputeMessage, error) {
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !s.canView(principal, dispute) {
		return nil, fmt.Errorf("%w: not a party to this dispute", ErrPermissionDenied)
	}
	return s.disputes.ListMessages(ctx, disputeID)
}

type ResolveDisputeInput struct {
	Resolution      string
	ResolutionNotes string
	RefundAmount    float64
}

// Resolve applies one of the fixed outcome codes. refund_client refunds the
// payment and cancels the task, pay_freelancer and partial_refund release
// the payment and complete the task, no_action leaves both untouched.
func (s *DisputeService) Resolve(ctx context.Context, principal model.Principal, id uuid.UUID, input ResolveDisputeInput) (*model.Dispute, error) {
	if !s.policy.CanResolveDisputes(principal) {
		return nil, fmt.Errorf("%w: dispute resolution is restricted to resolvers", ErrPermissionDenied)
	}
	resolution := model.DisputeResolution(input.Resolution)
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: invalid resolution", ErrInvalidInput)
	}
	notes := strings.TrimSpace(input.ResolutionNotes)
	if notes == "" {
		return nil, fmt.Errorf("%w: resolution notes are required", ErrInvalidInput)
	}

	dispute, err := s.getDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	if dispute.Status == model.DisputeStatusResolved || dispute.Status == model.DisputeStatusClosed {
		return nil, fmt.Errorf("%w: dispute is already resolved", ErrInvalidState)
	}

	effect := DisputeEffect{
		Resolution:      resolution,
		ResolutionNotes: notes,
		AdminID:         principal.ID,
		Now:             time.Now().UTC(),
	}
	switch resolution {
	case model.ResolutionRefundClient:
		paymentStatus := model.PaymentStatusRefunded
		taskStatus := model.TaskStatusCancelled
		effect.PaymentStatus = &paymentStatus
		effect.TaskStatus = &taskStatus
		effect.RefundAmount = dispute.DisputeAmount
	case model.ResolutionPayFreelancer:
		paymentStatus := model.PaymentStatusReleased
		taskStatus := model.TaskStatusCompleted
		effect.PaymentStatus = &paymentStatus
		effect.TaskStatus = &taskStatus
	case model.ResolutionPartialRefund:
		if input.RefundAmount <= 0 || input.RefundAmount >= dispute.DisputeAmount {
			return nil, fmt.Errorf("%w: refund amount must be between 0 and the disputed amount", ErrInvalidInput)
		}
		paymentStatus := model.PaymentStatusReleased
		taskStatus := model.TaskStatusCompleted
		effect.PaymentStatus = &paymentStatus
		effect.TaskStatus = &taskStatus
		effect.RefundAmount = input.RefundAmount
	case model.ResolutionNoAction:
	}

	if err := s.disputes.Resolve(ctx, id, effect); err != nil {
		return nil, err
	}

	dispute.Status = model.DisputeStatusResolved
	dispute.Resolution = &resolution
	dispute.ResolutionNotes = &notes
	dispute.AdminID = &effect.AdminID
	dispute.RefundAmount = effect.RefundAmount
	dispute.ResolvedAt = &effect.Now

	for _, recipient := range []string{dispute.InitiatorID, dispute.RespondentID} {
		s.notifier.Publish(ctx, &model.Notification{
			RecipientID: recipient,
			Type:        model.NotificationDisputeResolved,
			Title:       "Dispute Resolved",
			Message:     fmt.Sprintf("Your dispute has been resolved: %s.", resolution),
			TaskID:      &dispute.TaskID,
			DisputeID:   &dispute.ID,
			Priority:    model.PriorityHigh,
		})
	}
	return dispute, nil
}

func (s *DisputeService) Stats(ctx context.Context, principal model.Principal) ([]model.StatusCount, error) {
	if !s.policy.CanResolveDisputes(principal) {
		return nil, fmt.Errorf("%w: dispute stats are restricted to resolvers", ErrPermissionDenied)
	}
	return s.disputes.StatusBreakdown(ctx)
}

func (s *DisputeService) isParty(principal model.Principal, dispute *model.Dispute) bool {
	return principal.ID == dispute.InitiatorID || principal.ID == dispute.RespondentID
}

func (s *DisputeService) canView(principal model.Principal, dispute *model.Dispute) bool {
	return s.isParty(principal, dispute) || s.policy.CanResolveDisputes(principal)
}

func (s *DisputeService) getDispute(ctx context.Context, id uuid.UUID) (*model.Dispute, error) {
	dispute, err := s.disputes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dispute", ErrNotFound)
		}
		return nil, err
	}
	return dispute, nil
}
