package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/taskmarket/internal/model"
)

// Collaborator interfaces are declared here, on the consuming side, so the
// lifecycle engines can be exercised against in-memory fakes. The gorm
// repositories implement them.

type TaskStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter model.TaskFilter, page Page) ([]model.Task, int64, error)
	// CancelIfOpen flips an open task to cancelled; reports whether a row
	// actually changed (false means the task was no longer open).
	CancelIfOpen(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// MarkSubmitted succeeds only while the task is in-progress.
	MarkSubmitted(ctx context.Context, id uuid.UUID, url, notes string, at time.Time) (bool, error)
	// MarkStarted succeeds only while the task is assigned.
	MarkStarted(ctx context.Context, id uuid.UUID) (bool, error)
	// ResolveSubmission moves a submitted task to completed or back to
	// assigned; completedAt is set only for the completed outcome.
	ResolveSubmission(ctx context.Context, id uuid.UUID, to model.TaskStatus, completedAt *time.Time) (bool, error)
	StatusBreakdown(ctx context.Context) ([]model.StatusCount, error)
	CategoryBreakdown(ctx context.Context) ([]model.CategoryCount, error)
	Totals(ctx context.Context) (count int64, budget float64, err error)
}

// AcceptBidParams is the single consistent unit applied when a bid wins a
// task, whether through the generic accept path or direct assignment.
type AcceptBidParams struct {
	TaskID       uuid.UUID
	BidID        uuid.UUID
	FreelancerID string
	ClientID     string
	Amount       float64
	FinalStatus  model.TaskStatus
	Now          time.Time
}

// AcceptBidResult carries everything the notification fan-out needs after
// the transaction commits.
type AcceptBidResult struct {
	RejectedBids []model.Bid
	Payment      *model.Payment
}

type BidStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Bid, error)
	// GetLiveBid returns the pending bid a freelancer holds on a task, or
	// gorm.ErrRecordNotFound. Withdrawn and rejected bids do not count.
	GetLiveBid(ctx context.Context, taskID uuid.UUID, freelancerID string) (*model.Bid, error)
	// Create inserts the bid and increments the task's bid counter in the
	// same transaction. Returns gorm.ErrDuplicatedKey if the freelancer
	// already holds a pending bid on the task.
	Create(ctx context.Context, bid *model.Bid) error
	// Delete removes the bid and decrements the task's bid counter,
	// clamping at zero.
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateFields(ctx context.Context, id uuid.UUID, amount *float64, proposal *string, deliveryTimeDays *int) error
	// MarkRejected and MarkWithdrawn succeed only from pending.
	MarkRejected(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkWithdrawn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// Accept applies the whole winning transition as one transaction:
	// compare-and-swap the task out of open, mark the bid accepted, bulk
	// reject pending siblings and escrow the payment record. Returns
	// gorm.ErrRecordNotFound when the CAS loses (task no longer open or
	// bid no longer pending); nothing is committed in that case.
	Accept(ctx context.Context, params AcceptBidParams) (*AcceptBidResult, error)
	ListForTask(ctx context.Context, taskID uuid.UUID, freelancerID string, page Page) ([]model.Bid, int64, error)
	ListForFreelancer(ctx context.Context, freelancerID string, status model.BidStatus, page Page) ([]model.BidWithTask, int64, error)
	CountForTask(ctx context.Context, taskID uuid.UUID) (int64, error)
	StatusBreakdown(ctx context.Context) ([]model.StatusCount, error)
	Totals(ctx context.Context) (count int64, amount float64, err error)
}

type NotificationStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	Append(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, filter model.NotificationFilter, page Page) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	DeleteReadOlderThan(ctx context.Context, recipientID string, before time.Time) (int64, error)
}

type PaymentStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	GetByTask(ctx context.Context, taskID uuid.UUID) (*model.Payment, error)
	MarkReleased(ctx context.Context, id uuid.UUID, at time.Time) error
}

// DisputeEffect is the outcome a resolution code maps to; the dispute
// store applies it to the dispute, payment and task in one transaction.
type DisputeEffect struct {
	Resolution      model.DisputeResolution
	ResolutionNotes string
	AdminID         string
	RefundAmount    float64
	PaymentStatus   *model.PaymentStatus
	TaskStatus      *model.TaskStatus
	Now             time.Time
}

type DisputeStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Dispute, error)
	GetByPayment(ctx context.Context, paymentID uuid.UUID) (*model.Dispute, error)
	// Create inserts the dispute and flips the payment and task to
	// disputed in the same transaction.
	Create(ctx context.Context, dispute *model.Dispute) error
	AddMessage(ctx context.Context, msg *model.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID uuid.UUID) ([]model.DisputeMessage, error)
	// Resolve applies the effect atomically across dispute, payment, task.
	Resolve(ctx context.Context, disputeID uuid.UUID, effect DisputeEffect) error
	ListForUser(ctx context.Context, userID string, status model.DisputeStatus, page Page) ([]model.Dispute, int64, error)
	List(ctx context.Context, status model.DisputeStatus, page Page) ([]model.Dispute, int64, error)
	StatusBreakdown(ctx context.Context) ([]model.StatusCount, error)
}

type ReviewStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.ReviewWithTask, error)
	Create(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, taskID uuid.UUID, reviewerID string) (bool, error)
	List(ctx context.Context, taskID *uuid.UUID, rating int, reviewerID string, page Page) ([]model.ReviewWithTask, int64, error)
	RatingBreakdown(ctx context.Context) ([]model.StatusCount, error)
	Average(ctx context.Context) (count int64, avg float64, err error)
}

// ProfileStore looks up a freelancer's public reputation stats. A failing
// or absent profile must not fail bid creation; callers degrade to zeroed
// stats.
type ProfileStore interface {
	FindStats(ctx context.Context, userID string) (*model.FreelancerStats, error)
}

// Notifier is the sink lifecycle engines emit to after their transaction
// commits. Delivery is at-least-once and failures are swallowed by the
// implementation; entity state is never coupled to it.
type Notifier interface {
	Publish(ctx context.Context, n *model.Notification)
}
