package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBidReceived      NotificationType = "bid_received"
	NotificationBidAccepted      NotificationType = "bid_accepted"
	NotificationBidRejected      NotificationType = "bid_rejected"
	NotificationTaskAssigned     NotificationType = "task_assigned"
	NotificationTaskCompleted    NotificationType = "task_completed"
	NotificationTaskSubmitted    NotificationType = "task_submitted"
	NotificationPaymentEscrowed  NotificationType = "payment_escrowed"
	NotificationPaymentReleased  NotificationType = "payment_released"
	NotificationDisputeCreated   NotificationType = "dispute_created"
	NotificationDisputeResolved  NotificationType = "dispute_resolved"
	NotificationReviewReceived   NotificationType = "review_received"
	NotificationDeadlineReminder NotificationType = "task_deadline_reminder"
	NotificationSystemMessage    NotificationType = "system_message"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

func (p NotificationPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is append-only: after creation only the read state changes,
// until the row is deleted or expires.
type Notification struct {
	ID          uuid.UUID
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	TaskID      *uuid.UUID
	BidID       *uuid.UUID
	DisputeID   *uuid.UUID
	ActionURL   string
	Priority    NotificationPriority
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type NotificationFilter struct {
	RecipientID string
	IsRead      *bool
	Type        NotificationType
	Priority    NotificationPriority
}
