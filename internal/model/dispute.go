package model

import (
	"time"

	"github.com/google/uuid"
)

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusClosed      DisputeStatus = "closed"
)

type DisputeReason string

const (
	DisputeReasonNotDelivered       DisputeReason = "work_not_delivered"
	DisputeReasonIncomplete         DisputeReason = "work_incomplete"
	DisputeReasonPoorQuality        DisputeReason = "work_poor_quality"
	DisputeReasonRequirementsNotMet DisputeReason = "requirements_not_met"
	DisputeReasonCommunication      DisputeReason = "communication_issues"
	DisputeReasonDeadlineMissed     DisputeReason = "deadline_missed"
	DisputeReasonPaymentIssue       DisputeReason = "payment_issue"
	DisputeReasonOther              DisputeReason = "other"
)

func (r DisputeReason) Valid() bool {
	switch r {
	case DisputeReasonNotDelivered, DisputeReasonIncomplete, DisputeReasonPoorQuality,
		DisputeReasonRequirementsNotMet, DisputeReasonCommunication,
		DisputeReasonDeadlineMissed, DisputeReasonPaymentIssue, DisputeReasonOther:
		return true
	}
	return false
}

type DisputeResolution string

const (
	ResolutionRefundClient  DisputeResolution = "refund_client"
	ResolutionPayFreelancer DisputeResolution = "pay_freelancer"
	ResolutionPartialRefund DisputeResolution = "partial_refund"
	ResolutionNoAction      DisputeResolution = "no_action"
)

func (r DisputeResolution) Valid() bool {
	switch r {
	case ResolutionRefundClient, ResolutionPayFreelancer, ResolutionPartialRefund, ResolutionNoAction:
		return true
	}
	return false
}

type Dispute struct {
	ID              uuid.UUID
	TaskID          uuid.UUID
	PaymentID       uuid.UUID
	InitiatorID     string
	RespondentID    string
	Reason          DisputeReason
	Description     string
	Status          DisputeStatus
	Resolution      *DisputeResolution
	ResolutionNotes *string
	AdminID         *string
	DisputeAmount   float64
	RefundAmount    float64
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type DisputeMessage struct {
	ID             uuid.UUID
	DisputeID      uuid.UUID
	SenderID       string
	SenderName     string
	Message        string
	IsAdminMessage bool
	SentAt         time.Time
}
