package model

import (
	"time"

	"github.com/google/uuid"
)

type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusWithdrawn BidStatus = "withdrawn"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn:
		return true
	}
	return false
}

// Bid stores the freelancer's real contact details at all times; redaction
// happens at the presentation boundary, never in storage.
type Bid struct {
	ID                       uuid.UUID
	TaskID                   uuid.UUID
	FreelancerID             string
	FreelancerEmail          string
	FreelancerName           string
	FreelancerPhone          string
	Amount                   float64
	Proposal                 string
	DeliveryTimeDays         int
	Status                   BidStatus
	AcceptedAt               *time.Time
	RejectedAt               *time.Time
	WithdrawnAt              *time.Time
	FreelancerRating         float64
	FreelancerCompletedTasks int64
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// BidWithTask joins the owning task's metadata for "my bids" listings.
type BidWithTask struct {
	Bid
	TaskTitle    string
	TaskCategory TaskCategory
	TaskBudget   float64
	TaskDeadline time.Time
	TaskStatus   TaskStatus
}

// FreelancerStats is the reputation snapshot taken when a bid is placed.
type FreelancerStats struct {
	Rating         float64
	TasksCompleted int64
}
