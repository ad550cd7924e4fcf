package model

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID            uuid.UUID
	TaskID        uuid.UUID
	ReviewerID    string
	ReviewerEmail string
	ReviewerName  string
	Rating        int
	Comment       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReviewWithTask joins the reviewed task's metadata for listings.
type ReviewWithTask struct {
	Review
	TaskTitle    string
	TaskCategory TaskCategory
	TaskBudget   float64
}
