package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusSubmitted  TaskStatus = "submitted"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusDisputed   TaskStatus = "disputed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusSubmitted, TaskStatusCompleted, TaskStatusCancelled, TaskStatusDisputed:
		return true
	}
	return false
}

type TaskCategory string

const (
	CategoryAcademicWriting TaskCategory = "Academic Writing"
	CategoryProgramming     TaskCategory = "Programming"
	CategoryDesign          TaskCategory = "Design"
	CategoryResearch        TaskCategory = "Research"
	CategoryTranslation     TaskCategory = "Translation"
	CategoryDataAnalysis    TaskCategory = "Data Analysis"
	CategoryPresentation    TaskCategory = "Presentation"
	CategoryOther           TaskCategory = "Other"
)

func (c TaskCategory) Valid() bool {
	switch c {
	case CategoryAcademicWriting, CategoryProgramming, CategoryDesign, CategoryResearch,
		CategoryTranslation, CategoryDataAnalysis, CategoryPresentation, CategoryOther:
		return true
	}
	return false
}

type Task struct {
	ID                   uuid.UUID
	Title                string
	Description          string
	Category             TaskCategory
	College              string
	Budget               float64
	Deadline             time.Time
	Location             string
	Requirements         string
	Status               TaskStatus
	OwnerID              string
	OwnerEmail           string
	OwnerName            string
	AssignedFreelancerID *string
	AcceptedBidID        *uuid.UUID
	BidCount             int64
	SubmissionURL        *string
	SubmissionNotes      *string
	DisputeReason        *string
	AssignedAt           *time.Time
	SubmittedAt          *time.Time
	CompletedAt          *time.Time
	ClientApprovedAt     *time.Time
	DisputedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TaskFilter narrows list queries; zero values mean "no filter".
type TaskFilter struct {
	Category  TaskCategory
	College   string
	Status    TaskStatus
	OwnerID   string
	MinBudget float64
	MaxBudget float64
	Search    string
}
