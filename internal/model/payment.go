package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus models escrow as a plain status field. No money moves here;
// settlement is handled outside this service.
type PaymentStatus string

const (
	PaymentStatusEscrowed  PaymentStatus = "escrowed"
	PaymentStatusSubmitted PaymentStatus = "submitted"
	PaymentStatusDisputed  PaymentStatus = "disputed"
	PaymentStatusReleased  PaymentStatus = "released"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID           uuid.UUID
	TaskID       uuid.UUID
	ClientID     string
	FreelancerID string
	Amount       float64
	Status       PaymentStatus
	DisputeID    *uuid.UUID
	RefundReason *string
	DisputedAt   *time.Time
	ReleasedAt   *time.Time
	RefundedAt   *time.Time
	CreatedAt    time.Time
}
