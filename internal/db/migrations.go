package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'task_status') THEN
			CREATE TYPE task_status AS ENUM ('open', 'assigned', 'in-progress', 'submitted', 'completed', 'cancelled', 'disputed');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'bid_status') THEN
			CREATE TYPE bid_status AS ENUM ('pending', 'accepted', 'rejected', 'withdrawn');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_status') THEN
			CREATE TYPE payment_status AS ENUM ('escrowed', 'submitted', 'disputed', 'released', 'refunded');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'dispute_status') THEN
			CREATE TYPE dispute_status AS ENUM ('open', 'under_review', 'resolved', 'closed');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'notification_priority') THEN
			CREATE TYPE notification_priority AS ENUM ('low', 'medium', 'high', 'urgent');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title VARCHAR(100) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(64) NOT NULL,
		college VARCHAR(100) NOT NULL,
		budget NUMERIC(12,2) NOT NULL,
		deadline TIMESTAMPTZ NOT NULL,
		location VARCHAR(100) NOT NULL DEFAULT '',
		requirements VARCHAR(500) NOT NULL DEFAULT '',
		status task_status NOT NULL DEFAULT 'open',
		owner_id VARCHAR(64) NOT NULL,
		owner_email VARCHAR(255) NOT NULL,
		owner_name VARCHAR(255) NOT NULL,
		assigned_freelancer_id VARCHAR(64),
		accepted_bid_id UUID,
		bid_count BIGINT NOT NULL DEFAULT 0,
		submission_url TEXT,
		submission_notes TEXT,
		dispute_reason TEXT,
		assigned_at TIMESTAMPTZ,
		submitted_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		client_approved_at TIMESTAMPTZ,
		disputed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks (owner_id);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks (category);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks (deadline) WHERE status = 'open';`,
	`CREATE TABLE IF NOT EXISTS bids (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		freelancer_id VARCHAR(64) NOT NULL,
		freelancer_email VARCHAR(255) NOT NULL,
		freelancer_name VARCHAR(255) NOT NULL,
		freelancer_phone VARCHAR(32) NOT NULL DEFAULT '',
		amount NUMERIC(12,2) NOT NULL,
		proposal VARCHAR(1000) NOT NULL,
		delivery_time_days INT NOT NULL,
		status bid_status NOT NULL DEFAULT 'pending',
		accepted_at TIMESTAMPTZ,
		rejected_at TIMESTAMPTZ,
		withdrawn_at TIMESTAMPTZ,
		freelancer_rating NUMERIC(3,2) NOT NULL DEFAULT 0,
		freelancer_completed_tasks BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	// One live bid per freelancer per task; withdrawn and rejected bids
	// do not block a new one.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bids_live ON bids (task_id, freelancer_id) WHERE status = 'pending';`,
	`CREATE INDEX IF NOT EXISTS idx_bids_task_id ON bids (task_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_freelancer_id ON bids (freelancer_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_status ON bids (status);`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id),
		client_id VARCHAR(64) NOT NULL,
		freelancer_id VARCHAR(64) NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		status payment_status NOT NULL DEFAULT 'escrowed',
		dispute_id UUID,
		refund_reason TEXT,
		disputed_at TIMESTAMPTZ,
		released_at TIMESTAMPTZ,
		refunded_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_task_id ON payments (task_id);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status);`,
	`CREATE TABLE IF NOT EXISTS disputes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id),
		payment_id UUID NOT NULL REFERENCES payments(id),
		initiator_id VARCHAR(64) NOT NULL,
		respondent_id VARCHAR(64) NOT NULL,
		reason VARCHAR(64) NOT NULL,
		description VARCHAR(2000) NOT NULL,
		status dispute_status NOT NULL DEFAULT 'open',
		resolution VARCHAR(32),
		resolution_notes TEXT,
		admin_id VARCHAR(64),
		dispute_amount NUMERIC(12,2) NOT NULL,
		refund_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		resolved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_disputes_payment ON disputes (payment_id);`,
	`CREATE INDEX IF NOT EXISTS idx_disputes_status ON disputes (status);`,
	`CREATE INDEX IF NOT EXISTS idx_disputes_initiator ON disputes (initiator_id);`,
	`CREATE INDEX IF NOT EXISTS idx_disputes_respondent ON disputes (respondent_id);`,
	`CREATE TABLE IF NOT EXISTS dispute_messages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		dispute_id UUID NOT NULL REFERENCES disputes(id) ON DELETE CASCADE,
		sender_id VARCHAR(64) NOT NULL,
		sender_name VARCHAR(255) NOT NULL,
		message VARCHAR(1000) NOT NULL,
		is_admin_message BOOLEAN NOT NULL DEFAULT FALSE,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dispute_messages_dispute ON dispute_messages (dispute_id);`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		reviewer_id VARCHAR(64) NOT NULL,
		reviewer_email VARCHAR(255) NOT NULL,
		reviewer_name VARCHAR(255) NOT NULL,
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment VARCHAR(500) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_reviews_task_reviewer ON reviews (task_id, reviewer_id);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		recipient_id VARCHAR(64) NOT NULL,
		type VARCHAR(64) NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		task_id UUID,
		bid_id UUID,
		dispute_id UUID,
		action_url TEXT NOT NULL DEFAULT '',
		priority notification_priority NOT NULL DEFAULT 'medium',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (recipient_id) WHERE is_read = FALSE;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
