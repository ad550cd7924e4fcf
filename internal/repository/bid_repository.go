package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
	"github.com/nurpe/taskmarket/internal/service"
)

const bidColumns = `
	id, task_id, freelancer_id, freelancer_email, freelancer_name,
	freelancer_phone, amount, proposal, delivery_time_days, status,
	accepted_at, rejected_at, withdrawn_at, freelancer_rating,
	freelancer_completed_tasks, created_at, updated_at
`

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&bid).Error; err != nil {
		return nil, err
	}
	if bid.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &bid, nil
}

func (r *BidRepository) GetLiveBid(ctx context.Context, taskID uuid.UUID, freelancerID string) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE task_id = ? AND freelancer_id = ? AND status = 'pending'
		LIMIT 1
	`, taskID, freelancerID).Scan(&bid).Error; err != nil {
		return nil, err
	}
	if bid.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &bid, nil
}

// Create inserts the bid and bumps the task's bid counter in one
// transaction. The uq_bids_live partial index surfaces a duplicate pending
// bid as gorm.ErrDuplicatedKey.
func (r *BidRepository) Create(ctx context.Context, bid *model.Bid) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			INSERT INTO bids (
				id, task_id, freelancer_id, freelancer_email, freelancer_name,
				freelancer_phone, amount, proposal, delivery_time_days, status,
				freelancer_rating, freelancer_completed_tasks, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			bid.ID,
			bid.TaskID,
			bid.FreelancerID,
			bid.FreelancerEmail,
			bid.FreelancerName,
			bid.FreelancerPhone,
			bid.Amount,
			bid.Proposal,
			bid.DeliveryTimeDays,
			bid.Status,
			bid.FreelancerRating,
			bid.FreelancerCompletedTasks,
			bid.CreatedAt,
			bid.UpdatedAt,
		).Error; err != nil {
			return err
		}

		return tx.Exec(`
			UPDATE tasks SET bid_count = bid_count + 1, updated_at = NOW()
			WHERE id = ?
		`, bid.TaskID).Error
	})
}

func (r *BidRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskID uuid.UUID
		if err := tx.Raw(`
			DELETE FROM bids WHERE id = ? RETURNING task_id
		`, id).Scan(&taskID).Error; err != nil {
			return err
		}
		if taskID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}

		// Counter never goes below zero even if it drifted.
		return tx.Exec(`
			UPDATE tasks SET bid_count = GREATEST(bid_count - 1, 0), updated_at = NOW()
			WHERE id = ?
		`, taskID).Error
	})
}

func (r *BidRepository) UpdateFields(ctx context.Context, id uuid.UUID, amount *float64, proposal *string, deliveryTimeDays *int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE bids SET
			amount = COALESCE(?, amount),
			proposal = COALESCE(?, proposal),
			delivery_time_days = COALESCE(?, delivery_time_days),
			updated_at = NOW()
		WHERE id = ?
	`, amount, proposal, deliveryTimeDays, id).Error
}

func (r *BidRepository) MarkRejected(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE bids
		SET status = 'rejected', rejected_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, at, at, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *BidRepository) MarkWithdrawn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE bids
		SET status = 'withdrawn', withdrawn_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, at, at, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Accept applies the whole winning transition in one transaction. The
// compare-and-swap on the task row decides the race: the first acceptance
// to commit moves the task out of open, every later attempt updates zero
// rows and rolls back with gorm.ErrRecordNotFound.
func (r *BidRepository) Accept(ctx context.Context, params service.AcceptBidParams) (*service.AcceptBidResult, error) {
	var out service.AcceptBidResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskCAS := tx.Exec(`
			UPDATE tasks
			SET status = ?,
				assigned_freelancer_id = ?,
				accepted_bid_id = ?,
				assigned_at = ?,
				updated_at = ?
			WHERE id = ? AND status = 'open'
		`, params.FinalStatus, params.FreelancerID, params.BidID, params.Now, params.Now, params.TaskID)
		if taskCAS.Error != nil {
			return taskCAS.Error
		}
		if taskCAS.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		bidCAS := tx.Exec(`
			UPDATE bids
			SET status = 'accepted', accepted_at = ?, updated_at = ?
			WHERE id = ? AND status = 'pending'
		`, params.Now, params.Now, params.BidID)
		if bidCAS.Error != nil {
			return bidCAS.Error
		}
		if bidCAS.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Raw(`
			UPDATE bids
			SET status = 'rejected', rejected_at = ?, updated_at = ?
			WHERE task_id = ? AND id <> ? AND status = 'pending'
			RETURNING `+bidColumns+`
		`, params.Now, params.Now, params.TaskID, params.BidID).Scan(&out.RejectedBids).Error; err != nil {
			return err
		}

		payment := &model.Payment{
			ID:           uuid.New(),
			TaskID:       params.TaskID,
			ClientID:     params.ClientID,
			FreelancerID: params.FreelancerID,
			Amount:       params.Amount,
			Status:       model.PaymentStatusEscrowed,
			CreatedAt:    params.Now,
		}
		if err := tx.Exec(`
			INSERT INTO payments (id, task_id, client_id, freelancer_id, amount, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			payment.ID,
			payment.TaskID,
			payment.ClientID,
			payment.FreelancerID,
			payment.Amount,
			payment.Status,
			payment.CreatedAt,
		).Error; err != nil {
			return err
		}
		out.Payment = payment

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *BidRepository) ListForTask(ctx context.Context, taskID uuid.UUID, freelancerID string, page service.Page) ([]model.Bid, int64, error) {
	where := " WHERE task_id = ?"
	args := []interface{}{taskID}
	if freelancerID != "" {
		where += " AND freelancer_id = ?"
		args = append(args, freelancerID)
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM bids`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bidColumns + ` FROM bids` + where + ` ORDER BY ` + page.SortColumn + sortDirection(page) + ` LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset())

	var bids []model.Bid
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&bids).Error; err != nil {
		return nil, 0, err
	}
	return bids, total, nil
}

func (r *BidRepository) ListForFreelancer(ctx context.Context, freelancerID string, status model.BidStatus, page service.Page) ([]model.BidWithTask, int64, error) {
	where := " WHERE b.freelancer_id = ?"
	args := []interface{}{freelancerID}
	if status != "" {
		where += " AND b.status = ?"
		args = append(args, status)
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM bids b`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			b.id, b.task_id, b.freelancer_id, b.freelancer_email,
			b.freelancer_name, b.freelancer_phone, b.amount, b.proposal,
			b.delivery_time_days, b.status, b.accepted_at, b.rejected_at,
			b.withdrawn_at, b.freelancer_rating, b.freelancer_completed_tasks,
			b.created_at, b.updated_at,
			t.title AS task_title,
			t.category AS task_category,
			t.budget AS task_budget,
			t.deadline AS task_deadline,
			t.status AS task_status
		FROM bids b
		JOIN tasks t ON t.id = b.task_id
	` + where + ` ORDER BY b.` + page.SortColumn + sortDirection(page) + ` LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset())

	var bids []model.BidWithTask
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&bids).Error; err != nil {
		return nil, 0, err
	}
	return bids, total, nil
}

func (r *BidRepository) CountForTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM bids WHERE task_id = ?
	`, taskID).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BidRepository) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) AS count, COALESCE(AVG(amount), 0) AS avg_amount
		FROM bids
		GROUP BY status
		ORDER BY status ASC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BidRepository) Totals(ctx context.Context) (int64, float64, error) {
	var row struct {
		Count  int64
		Amount float64
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount
		FROM bids
	`).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Count, row.Amount, nil
}
