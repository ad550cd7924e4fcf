package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
	"github.com/nurpe/taskmarket/internal/service"
)

const disputeColumns = `
	id, task_id, payment_id, initiator_id, respondent_id, reason,
	description, status, resolution, resolution_notes, admin_id,
	dispute_amount, refund_amount, resolved_at, created_at, updated_at
`

type DisputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Get(ctx context.Context, id uuid.UUID) (*model.Dispute, error) {
	var dispute model.Dispute
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+disputeColumns+`
		FROM disputes
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&dispute).Error; err != nil {
		return nil, err
	}
	if dispute.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &dispute, nil
}

func (r *DisputeRepository) GetByPayment(ctx context.Context, paymentID uuid.UUID) (*model.Dispute, error) {
	var dispute model.Dispute
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+disputeColumns+`
		FROM disputes
		WHERE payment_id = ?
		LIMIT 1
	`, paymentID).Scan(&dispute).Error; err != nil {
		return nil, err
	}
	if dispute.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &dispute, nil
}

// Create inserts the dispute and freezes the payment and task in the same
// transaction.
func (r *DisputeRepository) Create(ctx context.Context, dispute *model.Dispute) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			INSERT INTO disputes (
				id, task_id, payment_id, initiator_id, respondent_id, reason,
				description, status, dispute_amount, refund_amount,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		`,
			dispute.ID,
			dispute.TaskID,
			dispute.PaymentID,
			dispute.InitiatorID,
			dispute.RespondentID,
			dispute.Reason,
			dispute.Description,
			dispute.Status,
			dispute.DisputeAmount,
			dispute.CreatedAt,
			dispute.UpdatedAt,
		).Error; err != nil {
			return err
		}

		if err := tx.Exec(`
			UPDATE payments
			SET status = 'disputed', dispute_id = ?, disputed_at = ?
			WHERE id = ?
		`, dispute.ID, dispute.CreatedAt, dispute.PaymentID).Error; err != nil {
			return err
		}

		return tx.Exec(`
			UPDATE tasks
			SET status = 'disputed',
				dispute_reason = ?,
				disputed_at = ?,
				updated_at = ?
			WHERE id = ?
		`, string(dispute.Reason), dispute.CreatedAt, dispute.CreatedAt, dispute.TaskID).Error
	})
}

func (r *DisputeRepository) AddMessage(ctx context.Context, msg *model.DisputeMessage) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO dispute_messages (
			id, dispute_id, sender_id, sender_name, message, is_admin_message, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		msg.ID,
		msg.DisputeID,
		msg.SenderID,
		msg.SenderName,
		msg.Message,
		msg.IsAdminMessage,
		msg.SentAt,
	).Error
}

func (r *DisputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID) ([]model.DisputeMessage, error) {
	var messages []model.DisputeMessage
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, dispute_id, sender_id, sender_name, message, is_admin_message, sent_at
		FROM dispute_messages
		WHERE dispute_id = ?
		ORDER BY sent_at ASC
	`, disputeID).Scan(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// Resolve applies the outcome across dispute, payment and task in one
// transaction. The status guard makes a second resolution a no-op error
// instead of a double apply.
func (r *DisputeRepository) Resolve(ctx context.Context, disputeID uuid.UUID, effect service.DisputeEffect) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct {
			TaskID    uuid.UUID
			PaymentID uuid.UUID
		}
		if err := tx.Raw(`
			UPDATE disputes
			SET status = 'resolved',
				resolution = ?,
				resolution_notes = ?,
				admin_id = ?,
				refund_amount = ?,
				resolved_at = ?,
				updated_at = ?
			WHERE id = ? AND status IN ('open', 'under_review')
			RETURNING task_id, payment_id
		`,
			effect.Resolution,
			effect.ResolutionNotes,
			effect.AdminID,
			effect.RefundAmount,
			effect.Now,
			effect.Now,
			disputeID,
		).Scan(&row).Error; err != nil {
			return err
		}
		if row.TaskID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}

		if effect.PaymentStatus != nil {
			query := `
				UPDATE payments
				SET status = ?, released_at = ?, refunded_at = ?
				WHERE id = ?
			`
			var releasedAt, refundedAt interface{}
			switch *effect.PaymentStatus {
			case model.PaymentStatusReleased:
				releasedAt = effect.Now
			case model.PaymentStatusRefunded:
				refundedAt = effect.Now
			}
			if err := tx.Exec(query, *effect.PaymentStatus, releasedAt, refundedAt, row.PaymentID).Error; err != nil {
				return err
			}
		}

		if effect.TaskStatus != nil {
			var completedAt interface{}
			if *effect.TaskStatus == model.TaskStatusCompleted {
				completedAt = effect.Now
			}
			if err := tx.Exec(`
				UPDATE tasks
				SET status = ?, completed_at = ?, updated_at = ?
				WHERE id = ?
			`, *effect.TaskStatus, completedAt, effect.Now, row.TaskID).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *DisputeRepository) ListForUser(ctx context.Context, userID string, status model.DisputeStatus, page service.Page) ([]model.Dispute, int64, error) {
	where := " WHERE (initiator_id = ? OR respondent_id = ?)"
	args := []interface{}{userID, userID}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}
	return r.list(ctx, where, args, page)
}

func (r *DisputeRepository) List(ctx context.Context, status model.DisputeStatus, page service.Page) ([]model.Dispute, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}
	return r.list(ctx, where, args, page)
}

func (r *DisputeRepository) list(ctx context.Context, where string, args []interface{}, page service.Page) ([]model.Dispute, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM disputes`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + disputeColumns + ` FROM disputes` + where + ` ORDER BY ` + page.SortColumn + sortDirection(page) + ` LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset())

	var disputes []model.Dispute
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&disputes).Error; err != nil {
		return nil, 0, err
	}
	return disputes, total, nil
}

func (r *DisputeRepository) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) AS count, COALESCE(AVG(dispute_amount), 0) AS avg_amount
		FROM disputes
		GROUP BY status
		ORDER BY status ASC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
