package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
	"github.com/nurpe/taskmarket/internal/service"
)

const notificationColumns = `
	id, recipient_id, type, title, message, task_id, bid_id, dispute_id,
	action_url, priority, is_read, read_at, created_at, expires_at
`

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&n).Error; err != nil {
		return nil, err
	}
	if n.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (r *NotificationRepository) Append(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO notifications (
			id, recipient_id, type, title, message, task_id, bid_id,
			dispute_id, action_url, priority, is_read, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)
	`,
		n.ID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.TaskID,
		n.BidID,
		n.DisputeID,
		n.ActionURL,
		n.Priority,
		n.CreatedAt,
		n.ExpiresAt,
	).Error
}

func (r *NotificationRepository) List(ctx context.Context, filter model.NotificationFilter, page service.Page) ([]model.Notification, int64, error) {
	where := " WHERE recipient_id = ? AND expires_at > NOW()"
	args := []interface{}{filter.RecipientID}
	if filter.IsRead != nil {
		where += " AND is_read = ?"
		args = append(args, *filter.IsRead)
	}
	if filter.Type != "" {
		where += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Priority != "" {
		where += " AND priority = ?"
		args = append(args, filter.Priority)
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications` + where + ` ORDER BY ` + page.SortColumn + sortDirection(page) + ` LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset())

	var notifications []model.Notification
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE notifications
		SET is_read = TRUE, read_at = ?
		WHERE id = ? AND is_read = FALSE
	`, at, id).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE notifications
		SET is_read = TRUE, read_at = ?
		WHERE recipient_id = ? AND is_read = FALSE
	`, at, recipientID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM notifications WHERE id = ?`, id).Error
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = ? AND is_read = FALSE AND expires_at > NOW()
	`, recipientID).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepository) DeleteReadOlderThan(ctx context.Context, recipientID string, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM notifications
		WHERE recipient_id = ? AND is_read = TRUE AND created_at < ?
	`, recipientID, before)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
