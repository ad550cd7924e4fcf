package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
	"github.com/nurpe/taskmarket/internal/service"
)

const reviewColumns = `
	r.id, r.task_id, r.reviewer_id, r.reviewer_email, r.reviewer_name,
	r.rating, r.comment, r.created_at, r.updated_at,
	t.title AS task_title,
	t.category AS task_category,
	t.budget AS task_budget
`

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Get(ctx context.Context, id uuid.UUID) (*model.ReviewWithTask, error) {
	var review model.ReviewWithTask
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+reviewColumns+`
		FROM reviews r
		JOIN tasks t ON t.id = r.task_id
		WHERE r.id = ?
		LIMIT 1
	`, id).Scan(&review).Error; err != nil {
		return nil, err
	}
	if review.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &review, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO reviews (
			id, task_id, reviewer_id, reviewer_email, reviewer_name,
			rating, comment, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		review.ID,
		review.TaskID,
		review.ReviewerID,
		review.ReviewerEmail,
		review.ReviewerName,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	).Error
}

func (r *ReviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE reviews
		SET rating = ?, comment = ?, updated_at = ?
		WHERE id = ?
	`, review.Rating, review.Comment, review.UpdatedAt, review.ID).Error
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM reviews WHERE id = ?`, id).Error
}

func (r *ReviewRepository) Exists(ctx context.Context, taskID uuid.UUID, reviewerID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM reviews WHERE task_id = ? AND reviewer_id = ?
	`, taskID, reviewerID).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReviewRepository) List(ctx context.Context, taskID *uuid.UUID, rating int, reviewerID string, page service.Page) ([]model.ReviewWithTask, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if taskID != nil {
		where += " AND r.task_id = ?"
		args = append(args, *taskID)
	}
	if rating > 0 {
		where += " AND r.rating = ?"
		args = append(args, rating)
	}
	if reviewerID != "" {
		where += " AND r.reviewer_id = ?"
		args = append(args, reviewerID)
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM reviews r`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + reviewColumns + `
		FROM reviews r
		JOIN tasks t ON t.id = r.task_id
	` + where + ` ORDER BY r.` + page.SortColumn + sortDirection(page) + ` LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset())

	var reviews []model.ReviewWithTask
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *ReviewRepository) RatingBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.db.WithContext(ctx).Raw(`
		SELECT rating::text AS status, COUNT(*) AS count, AVG(rating) AS avg_amount
		FROM reviews
		GROUP BY rating
		ORDER BY rating DESC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReviewRepository) Average(ctx context.Context) (int64, float64, error) {
	var row struct {
		Count int64
		Avg   float64
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg
		FROM reviews
	`).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Count, row.Avg, nil
}
