package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
	"github.com/nurpe/taskmarket/internal/service"
)

const taskColumns = `
	id, title, description, category, college, budget, deadline, location,
	requirements, status, owner_id, owner_email, owner_name,
	assigned_freelancer_id, accepted_bid_id, bid_count, submission_url,
	submission_notes, dispute_reason, assigned_at, submitted_at, completed_at,
	client_approved_at, disputed_at, created_at, updated_at
`

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&task).Error; err != nil {
		return nil, err
	}
	if task.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO tasks (
			id, title, description, category, college, budget, deadline,
			location, requirements, status, owner_id, owner_email, owner_name,
			bid_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`,
		task.ID,
		task.Title,
		task.Description,
		task.Category,
		task.College,
		task.Budget,
		task.Deadline,
		task.Location,
		task.Requirements,
		task.Status,
		task.OwnerID,
		task.OwnerEmail,
		task.OwnerName,
		task.CreatedAt,
		task.UpdatedAt,
	).Error
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE tasks SET
			title = ?,
			description = ?,
			college = ?,
			budget = ?,
			deadline = ?,
			location = ?,
			requirements = ?,
			updated_at = ?
		WHERE id = ?
	`,
		task.Title,
		task.Description,
		task.College,
		task.Budget,
		task.Deadline,
		task.Location,
		task.Requirements,
		task.UpdatedAt,
		task.ID,
	).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM tasks WHERE id = ?`, id).Error
}

func (r *TaskRepository) List(ctx context.Context, filter model.TaskFilter, page service.Page) ([]model.Task, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.College != "" {
		where += " AND college ILIKE ?"
		args = append(args, "%"+filter.College+"%")
	}
	if filter.OwnerID != "" {
		where += " AND owner_id = ?"
		args = append(args, filter.OwnerID)
	}
	if filter.MinBudget > 0 {
		where += " AND budget >= ?"
		args = append(args, filter.MinBudget)
	}
	if filter.MaxBudget > 0 {
		where += " AND budget <= ?"
		args = append(args, filter.MaxBudget)
	}
	if filter.Search != "" {
		where += " AND (title ILIKE ? OR description ILIKE ?)"
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY ` + page.SortColumn + sortDirection(page) + ` LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset())

	var tasks []model.Task
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *TaskRepository) CancelIfOpen(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE tasks
		SET status = 'cancelled', updated_at = ?
		WHERE id = ? AND status = 'open'
	`, now, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TaskRepository) MarkStarted(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE tasks
		SET status = 'in-progress', updated_at = NOW()
		WHERE id = ? AND status = 'assigned'
	`, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TaskRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, url, notes string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE tasks
		SET status = 'submitted',
			submission_url = ?,
			submission_notes = ?,
			submitted_at = ?,
			updated_at = ?
		WHERE id = ? AND status = 'in-progress'
	`, url, notes, at, at, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TaskRepository) ResolveSubmission(ctx context.Context, id uuid.UUID, to model.TaskStatus, completedAt *time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE tasks
		SET status = ?,
			completed_at = ?,
			client_approved_at = ?,
			updated_at = NOW()
		WHERE id = ? AND status = 'submitted'
	`, to, completedAt, completedAt, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TaskRepository) StatusBreakdown(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) AS count, COALESCE(AVG(budget), 0) AS avg_amount
		FROM tasks
		GROUP BY status
		ORDER BY status ASC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TaskRepository) CategoryBreakdown(ctx context.Context) ([]model.CategoryCount, error) {
	var rows []model.CategoryCount
	if err := r.db.WithContext(ctx).Raw(`
		SELECT category, COUNT(*) AS count, COALESCE(AVG(budget), 0) AS avg_budget
		FROM tasks
		GROUP BY category
		ORDER BY count DESC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TaskRepository) Totals(ctx context.Context) (int64, float64, error) {
	var row struct {
		Count  int64
		Budget float64
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS count, COALESCE(SUM(budget), 0) AS budget
		FROM tasks
	`).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Count, row.Budget, nil
}

func sortDirection(page service.Page) string {
	if page.Descending {
		return " DESC"
	}
	return " ASC"
}
