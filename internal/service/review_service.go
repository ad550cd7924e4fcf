package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
)

const maxReviewComment = 500

var reviewSortFields = map[string]string{
	"createdAt": "created_at",
	"rating":    "rating",
}

// ReviewService lets users rate tasks they did not post. One review per
// reviewer per task, enforced by a unique constraint.
type ReviewService struct {
	reviews  ReviewStore
	tasks    TaskStore
	notifier Notifier
	log      zerolog.Logger
}

func NewReviewService(reviews ReviewStore, tasks TaskStore, notifier Notifier, log zerolog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, tasks: tasks, notifier: notifier, log: log}
}

type CreateReviewInput struct {
	TaskID  uuid.UUID
	Rating  int
	Comment string
}

func (s *ReviewService) Create(ctx context.Context, principal model.Principal, input CreateReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > maxReviewComment {
		return nil, fmt.Errorf("%w: comment cannot exceed %d characters", ErrInvalidInput, maxReviewComment)
	}

	task, err := s.tasks.Get(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task", ErrNotFound)
		}
		return nil, err
	}
	if task.OwnerID == principal.ID {
		return nil, fmt.Errorf("%w: cannot review your own task", ErrInvalidInput)
	}

	exists, err := s.reviews.Exists(ctx, task.ID, principal.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: you already reviewed this task", ErrConflict)
	}

	now := time.Now().UTC()
	review := &model.Review{
		ID:            uuid.New(),
		TaskID:        task.ID,
		ReviewerID:    principal.ID,
		ReviewerEmail: principal.Email,
		ReviewerName:  principal.FullName,
		Rating:        input.Rating,
		Comment:       comment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: you already reviewed this task", ErrConflict)
		}
		return nil, err
	}

	s.notifier.Publish(ctx, &model.Notification{
		RecipientID: task.OwnerID,
		Type:        model.NotificationReviewReceived,
		Title:       "New Review",
		Message:     fmt.Sprintf("Your task %q received a %d-star review.", task.Title, review.Rating),
		TaskID:      &task.ID,
		Priority:    model.PriorityMedium,
	})
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*model.ReviewWithTask, error) {
	return s.getReview(ctx, id)
}

func (s *ReviewService) List(ctx context.Context, taskID *uuid.UUID, rating int, reviewerID string, number, limit int, sortBy, sortOrder string) ([]model.ReviewWithTask, int64, error) {
	if rating != 0 && (rating < 1 || rating > 5) {
		return nil, 0, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	page, err := NormalizePage(number, limit, sortBy, sortOrder, reviewSortFields)
	if err != nil {
		return nil, 0, err
	}
	return s.reviews.List(ctx, taskID, rating, reviewerID, page)
}

type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

func (s *ReviewService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input UpdateReviewInput) (*model.Review, error) {
	review, err := s.getReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != principal.ID {
		return nil, fmt.Errorf("%w: you can only edit your own reviews", ErrPermissionDenied)
	}

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		comment := strings.TrimSpace(*input.Comment)
		if len(comment) > maxReviewComment {
			return nil, fmt.Errorf("%w: comment cannot exceed %d characters", ErrInvalidInput, maxReviewComment)
		}
		review.Comment = comment
	}

	review.UpdatedAt = time.Now().UTC()
	if err := s.reviews.Update(ctx, &review.Review); err != nil {
		return nil, err
	}
	return &review.Review, nil
}

func (s *ReviewService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	review, err := s.getReview(ctx, id)
	if err != nil {
		return err
	}
	if review.ReviewerID != principal.ID {
		return fmt.Errorf("%w: you can only delete your own reviews", ErrPermissionDenied)
	}
	return s.reviews.Delete(ctx, id)
}

type ReviewStats struct {
	TotalReviews  int64
	AverageRating float64
	Breakdown     []model.StatusCount
}

func (s *ReviewService) Stats(ctx context.Context) (*ReviewStats, error) {
	count, avg, err := s.reviews.Average(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.reviews.RatingBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	return &ReviewStats{TotalReviews: count, AverageRating: avg, Breakdown: breakdown}, nil
}

func (s *ReviewService) getReview(ctx context.Context, id uuid.UUID) (*model.ReviewWithTask, error) {
	review, err := s.reviews.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review", ErrNotFound)
		}
		return nil, err
	}
	return review, nil
}
