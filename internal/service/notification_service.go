package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
)

const (
	notificationTTL    = 90 * 24 * time.Hour
	readRetentionAge   = 30 * 24 * time.Hour
	defaultNotifyLimit = 20
)

var notificationSortFields = map[string]string{
	"createdAt": "created_at",
	"priority":  "priority",
}

// Broadcaster pushes a persisted notification to an external channel for
// live delivery. Implementations must not block the caller.
type Broadcaster interface {
	Broadcast(n *model.Notification)
}

// NotificationService persists notifications and exposes the per-recipient
// inbox. It implements Notifier for the lifecycle engines: Publish never
// returns an error because entity state must not depend on delivery.
type NotificationService struct {
	store       NotificationStore
	broadcaster Broadcaster
	log         zerolog.Logger
}

func NewNotificationService(store NotificationStore, broadcaster Broadcaster, log zerolog.Logger) *NotificationService {
	return &NotificationService{store: store, broadcaster: broadcaster, log: log}
}

func (s *NotificationService) Publish(ctx context.Context, n *model.Notification) {
	if n.RecipientID == "" {
		s.log.Warn().Str("type", string(n.Type)).Msg("notification dropped: no recipient")
		return
	}
	if !n.Priority.Valid() {
		n.Priority = model.PriorityMedium
	}
	now := time.Now().UTC()
	n.ID = uuid.New()
	n.CreatedAt = now
	n.ExpiresAt = now.Add(notificationTTL)

	if err := s.store.Append(ctx, n); err != nil {
		s.log.Error().Err(err).
			Str("recipient_id", n.RecipientID).
			Str("type", string(n.Type)).
			Msg("notification persist failed")
		return
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(n)
	}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal, filter model.NotificationFilter, number, limit int) ([]model.Notification, int64, error) {
	page, err := NormalizePage(number, limit, "createdAt", "desc", notificationSortFields)
	if err != nil {
		return nil, 0, err
	}
	if page.Limit == defaultPageLimit && limit < 1 {
		page.Limit = defaultNotifyLimit
	}
	filter.RecipientID = principal.ID
	return s.store.List(ctx, filter, page)
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	n, err := s.getOwned(ctx, principal, id)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return s.store.MarkRead(ctx, id, time.Now().UTC())
}

func (s *NotificationService) MarkAllRead(ctx context.Context, principal model.Principal) (int64, error) {
	return s.store.MarkAllRead(ctx, principal.ID, time.Now().UTC())
}

func (s *NotificationService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, principal, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *NotificationService) UnreadCount(ctx context.Context, principal model.Principal) (int64, error) {
	return s.store.UnreadCount(ctx, principal.ID)
}

// ClearOld removes the caller's read notifications older than the retention
// window.
func (s *NotificationService) ClearOld(ctx context.Context, principal model.Principal) (int64, error) {
	cutoff := time.Now().UTC().Add(-readRetentionAge)
	return s.store.DeleteReadOlderThan(ctx, principal.ID, cutoff)
}

func (s *NotificationService) getOwned(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Notification, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notification", ErrNotFound)
		}
		return nil, err
	}
	if n.RecipientID != principal.ID {
		return nil, fmt.Errorf("%w: not your notification", ErrPermissionDenied)
	}
	return n, nil
}
