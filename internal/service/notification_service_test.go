package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/taskmarket/internal/model"
)

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*model.Notification
	appendErr     error
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifications: make(map[uuid.UUID]*model.Notification)}
}

func (s *fakeNotificationStore) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *n
	return &copied, nil
}

func (s *fakeNotificationStore) Append(ctx context.Context, n *model.Notification) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.notifications[n.ID] = &copied
	return nil
}

func (s *fakeNotificationStore) List(ctx context.Context, filter model.NotificationFilter, page Page) ([]model.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Notification
	for _, n := range s.notifications {
		if n.RecipientID != filter.RecipientID {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		matched = append(matched, *n)
	}
	return matched, int64(len(matched)), nil
}

func (s *fakeNotificationStore) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notifications[id]; ok {
		n.IsRead = true
		n.ReadAt = &at
	}
	return nil
}

func (s *fakeNotificationStore) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			updated++
		}
	}
	return updated, nil
}

func (s *fakeNotificationStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, id)
	return nil
}

func (s *fakeNotificationStore) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationStore) DeleteReadOlderThan(ctx context.Context, recipientID string, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, n := range s.notifications {
		if n.RecipientID == recipientID && n.IsRead && n.CreatedAt.Before(before) {
			delete(s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func TestPublishFillsDefaults(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zerolog.Nop())

	n := &model.Notification{
		RecipientID: "user-1",
		Type:        model.NotificationSystemMessage,
		Title:       "Hello",
		Message:     "World",
	}
	svc.Publish(context.Background(), n)

	if n.ID == uuid.Nil {
		t.Fatal("id not assigned")
	}
	if n.Priority != model.PriorityMedium {
		t.Fatalf("priority = %s, want medium default", n.Priority)
	}
	if n.ExpiresAt.Sub(n.CreatedAt) != 90*24*time.Hour {
		t.Fatalf("ttl = %v, want 90 days", n.ExpiresAt.Sub(n.CreatedAt))
	}

	stored, err := store.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("not persisted: %v", err)
	}
	if stored.IsRead {
		t.Fatal("new notification must be unread")
	}
}

func TestPublishSwallowsStoreFailure(t *testing.T) {
	store := newFakeNotificationStore()
	store.appendErr = errors.New("connection reset")
	svc := NewNotificationService(store, nil, zerolog.Nop())

	// Must not panic and must not propagate.
	svc.Publish(context.Background(), &model.Notification{
		RecipientID: "user-1",
		Type:        model.NotificationSystemMessage,
	})
}

func TestMarkReadOwnershipEnforced(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zerolog.Nop())

	n := &model.Notification{RecipientID: "user-1", Type: model.NotificationSystemMessage}
	svc.Publish(context.Background(), n)

	if err := svc.MarkRead(context.Background(), model.Principal{ID: "user-2"}, n.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := svc.MarkRead(context.Background(), model.Principal{ID: "user-1"}, n.ID); err != nil {
		t.Fatalf("owner mark read: %v", err)
	}

	count, _ := svc.UnreadCount(context.Background(), model.Principal{ID: "user-1"})
	if count != 0 {
		t.Fatalf("unread = %d, want 0", count)
	}
}

func TestMarkAllRead(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zerolog.Nop())

	for i := 0; i < 3; i++ {
		svc.Publish(context.Background(), &model.Notification{RecipientID: "user-1", Type: model.NotificationSystemMessage})
	}
	svc.Publish(context.Background(), &model.Notification{RecipientID: "user-2", Type: model.NotificationSystemMessage})

	updated, err := svc.MarkAllRead(context.Background(), model.Principal{ID: "user-1"})
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if updated != 3 {
		t.Fatalf("updated = %d, want 3", updated)
	}

	otherCount, _ := svc.UnreadCount(context.Background(), model.Principal{ID: "user-2"})
	if otherCount != 1 {
		t.Fatalf("other user's unread = %d, want untouched", otherCount)
	}
}

func TestClearOldKeepsRecentAndUnread(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zerolog.Nop())

	old := &model.Notification{RecipientID: "user-1", Type: model.NotificationSystemMessage}
	svc.Publish(context.Background(), old)
	unreadOld := &model.Notification{RecipientID: "user-1", Type: model.NotificationSystemMessage}
	svc.Publish(context.Background(), unreadOld)
	recent := &model.Notification{RecipientID: "user-1", Type: model.NotificationSystemMessage}
	svc.Publish(context.Background(), recent)

	past := time.Now().UTC().Add(-40 * 24 * time.Hour)
	store.notifications[old.ID].CreatedAt = past
	store.notifications[unreadOld.ID].CreatedAt = past
	_ = svc.MarkRead(context.Background(), model.Principal{ID: "user-1"}, old.ID)
	_ = svc.MarkRead(context.Background(), model.Principal{ID: "user-1"}, recent.ID)

	deleted, err := svc.ClearOld(context.Background(), model.Principal{ID: "user-1"})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want only the old read one", deleted)
	}
}
