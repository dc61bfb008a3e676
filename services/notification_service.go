package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
)

// NotificationPusher is the realtime side of notifications; the websocket hub
// implements it. A nil pusher disables push without affecting persistence.
type NotificationPusher interface {
	PushToUser(userID int, event string, payload interface{})
}

type NotificationService interface {
	Notify(ctx context.Context, notification *models.Notification) error
	ListForUser(ctx context.Context, userID int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID int, userID int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	pusher           NotificationPusher
}

func NewNotificationService(notificationRepo repositories.NotificationRepository, pusher NotificationPusher) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		pusher:           pusher,
	}
}

// Notify persists the notification and pushes it to the recipient's websocket
// room. Push is best-effort: the row is the source of truth.
func (s *notificationService) Notify(ctx context.Context, notification *models.Notification) error {
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.pusher != nil {
		s.pusher.PushToUser(notification.UserID, "NOTIFICATION", notification)
	}

	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID int, userID int) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification %d read: %w", notificationID, err)
	}
	return nil
}
