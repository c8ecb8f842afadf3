package notification

import (
	"context"
	"time"

	"qaforum/internal/domain"
)

// Repository defines the persistence operations the service needs
type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	GetByID(ctx context.Context, id, userID int64) (*domain.Notification, error)
	MarkAsRead(ctx context.Context, id, userID int64, at time.Time) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID int64, at time.Time) error
	Delete(ctx context.Context, id, userID int64) (wasUnread bool, err error)
}

// Publisher pushes live events to a user's connected stream subscribers
type Publisher interface {
	Publish(userID int64, ev Event)
}
