package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"qaforum/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateNotification is returned when an insert collides with an
// existing (user_id, dedup_key) pair.
var ErrDuplicateNotification = errors.New("duplicate notification")

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification. A dedup-key collision is reported as
// ErrDuplicateNotification so callers can treat redelivery as a no-op.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return ErrDuplicateNotification
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateNotification
		}
		return err
	}
	return nil
}

// ListByUser returns notifications for a user, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset)

	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var list []domain.Notification
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// GetByID returns a single notification owned by userID.
func (r *NotificationRepository) GetByID(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAsRead sets read_at for one notification. Already-read rows are left
// untouched so the call stays idempotent.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID int64, at time.Time) (*domain.Notification, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", sql.NullTime{Time: at, Valid: true})
	if res.Error != nil {
		return nil, res.Error
	}

	return r.GetByID(ctx, id, userID)
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", sql.NullTime{Time: at, Valid: true}).Error
}

// Delete removes a notification and reports whether it was still unread.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) (wasUnread bool, err error) {
	n, err := r.GetByID(ctx, id, userID)
	if err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Notification{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return !n.IsRead(), nil
}
