package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"qaforum/internal/domain"
	"qaforum/internal/repository"
)

type Service struct {
	repo Repository
	pub  Publisher
}

func NewService(repo Repository, pub Publisher) *Service {
	return &Service{
		repo: repo,
		pub:  pub,
	}
}

// List returns a page of the user's notifications plus the live unread count.
func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) (*ListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]NotificationDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, toDTO(&list[i]))
	}

	return &ListResponse{
		Notifications: dtos,
		UnreadCount:   int(unread),
	}, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	return int(count), err
}

// Create stores a notification and wakes the recipient's live streams.
// Redelivery with the same dedup key is swallowed as ErrDuplicate.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*NotificationDTO, error) {
	if req.UserID <= 0 || strings.TrimSpace(req.Message) == "" {
		return nil, ErrValidation
	}

	n := &domain.Notification{
		UserID:            req.UserID,
		Type:              req.Type,
		Message:           req.Message,
		QuestionTitle:     req.QuestionTitle,
		QuestionSlug:      req.QuestionSlug,
		RelatedQuestionID: req.RelatedQuestionID,
		RelatedAnswerID:   req.RelatedAnswerID,
		RelatedCommentID:  req.RelatedCommentID,
		DedupKey:          req.DedupKey,
	}
	if n.DedupKey == "" {
		n.DedupKey = time.Now().Format(time.RFC3339Nano)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, repository.ErrDuplicateNotification) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	// The new_notification event is just a trigger: subscribers re-fetch the
	// list rather than trusting a pushed payload.
	s.pub.Publish(req.UserID, Event{Name: EventNewNotification, Data: struct{}{}})
	s.publishUnreadCount(ctx, req.UserID)

	dto := toDTO(n)
	return &dto, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) (*NotificationDTO, error) {
	n, err := s.repo.MarkAsRead(ctx, id, userID, time.Now())
	if err != nil {
		return nil, err
	}

	s.publishUnreadCount(ctx, userID)

	dto := toDTO(n)
	return &dto, nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	if err := s.repo.MarkAllAsRead(ctx, userID, time.Now()); err != nil {
		return err
	}

	s.pub.Publish(userID, Event{
		Name: EventUnreadCount,
		Data: map[string]int{"count": 0},
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.pub.Publish(userID, Event{
		Name: EventNotificationDeleted,
		Data: map[string]int64{"notificationId": id},
	})
	s.publishUnreadCount(ctx, userID)
	return nil
}

// publishUnreadCount pushes the current count to the user's live streams.
// Deletion and count changes are independent eventually-consistent facts, so
// a failed count lookup is simply skipped; the next poll converges.
func (s *Service) publishUnreadCount(ctx context.Context, userID int64) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return
	}
	s.pub.Publish(userID, Event{
		Name: EventUnreadCount,
		Data: map[string]int{"count": int(count)},
	})
}
