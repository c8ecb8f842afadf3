package notification

import (
	"time"

	"qaforum/internal/domain"
)

// NotificationDTO is the wire shape of a notification. Read state is exposed
// as a plain bool plus an optional timestamp instead of the nullable column.
type NotificationDTO struct {
	ID                int64      `json:"id"`
	Type              string     `json:"type"`
	Read              bool       `json:"read"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	Message           string     `json:"message"`
	QuestionTitle     string     `json:"question_title"`
	QuestionSlug      string     `json:"question_slug,omitempty"`
	RelatedQuestionID *int64     `json:"related_question_id,omitempty"`
	RelatedAnswerID   *int64     `json:"related_answer_id,omitempty"`
	RelatedCommentID  *int64     `json:"related_comment_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toDTO(n *domain.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:                n.ID,
		Type:              n.Type,
		Read:              n.IsRead(),
		Message:           n.Message,
		QuestionTitle:     n.QuestionTitle,
		QuestionSlug:      n.QuestionSlug,
		RelatedQuestionID: n.RelatedQuestionID,
		RelatedAnswerID:   n.RelatedAnswerID,
		RelatedCommentID:  n.RelatedCommentID,
		CreatedAt:         n.CreatedAt,
	}
	if n.ReadAt.Valid {
		t := n.ReadAt.Time
		dto.ReadAt = &t
	}
	return dto
}

type ListResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unread_count"`
}

type CreateRequest struct {
	UserID            int64  `json:"user_id" binding:"required"`
	Type              string `json:"type" binding:"required"`
	Message           string `json:"message" binding:"required"`
	QuestionTitle     string `json:"question_title"`
	QuestionSlug      string `json:"question_slug"`
	RelatedQuestionID *int64 `json:"related_question_id"`
	RelatedAnswerID   *int64 `json:"related_answer_id"`
	RelatedCommentID  *int64 `json:"related_comment_id"`
	DedupKey          string `json:"dedup_key"`
}
