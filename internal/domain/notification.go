package domain

import (
	"database/sql"
	"time"
)

// Notification type constants
const (
	TypeAnswerPosted   = "answer.posted"
	TypeCommentPosted  = "comment.posted"
	TypeAnswerAccepted = "answer.accepted"
	TypeQuestionVoted  = "question.voted"
	TypeModeration     = "moderation.notice"
)

// Notification represents a per-user forum notification record.
// The server owns these rows; clients only hold cached copies.
type Notification struct {
	ID                int64        `gorm:"primaryKey" json:"id"`
	UserID            int64        `gorm:"index;uniqueIndex:idx_notifications_dedup,priority:1" json:"user_id"`
	Type              string       `gorm:"index" json:"type"`
	Message           string       `json:"message"`
	QuestionTitle     string       `json:"question_title"`
	QuestionSlug      string       `json:"question_slug"`
	RelatedQuestionID *int64       `json:"related_question_id,omitempty"`
	RelatedAnswerID   *int64       `json:"related_answer_id,omitempty"`
	RelatedCommentID  *int64       `json:"related_comment_id,omitempty"`
	DedupKey          string       `gorm:"uniqueIndex:idx_notifications_dedup,priority:2" json:"-"`
	ReadAt            sql.NullTime `json:"read_at"`
	CreatedAt         time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// MarkAsRead marks a notification as read
func (n *Notification) MarkAsRead() {
	n.ReadAt = sql.NullTime{
		Time:  time.Now(),
		Valid: true,
	}
}

// IsRead returns true if notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt.Valid
}

// TableName specifies the table name for GORM
func (n *Notification) TableName() string {
	return "notifications"
}
