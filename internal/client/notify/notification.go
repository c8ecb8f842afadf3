// Package notify is the client side of the forum notification subsystem:
// a push-stream transport with polling fallback, a reconciliation store
// that merges server events with optimistic local mutations, and the
// dispatcher exposing mark-read/mark-all/delete/fetch to the application.
package notify

import "time"

// Notification is the client's cached copy of a server-owned record.
type Notification struct {
	ID                int64      `json:"id"`
	Type              string     `json:"type,omitempty"`
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
