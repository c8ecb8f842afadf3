package notify

import "context"

// TokenProvider returns the current valid credential. It is a function, not
// a static string: the credential can rotate mid-session and every stream
// (re)connect and REST call must pick up the fresh value.
type TokenProvider func() (string, error)

// API defines the REST calls the dispatcher confirms against
type API interface {
	FetchNotifications(ctx context.Context, unreadOnly bool, limit, offset int) (*ListResult, error)
	FetchUnreadCount(ctx context.Context) (int, error)
	MarkAsRead(ctx context.Context, id int64) (*Notification, error)
	MarkAllAsRead(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
}
