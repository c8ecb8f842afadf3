package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// APIError is an explicit rejection from the backend (4xx/5xx with a decoded
// error envelope). Explicit rejections roll optimistic state back; timeouts
// do not.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// isTimeout reports whether an error is timeout-shaped: the distinguished
// ambiguous outcome where the write may still land on the server.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
