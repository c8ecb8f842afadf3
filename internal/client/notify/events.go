package notify

import (
	"encoding/json"
	"fmt"
)

// Wire events decode into a small sum type before they reach callbacks, so
// the rest of the package never handles raw event names or payload bytes.
type streamEvent interface {
	isStreamEvent()
}

type connectedEvent struct{}

type unreadCountEvent struct {
	Count int `json:"count"`
}

type newNotificationEvent struct{}

type notificationDeletedEvent struct {
	NotificationID int64 `json:"notificationId"`
}

func (connectedEvent) isStreamEvent()           {}
func (unreadCountEvent) isStreamEvent()         {}
func (newNotificationEvent) isStreamEvent()     {}
func (notificationDeletedEvent) isStreamEvent() {}

// parseStreamEvent maps a named wire event and its payload onto the sum
// type. Unknown names and malformed payloads come back as errors for the
// channel to log and swallow; they never tear the stream down.
func parseStreamEvent(name string, data []byte) (streamEvent, error) {
	switch name {
	case "connected":
		return connectedEvent{}, nil
	case "unread_count":
		var ev unreadCountEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("unread_count payload %q: %w", data, err)
		}
		if ev.Count < 0 {
			return nil, fmt.Errorf("unread_count payload %q: negative count", data)
		}
		return ev, nil
	case "new_notification":
		// payload is deliberately ignored: it is only a re-fetch trigger
		return newNotificationEvent{}, nil
	case "notification_deleted":
		var ev notificationDeletedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("notification_deleted payload %q: %w", data, err)
		}
		if ev.NotificationID <= 0 {
			return nil, fmt.Errorf("notification_deleted payload %q: missing notificationId", data)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown stream event %q", name)
	}
}
