package notification

import "sync"

// Wire event names for the notification stream.
const (
	EventConnected           = "connected"
	EventUnreadCount         = "unread_count"
	EventNewNotification     = "new_notification"
	EventNotificationDeleted = "notification_deleted"
)

// Event is one named stream event with its JSON-serializable payload.
type Event struct {
	Name string
	Data any
}

// subscriberBuffer bounds each subscriber's event queue. A subscriber that
// cannot drain its queue loses events instead of blocking the publisher;
// the client resynchronizes through its polling and re-fetch paths.
const subscriberBuffer = 16

// Subscriber is one live stream connection for a user.
type Subscriber struct {
	userID int64
	events chan Event
}

// Events returns the subscriber's receive side.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Hub tracks the open stream connections per user. A user may hold several
// concurrent subscriptions (multiple tabs/sessions).
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[*Subscriber]struct{}
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]map[*Subscriber]struct{}),
	}
}

func (h *Hub) Register(userID int64) *Subscriber {
	sub := &Subscriber{
		userID: userID,
		events: make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.events)
		return sub
	}

	set, ok := h.subscribers[userID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subscribers[userID] = set
	}
	set[sub] = struct{}{}

	return sub
}

func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[sub.userID]
	if !ok {
		return
	}
	if _, exists := set[sub]; !exists {
		return
	}

	delete(set, sub)
	close(sub.events)
	if len(set) == 0 {
		delete(h.subscribers, sub.userID)
	}
}

// Publish delivers an event to every live subscription of userID without
// ever blocking: full queues drop the event.
func (h *Hub) Publish(userID int64, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[userID] {
		select {
		case sub.events <- ev:
		default:
		}
	}
}

func (h *Hub) SubscriberCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[userID])
}

// Close tears down every subscription; further Registers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for userID, set := range h.subscribers {
		for sub := range set {
			close(sub.events)
		}
		delete(h.subscribers, userID)
	}
}
