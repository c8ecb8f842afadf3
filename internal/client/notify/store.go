package notify

import (
	"sync"
	"time"
)

// DefaultProtectionWindow bounds how long an optimistic mutation distrusts
// conflicting server counts.
const DefaultProtectionWindow = 30 * time.Second

// Snapshot is a consistent read of the store for the presentation layer.
type Snapshot struct {
	Notifications []Notification
	UnreadCount   int
	Loading       bool
	Err           error
}

// Store holds the client's view of the notification list and unread count.
// It is the single writer of that state: the channel, poller and dispatcher
// all mutate through its methods, which define the precedence between
// server-originated data and recent optimistic local actions.
//
// The optimistic-timestamp registry and the pending-confirmation set are
// private to the store/dispatcher pair and never leave this package.
type Store struct {
	mu sync.Mutex

	now        func() time.Time
	protection time.Duration

	notifications []Notification
	unreadCount   int
	loading       bool
	err           error

	// id -> time of last optimistic mutation; entries expire lazily
	optimistic map[int64]time.Time
	// ids with a mark-read confirmation in flight
	pending map[int64]struct{}
}

func NewStore() *Store {
	return &Store{
		now:        time.Now,
		protection: DefaultProtectionWindow,
		optimistic: make(map[int64]time.Time),
		pending:    make(map[int64]struct{}),
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Notification, len(s.notifications))
	copy(list, s.notifications)

	return Snapshot{
		Notifications: list,
		UnreadCount:   s.unreadCount,
		Loading:       s.loading,
		Err:           s.err,
	}
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

// ApplyServerCount merges a count arriving from any server-originated source
// (push event or poll response). Counts at or below the current value are
// accepted unconditionally; a larger count is accepted only when no recent
// optimistic mutation and no in-flight confirmation could explain the
// discrepancy — otherwise it is presumed stale and kept out, which stops the
// badge from flickering back up right after a local mark-as-read.
func (s *Store) ApplyServerCount(count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count < 0 {
		count = 0
	}
	if count <= s.unreadCount {
		s.unreadCount = count
		return true
	}
	if s.protectedLocked() {
		return false
	}
	s.unreadCount = count
	return true
}

// Protected reports whether any confirmation is in flight or any optimistic
// mutation is still inside its protection window. The poller skips its tick
// while this holds.
func (s *Store) Protected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protectedLocked()
}

func (s *Store) protectedLocked() bool {
	if len(s.pending) > 0 {
		return true
	}
	now := s.now()
	for id, ts := range s.optimistic {
		if now.Sub(ts) < s.protection {
			return true
		}
		delete(s.optimistic, id)
	}
	return false
}

// ReplaceAll is the authoritative full replace used by fetchNotifications:
// server order is kept as delivered, the count is taken as-is, and any stale
// error is cleared.
func (s *Store) ReplaceAll(list []Notification, unreadCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = make([]Notification, len(list))
	copy(s.notifications, list)
	if unreadCount < 0 {
		unreadCount = 0
	}
	s.unreadCount = unreadCount
	s.err = nil
}

func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// SetError records a fetch failure without touching cached state.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// BeginMarkRead applies the optimistic half of mark-as-read: records the
// optimistic timestamp, adds the id to the pending set, flips the cached
// copy to read and decrements the count (floored at zero) if it was unread.
// Marking an already-read notification is a no-op on the count.
func (s *Store) BeginMarkRead(id int64) (wasUnread bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.optimistic[id] = now
	s.pending[id] = struct{}{}

	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if !s.notifications[i].Read {
			s.notifications[i].Read = true
			at := now
			s.notifications[i].ReadAt = &at
			wasUnread = true
			if s.unreadCount > 0 {
				s.unreadCount--
			}
		}
		break
	}
	return wasUnread
}

// ConfirmMarkRead settles a successful confirmation: the id leaves the
// pending set and its optimistic timestamp is refreshed — the server just
// confirmed a state the client already assumed, so the protection window
// extends rather than clears.
func (s *Store) ConfirmMarkRead(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, id)
	s.optimistic[id] = s.now()
}

// FailMarkRead settles a failed confirmation. A timeout keeps the optimistic
// state and its protection (the write may still land); an explicit rejection
// rolls the notification back to unread and restores the count.
func (s *Store) FailMarkRead(id int64, timeout, wasUnread bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, id)
	if timeout {
		return
	}

	delete(s.optimistic, id)
	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		s.notifications[i].Read = false
		s.notifications[i].ReadAt = nil
		break
	}
	if wasUnread {
		s.unreadCount++
	}
}

// MarkAllRead optimistically marks every cached notification read and zeroes
// the count. It returns the previous state for a full restore on failure and
// the ids it actually flipped.
func (s *Store) MarkAllRead() (prevList []Notification, prevCount int, marked []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevList = make([]Notification, len(s.notifications))
	copy(prevList, s.notifications)
	prevCount = s.unreadCount

	now := s.now()
	for i := range s.notifications {
		if s.notifications[i].Read {
			continue
		}
		s.notifications[i].Read = true
		at := now
		s.notifications[i].ReadAt = &at
		s.optimistic[s.notifications[i].ID] = now
		marked = append(marked, s.notifications[i].ID)
	}
	s.unreadCount = 0

	return prevList, prevCount, marked
}

// RestoreAfterMarkAll undoes a failed MarkAllRead in full, dropping the
// protection entries it created so server counts are trusted again.
func (s *Store) RestoreAfterMarkAll(prevList []Notification, prevCount int, marked []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = make([]Notification, len(prevList))
	copy(s.notifications, prevList)
	s.unreadCount = prevCount
	for _, id := range marked {
		delete(s.optimistic, id)
	}
}

// ConfirmMarkAll refreshes the protection window for every id the bulk
// operation flipped, mirroring ConfirmMarkRead.
func (s *Store) ConfirmMarkAll(marked []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, id := range marked {
		s.optimistic[id] = now
	}
}

// RemoveLocal drops a notification announced as deleted by the push stream.
// The count is deliberately untouched: deletion and the badge are two
// independent eventually-consistent facts reconciled via the count channel.
func (s *Store) RemoveLocal(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id, false)
}

// DeleteConfirmed drops a notification after the server confirmed its
// deletion, decrementing the count if the removed item was still unread.
func (s *Store) DeleteConfirmed(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id, true)
}

func (s *Store) removeLocked(id int64, adjustCount bool) {
	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		wasUnread := !s.notifications[i].Read
		s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
		if adjustCount && wasUnread && s.unreadCount > 0 {
			s.unreadCount--
		}
		return
	}
}

// Clear tears the session state down at logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = nil
	s.unreadCount = 0
	s.loading = false
	s.err = nil
	s.optimistic = make(map[int64]time.Time)
	s.pending = make(map[int64]struct{})
}
