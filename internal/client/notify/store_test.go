package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func seedStore(s *Store, unreadIDs ...int64) {
	list := make([]Notification, 0, len(unreadIDs))
	for _, id := range unreadIDs {
		list = append(list, Notification{ID: id, Message: "m"})
	}
	s.ReplaceAll(list, len(list))
}

func TestStore_ApplyServerCount_AcceptsLowerOrEqual(t *testing.T) {
	s := NewStore()
	seedStore(s, 1, 2, 3)

	assert.True(t, s.ApplyServerCount(2))
	assert.Equal(t, 2, s.UnreadCount())

	assert.True(t, s.ApplyServerCount(2))
	assert.Equal(t, 2, s.UnreadCount())

	assert.True(t, s.ApplyServerCount(0))
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_ApplyServerCount_AcceptsLargerWhenUnprotected(t *testing.T) {
	s := NewStore()
	seedStore(s, 1)

	assert.True(t, s.ApplyServerCount(5))
	assert.Equal(t, 5, s.UnreadCount())
}

func TestStore_ApplyServerCount_RejectsLargerInsideProtectionWindow(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	seedStore(s, 1, 2)

	wasUnread := s.BeginMarkRead(1)
	assert.True(t, wasUnread)
	assert.Equal(t, 1, s.UnreadCount())

	// a larger count contradicting the just-applied local action is stale
	assert.False(t, s.ApplyServerCount(2))
	assert.Equal(t, 1, s.UnreadCount())

	// lower counts still pass
	assert.True(t, s.ApplyServerCount(1))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestStore_ApplyServerCount_AcceptsLargerAfterWindowExpires(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	seedStore(s, 1, 2)

	s.BeginMarkRead(1)
	s.ConfirmMarkRead(1)

	// confirmation refreshed the window; still protected
	assert.False(t, s.ApplyServerCount(4))

	now = now.Add(DefaultProtectionWindow + time.Second)
	assert.True(t, s.ApplyServerCount(4))
	assert.Equal(t, 4, s.UnreadCount())
}

func TestStore_PendingConfirmationBlocksLargerCountRegardlessOfTime(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	seedStore(s, 1)

	s.BeginMarkRead(1)

	// the id never left the pending set, so even an expired optimistic
	// timestamp keeps the protection up
	now = now.Add(DefaultProtectionWindow + time.Minute)
	assert.False(t, s.ApplyServerCount(3))
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_BeginMarkRead_IdempotentOnAlreadyRead(t *testing.T) {
	s := NewStore()
	seedStore(s, 1)

	assert.True(t, s.BeginMarkRead(1))
	assert.Equal(t, 0, s.UnreadCount())

	// second call must not double-decrement below zero
	assert.False(t, s.BeginMarkRead(1))
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_FailMarkRead_RollsBackOnRejection(t *testing.T) {
	s := NewStore()
	seedStore(s, 1, 2, 3, 4, 5)

	wasUnread := s.BeginMarkRead(3)
	assert.Equal(t, 4, s.UnreadCount())

	s.FailMarkRead(3, false, wasUnread)

	assert.Equal(t, 5, s.UnreadCount())
	snap := s.Snapshot()
	for _, n := range snap.Notifications {
		if n.ID == 3 {
			assert.False(t, n.Read)
			assert.Nil(t, n.ReadAt)
		}
	}
	// protection is gone after a rollback
	assert.False(t, s.Protected())
}

func TestStore_FailMarkRead_TimeoutKeepsOptimisticState(t *testing.T) {
	s := NewStore()
	seedStore(s, 1, 2, 3, 4, 5)

	wasUnread := s.BeginMarkRead(3)
	s.FailMarkRead(3, true, wasUnread)

	assert.Equal(t, 4, s.UnreadCount())
	snap := s.Snapshot()
	for _, n := range snap.Notifications {
		if n.ID == 3 {
			assert.True(t, n.Read)
		}
	}
	// the write may still land; the optimistic value stays protected
	assert.True(t, s.Protected())
	assert.False(t, s.ApplyServerCount(5))
}

func TestStore_RemoveLocal_DoesNotTouchCount(t *testing.T) {
	s := NewStore()
	seedStore(s, 1, 2)

	s.RemoveLocal(1)

	snap := s.Snapshot()
	assert.Len(t, snap.Notifications, 1)
	// badge and deletion reconcile independently via the count channel
	assert.Equal(t, 2, snap.UnreadCount)
}

func TestStore_DeleteConfirmed_DecrementsOnlyForUnread(t *testing.T) {
	s := NewStore()
	seedStore(s, 1, 2)

	s.BeginMarkRead(2)
	s.ConfirmMarkRead(2)
	assert.Equal(t, 1, s.UnreadCount())

	s.DeleteConfirmed(2) // already read: count untouched
	assert.Equal(t, 1, s.UnreadCount())

	s.DeleteConfirmed(1) // unread: count drops
	assert.Equal(t, 0, s.UnreadCount())
	assert.Empty(t, s.Snapshot().Notifications)
}

func TestStore_MarkAllRead_SnapshotAndRestore(t *testing.T) {
	s := NewStore()
	seedStore(s, 1)

	prevList, prevCount, marked := s.MarkAllRead()
	assert.Equal(t, 0, s.UnreadCount())
	assert.True(t, s.Snapshot().Notifications[0].Read)
	assert.Equal(t, []int64{1}, marked)

	s.RestoreAfterMarkAll(prevList, prevCount, marked)
	assert.Equal(t, 1, s.UnreadCount())
	assert.False(t, s.Snapshot().Notifications[0].Read)
	assert.False(t, s.Protected())
}

func TestStore_ReplaceAll_ClearsError(t *testing.T) {
	s := NewStore()
	s.SetError(assert.AnError)
	assert.Error(t, s.Snapshot().Err)

	s.ReplaceAll([]Notification{{ID: 1}}, 1)
	assert.NoError(t, s.Snapshot().Err)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	seedStore(s, 1, 2)
	s.BeginMarkRead(1)

	s.Clear()

	snap := s.Snapshot()
	assert.Empty(t, snap.Notifications)
	assert.Equal(t, 0, snap.UnreadCount)
	assert.False(t, s.Protected())
}
