package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPoller_ResumeTriggersImmediatePoll(t *testing.T) {
	api := new(MockAPI)
	store := NewStore()
	d := NewDispatcher(api, store, nil)
	p := NewPoller(d, store, time.Hour, ensureLogger(nil))

	var mu sync.Mutex
	polls := 0
	api.On("FetchUnreadCount", mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		polls++
		mu.Unlock()
	}).Return(0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	// interval is an hour: only Resume can cause a poll
	p.Resume()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return polls == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPoller_SkipsWhileSuspended(t *testing.T) {
	api := new(MockAPI)
	store := NewStore()
	d := NewDispatcher(api, store, nil)
	p := NewPoller(d, store, 10*time.Millisecond, ensureLogger(nil))

	p.Suspend()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	// no API expectations: any call fails the test
	time.Sleep(80 * time.Millisecond)
	api.AssertExpectations(t)
	api.AssertNotCalled(t, "FetchUnreadCount", mock.Anything)
}

func TestPoller_SkipsWhileProtectionWindowActive(t *testing.T) {
	api := new(MockAPI)
	store := NewStore()
	d := NewDispatcher(api, store, nil)
	p := NewPoller(d, store, 10*time.Millisecond, ensureLogger(nil))

	seedStore(store, 1, 2)
	store.BeginMarkRead(1) // pending confirmation: polls must be skipped

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	time.Sleep(80 * time.Millisecond)
	api.AssertNotCalled(t, "FetchUnreadCount", mock.Anything)
	assert.Equal(t, 1, store.UnreadCount())
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	api := new(MockAPI)
	store := NewStore()
	d := NewDispatcher(api, store, nil)
	p := NewPoller(d, store, time.Hour, ensureLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.Stop()
	p.Stop()
}
