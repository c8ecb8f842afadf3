package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// Config wires a Session. Only BaseURL and Token are required.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api/v1
	BaseURL string
	// Token supplies the current credential; consulted on every connect.
	Token TokenProvider

	PollInterval time.Duration
	Logger       *log.Logger
}

// Session owns the client-side notification state for one authenticated
// user: it connects the push channel to the store, falls back to polling
// when the stream permanently fails, and tears everything down at logout.
// Sessions are constructed per login, never shared as process globals.
type Session struct {
	Store      *Store
	Dispatcher *Dispatcher

	poller *Poller
	logger logger
	cfg    Config

	mu           sync.Mutex
	started      bool
	closed       bool
	cancel       context.CancelFunc
	closeChannel func()
}

func NewSession(cfg Config) *Session {
	lg := ensureLogger(cfg.Logger)

	store := NewStore()
	api := NewClient(cfg.BaseURL, cfg.Token)
	dispatcher := NewDispatcher(api, store, cfg.Logger)
	poller := NewPoller(dispatcher, store, cfg.PollInterval, lg)

	return &Session{
		Store:      store,
		Dispatcher: dispatcher,
		poller:     poller,
		logger:     lg,
		cfg:        cfg,
	}
}

// Start performs the initial fetch and opens the push stream. An initial
// fetch failure is surfaced through the store's error field, not fatal: the
// stream and polling paths will converge the state once the backend is
// reachable again.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.Dispatcher.FetchNotifications(sctx, false); err != nil {
		s.logger.Printf("initial_fetch_failed error=%v", err)
	}

	closeFn := OpenChannel(s.cfg.BaseURL+"/notifications/stream", s.cfg.Token, Callbacks{
		OnConnected: func() {
			s.logger.Printf("stream_connected")
			// events may have been missed while disconnected
			s.refetch(sctx)
		},
		OnUnreadCount: func(count int) {
			s.Store.ApplyServerCount(count)
		},
		OnNewNotification: func() {
			// the event is only a trigger; the list is re-fetched in full
			s.refetch(sctx)
		},
		OnNotificationDeleted: func(id int64) {
			s.Store.RemoveLocal(id)
		},
		OnError: func(err error) {
			s.logger.Printf("stream_failed falling back to polling: %v", err)
			s.poller.Start(sctx)
		},
	}, s.cfg.Logger)

	s.mu.Lock()
	s.closeChannel = closeFn
	if s.closed {
		// Close raced Start; unwind immediately
		s.closeChannel = nil
		s.mu.Unlock()
		closeFn()
		return
	}
	s.mu.Unlock()
}

// ContentChanged handles the app-level "related content changed elsewhere"
// signal by re-fetching both the list and the count.
func (s *Session) ContentChanged() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	s.Dispatcher.tasks.Go("content_changed", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultReadTimeout)
		defer cancel()
		if err := s.Dispatcher.FetchNotifications(ctx, false); err != nil {
			return err
		}
		return s.Dispatcher.FetchUnreadCount(ctx)
	})
}

// Suspend pauses the polling fallback (e.g. the tab went hidden).
func (s *Session) Suspend() { s.poller.Suspend() }

// Resume lifts a suspension and polls immediately.
func (s *Session) Resume() { s.poller.Resume() }

// Close tears the session down at logout: the stream and any pending
// reconnect timers stop synchronously, outstanding confirmations are
// drained, and the cached state is cleared. Safe to call multiple times.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	closeChannel := s.closeChannel
	cancel := s.cancel
	s.mu.Unlock()

	if closeChannel != nil {
		closeChannel()
	}
	s.poller.Stop()
	if cancel != nil {
		cancel()
	}
	s.Dispatcher.Wait()
	s.Store.Clear()
}

func (s *Session) refetch(ctx context.Context) {
	s.Dispatcher.tasks.Go("refetch", func() error {
		cctx, cancel := context.WithTimeout(ctx, DefaultReadTimeout)
		defer cancel()
		return s.Dispatcher.FetchNotifications(cctx, false)
	})
}
