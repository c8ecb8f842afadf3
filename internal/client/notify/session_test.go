package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves just enough of the REST and stream surface to run a
// Session end to end.
type fakeBackend struct {
	mu     sync.Mutex
	list   []Notification
	unread int
	push   chan string // raw SSE frames
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{push: make(chan string, 8)}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/notifications/stream", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		io.WriteString(w, "event:connected\ndata:{}\n\n")
		flusher.Flush()
		for {
			select {
			case frame := <-b.push:
				io.WriteString(w, frame)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeEnvelope(w, map[string]any{
			"notifications": b.list,
			"unread_count":  b.unread,
		})
	})

	mux.HandleFunc("/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeEnvelope(w, map[string]any{"count": b.unread})
	})

	return mux
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func TestSession_StartFetchesAndAppliesPushEvents(t *testing.T) {
	backend := newFakeBackend()
	backend.list = []Notification{{ID: 1, Message: "first"}, {ID: 2, Message: "second"}}
	backend.unread = 2

	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	s := NewSession(Config{
		BaseURL: srv.URL,
		Token:   staticToken("tok"),
	})
	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool {
		snap := s.Store.Snapshot()
		return len(snap.Notifications) == 2 && snap.UnreadCount == 2
	}, 2*time.Second, 10*time.Millisecond)

	// server-pushed count moves the badge down
	backend.push <- "event:unread_count\ndata:{\"count\":1}\n\n"
	require.Eventually(t, func() bool {
		return s.Store.UnreadCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// pushed deletion trims the list without touching the count
	backend.push <- "event:notification_deleted\ndata:{\"notificationId\":2}\n\n"
	require.Eventually(t, func() bool {
		return len(s.Store.Snapshot().Notifications) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.Store.UnreadCount())
}

func TestSession_NewNotificationEventTriggersRefetch(t *testing.T) {
	backend := newFakeBackend()
	backend.list = []Notification{{ID: 1}}
	backend.unread = 1

	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	s := NewSession(Config{BaseURL: srv.URL, Token: staticToken("tok")})
	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool {
		return len(s.Store.Snapshot().Notifications) == 1
	}, 2*time.Second, 10*time.Millisecond)

	backend.mu.Lock()
	backend.list = []Notification{{ID: 9}, {ID: 1}}
	backend.unread = 2
	backend.mu.Unlock()

	// the event carries no payload; the client must re-fetch the list
	backend.push <- "event:new_notification\ndata:{}\n\n"

	require.Eventually(t, func() bool {
		snap := s.Store.Snapshot()
		return len(snap.Notifications) == 2 && snap.UnreadCount == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_CloseIsIdempotentAndClearsState(t *testing.T) {
	backend := newFakeBackend()
	backend.list = []Notification{{ID: 1}}
	backend.unread = 1

	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	s := NewSession(Config{BaseURL: srv.URL, Token: staticToken("tok")})
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return s.Store.UnreadCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Close()
	s.Close()

	snap := s.Store.Snapshot()
	assert.Empty(t, snap.Notifications)
	assert.Zero(t, snap.UnreadCount)
}

func TestSession_ContentChangedRefetches(t *testing.T) {
	backend := newFakeBackend()
	backend.unread = 0

	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	s := NewSession(Config{BaseURL: srv.URL, Token: staticToken("tok")})
	s.Start(context.Background())
	defer s.Close()

	backend.mu.Lock()
	backend.list = []Notification{{ID: 5}}
	backend.unread = 1
	backend.mu.Unlock()

	s.ContentChanged()

	require.Eventually(t, func() bool {
		snap := s.Store.Snapshot()
		return len(snap.Notifications) == 1 && snap.UnreadCount == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_FallsBackToPollingWhenStreamGivesUp(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the full reconnect backoff")
	}

	// REST endpoints work, but the stream endpoint always refuses
	mux := http.NewServeMux()
	var mu sync.Mutex
	unread := 3
	mux.HandleFunc("/notifications/stream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		writeEnvelope(w, map[string]any{"notifications": []Notification{}, "unread_count": unread})
	})
	mux.HandleFunc("/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		writeEnvelope(w, map[string]any{"count": unread})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewSession(Config{
		BaseURL:      srv.URL,
		Token:        staticToken("tok"),
		PollInterval: 20 * time.Millisecond,
	})

	s.Start(context.Background())
	defer s.Close()

	// after the stream exhausts its reconnects the poller takes over;
	// the default backoff makes that take 2+4+6 seconds
	mu.Lock()
	unread = 2
	mu.Unlock()

	require.Eventually(t, func() bool {
		return s.Store.UnreadCount() == 2
	}, 20*time.Second, 50*time.Millisecond)
}
