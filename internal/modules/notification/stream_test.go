package notification

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtsvc "qaforum/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, repo Repository) (*httptest.Server, *Hub, *jwtsvc.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	t.Cleanup(hub.Close)

	j := jwtsvc.New("test-secret", time.Hour)
	svc := NewService(repo, hub)
	h := NewStreamHandler(hub, j, svc, time.Hour)

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterRoutes(v1)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, j
}

func TestStreamHandler_RejectsMissingOrInvalidToken(t *testing.T) {
	srv, _, _ := newStreamServer(t, new(MockRepository))

	resp, err := http.Get(srv.URL + "/api/v1/notifications/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/notifications/stream?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStreamHandler_EmitsConnectedInitialCountAndLiveEvents(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CountUnread", mock.Anything, int64(7)).Return(int64(2), nil)

	srv, hub, j := newStreamServer(t, repo)

	token, err := j.GenerateToken(7, "alice@example.com")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/notifications/stream?token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	readEventName := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "event:") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			}
		}
	}

	assert.Equal(t, EventConnected, readEventName())
	assert.Equal(t, EventUnreadCount, readEventName())

	// the subscriber registers before the handler emits its first event,
	// so anything published now must arrive
	require.Eventually(t, func() bool {
		return hub.SubscriberCount(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(7, Event{Name: EventNewNotification, Data: struct{}{}})
	assert.Equal(t, EventNewNotification, readEventName())

	hub.Publish(7, Event{Name: EventNotificationDeleted, Data: map[string]int64{"notificationId": 3}})
	assert.Equal(t, EventNotificationDeleted, readEventName())
}
