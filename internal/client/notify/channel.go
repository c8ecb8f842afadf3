package notify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	maxReconnectAttempts = 3
	reconnectBaseDelay   = 2 * time.Second

	maxEventLine = 1 << 20
)

// Callbacks receive the channel's decoded events. Nil members are skipped.
type Callbacks struct {
	OnConnected           func()
	OnUnreadCount         func(count int)
	OnNewNotification     func()
	OnNotificationDeleted func(id int64)
	// OnError fires once, after reconnection attempts are exhausted; the
	// caller is responsible for falling back to polling.
	OnError func(err error)
}

// Channel is the push transport: one long-lived server-sent-event stream,
// re-dialed with a fresh credential on every attempt, with linear backoff
// (attempt n waits n×2s) and a hard stop after three failed reconnects.
type Channel struct {
	streamURL  string
	token      TokenProvider
	cb         Callbacks
	logger     logger
	httpClient *http.Client

	maxAttempts int
	baseDelay   time.Duration

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// OpenChannel establishes the stream and starts delivering events. The
// returned function closes the channel: it synchronously cancels any pending
// reconnect timer and the live connection, and is safe to call repeatedly.
func OpenChannel(streamURL string, token TokenProvider, cb Callbacks, l *log.Logger) (closeFn func()) {
	ch := &Channel{
		streamURL: streamURL,
		token:     token,
		cb:        cb,
		logger:    ensureLogger(l),
		// no client-level timeout: the stream is long-lived by design
		httpClient:  &http.Client{},
		maxAttempts: maxReconnectAttempts,
		baseDelay:   reconnectBaseDelay,
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch.cancel = cancel

	go ch.run(ctx)
	return ch.Close
}

func (ch *Channel) Close() {
	ch.closeOnce.Do(func() {
		ch.cancel()
	})
}

func (ch *Channel) run(ctx context.Context) {
	attempts := 0
	var lastErr error

	for {
		established, err := ch.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			lastErr = err
			ch.logger.Printf("stream_disconnect error=%v", err)
		}
		if established {
			// a successful (re)connect resets the attempt counter
			attempts = 0
		}

		attempts++
		if attempts > ch.maxAttempts {
			if ch.cb.OnError != nil {
				ch.cb.OnError(fmt.Errorf("notification stream gave up after %d reconnect attempts: %w", ch.maxAttempts, lastErr))
			}
			return
		}

		timer := time.NewTimer(time.Duration(attempts) * ch.baseDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// connectOnce dials the stream with a freshly fetched credential and reads
// events until the connection ends. established reports whether the stream
// was actually opened (HTTP 200), which is what resets the backoff counter.
func (ch *Channel) connectOnce(ctx context.Context) (established bool, err error) {
	tok, err := ch.token()
	if err != nil {
		return false, fmt.Errorf("fetching credential: %w", err)
	}

	// the underlying transport has no custom headers, so the credential
	// rides in the query string
	sep := "?"
	if strings.Contains(ch.streamURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ch.streamURL+sep+"token="+url.QueryEscape(tok), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := ch.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	return true, ch.readEvents(resp.Body)
}

// readEvents consumes the text/event-stream framing: accumulate event/data
// fields, dispatch on the blank line, ignore comments and unknown fields.
func (ch *Channel) readEvents(body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), maxEventLine)

	var eventName string
	var data bytes.Buffer

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if eventName != "" {
				ch.dispatch(eventName, data.Bytes())
			}
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// heartbeat comment
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed by server")
}

func (ch *Channel) dispatch(name string, data []byte) {
	ev, err := parseStreamEvent(name, data)
	if err != nil {
		// malformed payloads are dropped; the connection stays open
		ch.logger.Printf("stream_event_dropped error=%v", err)
		return
	}

	switch ev := ev.(type) {
	case connectedEvent:
		if ch.cb.OnConnected != nil {
			ch.cb.OnConnected()
		}
	case unreadCountEvent:
		if ch.cb.OnUnreadCount != nil {
			ch.cb.OnUnreadCount(ev.Count)
		}
	case newNotificationEvent:
		if ch.cb.OnNewNotification != nil {
			ch.cb.OnNewNotification()
		}
	case notificationDeletedEvent:
		if ch.cb.OnNotificationDeleted != nil {
			ch.cb.OnNotificationDeleted(ev.NotificationID)
		}
	}
}
