package notify

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is the fallback polling cadence.
const DefaultPollInterval = 30 * time.Second

// reconcileEvery makes one tick in N a full list re-fetch instead of a bare
// count poll, so a timed-out write that never landed eventually converges.
const reconcileEvery = 10

// Poller is the secondary transport mode: a fixed-interval unread-count
// poll used when the push stream is unsupported or has permanently failed.
//
// A tick is skipped while the session is suspended (the tab is hidden) or
// while the store reports an in-flight confirmation or an active protection
// window — polling then would clobber a just-applied local change with
// stale server data. Resume triggers an immediate poll.
type Poller struct {
	dispatcher *Dispatcher
	store      *Store
	interval   time.Duration
	logger     logger

	mu        sync.Mutex
	suspended bool
	running   bool
	ticks     int
	stopCh    chan struct{}
	kickCh    chan struct{}
}

func NewPoller(dispatcher *Dispatcher, store *Store, interval time.Duration, l logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		dispatcher: dispatcher,
		store:      store,
		interval:   interval,
		logger:     l,
		kickCh:     make(chan struct{}, 1),
	}
}

// Start begins polling until Stop or ctx cancellation. Restart after Stop
// is allowed; a second Start while running is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.loop(ctx, stopCh)
}

func (p *Poller) loop(ctx context.Context, stopCh chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-p.kickCh:
			p.pollOnce(ctx)
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	p.mu.Lock()
	suspended := p.suspended
	p.mu.Unlock()
	if suspended {
		return
	}

	if p.store.Protected() {
		// a confirmation is outstanding or an optimistic update is inside
		// its protection window; this poll would only deliver stale data
		return
	}

	p.mu.Lock()
	p.ticks++
	full := p.ticks%reconcileEvery == 0
	p.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, DefaultReadTimeout)
	defer cancel()

	var err error
	if full {
		err = p.dispatcher.Reconcile(cctx)
	} else {
		err = p.dispatcher.FetchUnreadCount(cctx)
	}
	if err != nil {
		p.logger.Printf("poll_failed full=%t error=%v", full, err)
	}
}

// Suspend pauses polling while the application is not visible.
func (p *Poller) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = true
}

// Resume lifts a suspension and triggers an immediate poll.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.suspended = false
	p.mu.Unlock()

	select {
	case p.kickCh <- struct{}{}:
	default:
	}
}

// Stop halts polling; safe to call multiple times.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}
