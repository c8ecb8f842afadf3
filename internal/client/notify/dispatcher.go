package notify

import (
	"context"
	"log"
	"time"
)

const (
	// DefaultReadTimeout bounds a single mark-read confirmation round-trip.
	DefaultReadTimeout = 10 * time.Second

	defaultPageLimit = 20
)

// Dispatcher exposes the notification operations the rest of the application
// calls. Each mutation follows optimistic-mutate, confirm, reconcile-or-
// rollback; deletion is the exception and confirms first.
type Dispatcher struct {
	api         API
	store       *Store
	tasks       *taskGroup
	logger      logger
	readTimeout time.Duration
}

func NewDispatcher(api API, store *Store, l *log.Logger) *Dispatcher {
	lg := ensureLogger(l)
	return &Dispatcher{
		api:         api,
		store:       store,
		tasks:       newTaskGroup(lg),
		logger:      lg,
		readTimeout: DefaultReadTimeout,
	}
}

// MarkAsRead flips the notification to read locally and confirms with the
// server in the background. The returned channel delivers the final outcome
// once, buffered, so callers such as navigation handlers are free to move on
// without receiving from it; the confirmation still runs to completion under
// the task group and failures are logged there.
//
// A timeout keeps the optimistic state (the write may still have landed);
// an explicit rejection rolls it back and the error reaches the channel.
func (d *Dispatcher) MarkAsRead(ctx context.Context, id int64) <-chan error {
	wasUnread := d.store.BeginMarkRead(id)

	done := make(chan error, 1)
	d.tasks.Go("mark_read", func() error {
		// Detached from the caller's cancellation: navigating away must not
		// abort the confirmation.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.readTimeout)
		defer cancel()

		_, err := d.api.MarkAsRead(cctx, id)
		if err == nil {
			d.store.ConfirmMarkRead(id)
			done <- nil
			return nil
		}

		timeout := isTimeout(err)
		d.store.FailMarkRead(id, timeout, wasUnread)
		if timeout {
			d.logger.Printf("mark_read_timeout id=%d keeping optimistic state: %v", id, err)
		}
		done <- err
		return err
	})
	return done
}

// MarkAllAsRead snapshots the current state, optimistically marks everything
// read, and restores the snapshot in full if the server call fails.
func (d *Dispatcher) MarkAllAsRead(ctx context.Context) error {
	prevList, prevCount, marked := d.store.MarkAllRead()

	cctx, cancel := context.WithTimeout(ctx, d.readTimeout)
	defer cancel()

	if err := d.api.MarkAllAsRead(cctx); err != nil {
		d.store.RestoreAfterMarkAll(prevList, prevCount, marked)
		return err
	}

	d.store.ConfirmMarkAll(marked)
	return nil
}

// RemoveNotification deletes on the server first; local state changes only
// on success. Deletion is less latency-sensitive than read-marking and a
// mistaken removal is costlier than a short delay.
func (d *Dispatcher) RemoveNotification(ctx context.Context, id int64) error {
	cctx, cancel := context.WithTimeout(ctx, d.readTimeout)
	defer cancel()

	if err := d.api.Delete(cctx, id); err != nil {
		return err
	}

	d.store.DeleteConfirmed(id)
	return nil
}

// FetchNotifications is the authoritative full replace of the list and
// count, used at session start and after bulk external changes. A failure
// lands in the store's error field and leaves cached state alone.
func (d *Dispatcher) FetchNotifications(ctx context.Context, unreadOnly bool) error {
	d.store.SetLoading(true)
	defer d.store.SetLoading(false)

	res, err := d.api.FetchNotifications(ctx, unreadOnly, defaultPageLimit, 0)
	if err != nil {
		d.store.SetError(err)
		return err
	}

	d.store.ReplaceAll(res.Notifications, res.UnreadCount)
	return nil
}

// FetchUnreadCount pulls the count and runs it through the store's merge
// rule like any other server-originated count.
func (d *Dispatcher) FetchUnreadCount(ctx context.Context) error {
	count, err := d.api.FetchUnreadCount(ctx)
	if err != nil {
		d.store.SetError(err)
		return err
	}

	d.store.ApplyServerCount(count)
	return nil
}

// Reconcile re-fetches the full state once no protection window is active.
// It is the safety net for the timeout-keeps-optimistic-state policy: if a
// timed-out write never landed, the next unprotected reconcile converges the
// client instead of leaving it out of sync forever.
func (d *Dispatcher) Reconcile(ctx context.Context) error {
	if d.store.Protected() {
		return nil
	}
	return d.FetchNotifications(ctx, false)
}

// Wait drains outstanding background confirmations; called at teardown.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
}
