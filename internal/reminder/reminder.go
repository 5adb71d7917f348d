// Package reminder provides the periodic "check your pockets" timer. It
// is the only cancelable resource in the system: at most one timer is
// active, starting a new one replaces the old, and it only ever reads
// item snapshots, never mutates them.
package reminder

import (
	"sync"
	"time"

	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
	"github.com/pocketsync/pocketsync/internal/model"
)

var errInvalidInterval = &syncerrors.ValidationError{Field: "interval", Reason: "must be positive"}

// SnapshotFunc returns the current in-memory item cache snapshot.
type SnapshotFunc func() []model.Item

// NotifyFunc receives the snapshot on every tick. An empty snapshot is
// delivered as-is; presentation ("check your pockets!") is the caller's
// concern.
type NotifyFunc func(items []model.Item)

// Timer fires a notification on a fixed interval.
type Timer struct {
	mu       sync.Mutex
	snapshot SnapshotFunc
	stop     chan struct{}
	done     chan struct{}
}

// New constructs a stopped Timer over the given snapshot source.
func New(snapshot SnapshotFunc) *Timer {
	return &Timer{snapshot: snapshot}
}

// Start begins ticking every interval. A running timer is canceled and
// replaced. Intervals must be positive.
func (t *Timer) Start(interval time.Duration, notify NotifyFunc) error {
	if interval <= 0 {
		return errInvalidInterval
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				notify(t.snapshot())
			}
		}
	}()
	return nil
}

// Stop cancels the active timer, if any. Idempotent.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop, t.done = nil, nil
}

// Active reports whether a timer is currently running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}
