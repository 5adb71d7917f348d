// Package pocketsync is the embeddable SDK for the personal item tracker.
// It wires the local SQLite store, the remote HTTP store, identity and
// connectivity tracking, and the synchronization engine into a single
// Tracker facade.
package pocketsync

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pocketsync/pocketsync/internal/config"
	"github.com/pocketsync/pocketsync/internal/connectivity"
	"github.com/pocketsync/pocketsync/internal/engine"
	"github.com/pocketsync/pocketsync/internal/identity"
	"github.com/pocketsync/pocketsync/internal/logger"
	"github.com/pocketsync/pocketsync/internal/model"
	"github.com/pocketsync/pocketsync/internal/reminder"
	"github.com/pocketsync/pocketsync/internal/store"
	"github.com/pocketsync/pocketsync/internal/store/remote"
	"github.com/pocketsync/pocketsync/internal/store/sqlite"
)

// Tracker is the public entry point. One Tracker owns one local database,
// one remote endpoint, and the in-memory item cache between them.
type Tracker struct {
	cfg *config.Config
	log zerolog.Logger

	http   *http.Client
	local  store.Local
	remote store.Remote
	ident  *identity.Manager
	conn   *connectivity.Monitor
	eng    *engine.Engine
	timer  *reminder.Timer

	localCloser interface{ Close() error }
	monitorOff  bool
	nowFunc     func() time.Time

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Tracker from the given configuration. Additional
// options can be provided via functional arguments. The connectivity
// monitor starts probing immediately unless the remote store is disabled
// (empty BaseURL) or replaced via WithRemoteStore.
func New(cfg *config.Config, opts ...Option) (*Tracker, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.New(); err != nil {
			return nil, err
		}
	}

	t := &Tracker{
		cfg:  cfg,
		log:  logger.New("pocketsync"),
		http: &http.Client{Timeout: cfg.HTTPTimeout},
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	if t.local == nil {
		ls, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		t.local = ls
		t.localCloser = ls
	}
	if t.remote == nil && cfg.BaseURL != "" {
		t.remote = remote.New(cfg.BaseURL, cfg.APIKey, t.http)
	}

	t.ident = identity.NewManager()

	probe := connectivity.HTTPProbe(cfg.BaseURL, &http.Client{Timeout: cfg.HTTPTimeout})
	t.conn = connectivity.NewMonitor(probe, cfg.ProbeInterval, t.log)

	t.eng = engine.New(t.local, t.remote, t.ident, t.conn, t.log)
	if t.nowFunc != nil {
		t.eng.SetNowFunc(t.nowFunc)
	}
	t.timer = reminder.New(t.eng.Items)

	t.ident.Subscribe(t.eng.HandleIdentityEvent)
	t.conn.Subscribe(t.eng.HandleConnectivityEvent)

	if t.remote != nil && !t.monitorOff {
		t.conn.Start(context.Background())
	}
	return t, nil
}

// Close stops the connectivity monitor and reminder timer and closes the
// local database. Safe to call multiple times.
func (t *Tracker) Close() error {
	if !atomic.CompareAndSwapUint32(&t.closedOnce, 0, 1) {
		return nil
	}
	t.conn.Stop()
	t.timer.Stop()
	if t.localCloser != nil {
		return t.localCloser.Close()
	}
	return nil
}

// --------------------------------------------------------------------
// Item operations
// --------------------------------------------------------------------

// AddItem records where an item was put down. The returned Item carries
// the ID the engine assigned: remote, pending, or guest depending on
// identity and connectivity at the time of the call.
func (t *Tracker) AddItem(ctx context.Context, name, location string) (Item, error) {
	return t.eng.Create(ctx, name, location)
}

// DeleteItem removes an item by ID. Deleting an ID that no longer exists
// anywhere succeeds silently.
func (t *Tracker) DeleteItem(ctx context.Context, id ItemID) error {
	return t.eng.Delete(ctx, id)
}

// Items returns a snapshot of the in-memory cache.
func (t *Tracker) Items() []Item {
	return t.eng.Items()
}

// Load refreshes the cache from the best available store for the current
// identity and connectivity state.
func (t *Tracker) Load(ctx context.Context) error {
	return t.eng.Load(ctx)
}

// SyncNow runs a reconciliation sweep immediately instead of waiting for
// the next reconnect event.
func (t *Tracker) SyncNow(ctx context.Context) error {
	return t.eng.Reconcile(ctx)
}

// --------------------------------------------------------------------
// Identity
// --------------------------------------------------------------------

// SignIn transitions to an authenticated session for userID.
func (t *Tracker) SignIn(userID string) { t.ident.SignIn(userID) }

// ContinueAsGuest starts a memory-only guest session.
func (t *Tracker) ContinueAsGuest() { t.ident.ContinueAsGuest() }

// SignOut ends the current session and clears the cache.
func (t *Tracker) SignOut() { t.ident.SignOut() }

// Session returns the current identity session.
func (t *Tracker) Session() identity.Session { return t.ident.Current() }

// --------------------------------------------------------------------
// Connectivity and status
// --------------------------------------------------------------------

// Online reports whether the remote service is currently reachable.
func (t *Tracker) Online() bool { return t.conn.Reachable() }

// StatusText renders the connectivity state for display.
func (t *Tracker) StatusText() string {
	if t.conn.Reachable() {
		return "Online"
	}
	return "Offline"
}

// SetOnline forces the connectivity state, bypassing the probe. Intended
// for tests and the CLI --offline flag.
func (t *Tracker) SetOnline(reachable bool) { t.conn.Set(reachable) }

// --------------------------------------------------------------------
// Reminder
// --------------------------------------------------------------------

// NotifyFunc receives the item snapshot on every reminder tick.
type NotifyFunc = reminder.NotifyFunc

// StartReminder begins periodic notifications with the current item
// snapshot. A running reminder is replaced.
func (t *Tracker) StartReminder(interval time.Duration, notify NotifyFunc) error {
	return t.timer.Start(interval, notify)
}

// StopReminder cancels the active reminder, if any.
func (t *Tracker) StopReminder() { t.timer.Stop() }

// ReminderActive reports whether a reminder timer is running.
func (t *Tracker) ReminderActive() bool { return t.timer.Active() }

// ParseItemID parses the string form produced by ItemID.String.
func ParseItemID(s string) (ItemID, error) { return model.ParseItemID(s) }
