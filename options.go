package pocketsync

// This file defines functional options that configure the Tracker during
// construction. Keeping them in a standalone file makes it easy to
// discover all available knobs at a glance.

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pocketsync/pocketsync/internal/store"
)

// Option configures a Tracker during construction in New.
//
// Options are applied before the stores and monitor are wired, so a store
// injected here replaces the one New would build from configuration.
// Options must be deterministic and side-effect free.
type Option func(*Tracker) error

// WithHTTPTimeout sets the underlying http.Client Timeout used for all
// remote requests. Prefer per-request context deadlines where possible;
// this is a coarse safety net. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(t *Tracker) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		t.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the HTTP transport so each request/response is
// dumped to the log when enabled is true. Do not enable in production;
// dumps include headers and bodies.
func WithDebugLogging(enabled bool) Option {
	return func(t *Tracker) error {
		if enabled {
			t.http.Transport = &debugTransport{base: t.http.Transport}
		}
		return nil
	}
}

// WithLocalStore replaces the SQLite store built from configuration.
// The caller retains ownership; Close will not close an injected store.
func WithLocalStore(s store.Local) Option {
	return func(t *Tracker) error {
		if s == nil {
			return fmt.Errorf("local store must not be nil")
		}
		t.local = s
		return nil
	}
}

// WithRemoteStore replaces the HTTP store built from configuration and
// disables the connectivity probe; drive reachability with SetOnline.
func WithRemoteStore(s store.Remote) Option {
	return func(t *Tracker) error {
		if s == nil {
			return fmt.Errorf("remote store must not be nil")
		}
		t.remote = s
		t.monitorOff = true
		return nil
	}
}

// WithClock replaces the wall-clock source for item timestamps. For tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		t.nowFunc = now
		return nil
	}
}

// WithLogger replaces the default structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Tracker) error {
		t.log = log
		return nil
	}
}
