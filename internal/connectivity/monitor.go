// Package connectivity observes whether the remote store is reachable and
// raises edge-triggered events on each offline→online and online→offline
// transition. It never decides what to do about a transition; the sync
// engine subscribes and owns the reaction.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pocketsync",
		Name:      "connectivity_transitions_total",
		Help:      "Reachability transitions by direction.",
	},
	[]string{"event"},
)

// Event is a reachability transition.
type Event int

const (
	// BecameReachable fires exactly once per offline→online transition.
	BecameReachable Event = iota

	// BecameUnreachable fires exactly once per online→offline transition.
	BecameUnreachable
)

func (e Event) String() string {
	if e == BecameReachable {
		return "became-reachable"
	}
	return "became-unreachable"
}

// Handler receives transition events.
type Handler func(Event)

// ProbeFunc checks reachability; nil means the remote store answered.
type ProbeFunc func(ctx context.Context) error

// HTTPProbe probes the service health endpoint with a HEAD request.
func HTTPProbe(baseURL string, client *http.Client) ProbeFunc {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL+"/v1/health", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		return nil
	}
}

// Monitor tracks reachability. It starts unreachable until the first
// successful probe; Set allows tests and CLI forced modes to drive state
// without a probe loop.
type Monitor struct {
	mu        sync.Mutex
	reachable bool
	handlers  []Handler

	probe    ProbeFunc
	interval time.Duration
	log      zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor constructs a Monitor. probe may be nil when state is only
// driven through Set. interval is the pace between probes while online;
// failed probes are retried with exponential backoff capped at interval.
func NewMonitor(probe ProbeFunc, interval time.Duration, log zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{probe: probe, interval: interval, log: log}
}

// Reachable reports the current state.
func (m *Monitor) Reachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

// Subscribe registers a handler for transition events. Handlers run
// synchronously on the goroutine that detected the transition.
func (m *Monitor) Subscribe(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Set records the observed state and emits an event only when the state
// actually changed. Setting the current state again is a no-op.
func (m *Monitor) Set(reachable bool) {
	m.mu.Lock()
	if m.reachable == reachable {
		m.mu.Unlock()
		return
	}
	m.reachable = reachable
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	ev := BecameUnreachable
	if reachable {
		ev = BecameReachable
	}
	m.log.Info().Stringer("event", ev).Msg("connectivity transition")
	transitionsTotal.WithLabelValues(ev.String()).Inc()
	for _, h := range handlers {
		h(ev)
	}
}

// Start launches the probe loop. It probes immediately, then paces with
// the configured interval while online and exponential backoff while
// offline. Calling Start twice is a no-op; Stop ends the loop.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.probe == nil || m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go m.run(ctx, done)
}

// Stop ends the probe loop and waits for it to exit. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = m.interval
	exp.MaxElapsedTime = 0 // probe forever
	exp.Reset()

	for {
		err := m.probe(ctx)
		if ctx.Err() != nil {
			return
		}
		m.Set(err == nil)

		wait := m.interval
		if err != nil {
			wait = exp.NextBackOff()
		} else {
			exp.Reset()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
