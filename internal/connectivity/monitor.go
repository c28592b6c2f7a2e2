// Package connectivity tracks whether the Rick and Morty API is reachable and
// publishes online/offline transitions.
package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/colthorp/rickmorty-cli-go/internal/core"
	"github.com/colthorp/rickmorty-cli-go/internal/logging"
	"github.com/colthorp/rickmorty-cli-go/internal/metrics"
)

// State is the reachability of the API as last observed.
type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Prober checks reachability once.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber reports the API reachable when any HTTP response comes back.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber creates a prober for url with the given per-probe timeout.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = core.DefaultProbeTimeout
	}
	return &HTTPProber{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Probe performs a single HEAD request against the configured URL.
func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.url, err)
	}
	resp.Body.Close()
	return nil
}

// Monitor owns the connectivity state. Transitions run the registered hooks
// synchronously, then are published to subscribers without blocking.
type Monitor struct {
	prober   Prober
	interval time.Duration
	log      *zap.Logger

	mu          sync.RWMutex
	state       State
	known       bool
	hooks       []func(State)
	subscribers map[chan State]struct{}
}

// NewMonitor creates a monitor that polls prober every interval.
func NewMonitor(prober Prober, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = core.DefaultProbeInterval
	}
	return &Monitor{
		prober:      prober,
		interval:    interval,
		log:         logging.Named(logger, "connectivity"),
		subscribers: make(map[chan State]struct{}),
	}
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Online reports whether the current state is Online.
func (m *Monitor) Online() bool {
	return m.State() == Online
}

// Snapshot probes once and records the result as the initial state without
// running hooks or notifying subscribers.
func (m *Monitor) Snapshot(ctx context.Context) State {
	state := m.probe(ctx)

	m.mu.Lock()
	m.state = state
	m.known = true
	m.mu.Unlock()

	metrics.RecordTransition(state.String(), state == Online)
	m.log.Debug("initial connectivity", zap.Stringer("state", state))
	return state
}

// OnTransition registers fn to run on every state change, before subscribers
// are notified.
func (m *Monitor) OnTransition(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Subscribe returns a channel receiving every subsequent transition.
// The caller must call Unsubscribe when done.
func (m *Monitor) Subscribe() chan State {
	ch := make(chan State, 16)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Monitor) Unsubscribe(ch chan State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		close(ch)
	}
}

// Report records a reachability observation. Only changes of state are
// acted upon.
func (m *Monitor) Report(reachable bool) {
	next := Offline
	if reachable {
		next = Online
	}

	m.mu.Lock()
	if m.known && m.state == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	m.known = true
	hooks := make([]func(State), len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	metrics.RecordTransition(next.String(), next == Online)
	m.log.Info("connectivity changed", zap.Stringer("state", next))

	for _, fn := range hooks {
		fn(next)
	}
	m.publish(next)
}

func (m *Monitor) publish(state State) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range m.subscribers {
		select {
		case ch <- state:
		default:
			// Drop for slow consumer
		}
	}
}

// Run polls the prober until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := m.probe(ctx)
			// A probe cut short by shutdown says nothing about reachability.
			if ctx.Err() != nil {
				return
			}
			m.Report(state == Online)
		}
	}
}

// Start runs the polling loop on its own goroutine.
func (m *Monitor) Start(ctx context.Context) {
	go m.Run(ctx)
}

func (m *Monitor) probe(ctx context.Context) State {
	if err := m.prober.Probe(ctx); err != nil {
		m.log.Debug("probe failed", zap.Error(err))
		return Offline
	}
	return Online
}
