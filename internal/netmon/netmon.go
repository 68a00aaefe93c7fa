// Package netmon exposes network availability as a synchronous boolean and
// an observable stream of changes. Repositories consult it before choosing
// online vs. offline behavior; they never probe the network themselves.
package netmon

import (
	"context"
	"net"
	"sync"
	"time"

	"studygram/internal/observability"
)

// Monitor reports current connectivity.
type Monitor interface {
	// IsAvailable returns the current connectivity state.
	IsAvailable() bool
	// Observe returns a stream of state transitions. The channel is closed
	// when the monitor shuts down.
	Observe() <-chan bool
}

// Static always reports a fixed state. Useful for tools that only ever run
// online (seeding) and for tests.
type Static bool

func (s Static) IsAvailable() bool    { return bool(s) }
func (s Static) Observe() <-chan bool { return make(chan bool) }

// Manual is a hand-toggled monitor for tests and simulations.
type Manual struct {
	mu        sync.Mutex
	available bool
	subs      []chan bool
}

// NewManual creates a Manual monitor with the given initial state.
func NewManual(available bool) *Manual {
	return &Manual{available: available}
}

func (m *Manual) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *Manual) Observe() <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan bool, 4)
	m.subs = append(m.subs, ch)
	return ch
}

// Set flips the state and broadcasts the transition to observers.
func (m *Manual) Set(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.available == available {
		return
	}
	m.available = available
	for _, ch := range m.subs {
		select {
		case ch <- available:
		default:
		}
	}
}

// Pinger probes a TCP address on an interval and reports reachability.
type Pinger struct {
	addr     string
	interval time.Duration
	timeout  time.Duration

	mu        sync.Mutex
	available bool
	subs      []chan bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPinger starts a monitor that dials addr every interval. The initial
// state is probed synchronously so IsAvailable is meaningful immediately.
func NewPinger(addr string, interval time.Duration) *Pinger {
	p := &Pinger{
		addr:     addr,
		interval: interval,
		timeout:  3 * time.Second,
	}
	p.available = p.probe()
	observability.NetworkAvailable.Set(boolToGauge(p.available))

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx)
	return p
}

func (p *Pinger) IsAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

func (p *Pinger) Observe() <-chan bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan bool, 4)
	p.subs = append(p.subs, ch)
	return ch
}

// Close stops the probe loop and closes all observer channels.
func (p *Pinger) Close() {
	p.cancel()
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
}

func (p *Pinger) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.update(p.probe())
		}
	}
}

func (p *Pinger) probe() bool {
	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p *Pinger) update(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.available == available {
		return
	}
	p.available = available
	observability.NetworkAvailable.Set(boolToGauge(available))
	for _, ch := range p.subs {
		select {
		case ch <- available:
		default:
		}
	}
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
