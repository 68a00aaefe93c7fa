package localstore

import "sync"

// notifier fans a change signal out to live-query subscribers. Signals are
// coalesced: a subscriber that has not drained its channel yet receives a
// single pending signal covering any number of writes.
type notifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[chan struct{}]struct{})}
}

// subscribe registers a signal channel and returns it with an unsubscribe
// function. The channel is buffered so broadcasters never block.
func (n *notifier) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	unsubscribe := func() {
		n.mu.Lock()
		delete(n.subs, ch)
		n.mu.Unlock()
	}
	return ch, unsubscribe
}

// broadcast wakes every subscriber after a committed write.
func (n *notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
			// subscriber already has a pending signal
		}
	}
}
