package memory

import (
	"context"
	"sync"

	"github.com/aescanero/coyote/pkg/metrics"
)

// Hub fans metrics snapshots out to in-process subscribers.
// It implements ports.SnapshotSink.
type Hub struct {
	subscribers map[int]chan *metrics.Snapshot
	nextID      int
	buffer      int
	mu          sync.RWMutex
}

// NewHub creates a hub whose subscriber channels hold buffer snapshots
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subscribers: make(map[int]chan *metrics.Snapshot),
		buffer:      buffer,
	}
}

// Name returns the sink name
func (h *Hub) Name() string {
	return "hub"
}

// Report delivers the snapshot to every subscriber. Subscribers whose
// buffer is full miss this snapshot.
func (h *Hub) Report(ctx context.Context, snapshot *metrics.Snapshot) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done. The returned channel
// is closed after the subscription ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan *metrics.Snapshot {
	ch := make(chan *metrics.Snapshot, h.buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch
	h.mu.Unlock()

	// Clean up subscription on context cancellation
	go func() {
		<-ctx.Done()
		h.unsubscribe(id)
	}()

	return ch
}

// Subscribers returns the number of active subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close ends every subscription
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	return nil
}

func (h *Hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}
