package emit

import "sync"

// BufferedEmitter accumulates events in memory and forwards them to an
// underlying Emitter only on Flush, or once the buffer reaches
// capacity. Useful for batching network-backed emitters.
type BufferedEmitter struct {
	mu       sync.Mutex
	buf      []Event
	capacity int
	next     Emitter
}

// NewBufferedEmitter wraps next, flushing automatically once capacity
// events have accumulated. capacity <= 0 disables auto-flush (the
// caller must call Flush explicitly).
func NewBufferedEmitter(next Emitter, capacity int) *BufferedEmitter {
	return &BufferedEmitter{next: next, capacity: capacity}
}

func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	b.buf = append(b.buf, event)
	shouldFlush := b.capacity > 0 && len(b.buf) >= b.capacity
	b.mu.Unlock()

	if shouldFlush {
		b.Flush()
	}
}

func (b *BufferedEmitter) EmitBatch(events []Event) {
	b.mu.Lock()
	b.buf = append(b.buf, events...)
	b.mu.Unlock()
}

func (b *BufferedEmitter) Flush() {
	b.mu.Lock()
	pending := b.buf
	b.buf = nil
	b.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	b.next.EmitBatch(pending)
	b.next.Flush()
}
