package eventbus

import "sync"

// Event is any value published on the bus.
type Event any

// defaultBuffer is the per-subscriber channel capacity used when New is
// called with a non-positive size.
const defaultBuffer = 16

// Bus is an in-process publish/subscribe bus. Every subscriber owns a
// buffered channel; publishing never blocks, events are dropped for
// subscribers whose buffer is full.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	buffer int
	closed bool
}

// New creates a Bus whose subscriber channels hold up to buffer events.
func New(buffer int) *Bus {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Bus{subs: make(map[int]chan Event), buffer: buffer}
}

// Subscription is a registered listener on a Bus. Events arrive on C until
// Cancel is called or the bus is closed.
type Subscription struct {
	C   <-chan Event
	id  int
	bus *Bus
}

// Cancel removes the subscription and closes its channel. Canceling twice
// or after Close is harmless.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.cancel(s.id)
}

// Subscribe registers a new subscriber. On a closed bus the returned
// subscription carries an already closed channel.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return &Subscription{C: ch}
	}
	b.nextID++
	b.subs[b.nextID] = ch
	return &Subscription{C: ch, id: b.nextID, bus: b}
}

// Publish delivers e to every subscriber with buffer capacity left. It never
// blocks and is a no-op on a closed bus.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *Bus) cancel(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)
}

// Close closes every subscriber channel and marks the bus as closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
