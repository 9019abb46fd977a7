package job

import (
	"sync"
	"time"
)

// EventType identifies a lifecycle event.
type EventType string

const (
	EventStarted  EventType = "started"
	EventQuestion EventType = "question"
	EventAnswered EventType = "answered"
	EventFinished EventType = "finished"
)

// Event is emitted on every lifecycle transition of a job.
type Event struct {
	Type    EventType `json:"type"`
	JobID   string    `json:"job_id"`
	JobType string    `json:"job_type"`
	Time    time.Time `json:"time"`

	// Error is the run error, set on EventFinished only
	Error string `json:"error,omitempty"`
}

// Listener receives events synchronously on the goroutine that caused them.
// Listeners must not block and must not call back into the job.
type Listener func(Event)

// Broadcaster fans events out to subscribers without ever blocking the
// publisher: an event is dropped for a subscriber whose buffer is full.
//
// Thread Safety:
// Safe for concurrent use. Publish after Close is a no-op.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	closed      bool
}

// NewBroadcaster creates a broadcaster without subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]chan Event)}
}

// Subscribe returns a channel receiving future events and a function that
// unsubscribes and closes it. buffer is the channel capacity.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(sub)
			}
		})
	}
}

// Publish delivers e to every subscriber with room in its buffer.
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Listener adapts the broadcaster to a job Listener.
func (b *Broadcaster) Listener() Listener {
	return b.Publish
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
