package service

import "sync"

// Event resources and actions.
const (
	ResourceBuildings = "buildings"
	ResourceRenders   = "renders"
	ResourceTiles     = "tiles"

	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionRendered   = "rendered"
	ActionSuperseded = "superseded"
)

// Event represents a resource mutation or a finished render.
type Event struct {
	Resource   string `json:"resource"`             // e.g. "buildings"
	Action     string `json:"action"`               // "created", "rendered", ...
	ID         string `json:"id"`                   // resource ID
	Generation uint64 `json:"generation,omitempty"` // renders only
	RequestID  string `json:"requestId,omitempty"`  // renders only
}

// EventBus is a simple fan-out pub/sub for resource change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking). A nil bus drops
// the event.
func (b *EventBus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// Subscribers reports how many channels are subscribed.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
