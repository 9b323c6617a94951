package eventbus

import (
	"context"
	"sync"

	"pkt.systems/companion/core"
	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventSelected carries a newly persisted selection.
	EventSelected EventType = "selected"
)

// Event is delivered to subscribers.
type Event struct {
	Type      EventType
	Selection schema.Selection
}

// Bus fans selection events out to subscribers. Publishing never blocks; a
// full subscriber misses the event.
type Bus struct {
	mu      sync.Mutex
	subs    map[chan Event]struct{}
	log     pslog.Logger
	depth   int
	dropped uint64
}

var _ core.Observer = (*Bus)(nil)

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logger,
		depth: 16,
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel func.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
			b.log.Debug("eventbus unsubscribe")
		})
	}
}

// OnSelected publishes a selection event.
func (b *Bus) OnSelected(namespaceID, memberID, displayName string) {
	b.publish(Event{
		Type: EventSelected,
		Selection: schema.Selection{
			Component:   schema.ComponentID{NamespaceID: namespaceID, MemberID: memberID},
			DisplayName: displayName,
		},
	})
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return
	}
	dropped := 0
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.dropped += uint64(dropped)
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "count", dropped, "type", event.Type)
	}
}
