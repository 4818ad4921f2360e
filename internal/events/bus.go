package events

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	maxHistory  = 1000
	mailboxSize = 500
)

// Handler consumes an event and may fail. A failing handler never
// affects the emitter or the remaining handlers; the error is logged
// and swallowed by the bus.
type Handler func(Event) error

// registration pairs a handler with the identity of the function the
// caller registered, so Off can remove it again.
type registration struct {
	fn Handler
	id uintptr
}

// Bus is the process-wide event hub. Emit appends to a bounded rolling
// history, then invokes exact-type handlers, then wildcard handlers,
// then pushes to subscriber mailboxes. Handlers for a single Emit run
// sequentially on the emitting goroutine, so the order of side effects
// matches registration order.
type Bus struct {
	mu          sync.Mutex
	handlers    map[Type][]registration
	history     []Event
	subscribers map[<-chan Event]chan Event
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers:    make(map[Type][]registration),
		subscribers: make(map[<-chan Event]chan Event),
	}
}

// On registers a handler for an event type. Multiple handlers per type
// are allowed; they run in registration order.
func (b *Bus) On(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], registration{fn: h, id: funcID(h)})
}

// OnSync registers an infallible handler. It participates in the same
// ordered handler list as On registrations.
func (b *Bus) OnSync(t Type, h func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wrapped := func(e Event) error {
		h(e)
		return nil
	}
	b.handlers[t] = append(b.handlers[t], registration{fn: wrapped, id: funcID(h)})
}

// Off removes every registration of the given handler for the type.
// Removing a handler that was never registered is a no-op.
func (b *Bus) Off(t Type, handler any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := funcID(handler)
	regs := b.handlers[t]
	kept := regs[:0]
	for _, r := range regs {
		if r.id != id {
			kept = append(kept, r)
		}
	}
	b.handlers[t] = kept
}

// Emit publishes an event. The event lands in history before any
// handler runs, so History reflects it immediately after Emit returns.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	b.history = append(b.history, e)
	if len(b.history) > maxHistory {
		b.history = b.history[len(b.history)-maxHistory:]
	}

	regs := make([]registration, 0, len(b.handlers[e.Type])+len(b.handlers[Wildcard]))
	regs = append(regs, b.handlers[e.Type]...)
	if e.Type != Wildcard {
		regs = append(regs, b.handlers[Wildcard]...)
	}

	subs := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, r := range regs {
		if err := r.fn(e); err != nil {
			log.Error().Err(err).Str("event", string(e.Type)).Msg("Event handler failed")
		}
	}

	for _, ch := range subs {
		select {
		case ch <- e:
		default: // mailbox full — drop rather than block the emitter
		}
	}
}

// Subscribe returns a bounded mailbox receiving every event emitted
// after the call. If the mailbox fills up, new events are dropped for
// that subscriber; a slow consumer never stalls producers.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, mailboxSize)
	b.subscribers[ch] = ch
	return ch
}

// Unsubscribe detaches a mailbox. The channel is not closed; it simply
// stops receiving events.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, ch)
}

// History returns up to limit of the most recent events, newest last,
// optionally filtered by type (empty type means all).
func (b *Bus) History(t Type, limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	src := b.history
	if t != "" {
		src = make([]Event, 0, len(b.history))
		for _, e := range b.history {
			if e.Type == t {
				src = append(src, e)
			}
		}
	}
	if limit <= 0 || limit > len(src) {
		limit = len(src)
	}
	out := make([]Event, limit)
	copy(out, src[len(src)-limit:])
	return out
}

// ClearHistory drops all retained events.
func (b *Bus) ClearHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

// funcID returns a comparable identity for a function value.
func funcID(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}
