package service

import (
	"sync"

	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
)

// Handler receives lifecycle events.
type Handler func(domain.Event)

type subscription struct {
	id uint64
	h  Handler
}

// EventBus delivers events to subscribers synchronously, in subscription
// order. A panicking handler is logged and does not affect the others.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[domain.EventName][]subscription
	logger logger.Logger
}

// NewEventBus creates an empty bus.
func NewEventBus(log logger.Logger) *EventBus {
	if log == nil {
		log = logger.Nop()
	}
	return &EventBus{
		subs:   make(map[domain.EventName][]subscription),
		logger: log,
	}
}

// Subscribe registers h for name. The returned function removes it and
// may be called more than once.
func (b *EventBus) Subscribe(name domain.EventName, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *EventBus) remove(name domain.EventName, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit calls every handler subscribed to ev.Name.
func (b *EventBus) Emit(ev domain.Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[ev.Name]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.call(s.h, ev)
	}
}

func (b *EventBus) call(h Handler, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", string(ev.Name), "panic", r)
		}
	}()
	h(ev)
}
