package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// All subscribes a handler to every routing key.
const All = "#"

type Handler func(env *Envelope)

type subscription struct {
	id  uint64
	key string
	fn  Handler
}

// Bus is an in-process publish/subscribe hub. Handlers run synchronously in
// the emitter's goroutine; a panicking handler is logged and skipped.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// On registers fn for key and returns a function that removes it.
func (b *Bus) On(key string, fn Handler) (off func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, key: key, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit wraps payload in an envelope and delivers it.
func (b *Bus) Emit(key string, payload any) error {
	env, err := NewEnvelope(key, payload)
	if err != nil {
		return err
	}
	b.Publish(env)
	return nil
}

// Publish delivers an existing envelope to the handlers registered at call time.
func (b *Bus) Publish(env *Envelope) {
	b.mu.RLock()
	snapshot := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.key == env.RoutingKey || s.key == All {
			snapshot = append(snapshot, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range snapshot {
		b.call(s, env)
	}
}

func (b *Bus) call(s subscription, env *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("key", env.RoutingKey).Msg("event handler panicked")
		}
	}()
	s.fn(env)
}

// Clear removes every handler.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
}

func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
