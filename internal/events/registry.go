// Package events provides the in-process registry that fans committed domain
// events out to registered handlers. Dispatch is asynchronous and
// best-effort: handlers run after the originating operation has committed,
// their failures are contained, and ledger state never depends on them.
package events

import (
	"context"
	"sync"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"

	"github.com/rs/zerolog"
)

const dispatchTimeout = 10 * time.Second

// Registry maps event kinds to handlers and implements
// ports.EventPublisher. Handlers for one kind run sequentially in
// registration order; a panicking handler is recovered and logged without
// affecting the others.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.EventKind][]ports.EventHandler
	global   []ports.EventHandler
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		handlers: make(map[domain.EventKind][]ports.EventHandler),
		log:      log,
	}
}

// Subscribe registers handler for a single event kind.
func (r *Registry) Subscribe(kind domain.EventKind, handler ports.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = append(r.handlers[kind], handler)
}

// SubscribeAll registers handler for every event kind. Global handlers run
// after kind-specific ones.
func (r *Registry) SubscribeAll(handler ports.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = append(r.global, handler)
}

// Publish dispatches events to their handlers on a background goroutine and
// returns immediately. The dispatch context is detached from the caller's so
// a finished request does not cancel in-flight handlers.
func (r *Registry) Publish(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}

	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		for _, event := range events {
			r.dispatch(dispatchCtx, event)
		}
	}()
}

// Close waits for all in-flight dispatches to finish.
func (r *Registry) Close() {
	r.wg.Wait()
}

func (r *Registry) dispatch(ctx context.Context, event domain.Event) {
	r.mu.RLock()
	kindHandlers := r.handlers[event.Kind()]
	handlers := make([]ports.EventHandler, 0, len(kindHandlers)+len(r.global))
	handlers = append(handlers, kindHandlers...)
	handlers = append(handlers, r.global...)
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.log.Debug().Str("kind", string(event.Kind())).Msg("event has no handlers")
		return
	}

	for _, handler := range handlers {
		r.invoke(ctx, handler, event)
	}
}

func (r *Registry) invoke(ctx context.Context, handler ports.EventHandler, event domain.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().
				Interface("panic", rec).
				Str("kind", string(event.Kind())).
				Msg("event handler panicked")
		}
	}()
	handler(ctx, event)
}
