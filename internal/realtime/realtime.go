// Package realtime delivers change notifications for the menu collections.
// Every driver fans events out to per-collection handlers; stores react by
// refetching, so handlers only need to know that something changed.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-menu-service/internal/metrics"
)

const (
	CollectionConfig     = "config"
	CollectionCategories = "categories"
	CollectionDishes     = "dishes"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	// EventResync is emitted after a driver reconnects and may have missed events.
	EventResync EventType = "RESYNC"
)

type Event struct {
	Collection string    `json:"collection"`
	Type       EventType `json:"type"`
	RecordID   string    `json:"record_id,omitempty"`
}

type Handler func(ctx context.Context, ev Event)

type Subscription interface {
	Close() error
}

type Notifier interface {
	Subscribe(ctx context.Context, collection string, h Handler) (Subscription, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func decodeEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	if ev.Collection == "" {
		return Event{}, fmt.Errorf("decode change event: missing collection")
	}
	return ev, nil
}

// registry is the handler table shared by all drivers.
type registry struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[string]map[uint64]Handler
}

func (r *registry) add(collection string, h Handler) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = map[string]map[uint64]Handler{}
	}
	if r.handlers[collection] == nil {
		r.handlers[collection] = map[uint64]Handler{}
	}
	r.next++
	id := r.next
	r.handlers[collection][id] = h

	return &subscription{remove: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers[collection], id)
	}}
}

func (r *registry) collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for c, hs := range r.handlers {
		if len(hs) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// dispatch calls handlers outside the lock so they may subscribe or close.
func (r *registry) dispatch(ctx context.Context, driver string, ev Event) {
	r.mu.RLock()
	hs := make([]Handler, 0, len(r.handlers[ev.Collection]))
	for _, h := range r.handlers[ev.Collection] {
		hs = append(hs, h)
	}
	r.mu.RUnlock()

	metrics.RealtimeEventsTotal.WithLabelValues(driver, ev.Collection).Inc()
	for _, h := range hs {
		h(ctx, ev)
	}
}

// resync tells every subscribed collection to refetch.
func (r *registry) resync(ctx context.Context, driver string) {
	for _, c := range r.collections() {
		r.dispatch(ctx, driver, Event{Collection: c, Type: EventResync})
	}
}

type subscription struct {
	once   sync.Once
	remove func()
}

func (s *subscription) Close() error {
	s.once.Do(s.remove)
	return nil
}

// Hub is an in-process notifier and publisher. Publish delivers synchronously.
type Hub struct {
	reg registry
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) Subscribe(_ context.Context, collection string, handler Handler) (Subscription, error) {
	return h.reg.add(collection, handler), nil
}

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.reg.dispatch(ctx, "hub", ev)
	return nil
}

type nop struct{}

// Nop never delivers anything. It backs the single-client local mode.
var Nop = nop{}

func (nop) Subscribe(context.Context, string, Handler) (Subscription, error) {
	return &subscription{remove: func() {}}, nil
}

func (nop) Publish(context.Context, Event) error { return nil }
