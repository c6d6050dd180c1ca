// Package events carries change notifications out of the account
// update layer.
//
// A RefUpdate event is published exactly once per successful commit or
// branch deletion. It is the only channel by which external
// collaborators, such as cache eviction or reindex listeners, learn
// about account changes; the update layer itself never touches a
// cache.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/metabranch/metabranch/pkg/store"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// RefUpdate describes one observed ref transition
type RefUpdate struct {
	// EventID uniquely identifies this notification
	EventID string `json:"eventId" yaml:"eventId"`

	// Repo is the repository holding the ref
	Repo string `json:"repo" yaml:"repo"`

	// Ref is the branch that moved
	Ref string `json:"ref" yaml:"ref"`

	// Old and New are the commit ids before and after; a nil New
	// means the branch was deleted
	Old store.ObjectID `json:"old" yaml:"old"`
	New store.ObjectID `json:"new" yaml:"new"`

	// Actor names the identity on whose behalf the change was made
	Actor string `json:"actor" yaml:"actor"`

	// At is the publication time
	At time.Time `json:"at" yaml:"at"`
}

// Deleted tells whether the event describes a branch deletion
func (e RefUpdate) Deleted() bool {
	return e.New.IsNil()
}

// Listener consumes ref update events
type Listener interface {
	RefUpdated(ctx context.Context, ev RefUpdate) error
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(ctx context.Context, ev RefUpdate) error

// RefUpdated calls the wrapped function
func (f ListenerFunc) RefUpdated(ctx context.Context, ev RefUpdate) error {
	return f(ctx, ev)
}

// Bus fans events out to subscribed listeners.
//
// Delivery is synchronous and best-effort: a failing listener is
// logged and skipped, it never fails the update that produced the
// event.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	l         *zap.Logger
}

// BusOption alters bus defaults
type BusOption func(*Bus)

// BusWithLogger sets the logger used to report listener failures
func BusWithLogger(l *zap.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.l = l
		}
	}
}

// NewBus builds an event bus with no listeners
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{l: zap.NewNop()}
	for _, apply := range opts {
		apply(b)
	}
	return b
}

// Subscribe registers a listener for all subsequent events
func (b *Bus) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Publish assigns the event an id and timestamp, then delivers it to
// every listener in subscription order.
func (b *Bus) Publish(ctx context.Context, ev RefUpdate) {
	ev.EventID = ksuid.New().String()
	ev.At = time.Now().UTC()

	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener.RefUpdated(ctx, ev); err != nil {
			b.l.Warn("ref update listener failed",
				zap.String("event_id", ev.EventID),
				zap.String("ref", ev.Ref),
				zap.Error(err),
			)
		}
	}
}
