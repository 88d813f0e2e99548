package state

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"
)

//go:generate moq -out mocks/listener.go -pkg mocks -skip-ensure -fmt goimports . Listener

// Listener is notified with the new value of a changed state field
type Listener interface {
	OnChange(ctx context.Context, field Field, value any) error
}

// FuncListener adapts a function to Listener. Registrations are identified by the pointer.
type FuncListener struct {
	fn func(ctx context.Context, field Field, value any) error
}

// ListenFunc wraps fn into a listener
func ListenFunc(fn func(ctx context.Context, field Field, value any) error) *FuncListener {
	return &FuncListener{fn: fn}
}

// OnChange implements Listener
func (l *FuncListener) OnChange(ctx context.Context, field Field, value any) error {
	return l.fn(ctx, field, value)
}

// ListenerRegistry keeps an ordered list of distinct listeners per state field
type ListenerRegistry struct {
	mu        sync.Mutex
	listeners map[Field][]Listener
}

// NewListenerRegistry makes an empty registry
func NewListenerRegistry() *ListenerRegistry {
	return &ListenerRegistry{listeners: map[Field][]Listener{}}
}

// AddListener registers l for field and returns the number of listeners of the field.
// Registering the same listener twice for a field is a no-op.
func (r *ListenerRegistry) AddListener(field Field, l Listener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.listeners[field] {
		if sameListener(existing, l) {
			return len(r.listeners[field])
		}
	}
	r.listeners[field] = append(r.listeners[field], l)
	return len(r.listeners[field])
}

// RemoveListener unregisters l from field and returns the number of listeners left for it
func (r *ListenerRegistry) RemoveListener(field Field, l Listener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.listeners[field]
	for i, existing := range list {
		if sameListener(existing, l) {
			r.listeners[field] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return len(r.listeners[field])
}

// Reset removes all listeners
func (r *ListenerRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = map[Field][]Listener{}
}

// Count returns the number of listeners registered for field
func (r *ListenerRegistry) Count(field Field) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[field])
}

// Notify calls the listeners of every field in changes with the new value.
// Listeners of one field run one after another in registration order, fields are handled concurrently.
// The first failing listener stops the rest of its field and its error is returned.
func (r *ListenerRegistry) Notify(ctx context.Context, changes map[Field]any) error {
	r.mu.Lock()
	snapshot := make(map[Field][]Listener, len(changes))
	for field := range changes {
		if list := r.listeners[field]; len(list) > 0 {
			snapshot[field] = append([]Listener(nil), list...)
		}
	}
	r.mu.Unlock()

	var g errgroup.Group
	for field, list := range snapshot {
		value := changes[field]
		g.Go(func() error {
			for _, l := range list {
				if err := l.OnChange(ctx, field, value); err != nil {
					return fmt.Errorf("notify %s: %w", field, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// sameListener compares listeners by identity, values of non-comparable types are never the same
func sameListener(a, b Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}
