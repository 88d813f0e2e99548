// Package state holds the application state, the reducer applying actions to it
// and the per-field change notification of its listeners.
package state

import (
	"github.com/umputun/feedwatch/pkg/calendar"
	"github.com/umputun/feedwatch/pkg/feed"
)

// DefaultSubscriptionsKey is the storage key subscriptions are persisted under
const DefaultSubscriptionsKey = "RSSSubscriptionsLocalStorageKey"

// Field names a top-level field of State
type Field string

// enum of state fields
const (
	FieldSubscriptionsKey Field = "subscriptionsKey"
	FieldSubscriptions    Field = "subscriptions"
	FieldChannels         Field = "channels"
)

// Fields lists all state fields in declaration order
var Fields = []Field{FieldSubscriptionsKey, FieldSubscriptions, FieldChannels}

// Subscription is a feed the user follows, identified by its URL
type Subscription struct {
	FeedURL       string         `json:"feedUrl"`
	LastBuildDate *calendar.Date `json:"lastBuildDate,omitempty"`
	NextBuildDate *calendar.Date `json:"nextBuildDate,omitempty"`
}

// State is the whole application state. Transitions build a new value, slices are never changed in place.
type State struct {
	SubscriptionsKey string         `json:"subscriptionsKey"`
	Subscriptions    []Subscription `json:"subscriptions"`
	Channels         []feed.Channel `json:"channels"`
}

// StateOption overrides a default of NewState
type StateOption func(*State)

// NewState makes the default state with optional overrides applied
func NewState(opts ...StateOption) State {
	res := State{
		SubscriptionsKey: DefaultSubscriptionsKey,
		Subscriptions:    []Subscription{},
		Channels:         []feed.Channel{},
	}
	for _, opt := range opts {
		opt(&res)
	}
	if res.Subscriptions == nil {
		res.Subscriptions = []Subscription{}
	}
	if res.Channels == nil {
		res.Channels = []feed.Channel{}
	}
	return res
}

// WithSubscriptionsKey sets the storage key
func WithSubscriptionsKey(key string) StateOption {
	return func(s *State) { s.SubscriptionsKey = key }
}

// WithSubscriptions sets the subscriptions
func WithSubscriptions(subs []Subscription) StateOption {
	return func(s *State) { s.Subscriptions = subs }
}

// WithChannels sets the channels
func WithChannels(channels []feed.Channel) StateOption {
	return func(s *State) { s.Channels = channels }
}

// Value returns the value of field f, nil for an unknown field
func (s State) Value(f Field) any {
	switch f {
	case FieldSubscriptionsKey:
		return s.SubscriptionsKey
	case FieldSubscriptions:
		return s.Subscriptions
	case FieldChannels:
		return s.Channels
	}
	return nil
}

// Channel returns the channel with the given self-link, or else the one requested from that address
func (s State) Channel(link string) (feed.Channel, bool) {
	for _, ch := range s.Channels {
		if ch.AtomLink == link {
			return ch, true
		}
	}
	for _, ch := range s.Channels {
		if ch.Matches(link) {
			return ch, true
		}
	}
	return feed.Channel{}, false
}

// Subscription returns the subscription for feedURL
func (s State) Subscription(feedURL string) (Subscription, bool) {
	for _, sub := range s.Subscriptions {
		if sub.FeedURL == feedURL {
			return sub, true
		}
	}
	return Subscription{}, false
}
