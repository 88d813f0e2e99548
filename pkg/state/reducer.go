package state

import (
	"log"
	"slices"

	"github.com/umputun/feedwatch/pkg/feed"
)

//go:generate moq -out mocks/loader.go -pkg mocks -skip-ensure -fmt goimports . SubscriptionLoader

// SubscriptionLoader reads the subscriptions persisted under key
type SubscriptionLoader interface {
	LoadSubscriptions(key string) ([]Subscription, error)
}

// Reducer applies actions to a state. Apart from reading persisted subscriptions it has no side effects.
type Reducer struct {
	loader SubscriptionLoader
}

// NewReducer makes a reducer, loader may be nil if subscriptions are never loaded
func NewReducer(loader SubscriptionLoader) *Reducer {
	return &Reducer{loader: loader}
}

// Reduce returns the state after applying a. The input state is never modified.
func (r *Reducer) Reduce(st State, a Action) State {
	switch act := a.(type) {
	case InitializeDefaultState:
		return r.initialize(st)
	case LoadSubscriptions:
		return r.loadSubscriptions(st)
	case RequestChannelData:
		return r.requestChannel(st, act.FeedURL)
	case RequestChannelDataAborted:
		return r.resetChannel(st, act.FeedURL)
	case ChannelDataParseFailed:
		return r.resetChannel(st, act.FeedURL)
	case ChannelDataLoaded:
		return r.channelLoaded(st, act)
	case SubscriptionAdded:
		return r.addSubscription(st, act.Subscription)
	case SubscriptionRemoved:
		return r.removeSubscription(st, act.FeedURL)
	case SubscriptionScheduled:
		return r.scheduleSubscription(st, act)
	default:
		return st
	}
}

// initialize fills fields left empty with defaults, set fields win
func (r *Reducer) initialize(st State) State {
	def := NewState()
	if st.SubscriptionsKey != "" {
		def.SubscriptionsKey = st.SubscriptionsKey
	}
	if st.Subscriptions != nil {
		def.Subscriptions = st.Subscriptions
	}
	if st.Channels != nil {
		def.Channels = st.Channels
	}
	return def
}

func (r *Reducer) loadSubscriptions(st State) State {
	if r.loader == nil {
		log.Printf("[WARN] no subscription loader, keep %d subscriptions", len(st.Subscriptions))
		return st
	}
	subs, err := r.loader.LoadSubscriptions(st.SubscriptionsKey)
	if err != nil {
		log.Printf("[WARN] failed to load subscriptions from %q: %v", st.SubscriptionsKey, err)
		return st
	}
	if subs == nil {
		subs = []Subscription{}
	}
	return rebuild(st, subs, st.Channels)
}

// requestChannel flags an existing channel as loading or appends a loading placeholder
func (r *Reducer) requestChannel(st State, feedURL string) State {
	idx := slices.IndexFunc(st.Channels, func(c feed.Channel) bool { return c.Matches(feedURL) })
	if idx < 0 {
		channels := append(slices.Clone(st.Channels), feed.Placeholder(feedURL, true))
		return rebuild(st, st.Subscriptions, channels)
	}
	channels := slices.Clone(st.Channels)
	loading := channels[idx]
	loading.Loading = true
	channels[idx] = loading
	return rebuild(st, st.Subscriptions, channels)
}

// resetChannel replaces the matching channel with a placeholder that is not loading.
// The placeholder keeps the self-link of the channel it replaces.
// Without a matching channel the state is returned as is.
func (r *Reducer) resetChannel(st State, feedURL string) State {
	idx := slices.IndexFunc(st.Channels, func(c feed.Channel) bool { return c.Matches(feedURL) })
	if idx < 0 {
		return st
	}
	channels := slices.Clone(st.Channels)
	reset := feed.Placeholder(feedURL, false)
	reset.AtomLink = channels[idx].AtomLink
	channels[idx] = reset
	return rebuild(st, st.Subscriptions, channels)
}

// channelLoaded drops channels with the loaded self-link or the requested url and appends the loaded one
func (r *Reducer) channelLoaded(st State, act ChannelDataLoaded) State {
	loaded := act.Channel
	loaded.Loading = false
	if loaded.FeedURL == "" {
		loaded.FeedURL = act.FeedURL
	}
	channels := make([]feed.Channel, 0, len(st.Channels)+1)
	for _, c := range st.Channels {
		if c.AtomLink == loaded.AtomLink || c.Matches(act.FeedURL) {
			continue
		}
		channels = append(channels, c)
	}
	channels = append(channels, loaded)
	return rebuild(st, st.Subscriptions, channels)
}

func (r *Reducer) addSubscription(st State, sub Subscription) State {
	if sub.FeedURL == "" {
		return st
	}
	if _, ok := st.Subscription(sub.FeedURL); ok {
		return st
	}
	subs := append(slices.Clone(st.Subscriptions), sub)
	return rebuild(st, subs, st.Channels)
}

func (r *Reducer) removeSubscription(st State, feedURL string) State {
	subs := slices.DeleteFunc(slices.Clone(st.Subscriptions), func(s Subscription) bool { return s.FeedURL == feedURL })
	channels := slices.DeleteFunc(slices.Clone(st.Channels), func(c feed.Channel) bool { return c.Matches(feedURL) })
	if len(subs) == len(st.Subscriptions) && len(channels) == len(st.Channels) {
		return st
	}
	return rebuild(st, subs, channels)
}

func (r *Reducer) scheduleSubscription(st State, act SubscriptionScheduled) State {
	idx := slices.IndexFunc(st.Subscriptions, func(s Subscription) bool { return s.FeedURL == act.FeedURL })
	if idx < 0 {
		return st
	}
	subs := slices.Clone(st.Subscriptions)
	subs[idx] = Subscription{FeedURL: act.FeedURL, LastBuildDate: act.LastBuildDate, NextBuildDate: act.NextBuildDate}
	return rebuild(st, subs, st.Channels)
}

// rebuild makes a new state keeping the storage key of st
func rebuild(st State, subs []Subscription, channels []feed.Channel) State {
	return NewState(WithSubscriptionsKey(st.SubscriptionsKey), WithSubscriptions(subs), WithChannels(channels))
}
