package state

import (
	"github.com/umputun/feedwatch/pkg/calendar"
	"github.com/umputun/feedwatch/pkg/feed"
)

// ActionType is the discriminator of an action
type ActionType string

// enum of action types
const (
	TypeInitializeDefaultState    ActionType = "INITIALIZE_DEFAULT_STATE"
	TypeLoadSubscriptions         ActionType = "LOAD_SUBSCRIPTIONS_FROM_LOCAL_STORAGE"
	TypeRequestChannelData        ActionType = "REQUEST_RSS_FEED_CHANNEL_DATA"
	TypeRequestChannelDataAborted ActionType = "REQUEST_RSS_FEED_CHANNEL_DATA_ABORTED"
	TypeChannelDataLoaded         ActionType = "RSS_FEED_CHANNEL_DATA_LOADED"
	TypeChannelDataParseFailed    ActionType = "RSS_FEED_CHANNEL_DATA_PARSE_FAIL"
	TypeSubscriptionAdded         ActionType = "SUBSCRIPTION_ADDED"
	TypeSubscriptionRemoved       ActionType = "SUBSCRIPTION_REMOVED"
	TypeSubscriptionScheduled     ActionType = "SUBSCRIPTION_SCHEDULED"
)

// Action is a state transition request. The set of actions is closed, only types
// of this package implement it.
type Action interface {
	Type() ActionType
	isAction()
}

// InitializeDefaultState fills missing fields with defaults
type InitializeDefaultState struct{}

// LoadSubscriptions replaces subscriptions with the persisted ones
type LoadSubscriptions struct{}

// RequestChannelData marks a channel as loading, adding a placeholder if needed
type RequestChannelData struct {
	FeedURL string
}

// RequestChannelDataAborted resets the channel of a failed request
type RequestChannelDataAborted struct {
	FeedURL string
}

// ChannelDataLoaded replaces a channel with freshly parsed data.
// FeedURL is the requested address, the placeholder keyed by it is dropped too.
type ChannelDataLoaded struct {
	FeedURL string
	Channel feed.Channel
}

// ChannelDataParseFailed is dispatched when the fetched document is not a feed
type ChannelDataParseFailed struct {
	FeedURL string
}

// SubscriptionAdded subscribes to a feed
type SubscriptionAdded struct {
	Subscription Subscription
}

// SubscriptionRemoved drops a subscription and its channel
type SubscriptionRemoved struct {
	FeedURL string
}

// SubscriptionScheduled records the build dates of a subscription after a refresh
type SubscriptionScheduled struct {
	FeedURL       string
	LastBuildDate *calendar.Date
	NextBuildDate *calendar.Date
}

// Type implements Action
func (InitializeDefaultState) Type() ActionType { return TypeInitializeDefaultState }

// Type implements Action
func (LoadSubscriptions) Type() ActionType { return TypeLoadSubscriptions }

// Type implements Action
func (RequestChannelData) Type() ActionType { return TypeRequestChannelData }

// Type implements Action
func (RequestChannelDataAborted) Type() ActionType { return TypeRequestChannelDataAborted }

// Type implements Action
func (ChannelDataLoaded) Type() ActionType { return TypeChannelDataLoaded }

// Type implements Action
func (ChannelDataParseFailed) Type() ActionType { return TypeChannelDataParseFailed }

// Type implements Action
func (SubscriptionAdded) Type() ActionType { return TypeSubscriptionAdded }

// Type implements Action
func (SubscriptionRemoved) Type() ActionType { return TypeSubscriptionRemoved }

// Type implements Action
func (SubscriptionScheduled) Type() ActionType { return TypeSubscriptionScheduled }

func (InitializeDefaultState) isAction()    {}
func (LoadSubscriptions) isAction()         {}
func (RequestChannelData) isAction()        {}
func (RequestChannelDataAborted) isAction() {}
func (ChannelDataLoaded) isAction()         {}
func (ChannelDataParseFailed) isAction()    {}
func (SubscriptionAdded) isAction()         {}
func (SubscriptionRemoved) isAction()       {}
func (SubscriptionScheduled) isAction()     {}
