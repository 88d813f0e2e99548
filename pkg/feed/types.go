package feed

import (
	"errors"
	"math"

	"github.com/umputun/feedwatch/pkg/calendar"
)

// UpdatePeriod is the syndication update unit of a channel
type UpdatePeriod string

// enum of recognized update periods, any other value is kept verbatim
const (
	Hourly  UpdatePeriod = "hourly"
	Daily   UpdatePeriod = "daily"
	Weekly  UpdatePeriod = "weekly"
	Monthly UpdatePeriod = "monthly"
	Yearly  UpdatePeriod = "yearly"
)

// IsKnown reports whether p is one of the recognized periods
func (p UpdatePeriod) IsKnown() bool {
	switch p {
	case Hourly, Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// UnparsableFrequency marks a channel whose update frequency was present but not an integer
const UnparsableFrequency = math.MinInt32

// ErrUnparsableFrequency is returned when scheduling a channel with UnparsableFrequency
var ErrUnparsableFrequency = errors.New("unparsable update frequency")

// Item is one entry of a channel
type Item struct {
	Title       string         `json:"title"`
	Link        string         `json:"link"`
	Author      string         `json:"author"`
	Creator     string         `json:"creator"`
	PubDate     *calendar.Date `json:"pubDate"`
	Categories  []string       `json:"category"`
	GUID        string         `json:"guid"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	PostID      string         `json:"postId"`
}

// ItemOption overrides a default of NewItem
type ItemOption func(*Item)

// NewItem makes an item with empty fields and a nil publication date
func NewItem(opts ...ItemOption) Item {
	res := Item{Categories: []string{}}
	for _, opt := range opts {
		opt(&res)
	}
	if res.Categories == nil {
		res.Categories = []string{}
	}
	return res
}

// Channel is one subscribed feed with its schedule hints and items.
// AtomLink is the channel identity, FeedURL the address it was requested from
// and may differ from the self-link the document declares.
type Channel struct {
	AtomLink        string         `json:"atomLink"`
	FeedURL         string         `json:"feedUrl,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	LastBuildDate   *calendar.Date `json:"lastBuildDate"`
	UpdateBase      *calendar.Date `json:"updateBase"`
	UpdateFrequency int            `json:"updateFrequency"`
	UpdatePeriod    UpdatePeriod   `json:"updatePeriod"`
	Items           []Item         `json:"items"`
	Loading         bool           `json:"loading"`
}

// ChannelOption overrides a default of NewChannel
type ChannelOption func(*Channel)

// NewChannel makes a channel with hourly period, frequency 1, no dates and no items
func NewChannel(opts ...ChannelOption) Channel {
	res := Channel{
		UpdateFrequency: 1,
		UpdatePeriod:    Hourly,
		Items:           []Item{},
	}
	for _, opt := range opts {
		opt(&res)
	}
	if res.Items == nil {
		res.Items = []Item{}
	}
	return res
}

// WithAtomLink sets the channel self-link
func WithAtomLink(link string) ChannelOption {
	return func(c *Channel) { c.AtomLink = link }
}

// WithLoading sets the loading flag
func WithLoading(loading bool) ChannelOption {
	return func(c *Channel) { c.Loading = loading }
}

// Placeholder returns the minimal channel standing in for feedURL until its data arrives
func Placeholder(feedURL string, loading bool) Channel {
	return NewChannel(WithAtomLink(feedURL), WithLoading(loading), func(c *Channel) { c.FeedURL = feedURL })
}

// Matches reports whether the channel is the one of feedURL, by self-link or by requested address
func (c Channel) Matches(feedURL string) bool {
	return feedURL != "" && (c.AtomLink == feedURL || c.FeedURL == feedURL)
}
