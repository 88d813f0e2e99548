package state

import (
	"context"
	"log"

	"github.com/umputun/feedwatch/pkg/feed"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher

// Fetcher downloads the raw document of a feed
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (string, error)
}

// PerformFeedRequestCycle fetches and parses feedURL and dispatches exactly one of
// ChannelDataLoaded, ChannelDataParseFailed or RequestChannelDataAborted.
// Returns the loaded channel, or nil on any failure. Failures are logged, never returned.
func PerformFeedRequestCycle(ctx context.Context, fetcher Fetcher, feedURL string, dispatch DispatchFunc) *feed.Channel {
	raw, err := fetcher.Fetch(ctx, feedURL)
	if err != nil {
		log.Printf("[WARN] request for %s aborted: %v", feedURL, err)
		dispatchLogged(ctx, dispatch, RequestChannelDataAborted{FeedURL: feedURL})
		return nil
	}

	ch := feed.ParseFeed(raw)
	if ch == nil {
		log.Printf("[WARN] document from %s is not an rss feed", feedURL)
		dispatchLogged(ctx, dispatch, ChannelDataParseFailed{FeedURL: feedURL})
		return nil
	}
	if ch.AtomLink == "" {
		ch.AtomLink = feedURL
	}
	ch.FeedURL = feedURL

	log.Printf("[DEBUG] loaded %s, %d items", feedURL, len(ch.Items))
	dispatchLogged(ctx, dispatch, ChannelDataLoaded{FeedURL: feedURL, Channel: *ch})
	return ch
}

// dispatchLogged dispatches with a context that survives cancellation of the request,
// so an aborted fetch still resets its channel
func dispatchLogged(ctx context.Context, dispatch DispatchFunc, a Action) {
	if err := dispatch(context.WithoutCancel(ctx), a); err != nil {
		log.Printf("[WARN] dispatch %s: %v", a.Type(), err)
	}
}
