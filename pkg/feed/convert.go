package feed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/feedwatch/pkg/calendar"
)

// ParseFeed reads an RSS document with ParseDocument. Atom and JSON feeds, which have
// no rss/channel element, are read with gofeed and mapped onto the same channel model
// with the default hourly schedule. Returns nil when raw is none of these.
func ParseFeed(raw string) *Channel {
	if ch := ParseDocument(raw); ch != nil {
		return ch
	}

	switch gofeed.DetectFeedType(strings.NewReader(raw)) {
	case gofeed.FeedTypeAtom, gofeed.FeedTypeJSON:
	default:
		return nil
	}

	parsed, err := gofeed.NewParser().ParseString(raw)
	if err != nil || parsed == nil {
		return nil
	}
	ch := fromGofeed(parsed)
	return &ch
}

func fromGofeed(f *gofeed.Feed) Channel {
	items := make([]Item, 0, len(f.Items))
	for _, it := range f.Items {
		if it != nil {
			items = append(items, fromGofeedItem(it))
		}
	}

	return NewChannel(func(c *Channel) {
		c.AtomLink = f.FeedLink
		c.Title = strings.TrimSpace(f.Title)
		c.Description = strings.TrimSpace(f.Description)
		c.LastBuildDate = optionalDate(f.UpdatedParsed, f.PublishedParsed)
		c.UpdateBase = optionalDate(f.UpdatedParsed, f.PublishedParsed)
		c.Items = items
	})
}

func fromGofeedItem(it *gofeed.Item) Item {
	pubDate := calendar.Date{}
	if d := optionalDate(it.PublishedParsed, it.UpdatedParsed); d != nil {
		pubDate = *d
	}
	return NewItem(func(res *Item) {
		res.Title = it.Title
		res.Link = it.Link
		res.GUID = it.GUID
		res.Description = it.Description
		res.Content = it.Content
		res.PubDate = &pubDate
		if len(it.Categories) > 0 {
			res.Categories = append([]string{}, it.Categories...)
		}
		if len(it.Authors) > 0 && it.Authors[0] != nil {
			res.Author = it.Authors[0].Name
		}
		if it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0 {
			res.Creator = it.DublinCoreExt.Creator[0]
		}
	})
}

// optionalDate returns the first non-nil time as a date, nil if all are nil
func optionalDate(times ...*time.Time) *calendar.Date {
	for _, t := range times {
		if t != nil {
			d := calendar.FromTime(*t)
			return &d
		}
	}
	return nil
}
