package feed

import (
	"fmt"
	"net/http"
	"strings"
)

// DefaultUserAgent is sent when the fetcher has no user agent configured
const DefaultUserAgent = "Feedwatch/1.0"

// acceptedTypes lists media types of documents ParseFeed reads, grouped by preference.
// The plain xml type goes first, servers of rss feeds mostly label them with it.
var acceptedTypes = [][]string{
	{"application/xml"},
	{"application/rss+xml", "application/atom+xml"},
	{"text/xml"},
	{"application/feed+json", "application/json"},
}

// acceptHeader renders acceptedTypes with quality factors dropping by 0.1 per group
// and a low-priority wildcard for servers without a matching type
func acceptHeader() string {
	parts := make([]string, 0, 8)
	for i, group := range acceptedTypes {
		for _, t := range group {
			if i == 0 {
				parts = append(parts, t)
				continue
			}
			parts = append(parts, fmt.Sprintf("%s;q=0.%d", t, 10-i))
		}
	}
	parts = append(parts, "*/*;q=0.1")
	return strings.Join(parts, ",")
}

// setFeedHeaders prepares a request for a feed document. Intermediate caches are asked to
// revalidate, a refresh is expected to see the latest items.
func setFeedHeaders(req *http.Request, userAgent string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader())
	req.Header.Set("Cache-Control", "no-cache")
}
