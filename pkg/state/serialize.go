package state

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/umputun/feedwatch/pkg/calendar"
)

// SerializedSubscription is the persisted form of a Subscription
type SerializedSubscription struct {
	FeedURL       string `json:"feedUrl"`
	LastBuildDate string `json:"lastBuildDate,omitempty"`
	NextBuildDate string `json:"nextBuildDate,omitempty"`
}

// Serialize converts a subscription to its persisted form, nil and invalid dates are omitted
func (s Subscription) Serialize() SerializedSubscription {
	return SerializedSubscription{
		FeedURL:       s.FeedURL,
		LastBuildDate: isoOrEmpty(s.LastBuildDate),
		NextBuildDate: isoOrEmpty(s.NextBuildDate),
	}
}

// Subscription converts back from the persisted form. Blank or unparsable dates become nil.
func (s SerializedSubscription) Subscription() Subscription {
	return Subscription{
		FeedURL:       s.FeedURL,
		LastBuildDate: validDateOrNil(s.LastBuildDate),
		NextBuildDate: validDateOrNil(s.NextBuildDate),
	}
}

// EncodeSubscriptions renders subscriptions as a JSON array of persisted records
func EncodeSubscriptions(subs []Subscription) (string, error) {
	rec := make([]SerializedSubscription, 0, len(subs))
	for _, s := range subs {
		rec = append(rec, s.Serialize())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal subscriptions: %w", err)
	}
	return string(data), nil
}

// DecodeSubscriptions reads a JSON array of persisted records, empty input gives no subscriptions
func DecodeSubscriptions(raw string) ([]Subscription, error) {
	if strings.TrimSpace(raw) == "" {
		return []Subscription{}, nil
	}
	var rec []SerializedSubscription
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal subscriptions: %w", err)
	}
	res := make([]Subscription, 0, len(rec))
	for _, r := range rec {
		res = append(res, r.Subscription())
	}
	return res, nil
}

func isoOrEmpty(d *calendar.Date) string {
	if d == nil {
		return ""
	}
	return d.ISO()
}

func validDateOrNil(s string) *calendar.Date {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d := calendar.Parse(s)
	if !d.IsValid() {
		return nil
	}
	return &d
}
