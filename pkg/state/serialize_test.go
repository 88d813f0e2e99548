package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedwatch/pkg/calendar"
)

func TestEncodeSubscriptions(t *testing.T) {
	last := calendar.UTC(2025, 7, 24, 0, 0, 0, 0)
	invalid := calendar.FromUnixMilli(outOfRangeMillis)
	subs := []Subscription{
		{FeedURL: "http://a/feed", LastBuildDate: &last},
		{FeedURL: "http://b/feed", NextBuildDate: &invalid},
	}
	raw, err := EncodeSubscriptions(subs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"feedUrl":"http://a/feed","lastBuildDate":"2025-08-24T00:00:00.000Z"},{"feedUrl":"http://b/feed"}]`, raw)

	raw, err = EncodeSubscriptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestDecodeSubscriptions(t *testing.T) {
	t.Run("valid and invalid dates", func(t *testing.T) {
		subs, err := DecodeSubscriptions(`[
			{"feedUrl":"http://a/feed","lastBuildDate":"2025-08-24T00:00:00.000Z","nextBuildDate":"not a date"},
			{"feedUrl":"http://b/feed","nextBuildDate":""}
		]`)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, "http://a/feed", subs[0].FeedURL)
		require.NotNil(t, subs[0].LastBuildDate)
		assert.Equal(t, "2025-08-24T00:00:00.000Z", subs[0].LastBuildDate.ISO())
		assert.Nil(t, subs[0].NextBuildDate)
		assert.Nil(t, subs[1].LastBuildDate)
		assert.Nil(t, subs[1].NextBuildDate)
	})

	t.Run("blank", func(t *testing.T) {
		subs, err := DecodeSubscriptions("  ")
		require.NoError(t, err)
		assert.NotNil(t, subs)
		assert.Empty(t, subs)
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := DecodeSubscriptions(`{"feedUrl":`)
		assert.Error(t, err)
	})
}

const outOfRangeMillis = 9e15
