package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedwatch/pkg/calendar"
	"github.com/umputun/feedwatch/pkg/feed"
)

func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewRepositories(context.Background(), Config{
		DSN:             ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 30 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, repos.Close()) })
	return repos
}

func testChannel(link, title string, items ...string) feed.Channel {
	build := calendar.UTC(2025, 7, 24, 0, 0, 0, 0)
	return feed.NewChannel(feed.WithAtomLink(link), func(c *feed.Channel) {
		c.Title = title
		c.Description = title + " feed"
		c.LastBuildDate = &build
		c.UpdatePeriod = feed.Daily
		for _, it := range items {
			c.Items = append(c.Items, feed.NewItem(func(i *feed.Item) {
				i.Title = it
				i.Link = link + "/" + it
				i.Categories = []string{"news"}
				i.PubDate = &build
			}))
		}
	})
}

func TestChannelRepository_SaveGet(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	ch := testChannel("http://x/feed", "X", "first", "second")
	ch.Loading = true
	require.NoError(t, repos.Channel.SaveChannel(ctx, ch))

	got, err := repos.Channel.GetChannel(ctx, "http://x/feed")
	require.NoError(t, err)
	assert.Equal(t, "X", got.Title)
	assert.False(t, got.Loading, "loading flag is never stored")
	assert.Equal(t, feed.Daily, got.UpdatePeriod)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "second", got.Items[1].Title)
	assert.Equal(t, []string{"news"}, got.Items[0].Categories)
	require.NotNil(t, got.LastBuildDate)
	assert.True(t, got.LastBuildDate.Equal(*ch.LastBuildDate))

	// save again replaces
	updated := testChannel("http://x/feed", "X updated", "third")
	require.NoError(t, repos.Channel.SaveChannel(ctx, updated))
	got, err = repos.Channel.GetChannel(ctx, "http://x/feed")
	require.NoError(t, err)
	assert.Equal(t, "X updated", got.Title)
	assert.Len(t, got.Items, 1)

	_, err = repos.Channel.GetChannel(ctx, "http://unknown/feed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestChannelRepository_ListDelete(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Channel.SaveChannel(ctx, testChannel("http://b/feed", "Bravo")))
	require.NoError(t, repos.Channel.SaveChannel(ctx, testChannel("http://a/feed", "Alpha")))

	list, err := repos.Channel.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Title)
	assert.Equal(t, "Bravo", list[1].Title)
	assert.NotNil(t, list[0].Items)

	require.NoError(t, repos.Channel.DeleteChannel(ctx, "http://a/feed"))
	require.NoError(t, repos.Channel.DeleteChannel(ctx, "http://a/feed"))
	list, err = repos.Channel.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bravo", list[0].Title)
}

func TestChannelRepository_SyncChannels(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Channel.SaveChannel(ctx, testChannel("http://a/feed", "A", "old")))
	require.NoError(t, repos.Channel.SaveChannel(ctx, testChannel("http://b/feed", "B", "old")))
	require.NoError(t, repos.Channel.SaveChannel(ctx, testChannel("http://gone/feed", "Gone")))

	loadingA := testChannel("http://a/feed", "A", "new")
	loadingA.Loading = true
	channels := []feed.Channel{
		loadingA,                                // loading, stored copy kept
		feed.Placeholder("http://b/feed", false), // reset, stored copy kept
		testChannel("http://c/feed", "C", "fresh"),
	}
	require.NoError(t, repos.Channel.SyncChannels(ctx, channels))

	list, err := repos.Channel.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "old", list[0].Items[0].Title)
	assert.Equal(t, "old", list[1].Items[0].Title)
	assert.Equal(t, "C", list[2].Title)

	_, err = repos.Channel.GetChannel(ctx, "http://gone/feed")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repos.Channel.SyncChannels(ctx, nil))
	list, err = repos.Channel.ListChannels(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
