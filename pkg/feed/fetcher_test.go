package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Run("returns body with feed headers", func(t *testing.T) {
		var gotAccept, gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAccept = r.Header.Get("Accept")
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(wordpressFeed))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(FetcherParams{Timeout: 5 * time.Second, UserAgent: "feedwatch-test"})
		body, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, wordpressFeed, body)
		assert.True(t, strings.HasPrefix(gotAccept, "application/xml"))
		assert.Equal(t, "feedwatch-test", gotUA)

		ch := ParseDocument(body)
		require.NotNil(t, ch)
		assert.Equal(t, "https://example.com/feed", ch.AtomLink)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("<rss/>"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(FetcherParams{Timeout: time.Second, Retries: 3})
		body, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<rss/>", body)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(FetcherParams{Timeout: time.Second, Retries: 3})
		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("body size limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(FetcherParams{Timeout: time.Second, MaxBodySize: 10})
		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.ErrorIs(t, err, ErrBodyTooLarge)

		fetcher = NewHTTPFetcher(FetcherParams{Timeout: time.Second, MaxBodySize: 100})
		body, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Len(t, body, 100)
	})

	t.Run("cancellation", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		fetcher := NewHTTPFetcher(FetcherParams{Timeout: 5 * time.Second, Retries: 5})
		start := time.Now()
		_, err := fetcher.Fetch(ctx, server.URL)
		require.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("bad url", func(t *testing.T) {
		fetcher := NewHTTPFetcher(FetcherParams{Timeout: time.Second})
		_, err := fetcher.Fetch(context.Background(), "://bad")
		require.Error(t, err)
	})
}
