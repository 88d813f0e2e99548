package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedwatch/pkg/calendar"
	"github.com/umputun/feedwatch/pkg/config"
	"github.com/umputun/feedwatch/pkg/feed"
	"github.com/umputun/feedwatch/pkg/scheduler"
	"github.com/umputun/feedwatch/pkg/state"
	"github.com/umputun/feedwatch/server/mocks"
)

const testFeedURL = "https://example.com/rss.xml"

func testConfig(listen string) *mocks.ConfigProviderMock {
	cfg := config.Default()
	cfg.Server.BaseURL = "http://feedwatch.local"
	return &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) { return listen, 30 * time.Second },
		GetFullConfigFunc:   func() *config.Config { return cfg },
	}
}

func testState() state.State {
	ch := feed.NewChannel(feed.WithAtomLink(testFeedURL))
	ch.Title = "Example"
	ch.Description = "example feed"
	ch.LastBuildDate = datePtr(2025, 7, 24, 10, 0)
	item := feed.NewItem()
	item.Title = "first"
	item.Link = "https://example.com/1"
	item.Description = `<p>hello</p><script>alert(1)</script>`
	item.Content = `<a href="https://example.com" onclick="evil()">link</a>`
	ch.Items = []feed.Item{item}

	return state.NewState(
		state.WithSubscriptions([]state.Subscription{
			{FeedURL: testFeedURL, LastBuildDate: datePtr(2025, 7, 24, 10, 0)},
			{FeedURL: "https://example.org/atom.xml"},
		}),
		state.WithChannels([]feed.Channel{ch, feed.Placeholder("https://example.org/atom.xml", true)}),
	)
}

func datePtr(y, m0, d, h, mi int) *calendar.Date {
	dt := calendar.UTC(y, m0, d, h, mi, 0, 0)
	return &dt
}

func testStore(st state.State) *mocks.StoreMock {
	return &mocks.StoreMock{
		StateFunc:    func() state.State { return st },
		DispatchFunc: func(context.Context, state.Action) error { return nil },
	}
}

func testServer(t *testing.T, store Store, scheduler Scheduler, fetcher Fetcher) *Server {
	t.Helper()
	return New(Params{
		Config:    testConfig(":8080"),
		Store:     store,
		Scheduler: scheduler,
		Fetcher:   fetcher,
		Version:   "test",
	})
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestServer_New(t *testing.T) {
	srv := New(Params{Config: testConfig(":8080"), Store: testStore(state.NewState()), Version: "1.0.0"})
	assert.NotNil(t, srv)
	assert.Equal(t, "1.0.0", srv.version)
	assert.False(t, srv.debug)
	assert.NotNil(t, srv.sanitizer)
}

func TestServer_Run(t *testing.T) {
	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	err = listener.Close()
	require.NoError(t, err)

	srv := New(Params{Config: testConfig(fmt.Sprintf("127.0.0.1:%d", port)), Store: testStore(state.NewState()),
		Version: "1.0.0", Debug: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		return err == nil
	}, time.Second, 10*time.Millisecond)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_rootHandler(t *testing.T) {
	srv := testServer(t, testStore(state.NewState()), nil, nil)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusPermanentRedirect, w.Code)
	assert.Equal(t, "/index.html", w.Header().Get("Location"))
}

func TestServer_statusHandler(t *testing.T) {
	srv := testServer(t, testStore(testState()), nil, nil)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "test", status["version"])
	assert.InDelta(t, 2, status["subscriptions"], 0)
	assert.InDelta(t, 2, status["channels"], 0)
	assert.NotEmpty(t, status["time"])
}

func TestServer_channelsHandler(t *testing.T) {
	st := testState()
	srv := testServer(t, testStore(st), nil, nil)

	t.Run("all channels sanitized", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/channels", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		var channels []feed.Channel
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &channels))
		require.Len(t, channels, 2)
		require.Len(t, channels[0].Items, 1)
		assert.Equal(t, "<p>hello</p>", channels[0].Items[0].Description)
		assert.NotContains(t, channels[0].Items[0].Content, "onclick")
		assert.Contains(t, channels[0].Items[0].Content, "link</a>")
		assert.True(t, channels[1].Loading)

		// state itself is untouched
		assert.Contains(t, st.Channels[0].Items[0].Description, "<script>")
	})

	t.Run("single channel", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/channels?feed="+testFeedURL, http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		var channels []feed.Channel
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &channels))
		require.Len(t, channels, 1)
		assert.Equal(t, "Example", channels[0].Title)
	})

	t.Run("unknown channel", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/channels?feed=https://nope.example.com", http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not found")
	})
}

func TestServer_subscriptionHandlers(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		srv := testServer(t, testStore(testState()), nil, nil)
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		var subs []state.Subscription
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subs))
		require.Len(t, subs, 2)
		assert.Equal(t, testFeedURL, subs[0].FeedURL)
		assert.Equal(t, "2025-08-24T10:00:00.000Z", subs[0].LastBuildDate.ISO())
	})

	t.Run("add", func(t *testing.T) {
		store := testStore(testState())
		srv := testServer(t, store, nil, nil)
		body := strings.NewReader(`{"feedUrl":"https://blog.example.net/feed"}`)
		w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", body))

		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, store.DispatchCalls(), 1)
		assert.Equal(t, state.SubscriptionAdded{Subscription: state.Subscription{FeedURL: "https://blog.example.net/feed"}},
			store.DispatchCalls()[0].A)
	})

	t.Run("add rejects bad input", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			code int
		}{
			{name: "invalid json", body: `{`, code: http.StatusBadRequest},
			{name: "empty url", body: `{"feedUrl":""}`, code: http.StatusBadRequest},
			{name: "relative url", body: `{"feedUrl":"/rss.xml"}`, code: http.StatusBadRequest},
			{name: "ftp url", body: `{"feedUrl":"ftp://example.com/rss"}`, code: http.StatusBadRequest},
			{name: "already subscribed", body: `{"feedUrl":"` + testFeedURL + `"}`, code: http.StatusConflict},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := testStore(testState())
				srv := testServer(t, store, nil, nil)
				w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", strings.NewReader(tt.body)))
				assert.Equal(t, tt.code, w.Code)
				assert.Empty(t, store.DispatchCalls())
			})
		}
	})

	t.Run("add dispatch failure", func(t *testing.T) {
		store := testStore(testState())
		store.DispatchFunc = func(context.Context, state.Action) error { return errors.New("storage down") }
		srv := testServer(t, store, nil, nil)
		body := strings.NewReader(`{"feedUrl":"https://blog.example.net/feed"}`)
		w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", body))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "storage down")
	})

	t.Run("remove", func(t *testing.T) {
		store := testStore(testState())
		srv := testServer(t, store, nil, nil)
		w := serve(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions?feed="+testFeedURL, http.NoBody))
		assert.Equal(t, http.StatusNoContent, w.Code)
		require.Len(t, store.DispatchCalls(), 1)
		assert.Equal(t, state.SubscriptionRemoved{FeedURL: testFeedURL}, store.DispatchCalls()[0].A)
	})

	t.Run("remove unknown or missing", func(t *testing.T) {
		store := testStore(testState())
		srv := testServer(t, store, nil, nil)
		w := serve(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions?feed=https://nope.example.com", http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = serve(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions", http.NoBody))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, store.DispatchCalls())
	})
}

func TestServer_refreshHandler(t *testing.T) {
	loaded := feed.NewChannel(feed.WithAtomLink(testFeedURL))
	loaded.Title = "Refreshed"

	tests := []struct {
		name     string
		query    string
		ch       *feed.Channel
		err      error
		code     int
		contains string
	}{
		{name: "loaded", query: "?feed=" + testFeedURL, ch: &loaded, code: http.StatusOK, contains: "Refreshed"},
		{name: "not subscribed", query: "?feed=https://nope.example.com", err: errors.New("no subscription"),
			code: http.StatusNotFound, contains: "no subscription"},
		{name: "already updating", query: "?feed=" + testFeedURL,
			err: fmt.Errorf("refresh %s: %w", testFeedURL, scheduler.ErrUpdateInProgress),
			code: http.StatusConflict, contains: "update in progress"},
		{name: "load failed", query: "?feed=" + testFeedURL, code: http.StatusBadGateway, contains: "failed to load"},
		{name: "missing feed", query: "", code: http.StatusBadRequest, contains: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := &mocks.SchedulerMock{UpdateFeedNowFunc: func(context.Context, string) (*feed.Channel, error) {
				return tt.ch, tt.err
			}}
			srv := testServer(t, testStore(testState()), scheduler, nil)
			w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/refresh"+tt.query, http.NoBody))
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestServer_proxyHandler(t *testing.T) {
	const doc = `<?xml version="1.0"?><rss version="2.0"><channel><title>x</title></channel></rss>`

	t.Run("returns raw document", func(t *testing.T) {
		fetcher := &mocks.FetcherMock{FetchFunc: func(_ context.Context, feedURL string) (string, error) {
			assert.Equal(t, testFeedURL, feedURL)
			return doc, nil
		}}
		srv := testServer(t, testStore(state.NewState()), nil, fetcher)
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/feed?feed="+testFeedURL, http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, doc, w.Body.String())
	})

	t.Run("missing parameter", func(t *testing.T) {
		srv := testServer(t, testStore(state.NewState()), nil, &mocks.FetcherMock{})
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/feed", http.NoBody))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "feed url is required")
	})

	t.Run("fetch failure as xml", func(t *testing.T) {
		fetcher := &mocks.FetcherMock{FetchFunc: func(context.Context, string) (string, error) {
			return "", errors.New("unexpected status 503 & more")
		}}
		srv := testServer(t, testStore(state.NewState()), nil, fetcher)
		req := httptest.NewRequest(http.MethodGet, "/feed?feed="+testFeedURL, http.NoBody)
		req.Header.Set("Accept", "application/xml")
		w := serve(srv, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "<error><message>unexpected status 503 &amp; more</message></error>")
	})

	t.Run("fetch failure as text", func(t *testing.T) {
		fetcher := &mocks.FetcherMock{FetchFunc: func(context.Context, string) (string, error) {
			return "", errors.New("timeout")
		}}
		srv := testServer(t, testStore(state.NewState()), nil, fetcher)
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/feed?feed="+testFeedURL, http.NoBody))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
		assert.Equal(t, "timeout\n", w.Body.String())
	})
}

func TestServer_rssHandler(t *testing.T) {
	srv := testServer(t, testStore(testState()), nil, nil)

	t.Run("loaded channel", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/rss?feed="+testFeedURL, http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))
		body := w.Body.String()
		assert.Contains(t, body, "<title>Example</title>")
		assert.Contains(t, body, "http://feedwatch.local/feed?feed=https%3A%2F%2Fexample.com%2Frss.xml")

		parsed := feed.ParseDocument(body)
		require.NotNil(t, parsed)
		assert.Equal(t, testFeedURL, parsed.AtomLink)
		assert.Len(t, parsed.Items, 1)
	})

	t.Run("loading channel", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/rss?feed=https://example.org/atom.xml", http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing parameter", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/rss", http.NoBody))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_opmlHandler(t *testing.T) {
	srv := testServer(t, testStore(testState()), nil, nil)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/opml", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/x-opml; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `xmlUrl="https://example.com/rss.xml"`)
	assert.Contains(t, body, `title="Example"`)
	assert.Contains(t, body, `xmlUrl="https://example.org/atom.xml"`)
}

func TestRenderJSON(t *testing.T) {
	w := httptest.NewRecorder()
	renderJSON(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody), http.StatusAccepted, map[string]string{"key": "value"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"key":"value"}`, w.Body.String())
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "with error", err: errors.New("bad things"), expected: `{"error":"bad things"}`},
		{name: "nil error", err: nil, expected: `{"error":"unknown error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			renderError(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody), tt.err, http.StatusBadRequest)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}
}

func TestCheckFeedURL(t *testing.T) {
	assert.NoError(t, checkFeedURL("http://example.com/rss"))
	assert.NoError(t, checkFeedURL("https://example.com/rss?x=1"))
	assert.Error(t, checkFeedURL(""))
	assert.Error(t, checkFeedURL("example.com/rss"))
	assert.Error(t, checkFeedURL("https://"))
	assert.Error(t, checkFeedURL("mailto:a@example.com"))
	assert.Error(t, checkFeedURL("http://[::1"))
}
