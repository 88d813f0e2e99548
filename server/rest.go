package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/umputun/feedwatch/pkg/feed"
	"github.com/umputun/feedwatch/pkg/scheduler"
	"github.com/umputun/feedwatch/pkg/state"
)

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	st := s.store.State()
	status := map[string]any{
		"status":        "ok",
		"version":       s.version,
		"time":          time.Now().UTC(),
		"subscriptions": len(st.Subscriptions),
		"channels":      len(st.Channels),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// channelsHandler returns channels with sanitized item markup, optionally limited to one feed
func (s *Server) channelsHandler(w http.ResponseWriter, r *http.Request) {
	st := s.store.State()

	if feedURL := r.URL.Query().Get("feed"); feedURL != "" {
		ch, ok := st.Channel(feedURL)
		if !ok {
			renderError(w, r, fmt.Errorf("channel %s not found", feedURL), http.StatusNotFound)
			return
		}
		renderJSON(w, r, http.StatusOK, []feed.Channel{s.sanitizeChannel(ch)})
		return
	}

	res := make([]feed.Channel, 0, len(st.Channels))
	for _, ch := range st.Channels {
		res = append(res, s.sanitizeChannel(ch))
	}
	renderJSON(w, r, http.StatusOK, res)
}

// sanitizeChannel returns a copy of ch with item description and content cleaned for display
func (s *Server) sanitizeChannel(ch feed.Channel) feed.Channel {
	items := make([]feed.Item, len(ch.Items))
	for i, item := range ch.Items {
		item.Description = s.sanitizer.Sanitize(item.Description)
		item.Content = s.sanitizer.Sanitize(item.Content)
		items[i] = item
	}
	ch.Items = items
	return ch
}

// listSubscriptionsHandler returns all subscriptions
func (s *Server) listSubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.store.State().Subscriptions)
}

type subscriptionRequest struct {
	FeedURL string `json:"feedUrl"`
}

// addSubscriptionHandler subscribes to the feed in the request body
func (s *Server) addSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}
	if err := checkFeedURL(req.FeedURL); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	if _, exists := s.store.State().Subscription(req.FeedURL); exists {
		renderError(w, r, fmt.Errorf("already subscribed to %s", req.FeedURL), http.StatusConflict)
		return
	}

	sub := state.Subscription{FeedURL: req.FeedURL}
	if err := s.store.Dispatch(r.Context(), state.SubscriptionAdded{Subscription: sub}); err != nil {
		log.Printf("[ERROR] failed to add subscription %s: %v", req.FeedURL, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] subscribed to %s", req.FeedURL)
	renderJSON(w, r, http.StatusCreated, sub)
}

// removeSubscriptionHandler unsubscribes from the feed passed in the feed query parameter
func (s *Server) removeSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("feed")
	if feedURL == "" {
		renderError(w, r, errors.New("feed parameter is required"), http.StatusBadRequest)
		return
	}
	if _, exists := s.store.State().Subscription(feedURL); !exists {
		renderError(w, r, fmt.Errorf("subscription %s not found", feedURL), http.StatusNotFound)
		return
	}

	if err := s.store.Dispatch(r.Context(), state.SubscriptionRemoved{FeedURL: feedURL}); err != nil {
		log.Printf("[ERROR] failed to remove subscription %s: %v", feedURL, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] unsubscribed from %s", feedURL)
	w.WriteHeader(http.StatusNoContent)
}

// refreshHandler fetches a subscribed feed right away and returns the loaded channel
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("feed")
	if feedURL == "" {
		renderError(w, r, errors.New("feed parameter is required"), http.StatusBadRequest)
		return
	}

	ch, err := s.scheduler.UpdateFeedNow(r.Context(), feedURL)
	if errors.Is(err, scheduler.ErrUpdateInProgress) {
		renderError(w, r, err, http.StatusConflict)
		return
	}
	if err != nil {
		renderError(w, r, err, http.StatusNotFound)
		return
	}
	if ch == nil {
		renderError(w, r, fmt.Errorf("failed to load %s", feedURL), http.StatusBadGateway)
		return
	}
	renderJSON(w, r, http.StatusOK, s.sanitizeChannel(*ch))
}
