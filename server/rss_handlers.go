package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/umputun/feedwatch/pkg/feed"
)

// rssHandler re-publishes a loaded channel as RSS 2.0
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("feed")
	if feedURL == "" {
		http.Error(w, "feed parameter is required", http.StatusBadRequest)
		return
	}

	ch, ok := s.store.State().Channel(feedURL)
	if !ok || ch.Loading {
		http.Error(w, fmt.Sprintf("channel %s is not loaded", feedURL), http.StatusNotFound)
		return
	}

	generator := feed.NewGenerator(s.config.GetFullConfig().Server.BaseURL)
	rss, err := generator.GenerateRSS(ch)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed for %s: %v", feedURL, err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// opmlHandler exports subscriptions as OPML
func (s *Server) opmlHandler(w http.ResponseWriter, _ *http.Request) {
	st := s.store.State()

	entries := make([]feed.OPMLEntry, 0, len(st.Subscriptions))
	for _, sub := range st.Subscriptions {
		entry := feed.OPMLEntry{FeedURL: sub.FeedURL, Updated: sub.LastBuildDate}
		if ch, ok := st.Channel(sub.FeedURL); ok {
			entry.Title = ch.Title
		}
		entries = append(entries, entry)
	}

	generator := feed.NewGenerator(s.config.GetFullConfig().Server.BaseURL)
	opml, err := generator.GenerateOPML(entries)
	if err != nil {
		log.Printf("[ERROR] failed to generate OPML: %v", err)
		http.Error(w, "Failed to generate OPML", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/x-opml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.opml"`)
	if _, err := w.Write([]byte(opml)); err != nil {
		log.Printf("[ERROR] failed to write OPML response: %v", err)
	}
}
