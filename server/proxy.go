package server

import (
	"bytes"
	"encoding/xml"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// proxyHandler returns the raw document of the feed passed in the feed query parameter.
// Failures are reported as an xml error document when the client accepts xml, plain text otherwise.
func (s *Server) proxyHandler(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("feed")
	if err := checkFeedURL(feedURL); err != nil {
		renderProxyError(w, r, err, http.StatusBadRequest)
		return
	}

	body, err := s.fetcher.Fetch(r.Context(), feedURL)
	if err != nil {
		log.Printf("[WARN] proxy request for %s failed: %v", feedURL, err)
		renderProxyError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("[WARN] failed to write proxy response: %v", err)
	}
}

func renderProxyError(w http.ResponseWriter, r *http.Request, err error, code int) {
	if !strings.Contains(r.Header.Get("Accept"), "xml") {
		http.Error(w, err.Error(), code)
		return
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<error><message>")
	if escErr := xml.EscapeText(&buf, []byte(err.Error())); escErr != nil {
		log.Printf("[WARN] failed to escape error message: %v", escErr)
	}
	buf.WriteString("</message></error>")

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("[WARN] failed to write proxy error: %v", err)
	}
}

// checkFeedURL accepts absolute http(s) urls only
func checkFeedURL(feedURL string) error {
	if feedURL == "" {
		return errors.New("feed url is required")
	}
	u, err := url.Parse(feedURL)
	if err != nil {
		return errors.New("invalid feed url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("feed url must be an absolute http(s) url")
	}
	return nil
}
