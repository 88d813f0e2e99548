package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// ErrBodyTooLarge is returned when a response exceeds the configured size limit
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// FetcherParams configures HTTPFetcher
type FetcherParams struct {
	Timeout     time.Duration // per attempt
	UserAgent   string
	Retries     int   // attempts in total, at least one
	MaxBodySize int64 // bytes, 0 means unlimited
}

// HTTPFetcher downloads raw feed documents
type HTTPFetcher struct {
	client *http.Client
	params FetcherParams
}

// NewHTTPFetcher creates a fetcher with its own pooled http client
func NewHTTPFetcher(params FetcherParams) *HTTPFetcher {
	if params.Retries < 1 {
		params.Retries = 1
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: params.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		params: params,
	}
}

// Fetch returns the body of feedURL. Server errors and network failures are retried with backoff,
// client errors and cancellation are not.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	var body string
	var finalErr error
	retrier := repeater.NewBackoff(f.params.Retries, 100*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		b, err := f.fetchOnce(ctx, feedURL)
		if err == nil {
			body = b
			return nil
		}
		var se *StatusError
		if ctx.Err() != nil || errors.Is(err, ErrBodyTooLarge) || (errors.As(err, &se) && se.Code < 500) {
			finalErr = err // not worth another attempt
			return nil
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", feedURL, err)
	}
	if finalErr != nil {
		return "", fmt.Errorf("fetch %s: %w", feedURL, finalErr)
	}
	return body, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, feedURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	setFeedHeaders(req, f.params.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: feedURL, Code: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if f.params.MaxBodySize > 0 {
		reader = io.LimitReader(resp.Body, f.params.MaxBodySize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if f.params.MaxBodySize > 0 && int64(len(data)) > f.params.MaxBodySize {
		return "", ErrBodyTooLarge
	}
	return string(data), nil
}
