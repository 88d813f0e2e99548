package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/feedwatch/pkg/calendar"
	"github.com/umputun/feedwatch/pkg/feed"
	"github.com/umputun/feedwatch/pkg/state"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher

// Store is the shared state the scheduler reads subscriptions from and dispatches to
type Store interface {
	Dispatch(ctx context.Context, a state.Action) error
	State() state.State
}

// Fetcher downloads raw feed documents
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (string, error)
}

// ErrUpdateInProgress is returned by UpdateFeedNow while another refresh of the same feed runs
var ErrUpdateInProgress = errors.New("update in progress")

// Scheduler refreshes subscriptions when their next build date comes.
// Every refresh runs a full request cycle and reschedules the subscription.
type Scheduler struct {
	store          Store
	fetcher        Fetcher
	updateInterval time.Duration
	retryInterval  time.Duration
	maxWorkers     int
	now            func() time.Time

	inflightMu sync.Mutex
	inflight   map[string]struct{} // feeds with a running request cycle

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Params holds scheduler dependencies and configuration
type Params struct {
	Store          Store
	Fetcher        Fetcher
	UpdateInterval time.Duration // how often due subscriptions are checked, also the minimal gap between refreshes
	RetryInterval  time.Duration // delay before the next attempt after a failed refresh
	MaxWorkers     int
}

// NewScheduler creates a new scheduler instance
func NewScheduler(params Params) *Scheduler {
	if params.UpdateInterval <= 0 {
		params.UpdateInterval = time.Minute
	}
	if params.RetryInterval <= 0 {
		params.RetryInterval = 15 * time.Minute
	}
	if params.MaxWorkers <= 0 {
		params.MaxWorkers = 5
	}
	return &Scheduler{
		store:          params.Store,
		fetcher:        params.Fetcher,
		updateInterval: params.UpdateInterval,
		retryInterval:  params.RetryInterval,
		maxWorkers:     params.MaxWorkers,
		now:            time.Now,
		inflight:       map[string]struct{}{},
	}
}

// Start begins the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.updateWorker(ctx)

	lgr.Printf("[INFO] scheduler started with update interval %v, retry interval %v, %d workers",
		s.updateInterval, s.retryInterval, s.maxWorkers)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// updateWorker checks for due subscriptions on every tick
func (s *Scheduler) updateWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	// run immediately on start
	s.UpdateDue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.UpdateDue(ctx)
		}
	}
}

// UpdateDue refreshes every subscription whose next build date is not in the future.
// Feeds already being refreshed are skipped. Returns the number of refreshed subscriptions.
func (s *Scheduler) UpdateDue(ctx context.Context) int {
	now := calendar.FromTime(s.now())
	var due []string
	for _, sub := range s.store.State().Subscriptions {
		if isDue(sub, now) {
			due = append(due, sub.FeedURL)
		}
	}
	if len(due) == 0 {
		return 0
	}

	lgr.Printf("[INFO] updating %d of %d subscriptions", len(due), len(s.store.State().Subscriptions))

	var updated atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)
	for _, feedURL := range due {
		g.Go(func() error {
			if !s.acquire(feedURL) {
				lgr.Printf("[DEBUG] %s is already updating, skipped", feedURL)
				return nil
			}
			defer s.release(feedURL)
			s.updateFeed(gctx, feedURL)
			updated.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		lgr.Printf("[WARN] update worker error: %v", err)
	}
	return int(updated.Load())
}

// UpdateFeedNow refreshes one subscription regardless of its schedule
func (s *Scheduler) UpdateFeedNow(ctx context.Context, feedURL string) (*feed.Channel, error) {
	if _, ok := s.store.State().Subscription(feedURL); !ok {
		return nil, fmt.Errorf("no subscription for %s", feedURL)
	}
	if !s.acquire(feedURL) {
		return nil, fmt.Errorf("refresh %s: %w", feedURL, ErrUpdateInProgress)
	}
	defer s.release(feedURL)
	return s.updateFeed(ctx, feedURL), nil
}

// acquire marks feedURL as updating, false if it already is
func (s *Scheduler) acquire(feedURL string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[feedURL]; busy {
		return false
	}
	s.inflight[feedURL] = struct{}{}
	return true
}

func (s *Scheduler) release(feedURL string) {
	s.inflightMu.Lock()
	delete(s.inflight, feedURL)
	s.inflightMu.Unlock()
}

// updateFeed runs one request cycle for feedURL and reschedules its subscription
func (s *Scheduler) updateFeed(ctx context.Context, feedURL string) *feed.Channel {
	lgr.Printf("[DEBUG] updating feed: %s", feedURL)

	if err := s.store.Dispatch(ctx, state.RequestChannelData{FeedURL: feedURL}); err != nil {
		lgr.Printf("[WARN] request for %s: %v", feedURL, err)
	}

	ch := state.PerformFeedRequestCycle(ctx, s.fetcher, feedURL, s.store.Dispatch)

	sched := s.schedule(feedURL, ch)
	if err := s.store.Dispatch(context.WithoutCancel(ctx), sched); err != nil {
		lgr.Printf("[WARN] schedule for %s: %v", feedURL, err)
	}
	lgr.Printf("[DEBUG] next update of %s at %s", feedURL, sched.NextBuildDate)
	return ch
}

// schedule picks the next build date of feedURL after a refresh that produced ch, nil on failure
func (s *Scheduler) schedule(feedURL string, ch *feed.Channel) state.SubscriptionScheduled {
	now := s.now()
	res := state.SubscriptionScheduled{FeedURL: feedURL}
	if prev, ok := s.store.State().Subscription(feedURL); ok {
		res.LastBuildDate = prev.LastBuildDate
	}

	if ch == nil {
		retry := calendar.FromTime(now.Add(s.retryInterval))
		res.NextBuildDate = &retry
		return res
	}

	if ch.LastBuildDate != nil && ch.LastBuildDate.IsValid() {
		last := *ch.LastBuildDate
		res.LastBuildDate = &last
	}

	next, err := feed.NextUpdateDate(*ch, now)
	if err != nil {
		lgr.Printf("[WARN] can't schedule %s from its channel, retry in %v: %v", feedURL, s.retryInterval, err)
		next = calendar.FromTime(now.Add(s.retryInterval))
	}
	// a stale channel promises an update in the past, don't poll it on every tick
	if earliest := calendar.FromTime(now.Add(s.updateInterval)); calendar.IsBefore(next, earliest) {
		next = earliest
	}
	res.NextBuildDate = &next
	return res
}

// isDue reports a subscription never scheduled or scheduled not later than now
func isDue(sub state.Subscription, now calendar.Date) bool {
	if sub.NextBuildDate == nil || !sub.NextBuildDate.IsValid() {
		return true
	}
	return !calendar.IsAfter(*sub.NextBuildDate, now)
}
