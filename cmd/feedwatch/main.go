package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/feedwatch/pkg/config"
	"github.com/umputun/feedwatch/pkg/feed"
	"github.com/umputun/feedwatch/pkg/repository"
	"github.com/umputun/feedwatch/pkg/scheduler"
	"github.com/umputun/feedwatch/pkg/state"
	"github.com/umputun/feedwatch/server"
)

// Opts with all CLI options
type Opts struct {
	Config    string   `short:"c" long:"config" env:"CONFIG" description:"configuration file, defaults are used if empty"`
	Listen    string   `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	Subscribe []string `short:"s" long:"subscribe" env:"SUBSCRIBE" env-delim:"," description:"feed url to subscribe on start"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	log.Printf("[INFO] starting feedwatch version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run wires storage, state, scheduler and http server and blocks until ctx is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	store, err := initStore(ctx, cfg, repos)
	if err != nil {
		return fmt.Errorf("failed to initialize state: %w", err)
	}

	subscribe := append(append([]string{}, cfg.State.Subscriptions...), opts.Subscribe...)
	for _, feedURL := range subscribe {
		sub := state.Subscription{FeedURL: feedURL}
		if err := store.Dispatch(ctx, state.SubscriptionAdded{Subscription: sub}); err != nil {
			log.Printf("[WARN] failed to subscribe to %s: %v", feedURL, err)
		}
	}
	log.Printf("[INFO] %d subscriptions, %d cached channels", len(store.State().Subscriptions), len(store.State().Channels))

	fetcher := feed.NewHTTPFetcher(feed.FetcherParams{
		Timeout:     cfg.Fetch.Timeout,
		UserAgent:   cfg.Fetch.UserAgent,
		Retries:     cfg.Fetch.Retries,
		MaxBodySize: cfg.Fetch.MaxBodySize,
	})

	sched := scheduler.NewScheduler(scheduler.Params{
		Store:          store,
		Fetcher:        fetcher,
		UpdateInterval: cfg.Schedule.UpdateInterval,
		RetryInterval:  cfg.Schedule.RetryInterval,
		MaxWorkers:     cfg.Schedule.MaxWorkers,
	})
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(server.Params{
		Config:    cfg,
		Store:     store,
		Scheduler: sched,
		Fetcher:   fetcher,
		Version:   revision,
		Debug:     opts.Debug,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	return cfg, nil
}

// initStore restores cached channels and persisted subscriptions, then attaches the listeners
// keeping both stored on every change
func initStore(ctx context.Context, cfg *config.Config, repos *repository.Repositories) (*state.StateStore, error) {
	cached, err := repos.Channel.ListChannels(ctx)
	if err != nil {
		log.Printf("[WARN] failed to read cached channels: %v", err)
		cached = nil
	}

	persistence := state.NewPersistence(repos.Setting, 0)
	initial := state.NewState(state.WithSubscriptionsKey(cfg.State.SubscriptionsKey), state.WithChannels(cached))
	store := state.NewStateStore(initial, state.NewReducer(persistence), nil)

	for _, a := range []state.Action{state.InitializeDefaultState{}, state.LoadSubscriptions{}} {
		if err := store.Dispatch(ctx, a); err != nil {
			return nil, fmt.Errorf("dispatch %s: %w", a.Type(), err)
		}
	}

	store.Listeners().AddListener(state.FieldSubscriptions, persistence.Listener(func() string {
		return store.State().SubscriptionsKey
	}))
	store.Listeners().AddListener(state.FieldChannels, state.ListenFunc(func(ctx context.Context, _ state.Field, value any) error {
		channels, ok := value.([]feed.Channel)
		if !ok {
			return fmt.Errorf("unexpected channels value %T", value)
		}
		return repos.Channel.SyncChannels(ctx, channels)
	}))
	return store, nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

