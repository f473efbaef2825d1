// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sureshg03/unified-portal/internal/api"
	"github.com/sureshg03/unified-portal/internal/config"
	"github.com/sureshg03/unified-portal/internal/daemon"
	"github.com/sureshg03/unified-portal/internal/health"
	plog "github.com/sureshg03/unified-portal/internal/log"
	"github.com/sureshg03/unified-portal/internal/store"
	"github.com/sureshg03/unified-portal/internal/watch"
)

var (
	version   = "v1.2.0"
	commit    = "none"
	buildDate = "unknown"
)

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg := config.FromEnv()

	plog.Configure(plog.Config{
		Level:   cfg.LogLevel,
		Service: "portald",
	})
	logger := plog.WithComponent("daemon")

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var storeOpts []store.Option
	if cfg.StoreToken != "" {
		storeOpts = append(storeOpts, store.WithTokenSource(store.StaticToken(cfg.StoreToken)))
	}
	client := store.New(cfg.StoreBase, storeOpts...)

	notifier := watch.NewLogNotifier(50)
	watcher := watch.New(client,
		watch.WithInterval(cfg.PollInterval),
		watch.WithNotifier(notifier),
	)

	logger.Info().
		Str("store", maskURL(cfg.StoreBase)).
		Dur("poll_interval", cfg.PollInterval).
		Msg("starting session watcher")

	if err := watcher.Start(ctx); err != nil {
		// The loop keeps polling; the first fetch failing only delays the
		// initial snapshot until the store becomes reachable.
		logger.Warn().Err(err).Msg("initial fetch failed, continuing to poll")
	}

	healthManager := health.NewManager()
	healthManager.RegisterChecker(health.NewLastPollChecker(watcher.LastRun, 6*cfg.PollInterval))
	healthManager.RegisterChecker(health.NewStoreChecker(func(ctx context.Context) error {
		_, err := client.List(ctx)
		return err
	}, 5*time.Second))

	apiServer := api.New(client, watcher, healthManager, cfg.PageSize,
		api.WithNotifier(notifier),
		api.WithRateLimit(cfg.RateLimit),
	)

	deps := daemon.Deps{
		APIHandler:  apiServer.Router(),
		ListenAddr:  cfg.ListenAddr,
		MetricsAddr: cfg.MetricsAddr,
	}
	if cfg.MetricsAddr != "" {
		deps.MetricsHandler = promhttp.Handler()
	}

	manager, err := daemon.NewManager(deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build daemon manager")
	}
	manager.RegisterShutdownHook("watcher", func(context.Context) error {
		watcher.Stop()
		return nil
	})

	start := time.Now()
	if err := manager.Start(ctx); err != nil {
		logger.Error().Err(err).Dur("uptime", time.Since(start)).Msg("daemon exited with error")
		os.Exit(1)
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("daemon exited")
}
