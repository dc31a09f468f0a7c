package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/api"
	"github.com/ruddro-roy/satlink-planner/internal/auth"
	"github.com/ruddro-roy/satlink-planner/internal/forecast"
	"github.com/ruddro-roy/satlink-planner/internal/metrics"
	"github.com/ruddro-roy/satlink-planner/internal/tle"
)

type tleConfig struct {
	EnableFetch     bool
	SourceURL       string
	Group           string
	CacheDir        string
	MaxCacheFiles   int
	RefreshInterval time.Duration
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("SATLINK_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	trustProxy := false
	if v := os.Getenv("SATLINK_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SATLINK_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			trustProxy = b
		}
	}

	workers := runtime.NumCPU()
	if v := os.Getenv("SATLINK_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATLINK_WORKERS value, using default", "value", v, "default", workers)
		} else {
			workers = n
		}
	}

	tleCfg := loadTLEConfig(logger)
	store := tle.NewStore()
	tleCache := tle.NewCache(tleCfg.CacheDir, tleCfg.MaxCacheFiles)

	// Attempt to load cached element data on startup.
	data, ts, err := tleCache.LoadLatest()
	if err != nil {
		logger.Info("no element cache found, starting without elements", "error", err)
	} else {
		entries, err := tle.Parse(bytes.NewReader(data), "cache", logger)
		if err != nil {
			logger.Warn("failed to parse cached element data", "error", err)
		} else if len(entries) > 0 {
			ds := tle.NewDataset("cache", ts, entries)
			store.Set(ds)
			metrics.SetElementSetStats(len(entries), ds.MaxAgeDays(time.Now()))
			logger.Info("loaded elements from cache", "count", len(entries), "cached_at", ts.Format(time.RFC3339))
		}
	}

	engine := forecast.NewEngine(logger, workers)
	srv := api.NewServer(addr, logger, engine, store, authCfg, trustProxy)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if tleCfg.EnableFetch {
		go refreshLoop(ctx, tleCfg, store, tleCache, logger)
	}

	// Background goroutine to keep the element-set gauges current.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if ds := store.Get(); ds != nil {
					metrics.SetElementSetStats(len(ds.Satellites), ds.MaxAgeDays(time.Now()))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "tle_fetch_enabled", tleCfg.EnableFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// refreshLoop fetches the configured element group immediately and
// then on the refresh interval, replacing the store dataset and
// persisting each fetch to the cache.
func refreshLoop(ctx context.Context, cfg tleConfig, store *tle.Store, cache *tle.Cache, logger *slog.Logger) {
	fetcher := tle.NewFetcher(cfg.SourceURL)

	refresh := func() {
		store.Lock()
		defer store.Unlock()

		fetchCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		data, err := fetcher.FetchGroup(fetchCtx, cfg.Group)
		if err != nil {
			logger.Warn("element fetch failed", "group", cfg.Group, "error", err)
			return
		}
		entries, err := tle.Parse(bytes.NewReader(data), "celestrak", logger)
		if err != nil || len(entries) == 0 {
			logger.Warn("element fetch returned no usable entries", "group", cfg.Group, "error", err)
			return
		}

		now := time.Now()
		ds := tle.NewDataset("celestrak", now, entries)
		store.Set(ds)
		metrics.SetElementSetStats(len(entries), ds.MaxAgeDays(now))
		if err := cache.Write(data, now); err != nil {
			logger.Warn("failed to persist element cache", "error", err)
		}
		logger.Info("refreshed elements", "group", cfg.Group, "count", len(entries))
	}

	refresh()
	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			refresh()
		case <-ctx.Done():
			return
		}
	}
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("SATLINK_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("SATLINK_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("SATLINK_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("SATLINK_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		EnableFetch:     false,
		Group:           "amateur",
		CacheDir:        "/tmp/satlink/tle",
		MaxCacheFiles:   5,
		RefreshInterval: 6 * time.Hour,
	}

	if v := os.Getenv("SATLINK_ENABLE_TLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SATLINK_ENABLE_TLE_FETCH value, defaulting to false", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("SATLINK_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := strings.TrimSpace(os.Getenv("SATLINK_TLE_GROUP")); v != "" {
		cfg.Group = v
	}

	if v := os.Getenv("SATLINK_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("SATLINK_TLE_REFRESH_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 60 {
			logger.Warn("invalid SATLINK_TLE_REFRESH_SECONDS value, using default", "value", v, "default", 21600)
		} else {
			cfg.RefreshInterval = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("element source config",
		"fetch_enabled", cfg.EnableFetch,
		"source_url", cfg.SourceURL,
		"group", cfg.Group,
		"cache_dir", cfg.CacheDir,
		"refresh_interval_seconds", cfg.RefreshInterval.Seconds(),
	)

	return cfg
}
