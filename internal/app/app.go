package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fleetline/rosterwatch/internal/config"
	"github.com/fleetline/rosterwatch/internal/fetch"
	"github.com/fleetline/rosterwatch/internal/httpserver"
	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/logger"
	"github.com/fleetline/rosterwatch/internal/redis"
	"github.com/fleetline/rosterwatch/internal/roster"
	"github.com/fleetline/rosterwatch/internal/scheduler"
	"github.com/fleetline/rosterwatch/internal/shift"
	redisstore "github.com/fleetline/rosterwatch/internal/store/redis"
	"github.com/fleetline/rosterwatch/internal/version"
	"github.com/fleetline/rosterwatch/internal/view"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	state       *view.State
	refresher   *scheduler.Refresher
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Shift sheet layout (skip rows, column mapping). A broken sources
	// file is a config error - fail fast.
	layout, err := shift.LoadLayout(cfg.SourcesFile)
	if err != nil {
		loggerClient.Errorf("Failed to load sources file: %v", err)
		os.Exit(1)
	}

	// Two fetchers: the refresh core retries with backoff, the proxy
	// endpoints stay thin (single attempt).
	fetcher := fetch.New(cfg.FetchTimeout, cfg.FetchRetries, cfg.UpstreamToken, loggerClient)
	proxyFetcher := fetch.New(cfg.FetchTimeout, 0, cfg.UpstreamToken, loggerClient)

	// Optional shared shift-cache tier. The in-process cache works
	// standalone, so a missing redis only costs warm starts.
	var (
		redisClient *goredis.Client
		shiftStore  shift.Store
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warnf("Redis unavailable, continuing without shared shift cache: %v", err)
			redisClient = nil
		} else {
			shiftStore = redisstore.NewStore(redisClient)
		}
	} else {
		loggerClient.Info("redis not configured, shared shift cache disabled")
	}

	mapper := shift.NewMapper(layout, loggerClient)
	shiftCache := shift.NewCache(fetcher, cfg.ShiftsURL, cfg.ShiftTTL, mapper, shiftStore, loggerClient)

	// Warm the shift cache from redis so a restart can stale-serve
	// before its first fetch.
	if shiftStore != nil {
		syncer := scheduler.NewShiftSyncer(shiftStore.(*redisstore.Store), shiftCache, loggerClient)
		if err := syncer.Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to sync shift map from redis, will fetch from source",
				logger.Error(err))
		}
	}

	state := view.NewState()
	rosterClient := roster.NewClient(fetcher, cfg.PlayersURL, cfg.MetricsURL, loggerClient)

	refresher := scheduler.NewRefresher(
		rosterClient,
		shiftCache,
		state,
		loggerClient,
		cfg.RefreshInterval,
		make(chan struct{}, 1),
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:    version.GoVersion,
		APIToken:     cfg.APIToken,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		PlayersURL:   cfg.PlayersURL,
		MetricsURL:   cfg.MetricsURL,
		ShiftsURL:    cfg.ShiftsURL,
		ProxyFetcher: proxyFetcher,
		State:        state,
		Refresher:    refresher,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		state:       state,
		refresher:   refresher,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting rosterwatch v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("rosterwatch %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = a.logger.Sync() }()

	// Start the refresh loop (first refresh runs immediately)
	a.refresher.Start(ctx)
	a.logger.Info("refresh loop started",
		logger.Duration("interval", a.cfg.RefreshInterval),
		logger.Duration("shift_ttl", a.cfg.ShiftTTL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ rosterwatch stopped cleanly")
	return nil
}
