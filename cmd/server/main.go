package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/handler"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/notify"
	"github.com/portfolio/backend/internal/ratelimit"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/service"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/pkg/external"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env を先に読み込み、LOG_LEVEL / LOG_FORMAT を反映させる
	cfg, err := config.Load()
	logger := logging.Setup()
	if err != nil {
		logging.Fatal("load config failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db          repository.DB = repository.NopDB{}
		contactRepo repository.ContactRepository
		statusRepo  repository.StatusRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("failed to connect to database", "error", err)
		}
		defer pool.Close()
		db = pool
		contactRepo = repository.NewPgContactRepository(pool)
		statusRepo = repository.NewPgStatusRepository(pool)
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory repositories")
		contactRepo = repository.NewMemoryContactRepository()
		statusRepo = repository.NewMemoryStatusRepository()
	}

	m := metrics.New()

	limiter, err := ratelimit.New(
		ratelimit.WithLimit(cfg.RateLimit.Max),
		ratelimit.WithWindow(cfg.RateLimit.Window),
		ratelimit.WithMaxKeys(cfg.RateLimit.MaxKeys),
		ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval),
	)
	if err != nil {
		logging.Fatal("create rate limiter failed", "error", err)
	}
	go limiter.Run(ctx)
	m.TrackKeys(limiter.Len)

	contactOpts := []service.ContactOption{service.WithMetrics(m)}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logging.Fatal("invalid REDIS_URL", "error", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis unreachable, limiter stats will be retried per request", "error", err)
		}
		cancel()
		contactOpts = append(contactOpts, service.WithStats(ratelimit.NewRedisStatsStore(rdb)))
	}

	var notifier notify.Notifier = notify.NewEmailNotifier(cfg.SMTP)
	if !cfg.SMTP.Configured() {
		slog.Warn("SMTP credentials not configured, contact emails will not be sent")
	}

	contactService := service.NewContactService(limiter, contactRepo, notifier, contactOpts...)
	statusService := service.NewStatusService(statusRepo)

	var forwarder external.Forwarder
	if cfg.External.URL != "" {
		forwarder = external.NewClient(cfg.External.URL, cfg.External.Timeout, cfg.External.RPS, cfg.External.Burst)
	} else {
		slog.Warn("EXTERNAL_CONTACT_URL not set, /api/external-contact will answer 502")
	}

	router := handler.NewRouter(handler.RouterConfig{
		Base: handler.New(db, cfg.CORSOrigins),
		Contact: handler.NewContactHandler(contactService, forwarder, handler.ContactConfig{
			MaxBodyBytes:      int64(cfg.MaxBodyKB) << 10,
			TrustedProxyCount: cfg.TrustedProxyCount,
		}),
		Resume: handler.NewResumeHandler(storage.NewLocalStorage(cfg.Resume.Dir), handler.ResumeConfig{
			Key:          cfg.Resume.File,
			DownloadName: cfg.Resume.DownloadName,
		}),
		Status:      handler.NewStatusHandler(statusService),
		Metrics:     m,
		Logger:      logger,
		AdminSecret: cfg.AdminSecret,
	})
	if cfg.AdminSecret == "" {
		slog.Info("ADMIN_SECRET not set, admin routes disabled")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	if err := contactService.Drain(shutdownCtx); err != nil {
		slog.Error("pending contact submissions not persisted", "error", err)
		os.Exit(1)
	}
}
