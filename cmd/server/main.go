package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/welldanyogia/webrana-contact/internal/api"
	"github.com/welldanyogia/webrana-contact/internal/api/middleware"
	"github.com/welldanyogia/webrana-contact/internal/background"
	"github.com/welldanyogia/webrana-contact/internal/config"
	"github.com/welldanyogia/webrana-contact/internal/contact"
	"github.com/welldanyogia/webrana-contact/internal/database"
	"github.com/welldanyogia/webrana-contact/internal/logger"
	"github.com/welldanyogia/webrana-contact/internal/mailer"
	"github.com/welldanyogia/webrana-contact/internal/notify"
	"github.com/welldanyogia/webrana-contact/internal/ratelimit"
	"github.com/welldanyogia/webrana-contact/internal/repository"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

// run owns every resource it opens, so deferred cleanup always runs
// before main exits.
func run() error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	security := logger.NewSecurityLogger(log)

	log.Info("starting contact intake server")
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := ratelimit.Policy{Limit: cfg.SubmissionLimit, Window: cfg.SubmissionWindow}
	store, closeStore, err := initStore(cfg, policy, log)
	if err != nil {
		return fmt.Errorf("init rate limit store: %w", err)
	}
	defer closeStore()

	checks := map[string]ratelimit.Pinger{}
	if p, ok := store.(ratelimit.Pinger); ok {
		checks[cfg.RateLimitStore] = p
	}
	if s, ok := store.(ratelimit.Sweeper); ok {
		go ratelimit.RunJanitor(ctx, s, cfg.SweepInterval, log)
	}

	var sideFailures atomic.Int64
	side := background.New(log,
		background.WithTimeout(cfg.WebhookTimeout+time.Second),
		background.WithObserver(func(string, error) { sideFailures.Add(1) }),
	)

	location, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return fmt.Errorf("load display timezone: %w", err)
	}

	var notifier notify.Notifier
	if n := notify.NewSlackNotifier(cfg.SlackWebhookURL, cfg.WebhookTimeout); n != nil {
		notifier = n
	}

	service, err := contact.NewService(contact.ServiceConfig{
		Mail:         mailer.SettingsFromConfig(cfg.Mail),
		ContactEmail: cfg.Mail.ContactEmail,
		Site: contact.Site{
			Name:         cfg.SiteName,
			URL:          cfg.SiteURL,
			SupportEmail: cfg.SupportEmail,
		},
		Location:    location,
		Notifier:    notifier,
		SideChannel: side,
		Logger:      log,
		Security:    security,
	})
	if err != nil {
		return fmt.Errorf("create contact service: %w", err)
	}
	if !service.MailConfigured() {
		log.Warn("email credentials are not set; submissions will fail until configured")
	}

	burst := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)
	go burst.RunCleanup(ctx, 10*time.Minute)

	e := api.NewRouter(&api.RouterConfig{
		Contact:          service,
		MailConfigured:   service.MailConfigured,
		Submissions:      store,
		SubmissionWindow: cfg.SubmissionWindow,
		HealthChecks:     checks,
		Logger:           log,
		Security:         security,
		AllowedOrigins:   cfg.Origins(),
		Production:       cfg.AppEnv == "production",
		BodyLimit:        cfg.BodyLimit,
		Burst:            burst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Verify plus two sends may each take up to the SMTP timeout.
		WriteTimeout: 3*cfg.Mail.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
	}
	if !side.Drain(shutdownCtx) {
		log.Warn("side tasks still running at shutdown")
	}

	log.Info("server stopped", slog.Int64("side_task_failures", sideFailures.Load()))
	return serveErr
}

func initStore(cfg *config.Config, policy ratelimit.Policy, log *slog.Logger) (ratelimit.Limiter, func(), error) {
	switch cfg.RateLimitStore {
	case config.StoreRedis:
		client := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		store := ratelimit.NewRedisStore(client, policy)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return store, func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", slog.Any("error", err))
			}
		}, nil

	case config.StoreDatabase:
		db, err := database.Connect(cfg.DatabaseURL, cfg.AppEnv == "production")
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		store := ratelimit.NewSQLStore(repository.NewRateLimitRepository(db), policy)
		return store, func() {
			if err := database.Close(db); err != nil {
				log.Error("failed to close database", slog.Any("error", err))
			}
		}, nil

	default:
		return ratelimit.NewMemoryStore(policy), func() {}, nil
	}
}
