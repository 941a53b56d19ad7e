// Command mailsink runs a local SMTP server that captures outbound mail
// for development. It offers STARTTLS with a throwaway certificate, so
// point the contact server at it with EMAIL_PROVIDER=smtp, SMTP_HOST=localhost,
// SMTP_PORT matching MAILSINK_ADDR and SMTP_TLS_INSECURE=true.
// MAILSINK_TLS=implicit serves TLS on connect instead (pair with SMTP_SECURE=true).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/welldanyogia/webrana-contact/internal/config"
	"github.com/welldanyogia/webrana-contact/internal/logger"
	"github.com/welldanyogia/webrana-contact/internal/mailsink"
	"github.com/welldanyogia/webrana-contact/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mailsink exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.AppEnv == "production" {
		log.Warn("mailsink uses a self-signed certificate and is meant for development only")
	}

	server := mailsink.ServerConfig{Addr: cfg.MailSinkAddr}
	switch cfg.MailSinkTLS {
	case "starttls", "implicit":
		tlsConfig, err := mailsink.SelfSignedTLS()
		if err != nil {
			return fmt.Errorf("create certificate: %w", err)
		}
		server.TLSConfig = tlsConfig
		server.ImplicitTLS = cfg.MailSinkTLS == "implicit"
	case "off":
		server.AllowInsecure = true
		log.Warn("mailsink TLS is off; the contact server refuses endpoints without STARTTLS")
	default:
		return fmt.Errorf("MAILSINK_TLS must be one of starttls, implicit, off")
	}

	var archive storage.FileStorage
	if cfg.MailSinkDir != "" {
		archive, err = storage.NewLocalStorage(cfg.MailSinkDir)
		if err != nil {
			return fmt.Errorf("open mail archive: %w", err)
		}
		existing, err := archive.List()
		if err != nil {
			return fmt.Errorf("list mail archive: %w", err)
		}
		log.Info("archiving captured mail",
			slog.String("dir", cfg.MailSinkDir),
			slog.Int("existing", len(existing)))
	}

	sink, err := mailsink.Start(mailsink.Options{
		Server: server,
		Backend: mailsink.BackendConfig{
			Archive:  archive,
			Username: cfg.Mail.SMTPUser,
			Password: cfg.Mail.SMTPPassword,
			Logger:   log,
		},
	})
	if err != nil {
		return fmt.Errorf("start mailsink: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down mailsink", slog.Int("captured", sink.Store().Len()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
