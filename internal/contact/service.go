package contact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/welldanyogia/webrana-contact/internal/background"
	apperrors "github.com/welldanyogia/webrana-contact/internal/errors"
	"github.com/welldanyogia/webrana-contact/internal/logger"
	"github.com/welldanyogia/webrana-contact/internal/mailer"
	"github.com/welldanyogia/webrana-contact/internal/notify"
	"golang.org/x/sync/errgroup"
)

// TransportFactory builds a mail transport for a resolved endpoint.
type TransportFactory func(ep mailer.Endpoint) mailer.Transport

// DefaultTransportFactory dials real SMTP servers.
func DefaultTransportFactory(ep mailer.Endpoint) mailer.Transport {
	return mailer.NewSMTPTransport(ep)
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Mail mailer.Settings
	// ContactEmail receives team notifications. Defaults to the sender address.
	ContactEmail string
	Site         Site
	Location     *time.Location

	Transports  TransportFactory
	Notifier    notify.Notifier
	SideChannel *background.SideChannel
	Logger      *slog.Logger
	Security    *logger.SecurityLogger
	Now         func() time.Time
}

// Service handles contact submissions.
type Service struct {
	mail         mailer.Settings
	contactEmail string
	site         Site
	templates    *Templates
	transports   TransportFactory
	notifier     notify.Notifier
	side         *background.SideChannel
	logger       *slog.Logger
	security     *logger.SecurityLogger
	now          func() time.Time
}

// NewService creates a Service. Mail settings are read per submission, so
// a service with no credentials still starts and answers with a
// configuration error.
func NewService(cfg ServiceConfig) (*Service, error) {
	tpl, err := NewTemplates(cfg.Site, cfg.Location)
	if err != nil {
		return nil, err
	}

	s := &Service{
		mail:         cfg.Mail,
		contactEmail: cfg.ContactEmail,
		site:         cfg.Site,
		templates:    tpl,
		transports:   cfg.Transports,
		notifier:     cfg.Notifier,
		side:         cfg.SideChannel,
		logger:       cfg.Logger,
		security:     cfg.Security,
		now:          cfg.Now,
	}
	if s.transports == nil {
		s.transports = DefaultTransportFactory
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.security == nil {
		s.security = logger.NewSecurityLogger(s.logger)
	}
	if s.side == nil {
		s.side = background.New(s.logger)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// MailConfigured reports whether mail credentials are present.
func (s *Service) MailConfigured() bool {
	return s.mail.Validate() == nil
}

// Submit validates and sanitizes req, verifies the mail transport, sends
// the team notification and the auto-reply concurrently, and queues the
// chat summary. Rate limiting happens before Submit is called.
func (s *Service) Submit(ctx context.Context, caller string, req SubmissionRequest) (*Receipt, error) {
	sub, stripped, err := Sanitize(req)
	if len(stripped) > 0 {
		s.security.MarkupStripped(caller, stripped)
	}
	if err != nil {
		return nil, err
	}

	sub.Caller = caller
	sub.Reference = uuid.NewString()
	sub.ReceivedAt = s.now()

	if err := s.mail.Validate(); err != nil {
		s.logger.Error("email service is not configured", slog.Any("error", err))
		return nil, apperrors.NotConfigured(err, MsgNotConfigured)
	}

	ep := s.mail.Resolve(s.logger)
	transport := s.transports(ep)

	if err := transport.Verify(ctx); err != nil {
		s.logger.Error("mail transport verification failed",
			slog.String("provider", ep.Provider),
			slog.Any("error", err))
		if mailer.IsAuthError(err) {
			s.security.SecurityEvent("smtp_auth_failure", caller, map[string]string{"provider": ep.Provider})
		}
		return nil, apperrors.Transport(err, MsgTransportFailure)
	}

	team, reply, err := s.compose(sub, ep)
	if err != nil {
		return nil, apperrors.NewAppError(err, s.genericFailure(), apperrors.CodeInternalError)
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := transport.Send(ctx, team); err != nil {
			return fmt.Errorf("team notification: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := transport.Send(ctx, reply); err != nil {
			return fmt.Errorf("auto-reply: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("contact mail delivery failed",
			slog.String("reference", sub.Reference),
			slog.Any("error", err))
		return nil, apperrors.Delivery(err, s.deliveryMessage(err))
	}

	s.logger.Info("contact submission delivered",
		slog.String("reference", sub.Reference),
		slog.String("project_type", sub.ProjectType),
		slog.String("caller", caller))

	if s.notifier != nil {
		summary := notify.Summary{
			Name:        sub.Name,
			Email:       sub.Email,
			ProjectType: sub.ProjectType,
			Budget:      sub.Budget,
			Message:     sub.Message,
			Reference:   sub.Reference,
		}
		s.side.Go(ctx, "chat_webhook", func(ctx context.Context) error {
			return s.notifier.Notify(ctx, summary)
		})
	}

	return &Receipt{Message: MsgSuccess, Reference: sub.Reference}, nil
}

// compose renders both messages.
func (s *Service) compose(sub *Submission, ep mailer.Endpoint) (team, reply *mailer.Message, err error) {
	teamBody, err := s.templates.Team(sub)
	if err != nil {
		return nil, nil, err
	}
	replyBody, err := s.templates.AutoReply(sub)
	if err != nil {
		return nil, nil, err
	}

	sender := s.mail.User
	if sender == "" {
		sender = ep.Username
	}
	inbox := s.contactEmail
	if inbox == "" {
		inbox = sender
	}

	team = &mailer.Message{
		From:      mailer.Address{Name: s.site.Name + " Contact Form", Email: sender},
		To:        mailer.Address{Email: inbox},
		ReplyTo:   &mailer.Address{Name: sub.Name, Email: sub.Email},
		Subject:   fmt.Sprintf("🚀 New %s Inquiry from %s", sub.ProjectType, sub.Name),
		HTML:      teamBody.HTML,
		Text:      teamBody.Text,
		Priority:  mailer.PriorityHigh,
		EntityRef: sub.Reference,
		Date:      sub.ReceivedAt,
	}
	reply = &mailer.Message{
		From:      mailer.Address{Name: s.site.Name + " Team", Email: sender},
		To:        mailer.Address{Name: sub.Name, Email: sub.Email},
		Subject:   fmt.Sprintf("✨ Thank you for your inquiry - %s", s.site.Name),
		HTML:      replyBody.HTML,
		Text:      replyBody.Text,
		Priority:  mailer.PriorityNormal,
		EntityRef: sub.Reference + "-reply",
		Date:      sub.ReceivedAt,
	}
	return team, reply, nil
}

func (s *Service) deliveryMessage(err error) string {
	switch {
	case mailer.IsAuthError(err):
		return MsgAuthFailure
	case mailer.IsNetworkError(err):
		return MsgNetworkFailure
	default:
		return s.genericFailure()
	}
}

func (s *Service) genericFailure() string {
	return "Something went wrong. Please try again later or contact us directly at " + s.site.SupportEmail
}

// Wait blocks until queued side work such as webhook posts has finished.
func (s *Service) Wait() {
	s.side.Wait()
}
