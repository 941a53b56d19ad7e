package mailsink

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

var (
	errAuthRequired = &smtp.SMTPError{
		Code:         530,
		EnhancedCode: smtp.EnhancedCode{5, 7, 0},
		Message:      "Authentication required",
	}
	errAuthFailed = &smtp.SMTPError{
		Code:         535,
		EnhancedCode: smtp.EnhancedCode{5, 7, 8},
		Message:      "Authentication credentials invalid",
	}
	errUnknownMechanism = &smtp.SMTPError{
		Code:         504,
		EnhancedCode: smtp.EnhancedCode{5, 7, 4},
		Message:      "Unsupported authentication mechanism",
	}
)

// Session implements the go-smtp AuthSession interface
type Session struct {
	backend    *Backend
	authed     bool
	from       string
	recipients []string
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend) *Session {
	return &Session{
		backend:    backend,
		recipients: make([]string, 0),
	}
}

// AuthMechanisms advertises PLAIN only
func (s *Session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

// Auth checks PLAIN credentials against the configured pair. With no
// pair configured any credentials are accepted.
func (s *Session) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, errUnknownMechanism
	}
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if s.backend.authRequired() && (username != s.backend.username || password != s.backend.password) {
			if s.backend.logger != nil {
				s.backend.logger.Warn("SMTP auth rejected", slog.String("username", username))
			}
			return errAuthFailed
		}
		s.authed = true
		return nil
	}), nil
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	if s.backend.authRequired() && !s.authed {
		return errAuthRequired
	}
	s.from = from
	return nil
}

// Rcpt handles the RCPT TO command
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	address, err := normalizeAddress(to)
	if err != nil {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Invalid recipient address",
		}
	}

	if s.backend.rejectRcpt[address] {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Mailbox unavailable",
		}
	}

	s.recipients = append(s.recipients, address)
	return nil
}

// Data handles the DATA command - receives the email content
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	parsedEmail, err := ParseEmail(bytes.NewReader(raw))
	if err != nil {
		if s.backend.logger != nil {
			s.backend.logger.Error("failed to parse email", slog.Any("error", err))
		}
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Failed to parse email",
		}
	}

	if parsedEmail.SenderEmail == "" {
		parsedEmail.SenderEmail = s.from
	}

	msg := Message{
		ID:         uuid.NewString(),
		From:       s.from,
		Recipients: append([]string(nil), s.recipients...),
		ReceivedAt: time.Now().UTC(),
		Parsed:     parsedEmail,
		Raw:        raw,
	}

	if s.backend.archive != nil {
		path, err := s.backend.archive.Save(msg.ID, msg.ReceivedAt, bytes.NewReader(raw))
		if err != nil {
			if s.backend.logger != nil {
				s.backend.logger.Error("failed to archive email", slog.String("id", msg.ID), slog.Any("error", err))
			}
		} else {
			msg.ArchivePath = path
		}
	}

	s.backend.store.Add(msg)

	if s.backend.logger != nil {
		s.backend.logger.Info("email captured",
			slog.String("id", msg.ID),
			slog.String("from", s.from),
			slog.Int("recipients", len(s.recipients)),
			slog.String("subject", parsedEmail.Subject))
	}

	return nil
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.recipients = make([]string, 0)
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}

// normalizeAddress validates and lowercases an envelope address
func normalizeAddress(address string) (string, error) {
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	address = strings.TrimSpace(address)

	parts := strings.Split(address, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid email address: %s", address)
	}

	return strings.ToLower(address), nil
}
