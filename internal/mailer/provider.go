// Package mailer resolves the configured mail provider and delivers
// messages over SMTP.
package mailer

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-contact/internal/config"
)

// Provider names accepted in EMAIL_PROVIDER.
const (
	ProviderGmail   = "gmail"
	ProviderOutlook = "outlook"
	ProviderYahoo   = "yahoo"
	ProviderSMTP    = "smtp"
)

// DefaultTimeout bounds a single SMTP conversation when none is configured.
const DefaultTimeout = 30 * time.Second

// ErrMissingCredentials is returned by Settings.Validate.
var ErrMissingCredentials = errors.New("mail credentials are not configured")

type providerInfo struct {
	host   string
	port   int
	secure bool
}

var providers = map[string]providerInfo{
	ProviderGmail:   {host: "smtp.gmail.com", port: 587},
	ProviderOutlook: {host: "smtp-mail.outlook.com", port: 587},
	ProviderYahoo:   {host: "smtp.mail.yahoo.com", port: 587},
}

// Settings is the raw mail configuration.
type Settings struct {
	Provider     string
	User         string
	Password     string
	SMTPHost     string
	SMTPPort     int
	SMTPSecure   bool
	SMTPUser     string
	SMTPPassword string
	TLSInsecure  bool
	Timeout      time.Duration
}

// SettingsFromConfig copies the mail section of the application config.
func SettingsFromConfig(c config.MailConfig) Settings {
	return Settings{
		Provider:     c.Provider,
		User:         c.User,
		Password:     c.Password,
		SMTPHost:     c.SMTPHost,
		SMTPPort:     c.SMTPPort,
		SMTPSecure:   c.SMTPSecure,
		SMTPUser:     c.SMTPUser,
		SMTPPassword: c.SMTPPassword,
		TLSInsecure:  c.TLSInsecure,
		Timeout:      c.Timeout,
	}
}

// Endpoint is a fully resolved SMTP server and credential pair.
type Endpoint struct {
	Provider string
	Host     string
	Port     int
	// Secure selects implicit TLS. Otherwise STARTTLS is used when offered.
	Secure      bool
	Username    string
	Password    string
	TLSInsecure bool
	Timeout     time.Duration
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// providerName normalizes the configured name. Unknown names fall back to gmail.
func (s Settings) providerName() (string, bool) {
	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" {
		return ProviderGmail, true
	}
	if name == ProviderSMTP {
		return name, true
	}
	if _, ok := providers[name]; ok {
		return name, true
	}
	return ProviderGmail, false
}

// credentials returns the user/password pair the provider will authenticate with.
// The custom provider prefers SMTP_USER and SMTP_PASS over EMAIL_USER and EMAIL_PASS.
func (s Settings) credentials(provider string) (string, string) {
	user, pass := s.User, s.Password
	if provider == ProviderSMTP {
		if s.SMTPUser != "" {
			user = s.SMTPUser
		}
		if s.SMTPPassword != "" {
			pass = s.SMTPPassword
		}
	}
	return user, pass
}

// Validate checks that credentials, and a host for the custom provider,
// are present. It does not contact the server.
func (s Settings) Validate() error {
	provider, _ := s.providerName()
	user, pass := s.credentials(provider)

	var missing []string
	if user == "" {
		missing = append(missing, "user")
	}
	if pass == "" {
		missing = append(missing, "password")
	}
	if provider == ProviderSMTP && strings.TrimSpace(s.SMTPHost) == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Resolve maps the settings onto a concrete endpoint. An unknown provider
// name resolves to gmail and is logged.
func (s Settings) Resolve(logger *slog.Logger) Endpoint {
	provider, known := s.providerName()
	if !known && logger != nil {
		logger.Warn("unknown email provider, falling back to gmail", slog.String("provider", s.Provider))
	}

	user, pass := s.credentials(provider)
	ep := Endpoint{
		Provider:    provider,
		Username:    user,
		Password:    pass,
		TLSInsecure: s.TLSInsecure,
		Timeout:     s.Timeout,
	}
	if ep.Timeout <= 0 {
		ep.Timeout = DefaultTimeout
	}

	if provider == ProviderSMTP {
		ep.Host = strings.TrimSpace(s.SMTPHost)
		ep.Port = s.SMTPPort
		if ep.Port <= 0 {
			ep.Port = 587
		}
		ep.Secure = s.SMTPSecure
		return ep
	}

	info := providers[provider]
	ep.Host = info.host
	ep.Port = info.port
	ep.Secure = info.secure
	return ep
}
