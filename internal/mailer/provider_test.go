package mailer

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-contact/internal/config"
)

func TestResolve_KnownProviders(t *testing.T) {
	tests := []struct {
		provider string
		host     string
	}{
		{"gmail", "smtp.gmail.com"},
		{"GMAIL", "smtp.gmail.com"},
		{"outlook", "smtp-mail.outlook.com"},
		{"yahoo", "smtp.mail.yahoo.com"},
		{"", "smtp.gmail.com"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			ep := Settings{Provider: tt.provider, User: "u", Password: "p"}.Resolve(nil)

			assert.Equal(t, tt.host, ep.Host)
			assert.Equal(t, 587, ep.Port)
			assert.False(t, ep.Secure)
			assert.Equal(t, "u", ep.Username)
			assert.Equal(t, DefaultTimeout, ep.Timeout)
		})
	}
}

func TestResolve_UnknownProviderFallsBackToGmailWithWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ep := Settings{Provider: "sendgrid", User: "u", Password: "p"}.Resolve(logger)

	assert.Equal(t, ProviderGmail, ep.Provider)
	assert.Equal(t, "smtp.gmail.com", ep.Host)
	assert.Contains(t, buf.String(), "falling back to gmail")
	assert.Contains(t, buf.String(), "sendgrid")
}

func TestResolve_CustomSMTP(t *testing.T) {
	s := Settings{
		Provider:     "smtp",
		User:         "email-user",
		Password:     "email-pass",
		SMTPHost:     " mail.example.com ",
		SMTPPort:     465,
		SMTPSecure:   true,
		SMTPUser:     "smtp-user",
		SMTPPassword: "smtp-pass",
		Timeout:      5 * time.Second,
	}

	ep := s.Resolve(nil)

	assert.Equal(t, "mail.example.com", ep.Host)
	assert.Equal(t, 465, ep.Port)
	assert.True(t, ep.Secure)
	assert.Equal(t, "smtp-user", ep.Username)
	assert.Equal(t, "smtp-pass", ep.Password)
	assert.Equal(t, 5*time.Second, ep.Timeout)
	assert.Equal(t, "mail.example.com:465", ep.Addr())
}

func TestResolve_CustomSMTPFallsBackToEmailCredentials(t *testing.T) {
	ep := Settings{Provider: "smtp", User: "u", Password: "p", SMTPHost: "h"}.Resolve(nil)

	assert.Equal(t, "u", ep.Username)
	assert.Equal(t, "p", ep.Password)
	assert.Equal(t, 587, ep.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{"complete gmail", Settings{Provider: "gmail", User: "u", Password: "p"}, false},
		{"missing user", Settings{Provider: "gmail", Password: "p"}, true},
		{"missing password", Settings{Provider: "gmail", User: "u"}, true},
		{"smtp without host", Settings{Provider: "smtp", User: "u", Password: "p"}, true},
		{"smtp with override credentials", Settings{Provider: "smtp", SMTPUser: "u", SMTPPassword: "p", SMTPHost: "h"}, false},
		{"smtp credentials ignored for gmail", Settings{Provider: "gmail", SMTPUser: "u", SMTPPassword: "p"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingCredentials)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ErrorDoesNotLeakSecrets(t *testing.T) {
	err := Settings{Provider: "gmail", Password: "hunter2"}.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(config.MailConfig{
		Provider:    "yahoo",
		User:        "u",
		Password:    "p",
		SMTPPort:    2525,
		TLSInsecure: true,
		Timeout:     time.Second,
	})

	assert.Equal(t, "yahoo", s.Provider)
	assert.Equal(t, "u", s.User)
	assert.Equal(t, 2525, s.SMTPPort)
	assert.True(t, s.TLSInsecure)
	assert.Equal(t, time.Second, s.Timeout)
}
