// Package contact turns a contact form post into a team notification and
// an auto-reply to the submitter.
package contact

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/welldanyogia/webrana-contact/internal/errors"
	"github.com/welldanyogia/webrana-contact/internal/validator"
)

// Message length bounds, in characters, after sanitization.
const (
	MinMessageLength = 10
	MaxMessageLength = 2000

	// MaxFieldLength bounds name, company, projectType, budget and timeline.
	MaxFieldLength = 200
)

// UnknownCaller is used when no address header is present.
const UnknownCaller = "unknown"

// User-facing messages.
const (
	MsgMissingFields    = "Missing required fields: name, email, projectType, and message are required."
	MsgInvalidEmail     = "Invalid email format."
	MsgMessageTooShort  = "Message must be at least 10 characters long."
	MsgMessageTooLong   = "Message must be at most 2000 characters."
	MsgFieldTooLong     = "Name, company, project type, budget and timeline must be at most 200 characters each."
	MsgInvalidBody      = "Invalid request body."
	MsgRateLimited      = "Too many requests. Please try again in 10 minutes."
	MsgNotConfigured    = "Email service is not configured. Please try again later."
	MsgTransportFailure = "Email service configuration error. Please try again later."
	MsgAuthFailure      = "Email authentication failed. Please try again later."
	MsgNetworkFailure   = "Network error. Please check your connection and try again."
	MsgSuccess          = "Thank you for your inquiry! We'll get back to you within 24 hours."
)

// SubmissionRequest is the JSON body posted by the contact form.
type SubmissionRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	ProjectType string `json:"projectType"`
	Budget      string `json:"budget"`
	Timeline    string `json:"timeline"`
	Message     string `json:"message"`
}

// Submission is a validated, sanitized request plus server-side context.
type Submission struct {
	Name        string
	Email       string
	Company     string
	ProjectType string
	Budget      string
	Timeline    string
	Message     string

	Caller     string
	Reference  string
	ReceivedAt time.Time
}

// Receipt is returned to the caller on success.
type Receipt struct {
	Message   string
	Reference string
}

// ResolveCaller picks the caller identifier from the first X-Forwarded-For
// entry, then X-Real-IP, then UnknownCaller.
func ResolveCaller(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(h.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownCaller
}

// Sanitize validates req and returns the cleaned submission. Checks run in
// a fixed order and the first failure wins. stripped lists the fields
// whose content changed when markup was removed.
func Sanitize(req SubmissionRequest) (sub *Submission, stripped []string, err error) {
	if isBlank(req.Name) || isBlank(req.Email) || isBlank(req.ProjectType) || isBlank(req.Message) {
		return nil, nil, apperrors.Validation(MsgMissingFields)
	}

	if validator.ValidateEmail(req.Email) != nil {
		return nil, nil, apperrors.Validation(MsgInvalidEmail)
	}

	clean := func(field, value string, singleLine bool) string {
		if singleLine {
			value = validator.SingleLine(value)
		}
		value = validator.SanitizeString(value, 0)
		out := validator.StripMarkup(value)
		if out != strings.TrimSpace(value) {
			stripped = append(stripped, field)
		}
		return out
	}

	sub = &Submission{
		Name:        clean("name", req.Name, true),
		Email:       clean("email", req.Email, true),
		Company:     clean("company", req.Company, true),
		ProjectType: clean("projectType", req.ProjectType, true),
		Budget:      clean("budget", req.Budget, true),
		Timeline:    clean("timeline", req.Timeline, true),
		Message:     clean("message", req.Message, false),
	}

	// A field made only of markup is empty after stripping.
	if sub.Name == "" || sub.ProjectType == "" {
		return nil, stripped, apperrors.Validation(MsgMissingFields)
	}

	// Stripping can change the address, so it is checked again.
	if validator.ValidateEmail(sub.Email) != nil {
		return nil, stripped, apperrors.Validation(MsgInvalidEmail)
	}

	for _, v := range []string{sub.Name, sub.Company, sub.ProjectType, sub.Budget, sub.Timeline} {
		if validator.ValidateLength(v, 0, MaxFieldLength) != nil {
			return nil, stripped, apperrors.Validation(MsgFieldTooLong)
		}
	}

	switch validator.ValidateLength(sub.Message, MinMessageLength, MaxMessageLength) {
	case validator.ErrInputTooShort:
		return nil, stripped, apperrors.Validation(MsgMessageTooShort)
	case validator.ErrInputTooLong:
		return nil, stripped, apperrors.Validation(MsgMessageTooLong)
	}

	return sub, stripped, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
