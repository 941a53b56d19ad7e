// Package notify posts submission summaries to a team chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/welldanyogia/webrana-contact/internal/errors"
	"github.com/welldanyogia/webrana-contact/internal/validator"
)

// MessagePreviewLength caps the message excerpt posted to chat.
const MessagePreviewLength = 200

const attachmentColor = "#8b5cf6"

// Summary is the part of a submission shared with the team channel.
type Summary struct {
	Name        string
	Email       string
	ProjectType string
	Budget      string
	Message     string
	Reference   string
}

// Notifier delivers a submission summary.
type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer,omitempty"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackNotifier returns nil when webhookURL is empty, so callers can
// treat an unset webhook as "no notifier".
func NewSlackNotifier(webhookURL string, timeout time.Duration) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify posts the summary. Any non-2xx response is an error wrapping ErrWebhook.
func (n *SlackNotifier) Notify(ctx context.Context, s Summary) error {
	body, err := json.Marshal(buildPayload(s))
	if err != nil {
		return fmt.Errorf("%w: failed to encode payload: %w", apperrors.ErrWebhook, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", apperrors.ErrWebhook, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %w", apperrors.ErrWebhook, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: webhook returned status %d: %s", apperrors.ErrWebhook, resp.StatusCode, string(snippet))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func buildPayload(s Summary) slackPayload {
	budget := s.Budget
	if budget == "" {
		budget = "Not specified"
	}

	att := slackAttachment{
		Color: attachmentColor,
		Fields: []slackField{
			{Title: "Name", Value: s.Name, Short: true},
			{Title: "Email", Value: s.Email, Short: true},
			{Title: "Project Type", Value: s.ProjectType, Short: true},
			{Title: "Budget", Value: budget, Short: true},
			{Title: "Message", Value: validator.Truncate(s.Message, MessagePreviewLength, "..."), Short: false},
		},
	}
	if s.Reference != "" {
		att.Footer = "Ref " + s.Reference
	}

	return slackPayload{
		Text:        fmt.Sprintf("New project inquiry from %s (%s) for %s", s.Name, s.Email, s.ProjectType),
		Attachments: []slackAttachment{att},
	}
}
