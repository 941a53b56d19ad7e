package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/welldanyogia/webrana-contact/internal/errors"
)

func TestNewSlackNotifier_EmptyURLIsNil(t *testing.T) {
	assert.Nil(t, NewSlackNotifier("", time.Second))
}

func TestSlackNotifier_PostsSummary(t *testing.T) {
	var got slackPayload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, time.Second)
	err := n.Notify(context.Background(), Summary{
		Name:        "Jane",
		Email:       "jane@example.org",
		ProjectType: "Web Application",
		Message:     "Short message",
		Reference:   "ref-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "New project inquiry from Jane (jane@example.org) for Web Application", got.Text)
	require.Len(t, got.Attachments, 1)
	fields := got.Attachments[0].Fields
	require.Len(t, fields, 5)
	assert.Equal(t, "Not specified", fields[3].Value)
	assert.Equal(t, "Short message", fields[4].Value)
	assert.False(t, fields[4].Short)
	assert.Equal(t, "Ref ref-1", got.Attachments[0].Footer)
}

func TestBuildPayload_TruncatesLongMessage(t *testing.T) {
	msg := strings.Repeat("ü", 250)

	p := buildPayload(Summary{Message: msg, Budget: "$5k"})

	preview := p.Attachments[0].Fields[4].Value
	assert.Equal(t, strings.Repeat("ü", 200)+"...", preview)
	assert.Equal(t, "$5k", p.Attachments[0].Fields[3].Value)
}

func TestSlackNotifier_Non2xxIsWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL, time.Second).Notify(context.Background(), Summary{})

	assert.ErrorIs(t, err, apperrors.ErrWebhook)
	assert.Contains(t, err.Error(), "403")
}

func TestSlackNotifier_UnreachableIsWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewSlackNotifier(url, time.Second).Notify(context.Background(), Summary{})

	assert.ErrorIs(t, err, apperrors.ErrWebhook)
}
