package contact

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSite() Site {
	return Site{Name: "DevSomeware", URL: "https://example.com", SupportEmail: "hello@example.com"}
}

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func testSubmission() *Submission {
	return &Submission{
		Name:        "Jane & Co",
		Email:       "jane@example.org",
		ProjectType: "Web Application",
		Message:     "Line one\nLine two with \"quotes\"",
		Caller:      "203.0.113.7",
		Reference:   "ref-123",
		ReceivedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTemplates_FormatTimestampUsesDisplayZone(t *testing.T) {
	tpl, err := NewTemplates(testSite(), kolkata(t))
	require.NoError(t, err)

	assert.Equal(t, "March 1, 2025 at 05:30 PM", tpl.FormatTimestamp(testSubmission().ReceivedAt))
}

func TestTemplates_NilLocationIsUTC(t *testing.T) {
	tpl, err := NewTemplates(testSite(), nil)
	require.NoError(t, err)

	assert.Equal(t, "March 1, 2025 at 12:00 PM", tpl.FormatTimestamp(testSubmission().ReceivedAt))
}

func TestTemplates_Team(t *testing.T) {
	tpl, err := NewTemplates(testSite(), kolkata(t))
	require.NoError(t, err)

	out, err := tpl.Team(testSubmission())

	require.NoError(t, err)
	assert.Contains(t, out.HTML, "Jane &amp; Co")
	assert.Contains(t, out.HTML, "mailto:jane@example.org")
	assert.Contains(t, out.HTML, "March 1, 2025 at 05:30 PM")
	assert.Contains(t, out.HTML, "203.0.113.7")
	assert.Contains(t, out.HTML, "ref-123")
	assert.Contains(t, out.HTML, "Not specified")
	assert.NotContains(t, out.HTML, "Company")

	assert.Contains(t, out.Text, "Name:         Jane & Co")
	assert.Contains(t, out.Text, "Line one\nLine two with \"quotes\"")
	assert.Contains(t, out.Text, "Received March 1, 2025 at 05:30 PM from 203.0.113.7")
}

func TestTemplates_AutoReply(t *testing.T) {
	tpl, err := NewTemplates(testSite(), kolkata(t))
	require.NoError(t, err)

	out, err := tpl.AutoReply(testSubmission())

	require.NoError(t, err)
	assert.Contains(t, out.HTML, "Thank you, Jane &amp; Co!")
	assert.Contains(t, out.HTML, "mailto:hello@example.com")
	assert.Contains(t, out.HTML, "https://example.com")
	assert.Contains(t, out.HTML, "2025 DevSomeware")
	assert.NotContains(t, out.HTML, "203.0.113.7")

	assert.Contains(t, out.Text, "Thank you, Jane & Co!")
	assert.Contains(t, out.Text, "contact us directly at hello@example.com")
}
