package contact

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TimestampLayout renders the received time, e.g. "March 1, 2025 at 05:30 PM".
const TimestampLayout = "January 2, 2006 at 03:04 PM"

// Rendered is one email body in both formats.
type Rendered struct {
	HTML string
	Text string
}

// Site holds the branding shown in rendered mail.
type Site struct {
	Name         string
	URL          string
	SupportEmail string
}

type emailData struct {
	Submission *Submission
	SiteName   string
	SiteURL    string
	// SupportEmail is shown in the auto-reply footer
	SupportEmail string
	ReceivedAt   string
	Year         int
}

// Templates renders the team notification and the auto-reply.
type Templates struct {
	html     *htmltemplate.Template
	text     *texttemplate.Template
	site     Site
	location *time.Location
}

// NewTemplates parses the embedded templates. A nil location means UTC.
func NewTemplates(site Site, location *time.Location) (*Templates, error) {
	if location == nil {
		location = time.UTC
	}

	h, err := htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	t, err := texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}

	return &Templates{html: h, text: t, site: site, location: location}, nil
}

// Team renders the notification sent to the operator inbox.
func (t *Templates) Team(sub *Submission) (Rendered, error) {
	return t.render("team", sub)
}

// AutoReply renders the confirmation sent to the submitter.
func (t *Templates) AutoReply(sub *Submission) (Rendered, error) {
	return t.render("autoreply", sub)
}

// FormatTimestamp renders ts in the display timezone.
func (t *Templates) FormatTimestamp(ts time.Time) string {
	return ts.In(t.location).Format(TimestampLayout)
}

func (t *Templates) render(name string, sub *Submission) (Rendered, error) {
	data := emailData{
		Submission:   sub,
		SiteName:     t.site.Name,
		SiteURL:      t.site.URL,
		SupportEmail: t.site.SupportEmail,
		ReceivedAt:   t.FormatTimestamp(sub.ReceivedAt),
		Year:         sub.ReceivedAt.In(t.location).Year(),
	}

	var h, txt bytes.Buffer
	if err := t.html.ExecuteTemplate(&h, name+".html.tmpl", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := t.text.ExecuteTemplate(&txt, name+".txt.tmpl", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", name, err)
	}

	return Rendered{HTML: h.String(), Text: txt.String()}, nil
}
