package mailsink

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail_SimpleText(t *testing.T) {
	emailContent := "From: sender@example.com\r\n" +
		"To: receiver@test.com\r\n" +
		"Subject: Simple Text Email\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hello, this is a simple text email."

	parsed, err := ParseEmail(strings.NewReader(emailContent))

	require.NoError(t, err)
	assert.Equal(t, "sender@example.com", parsed.SenderEmail)
	assert.Equal(t, "receiver@test.com", parsed.To)
	assert.Equal(t, "Simple Text Email", parsed.Subject)
	assert.Contains(t, parsed.BodyText, "Hello, this is a simple text email")
	assert.Empty(t, parsed.BodyHTML)
}

func TestParseEmail_MultipartAlternativeWithHeaders(t *testing.T) {
	emailContent := "From: \"Contact Form\" <form@example.com>\r\n" +
		"To: team@example.com\r\n" +
		"Reply-To: jane@example.org\r\n" +
		"Subject: New inquiry\r\n" +
		"X-Priority: 1 (Highest)\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Plain text version.\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>HTML version.</p>\r\n" +
		"--b1--\r\n"

	parsed, err := ParseEmail(strings.NewReader(emailContent))

	require.NoError(t, err)
	assert.Equal(t, "Contact Form", parsed.SenderName)
	assert.Equal(t, "form@example.com", parsed.SenderEmail)
	assert.Equal(t, "jane@example.org", parsed.ReplyTo)
	assert.Equal(t, "1 (Highest)", parsed.GetHeader("x-priority"))
	assert.Contains(t, parsed.BodyText, "Plain text version.")
	assert.Contains(t, parsed.BodyHTML, "<p>HTML version.</p>")
	assert.Equal(t, "Plain text version.", parsed.Snippet)
}

func TestParseFromHeader(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantEmail string
	}{
		{`"John Doe" <john@example.com>`, "John Doe", "john@example.com"},
		{`John Doe <john@example.com>`, "John Doe", "john@example.com"},
		{`<john@example.com>`, "", "john@example.com"},
		{`john@example.com`, "", "john@example.com"},
		{``, "", ""},
	}

	for _, tt := range tests {
		name, email := parseFromHeader(tt.in)
		assert.Equal(t, tt.wantName, name, tt.in)
		assert.Equal(t, tt.wantEmail, email, tt.in)
	}
}

func TestGenerateSnippet(t *testing.T) {
	assert.Equal(t, "a b c", generateSnippet("  a\n b\t c ", ""))
	assert.Equal(t, "Hello World", generateSnippet("", "<style>p{}</style><h1>Hello</h1><p>World</p>"))

	long := strings.Repeat("é", 300)
	snippet := generateSnippet(long, "")
	assert.Equal(t, 255, len([]rune(snippet)))
	assert.True(t, strings.HasSuffix(snippet, "..."))
}

func TestStripHTMLTags_DecodesEntities(t *testing.T) {
	assert.Equal(t, ` a & b <c> "d" 'e' `, stripHTMLTags(`<p>a &amp; b &lt;c&gt; &quot;d&quot; &#39;e&#39;</p>`))
}
