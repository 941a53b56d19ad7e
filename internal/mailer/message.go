package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"
)

// Priority of an outbound message.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Address is a display name and mailbox.
type Address struct {
	Name  string
	Email string
}

// Message is an outbound mail with an HTML body and a plain text alternative.
type Message struct {
	From     Address
	To       Address
	ReplyTo  *Address
	Subject  string
	HTML     string
	Text     string
	Priority Priority
	// EntityRef is set as X-Entity-Ref-ID so clients do not thread
	// unrelated submissions together. Generated when empty.
	EntityRef string
	Date      time.Time
}

// ErrInvalidMessage is returned when a message lacks a sender or recipient.
var ErrInvalidMessage = errors.New("invalid message")

// Encode renders the message as RFC 5322 bytes.
func (m *Message) Encode() ([]byte, error) {
	if m.From.Email == "" || m.To.Email == "" {
		return nil, fmt.Errorf("%w: sender and recipient are required", ErrInvalidMessage)
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	ref := m.EntityRef
	if ref == "" {
		ref = uuid.NewString()
	}

	b := enmime.Builder().
		From(m.From.Name, m.From.Email).
		To(m.To.Name, m.To.Email).
		Subject(m.Subject).
		Date(date).
		Header("X-Entity-Ref-ID", ref)

	if m.ReplyTo != nil && m.ReplyTo.Email != "" {
		b = b.ReplyTo(m.ReplyTo.Name, m.ReplyTo.Email)
	}
	if m.Priority == PriorityHigh {
		b = b.Header("X-Priority", "1 (Highest)").
			Header("X-MSMail-Priority", "High").
			Header("Importance", "High")
	}
	if m.Text != "" {
		b = b.Text([]byte(m.Text))
	}
	if m.HTML != "" {
		b = b.HTML([]byte(m.HTML))
	}

	part, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return buf.Bytes(), nil
}
