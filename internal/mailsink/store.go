package mailsink

import (
	"strings"
	"sync"
	"time"
)

// Message is one captured delivery.
type Message struct {
	ID          string
	From        string
	Recipients  []string
	ReceivedAt  time.Time
	Parsed      *ParsedEmail
	Raw         []byte
	ArchivePath string
}

// Store keeps captured messages in arrival order.
type Store struct {
	mu       sync.Mutex
	messages []Message
	notify   chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{notify: make(chan struct{})}
}

// Add appends a message and wakes any waiters.
func (s *Store) Add(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	close(s.notify)
	s.notify = make(chan struct{})
}

// Messages returns a copy of everything captured so far.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Len returns the number of captured messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// To returns messages delivered to the given recipient.
func (s *Store) To(address string) []Message {
	address = strings.ToLower(address)
	var out []Message
	for _, m := range s.Messages() {
		for _, r := range m.Recipients {
			if r == address {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// WaitFor blocks until at least n messages are stored or the timeout
// passes. It returns whether n was reached.
func (s *Store) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		s.mu.Lock()
		if len(s.messages) >= n {
			s.mu.Unlock()
			return true
		}
		ch := s.notify
		s.mu.Unlock()

		select {
		case <-ch:
		case <-deadline.C:
			return false
		}
	}
}

// Reset drops every captured message.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
