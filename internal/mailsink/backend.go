// Package mailsink is a capturing SMTP server. It accepts every message
// addressed to it, parses it, and keeps it in memory and optionally on disk.
// It backs the development mail setup and the end-to-end mail tests.
package mailsink

import (
	"crypto/tls"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/welldanyogia/webrana-contact/internal/storage"
)

// Security limits
const (
	DefaultMaxMessageSize = 25 * 1024 * 1024 // 25 MB
	DefaultMaxRecipients  = 100
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// Backend implements the go-smtp Backend interface
type Backend struct {
	store    *Store
	archive  storage.FileStorage
	username string
	password string
	// rejectRcpt lists lowercased recipient addresses answered with 550
	rejectRcpt map[string]bool
	logger     *slog.Logger

	mu    sync.Mutex
	conns map[*smtp.Conn]struct{}
}

// BackendConfig holds configuration for the SMTP backend
type BackendConfig struct {
	Store *Store
	// Archive, when set, receives a copy of every raw message
	Archive storage.FileStorage
	// Username and Password, when set, make AUTH PLAIN mandatory
	Username         string
	Password         string
	RejectRecipients []string
	Logger           *slog.Logger
}

// NewBackend creates a new SMTP backend
func NewBackend(cfg *BackendConfig) *Backend {
	store := cfg.Store
	if store == nil {
		store = NewStore()
	}
	reject := make(map[string]bool, len(cfg.RejectRecipients))
	for _, addr := range cfg.RejectRecipients {
		reject[strings.ToLower(strings.TrimSpace(addr))] = true
	}
	return &Backend{
		store:      store,
		archive:    cfg.Archive,
		username:   cfg.Username,
		password:   cfg.Password,
		rejectRcpt: reject,
		logger:     cfg.Logger,
		conns:      make(map[*smtp.Conn]struct{}),
	}
}

// Store returns the in-memory message store
func (b *Backend) Store() *Store {
	return b.store
}

// Sessions returns how many SMTP connections have been opened. A
// connection that upgrades with STARTTLS and greets again counts once.
func (b *Backend) Sessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

func (b *Backend) authRequired() bool {
	return b.username != "" || b.password != ""
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug("new SMTP connection", slog.String("remote_addr", c.Conn().RemoteAddr().String()))
	}
	return NewSession(b), nil
}

// ServerConfig holds security configuration for the SMTP server
type ServerConfig struct {
	Addr           string
	Domain         string
	MaxMessageSize int64
	MaxRecipients  int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// AllowInsecure permits AUTH without TLS
	AllowInsecure bool
	// TLSConfig enables STARTTLS, or TLS on connect with ImplicitTLS
	TLSConfig   *tls.Config
	ImplicitTLS bool
}

// NewSecureServer creates a new SMTP server with security settings
func NewSecureServer(backend *Backend, cfg *ServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.Addr
	s.Domain = cfg.Domain
	if s.Domain == "" {
		s.Domain = "localhost"
	}

	s.MaxMessageBytes = DefaultMaxMessageSize
	if cfg.MaxMessageSize > 0 {
		s.MaxMessageBytes = cfg.MaxMessageSize
	}

	s.MaxRecipients = DefaultMaxRecipients
	if cfg.MaxRecipients > 0 {
		s.MaxRecipients = cfg.MaxRecipients
	}

	s.ReadTimeout = DefaultReadTimeout
	if cfg.ReadTimeout > 0 {
		s.ReadTimeout = cfg.ReadTimeout
	}

	s.WriteTimeout = DefaultWriteTimeout
	if cfg.WriteTimeout > 0 {
		s.WriteTimeout = cfg.WriteTimeout
	}

	s.AllowInsecureAuth = cfg.AllowInsecure
	if cfg.TLSConfig != nil {
		s.TLSConfig = cfg.TLSConfig
	}

	s.MaxLineLength = DefaultMaxLineLength

	return s
}
