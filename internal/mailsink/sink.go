package mailsink

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/emersion/go-smtp"
)

// Sink is a running capture server.
type Sink struct {
	server   *smtp.Server
	backend  *Backend
	listener net.Listener
	done     chan struct{}
	serveErr error
}

// Options configures Start.
type Options struct {
	Server  ServerConfig
	Backend BackendConfig
}

// Start listens on opts.Server.Addr (use "127.0.0.1:0" for an ephemeral
// port) and serves in the background until Close or Shutdown. With
// ImplicitTLS set the listener speaks TLS from the first byte; otherwise a
// TLSConfig only enables STARTTLS.
func Start(opts Options) (*Sink, error) {
	if opts.Server.ImplicitTLS && opts.Server.TLSConfig == nil {
		return nil, errors.New("mailsink: implicit TLS needs a TLSConfig")
	}

	backend := NewBackend(&opts.Backend)
	server := NewSecureServer(backend, &opts.Server)

	addr := opts.Server.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mailsink listen %s: %w", addr, err)
	}
	if opts.Server.ImplicitTLS {
		ln = tls.NewListener(ln, opts.Server.TLSConfig)
	}

	s := &Sink{
		server:   server,
		backend:  backend,
		listener: ln,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		err := server.Serve(ln)
		if errors.Is(err, smtp.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			err = nil
		}
		s.serveErr = err
	}()

	if opts.Backend.Logger != nil {
		opts.Backend.Logger.Info("mail sink listening",
			slog.String("addr", ln.Addr().String()),
			slog.Bool("starttls", opts.Server.TLSConfig != nil && !opts.Server.ImplicitTLS),
			slog.Bool("implicit_tls", opts.Server.ImplicitTLS))
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Sink) Addr() string {
	return s.listener.Addr().String()
}

// HostPort splits Addr for transports that take host and port separately.
func (s *Sink) HostPort() (string, int) {
	host, port, _ := net.SplitHostPort(s.Addr())
	p, _ := strconv.Atoi(port)
	return host, p
}

// Store returns the captured messages.
func (s *Sink) Store() *Store {
	return s.backend.Store()
}

// Sessions returns how many connections the sink has accepted.
func (s *Sink) Sessions() int {
	return s.backend.Sessions()
}

// Shutdown stops accepting connections and waits for open sessions.
func (s *Sink) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, smtp.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return s.wait(ctx)
}

// Close stops the server immediately. It is safe to call more than once.
func (s *Sink) Close() error {
	if err := s.server.Close(); err != nil && !errors.Is(err, smtp.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return s.wait(context.Background())
}

// wait closes the listener itself, since Serve may not have registered it
// with the server yet, and blocks until the serve loop has returned.
func (s *Sink) wait(ctx context.Context) error {
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	select {
	case <-s.done:
		return s.serveErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
