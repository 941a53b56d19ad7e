package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Transport delivers messages through one mail provider.
type Transport interface {
	// Verify connects, negotiates TLS, authenticates and disconnects.
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg *Message) error
}

// Classification sentinels. Transport errors wrap one of these when the
// failing step is known.
var (
	ErrAuth    = errors.New("smtp authentication failed")
	ErrNetwork = errors.New("smtp network failure")

	// ErrNoStartTLS means a non-secure endpoint did not offer STARTTLS.
	ErrNoStartTLS = errors.New("smtp server does not offer STARTTLS")
)

// SMTPTransport opens a new connection for every Verify and Send.
type SMTPTransport struct {
	endpoint  Endpoint
	localName string
	dialer    *net.Dialer
}

// NewSMTPTransport creates a transport for a resolved endpoint.
func NewSMTPTransport(ep Endpoint) *SMTPTransport {
	if ep.Timeout <= 0 {
		ep.Timeout = DefaultTimeout
	}
	return &SMTPTransport{
		endpoint:  ep,
		localName: "localhost",
		dialer:    &net.Dialer{Timeout: ep.Timeout},
	}
}

// Endpoint returns the resolved endpoint.
func (t *SMTPTransport) Endpoint() Endpoint {
	return t.endpoint
}

// Verify opens and authenticates a connection, then quits without sending.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	c, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

// Send delivers msg over a connection of its own.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	raw, err := msg.Encode()
	if err != nil {
		return err
	}

	c, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mail(msg.From.Email, nil); err != nil {
		return classify("smtp mail from", err)
	}
	if err := c.Rcpt(msg.To.Email, nil); err != nil {
		return classify("smtp rcpt to", err)
	}

	w, err := c.Data()
	if err != nil {
		return classify("smtp data", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return classify("smtp write body", err)
	}
	if err := w.Close(); err != nil {
		return classify("smtp end data", err)
	}

	if err := c.Quit(); err != nil {
		return classify("smtp quit", err)
	}
	return nil
}

// client is an SMTP client whose connection is closed when the operation's
// deadline passes or its context is cancelled.
type client struct {
	*smtp.Client
	release func() bool
	cancel  context.CancelFunc
}

func (c *client) Close() error {
	c.release()
	c.cancel()
	return c.Client.Close()
}

// open dials, secures the connection and authenticates. Secure endpoints
// speak TLS from the first byte; the others must offer STARTTLS, and a
// server that does not is refused before any credentials are sent.
//
// go-smtp resets the socket deadline around every command, so the overall
// deadline (the earlier of ctx's and the endpoint timeout) is enforced by
// closing the connection.
func (t *SMTPTransport) open(ctx context.Context) (*client, error) {
	ep := t.endpoint

	opCtx, cancel := context.WithTimeout(ctx, ep.Timeout)
	conn, err := t.dialer.DialContext(opCtx, "tcp", ep.Addr())
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: dial %s: %w", ErrNetwork, ep.Provider, err)
	}
	release := context.AfterFunc(opCtx, func() { conn.Close() })

	fail := func(err error) (*client, error) {
		release()
		cancel()
		conn.Close()
		return nil, err
	}

	tlsConfig := &tls.Config{
		ServerName:         ep.Host,
		InsecureSkipVerify: ep.TLSInsecure,
		MinVersion:         tls.VersionTLS12,
	}

	var c *smtp.Client
	if ep.Secure {
		c = smtp.NewClient(tls.Client(conn, tlsConfig))
	} else {
		c, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			if !isProtocolError(err) {
				return fail(fmt.Errorf("%w: %s: %w", ErrNoStartTLS, ep.Provider, err))
			}
			return fail(classify("smtp starttls", err))
		}
	}

	if err := c.Hello(t.localName); err != nil {
		return fail(classify("smtp hello", err))
	}

	if ep.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", ep.Username, ep.Password)); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrAuth, err))
		}
	}

	return &client{Client: c, release: release, cancel: cancel}, nil
}

// isProtocolError reports whether err is an SMTP reply or a network failure,
// as opposed to a local refusal by the client.
func isProtocolError(err error) bool {
	var smtpErr *smtp.SMTPError
	return errors.As(err, &smtpErr) || isConnError(err)
}

// isConnError reports whether err came from the connection itself. A peer
// hanging up mid-reply surfaces as EOF rather than a net.Error.
func isConnError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// classify wraps err with ErrNetwork when it came from the connection
// rather than from an SMTP reply.
func classify(step string, err error) error {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		if smtpErr.Code == 530 || smtpErr.Code == 534 || smtpErr.Code == 535 {
			return fmt.Errorf("%w: %s: %w", ErrAuth, step, err)
		}
		return fmt.Errorf("%s: %w", step, err)
	}
	if isConnError(err) {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, step, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}

// IsAuthError reports whether err is an authentication rejection.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuth) {
		return true
	}
	var smtpErr *smtp.SMTPError
	return errors.As(err, &smtpErr) && smtpErr.Code == 535
}

// IsNetworkError reports whether err came from the network rather than the server.
func IsNetworkError(err error) bool {
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
