// Package mailbox owns the IMAP connection used by the email tools.
package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/emersion/go-imap/client"
	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/config"
	"github.com/hal9000y/gmail-imap-mcp/internal/logging"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
)

// Session is a lazily dialled, authenticated IMAP connection shared by all tool calls.
//
// Do serializes callers: IMAP commands on one connection must not interleave.
type Session struct {
	cfg *config.Config
	log zerolog.Logger

	mu    sync.Mutex
	conn  *conn
	dials int
}

// NewSession creates a Session. Nothing is dialled until the first Do.
func NewSession(cfg *config.Config, log zerolog.Logger) *Session {
	return &Session{
		cfg: cfg,
		log: log.With().Str("component", "mailbox").Logger(),
	}
}

// Do connects if needed and runs fn with exclusive use of the mailbox.
//
// A connection that was closed while fn ran is dropped, so the next Do dials again.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context, mb Mailbox) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.acquire(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, c)

	if c.closed() {
		s.log.Warn().Err(err).Msg("IMAP connection lost, next call reconnects")
		s.conn = nil
	}

	return err
}

// Dials returns how many connections the session has opened.
func (s *Session) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dials
}

// Close logs out of the live connection, if any.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.conn
	s.conn = nil
	if c == nil || c.closed() {
		return nil
	}

	if err := c.call(context.Background(), func(cl *client.Client) error { return cl.Logout() }); err != nil {
		return fmt.Errorf("client.Logout failed: %w", err)
	}
	s.log.Info().Msg("IMAP session closed")

	return nil
}

func (s *Session) acquire(ctx context.Context) (*conn, error) {
	if s.conn != nil && !s.conn.closed() {
		return s.conn, nil
	}
	s.conn = nil

	if err := s.cfg.CheckCredentials(); err != nil {
		return nil, mailerr.Configuration("", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, mailerr.Connection("connect", err)
	}

	addr := s.cfg.Addr()
	cl, err := dial(s.cfg)
	if err != nil {
		return nil, mailerr.Connection("connect to "+addr, err)
	}
	s.dials++

	c := &conn{c: cl, timeout: s.cfg.CommandTimeout}
	if err := c.call(ctx, func(cl *client.Client) error { return cl.Login(s.cfg.Email, s.cfg.AppPassword) }); err != nil {
		if !c.closed() {
			_ = cl.Terminate()
		}
		return nil, mailerr.Connection("login", err)
	}

	s.log.Info().
		Str("addr", addr).
		Str("account", logging.MaskEmail(s.cfg.Email)).
		Msg("IMAP session established")
	s.conn = c

	return c, nil
}

func dial(cfg *config.Config) (*client.Client, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	if cfg.TLS {
		c, err := client.DialWithDialerTLS(dialer, cfg.Addr(), &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return nil, fmt.Errorf("client.DialWithDialerTLS failed: %w", err)
		}
		return c, nil
	}

	c, err := client.DialWithDialer(dialer, cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("client.DialWithDialer failed: %w", err)
	}

	return c, nil
}
