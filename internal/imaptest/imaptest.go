// Package imaptest runs an in-memory IMAP server for tests.
//
// The server has a single account (Username/Password) whose INBOX starts empty.
package imaptest

import (
	"bytes"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-imap-mcp/internal/config"
)

const (
	Username = "username"
	Password = "password"
	Trash    = "Trash"
)

type Server struct {
	addr *net.TCPAddr
	srv  *server.Server
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.New(memory.New())
	srv.AllowInsecureAuth = true
	go func() {
		_ = srv.Serve(ln)
	}()

	s := &Server{addr: ln.Addr().(*net.TCPAddr), srv: srv}
	t.Cleanup(func() {
		_ = srv.Close()
	})

	s.clearInbox(t)

	return s
}

// Config returns a plain-text configuration for the test account.
func (s *Server) Config() *config.Config {
	cfg := config.Default()
	cfg.Email = Username
	cfg.AppPassword = Password
	cfg.Host = s.addr.IP.String()
	cfg.Port = s.addr.Port
	cfg.TLS = false
	cfg.TrashMailbox = Trash
	cfg.DialTimeout = 5 * time.Second
	cfg.CommandTimeout = 5 * time.Second

	return cfg
}

// CreateMailbox adds a mailbox to the account.
func (s *Server) CreateMailbox(t *testing.T, name string) {
	t.Helper()

	s.with(t, func(c *client.Client) {
		require.NoError(t, c.Create(name))
	})
}

// Append stores raw messages in mailbox, in order.
func (s *Server) Append(t *testing.T, mailbox string, raw ...string) {
	t.Helper()

	s.with(t, func(c *client.Client) {
		for _, r := range raw {
			require.NoError(t, c.Append(mailbox, nil, time.Now(), bytes.NewBufferString(r)))
		}
	})
}

// Count returns the number of messages in mailbox.
func (s *Server) Count(t *testing.T, mailbox string) uint32 {
	t.Helper()

	var n uint32
	s.with(t, func(c *client.Client) {
		status, err := c.Select(mailbox, true)
		require.NoError(t, err)
		n = status.Messages
	})

	return n
}

// Flags returns the flags of message seq in mailbox.
func (s *Server) Flags(t *testing.T, mailbox string, seq uint32) []string {
	t.Helper()

	var flags []string
	s.with(t, func(c *client.Client) {
		_, err := c.Select(mailbox, true)
		require.NoError(t, err)

		set := new(imap.SeqSet)
		set.AddNum(seq)
		messages := make(chan *imap.Message, 1)
		require.NoError(t, c.Fetch(set, []imap.FetchItem{imap.FetchFlags}, messages))
		for msg := range messages {
			flags = msg.Flags
		}
	})

	return flags
}

// Message builds a minimal RFC 822 message.
func Message(from, subject, body string) string {
	return "From: " + from + "\r\n" +
		"To: " + Username + "@example.org\r\n" +
		"Subject: " + subject + "\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n"
}

func (s *Server) clearInbox(t *testing.T) {
	t.Helper()

	s.with(t, func(c *client.Client) {
		status, err := c.Select("INBOX", false)
		require.NoError(t, err)
		if status.Messages == 0 {
			return
		}

		set := new(imap.SeqSet)
		set.AddRange(1, status.Messages)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		require.NoError(t, c.Store(set, item, []interface{}{imap.DeletedFlag}, nil))
		require.NoError(t, c.Expunge(nil))
	})
}

func (s *Server) with(t *testing.T, fn func(c *client.Client)) {
	t.Helper()

	c, err := client.Dial(net.JoinHostPort(s.addr.IP.String(), strconv.Itoa(s.addr.Port)))
	require.NoError(t, err)
	defer func() {
		_ = c.Logout()
	}()

	require.NoError(t, c.Login(Username, Password))
	fn(c)
}
