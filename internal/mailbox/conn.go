package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/responses"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
)

// ErrMessageNotFound means a FETCH completed without returning the requested message.
var ErrMessageNotFound = errors.New("message not found")

// Part selects how much of a message Fetch returns.
type Part int

const (
	// PartFull is the whole message (BODY[]); the server marks it \Seen.
	PartFull Part = iota
	// PartHeader is the header block only (BODY.PEEK[HEADER]); flags are untouched.
	PartHeader
)

func (p Part) section() *imap.BodySectionName {
	if p == PartHeader {
		return &imap.BodySectionName{
			BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
			Peek:         true,
		}
	}

	return &imap.BodySectionName{}
}

// Mailbox is the set of IMAP commands the tools issue. Ids are message sequence numbers in the
// selected mailbox.
type Mailbox interface {
	Select(ctx context.Context, name string) error
	// Search sends query verbatim as the SEARCH criteria and returns the matching ids in
	// server order.
	Search(ctx context.Context, query string) ([]uint32, error)
	Fetch(ctx context.Context, id uint32, part Part) ([]byte, error)
	MarkDeleted(ctx context.Context, id uint32) error
	Copy(ctx context.Context, id uint32, dest string) error
	Expunge(ctx context.Context) error
}

// conn implements Mailbox on a go-imap client. Every command runs under the command timeout;
// a timed out command terminates the connection.
type conn struct {
	c       *client.Client
	timeout time.Duration
	broken  bool
}

var _ Mailbox = (*conn)(nil)

func (m *conn) Select(ctx context.Context, name string) error {
	return m.run(ctx, "SELECT "+name, func(c *client.Client) error {
		_, err := c.Select(name, false)
		return err
	})
}

func (m *conn) Search(ctx context.Context, query string) ([]uint32, error) {
	res := &responses.Search{}
	cmd := &imap.Command{
		Name:      "SEARCH",
		Arguments: []interface{}{imap.RawString(query)},
	}

	err := m.run(ctx, "SEARCH "+query, func(c *client.Client) error {
		status, err := c.Execute(cmd, res)
		if err != nil {
			return err
		}
		return status.Err()
	})
	if err != nil {
		return nil, err
	}

	return res.Ids, nil
}

func (m *conn) Fetch(ctx context.Context, id uint32, part Part) ([]byte, error) {
	op := "FETCH " + strconv.FormatUint(uint64(id), 10)
	section := part.section()

	var raw []byte
	err := m.run(ctx, op, func(c *client.Client) error {
		messages := make(chan *imap.Message, 1)
		done := make(chan error, 1)
		go func() {
			done <- c.Fetch(seqSet(id), []imap.FetchItem{section.FetchItem()}, messages)
		}()

		var readErr error
		for msg := range messages {
			if raw != nil || msg.SeqNum != id {
				continue
			}
			body := msg.GetBody(section)
			if body == nil {
				continue
			}
			b, err := io.ReadAll(body)
			if err != nil {
				readErr = fmt.Errorf("io.ReadAll failed: %w", err)
				continue
			}
			raw = b
		}

		if err := <-done; err != nil {
			return err
		}
		return readErr
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, mailerr.Command(op, ErrMessageNotFound)
	}

	return raw, nil
}

func (m *conn) MarkDeleted(ctx context.Context, id uint32) error {
	op := "STORE " + strconv.FormatUint(uint64(id), 10) + ` +FLAGS (\Deleted)`

	return m.run(ctx, op, func(c *client.Client) error {
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		return c.Store(seqSet(id), item, []interface{}{imap.DeletedFlag}, nil)
	})
}

func (m *conn) Copy(ctx context.Context, id uint32, dest string) error {
	op := "COPY " + strconv.FormatUint(uint64(id), 10) + " " + dest

	return m.run(ctx, op, func(c *client.Client) error {
		return c.Copy(seqSet(id), dest)
	})
}

func (m *conn) Expunge(ctx context.Context) error {
	return m.run(ctx, "EXPUNGE", func(c *client.Client) error {
		return c.Expunge(nil)
	})
}

// run executes fn and tags its error: a dead connection is a connection error, anything else
// the server refused is a command error.
func (m *conn) run(ctx context.Context, op string, fn func(*client.Client) error) error {
	err := m.call(ctx, fn)
	switch {
	case err == nil:
		return nil
	case mailerr.Is(err, mailerr.KindConnection), m.closed(), isNetError(err):
		return mailerr.Connection(op, err)
	default:
		return mailerr.Command(op, err)
	}
}

// call races fn against the context and the command timeout.
func (m *conn) call(ctx context.Context, fn func(*client.Client) error) error {
	if err := ctx.Err(); err != nil {
		return mailerr.Connection("", err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(m.c)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		m.broken = true
		_ = m.c.Terminate()
		<-done
		return mailerr.Connection("", ctx.Err())
	}
}

func (m *conn) closed() bool {
	if m.broken {
		return true
	}

	select {
	case <-m.c.LoggedOut():
		return true
	default:
		return false
	}
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

func seqSet(id uint32) *imap.SeqSet {
	s := new(imap.SeqSet)
	s.AddNum(id)
	return s
}
