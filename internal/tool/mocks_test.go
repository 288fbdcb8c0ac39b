package tool_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-imap-mcp/internal/tool"
)

type mailboxMock struct {
	SelectFunc      func(ctx context.Context, name string) error
	SearchFunc      func(ctx context.Context, query string) ([]uint32, error)
	FetchFunc       func(ctx context.Context, id uint32, part mailbox.Part) ([]byte, error)
	MarkDeletedFunc func(ctx context.Context, id uint32) error
	CopyFunc        func(ctx context.Context, id uint32, dest string) error
	ExpungeFunc     func(ctx context.Context) error

	calls []string
}

func (m *mailboxMock) Select(ctx context.Context, name string) error {
	m.calls = append(m.calls, "SELECT "+name)
	if m.SelectFunc == nil {
		return nil
	}
	return m.SelectFunc(ctx, name)
}

func (m *mailboxMock) Search(ctx context.Context, query string) ([]uint32, error) {
	m.calls = append(m.calls, "SEARCH "+query)
	if m.SearchFunc == nil {
		return nil, nil
	}
	return m.SearchFunc(ctx, query)
}

func (m *mailboxMock) Fetch(ctx context.Context, id uint32, part mailbox.Part) ([]byte, error) {
	kind := "FULL"
	if part == mailbox.PartHeader {
		kind = "HEADER"
	}
	m.calls = append(m.calls, fmt.Sprintf("FETCH %d %s", id, kind))
	if m.FetchFunc == nil {
		return nil, nil
	}
	return m.FetchFunc(ctx, id, part)
}

func (m *mailboxMock) MarkDeleted(ctx context.Context, id uint32) error {
	m.calls = append(m.calls, fmt.Sprintf("STORE %d", id))
	if m.MarkDeletedFunc == nil {
		return nil
	}
	return m.MarkDeletedFunc(ctx, id)
}

func (m *mailboxMock) Copy(ctx context.Context, id uint32, dest string) error {
	m.calls = append(m.calls, fmt.Sprintf("COPY %d %s", id, dest))
	if m.CopyFunc == nil {
		return nil
	}
	return m.CopyFunc(ctx, id, dest)
}

func (m *mailboxMock) Expunge(ctx context.Context) error {
	m.calls = append(m.calls, "EXPUNGE")
	if m.ExpungeFunc == nil {
		return nil
	}
	return m.ExpungeFunc(ctx)
}

// sessionMock hands mb to every Do, or fails with err before running fn.
type sessionMock struct {
	mb  *mailboxMock
	err error
}

func (s *sessionMock) Do(ctx context.Context, fn func(ctx context.Context, mb mailbox.Mailbox) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(ctx, s.mb)
}

func newGateway(mb *mailboxMock) *tool.Gateway {
	return tool.NewGateway(&sessionMock{mb: mb}, "[Gmail]/Trash", zerolog.Nop())
}

func rawHeader(from, subject string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"Subject: " + subject,
		"Date: Tue, 10 Jun 2025 09:30:00 +0200",
		"",
		"",
	}, "\r\n"))
}

// headersByID serves a header for every id, named after the id.
func headersByID(_ context.Context, id uint32, _ mailbox.Part) ([]byte, error) {
	return rawHeader(fmt.Sprintf("sender%d@example.com", id), fmt.Sprintf("message %d", id)), nil
}

func seq(from, to uint32) []uint32 {
	ids := make([]uint32, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}
