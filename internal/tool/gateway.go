package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
)

const inbox = "INBOX"

// session runs fn with exclusive use of a connected mailbox. *mailbox.Session implements it.
type session interface {
	Do(ctx context.Context, fn func(ctx context.Context, mb mailbox.Mailbox) error) error
}

// Result is the text returned to the caller for one tool call.
type Result struct {
	Text    string
	IsError bool
}

type handlerFunc func(ctx context.Context, args map[string]any) (Result, error)

// Gateway routes tool calls to their handlers and renders every failure as text.
type Gateway struct {
	log      zerolog.Logger
	handlers map[string]handlerFunc
}

// NewGateway wires the four email tools to sess. Deleted messages are copied to trash.
func NewGateway(sess session, trash string, log zerolog.Logger) *Gateway {
	log = log.With().Str("component", "tool").Logger()

	return &Gateway{
		log: log,
		handlers: map[string]handlerFunc{
			ListEmailsTool:   NewListEmails(sess, log).ListEmails,
			ReadEmailTool:    NewReadEmail(sess, log).ReadEmail,
			DeleteEmailTool:  NewDeleteEmail(sess, trash, log).DeleteEmail,
			SearchEmailsTool: NewSearchEmails(sess, log).SearchEmails,
		},
	}
}

// Dispatch runs the named tool. It never panics and never returns an empty Result.
func (g *Gateway) Dispatch(ctx context.Context, name string, args map[string]any) Result {
	h, ok := g.handlers[name]
	if !ok {
		g.log.Warn().Str("tool", name).Msg("unknown tool")
		return Result{Text: "Unknown tool: " + name}
	}

	start := time.Now()
	res, err := call(ctx, h, args)

	var ev *zerolog.Event
	switch {
	case err != nil:
		res = Result{Text: "Error: " + err.Error(), IsError: true}
		ev = g.log.Error().Err(err).Stringer("kind", mailerr.KindOf(err))
	case res.IsError:
		ev = g.log.Warn().Str("result", res.Text)
	default:
		ev = g.log.Info()
	}
	ev.Str("tool", name).Dur("duration", time.Since(start)).Msg("tool call")

	return res
}

func call(ctx context.Context, h handlerFunc, args map[string]any) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return h(ctx, args)
}

// failure is a handler's own failure sentence, reported without the "Error: " prefix.
func failure(text string) Result {
	return Result{Text: text, IsError: true}
}

func render(v any) (Result, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return Result{}, fmt.Errorf("json.Encode failed: %w", err)
	}

	return Result{Text: strings.TrimSuffix(buf.String(), "\n")}, nil
}
