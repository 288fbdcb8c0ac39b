package tool

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailmsg"
)

func NewReadEmail(sess session, log zerolog.Logger) *ReadEmail {
	return &ReadEmail{
		sess: sess,
		log:  log,
	}
}

type ReadEmail struct {
	sess session
	log  zerolog.Logger
}

func (t *ReadEmail) ReadEmail(ctx context.Context, args map[string]any) (Result, error) {
	idText, id, err := emailID(args)
	if err != nil {
		return Result{}, err
	}

	var raw []byte
	fetchFailed := false

	err = t.sess.Do(ctx, func(ctx context.Context, mb mailbox.Mailbox) error {
		if err := mb.Select(ctx, inbox); err != nil {
			return err
		}

		b, err := mb.Fetch(ctx, id, mailbox.PartFull)
		if mailerr.Is(err, mailerr.KindCommand) {
			t.log.Warn().Err(err).Str("id", idText).Msg("fetch failed")
			fetchFailed = true
			return nil
		}
		raw = b
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if fetchFailed {
		return failure("Failed to fetch email " + idText), nil
	}

	msg, err := mailmsg.Decode(raw)
	if err != nil {
		return Result{}, err
	}

	return render(EmailDetail{
		ID:      idText,
		From:    msg.From,
		Subject: msg.Subject,
		Date:    msg.Date,
		Body:    msg.Body,
	})
}
