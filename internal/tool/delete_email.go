package tool

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
)

func NewDeleteEmail(sess session, trash string, log zerolog.Logger) *DeleteEmail {
	return &DeleteEmail{
		sess:  sess,
		trash: trash,
		log:   log,
	}
}

// DeleteEmail flags the message \Deleted, copies it to trash and expunges only when the copy
// succeeded. A failed copy leaves the flag set, which Gmail treats as recoverable. Only the copy
// decides the outcome; a refused flag is logged and the copy still runs.
type DeleteEmail struct {
	sess  session
	trash string
	log   zerolog.Logger
}

func (t *DeleteEmail) DeleteEmail(ctx context.Context, args map[string]any) (Result, error) {
	idText, id, err := emailID(args)
	if err != nil {
		return Result{}, err
	}

	copyFailed := false
	err = t.sess.Do(ctx, func(ctx context.Context, mb mailbox.Mailbox) error {
		if err := mb.Select(ctx, inbox); err != nil {
			return err
		}
		err := mb.MarkDeleted(ctx, id)
		if mailerr.Is(err, mailerr.KindCommand) {
			t.log.Warn().Err(err).Str("id", idText).Msg("flagging deleted failed, copying anyway")
		} else if err != nil {
			return err
		}

		err = mb.Copy(ctx, id, t.trash)
		if mailerr.Is(err, mailerr.KindCommand) {
			t.log.Warn().Err(err).Str("id", idText).Str("trash", t.trash).Msg("copy to trash failed")
			copyFailed = true
			return nil
		}
		if err != nil {
			return err
		}

		return mb.Expunge(ctx)
	})
	if err != nil {
		return Result{}, err
	}
	if copyFailed {
		return failure("Failed to move email to trash"), nil
	}

	return Result{Text: "Email " + idText + " moved to trash"}, nil
}
