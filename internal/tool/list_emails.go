package tool

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailmsg"
)

const defaultNumEmails = 10

func NewListEmails(sess session, log zerolog.Logger) *ListEmails {
	return &ListEmails{
		sess: sess,
		log:  log,
	}
}

type ListEmails struct {
	sess session
	log  zerolog.Logger
}

func (t *ListEmails) ListEmails(ctx context.Context, args map[string]any) (Result, error) {
	n, err := positiveInt(args, "num_emails", defaultNumEmails)
	if err != nil {
		return Result{}, err
	}

	var emails []EmailSummary
	searchFailed := false

	err = t.sess.Do(ctx, func(ctx context.Context, mb mailbox.Mailbox) error {
		if err := mb.Select(ctx, inbox); err != nil {
			return err
		}

		ids, err := mb.Search(ctx, "ALL")
		if mailerr.Is(err, mailerr.KindCommand) {
			t.log.Warn().Err(err).Msg("search failed")
			searchFailed = true
			return nil
		}
		if err != nil {
			return err
		}

		emails, err = summarize(ctx, mb, newestFirst(ids, n), t.log)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if searchFailed {
		return failure("Failed to fetch emails"), nil
	}

	return render(ListEmailsResponse{Emails: emails, Count: len(emails)})
}

// newestFirst returns the last n ids in reverse. It relies on SEARCH returning ids in ascending
// arrival order, which servers do in practice but IMAP does not promise.
func newestFirst(ids []uint32, n int) []uint32 {
	if len(ids) > n {
		ids = ids[len(ids)-n:]
	}

	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}

	return out
}

// summarize fetches the headers of ids in order. A message the server refuses to return is
// skipped; any other failure aborts the listing.
func summarize(ctx context.Context, mb mailbox.Mailbox, ids []uint32, log zerolog.Logger) ([]EmailSummary, error) {
	emails := make([]EmailSummary, 0, len(ids))

	for _, id := range ids {
		raw, err := mb.Fetch(ctx, id, mailbox.PartHeader)
		if mailerr.Is(err, mailerr.KindCommand) {
			log.Warn().Err(err).Uint32("id", id).Msg("skipping message")
			continue
		}
		if err != nil {
			return nil, err
		}

		h, err := mailmsg.DecodeHeader(raw)
		if err != nil {
			return nil, err
		}

		emails = append(emails, EmailSummary{
			ID:      strconv.FormatUint(uint64(id), 10),
			From:    h.From,
			Subject: h.Subject,
			Date:    h.Date,
		})
	}

	return emails, nil
}
