package tool

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailbox"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
)

const defaultMaxResults = 20

func NewSearchEmails(sess session, log zerolog.Logger) *SearchEmails {
	return &SearchEmails{
		sess: sess,
		log:  log,
	}
}

type SearchEmails struct {
	sess session
	log  zerolog.Logger
}

// SearchEmails passes the query to the server untouched, so it uses IMAP SEARCH syntax,
// e.g. `FROM "sender@example.com"` or `UNSEEN`.
func (t *SearchEmails) SearchEmails(ctx context.Context, args map[string]any) (Result, error) {
	query, err := requiredString(args, "query")
	if err != nil {
		return Result{}, err
	}
	maxResults, err := positiveInt(args, "max_results", defaultMaxResults)
	if err != nil {
		return Result{}, err
	}

	emails := []EmailSummary{}
	searchFailed := false

	err = t.sess.Do(ctx, func(ctx context.Context, mb mailbox.Mailbox) error {
		if err := mb.Select(ctx, inbox); err != nil {
			return err
		}

		ids, err := mb.Search(ctx, query)
		if mailerr.Is(err, mailerr.KindCommand) {
			t.log.Warn().Err(err).Str("query", query).Msg("search failed")
			searchFailed = true
			return nil
		}
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		emails, err = summarize(ctx, mb, newestFirst(ids, maxResults), t.log)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if searchFailed {
		return failure("Search failed for query: " + query), nil
	}

	return render(SearchEmailsResponse{Emails: emails, Count: len(emails), Query: query})
}
