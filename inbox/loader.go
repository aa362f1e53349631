package inbox

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bassamadnan/mailsort/triage"
)

// Loader collects every message under a label from a Provider.
type Loader struct {
	provider Provider
	label    string
	log      *logrus.Entry
}

func NewLoader(provider Provider, label string, log *logrus.Entry) *Loader {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loader{
		provider: provider,
		label:    label,
		log:      log.WithField("pkg", "inbox"),
	}
}

// Load lists all message ids under the label, then fetches and normalizes
// each message in listing order. progress is called before every fetch with
// the number of messages normalized so far. Failed pages end the listing and
// failed messages are skipped; Load only stops early when ctx is done.
func (l *Loader) Load(ctx context.Context, progress func(count int)) []triage.Email {
	ids := l.listIDs(ctx)
	l.log.WithField("ids", len(ids)).Info("Collected message ids")

	emails := make([]triage.Email, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			l.log.WithError(ctx.Err()).Warn("Load interrupted")
			break
		}
		if progress != nil {
			progress(len(emails))
		}

		raw, err := l.provider.Fetch(ctx, id)
		if err != nil {
			l.log.WithError(err).WithField("id", id).Debug("Skipping message, fetch failed")
			continue
		}
		email, ok := Normalize(raw)
		if !ok {
			l.log.WithField("id", id).Debug("Skipping message, missing fields")
			continue
		}
		emails = append(emails, email)
	}

	l.log.WithField("emails", len(emails)).Info("Inbox loaded")
	return emails
}

func (l *Loader) listIDs(ctx context.Context) []string {
	var (
		ids   []string
		token string
	)
	for ctx.Err() == nil {
		page, err := l.provider.ListPage(ctx, l.label, token)
		if err != nil {
			l.log.WithError(err).Warn("Listing stopped, page request failed")
			break
		}
		if page.IDs == nil {
			break
		}
		for _, id := range page.IDs {
			if id == "" {
				continue
			}
			ids = append(ids, id)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	return ids
}
