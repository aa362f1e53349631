// Package inbox defines the mail provider contract and turns provider
// messages into the working set reviewed by the triage engine.
package inbox

import (
	"context"
	"errors"

	"github.com/bassamadnan/mailsort/triage"
)

// ErrNotFound is returned by providers when a message id is unknown.
var ErrNotFound = errors.New("message not found")

// Header is a single raw message header.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawMessage is a message as returned by a provider, before normalization.
// A nil Headers or Snippet means the provider did not return that part;
// InternalDate holds the provider timestamp as decimal text, "" if absent.
type RawMessage struct {
	ID           string   `json:"id"`
	Headers      []Header `json:"headers"`
	Snippet      *string  `json:"snippet"`
	InternalDate string   `json:"internal_date"`
}

// Page is one page of message ids. IDs is nil when the provider response had
// no id list at all.
type Page struct {
	IDs           []string
	NextPageToken string
}

// Provider lists and fetches messages from a mail service.
type Provider interface {
	ListPage(ctx context.Context, label, pageToken string) (Page, error)
	Fetch(ctx context.Context, id string) (*RawMessage, error)
}

// Committer writes reviewed dispositions back to the mail service.
type Committer interface {
	Commit(ctx context.Context, emails []triage.Email) error
}

// Header returns the value of the first header called name, ignoring case.
func (m *RawMessage) Header(name string) (string, bool) {
	return header(m.Headers, name)
}
