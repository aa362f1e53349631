// Package mboxfile serves messages from a local mbox file. It is read-only:
// there is no committer for it.
package mboxfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/sirupsen/logrus"

	"github.com/bassamadnan/mailsort/inbox"
)

// File holds every message of an mbox file in memory, in file order.
type File struct {
	pageSize int
	ids      []string
	messages map[string]*inbox.RawMessage
}

// Open reads and parses the mbox file at path.
func Open(path string, pageSize int, log *logrus.Entry) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mbox: %w", err)
	}
	defer f.Close()

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	file, err := Read(f, pageSize, log.WithFields(logrus.Fields{"pkg": "mboxfile", "path": path}))
	if err != nil {
		return nil, fmt.Errorf("reading mbox %s: %w", path, err)
	}
	return file, nil
}

// Read parses an mbox stream. Messages that cannot be parsed are skipped.
func Read(r io.Reader, pageSize int, log *logrus.Entry) (*File, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	file := &File{
		pageSize: pageSize,
		messages: make(map[string]*inbox.RawMessage),
	}

	mr := mbox.NewReader(r)

	var (
		msg io.Reader
		err error
	)

	for n := 1; ; n++ {
		if msg, err = mr.NextMessage(); err != nil {
			break
		}

		literal, err := io.ReadAll(msg)
		if err != nil {
			return nil, err
		}

		raw, err := inbox.ParseRFC822("", literal, time.Time{})
		if err != nil {
			log.WithError(err).WithField("message", n).Warn("Skipping unparsable message")
			continue
		}
		raw.ID = file.uniqueID(messageID(raw, n))

		file.ids = append(file.ids, raw.ID)
		file.messages[raw.ID] = raw
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}

	log.WithField("messages", len(file.ids)).Info("Read mbox")
	return file, nil
}

// messageID prefers the Message-Id header, falling back to the position in
// the file.
func messageID(raw *inbox.RawMessage, n int) string {
	if v, ok := raw.Header("Message-Id"); ok {
		if id := strings.Trim(strings.TrimSpace(v), "<>"); id != "" {
			return id
		}
	}
	return "mbox-" + strconv.Itoa(n)
}

func (f *File) uniqueID(id string) string {
	if _, ok := f.messages[id]; !ok {
		return id
	}
	for i := 2; ; i++ {
		candidate := id + "#" + strconv.Itoa(i)
		if _, ok := f.messages[candidate]; !ok {
			return candidate
		}
	}
}

// Len returns the number of messages read.
func (f *File) Len() int { return len(f.ids) }

// ListPage pages through the file. An mbox has no labels, so label is ignored.
func (f *File) ListPage(ctx context.Context, _ string, pageToken string) (inbox.Page, error) {
	if err := ctx.Err(); err != nil {
		return inbox.Page{}, err
	}
	return inbox.Paginate(f.ids, pageToken, f.pageSize)
}

func (f *File) Fetch(ctx context.Context, id string) (*inbox.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, inbox.ErrNotFound)
	}

	cp := *raw
	cp.Headers = append([]inbox.Header{}, raw.Headers...)
	if raw.Snippet != nil {
		snippet := *raw.Snippet
		cp.Snippet = &snippet
	}
	return &cp, nil
}
