package inbox

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"
)

// SnippetLength caps the body preview built from full messages.
const SnippetLength = 200

var snippetPolicy = bluemonday.StrictPolicy()

// ParseRFC822 builds a RawMessage from a full RFC 822 literal, for providers
// that hand out whole messages instead of pre-extracted headers. When
// internal is zero the Date header is used as the timestamp.
func ParseRFC822(id string, literal []byte, internal time.Time) (*RawMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(literal))
	if err != nil && mr == nil {
		return nil, fmt.Errorf("parsing message %s: %w", id, err)
	}
	defer mr.Close()

	raw := &RawMessage{ID: id, Headers: []Header{}}

	fields := mr.Header.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		raw.Headers = append(raw.Headers, Header{Name: fields.Key(), Value: value})
	}

	if internal.IsZero() {
		if date, err := mr.Header.Date(); err == nil {
			internal = date
		}
	}
	if !internal.IsZero() {
		raw.InternalDate = strconv.FormatInt(internal.UnixMilli(), 10)
	}

	snippet := snippetFrom(mr)
	raw.Snippet = &snippet

	return raw, nil
}

// snippetFrom returns a whitespace-collapsed preview of the first text/plain
// part, or of the first text/html part with markup stripped.
func snippetFrom(mr *mail.Reader) string {
	var htmlBody string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			return clip(string(body))
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	if htmlBody == "" {
		return ""
	}
	return clip(html.UnescapeString(snippetPolicy.Sanitize(htmlBody)))
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= SnippetLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:SnippetLength])
}
