package inbox

import (
	"strconv"
	"strings"

	"github.com/bassamadnan/mailsort/triage"
)

// Normalize converts a raw message into an Email. It reports false when the
// message lacks headers, a From header, a snippet, a numeric timestamp or an
// id.
func Normalize(raw *RawMessage) (triage.Email, bool) {
	if raw == nil || raw.Headers == nil {
		return triage.Email{}, false
	}

	subject, _ := header(raw.Headers, "subject")

	fromRaw, ok := header(raw.Headers, "from")
	if !ok {
		return triage.Email{}, false
	}

	// Some providers return several comma separated addresses in From; the
	// Sender header is more reliable then.
	from := fromRaw
	if fields := strings.Split(fromRaw, ","); len(fields) != 1 {
		from, _ = header(raw.Headers, "sender")
	}

	parts := strings.Split(from, "@")
	name, domain := parts[0], ""
	if len(parts) > 1 {
		domain = parts[1]
	}

	if raw.Snippet == nil {
		return triage.Email{}, false
	}
	date, err := strconv.ParseInt(raw.InternalDate, 10, 64)
	if err != nil {
		return triage.Email{}, false
	}
	if raw.ID == "" {
		return triage.Email{}, false
	}

	return triage.Email{
		ID:         raw.ID,
		Subject:    subject,
		FromName:   name,
		FromDomain: domain,
		Body:       *raw.Snippet,
		Date:       date,
		Status:     triage.Inbox,
	}, true
}

func header(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if h.Name == "" {
			continue
		}
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}
