package triage

import (
	"fmt"
	"strings"
)

// Disposition is the review status assigned to a message.
type Disposition int

const (
	Inbox Disposition = iota
	FollowUp
	ReadThrough
	Archive
)

var dispositionNames = [...]string{
	Inbox:       "Inbox",
	FollowUp:    "FollowUp",
	ReadThrough: "ReadThrough",
	Archive:     "Archive",
}

// Dispositions lists every disposition in declaration order.
func Dispositions() []Disposition {
	return []Disposition{Inbox, FollowUp, ReadThrough, Archive}
}

func (d Disposition) Valid() bool {
	return d >= Inbox && d <= Archive
}

func (d Disposition) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Disposition(%d)", int(d))
	}
	return dispositionNames[d]
}

// ParseDisposition accepts the names returned by String, case-insensitively,
// plus the snake_case forms used in configuration files.
func ParseDisposition(s string) (Disposition, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "")
	for _, d := range Dispositions() {
		if strings.ToLower(d.String()) == norm {
			return d, nil
		}
	}
	return Inbox, fmt.Errorf("unknown disposition %q", s)
}
