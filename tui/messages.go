package tui

import "github.com/bassamadnan/mailsort/triage"

// ProgressMsg reports how many emails the loader has read so far.
type ProgressMsg struct{ Count int }

// LoadedMsg carries the loaded working set, unordered.
type LoadedMsg struct{ Emails []triage.Email }

// Sent when the event channel closes without a LoadedMsg.
type loadStoppedMsg struct{}

type commitDoneMsg struct {
	count int
	err   error
}
