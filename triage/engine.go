package triage

import (
	"errors"
	"slices"

	"github.com/bradenaw/juniper/xslices"
)

var ErrEmptyWorkingSet = errors.New("no emails to review")

// Engine drives interactive review of an ordered working set. It is not safe
// for concurrent use; callers drive it from a single loop.
type Engine struct {
	records    []Email
	cursor     int
	pending    Disposition
	hasPending bool
}

// New returns an engine over a private copy of records, with the cursor on
// the first record.
func New(records []Email) (*Engine, error) {
	if len(records) == 0 {
		return nil, ErrEmptyWorkingSet
	}
	return &Engine{records: slices.Clone(records)}, nil
}

// Apply interprets a single command. Unknown commands leave the engine
// unchanged.
func (e *Engine) Apply(cmd Command) Outcome {
	if len(e.records) == 0 {
		return Exhausted
	}
	e.clampCursor()

	switch cmd.Op {
	case OpSetPending:
		if !cmd.Status.Valid() {
			return Continue
		}
		e.pending, e.hasPending = cmd.Status, true

	case OpAdvance:
		e.flushPending(e.cursor)
		if e.cursor < len(e.records)-1 {
			e.cursor++
		}

	case OpRetreat:
		e.flushPending(e.cursor)
		if e.cursor > 0 {
			e.cursor--
		}

	case OpPropagateSender:
		e.propagate(sameSender)

	case OpPropagateDomain:
		e.propagate(sameDomain)

	case OpJumpToStart:
		// Pending status stays staged.
		e.cursor = 0

	case OpCommitFilter:
		e.records = xslices.Filter(e.records, func(m Email) bool {
			return m.Status != Inbox
		})
		if len(e.records) == 0 {
			return Exhausted
		}
		e.cursor = 0

	case OpQuit:
		e.hasPending = false
		return QuitRequested
	}

	return Continue
}

// propagate applies the pending status to the run of records starting at the
// cursor that match the cursor record, and leaves the cursor on the first
// record after the run. A run that reaches the end leaves it on the last one.
func (e *Engine) propagate(match func(a, b Email) bool) {
	status, ok := e.pending, e.hasPending
	e.hasPending = false

	origin := e.records[e.cursor]
	j := e.cursor
	for j < len(e.records) && match(e.records[j], origin) {
		if ok {
			e.records[j].Status = status
		}
		j++
	}
	if j > len(e.records)-1 {
		j = len(e.records) - 1
	}
	e.cursor = j
}

func (e *Engine) flushPending(i int) {
	if e.hasPending {
		e.records[i].Status = e.pending
	}
	e.hasPending = false
}

func (e *Engine) clampCursor() {
	if e.cursor >= len(e.records) {
		e.cursor = len(e.records) - 1
	}
	if e.cursor < 0 {
		e.cursor = 0
	}
}

// Len returns the size of the working set.
func (e *Engine) Len() int {
	return len(e.records)
}

// Records returns a copy of the working set in review order.
func (e *Engine) Records() []Email {
	return slices.Clone(e.records)
}

// Snapshot is a read-only view of the engine for rendering.
type Snapshot struct {
	Current    Email
	Cursor     int
	Total      int
	Pending    Disposition
	HasPending bool
}

func (e *Engine) Snapshot() Snapshot {
	if len(e.records) == 0 {
		return Snapshot{}
	}
	e.clampCursor()
	return Snapshot{
		Current:    e.records[e.cursor],
		Cursor:     e.cursor,
		Total:      len(e.records),
		Pending:    e.pending,
		HasPending: e.hasPending,
	}
}
