package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mail(id, name, domain string) Email {
	return Email{ID: id, FromName: name, FromDomain: domain}
}

func statuses(e *Engine) []Disposition {
	var out []Disposition
	for _, r := range e.Records() {
		out = append(out, r.Status)
	}
	return out
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrEmptyWorkingSet)
}

func TestNew_CopiesRecords(t *testing.T) {
	records := []Email{mail("1", "a", "x.com")}
	e, err := New(records)
	require.NoError(t, err)

	e.Apply(SetPending(Archive))
	e.Apply(Advance())

	assert.Equal(t, Inbox, records[0].Status)
	assert.Equal(t, Archive, e.Records()[0].Status)
}

func TestEngine_CursorStaysInBounds(t *testing.T) {
	e, err := New([]Email{mail("1", "a", "x"), mail("2", "b", "x"), mail("3", "c", "x")})
	require.NoError(t, err)

	e.Apply(Retreat())
	assert.Equal(t, 0, e.Snapshot().Cursor)

	for i := 0; i < 5; i++ {
		e.Apply(Advance())
		assert.LessOrEqual(t, e.Snapshot().Cursor, 2)
	}
	assert.Equal(t, 2, e.Snapshot().Cursor)

	for i := 0; i < 5; i++ {
		e.Apply(Retreat())
		assert.GreaterOrEqual(t, e.Snapshot().Cursor, 0)
	}
	assert.Equal(t, 0, e.Snapshot().Cursor)
}

func TestEngine_SetPendingDoesNotMutate(t *testing.T) {
	e, err := New([]Email{mail("1", "a", "x"), mail("2", "b", "x")})
	require.NoError(t, err)

	e.Apply(SetPending(FollowUp))
	snap := e.Snapshot()
	assert.True(t, snap.HasPending)
	assert.Equal(t, FollowUp, snap.Pending)
	assert.Equal(t, []Disposition{Inbox, Inbox}, statuses(e))

	// The last SetPending wins.
	e.Apply(SetPending(ReadThrough))
	e.Apply(Advance())
	assert.Equal(t, []Disposition{ReadThrough, Inbox}, statuses(e))
	assert.False(t, e.Snapshot().HasPending)
}

func TestEngine_RetreatAppliesPending(t *testing.T) {
	e, err := New([]Email{mail("1", "a", "x"), mail("2", "b", "x")})
	require.NoError(t, err)

	e.Apply(Advance())
	e.Apply(SetPending(Archive))
	e.Apply(Retreat())

	assert.Equal(t, 0, e.Snapshot().Cursor)
	assert.Equal(t, []Disposition{Inbox, Archive}, statuses(e))
}

func TestEngine_AdvanceAtEndStillApplies(t *testing.T) {
	e, err := New([]Email{mail("1", "a", "x")})
	require.NoError(t, err)

	e.Apply(SetPending(FollowUp))
	e.Apply(Advance())

	assert.Equal(t, 0, e.Snapshot().Cursor)
	assert.Equal(t, []Disposition{FollowUp}, statuses(e))
}

func TestEngine_PropagateSender(t *testing.T) {
	e, err := New([]Email{
		mail("0", "zed", "x.com"),
		mail("1", "amy", "x.com"),
		mail("2", "amy", "x.com"),
		mail("3", "amy", "x.com"),
		mail("4", "bob", "x.com"),
		mail("5", "amy", "x.com"),
	})
	require.NoError(t, err)

	e.Apply(Advance())
	e.Apply(SetPending(Archive))
	e.Apply(PropagateSender())

	assert.Equal(t, []Disposition{Inbox, Archive, Archive, Archive, Inbox, Inbox}, statuses(e))
	assert.Equal(t, 4, e.Snapshot().Cursor)
	assert.False(t, e.Snapshot().HasPending)
}

func TestEngine_PropagateRunReachesEnd(t *testing.T) {
	e, err := New([]Email{
		mail("0", "amy", "x.com"),
		mail("1", "amy", "x.com"),
		mail("2", "amy", "x.com"),
	})
	require.NoError(t, err)

	e.Apply(SetPending(ReadThrough))
	e.Apply(PropagateSender())

	assert.Equal(t, []Disposition{ReadThrough, ReadThrough, ReadThrough}, statuses(e))
	assert.Equal(t, 2, e.Snapshot().Cursor)
}

func TestEngine_PropagateSingleRecordRun(t *testing.T) {
	e, err := New([]Email{mail("0", "amy", "x.com"), mail("1", "bob", "x.com")})
	require.NoError(t, err)

	e.Apply(SetPending(FollowUp))
	e.Apply(PropagateSender())

	assert.Equal(t, []Disposition{FollowUp, Inbox}, statuses(e))
	assert.Equal(t, 1, e.Snapshot().Cursor)
}

func TestEngine_PropagateWithoutPendingOnlyMoves(t *testing.T) {
	e, err := New([]Email{mail("0", "amy", "x.com"), mail("1", "amy", "x.com"), mail("2", "bob", "y.com")})
	require.NoError(t, err)

	e.Apply(PropagateSender())

	assert.Equal(t, []Disposition{Inbox, Inbox, Inbox}, statuses(e))
	assert.Equal(t, 2, e.Snapshot().Cursor)
}

func TestEngine_PropagateDomain(t *testing.T) {
	e, err := New([]Email{
		mail("0", "zed", "y.com"),
		mail("1", "amy", "y.com"),
		mail("2", "amy", "x.com"),
	})
	require.NoError(t, err)

	e.Apply(SetPending(FollowUp))
	e.Apply(PropagateDomain())

	assert.Equal(t, []Disposition{FollowUp, FollowUp, Inbox}, statuses(e))
	assert.Equal(t, 2, e.Snapshot().Cursor)
}

func TestEngine_JumpToStartKeepsPending(t *testing.T) {
	e, err := New([]Email{mail("0", "a", "x"), mail("1", "b", "x"), mail("2", "c", "x")})
	require.NoError(t, err)

	e.Apply(Advance())
	e.Apply(Advance())
	e.Apply(SetPending(Archive))
	e.Apply(JumpToStart())

	snap := e.Snapshot()
	assert.Equal(t, 0, snap.Cursor)
	assert.True(t, snap.HasPending)

	e.Apply(Advance())

	assert.Equal(t, []Disposition{Archive, Inbox, Inbox}, statuses(e))
	assert.Equal(t, 1, e.Snapshot().Cursor)
}

func TestEngine_CommitFilter(t *testing.T) {
	e, err := New([]Email{
		mail("0", "a", "x"),
		mail("1", "b", "x"),
		mail("2", "c", "x"),
		mail("3", "d", "x"),
		mail("4", "e", "x"),
	})
	require.NoError(t, err)

	for _, d := range []Disposition{Archive, Inbox, FollowUp, Inbox, ReadThrough} {
		e.Apply(SetPending(d))
		e.Apply(Advance())
	}
	require.Equal(t, 4, e.Snapshot().Cursor)

	require.Equal(t, Continue, e.Apply(CommitFilter()))
	assert.Equal(t, []string{"0", "2", "4"}, ids(e.Records()))
	assert.Equal(t, 0, e.Snapshot().Cursor)

	require.Equal(t, Continue, e.Apply(CommitFilter()))
	assert.Equal(t, []string{"0", "2", "4"}, ids(e.Records()))
}

func TestEngine_CommitFilterExhausts(t *testing.T) {
	e, err := New([]Email{mail("0", "a", "x"), mail("1", "b", "x")})
	require.NoError(t, err)

	assert.Equal(t, Exhausted, e.Apply(CommitFilter()))
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, Exhausted, e.Apply(Advance()))
	assert.Equal(t, Snapshot{}, e.Snapshot())
}

func TestOutcome_Done(t *testing.T) {
	assert.False(t, Continue.Done())
	assert.True(t, QuitRequested.Done())
	assert.True(t, Exhausted.Done())
}

func TestEngine_QuitDiscardsPending(t *testing.T) {
	e, err := New([]Email{mail("0", "a", "x")})
	require.NoError(t, err)

	e.Apply(SetPending(Archive))
	assert.Equal(t, QuitRequested, e.Apply(Quit()))
	assert.Equal(t, []Disposition{Inbox}, statuses(e))
	assert.False(t, e.Snapshot().HasPending)
}

func TestEngine_IgnoresMalformedCommands(t *testing.T) {
	e, err := New([]Email{mail("0", "a", "x"), mail("1", "b", "x")})
	require.NoError(t, err)

	e.Apply(Advance())
	before := e.Snapshot()

	assert.Equal(t, Continue, e.Apply(Command{Op: Op(99)}))
	assert.Equal(t, Continue, e.Apply(SetPending(Disposition(7))))
	assert.Equal(t, Continue, e.Apply(Command{}))

	assert.Equal(t, before, e.Snapshot())
}
