package triage

// Op identifies an engine command.
type Op int

const (
	OpNone Op = iota
	OpSetPending
	OpAdvance
	OpRetreat
	OpPropagateSender
	OpPropagateDomain
	OpJumpToStart
	OpCommitFilter
	OpQuit
)

// Command is one discrete operator input. Status is only read by
// OpSetPending.
type Command struct {
	Op     Op
	Status Disposition
}

func SetPending(d Disposition) Command { return Command{Op: OpSetPending, Status: d} }
func Advance() Command                 { return Command{Op: OpAdvance} }
func Retreat() Command                 { return Command{Op: OpRetreat} }
func PropagateSender() Command         { return Command{Op: OpPropagateSender} }
func PropagateDomain() Command         { return Command{Op: OpPropagateDomain} }
func JumpToStart() Command             { return Command{Op: OpJumpToStart} }
func CommitFilter() Command            { return Command{Op: OpCommitFilter} }
func Quit() Command                    { return Command{Op: OpQuit} }

// Outcome reports whether the session continues after a command.
type Outcome int

const (
	Continue Outcome = iota
	// Quit was requested by the operator.
	QuitRequested
	// Exhausted means the working set became empty.
	Exhausted
)

func (o Outcome) Done() bool {
	return o != Continue
}
