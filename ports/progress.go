package ports

// ProgressSink receives discrete progress events from an analysis run:
// one event per phase boundary and one per repeat iteration, so callers
// can precompute run totals as fixed steps plus the repeat count.
type ProgressSink interface {
	// Advance reports one completed step.
	Advance()

	// AdvanceMsg reports one completed step with a display message.
	AdvanceMsg(msg string)
}

// NopProgress discards progress events.
type NopProgress struct{}

func (NopProgress) Advance()          {}
func (NopProgress) AdvanceMsg(string) {}
