package export

import "fmt"

// State is the export pipeline state.
type State int

const (
	Idle State = iota
	Analyzing
	Deciding
	Exporting
	Aggregating
	Chunking
	HandedOff
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Analyzing:
		return "analyzing"
	case Deciding:
		return "deciding"
	case Exporting:
		return "exporting"
	case Aggregating:
		return "aggregating"
	case Chunking:
		return "chunking"
	case HandedOff:
		return "handed-off"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FallbackState is the state of the PNG fallback sub-machine, which runs
// independently of the main pipeline.
type FallbackState int

const (
	FallbackIdle FallbackState = iota
	FallbackRequested
	FallbackExporting
	FallbackDone
)

func (s FallbackState) String() string {
	switch s {
	case FallbackIdle:
		return "fallback-idle"
	case FallbackRequested:
		return "fallback-requested"
	case FallbackExporting:
		return "fallback-exporting"
	case FallbackDone:
		return "fallback-done"
	default:
		return fmt.Sprintf("fallback(%d)", int(s))
	}
}

// transitions lists the legal moves of the main pipeline. Any state may
// return to Idle when a pass is abandoned.
var transitions = map[State][]State{
	Idle:        {Analyzing},
	Analyzing:   {Deciding, Exporting, Aggregating, HandedOff},
	Deciding:    {Exporting},
	Exporting:   {Deciding, Aggregating},
	Aggregating: {Chunking, HandedOff},
	Chunking:    {HandedOff},
	HandedOff:   {Analyzing},
}

func canTransition(from, to State) bool {
	if to == Idle {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
