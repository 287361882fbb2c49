package resolve

import (
	"kresolve/report"
)

// State is a state of the resolution of a single call.
type State int

// Enumeration of resolution states.  Resolution always moves forward through
// the states and ends in one of the three terminal states.
const (
	Collecting State = iota
	Filtering
	Inferring
	Scoring
	Resolved
	Ambiguous
	NoneApplicable
)

var stateNames = [...]string{
	Collecting:     "COLLECTING",
	Filtering:      "FILTERING",
	Inferring:      "INFERRING",
	Scoring:        "SCORING",
	Resolved:       "RESOLVED",
	Ambiguous:      "AMBIGUOUS",
	NoneApplicable: "NONE_APPLICABLE",
}

func (s State) String() string {
	return stateNames[s]
}

// IsTerminal returns whether resolution is finished in this state.
func (s State) IsTerminal() bool {
	return s >= Resolved
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	Collecting: {Filtering, NoneApplicable},
	Filtering:  {Inferring, NoneApplicable},
	Inferring:  {Scoring, NoneApplicable},
	Scoring:    {Resolved, Ambiguous},
}

// advance moves the resolution to the next state.  An invalid transition is
// an internal error.
func (res *resolution) advance(to State) {
	for _, next := range transitions[res.state] {
		if next == to {
			res.state = to
			return
		}
	}

	report.Raise(nil, "invalid resolution transition from %s to %s", res.state, to)
}

// -----------------------------------------------------------------------------

// Status is the applicability status of a candidate.
type Status int

// Enumeration of candidate statuses.
const (
	Pending Status = iota
	Applicable
	Rejected
)

// Rejection is the reason a candidate was found inapplicable.
type Rejection int

// Enumeration of rejection reasons.  Arity mismatches and wrong type argument
// counts are shape rejections: they are detected before inference.
const (
	NotRejected Rejection = iota
	ArityMismatch
	WrongTypeArgCount
	TypeMismatch
	InferenceFailure
)

var rejectionNames = [...]string{
	NotRejected:       "not rejected",
	ArityMismatch:     "arity mismatch",
	WrongTypeArgCount: "wrong type argument count",
	TypeMismatch:      "type mismatch",
	InferenceFailure:  "inference failure",
}

func (r Rejection) String() string {
	return rejectionNames[r]
}

// -----------------------------------------------------------------------------

// ProximityLevel is how close to the call site a candidate is declared.
type ProximityLevel int

// Enumeration of proximity levels from farthest to closest.
const (
	ProximityImported ProximityLevel = iota
	ProximityTopLevel
	ProximityExtension
	ProximityMember
	ProximityLocal
)

var proximityNames = [...]string{
	ProximityImported:  "imported",
	ProximityTopLevel:  "top-level",
	ProximityExtension: "extension",
	ProximityMember:    "member",
	ProximityLocal:     "local",
}

func (pl ProximityLevel) String() string {
	return proximityNames[pl]
}

// Proximity is the declared-site proximity of a candidate.
type Proximity struct {
	Level ProximityLevel

	// Depth orders candidates at the same level: deeper is closer.  For local
	// candidates it is the depth of the declaring scope and for members of
	// implicit receivers it is minus the receiver's distance from the call.
	Depth int
}

// CloserThan returns whether p is strictly closer to the call site than q.
func (p Proximity) CloserThan(q Proximity) bool {
	if p.Level != q.Level {
		return p.Level > q.Level
	}

	return p.Depth > q.Depth
}
