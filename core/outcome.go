package core

// Outcome grades a successful mutation. All Outcome values are "ok" in the
// sense that no error accompanies them; callers that only care about
// success can test Outcome.OK(), while callers that care about *what*
// changed (for versioning, logging, listener dispatch) can switch on the
// exact grade.
type Outcome int

const (
	Success Outcome = iota
	SuccessOverrideEmpty
	SuccessChangeValue
	SuccessChangeValueAndType
	SameValueNoChange
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case SuccessOverrideEmpty:
		return "SuccessOverrideEmpty"
	case SuccessChangeValue:
		return "SuccessChangeValue"
	case SuccessChangeValueAndType:
		return "SuccessChangeValueAndType"
	case SameValueNoChange:
		return "SameValueNoChange"
	default:
		return "Outcome(?)"
	}
}

// Changed reports whether the outcome represents an actual data change
// (as opposed to SameValueNoChange, which is a no-op compare-and-skip).
func (o Outcome) Changed() bool {
	return o != SameValueNoChange
}

// OK reports whether the outcome represents success (every Outcome does;
// this exists so call sites that only branch on error vs. not don't need
// to enumerate the grades).
func (o Outcome) OK() bool { return true }
