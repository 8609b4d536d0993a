package core

import "fmt"

// ErrKind classifies an Error so callers can branch on intent rather than
// on message text. The members mirror the Structure/Value/Authorization
// taxonomy of the replication protocol.
type ErrKind int

const (
	ErrKindUnknown ErrKind = iota

	// Structure errors.
	ErrKindInvalidVisitor
	ErrKindInvalidNode
	ErrKindInvalidRootNode
	ErrKindPathEmptyResolvedToRoot
	ErrKindResolvePathTooDeep
	ErrKindSegmentNameButNodeNotMap
	ErrKindSegmentIndexButNodeNotArray
	ErrKindResolveMapKeyNotFound
	ErrKindResolveArrayIndexNegative
	ErrKindResolveArrayIndexOutOfRange
	ErrKindResolveOperatorFailure
	ErrKindResolveInternalNullMap
	ErrKindResolveInternalNullArray
	ErrKindResolveAllocateFailed

	// Value errors.
	ErrKindValueTypeMismatch
	ErrKindInvalidTargetValue
	ErrKindInvalidSourceValue

	// Authorization.
	ErrKindPermissionDenied
)

var errKindNames = map[ErrKind]string{
	ErrKindUnknown:                     "UnknownFailure",
	ErrKindInvalidVisitor:              "InvalidVisitor",
	ErrKindInvalidNode:                 "InvalidNode",
	ErrKindInvalidRootNode:             "InvalidRootNode",
	ErrKindPathEmptyResolvedToRoot:     "PathEmptyResolvedToRoot",
	ErrKindResolvePathTooDeep:          "ResolvePathTooDeep",
	ErrKindSegmentNameButNodeNotMap:    "SegmentNameButNodeNotMap",
	ErrKindSegmentIndexButNodeNotArray: "SegmentIndexButNodeNotArray",
	ErrKindResolveMapKeyNotFound:       "ResolveMapKeyNotFound",
	ErrKindResolveArrayIndexNegative:   "ResolveArrayIndexNegative",
	ErrKindResolveArrayIndexOutOfRange: "ResolveArrayIndexOutOfRange",
	ErrKindResolveOperatorFailure:      "ResolveOperatorFailure",
	ErrKindResolveInternalNullMap:      "ResolveInternalNullMap",
	ErrKindResolveInternalNullArray:    "ResolveInternalNullArray",
	ErrKindResolveAllocateFailed:       "ResolveAllocateFailed",
	ErrKindValueTypeMismatch:           "ValueTypeMismatch",
	ErrKindInvalidTargetValue:          "InvalidTargetValue",
	ErrKindInvalidSourceValue:          "InvalidSourceValue",
	ErrKindPermissionDenied:            "PermissionDenied",
}

func (k ErrKind) String() string {
	if name, ok := errKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrKind(%d)", int(k))
}

// Error is the library's single error type. Every operation that can fail
// returns one of these (wrapped in a plain Go error), never a bare string
// or a panic; internal impossibilities surface as ErrKindUnknown rather
// than aborting the process.
type Error struct {
	Kind ErrKind
	Op   string // operation that failed, e.g. "Tree.Resolve"
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := e.Kind.String()
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if e.Msg != "" {
		prefix += ": " + e.Msg
	}
	if e.Err != nil {
		return prefix + ": " + e.Err.Error()
	}
	return prefix
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, core.Kind(ErrKindResolvePathTooDeep)) style checks
// work without requiring callers to compare Kind fields by hand.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Kind builds a sentinel *Error carrying only a kind, suitable for
// errors.Is comparisons: errors.Is(err, core.Kind(core.ErrKindInvalidNode)).
func Kind(k ErrKind) *Error {
	return &Error{Kind: k}
}

// New builds an *Error for op with a formatted message.
func New(op string, kind ErrKind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error for op that carries an underlying cause.
func Wrap(op string, kind ErrKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}
