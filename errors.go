package canopy

import "fmt"

// ErrorKind classifies the programmer errors this package panics with.
// All of them are fail-fast: raised synchronously at the call site, never
// caught or retried internally.
type ErrorKind uint8

const (
	ErrInvalidArgument    ErrorKind = iota // wrong value where a Node/comparator was required
	ErrOutOfRange                          // invalid child or camera index
	ErrIllegalOperation                    // mutating a structurally read-only property
	ErrAlreadyConstructed                  // re-running a single-use constructor step
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrOutOfRange:
		return "OutOfRange"
	case ErrIllegalOperation:
		return "IllegalOperation"
	case ErrAlreadyConstructed:
		return "AlreadyConstructed"
	default:
		return "Unknown"
	}
}

// Error is the panic value used for all programmer errors in this package.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("canopy: %s: %s", e.Kind, e.Message)
}

func panicf(kind ErrorKind, format string, args ...any) {
	panic(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
