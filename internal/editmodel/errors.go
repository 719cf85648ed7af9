package editmodel

import "fmt"

// ErrorKind is the error taxonomy from spec §7. It is not exhaustive of the
// whole engine — BundleInvalid and MediaDrift belong to other packages —
// but InvariantViolation, NotFound, OutOfRange and Cancelled originate here.
type ErrorKind string

const (
	KindInvariantViolation ErrorKind = "InvariantViolation"
	KindNotFound           ErrorKind = "NotFound"
	KindOutOfRange         ErrorKind = "OutOfRange"
	KindCancelled          ErrorKind = "Cancelled"
)

// Error wraps an ErrorKind with a human-readable reason. Edit operations
// are refused atomically by returning one of these; the caller's snapshot
// remains untouched.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// NewError is the exported constructor other packages (resolver, server)
// use to report errors in the same taxonomy.
func NewError(kind ErrorKind, format string, args ...interface{}) error {
	return newErr(kind, format, args...)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
