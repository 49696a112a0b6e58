package model

// ErrorKind is the stable, machine-readable error discriminator returned to
// clients alongside the human-readable message.
type ErrorKind string

const (
	ErrorKindUnauthenticated ErrorKind = "unauthenticated"
	ErrorKindForbidden       ErrorKind = "forbidden"
	ErrorKindNotFound        ErrorKind = "not_found"
	ErrorKindInvalidInput    ErrorKind = "invalid_input"
	ErrorKindConflict        ErrorKind = "conflict"
	ErrorKindUpstream        ErrorKind = "upstream_failure"
)
