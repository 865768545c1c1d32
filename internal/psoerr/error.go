// Package psoerr provides the stable error-kind taxonomy shared by the
// quest-format packages: codec primitives fail fast with a tagged error,
// the pipeline decides which tags to surface after recovery.
package psoerr

import "fmt"

// Kind is a stable, comparable error tag. Callers should branch on Kind
// rather than on error message text.
type Kind int

const (
	// KindInvalidParams marks a precondition violation by the caller
	// (nil/zero-length input, unaligned cipher buffer length, and so on).
	KindInvalidParams Kind = iota
	// KindFileNotFound marks a missing input file, surfaced verbatim from
	// the I/O collaborator.
	KindFileNotFound
	// KindCannotCreate marks an output file or directory that could not
	// be created, surfaced verbatim from the I/O collaborator.
	KindCannotCreate
	// KindIoError marks any other I/O failure, surfaced verbatim.
	KindIoError
	// KindMalformedInput marks data that violates a format invariant not
	// covered by a recoverable heuristic.
	KindMalformedInput
	// KindTruncated marks a stream that ended while more data was
	// expected.
	KindTruncated
	// KindSizeOverflow marks a decompression whose destination cursor
	// would exceed the caller-provided output bound.
	KindSizeOverflow
	// KindValidationFailed marks one or more validator flags that
	// recovery did not clear.
	KindValidationFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParams:
		return "invalid_params"
	case KindFileNotFound:
		return "file_not_found"
	case KindCannotCreate:
		return "cannot_create"
	case KindIoError:
		return "io_error"
	case KindMalformedInput:
		return "malformed_input"
	case KindTruncated:
		return "truncated"
	case KindSizeOverflow:
		return "size_overflow"
	case KindValidationFailed:
		return "validation_failed"
	default:
		return "unknown"
	}
}

// Error is the tagged error type that prs, cipher, qst and pipeline use
// for their own failures; binmodel and datmodel return plain sentinel
// errors instead. It carries a stable Kind, the failing operation name, and (when known) the
// path or file name of the offending input, so callers can build a
// human-readable message without parsing error text.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no path, wrapping err (which may be nil).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPath builds an *Error naming the offending file.
func WithPath(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if as(err, &e) {
		return e.Kind == kind
	}
	return false
}

// as is a tiny local shim so this file does not need to import errors
// solely for errors.As's generic signature in call sites that already
// know the concrete type.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
