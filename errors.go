package ebml

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the failure modes of the engine, matching the taxonomy
// a caller needs to branch on: malformed input, truncated input, invalid
// mutation requests, and tree invariant violations.
type Kind int

const (
	// KindDecode marks a malformed VINT, a reserved VINT used where a
	// length was expected, a truncated header, or a schema-required
	// element that is empty.
	KindDecode Kind = iota
	// KindEndOfStream marks an unexpected EOF while more bytes were
	// required to complete a read.
	KindEndOfStream
	// KindValue marks a resize to an invalid width or an assignment
	// outside an element's value domain.
	KindValue
	// KindInconsistent marks a tree that violates one of the
	// consistency invariants; raised by check_consistency-style checks
	// and by placement when a mandatory region cannot fit a child.
	KindInconsistent
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "DecodeError"
	case KindEndOfStream:
		return "EndOfStream"
	case KindValue:
		return "ValueError"
	case KindInconsistent:
		return "Inconsistent"
	default:
		return "Error"
	}
}

// Error is the concrete error value raised throughout the engine. It
// carries a Kind so callers can branch with errors.As plus IsDecodeError
// and friends, and a stack trace captured at the raise site via
// github.com/pkg/errors, since rearrange and normalize failures are
// usually diagnosed far from the call that triggered them.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func newError(kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, msg: fmt.Sprintf(format, args...)})
}

func newDecodeError(format string, args ...interface{}) error {
	return newError(KindDecode, format, args...)
}

func newEndOfStream(format string, args ...interface{}) error {
	return newError(KindEndOfStream, format, args...)
}

func newValueError(format string, args ...interface{}) error {
	return newError(KindValue, format, args...)
}

func newInconsistent(format string, args ...interface{}) error {
	return newError(KindInconsistent, format, args...)
}

// wrapf attaches additional context to err while preserving its Kind and
// stack trace, mirroring the teacher's fmt.Errorf("...: %w", err) idiom.
func wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

func is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsDecodeError reports whether err (or any error it wraps) is a
// DecodeError.
func IsDecodeError(err error) bool { return is(err, KindDecode) }

// IsEndOfStream reports whether err (or any error it wraps) is an
// EndOfStream error.
func IsEndOfStream(err error) bool { return is(err, KindEndOfStream) }

// IsValueError reports whether err (or any error it wraps) is a
// ValueError.
func IsValueError(err error) bool { return is(err, KindValue) }

// IsInconsistent reports whether err (or any error it wraps) is an
// Inconsistent error.
func IsInconsistent(err error) bool { return is(err, KindInconsistent) }
