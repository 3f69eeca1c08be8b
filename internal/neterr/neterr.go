// Package neterr provides the typed error kinds used across the NetDIMM
// driver, modeled on a status+context+cause error the way hardware driver
// errors are represented elsewhere in the ecosystem.
package neterr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the four error categories from the driver's error
// handling design: connection failures, protocol mismatches, caller-side
// argument errors, and the (silently handled) unsupported-target case.
type Kind int

const (
	// Connection covers TCP connect failure, read/write timeout, or an
	// unexpected close of the stream. Fatal to the current operation.
	Connection Kind = iota
	// Protocol covers a reply whose packet id or payload length does not
	// match the request's contract.
	Protocol
	// InvalidArgument covers a caller-side precondition violation, surfaced
	// before any I/O takes place.
	InvalidArgument
	// UnsupportedTarget marks a boot-ID patch requested for a firmware
	// version absent from the patch table. Never returned as an error value
	// — the target policy layer treats it as a silent no-op — but kept here
	// so callers that want to log the skip can check for it explicitly.
	UnsupportedTarget
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "connection error"
	case Protocol:
		return "protocol error"
	case InvalidArgument:
		return "invalid argument"
	case UnsupportedTarget:
		return "unsupported target"
	default:
		return fmt.Sprintf("unknown error kind (%d)", int(k))
	}
}

// Error is a NetDIMM driver error: a kind, the operation it occurred in, and
// an optional underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same Kind, so callers can do
// errors.Is(err, neterr.New(neterr.Protocol, "")) or compare against the
// package-level sentinels below.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds an Error with no cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinels for errors.Is comparisons against a bare kind.
var (
	ErrConnection       = &Error{Kind: Connection}
	ErrProtocol         = &Error{Kind: Protocol}
	ErrInvalidArgument  = &Error{Kind: InvalidArgument}
	ErrUnsupportedTarget = &Error{Kind: UnsupportedTarget}
)
