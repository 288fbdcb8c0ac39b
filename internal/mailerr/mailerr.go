// Package mailerr defines the error kinds shared by the mailbox session, the message decoder
// and the tool handlers.
package mailerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration means credentials or settings are missing.
	KindConfiguration
	// KindConnection means dialing, authentication, a timeout or a dropped connection.
	KindConnection
	// KindDecode means a message could not be decoded into text.
	KindDecode
	// KindCommand means the server answered a command with a non-OK status.
	KindCommand
	// KindInvalidArgument means a tool was called with unusable arguments.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindDecode:
		return "decode"
	case KindCommand:
		return "command"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// Error is a failure tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New tags err with kind. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

func Configuration(op string, err error) error { return New(KindConfiguration, op, err) }

func Connection(op string, err error) error { return New(KindConnection, op, err) }

func Decode(op string, err error) error { return New(KindDecode, op, err) }

func Command(op string, err error) error { return New(KindCommand, op, err) }

func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost tagged error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
