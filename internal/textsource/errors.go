package textsource

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a document could not be turned into text.
type ErrorKind string

const (
	KindDecode            ErrorKind = "decode"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindAuthentication    ErrorKind = "authentication"
)

// Sentinels matched with errors.Is against any *Error of the same kind.
var (
	ErrDecode            = errors.New("document could not be decoded")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrAuthentication    = errors.New("document is protected and could not be unlocked")
)

// Error reports a failed text extraction step.
type Error struct {
	Kind ErrorKind `json:"kind"`
	Op   string    `json:"operation"`
	Err  error     `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindDecode:
		return target == ErrDecode
	case KindUnsupportedFormat:
		return target == ErrUnsupportedFormat
	case KindAuthentication:
		return target == ErrAuthentication
	}
	return false
}

func decodeError(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

func unsupportedError(op string, err error) error {
	return &Error{Kind: KindUnsupportedFormat, Op: op, Err: err}
}

func authenticationError(op string, err error) error {
	return &Error{Kind: KindAuthentication, Op: op, Err: err}
}
