// Package rpmerr defines the typed errors surfaced by the vault engine.
// Callers match on a Kind to distinguish a failed decryption from a missing
// file or a malformed argument; the message carries the human-readable
// context.
package rpmerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Crypto covers bad key material, decryption/authentication failures
	// and malformed salt, base64 or hash strings.
	Crypto Kind = iota + 1
	// IO covers filesystem failures.
	IO
	// Serialization covers malformed JSON in the index or a record.
	Serialization
	// AuthenticationFailed is a master password mismatch.
	AuthenticationFailed
	// InvalidInput is a malformed caller-supplied argument.
	InvalidInput
	// NotFound is an absent record, distinct from a record that fails to
	// decrypt.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Crypto:
		return "crypto error"
	case IO:
		return "io error"
	case Serialization:
		return "serialization error"
	case AuthenticationFailed:
		return "authentication failed"
	case InvalidInput:
		return "invalid input"
	case NotFound:
		return "not found"
	}
	return "unknown error"
}

// Error is a vault error carrying a Kind. It survives wrapping with
// pkg/errors as long as the wrapper supports Unwrap.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	switch {
	case e.msg == "" && e.cause == nil:
		return e.kind.String()
	case e.msg == "":
		return e.kind.String() + ": " + e.cause.Error()
	case e.cause == nil:
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Unwrap() error { return e.cause }

func New(k Kind, msg string) *Error {
	return &Error{kind: k, msg: msg}
}

func Newf(k Kind, format string, args ...interface{}) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to cause. Returns nil when cause is nil.
func Wrap(k Kind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &Error{kind: k, msg: msg, cause: cause}
}

// KindOf walks the error chain and returns the Kind of the innermost typed
// error, or zero when the chain carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return 0
}

// IsKind reports whether err carries the given Kind anywhere in its chain.
func IsKind(err error, k Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.kind == k {
			return true
		}
		err = e.cause
	}
	return false
}
