package dalerror

import "errors"

// Error carries a classified Info across an error boundary while preserving
// the underlying cause for errors.Is/As checks. The Info is produced once at
// the failure site and never re-classified downstream.
type Error struct {
	Info  Info
	cause error
}

// NewError wraps a classified Info and its cause.
func NewError(info Info, cause error) *Error {
	return &Error{Info: info, cause: cause}
}

// WrapErr classifies err for the provider and returns it as an *Error. A nil
// err returns nil.
func WrapErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Info: Classify(provider, err), cause: err}
}

func (e *Error) Error() string {
	return string(e.Info.Category) + ": " + e.Info.Message
}

// Unwrap exposes the original backend error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Envelope renders the versioned error envelope for this error.
func (e *Error) Envelope() Envelope {
	return NewEnvelope(e.Info)
}

// InfoFrom extracts the classified Info from an error chain, classifying from
// scratch (with an unknown provider) when the chain carries none.
func InfoFrom(err error) Info {
	var de *Error
	if errors.As(err, &de) {
		return de.Info
	}
	return Classify("", err)
}
