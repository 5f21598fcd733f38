package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the videos endpoint
type ErrorKind string

const (
	KindAuthentication         ErrorKind = "authentication"
	KindAuthenticationRequired ErrorKind = "authentication_required"
	KindUpstream               ErrorKind = "upstream"
	KindSerialization          ErrorKind = "serialization"
	KindInternal               ErrorKind = "internal"
)

// Error is the single error type surfaced by the showcase pipeline.
// The kind is for logs and metrics only; clients see Error().
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthenticationError wraps a consent, refresh or client-secret failure
func NewAuthenticationError(msg string, err error) *Error {
	return &Error{Kind: KindAuthentication, Message: msg, Err: err}
}

// NewAuthenticationRequired signals that an operator has to run the consent flow
func NewAuthenticationRequired(msg string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: msg}
}

// NewUpstreamError wraps a platform failure or an unresolvable channel
func NewUpstreamError(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// NewSerializationError reports an unexpected response shape
func NewSerializationError(msg string) *Error {
	return &Error{Kind: KindSerialization, Message: msg}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
