// Package errors defines the classified failures returned by the transfer core.
// Every failure that leaves the engine carries exactly one Kind, so callers can
// decide between informing the user and retrying without parsing messages.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidRequest    Kind = "INVALID_REQUEST"
	KindAccountNotFound   Kind = "ACCOUNT_NOT_FOUND"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindConflict          Kind = "CONFLICT"
	KindTimeout           Kind = "TIMEOUT"
	KindStoreUnavailable  Kind = "STORE_UNAVAILABLE"
)

// DomainError is a classified failure with a user-facing message.
type DomainError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same kind, so the sentinels below work
// with errors.Is regardless of the message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidRequest    = &DomainError{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrAccountNotFound   = &DomainError{Kind: KindAccountNotFound, Message: "account not found"}
	ErrInsufficientFunds = &DomainError{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrConflict          = &DomainError{Kind: KindConflict, Message: "conflicting concurrent update"}
	ErrTimeout           = &DomainError{Kind: KindTimeout, Message: "timed out waiting for account lock"}
	ErrStoreUnavailable  = &DomainError{Kind: KindStoreUnavailable, Message: "store unavailable"}
)

// New returns a DomainError of the given kind.
func New(kind Kind, message string) error {
	return &DomainError{Kind: kind, Message: message}
}

// Wrap returns a DomainError of the given kind carrying cause.
func Wrap(kind Kind, message string, cause error) error {
	return &DomainError{Kind: kind, Message: message, Err: cause}
}

// KindOf reports the kind of err. Context expiry counts as a timeout and
// anything unclassified is treated as an infrastructure failure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindStoreUnavailable
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message of err. Infrastructure failures get
// a generic message so driver details never reach callers.
func Message(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Kind != KindStoreUnavailable {
		return de.Message
	}
	if KindOf(err) == KindTimeout {
		return ErrTimeout.Message
	}
	return "internal error"
}

// Retryable reports whether the whole operation may be retried from scratch.
// Business-rule and input failures are final.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindTimeout, KindStoreUnavailable:
		return true
	default:
		return false
	}
}
