package domain

import (
	"errors"
	"fmt"
)

// Credential errors.
var (
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrAccountDisabled       = errors.New("account_disabled")
	ErrCurrentSecretMismatch = errors.New("current_secret_mismatch")
	ErrCurrentSecretRequired = errors.New("current_secret_required")
)

// Local validation errors. These never reach the network.
var (
	ErrWeakOrReusedSecret   = errors.New("weak_or_reused_secret")
	ErrConfirmationMismatch = errors.New("confirmation_mismatch")
)

// Session errors.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNoSession       = errors.New("no_session")
)

// External service errors.
var (
	ErrUnreachable          = errors.New("unreachable")
	ErrRegistrationRejected = errors.New("registration_rejected")
	ErrRegistrationInvalid  = errors.New("registration_invalid")
)

// Kind is the machine-readable name of an error, safe to put on the wire.
type Kind string

const (
	KindNone                  Kind = ""
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindAccountDisabled       Kind = "account_disabled"
	KindCurrentSecretMismatch Kind = "current_secret_mismatch"
	KindCurrentSecretRequired Kind = "current_secret_required"
	KindWeakOrReusedSecret    Kind = "weak_or_reused_secret"
	KindConfirmationMismatch  Kind = "confirmation_mismatch"
	KindUnauthenticated       Kind = "unauthenticated"
	KindUnreachable           Kind = "unreachable"
	KindRegistrationRejected  Kind = "registration_rejected"
	KindRegistrationInvalid   Kind = "validation_error"
	KindInternal              Kind = "internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrAccountDisabled, KindAccountDisabled},
	{ErrCurrentSecretMismatch, KindCurrentSecretMismatch},
	{ErrCurrentSecretRequired, KindCurrentSecretRequired},
	{ErrWeakOrReusedSecret, KindWeakOrReusedSecret},
	{ErrConfirmationMismatch, KindConfirmationMismatch},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrNoSession, KindUnauthenticated},
	{ErrUnreachable, KindUnreachable},
	{ErrRegistrationRejected, KindRegistrationRejected},
	{ErrRegistrationInvalid, KindRegistrationInvalid},
}

// KindOf classifies err. Anything outside the taxonomy is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// UserMessage returns the advisory text shown for err. Connectivity problems
// are never reported as a wrong password.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindInvalidCredentials:
		return "Invalid email or password"
	case KindAccountDisabled:
		return "This account has been disabled. Please contact your administrator"
	case KindCurrentSecretMismatch:
		return "Current password is incorrect"
	case KindCurrentSecretRequired:
		return "Please enter your current password"
	case KindWeakOrReusedSecret:
		return weakSecretMessage(err)
	case KindConfirmationMismatch:
		return "New passwords do not match"
	case KindUnauthenticated:
		return "Your session has expired. Please sign in again"
	case KindUnreachable:
		return "The service is temporarily unavailable. Please try again shortly"
	case KindRegistrationRejected:
		var d *DetailError
		if errors.As(err, &d) && d.Detail != "" {
			return d.Detail
		}
		return "Registration failed"
	case KindRegistrationInvalid:
		return "Please correct the highlighted fields"
	default:
		return "Something went wrong. Please try again"
	}
}

// DetailError carries a human-readable detail from the remote service next to
// the sentinel it was classified as.
type DetailError struct {
	Err    error
	Detail string
}

func (e *DetailError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *DetailError) Unwrap() error { return e.Err }

// WithDetail wraps a sentinel with upstream detail.
func WithDetail(sentinel error, detail string) error {
	return &DetailError{Err: sentinel, Detail: detail}
}

// ValidationError reports field-level problems found before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d field(s)", ErrRegistrationInvalid.Error(), len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrRegistrationInvalid }
