package domain

import "errors"

// MinSecretLength is the shortest password the portal will submit.
const MinSecretLength = 6

var (
	errSecretEmpty     = errors.New("new password is required")
	errSecretTooShort  = errors.New("password must be at least 6 characters")
	errSecretUnchanged = errors.New("new password must be different from current password")
)

// ValidateNewSecret applies the local rotation rules. Violations wrap
// ErrWeakOrReusedSecret.
func ValidateNewSecret(current, next string) error {
	switch {
	case next == "":
		return &DetailError{Err: ErrWeakOrReusedSecret, Detail: errSecretEmpty.Error()}
	case len(next) < MinSecretLength:
		return &DetailError{Err: ErrWeakOrReusedSecret, Detail: errSecretTooShort.Error()}
	case next == current:
		return &DetailError{Err: ErrWeakOrReusedSecret, Detail: errSecretUnchanged.Error()}
	}
	return nil
}

// ValidateConfirmation checks the repeated new password typed on the rotation
// form.
func ValidateConfirmation(next, confirm string) error {
	if next != confirm {
		return ErrConfirmationMismatch
	}
	return nil
}

func weakSecretMessage(err error) string {
	var d *DetailError
	if errors.As(err, &d) && d.Detail != "" {
		switch d.Detail {
		case errSecretEmpty.Error():
			return "New password is required"
		case errSecretTooShort.Error():
			return "Password must be at least 6 characters"
		case errSecretUnchanged.Error():
			return "New password must be different from current password"
		}
	}
	return "Password must be at least 6 characters and different from the current one"
}
