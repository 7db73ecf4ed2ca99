package http

import (
	"net/http"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
)

// LoginRequest is the body of POST /v1/{audience}/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Redirect is the destination captured by the guard.
	Redirect string `json:"redirect,omitempty"`
}

// LoginResponse reports a login attempt. Redirect is where the browser
// should go next.
type LoginResponse struct {
	Success            bool             `json:"success"`
	MustChangePassword bool             `json:"must_change_password"`
	Error              string           `json:"error,omitempty"`
	Kind               domain.Kind      `json:"kind,omitempty"`
	Redirect           string           `json:"redirect,omitempty"`
	Session            *SessionResponse `json:"session,omitempty"`
}

// ChangePasswordRequest is the body of POST /v1/{audience}/change-password.
// CurrentPassword may be empty during a forced rotation right after login.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePasswordResponse reports a password change.
type ChangePasswordResponse struct {
	Success  bool        `json:"success"`
	Error    string      `json:"error,omitempty"`
	Kind     domain.Kind `json:"kind,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

// LogoutResponse confirms a logout.
type LogoutResponse struct {
	Status   string `json:"status"`
	Redirect string `json:"redirect"`
}

// SessionResponse is the current identity of one audience.
type SessionResponse struct {
	identity.Snapshot

	// CurrentPasswordCaptured tells the rotation form it may omit the
	// current password.
	CurrentPasswordCaptured bool `json:"current_password_captured"`
}

// RegisterResponse confirms a candidate registration. No session is created.
type RegisterResponse struct {
	Status string `json:"status"`
	Login  string `json:"login"`
}

// SurfaceResponse is the shell document of a rendered surface.
type SurfaceResponse struct {
	Surface  string          `json:"surface"`
	Path     string          `json:"path"`
	Audience domain.Audience `json:"audience"`
	Session  SessionResponse `json:"session"`
}

// HealthResponse is the body of /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks lists the dependencies /readyz looked at.
type HealthChecks struct {
	Database string `json:"database"`
	Upstream string `json:"upstream"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNone:
		return http.StatusOK
	case domain.KindInvalidCredentials, domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindAccountDisabled:
		return http.StatusForbidden
	case domain.KindCurrentSecretMismatch, domain.KindCurrentSecretRequired:
		return http.StatusBadRequest
	case domain.KindWeakOrReusedSecret, domain.KindConfirmationMismatch, domain.KindRegistrationInvalid:
		return http.StatusUnprocessableEntity
	case domain.KindRegistrationRejected:
		return http.StatusConflict
	case domain.KindUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
