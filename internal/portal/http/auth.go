package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/guard"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
	"github.com/aussiebroadwan/arbeit/pkg/httpx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

// AuthHandler serves the session endpoints of one audience.
type AuthHandler struct {
	Audience    domain.Audience
	Workspaces  *service.Workspaces
	RestoreWait time.Duration
}

// identityContext returns the request client's context for h.Audience, or
// writes an error and returns nil.
func (h *AuthHandler) identityContext(w http.ResponseWriter, r *http.Request) *identity.Context {
	return contextFor(w, r, h.Workspaces, h.Audience)
}

func contextFor(w http.ResponseWriter, r *http.Request, ws *service.Workspaces, aud domain.Audience) *identity.Context {
	clientID := httpx.ClientIDFromContext(r.Context())
	if clientID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "missing client identity")
		return nil
	}
	wk := ws.Get(r.Context(), clientID)
	if wk == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return nil
	}
	return wk.Context(aud)
}

func sessionOf(c *identity.Context) SessionResponse {
	return SessionResponse{
		Snapshot:                c.Snapshot(),
		CurrentPasswordCaptured: c.HasCapturedSecret(),
	}
}

// HandleLogin godoc
//
//	@Summary		Sign in
//	@Description	Verifies credentials with the identity service and installs the session for this browser.
//	@Description	A provisional credential yields must_change_password=true and a redirect to the rotation surface.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			audience	path		string			true	"staff or candidate"
//	@Param			body		body		LoginRequest	true	"Credentials"
//	@Success		200			{object}	LoginResponse
//	@Failure		400			{object}	httpx.ErrorBody
//	@Failure		401			{object}	LoginResponse	"invalid credentials"
//	@Failure		403			{object}	LoginResponse	"account disabled"
//	@Failure		429			{object}	httpx.ErrorBody
//	@Failure		503			{object}	LoginResponse	"identity service unreachable"
//	@Router			/v1/{audience}/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	c := h.identityContext(w, r)
	if c == nil {
		return
	}

	res := c.Login(r.Context(), req.Email, req.Password)
	if !res.Success {
		httpx.WriteJSON(w, statusFor(res.Kind), LoginResponse{Error: res.Error, Kind: res.Kind})
		return
	}

	// A caller that went away gets nothing; the settled state stands and the
	// guard evaluates it fresh on the next surface request.
	if r.Context().Err() != nil {
		return
	}

	routes := guard.RoutesFor(h.Audience)
	redirect := guard.SafeRedirect(h.Audience, req.Redirect)
	if res.MustChangePassword {
		redirect = routes.Rotation
	}

	session := sessionOf(c)
	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:            true,
		MustChangePassword: res.MustChangePassword,
		Redirect:           redirect,
		Session:            &session,
	})
}

// HandleChangePassword godoc
//
//	@Summary		Change password
//	@Description	Rotates the password of the signed-in identity. During a forced rotation right after login
//	@Description	current_password may be omitted; the password typed at login is used.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			audience	path		string					true	"staff or candidate"
//	@Param			body		body		ChangePasswordRequest	true	"Passwords"
//	@Success		200			{object}	ChangePasswordResponse
//	@Failure		400			{object}	ChangePasswordResponse	"current password wrong or required"
//	@Failure		401			{object}	ChangePasswordResponse	"no session"
//	@Failure		422			{object}	ChangePasswordResponse	"weak, reused or unconfirmed password"
//	@Failure		503			{object}	ChangePasswordResponse	"identity service unreachable"
//	@Router			/v1/{audience}/change-password [post].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	c := h.identityContext(w, r)
	if c == nil {
		return
	}

	res := c.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if !res.Success {
		httpx.WriteJSON(w, statusFor(res.Kind), ChangePasswordResponse{Error: res.Error, Kind: res.Kind})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ChangePasswordResponse{
		Success:  true,
		Redirect: guard.RoutesFor(h.Audience).Home,
	})
}

// HandleLogout godoc
//
//	@Summary		Sign out
//	@Description	Clears the session of this audience. Always succeeds; the identity service is notified on a best-effort basis.
//	@Tags			Session
//	@Produce		json
//	@Param			audience	path		string	true	"staff or candidate"
//	@Success		200			{object}	LogoutResponse
//	@Router			/v1/{audience}/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	c := h.identityContext(w, r)
	if c == nil {
		return
	}

	c.Logout(r.Context())

	httpx.WriteJSON(w, http.StatusOK, LogoutResponse{
		Status:   "logged_out",
		Redirect: guard.RoutesFor(h.Audience).Login,
	})
}

// HandleSession godoc
//
//	@Summary		Current session
//	@Description	Returns the identity state and capability flags of this audience. While the startup restore is
//	@Description	still running the response is 202 with state "unknown".
//	@Tags			Session
//	@Produce		json
//	@Param			audience	path		string	true	"staff or candidate"
//	@Success		200			{object}	SessionResponse
//	@Success		202			{object}	SessionResponse	"restore in progress"
//	@Router			/v1/{audience}/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	c := h.identityContext(w, r)
	if c == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.restoreWait())
	defer cancel()
	if err := c.AwaitSettled(ctx); err != nil {
		w.Header().Set("Retry-After", "1")
		httpx.WriteJSON(w, http.StatusAccepted, sessionOf(c))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionOf(c))
}

// HandleRefresh godoc
//
//	@Summary		Refresh profile
//	@Description	Refetches the profile of the signed-in identity from the identity service.
//	@Tags			Session
//	@Produce		json
//	@Param			audience	path		string	true	"staff or candidate"
//	@Success		200			{object}	SessionResponse
//	@Failure		401			{object}	httpx.ErrorBody	"no session or session expired"
//	@Failure		503			{object}	httpx.ErrorBody	"identity service unreachable"
//	@Router			/v1/{audience}/session/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	c := h.identityContext(w, r)
	if c == nil {
		return
	}

	if _, err := c.RefreshProfile(r.Context()); err != nil {
		kind := domain.KindOf(err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = domain.KindUnreachable
		}
		if kind == domain.KindInternal {
			slogx.FromContext(r.Context()).Error("profile refresh failed", "error", err)
		}
		httpx.WriteError(w, statusFor(kind), string(kind), domain.UserMessage(err))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionOf(c))
}

func (h *AuthHandler) restoreWait() time.Duration {
	if h.RestoreWait > 0 {
		return h.RestoreWait
	}
	return guard.DefaultRestoreWait
}
