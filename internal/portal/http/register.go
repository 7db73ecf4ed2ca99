package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/guard"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
	"github.com/aussiebroadwan/arbeit/pkg/httpx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

type RegisterHandler struct {
	RegistrationService *service.RegistrationService
}

// ServeHTTP godoc
//
//	@Summary		Candidate self-registration
//	@Description	Creates a candidate account. No session is established; the candidate signs in afterwards.
//	@Tags			Candidate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		domain.RegistrationDraft	true	"Registration form"
//	@Success		201		{object}	RegisterResponse
//	@Failure		400		{object}	httpx.ErrorBody	"invalid_request"
//	@Failure		409		{object}	httpx.ErrorBody	"registration_rejected"
//	@Failure		422		{object}	httpx.ErrorBody	"validation_error with fields"
//	@Failure		503		{object}	httpx.ErrorBody	"identity service unreachable"
//	@Router			/v1/candidate/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var draft domain.RegistrationDraft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	err := h.RegistrationService.Register(r.Context(), draft)
	if err != nil {
		kind := domain.KindOf(err)

		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			httpx.WriteJSON(w, statusFor(kind), httpx.ErrorBody{
				Error:  string(kind),
				Detail: domain.UserMessage(err),
				Fields: verr.Fields,
			})
			return
		}

		if kind == domain.KindInternal {
			slogx.FromContext(r.Context()).Error("failed to register candidate", "error", err)
		}
		httpx.WriteError(w, statusFor(kind), string(kind), domain.UserMessage(err))
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Status: "registered",
		Login:  guard.RoutesFor(domain.AudienceCandidate).Login,
	})
}
