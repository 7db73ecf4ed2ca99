package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/pkg/arbeitsdk"
)

// Gateway adapts the backend SDK to the portal's credential verifier port.
// It performs no retries and keeps no state; secrets only pass through.
type Gateway struct {
	sdk     *arbeitsdk.SDKClient
	portals map[domain.Audience]*arbeitsdk.PortalClient
}

// New binds each audience to its endpoint family.
func New(sdk *arbeitsdk.SDKClient) *Gateway {
	return &Gateway{
		sdk: sdk,
		portals: map[domain.Audience]*arbeitsdk.PortalClient{
			domain.AudienceStaff:     sdk.Staff(),
			domain.AudienceCandidate: sdk.Candidate(),
		},
	}
}

func (g *Gateway) portal(aud domain.Audience) (*arbeitsdk.PortalClient, error) {
	p, ok := g.portals[aud]
	if !ok {
		return nil, fmt.Errorf("gateway: no endpoints for audience %q", aud)
	}
	return p, nil
}

// Verify exchanges an identifier and secret for a grant.
func (g *Gateway) Verify(ctx context.Context, aud domain.Audience, identifier, secret string) (domain.Grant, error) {
	p, err := g.portal(aud)
	if err != nil {
		return domain.Grant{}, err
	}

	resp, err := p.Login(ctx, arbeitsdk.LoginRequest{Email: identifier, Password: secret})
	if err != nil {
		return domain.Grant{}, mapError(err, loginStatus)
	}
	if resp.AccessToken == "" {
		return domain.Grant{}, fmt.Errorf("%w: login response carried no token", domain.ErrUnreachable)
	}
	return grantFromAuth(resp), nil
}

// RotateCredential replaces the secret of the token's owner. The local
// rules are checked first so a weak or reused secret never reaches the
// network.
func (g *Gateway) RotateCredential(ctx context.Context, aud domain.Audience, token, current, next string) (domain.Grant, error) {
	if err := domain.ValidateNewSecret(current, next); err != nil {
		return domain.Grant{}, err
	}
	if current == "" {
		return domain.Grant{}, domain.ErrCurrentSecretRequired
	}
	p, err := g.portal(aud)
	if err != nil {
		return domain.Grant{}, err
	}

	resp, err := p.ChangePassword(ctx, token, arbeitsdk.ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return domain.Grant{}, mapError(err, rotateStatus)
	}
	return grantFromAuth(resp), nil
}

// Probe fetches the current profile, proving the token is still accepted.
// The returned grant never carries a token.
func (g *Gateway) Probe(ctx context.Context, aud domain.Audience, token string) (domain.Grant, error) {
	p, err := g.portal(aud)
	if err != nil {
		return domain.Grant{}, err
	}

	user, err := p.Me(ctx, token)
	if err != nil {
		return domain.Grant{}, mapError(err, probeStatus)
	}
	return domain.Grant{
		SubjectID:            user.ID,
		Profile:              profileFromUser(*user),
		MustRotateCredential: user.MustChangePassword,
	}, nil
}

// Invalidate notifies the backend that the token is no longer used.
func (g *Gateway) Invalidate(ctx context.Context, aud domain.Audience, token string) error {
	p, err := g.portal(aud)
	if err != nil {
		return err
	}
	if err := p.Logout(ctx, token); err != nil {
		return mapError(err, probeStatus)
	}
	return nil
}

// RegisterCandidate submits a self-registration. It never yields a session.
func (g *Gateway) RegisterCandidate(ctx context.Context, draft domain.RegistrationDraft) error {
	p, err := g.portal(domain.AudienceCandidate)
	if err != nil {
		return err
	}
	err = p.Register(ctx, arbeitsdk.RegisterRequest{
		Name:            draft.Name,
		Email:           draft.Email,
		Password:        draft.Password,
		Phone:           draft.Phone,
		LinkedInURL:     draft.LinkedInURL,
		CurrentCompany:  draft.CurrentCompany,
		ExperienceYears: draft.ExperienceYears,
	})
	if err != nil {
		return mapError(err, registerStatus)
	}
	return nil
}

// Ping reports whether the backend answers its health check.
func (g *Gateway) Ping(ctx context.Context) error {
	if _, err := g.sdk.GetLiveness(ctx); err != nil {
		return mapError(err, func(int) error { return domain.ErrUnreachable })
	}
	return nil
}

func grantFromAuth(resp *arbeitsdk.AuthResponse) domain.Grant {
	return domain.Grant{
		SubjectID:            resp.User.ID,
		Profile:              profileFromUser(resp.User),
		SessionToken:         resp.AccessToken,
		MustRotateCredential: resp.MustChangePassword || resp.User.MustChangePassword,
	}
}

func profileFromUser(u arbeitsdk.User) domain.Profile {
	return domain.Profile{
		SubjectID: u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		ClientID:  u.ClientID,
	}
}

// mapError classifies an SDK error into the portal's error taxonomy. Codes
// in the body win; byStatus covers responses that only carry a status.
func mapError(err error, byStatus func(status int) error) error {
	if errors.Is(err, arbeitsdk.ErrTransport) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}

	var apiErr *arbeitsdk.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	if apiErr.IsServerError() || apiErr.StatusCode == http.StatusTooManyRequests {
		return domain.WithDetail(domain.ErrUnreachable, apiErr.Detail)
	}

	switch apiErr.Code {
	case arbeitsdk.ErrorCodeInvalidCredentials:
		return domain.WithDetail(domain.ErrInvalidCredentials, apiErr.Detail)
	case arbeitsdk.ErrorCodeAccountDisabled:
		return domain.WithDetail(domain.ErrAccountDisabled, apiErr.Detail)
	case arbeitsdk.ErrorCodeCurrentSecretMismatch:
		return domain.WithDetail(domain.ErrCurrentSecretMismatch, apiErr.Detail)
	case arbeitsdk.ErrorCodeUnauthenticated:
		return domain.WithDetail(domain.ErrUnauthenticated, apiErr.Detail)
	case arbeitsdk.ErrorCodeValidation:
		if sentinel := byStatus(http.StatusUnprocessableEntity); sentinel != nil {
			return domain.WithDetail(sentinel, apiErr.Detail)
		}
	}

	if sentinel := byStatus(apiErr.StatusCode); sentinel != nil {
		return domain.WithDetail(sentinel, apiErr.Detail)
	}
	return fmt.Errorf("gateway: unexpected response: %w", apiErr)
}

func loginStatus(status int) error {
	switch status {
	case http.StatusForbidden:
		return domain.ErrAccountDisabled
	default:
		return domain.ErrInvalidCredentials
	}
}

func rotateStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusUnprocessableEntity:
		return domain.ErrWeakOrReusedSecret
	case http.StatusBadRequest, http.StatusForbidden:
		return domain.ErrCurrentSecretMismatch
	}
	return nil
}

func probeStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthenticated
	}
	return nil
}

func registerStatus(status int) error {
	switch status {
	case http.StatusUnprocessableEntity:
		return domain.ErrRegistrationInvalid
	case http.StatusBadRequest, http.StatusConflict:
		return domain.ErrRegistrationRejected
	}
	return nil
}
