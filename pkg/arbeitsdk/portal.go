package arbeitsdk

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoRegistration is returned by Register for audiences without a
// registration endpoint.
var ErrNoRegistration = errors.New("arbeitsdk: audience has no registration endpoint")

// Login exchanges an email and password for an access token.
func (p *PortalClient) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	resp, err := p.client.doRequest(ctx, http.MethodPost, p.endpoints.Login, req, "")
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword rotates the password of the token's owner.
func (p *PortalClient) ChangePassword(ctx context.Context, token string, req ChangePasswordRequest) (*AuthResponse, error) {
	resp, err := p.client.doRequest(ctx, http.MethodPost, p.endpoints.ChangePassword, req, token)
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the profile of the token's owner.
func (p *PortalClient) Me(ctx context.Context, token string) (*User, error) {
	resp, err := p.client.doRequest(ctx, http.MethodGet, p.endpoints.Me, nil, token)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend the token is no longer in use.
func (p *PortalClient) Logout(ctx context.Context, token string) error {
	resp, err := p.client.doRequest(ctx, http.MethodPost, p.endpoints.Logout, nil, token)
	if err != nil {
		return err
	}
	return checkStatusOK(resp)
}

// Register creates a candidate account. It never returns a token.
func (p *PortalClient) Register(ctx context.Context, req RegisterRequest) error {
	if p.endpoints.Register == "" {
		return ErrNoRegistration
	}
	resp, err := p.client.doRequest(ctx, http.MethodPost, p.endpoints.Register, req, "")
	if err != nil {
		return err
	}
	return checkStatusOK(resp)
}
