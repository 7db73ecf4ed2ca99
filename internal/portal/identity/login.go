package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
)

// Login verifies credentials and, on success, persists and installs the
// identity. Failures leave the state unchanged.
func (c *Context) Login(ctx context.Context, identifier, secret string) LoginResult {
	log := c.logger(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return loginFailure(domain.ErrInvalidCredentials)
	}

	if err := c.acquire(ctx); err != nil {
		log.Warn("login abandoned before start", "error", err)
		return loginFailure(err)
	}
	defer c.release()

	callCtx, cancel := c.upstream(ctx)
	grant, err := c.b.Verifier.Verify(callCtx, c.b.Audience, identifier, secret)
	cancel()
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnreachable):
			log.Warn("login failed: identity service unreachable", "error", err)
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrAccountDisabled):
			log.Info("login rejected", "kind", string(domain.KindOf(err)))
		default:
			log.Error("login failed", "error", err)
		}
		return loginFailure(err)
	}

	id := grant.Identity(c.b.Audience)
	if err := c.persist(ctx, id); err != nil {
		log.Error("failed to persist session record", "error", err)
		return loginFailure(err)
	}

	c.mu.Lock()
	c.transitionLocked(&id)
	if id.MustRotateCredential {
		c.captured = capturedSecret{value: secret, at: c.opts.Now()}
	}
	c.mu.Unlock()

	log.Info("login succeeded",
		"subject_id", id.SubjectID,
		"must_rotate", id.MustRotateCredential,
		"token_fp", fingerprint(&id),
	)

	return LoginResult{Success: true, MustChangePassword: id.MustRotateCredential}
}
