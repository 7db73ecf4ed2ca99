package identity

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
)

// ChangePassword rotates the credential of the current identity. It is
// allowed from StatePendingRotation and, as a voluntary rotation, from
// StateAuthenticated.
//
// In a forced rotation the secret typed at the login that required it is
// always the one sent upstream; current may be empty, and any other value is
// rejected locally as a mismatch. That secret lives only in memory and only
// until it expires or the state changes. Once it has expired current must be
// supplied.
func (c *Context) ChangePassword(ctx context.Context, current, next, confirm string) ChangeResult {
	log := c.logger(ctx)

	// Confirmation is a form-level check and needs no state.
	if err := domain.ValidateConfirmation(next, confirm); err != nil {
		return changeFailure(err)
	}

	if err := c.acquire(ctx); err != nil {
		log.Warn("password change abandoned before start", "error", err)
		return changeFailure(err)
	}
	defer c.release()

	// Precondition is evaluated on the settled state, after any operation
	// that was in flight when this call was issued.
	c.mu.RLock()
	state := c.state
	var id domain.Identity
	if c.identity != nil {
		id = *c.identity
	}
	captured, hasCaptured := "", false
	if state == StatePendingRotation {
		captured, hasCaptured = c.capturedLocked()
	}
	c.mu.RUnlock()

	if state != StatePendingRotation && state != StateAuthenticated {
		return changeFailure(domain.ErrNoSession)
	}

	if hasCaptured {
		if current != "" && current != captured {
			log.Info("password change rejected", "kind", string(domain.KindCurrentSecretMismatch), "local", true)
			return changeFailure(domain.ErrCurrentSecretMismatch)
		}
		current = captured
	}

	if err := domain.ValidateNewSecret(current, next); err != nil {
		return changeFailure(err)
	}
	if current == "" {
		return changeFailure(domain.ErrCurrentSecretRequired)
	}

	callCtx, cancel := c.upstream(ctx)
	grant, err := c.b.Verifier.RotateCredential(callCtx, c.b.Audience, id.SessionToken, current, next)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.expireLocked(ctx, id.SessionToken)
		}
		switch {
		case errors.Is(err, domain.ErrUnreachable):
			log.Warn("password change failed: identity service unreachable", "error", err)
		default:
			log.Info("password change rejected", "kind", string(domain.KindOf(err)))
		}
		return changeFailure(err)
	}

	if grant.SubjectID == "" {
		grant.SubjectID = id.SubjectID
		grant.Profile = id.Profile
	}
	updated := id.Merge(grant)
	updated.MustRotateCredential = false

	if err := c.persist(ctx, updated); err != nil {
		// The backend already accepted the new secret, so the state moves on.
		log.Error("failed to persist rotated session", "error", err)
	}

	c.mu.Lock()
	c.transitionLocked(&updated)
	c.mu.Unlock()

	log.Info("password changed", "subject_id", updated.SubjectID, "forced", state == StatePendingRotation)
	return ChangeResult{Success: true}
}
