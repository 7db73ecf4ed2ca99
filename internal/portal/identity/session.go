package identity

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
)

// Logout clears the identity and its record. It always succeeds locally and
// is safe from any state; the backend is told on a best-effort basis.
func (c *Context) Logout(ctx context.Context) {
	log := c.logger(ctx)
	detached := context.WithoutCancel(ctx)

	if err := c.acquire(detached); err != nil {
		// Only a closed context ends up here; it holds nothing to clear.
		return
	}

	c.mu.RLock()
	prev := c.identity
	c.mu.RUnlock()

	// Cleared even when nothing is in memory, so a stray record cannot
	// outlive a logout.
	c.clearRecord(ctx, "logout")
	if prev != nil {
		c.mu.Lock()
		c.transitionLocked(nil)
		c.mu.Unlock()
	}
	c.release()

	if prev == nil {
		return
	}
	log.Info("logged out", "subject_id", prev.SubjectID, "token_fp", fingerprint(prev))

	callCtx, cancel := c.upstream(ctx)
	defer cancel()
	if err := c.b.Verifier.Invalidate(callCtx, c.b.Audience, prev.SessionToken); err != nil {
		log.Warn("backend logout notification failed", "error", err)
	}
}

// Do runs an authenticated call with the current token. If the call reports
// domain.ErrUnauthenticated the session is treated as expired. Calls are not
// serialized with each other.
func (c *Context) Do(ctx context.Context, fn func(ctx context.Context, token string) error) error {
	if err := c.AwaitSettled(ctx); err != nil {
		return err
	}

	c.mu.RLock()
	state := c.state
	var token string
	if c.identity != nil {
		token = c.identity.SessionToken
	}
	c.mu.RUnlock()

	if state != StateAuthenticated {
		return domain.ErrNoSession
	}

	err := fn(ctx, token)
	if errors.Is(err, domain.ErrUnauthenticated) {
		c.Expire(ctx, token)
	}
	return err
}

// Expire performs the lazy expiry transition if token is still the current
// one. A stale failure never logs out a newer session.
func (c *Context) Expire(ctx context.Context, token string) {
	detached := context.WithoutCancel(ctx)
	if err := c.acquire(detached); err != nil {
		return
	}
	defer c.release()
	c.expireLocked(ctx, token)
}

// expireLocked requires the operation lock.
func (c *Context) expireLocked(ctx context.Context, token string) {
	c.mu.RLock()
	current := c.identity
	c.mu.RUnlock()

	if current == nil || current.SessionToken != token {
		return
	}
	c.logger(ctx).Info("session expired", "token_fp", fingerprint(current))
	c.clearRecord(ctx, "expired")

	c.mu.Lock()
	c.transitionLocked(nil)
	c.mu.Unlock()
}

// RefreshProfile refetches the profile for the current token.
func (c *Context) RefreshProfile(ctx context.Context) (Snapshot, error) {
	log := c.logger(ctx)

	if err := c.acquire(ctx); err != nil {
		return Snapshot{}, err
	}
	defer c.release()

	c.mu.RLock()
	var id domain.Identity
	has := c.identity != nil
	if has {
		id = *c.identity
	}
	c.mu.RUnlock()
	if !has {
		return c.Snapshot(), domain.ErrNoSession
	}

	callCtx, cancel := c.upstream(ctx)
	grant, err := c.b.Verifier.Probe(callCtx, c.b.Audience, id.SessionToken)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.expireLocked(ctx, id.SessionToken)
		} else {
			log.Warn("profile refresh failed", "error", err)
		}
		return c.Snapshot(), err
	}

	mustRotate := id.MustRotateCredential || grant.MustRotateCredential
	updated := id.Merge(grant)
	updated.MustRotateCredential = mustRotate
	if err := c.persist(ctx, updated); err != nil {
		log.Error("failed to persist refreshed profile", "error", err)
		return c.Snapshot(), err
	}

	c.mu.Lock()
	c.transitionLocked(&updated)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	return snap, nil
}
