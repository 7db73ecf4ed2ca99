package identity

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
)

// Restore resolves StateUnknown from the persisted session record. Only the
// first call does any work; later calls wait for it.
func (c *Context) Restore(ctx context.Context) {
	c.restoreOnce.Do(func() {
		// Restore must settle even when the triggering request goes away.
		c.restore(context.WithoutCancel(ctx))
	})
	_ = c.AwaitSettled(ctx)
}

func (c *Context) restore(ctx context.Context) {
	log := c.logger(ctx)
	defer close(c.settled)

	if err := c.lock(ctx); err != nil {
		c.mu.Lock()
		c.transitionLocked(nil)
		c.mu.Unlock()
		return
	}
	defer c.release()

	id := c.resolve(ctx)

	c.mu.Lock()
	c.transitionLocked(id)
	state := c.state
	c.mu.Unlock()

	log.Info("session restored", "state", state.String(), "token_fp", fingerprint(id))
}

// resolve returns the identity the record supports, or nil.
func (c *Context) resolve(ctx context.Context) *domain.Identity {
	log := c.logger(ctx)

	rec, err := c.b.Records.Get(ctx, c.key())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case errors.Is(err, store.ErrUnreadable):
		log.Warn("discarding unreadable session record", "error", err)
		c.clearRecord(ctx, "unreadable")
		return nil
	case err != nil:
		// Settling anonymous over a record that is still stored would bring
		// the session back on the next restore.
		log.Error("failed to read session record", "error", err)
		c.clearRecord(ctx, "read_failed")
		return nil
	}

	id := rec.Identity()
	if !c.opts.ProbeOnRestore {
		return &id
	}

	callCtx, cancel := c.upstream(ctx)
	defer cancel()

	grant, err := c.b.Verifier.Probe(callCtx, c.b.Audience, id.SessionToken)
	switch {
	case err == nil:
		// Only a successful rotation clears the flag.
		mustRotate := id.MustRotateCredential || grant.MustRotateCredential
		id = id.Merge(grant)
		id.MustRotateCredential = mustRotate
		if err := c.persist(ctx, id); err != nil {
			log.Error("failed to refresh session record", "error", err)
		}
		return &id

	case errors.Is(err, domain.ErrUnauthenticated):
		log.Info("persisted session rejected by backend", "token_fp", fingerprint(&id))
		c.clearRecord(ctx, "expired")
		return nil

	default:
		// Backend down: trust the cached record, the next authenticated
		// call detects expiry lazily.
		log.Warn("liveness probe failed, trusting cached session", "error", err)
		return &id
	}
}
