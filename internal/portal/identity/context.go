// Package identity holds the per-audience authentication state machine.
//
// A Context is instantiated once per (browser client, audience). Staff and
// candidate contexts of the same client share nothing but the partitioned
// session store.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
	"github.com/aussiebroadwan/arbeit/pkg/cryptox"
	"github.com/aussiebroadwan/arbeit/pkg/jwtx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

// Verifier is the credential service port. It is the only component that
// transmits raw secrets.
type Verifier interface {
	Verify(ctx context.Context, aud domain.Audience, identifier, secret string) (domain.Grant, error)
	RotateCredential(ctx context.Context, aud domain.Audience, token, current, next string) (domain.Grant, error)
	Probe(ctx context.Context, aud domain.Audience, token string) (domain.Grant, error)
	Invalidate(ctx context.Context, aud domain.Audience, token string) error
}

// Binding ties a Context to its audience, its client and its collaborators.
type Binding struct {
	ClientID string
	Audience domain.Audience
	Verifier Verifier
	Records  store.SessionRecords
}

// Options tune a Context. Zero values pick the defaults.
type Options struct {
	// ProbeOnRestore confirms a persisted token with the backend before
	// trusting the cached profile.
	ProbeOnRestore bool

	// UpstreamTimeout bounds each backend call.
	UpstreamTimeout time.Duration

	// CapturedSecretTTL bounds how long the login secret is kept for a
	// forced rotation.
	CapturedSecretTTL time.Duration

	Now    func() time.Time
	Logger *slog.Logger
}

const (
	DefaultUpstreamTimeout   = 10 * time.Second
	DefaultCapturedSecretTTL = 15 * time.Minute
)

var errClosed = errors.New("identity: context closed")

// Context is the identity state machine for one audience.
type Context struct {
	b    Binding
	opts Options
	log  *slog.Logger

	// op serializes state-changing operations. Capacity one.
	op          chan struct{}
	settled     chan struct{}
	restoreOnce sync.Once

	mu       sync.RWMutex
	state    State
	identity *domain.Identity
	captured capturedSecret
	version  uint64
	closed   bool

	// orphaned is set while a record delete has failed and the record may
	// still be stored without an identity in memory.
	orphaned bool

	subs subscribers
}

type capturedSecret struct {
	value string
	at    time.Time
}

// New builds a Context in StateUnknown. Restore must be called once to
// settle it.
func New(b Binding, opts Options) *Context {
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if opts.CapturedSecretTTL <= 0 {
		opts.CapturedSecretTTL = DefaultCapturedSecretTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Context{
		b:       b,
		opts:    opts,
		log:     opts.Logger.With("client_id", b.ClientID),
		op:      make(chan struct{}, 1),
		settled: make(chan struct{}),
		state:   StateUnknown,
	}
}

// Audience returns the audience this context serves.
func (c *Context) Audience() domain.Audience { return c.b.Audience }

// ClientID returns the browser client this context belongs to.
func (c *Context) ClientID() string { return c.b.ClientID }

// Snapshot returns the current state without waiting.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	s := Snapshot{
		Audience: c.b.Audience,
		State:    c.state,
		Version:  c.version,
	}
	if c.identity != nil {
		p := c.identity.Profile
		s.Profile = &p
		s.Capabilities = domain.CapabilitiesFor(c.b.Audience, p.Role, true, c.identity.MustRotateCredential)
	}
	return s
}

// Settled reports whether the startup restore has completed.
func (c *Context) Settled() bool {
	select {
	case <-c.settled:
		return true
	default:
		return false
	}
}

// AwaitSettled blocks until the startup restore completes or ctx ends.
func (c *Context) AwaitSettled(ctx context.Context) error {
	select {
	case <-c.settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasCapturedSecret reports whether a forced rotation can reuse the login
// secret without prompting.
func (c *Context) HasCapturedSecret() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.capturedLocked()
	return ok
}

// acquire waits for the restore to settle, then takes the operation lock.
// A record left behind by a failed delete is retried first.
func (c *Context) acquire(ctx context.Context) error {
	if err := c.AwaitSettled(ctx); err != nil {
		return err
	}
	if err := c.lock(ctx); err != nil {
		return err
	}
	c.mu.RLock()
	retry := c.orphaned && c.identity == nil
	c.mu.RUnlock()
	if retry {
		c.clearRecord(ctx, "retry")
	}
	return nil
}

func (c *Context) lock(ctx context.Context) error {
	select {
	case c.op <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		c.release()
		return errClosed
	}
	return nil
}

func (c *Context) release() { <-c.op }

// upstream derives the context for a backend call. It is detached from the
// caller's cancellation so a late success is still settled.
func (c *Context) upstream(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.opts.UpstreamTimeout)
}

// logger combines the request logger with this context's attributes.
func (c *Context) logger(ctx context.Context) *slog.Logger {
	return slogx.FromContextOr(ctx, c.log).With("audience", c.b.Audience.String())
}

// transitionLocked installs a new identity and state and notifies
// subscribers. c.mu must be held for writing.
func (c *Context) transitionLocked(id *domain.Identity) {
	prev := c.state
	c.identity = id
	switch {
	case id == nil:
		c.state = StateAnonymous
	case id.MustRotateCredential:
		c.state = StatePendingRotation
	default:
		c.state = StateAuthenticated
	}
	if c.state != StatePendingRotation {
		c.captured = capturedSecret{}
	}
	c.version++
	c.subs.publish(c.snapshotLocked())

	if prev != c.state {
		c.log.Debug("identity transition",
			"audience", c.b.Audience.String(),
			"from", prev.String(),
			"to", c.state.String(),
		)
	}
}

func (c *Context) capturedLocked() (string, bool) {
	if c.captured.value == "" {
		return "", false
	}
	if c.opts.Now().Sub(c.captured.at) > c.opts.CapturedSecretTTL {
		return "", false
	}
	return c.captured.value, true
}

// recordFor mirrors id into a session record with an expiry hint.
func (c *Context) recordFor(id domain.Identity) domain.SessionRecord {
	rec := domain.NewSessionRecord(c.b.ClientID, id, c.opts.Now().UTC())
	if exp, ok := jwtx.ExpiryHint(id.SessionToken); ok {
		exp = exp.UTC()
		rec.TokenExpiresAt = &exp
	}
	return rec
}

// persist writes the record for id. It outlives the caller's cancellation
// so that a settled state always has its record.
func (c *Context) persist(ctx context.Context, id domain.Identity) error {
	if err := c.b.Records.Put(context.WithoutCancel(ctx), c.recordFor(id)); err != nil {
		return err
	}
	c.setOrphaned(false)
	return nil
}

func (c *Context) key() domain.SessionKey {
	return domain.SessionKey{ClientID: c.b.ClientID, Audience: c.b.Audience}
}

// clearRecord deletes the persisted record. The in-memory identity is
// cleared regardless; a failed delete is retried by the next operation and
// by Close.
func (c *Context) clearRecord(ctx context.Context, reason string) {
	err := c.b.Records.Delete(context.WithoutCancel(ctx), c.key())
	if err != nil {
		c.logger(ctx).Error("failed to clear session record", "reason", reason, "error", err)
	}
	c.setOrphaned(err != nil)
}

func (c *Context) setOrphaned(v bool) {
	c.mu.Lock()
	c.orphaned = v
	c.mu.Unlock()
}

// Close detaches every subscriber. Pending operations finish; later ones
// fail. A record whose delete failed earlier gets one more attempt.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.captured = capturedSecret{}
	c.subs.closeAll()
	retry := c.orphaned && c.identity == nil
	c.mu.Unlock()

	if retry {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.UpstreamTimeout)
		defer cancel()
		c.clearRecord(ctx, "close")
	}
}

func fingerprint(id *domain.Identity) string {
	if id == nil {
		return ""
	}
	return cryptox.FingerprintToken(id.SessionToken)
}
