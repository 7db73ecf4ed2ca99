package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
)

// DefaultIdleTTL is how long a workspace stays resident without requests.
const DefaultIdleTTL = 30 * time.Minute

// Workspace is the pair of identity contexts owned by one browser client.
type Workspace struct {
	ClientID string

	contexts map[domain.Audience]*identity.Context
	lastSeen atomic.Int64
}

// Context returns the identity context of aud.
func (w *Workspace) Context(aud domain.Audience) *identity.Context {
	return w.contexts[aud]
}

func (w *Workspace) touch(now time.Time) { w.lastSeen.Store(now.UnixNano()) }

func (w *Workspace) idleSince() time.Time { return time.Unix(0, w.lastSeen.Load()) }

func (w *Workspace) subscribers() int {
	n := 0
	for _, c := range w.contexts {
		n += c.Subscribers()
	}
	return n
}

func (w *Workspace) close() {
	for _, c := range w.contexts {
		c.Close()
	}
}

// WorkspacesConfig wires the collaborators every identity context gets.
type WorkspacesConfig struct {
	Verifier identity.Verifier
	Records  store.SessionRecords
	Options  identity.Options
	IdleTTL  time.Duration
	Logger   *slog.Logger
}

// Workspaces is the registry of resident client workspaces.
type Workspaces struct {
	cfg WorkspacesConfig
	now func() time.Time

	mu     sync.Mutex
	byID   map[string]*Workspace
	closed bool

	wg sync.WaitGroup
}

// NewWorkspaces builds an empty registry.
func NewWorkspaces(cfg WorkspacesConfig) *Workspaces {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	now := cfg.Options.Now
	if now == nil {
		now = time.Now
	}
	return &Workspaces{
		cfg:  cfg,
		now:  now,
		byID: make(map[string]*Workspace),
	}
}

// Get returns the workspace of clientID, creating it when needed. A new
// workspace starts restoring both audiences in the background. Get returns
// nil once the registry is closed.
func (ws *Workspaces) Get(ctx context.Context, clientID string) *Workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.closed {
		return nil
	}
	if w, ok := ws.byID[clientID]; ok {
		w.touch(ws.now())
		return w
	}

	w := &Workspace{
		ClientID: clientID,
		contexts: make(map[domain.Audience]*identity.Context, 2),
	}
	w.touch(ws.now())

	for _, aud := range domain.Audiences() {
		c := identity.New(identity.Binding{
			ClientID: clientID,
			Audience: aud,
			Verifier: ws.cfg.Verifier,
			Records:  ws.cfg.Records,
		}, ws.cfg.Options)
		w.contexts[aud] = c
		ws.start(ctx, c)
	}

	ws.byID[clientID] = w
	return w
}

// start restores c and follows its transitions for the audit log.
func (ws *Workspaces) start(ctx context.Context, c *identity.Context) {
	detached := context.WithoutCancel(ctx)
	updates, _ := c.Subscribe(context.Background())

	ws.wg.Add(2)
	go func() {
		defer ws.wg.Done()
		c.Restore(detached)
	}()
	go func() {
		defer ws.wg.Done()
		ws.audit(c, updates)
	}()
}

// audit logs every state change until the context closes.
func (ws *Workspaces) audit(c *identity.Context, updates <-chan identity.Snapshot) {
	log := ws.cfg.Logger.With("client_id", c.ClientID(), "audience", c.Audience().String())

	last := identity.StateUnknown
	for snap := range updates {
		if snap.State == last {
			continue
		}
		attrs := []any{"from", last.String(), "to", snap.State.String(), "version", snap.Version}
		if snap.Profile != nil {
			attrs = append(attrs, "subject_id", snap.Profile.SubjectID)
		}
		log.Info("identity state changed", attrs...)
		last = snap.State
	}
}

// Lookup returns the resident workspace of clientID without creating one.
func (ws *Workspaces) Lookup(clientID string) (*Workspace, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.byID[clientID]
	return w, ok
}

// Len returns the number of resident workspaces.
func (ws *Workspaces) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.byID)
}

// EvictIdle closes workspaces that saw no request for IdleTTL and have no
// live subscribers. Their records stay, so the client restores on return.
func (ws *Workspaces) EvictIdle(now time.Time) int {
	cutoff := now.Add(-ws.cfg.IdleTTL)

	ws.mu.Lock()
	var evicted []*Workspace
	for id, w := range ws.byID {
		// Each context carries its own audit subscriber.
		if w.idleSince().After(cutoff) || w.subscribers() > len(w.contexts) {
			continue
		}
		delete(ws.byID, id)
		evicted = append(evicted, w)
	}
	ws.mu.Unlock()

	for _, w := range evicted {
		w.close()
	}
	return len(evicted)
}

// PurgeNonResident calls purge with the keys whose client has no resident
// workspace. No workspace can be created while purge runs, so a returning
// client never restores a half-deleted record.
func (ws *Workspaces) PurgeNonResident(keys []domain.SessionKey, purge func([]domain.SessionKey) error) (int, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	var victims []domain.SessionKey
	for _, k := range keys {
		if _, resident := ws.byID[k.ClientID]; !resident {
			victims = append(victims, k)
		}
	}
	if len(victims) == 0 {
		return 0, nil
	}
	if err := purge(victims); err != nil {
		return 0, err
	}
	return len(victims), nil
}

// Close closes every workspace and waits for their background work.
func (ws *Workspaces) Close() {
	ws.mu.Lock()
	ws.closed = true
	all := ws.byID
	ws.byID = make(map[string]*Workspace)
	ws.mu.Unlock()

	for _, w := range all {
		w.close()
	}
	ws.wg.Wait()
}
