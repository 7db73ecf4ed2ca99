package guard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/pkg/httpx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

// DefaultRestoreWait bounds how long a surface request waits for the startup
// restore before answering with a loading response.
const DefaultRestoreWait = 2 * time.Second

// Lookup returns the identity context of aud for the request's client. It
// returns nil when the request carries no client.
type Lookup func(r *http.Request, aud domain.Audience) *identity.Context

// RenderFunc writes a surface the guard let through.
type RenderFunc func(w http.ResponseWriter, r *http.Request, s Surface, snap identity.Snapshot)

// Guard enforces surface access over HTTP.
type Guard struct {
	Lookup      Lookup
	RestoreWait time.Duration
}

// Protect wraps render so it only runs when Evaluate allows it.
func (g *Guard) Protect(s Surface, render RenderFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := g.snapshot(r, s.Audience)
		d := Evaluate(s, snap, r.URL.RequestURI())

		slogx.FromContext(r.Context()).Debug("guard decision",
			"surface", s.Name,
			"state", snap.State.String(),
			"outcome", d.Outcome.String(),
		)

		switch d.Outcome {
		case OutcomeLoading:
			w.Header().Set("Retry-After", strconv.Itoa(1))
			httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
				"status":  "loading",
				"surface": s.Name,
			})
		case OutcomeRedirect:
			w.Header().Set("Location", d.Location)
			httpx.WriteJSON(w, http.StatusSeeOther, map[string]string{
				"status":   "redirect",
				"location": d.Location,
			})
		case OutcomeForbidden:
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "Your role does not grant access to this page")
		default:
			render(w, r, s, snap)
		}
	})
}

func (g *Guard) snapshot(r *http.Request, aud domain.Audience) identity.Snapshot {
	c := g.Lookup(r, aud)
	if c == nil {
		return identity.Snapshot{Audience: aud, State: identity.StateAnonymous}
	}

	wait := g.RestoreWait
	if wait <= 0 {
		wait = DefaultRestoreWait
	}
	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()
	_ = c.AwaitSettled(ctx)

	return c.Snapshot()
}
