package http

import (
	"net/http"

	"github.com/aussiebroadwan/arbeit/internal/portal/guard"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/pkg/httpx"
)

// renderSurface writes the shell document of a surface the guard let
// through.
func renderSurface(w http.ResponseWriter, r *http.Request, s guard.Surface, snap identity.Snapshot) {
	httpx.WriteJSON(w, http.StatusOK, SurfaceResponse{
		Surface:  s.Name,
		Path:     s.Path,
		Audience: s.Audience,
		Session:  SessionResponse{Snapshot: snap},
	})
}
