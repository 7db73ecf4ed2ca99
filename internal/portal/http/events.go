package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

// DefaultHeartbeat keeps idle event streams open through proxies.
const DefaultHeartbeat = 25 * time.Second

// HandleEvents godoc
//
//	@Summary		Session events
//	@Description	Server-sent event stream of identity snapshots for this audience. The current snapshot is sent
//	@Description	first; a slow reader skips intermediate states and always receives the latest one.
//	@Tags			Session
//	@Produce		text/event-stream
//	@Param			audience	path	string	true	"staff or candidate"
//	@Success		200
//	@Router			/v1/{audience}/session/events [get].
func (h *AuthHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	c := h.identityContext(w, r)
	if c == nil {
		return
	}
	log := slogx.FromContext(r.Context())
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Warn("event stream not supported", "error", err)
		return
	}

	updates, stop := c.Subscribe(r.Context())
	defer stop()

	heartbeat := time.NewTicker(DefaultHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				log.Error("failed to encode snapshot", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: identity\ndata: %s\n\n", snap.Version, data); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
