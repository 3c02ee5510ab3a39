package api

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/session"
)

// handleSessionLive streams metrics snapshots over a websocket at the
// configured tick rate. The stream ends after the completed snapshot is sent,
// when the session disappears, or when the client goes away.
func (s *Server) handleSessionLive(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	id := chi.URLParam(r, "id")
	log := logger.FromContext(r.Context())

	if _, err := s.SessionService.Metrics(r.Context(), profile.ID, id); err != nil {
		handleError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn("websocket accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	// Reads are discarded; the returned context closes when the client is gone.
	ctx := conn.CloseRead(r.Context())

	tick := s.LiveTick
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		metrics, err := s.SessionService.Metrics(ctx, profile.ID, id)
		if err != nil {
			conn.Close(websocket.StatusNormalClosure, "session gone")
			return
		}
		if err := wsjson.Write(ctx, conn, metrics); err != nil {
			return
		}
		if metrics.State == session.StateCompleted.String() {
			conn.Close(websocket.StatusNormalClosure, "completed")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
