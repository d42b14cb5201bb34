package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
)

const streamWriteTimeout = 5 * time.Second

// StreamState serves GET /ws/state: the current snapshot on connect, then one
// snapshot per controller update. Intermediate updates may be coalesced.
func (h *Handler) StreamState(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.allowedOrigins),
	})
	if err != nil {
		h.logger.Warn("failed to accept websocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			h.logger.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	updates, cancel := h.ctrl.Subscribe()
	defer cancel()

	// Clients only listen; CloseRead cancels ctx once the peer goes away.
	ctx := ws.CloseRead(r.Context())

	if err := writeJSON(ctx, ws, h.ctrl.Snapshot()); err != nil {
		h.logger.Debug("failed to write initial snapshot", "error", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			if err := writeJSON(ctx, ws, s); err != nil {
				h.logger.Debug("failed to write snapshot", "version", s.Version, "error", err)
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}

// originPatterns converts configured origins to the host patterns the
// websocket handshake matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}
