package http

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

type healthStatus struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	NATS     string `json:"nats"`
}

// Health handles GET /health. It answers 503 when Postgres is unreachable;
// NATS is optional and only reported.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	st := healthStatus{Status: "ok", Postgres: "ok", NATS: "disabled"}
	code := http.StatusOK
	if err := h.Store.Ping(ctx); err != nil {
		st.Status, st.Postgres = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}
	if h.Queue != nil {
		st.NATS = "connected"
		if !h.Queue.IsConnected() {
			st.NATS = "disconnected"
		}
	}
	writeJSON(w, code, st)
}
