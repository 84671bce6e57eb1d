package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/estatecrm/internal/core"
	"github.com/JonMunkholm/estatecrm/internal/logging"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status   string             `json:"status"`
	Database string             `json:"database"`
	Imports  core.LimiterStatus `json:"imports"`
}

// handleHealth reports 503 when the database does not answer a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "skipped",
		Imports:  s.service.LimiterStatus(),
	}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		resp.Database = "ok"
		if err := s.db.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health check: database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, r, status, resp)
}
