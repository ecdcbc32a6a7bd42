package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a handler answering 200 while db is reachable.
func Health(db Pinger, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			log.Error("Health: database ping failed", "error", err.Error())
			response.Fail(w, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
		response.Success(w, http.StatusOK, "ok", nil)
	}
}
