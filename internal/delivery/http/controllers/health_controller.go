package controllers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"devevents/internal/delivery/http/helpers"
)

const healthTimeout = 2 * time.Second

// Connector hands out the shared database handle.
type Connector interface {
	Acquire(ctx context.Context) (*sql.DB, error)
}

type HealthController struct {
	Logger *slog.Logger
	Conn   Connector
}

func NewHealthController(logger *slog.Logger, conn Connector) *HealthController {
	return &HealthController{Logger: logger, Conn: conn}
}

// Healthz godoc
// @Summary Health check
// @Description Reports whether the database can be reached.
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /healthz [get]
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	db, err := c.Conn.Acquire(ctx)
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err != nil {
		c.Logger.WarnContext(r.Context(), "health check failed", "err", err)
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeServiceUnavailable, "database is unavailable")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
