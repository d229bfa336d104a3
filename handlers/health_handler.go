package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/udehnih/review-rating/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	clock  clock.Clock
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// service runs without storage.
func NewHealthHandler(db *sql.DB, clk clock.Clock, logger *zap.Logger) *HealthHandler {
	if clk == nil {
		clk = clock.WallClock
	}
	return &HealthHandler{
		db:     db,
		clock:  clk,
		logger: logger,
	}
}

// HandleHealth handles GET /health. It answers as long as the process runs.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now(),
	})
}

// HandleReadiness handles GET /health/ready
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"database": "healthy"}
	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		_ = utils.WriteServiceUnavailable(w, HealthResponse{
			Status:    "unhealthy",
			Timestamp: h.now(),
			Checks:    checks,
		})
		return
	}

	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now(),
		Checks:    checks,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	if err := h.db.PingContext(ctx); err != nil {
		return err
	}
	var one int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func (h *HealthHandler) now() string {
	return h.clock.Now().UTC().Format(time.RFC3339)
}
