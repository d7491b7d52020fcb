package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// SnapshotRunner executes one reconciliation pass synchronously.
type SnapshotRunner interface {
	RunOnce(ctx context.Context) (domain.PortfolioSnapshot, error)
}

// PortfolioHandler serves the operator "run now" entry point.
type PortfolioHandler struct {
	runner SnapshotRunner
	logger *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler driving the given runner.
func NewPortfolioHandler(runner SnapshotRunner, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		runner: runner,
		logger: logHandler(logger, "portfolio"),
	}
}

// TakeSnapshot runs one reconciliation pass and returns the committed
// snapshot. The pass shares the same mutual-exclusion boundary as the
// scheduled path, so the two can never interleave.
// POST /api/portfolio/snapshot
func (h *PortfolioHandler) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.runner.RunOnce(r.Context())
	if err != nil {
		h.logger.Error("manual snapshot failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"snapshot_id": snap.ID,
		"total_value": snap.TotalValue,
	})
}
