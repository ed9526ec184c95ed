package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/internal/engine"
	"github.com/minho/argos/pkg/logger"
)

// StatusHandler serves read-only snapshots of the decision engine
// 엔진 상태를 바꾸는 엔드포인트는 없음 (조회 전용)
type StatusHandler struct {
	engine *engine.Engine
	repo   *engine.Repository // nil이면 승인 이력 조회 비활성
	logger *logger.Logger
}

// NewStatusHandler creates the status handler
func NewStatusHandler(eng *engine.Engine, repo *engine.Repository, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		engine: eng,
		repo:   repo,
		logger: log.Component("api"),
	}
}

// GetScanProgress returns the current scan cycle snapshot
func (h *StatusHandler) GetScanProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Progress())
}

// GetRiskStatus returns the risk manager snapshot
func (h *StatusHandler) GetRiskStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.RiskStatus(r.Context()))
}

// GetRecentApproved returns the most recent approved candidates
func (h *StatusHandler) GetRecentApproved(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusOK, []contracts.ApprovedCandidate{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	approved, err := h.repo.RecentApproved(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query approved candidates")
		writeError(w, http.StatusInternalServerError, "failed to query approved candidates")
		return
	}

	writeJSON(w, http.StatusOK, approved)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
