package web

import (
	"encoding/json"
	"net/http"
	"time"

	"lunabot/interfaces"
)

// StatsHandler はダッシュボード向けにコマンド使用統計を提供します。
type StatsHandler struct {
	log   interfaces.Logger
	stats interfaces.StatsStore
}

func NewStatsHandler(log interfaces.Logger, stats interfaces.StatsStore) *StatsHandler {
	return &StatsHandler{log: log, stats: stats}
}

func (h *StatsHandler) CommandUsage(w http.ResponseWriter, r *http.Request) {
	totals, err := h.stats.CommandTotals()
	if err != nil {
		h.log.Error("コマンド統計の取得に失敗", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"generated_at":  time.Now().UTC(),
		"command_usage": totals,
	})
}
