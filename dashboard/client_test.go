package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushStats(t *testing.T) {
	var got StatsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stats", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// API_URL は末尾スラッシュ付きで設定されることがある
	c := NewClient(srv.URL + "/")
	err := c.PushStats(context.Background(), &StatsPayload{
		BotName:      "Luna",
		GeneratedAt:  time.Now(),
		GuildCount:   3,
		CommandUsage: map[string]int{"warn": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Luna", got.BotName)
	assert.Equal(t, 2, got.CommandUsage["warn"])
}

func TestPushStatsReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.PushStats(context.Background(), &StatsPayload{BotName: "Luna"})
	require.Error(t, err)
}
