package servers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"lunabot/config"
	"lunabot/handlers/web"
	"lunabot/interfaces"
)

// WebServer はダッシュボード用のHTTP APIを提供します。
type WebServer struct {
	log  interfaces.Logger
	http *http.Server
}

func NewWebServer(log interfaces.Logger, cfg *config.Config, stats interfaces.StatsStore) *WebServer {
	r := mux.NewRouter()

	authHandler := web.NewAuthHandler(log, cfg)
	statsHandler := web.NewStatsHandler(log, stats)

	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/callback", authHandler.Callback).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/me", authHandler.Me).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/api/stats/commands", statsHandler.CommandUsage).Methods(http.MethodGet)

	return &WebServer{
		log: log,
		http: &http.Server{
			Addr:    cfg.DashboardAddr,
			Handler: r,
		},
	}
}

// Start はWebサーバーを起動します。ブロックします。
func (s *WebServer) Start() error {
	s.log.Info("Webサーバーを起動します", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop はWebサーバーをシャットダウンします。
func (s *WebServer) Stop() {
	s.log.Info("Webサーバーをシャットダウンします...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Error("Webサーバーのシャットダウンに失敗しました", "error", err)
	}
}
