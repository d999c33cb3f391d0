package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/execute"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/logging"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/relay"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/server"
)

func main() {
	logging.Init(slog.LevelInfo)

	cfg := server.LoadConfig()

	registry := room.NewRegistry()
	runner := execute.NewClient(cfg.ExecuteBaseURL)
	hub := relay.NewHub(registry, runner)

	go hub.Run(context.Background())

	http.HandleFunc("/health", server.HealthCheck)
	http.HandleFunc("/ws", server.ServeWs(hub))

	slog.Info("starting collaboration relay", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
