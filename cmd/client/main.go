package main

import (
	"log/slog"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/cli"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/logging"
)

func main() {
	logging.Init(slog.LevelError)
	cli.Execute()
}
