package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/eldermate/internal/cli"
	"github.com/dmitrijs2005/eldermate/internal/config"
	"github.com/dmitrijs2005/eldermate/internal/logging"
)

func main() {
	cfg := config.LoadConfig()

	// The REPL owns stdout; diagnostics go to stderr.
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app := cli.NewApp(cfg, log)
	app.Run(context.Background())
}
