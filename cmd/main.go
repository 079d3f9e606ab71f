package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"transcribe-ro/internal/app"
	"transcribe-ro/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: transcribe-ro <audio-file-or-directory> [...]")
		os.Exit(2)
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	a.Start()

	exitCode := 0
	for _, path := range os.Args[1:] {
		if err := a.Runner.Process(ctx, path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Processing failed")
			exitCode = 1
		}
		if ctx.Err() != nil {
			log.Warn().Msg("Interrupted, stopping")
			exitCode = 1
			break
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Shutdown(shutdownCtx)

	os.Exit(exitCode)
}
