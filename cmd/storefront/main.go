package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := logging.New(cfg.Log, cfg.Server.Env)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Failed to start:", err)
	}
	defer state.Close()

	fmt.Println("Storefront. Type help for commands.")
	if err := newShell(state, os.Stdout).Run(ctx, os.Stdin); err != nil {
		log.Fatal(err)
	}
}
