package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nasmon/nasmon-agent/internal/config"
	"github.com/nasmon/nasmon-agent/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	fmt.Println("=== NAS monitor launcher ===")
	wd, _ := os.Getwd()
	fmt.Printf("working directory: %s\n", wd)

	// Cancel on SIGINT/SIGTERM; the supervisor unwinds and stops both
	// children. Cleanup also runs from the supervisor's own defer, so
	// it must tolerate being reached twice.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	sup := supervisor.New(cfg, logger)
	if err := sup.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		sup.Shutdown()
		fmt.Println("servers stopped")
		os.Exit(1)
	}

	sup.Shutdown()
	fmt.Println("servers stopped")
}
