package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nasmon/nasmon-agent/internal/adapter/httpserver"
	"github.com/nasmon/nasmon-agent/internal/config"
	"github.com/nasmon/nasmon-agent/internal/system"
)

func main() {
	// Load configuration from environment variables; flags override it.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	serve := flag.Bool("serve", false, "run the metrics HTTP API instead of a one-shot JSON dump")
	static := flag.Bool("static", false, "serve the working directory as static files on the frontend port")
	version := flag.Bool("version", false, "print version and exit")
	flag.StringVar(&cfg.Host, "host", cfg.Host, "bind address for the metrics API")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "port for the metrics API")
	flag.Parse()

	if *version {
		fmt.Printf("nasmon-agent %s (built %s)\n", config.Version, config.BuildTime)
		return
	}

	switch {
	case *static:
		runStatic(cfg)
	case *serve:
		runServer(cfg)
	default:
		runOnce()
	}
}

// runOnce collects a single snapshot and prints it as indented JSON.
// Collector warnings go to stderr so stdout stays machine-readable.
func runOnce() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	collector := system.NewCollector(system.NewGopsutilSource(), logger)

	data, err := json.MarshalIndent(collector.Collect(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func runServer(cfg *config.Config) {
	logger := config.NewLogger(cfg)
	logger.Info("starting metrics API server",
		"version", config.Version,
		"host", cfg.Host,
		"port", cfg.Port,
	)

	collector := system.NewCollector(system.NewGopsutilSource(), logger)
	api := httpserver.NewAPI(collector, cfg.ImageDir, logger)
	server := httpserver.NewServer(cfg.Host, cfg.Port, api, logger)

	if err := server.Run(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func runStatic(cfg *config.Config) {
	logger := config.NewLogger(cfg)
	logger.Info("starting static file server", "port", config.StaticPort)

	server := httpserver.NewStaticServer(config.StaticPort, ".", logger)
	if err := server.Run(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
