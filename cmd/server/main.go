package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netinventory/internal/adapter"
	"netinventory/internal/config"
	"netinventory/internal/handler"
	"netinventory/internal/hub"
	"netinventory/internal/logger"
	"netinventory/internal/mqtt"
	"netinventory/internal/repository/sqlite"
	"netinventory/internal/service"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (overrides search)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	scanRange := flag.String("scan", "", `Run one full scan of the given range ("auto" to detect) and exit`)
	quickRange := flag.String("quick", "", `Run one quick scan of the given range ("auto" to detect) and exit`)
	writeConfig := flag.String("write-config", "", `Write the effective config to the given path ("user" for the per-user location) and exit`)
	flag.Parse()

	if *configPath != "" {
		if _, err := os.Stat(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		os.Setenv(config.EnvConfigPath, *configPath)
	}

	cfg, loadedFrom, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	if *writeConfig != "" {
		path := *writeConfig
		if path == "user" {
			if path, err = config.UserConfigPath(); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				os.Exit(1)
			}
		}
		if err := cfg.Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log config: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithComponent("main")

	if loadedFrom != "" {
		log.Info().Str("path", loadedFrom).Msg("Loaded config")
	} else {
		log.Info().Msg("No config file found, using defaults")
	}
	log.Info().Msg(cfg.Summary())

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer repo.Close()
	log.Info().Str("path", cfg.Database.Path).Msg("Database opened")

	// Initialize event bus
	eventBus := service.NewEventBus(logger.WithComponent("events"))

	// Initialize scan engine
	proberOpts := []adapter.NmapOption{adapter.WithLogger(logger.WithComponent("nmap"))}
	if cfg.Scan.NmapPath != "" {
		proberOpts = append(proberOpts, adapter.WithBinaryPath(cfg.Scan.NmapPath))
	}
	prober := adapter.NewNmapProber(proberOpts...)

	scanSvc := service.NewScanService(prober, repo,
		service.WithScanConfig(cfg.Scan),
		service.WithEventBus(eventBus),
		service.WithLogger(logger.WithComponent("scan")),
	)

	// One-shot modes print JSON and exit
	if *scanRange != "" || *quickRange != "" {
		code := runOnce(scanSvc, *scanRange, *quickRange)
		repo.Close()
		os.Exit(code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize SSE hub and connect it to the event bus
	sseHub := hub.New(logger.WithComponent("hub"))
	go sseHub.Run(ctx)

	hubEvents := make(chan service.Event, 100)
	eventBus.Subscribe(hubEvents)
	go sseHub.Forward(hubEvents)

	// Optional MQTT bridge
	if cfg.MQTT.Enabled {
		mqttLog := logger.WithComponent("mqtt")
		client, err := mqtt.NewClient(cfg.MQTT, mqttLog)
		if err != nil {
			log.Warn().Err(err).Msg("MQTT disabled")
		} else {
			defer client.Disconnect(250)
			mqttEvents := make(chan service.Event, 100)
			eventBus.Subscribe(mqttEvents)
			go mqtt.NewPublisher(client, cfg.MQTT.TopicPrefix, mqttEvents, mqttLog).Start(ctx)
		}
	}

	// Setup routes
	mux := http.NewServeMux()
	inventoryHandler := handler.NewInventoryHandler(scanSvc, repo, cfg.Scan.SessionListLimit, logger.WithComponent("http"))
	inventoryHandler.Register(mux)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)

	// Apply middleware
	httpLog := logger.WithComponent("http")
	finalHandler := handler.Chain(mux,
		handler.Recover(httpLog),
		handler.CORS,
		handler.Logger(httpLog),
	)

	// Create server; no WriteTimeout because scans and SSE streams are long-lived
	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the hub first so open SSE streams return
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}

// runOnce performs a single scan and writes its result to stdout.
// It returns the process exit code.
func runOnce(scanSvc *service.ScanService, scanRange, quickRange string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target := func(s string) string {
		if s == "auto" {
			return ""
		}
		return s
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if quickRange != "" {
		hosts, err := scanSvc.QuickScan(ctx, target(quickRange))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Quick scan failed: %v\n", err)
			return 1
		}
		_ = enc.Encode(hosts)
		return 0
	}

	result, err := scanSvc.RunScan(ctx, target(scanRange))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return 1
	}
	_ = enc.Encode(result)
	if !result.Success {
		return 1
	}
	return 0
}
