package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tayoshik/EnjoyGo/internal/config"
	"github.com/tayoshik/EnjoyGo/internal/engine"
	"github.com/tayoshik/EnjoyGo/internal/health"
	"github.com/tayoshik/EnjoyGo/internal/logging"
	mcptools "github.com/tayoshik/EnjoyGo/internal/mcp"
	"github.com/tayoshik/EnjoyGo/internal/metrics"
	"github.com/tayoshik/EnjoyGo/internal/ratelimit"
	httpserver "github.com/tayoshik/EnjoyGo/internal/server"
	"github.com/tayoshik/EnjoyGo/internal/shutdown"
)

var (
	// Version information injected at build time.
	GitCommit string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("enjoygo version 0.1.0\n")
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.NewLoggerFromConfig(&cfg.Logging, cfg.Server.Name, cfg.Server.Version)
	logger.Info("Starting EnjoyGo server version %s (commit: %s, built: %s)",
		cfg.Server.Version, GitCommit, BuildTime)
	logger.Info("Board size %d, up to %d concurrent games", cfg.Engine.BoardSize, cfg.Engine.MaxGames)

	sessions := mcptools.NewSessionManager(cfg.Engine.MaxGames, logger)
	sessions.SetCacheOptions(engine.CacheOptions{
		Enabled:  cfg.Cache.Enabled,
		MaxItems: cfg.Cache.MaxItems,
		MaxBytes: cfg.Cache.MaxBytes,
	})

	// Metrics: in-memory stats for tool middleware, Prometheus for scraping.
	metricsCollector := metrics.NewCollector()
	prom := metrics.NewPrometheusCollector()

	rateLimiter := ratelimit.NewLimiter(&cfg.RateLimit, logger)

	// Health checker with a session store probe.
	healthChecker := health.NewChecker(logger, cfg.Server.Version, GitCommit)
	healthChecker.RegisterCheck("sessions", func(ctx context.Context) error {
		if n := sessions.Len(); n >= cfg.Engine.MaxGames {
			return fmt.Errorf("session store full: %d/%d games", n, cfg.Engine.MaxGames)
		}
		return nil
	})

	// HTTP server for health checks and Prometheus scraping.
	healthAddr := cfg.Server.HealthAddr
	if healthAddr == "" {
		healthAddr = ":8080"
	}
	httpServer := httpserver.NewHTTPServer(healthAddr, logger, healthChecker)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start health check server", "error", err)
		os.Exit(1)
	}
	logger.Info("Health check server started", "addr", healthAddr)

	// Graceful shutdown
	shutdownMgr := shutdown.NewManager(logger)
	shutdownMgr.Register("health-server", httpServer.Stop)
	if logCloser != nil {
		shutdownMgr.Register("log-file", func(context.Context) error {
			return logCloser.Close()
		})
	}
	shutdownMgr.HandleSignals()

	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithLogging(),
	)

	middleware := mcptools.NewMiddleware(logger, metricsCollector, rateLimiter)

	toolsHandler := mcptools.NewToolsHandler(sessions, cfg.Engine.BoardSize, logger)
	toolsHandler.SetMiddleware(middleware)
	toolsHandler.SetPrometheus(prom)
	toolsHandler.RegisterTools(mcpServer)

	// Server-level health tool alongside the game tools.
	healthTool := mcp.NewTool("health",
		mcp.WithDescription("Check server health status"),
	)
	mcpServer.AddTool(healthTool, func(checkCtx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := "EnjoyGo Server Health Status\n"
		status += "============================\n"
		status += fmt.Sprintf("Server Version: %s\n", cfg.Server.Version)
		status += fmt.Sprintf("Git Commit: %s\n", GitCommit)
		status += fmt.Sprintf("Build Time: %s\n", BuildTime)
		status += "\nGames:\n"
		status += fmt.Sprintf("  Active: %d\n", sessions.Len())
		status += fmt.Sprintf("  Capacity: %d\n", cfg.Engine.MaxGames)
		status += fmt.Sprintf("  Default board size: %d\n", cfg.Engine.BoardSize)

		if rateLimiter != nil {
			rlStatus := rateLimiter.GetStatus()
			status += "\nRate Limiting:\n"
			status += fmt.Sprintf("  Enabled: %v\n", rlStatus["enabled"])
			if enabled, ok := rlStatus["enabled"].(bool); ok && enabled {
				status += fmt.Sprintf("  Requests/min: %d\n", rlStatus["requestsPerMin"])
				status += fmt.Sprintf("  Burst size: %d\n", rlStatus["burstSize"])
				status += fmt.Sprintf("  Active clients: %d\n", rlStatus["activeClients"])
			}
		}

		return mcp.NewToolResultText(status), nil
	})

	logger.Info("EnjoyGo server ready")

	done := make(chan error, 1)
	go func() {
		done <- server.ServeStdio(mcpServer)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Server error", "error", err)
		}
		shutdownMgr.Shutdown(5 * time.Second)
	case <-shutdownMgr.Done():
		logger.Info("Server stopped by shutdown signal")
	}
}
