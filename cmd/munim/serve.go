package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/vyaapari360/munim/internal/config"
	"github.com/vyaapari360/munim/internal/gateway/httpapi"
	"github.com/vyaapari360/munim/internal/gateway/mcpserver"
	"github.com/vyaapari360/munim/internal/ratelimit"
)

var (
	serveConfigPath string
	serveAddr       string
	serveMCP        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant (HTTP chat API, or MCP stdio server with --mcp)",
	RunE:  runServe,
}

func init() {
	// Register flags on both root and serve so that
	// `munim --config path` and `munim serve --config path` both work.
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveConfigPath, "config", config.DefaultConfigPath(), "path to config file")
		cmd.Flags().StringVar(&serveAddr, "addr", "", "override HTTP listen address (e.g. :8080)")
		cmd.Flags().BoolVar(&serveMCP, "mcp", false, "serve tools over MCP stdio instead of HTTP")
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(envOr("MUNIM_CONFIG", serveConfigPath))
	if err != nil {
		return err
	}

	// Apply CLI overrides.
	if serveAddr != "" {
		cfg.HTTP.ListenAddr = serveAddr
	}

	logger := newLogger(cfg.Logging)
	logger.Info("starting munim", slog.String("config", serveConfigPath))

	sc, err := initShared(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	// Signal-aware context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MCP stdio mode: the protocol owns stdin/stdout, no HTTP server.
	if serveMCP || (cfg.MCP != nil && cfg.MCP.Enabled) {
		return runMCP(sc)
	}

	// Cache janitor: sweep expired envelopes on a schedule. Pointless
	// without a TTL, so only started when one is configured.
	if cfg.Cache.TTL() > 0 {
		interval := cfg.Cache.SweepInterval()
		janitor := cron.New()
		if _, err := janitor.AddFunc(fmt.Sprintf("@every %s", interval), func() {
			if dropped := sc.Cache.Sweep(); dropped > 0 {
				logger.Debug("cache sweep", slog.Int("dropped", dropped))
			}
		}); err != nil {
			return fmt.Errorf("scheduling cache janitor: %w", err)
		}
		janitor.Start()
		defer janitor.Stop()
		logger.Debug("cache janitor started", slog.String("interval", interval.String()))
	}

	gw := buildHTTPGateway(cfg, sc)
	logger.Info("http gateway starting", slog.String("addr", cfg.HTTP.Addr()))

	errs := make(chan error, 1)
	go func() {
		errs <- gw.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errs:
		if err != nil {
			logger.Error("gateway exited with error", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return gw.Stop(shutdownCtx)
}

// buildHTTPGateway wires the chat gateway from shared components.
func buildHTTPGateway(cfg *config.Config, sc *SharedComponents) *httpapi.Gateway {
	httpCfg := httpapi.Config{
		ListenAddr:     cfg.HTTP.Addr(),
		EnableDocs:     cfg.HTTP.EnableDocs,
		MaxRequestSize: cfg.HTTP.MaxRequestSize(),
	}
	if cfg.HTTP.RateLimitPerMinute > 0 {
		httpCfg.Limiter = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.HTTP.RateLimitPerMinute,
			BurstSize:         cfg.HTTP.RateLimitBurst,
		})
	}
	if sc.Obs != nil {
		httpCfg.Metrics = sc.Obs.Metrics
		httpCfg.Health = sc.Obs.Health
		if sc.Obs.Metrics != nil {
			httpCfg.MetricsRegistry = sc.Obs.Metrics.Registry
		}
		if sc.Obs.Tracer != nil {
			httpCfg.Tracer = sc.Obs.Tracer.Tracer()
		}
		if cfg.Observability != nil && cfg.Observability.Metrics != nil {
			httpCfg.MetricsPath = cfg.Observability.Metrics.MetricsPath()
		}
	}

	return httpapi.NewGateway(httpCfg, sc.Dispatcher, sc.Cache, sc.Logger)
}

// runMCP serves the tool registry over MCP stdio until the client hangs up.
func runMCP(sc *SharedComponents) error {
	srv, err := mcpserver.New(sc.ToolReg, version, sc.Logger)
	if err != nil {
		return fmt.Errorf("building mcp server: %w", err)
	}
	sc.Logger.Info("mcp server starting on stdio")
	return srv.ServeStdio()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
