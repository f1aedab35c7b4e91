package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vyaapari360/munim/internal/agent"
	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/config"
	"github.com/vyaapari360/munim/internal/llm"
	"github.com/vyaapari360/munim/internal/llm/openai"
	"github.com/vyaapari360/munim/internal/observability"
	"github.com/vyaapari360/munim/internal/store"
	pgstore "github.com/vyaapari360/munim/internal/store/postgres"
	"github.com/vyaapari360/munim/internal/tally"
	"github.com/vyaapari360/munim/internal/tools"
	"github.com/vyaapari360/munim/internal/tools/erp"
)

const startupProbeTimeout = 5 * time.Second

// SharedComponents holds the initialized subsystems common to serve and
// query modes. Built once by initShared, torn down by Cleanup.
type SharedComponents struct {
	Config     *config.Config
	Logger     *slog.Logger
	Obs        *observability.Observability
	Provider   llm.Provider
	DB         *pgstore.DB
	Store      store.Store
	Cache      *cache.Results
	ToolReg    *tools.Registry
	Dispatcher *agent.Dispatcher

	cleanups []func()
}

// Cleanup runs all deferred cleanup functions in reverse order.
func (sc *SharedComponents) Cleanup() {
	for i := len(sc.cleanups) - 1; i >= 0; i-- {
		sc.cleanups[i]()
	}
}

func (sc *SharedComponents) addCleanup(fn func()) {
	sc.cleanups = append(sc.cleanups, fn)
}

// newLogger builds the slog logger from config. Logs go to stderr so the
// query command can print answers to stdout cleanly.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// initShared performs all common initialization shared between serve and
// query modes. Callers must call sc.Cleanup() when done.
func initShared(cfg *config.Config, logger *slog.Logger) (*SharedComponents, error) {
	sc := &SharedComponents{
		Config: cfg,
		Logger: logger,
	}

	// Observability.
	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing observability: %w", err)
	}
	sc.Obs = obs
	sc.addCleanup(func() {
		if obs != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			obs.Shutdown(shutdownCtx)
		}
	})
	if obs != nil {
		logger.Debug("observability initialized",
			slog.Bool("metrics", obs.Metrics != nil),
			slog.Bool("tracing", obs.Tracer != nil),
		)
	}

	// Startup connectivity probe. A broken DSN fails the boot here with a
	// clear message instead of surfacing on the first chat turn.
	probeCtx, cancel := context.WithTimeout(context.Background(), startupProbeTimeout)
	err = pgstore.CheckConnection(probeCtx, cfg.Database.DSN)
	cancel()
	if err != nil {
		sc.Cleanup()
		return nil, fmt.Errorf("analytical store unreachable (check database.dsn or DATABASE_URL): %w", err)
	}

	db, err := pgstore.Open(pgstore.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeS) * time.Second,
	}, logger)
	if err != nil {
		sc.Cleanup()
		return nil, fmt.Errorf("opening analytical store: %w", err)
	}
	sc.DB = db
	sc.addCleanup(func() {
		if err := db.Close(); err != nil {
			logger.Error("closing store", slog.String("error", err.Error()))
		}
	})

	var st store.Store = pgstore.NewStore(db)
	if obs != nil && obs.Metrics != nil {
		st = observability.NewInstrumentedStore(st, obs.Metrics, obs.TracerOrNil())
	}
	sc.Store = st

	// Result cache.
	cacheOpts := []cache.Option{cache.WithCapacity(cfg.Cache.CacheCapacity())}
	if ttl := cfg.Cache.TTL(); ttl > 0 {
		cacheOpts = append(cacheOpts, cache.WithTTL(ttl))
	}
	sc.Cache = cache.New(cacheOpts...)

	// Tool registry.
	toolReg := tools.NewRegistry()
	if err := erp.RegisterAll(toolReg, erp.Config{
		Tenant: tally.Tenant{
			CompanyID:  cfg.Tenant.CompanyID,
			DivisionID: cfg.Tenant.DivisionID,
		},
		Store:        st,
		Cache:        sc.Cache,
		QueryTimeout: cfg.Database.QueryTimeout(),
		Logger:       logger,
	}); err != nil {
		sc.Cleanup()
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	sc.ToolReg = toolReg
	logger.Debug("tools registered", slog.Any("tools", toolReg.List()))

	// LLM provider.
	provider, err := newLLMProvider(cfg, logger)
	if err != nil {
		sc.Cleanup()
		return nil, fmt.Errorf("initializing LLM provider: %w", err)
	}
	if obs != nil && obs.Metrics != nil {
		provider = observability.NewInstrumentedProvider(provider, obs.Metrics, obs.TracerOrNil())
	}
	sc.Provider = provider
	logger.Debug("llm provider initialized", slog.String("provider", provider.Name()))

	// Readiness probes.
	if obs != nil && obs.Health != nil {
		obs.Health.Register("database", db.Ping)
	}

	// Dispatcher.
	sc.Dispatcher = agent.NewDispatcher(provider, toolReg, logger).
		WithSessions(agent.NewInMemorySessionStore(cfg.Agent.MaxHistory())).
		WithMaxTokens(cfg.Agent.MaxCompletionTokens()).
		WithModelTimeout(cfg.Agent.ModelTimeout()).
		WithObservability(obs)

	return sc, nil
}

// newLLMProvider creates the reasoning model client by configured name.
// Ollama serves an OpenAI-compatible API, so both providers share the client.
// With providers.fallback set and both providers configured, the secondary
// is tried when the default fails.
func newLLMProvider(cfg *config.Config, logger *slog.Logger) (llm.Provider, error) {
	primary, err := providerByName(cfg, cfg.Providers.Default, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Providers.Fallback {
		return primary, nil
	}

	secondaryName := "ollama"
	if cfg.Providers.Default == "ollama" {
		secondaryName = "openai"
	}
	secondary, err := providerByName(cfg, secondaryName, logger)
	if err != nil || !providerConfigured(cfg, secondaryName) {
		logger.Warn("providers.fallback set but the secondary provider is not configured",
			slog.String("secondary", secondaryName))
		return primary, nil
	}
	return llm.NewFailover(primary, secondary, logger), nil
}

func providerByName(cfg *config.Config, name string, logger *slog.Logger) (llm.Provider, error) {
	switch name {
	case "openai", "":
		var opts []openai.Option
		if cfg.Providers.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Providers.OpenAI.BaseURL))
		}
		return openai.NewClient(
			cfg.Providers.OpenAI.APIKey,
			cfg.Providers.OpenAI.Model,
			logger,
			opts...,
		), nil
	case "ollama":
		baseURL := cfg.Providers.Ollama.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return openai.NewClient(
			"",
			cfg.Providers.Ollama.Model,
			logger,
			openai.WithBaseURL(baseURL),
			openai.WithName("ollama"),
		), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
}

func providerConfigured(cfg *config.Config, name string) bool {
	switch name {
	case "openai", "":
		return cfg.Providers.OpenAI.Model != "" && cfg.Providers.OpenAI.APIKey != ""
	case "ollama":
		return cfg.Providers.Ollama.Model != ""
	}
	return false
}
