// Package httpapi implements the HTTP API gateway for Munim.
//
// Endpoints:
//   - POST /api/chat   — one conversation turn through the assistant
//   - GET  /api/health — service identity check
//   - GET  /healthz    — liveness probe
//   - GET  /readyz     — readiness probe (dependency checks)
//   - GET  /metrics    — Prometheus exposition (when configured)
//
// Request body size is limited (default 1 MB). TLS is expected via a
// reverse proxy and is not handled here.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/jkaninda/okapi"

	"github.com/vyaapari360/munim/internal/agent"
	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/observability"
	"github.com/vyaapari360/munim/internal/ratelimit"
)

const defaultMaxRequestSize = 1 << 20 // 1 MB

// ErrorBody is the standard error response used in OpenAPI documentation.
type ErrorBody struct {
	Error string `json:"error"`
}

// Config configures the HTTP API gateway.
type Config struct {
	ListenAddr     string // e.g., ":8080"
	EnableDocs     bool
	MaxRequestSize int64              // Maximum request body in bytes. 0 = 1 MB default.
	Limiter        *ratelimit.Limiter // nil = no rate limiting.

	// Observability
	MetricsRegistry *prometheus.Registry            // Custom Prometheus registry for /metrics.
	MetricsPath     string                          // Path for metrics endpoint. Default: "/metrics".
	Health          *observability.Health           // Readiness probes for /readyz.
	Metrics         *observability.MetricsCollector // Metrics collector for HTTP middleware.
	Tracer          trace.Tracer                    // OTel tracer for HTTP middleware.
}

// Gateway is the HTTP API gateway.
type Gateway struct {
	config     Config
	dispatcher *agent.Dispatcher
	results    *cache.Results // nil = no table rendering
	logger     *slog.Logger
	maxBody    int64
	server     *http.Server
	okapi      *okapi.Okapi
}

// NewGateway creates an HTTP API gateway.
func NewGateway(cfg Config, d *agent.Dispatcher, results *cache.Results, logger *slog.Logger) *Gateway {
	maxBody := cfg.MaxRequestSize
	if maxBody <= 0 {
		maxBody = defaultMaxRequestSize
	}
	return &Gateway{
		config:     cfg,
		dispatcher: d,
		results:    results,
		logger:     logger,
		maxBody:    maxBody,
		okapi:      okapi.New(okapi.WithMaxMultipartMemory(maxBody)),
	}
}

// WithOpenAPIDocs enables the OpenAPI documentation endpoint.
func (g *Gateway) WithOpenAPIDocs() *Gateway {
	g.okapi.WithOpenAPIDocs(
		okapi.OpenAPI{
			Title:   "Munim",
			Version: "v0.0.1",
		},
	)
	return g
}

// Start launches the HTTP server and blocks until it exits or ctx is canceled.
func (g *Gateway) Start(ctx context.Context) error {
	g.okapi.UseMiddleware(func(next http.Handler) http.Handler {
		return limitRequestBody(g.maxBody, next)
	})

	// Metrics/tracing middleware (applied globally).
	if g.config.Metrics != nil || g.config.Tracer != nil {
		g.okapi.UseMiddleware(func(next http.Handler) http.Handler {
			return observability.HTTPMetricsMiddleware(g.config.Metrics, g.config.Tracer, next)
		})
	}

	api := g.okapi.Group("/api")
	api.Post("/chat", g.handleChat,
		okapi.DocSummary("Send a chat message to the assistant"),
		okapi.DocTags("Chat"),
		okapi.DocRequestBody(ChatRequest{}),
		okapi.DocResponse(ChatResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusServiceUnavailable, ErrorBody{}),
	)
	api.Get("/health", g.handleHealth,
		okapi.DocSummary("Service health check"),
		okapi.DocTags("Health"),
		okapi.DocResponse(HealthResponse{}),
	)

	// Observability endpoints.
	g.okapi.Get("/healthz", g.handleLiveness)
	g.okapi.Get("/readyz", g.handleReadiness)

	if g.config.MetricsRegistry != nil {
		path := g.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		g.okapi.HandleStd("GET", path, promhttp.HandlerFor(g.config.MetricsRegistry, promhttp.HandlerOpts{}).ServeHTTP)
	}
	if g.config.EnableDocs {
		g.WithOpenAPIDocs()
	}

	g.server = &http.Server{
		Addr:              g.config.ListenAddr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g.logger.Info("http api gateway starting", slog.String("addr", g.config.ListenAddr))

	return g.okapi.StartServer(g.server)
}

// Stop gracefully shuts down the HTTP server.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	g.logger.Info("http api gateway stopping")
	return g.okapi.Shutdown(g.server)
}

// --- Handlers ---

// ChatRequest is the JSON body for POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"` // Empty = new conversation.
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Response       string     `json:"response"`
	ConversationID string     `json:"conversation_id"`
	TableData      *TableData `json:"table_data,omitempty"`
}

func (g *Gateway) handleChat(c *okapi.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("message is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.AbortBadRequest("message is required")
	}

	// New conversations share one bucket until they have an id.
	if g.config.Limiter != nil {
		if err := g.config.Limiter.Allow(req.ConversationID); err != nil {
			return c.AbortTooManyRequests("rate limit exceeded")
		}
	}

	g.logger.Info("chat request",
		slog.String("conversation_id", req.ConversationID),
	)

	resp, err := g.dispatcher.Handle(c.Context(), &agent.Input{
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		g.logger.Error("chat turn failed",
			slog.String("conversation_id", req.ConversationID),
			slog.String("error", err.Error()),
		)
		return c.AbortInternalServerError("processing failed")
	}

	return c.OK(ChatResponse{
		Response:       resp.Answer,
		ConversationID: resp.ConversationID,
		TableData:      g.tableForTurn(resp.ToolCalls),
	})
}

// tableForTurn resolves the table payload for the turn's tool calls.
// The last search call that produced records wins.
func (g *Gateway) tableForTurn(calls []agent.ToolCallRecord) *TableData {
	if g.results == nil {
		return nil
	}
	var table *TableData
	for _, call := range calls {
		if call.CacheKey == "" {
			continue
		}
		env, ok := g.results.Get(call.CacheKey)
		if !ok || len(env.Records) == 0 {
			continue
		}
		if t := BuildTable(env); t != nil {
			table = t
		}
	}
	return table
}

// HealthResponse is the JSON response for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

func (g *Gateway) handleHealth(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "healthy", Service: "Munim ERP Assistant API"})
}

// handleLiveness is the Kubernetes liveness probe
func (g *Gateway) handleLiveness(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleReadiness runs the registered probes and returns 200 or 503.
func (g *Gateway) handleReadiness(c *okapi.Context) error {
	if g.config.Health == nil {
		return c.OK(&HealthResponse{Status: "ok"})
	}

	report := g.config.Health.Ready(c.Context())
	code := http.StatusOK
	if report.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, report)
}

// limitRequestBody caps how much of the body a handler can read.
func limitRequestBody(limit int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}
