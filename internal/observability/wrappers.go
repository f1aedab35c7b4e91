package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyaapari360/munim/internal/llm"
	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/store"
	"github.com/vyaapari360/munim/internal/tally"
)

// --- InstrumentedProvider ---

// InstrumentedProvider wraps an llm.Provider with metrics and tracing.
type InstrumentedProvider struct {
	inner   llm.Provider
	metrics *MetricsCollector
	tracer  trace.Tracer
}

// NewInstrumentedProvider wraps an LLM provider with observability.
func NewInstrumentedProvider(inner llm.Provider, metrics *MetricsCollector, ts *Tracing) *InstrumentedProvider {
	var tracer trace.Tracer
	if ts != nil {
		tracer = ts.Tracer()
	}
	return &InstrumentedProvider{
		inner:   inner,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (p *InstrumentedProvider) Name() string { return p.inner.Name() }

func (p *InstrumentedProvider) SendMessage(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	provider := p.inner.Name()

	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.Start(ctx, "llm.send_message",
			trace.WithAttributes(
				attribute.String("llm.provider", provider),
			))
		defer span.End()
	}

	start := time.Now()
	resp, err := p.inner.SendMessage(ctx, req)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		if p.tracer != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}

	if p.metrics != nil {
		p.metrics.LLMRequestsTotal.WithLabelValues(provider, "", status).Inc()
		p.metrics.LLMRequestDuration.WithLabelValues(provider, "").Observe(duration)

		if resp != nil {
			p.metrics.LLMTokensUsed.WithLabelValues(provider, "", "input").Add(float64(resp.Usage.InputTokens))
			p.metrics.LLMTokensUsed.WithLabelValues(provider, "", "output").Add(float64(resp.Usage.OutputTokens))
		}
	}

	return resp, err
}

// --- InstrumentedStore ---

// InstrumentedStore wraps a store.Store with metrics and tracing.
type InstrumentedStore struct {
	inner   store.Store
	metrics *MetricsCollector
	tracer  trace.Tracer
}

// NewInstrumentedStore wraps an analytical store with observability.
func NewInstrumentedStore(inner store.Store, metrics *MetricsCollector, ts *Tracing) *InstrumentedStore {
	var tracer trace.Tracer
	if ts != nil {
		tracer = ts.Tracer()
	}
	return &InstrumentedStore{
		inner:   inner,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (s *InstrumentedStore) SearchVouchers(ctx context.Context, req *search.Request) ([]tally.Voucher, error) {
	var rows []tally.Voucher
	err := s.instrument(ctx, "vouchers", func(ctx context.Context) error {
		var err error
		rows, err = s.inner.SearchVouchers(ctx, req)
		return err
	})
	return rows, err
}

func (s *InstrumentedStore) SearchLedgers(ctx context.Context, req *search.Request) ([]tally.Ledger, error) {
	var rows []tally.Ledger
	err := s.instrument(ctx, "ledgers", func(ctx context.Context) error {
		var err error
		rows, err = s.inner.SearchLedgers(ctx, req)
		return err
	})
	return rows, err
}

func (s *InstrumentedStore) SearchStockItems(ctx context.Context, req *search.Request) ([]tally.StockItem, error) {
	var rows []tally.StockItem
	err := s.instrument(ctx, "stockitems", func(ctx context.Context) error {
		var err error
		rows, err = s.inner.SearchStockItems(ctx, req)
		return err
	})
	return rows, err
}

func (s *InstrumentedStore) SearchGodowns(ctx context.Context, req *search.Request) ([]tally.Godown, error) {
	var rows []tally.Godown
	err := s.instrument(ctx, "godowns", func(ctx context.Context) error {
		var err error
		rows, err = s.inner.SearchGodowns(ctx, req)
		return err
	})
	return rows, err
}

func (s *InstrumentedStore) ListMaster(ctx context.Context, tn tally.Tenant, collection string) ([]tally.MasterRecord, error) {
	var rows []tally.MasterRecord
	err := s.instrument(ctx, "master", func(ctx context.Context) error {
		var err error
		rows, err = s.inner.ListMaster(ctx, tn, collection)
		return err
	})
	return rows, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *InstrumentedStore) instrument(ctx context.Context, entity string, fn func(ctx context.Context) error) error {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "store.query",
			trace.WithAttributes(
				attribute.String("store.entity", entity),
			))
		defer span.End()
	}

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		if s.tracer != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}

	if s.metrics != nil {
		s.metrics.StoreQueriesTotal.WithLabelValues(entity, status).Inc()
		s.metrics.StoreQueryDuration.WithLabelValues(entity).Observe(duration)
	}

	return err
}

// --- Compile-time interface checks ---

var (
	_ llm.Provider = (*InstrumentedProvider)(nil)
	_ store.Store  = (*InstrumentedStore)(nil)
)

// statusCode returns the HTTP status code as a string for metric labels.
func statusCode(code int) string {
	return strconv.Itoa(code)
}
