// Package agent implements the conversation loop between the reasoning
// model and the registered ERP tools.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vyaapari360/munim/internal/llm"
	"github.com/vyaapari360/munim/internal/observability"
	"github.com/vyaapari360/munim/internal/tools"
)

// Input represents a user request entering the dispatcher.
type Input struct {
	Message        string
	ConversationID string // Empty = start a new conversation.
}

// Response is the dispatcher's output after model processing.
type Response struct {
	Answer         string
	ConversationID string
	TokensUsed     int
	ToolCalls      []ToolCallRecord // Summary of tools executed during this turn.
}

// ToolCallRecord summarizes a single tool execution within a turn.
type ToolCallRecord struct {
	Name        string `json:"name"`
	Arguments   string `json:"arguments"`
	RecordCount int    `json:"records_count"`
	CacheKey    string `json:"cache_key,omitempty"`
	FirstRecord string `json:"sample_record,omitempty"`
}

// Dispatcher runs the two-phase conversation loop: a completion with tool
// definitions, concurrent execution of any requested tool calls, then a
// final completion over the tool results.
type Dispatcher struct {
	provider     llm.Provider
	registry     *tools.Registry
	sessions     SessionStore
	logger       *slog.Logger
	obs          *observability.Observability // nil = observability disabled
	maxTokens    int                          // 0 = provider default
	modelTimeout time.Duration                // 0 = no per-completion deadline
	now          func() time.Time
}

// NewDispatcher creates a dispatcher backed by the given provider and tool registry.
func NewDispatcher(provider llm.Provider, registry *tools.Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		registry: registry,
		sessions: NewInMemorySessionStore(0),
		logger:   logger,
		now:      time.Now,
	}
}

// WithSessions attaches a session store for conversation history.
func (d *Dispatcher) WithSessions(store SessionStore) *Dispatcher {
	d.sessions = store
	return d
}

// WithObservability attaches observability (metrics, tracing).
func (d *Dispatcher) WithObservability(obs *observability.Observability) *Dispatcher {
	d.obs = obs
	return d
}

// WithMaxTokens caps per-completion output tokens.
func (d *Dispatcher) WithMaxTokens(n int) *Dispatcher {
	d.maxTokens = n
	return d
}

// WithModelTimeout bounds each model completion. 0 = no deadline.
func (d *Dispatcher) WithModelTimeout(t time.Duration) *Dispatcher {
	d.modelTimeout = t
	return d
}

// WithClock overrides the time source. Used in tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// SystemPrompt renders the assistant instructions with the current date.
func SystemPrompt(now time.Time) string {
	return fmt.Sprintf(`You are an intelligent ERP business assistant. You help users interact with their ERP system
through natural language. You can retrieve master data such as ledgers, stock items, voucher types, and more.

Current date: %s (%s)

When users ask about available data or lists, use the list_master tool to fetch the information.
Always provide clear, concise responses and format data in a readable way for the user.

When users mention relative time periods (like "this month", "last month", "this year", etc.),
calculate the correct dates based on the current date provided above.

Important: You are working within a specific company and division context. The system automatically
handles this context - you never need to ask users for company or division IDs.`,
		now.Format("January 2, 2006"), now.Format("2006-01-02"))
}

// Handle runs one conversation turn. When the model requests tool calls,
// all calls execute concurrently and their results are appended as a single
// user turn, in request order, before the final completion.
func (d *Dispatcher) Handle(ctx context.Context, input *Input) (*Response, error) {
	start := d.now()

	if d.obs != nil && d.obs.Tracer != nil {
		var span trace.Span
		ctx, span = d.obs.Tracer.Tracer().Start(ctx, "agent.handle",
			trace.WithAttributes(
				attribute.String("conversation_id", input.ConversationID),
			))
		defer span.End()
	}

	convID := input.ConversationID
	var history []llm.Message
	if convID != "" {
		if h, ok := d.sessions.Get(convID); ok {
			history = h
		} else {
			convID = ""
		}
	}
	if convID == "" {
		convID = uuid.NewString()
	}

	d.logger.DebugContext(ctx, "handling turn",
		slog.String("conversation_id", convID),
		slog.Int("history_len", len(history)),
	)

	history = append(history, llm.Message{Role: llm.RoleUser, Text: input.Message})
	systemPrompt := SystemPrompt(d.now())

	resp, err := d.sendMessage(ctx, &llm.Request{
		SystemPrompt: systemPrompt,
		Messages:     history,
		MaxTokens:    d.maxTokens,
		Tools:        tools.ToLLMDefinitions(d.registry),
	})
	if err != nil {
		d.recordTurn(start, "error", false)
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	tokens := resp.Usage.InputTokens + resp.Usage.OutputTokens

	if !resp.WantsTools() {
		history = append(history, llm.Message{Role: llm.RoleAssistant, Text: resp.Text})
		d.sessions.Put(convID, history)
		d.recordTurn(start, "success", false)
		return &Response{
			Answer:         resp.Text,
			ConversationID: convID,
			TokensUsed:     tokens,
		}, nil
	}

	calls := resp.ToolCalls
	d.logger.InfoContext(ctx, "executing tool calls",
		slog.Int("tool_calls", len(calls)),
		slog.String("conversation_id", convID),
	)

	history = append(history, llm.Message{Role: llm.RoleAssistant, Text: resp.Text, ToolCalls: calls})

	results, records := d.executeToolCalls(ctx, calls)
	history = append(history, llm.Message{Role: llm.RoleUser, ToolResults: results})

	// Final completion over the tool results, without tool definitions.
	final, err := d.sendMessage(ctx, &llm.Request{
		SystemPrompt: systemPrompt,
		Messages:     history,
		MaxTokens:    d.maxTokens,
	})
	if err != nil {
		d.recordTurn(start, "error", true)
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	tokens += final.Usage.InputTokens + final.Usage.OutputTokens

	history = append(history, llm.Message{Role: llm.RoleAssistant, Text: final.Text})
	d.sessions.Put(convID, history)
	d.recordTurn(start, "success", true)

	return &Response{
		Answer:         final.Text,
		ConversationID: convID,
		TokensUsed:     tokens,
		ToolCalls:      records,
	}, nil
}

func (d *Dispatcher) sendMessage(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if d.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.modelTimeout)
		defer cancel()
	}
	return d.provider.SendMessage(ctx, req)
}

// executeToolCalls runs the requested calls concurrently and returns
// their results plus call records, both in request order.
func (d *Dispatcher) executeToolCalls(ctx context.Context, calls []llm.ToolCall) ([]llm.ToolResult, []ToolCallRecord) {
	results := make([]llm.ToolResult, len(calls))
	records := make([]ToolCallRecord, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			results[i], records[i] = d.executeOne(gctx, call)
			return nil
		})
	}
	_ = g.Wait()

	return results, records
}

func (d *Dispatcher) executeOne(ctx context.Context, call llm.ToolCall) (llm.ToolResult, ToolCallRecord) {
	args, _ := json.Marshal(call.Input)
	record := ToolCallRecord{Name: call.Name, Arguments: string(args)}

	start := d.now()
	res, rec := d.runTool(ctx, call, record)
	d.recordTool(call.Name, !res.IsError, d.now().Sub(start))
	return res, rec
}

func (d *Dispatcher) runTool(ctx context.Context, call llm.ToolCall, record ToolCallRecord) (llm.ToolResult, ToolCallRecord) {
	tool := d.registry.Get(call.Name)
	if tool == nil {
		d.logger.WarnContext(ctx, "model requested unknown tool", slog.String("tool", call.Name))
		return errorResult(call.ID, "UnknownTool", fmt.Sprintf("tool %q is not available", call.Name)), record
	}

	if err := tool.Validate(call.Input); err != nil {
		return errorResult(call.ID, "InvalidParameters", err.Error()), record
	}

	result, err := tool.Execute(ctx, call.Input)
	if err != nil {
		d.logger.ErrorContext(ctx, "tool execution failed",
			slog.String("tool", call.Name),
			slog.String("error", err.Error()),
		)
		return errorResult(call.ID, "ExecutionFailed", err.Error()), record
	}

	if result.Metadata != nil {
		record.RecordCount = metadataInt(result.Metadata, "records_count")
		record.CacheKey = metadataString(result.Metadata, "cache_key")
		if first, ok := result.Metadata["first_record"]; ok {
			if sample, err := json.Marshal(first); err == nil {
				record.FirstRecord = string(sample)
			}
		}
	}

	output := tools.TruncateOutput(result.Output, tools.MaxOutputBytes)
	return llm.ToolResult{CallID: call.ID, Output: output, IsError: !result.Success}, record
}

// errorResult renders a dispatcher-level failure as a structured error
// payload so the model can explain it instead of the turn aborting.
func errorResult(callID, code, message string) llm.ToolResult {
	payload, _ := json.Marshal(map[string]string{
		"error":   code,
		"message": message,
	})
	return llm.ToolResult{CallID: callID, Output: string(payload), IsError: true}
}

func (d *Dispatcher) recordTurn(start time.Time, status string, toolsUsed bool) {
	if d.obs == nil || d.obs.Metrics == nil {
		return
	}
	d.obs.Metrics.ChatTurnsTotal.WithLabelValues(status, strconv.FormatBool(toolsUsed)).Inc()
	d.obs.Metrics.ChatTurnDuration.Observe(d.now().Sub(start).Seconds())
}

func (d *Dispatcher) recordTool(name string, success bool, elapsed time.Duration) {
	if d.obs == nil || d.obs.Metrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	d.obs.Metrics.ToolExecutionsTotal.WithLabelValues(name, status).Inc()
	d.obs.Metrics.ToolExecutionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func metadataInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func metadataString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
