// Package llm abstracts the reasoning model behind the assistant.
//
// The types mirror the two-phase tool loop the dispatcher runs: an
// assistant turn either answers in text or requests tool calls, and the
// following user turn carries the tool results back to the model.
package llm

import "context"

// Provider is a reasoning model backend. OpenAI and Ollama are both served
// by the openai client since Ollama speaks the same dialect.
type Provider interface {
	SendMessage(ctx context.Context, req *Request) (*Response, error)
	// Name identifies the backend in logs and metrics (e.g. "openai").
	Name() string
}

// Request is one completion over the conversation so far.
type Request struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int              // 0 = provider default
	Tools        []ToolDefinition // nil on the final completion of a turn
}

// ToolDefinition describes a tool offered to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Message is one turn of the conversation. User turns carry Text or
// ToolResults; assistant turns carry Text plus any ToolCalls the model made.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall   // assistant turns only
	ToolResults []ToolResult // user turns only
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResult carries one tool's output back to the model.
type ToolResult struct {
	CallID  string
	Output  string
	IsError bool
}

// Role identifies who sent a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason says why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is the model's reply to one Request.
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason StopReason
	Usage      Usage
}

// WantsTools reports whether the model is asking for tool execution.
func (r *Response) WantsTools() bool {
	return len(r.ToolCalls) > 0
}

// Usage tracks token consumption for cost accounting.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
