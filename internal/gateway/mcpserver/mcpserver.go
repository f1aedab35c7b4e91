// Package mcpserver exposes the registered ERP tools over the Model
// Context Protocol so external assistants can run the same searches the
// chat endpoint uses. Tool results carry the insights-only payloads; full
// records stay in the result cache, same as the HTTP path.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/vyaapari360/munim/internal/tools"
)

// Server bridges a tools.Registry onto an MCP stdio server.
type Server struct {
	mcp      *mcpsrv.MCPServer
	registry *tools.Registry
	logger   *slog.Logger
}

// New builds the MCP server and registers every tool in the registry,
// reusing each tool's name, description and JSON schema verbatim.
func New(registry *tools.Registry, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp: mcpsrv.NewMCPServer("munim", version,
			mcpsrv.WithToolCapabilities(false),
			mcpsrv.WithRecovery(),
		),
		registry: registry,
		logger:   logger,
	}
	for _, t := range registry.All() {
		if err := s.addTool(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) addTool(t tools.Tool) error {
	schema, err := json.Marshal(t.InputSchema())
	if err != nil {
		return fmt.Errorf("marshaling schema for %s: %w", t.Name(), err)
	}
	s.mcp.AddTool(
		mcplib.NewToolWithRawSchema(t.Name(), t.Description(), schema),
		s.handlerFor(t),
	)
	return nil
}

func (s *Server) handlerFor(t tools.Tool) mcpsrv.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		params := request.GetArguments()
		if params == nil {
			params = map[string]any{}
		}
		if err := t.Validate(params); err != nil {
			return mcplib.NewToolResultError(err.Error()), nil
		}

		s.logger.InfoContext(ctx, "mcp tool executing", slog.String("tool", t.Name()))
		result, err := t.Execute(ctx, params)
		if err != nil {
			return mcplib.NewToolResultError(err.Error()), nil
		}
		if !result.Success {
			return mcplib.NewToolResultError(result.Output), nil
		}
		return mcplib.NewToolResultText(result.Output), nil
	}
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
// This is the whole lifecycle for `munim serve --mcp`.
func (s *Server) ServeStdio() error {
	return mcpsrv.ServeStdio(s.mcp)
}
