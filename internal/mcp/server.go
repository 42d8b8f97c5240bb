package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-overlay/internal/config"
	"github.com/a3tai/pdf-overlay/internal/descriptions"
	"github.com/a3tai/pdf-overlay/internal/overlay"
	"github.com/a3tai/pdf-overlay/internal/pipeline"
)

// ServerName is the name announced to MCP clients
const ServerName = "pdf-overlay"

// Server represents the MCP server instance
type Server struct {
	settings  config.Settings
	runner    *pipeline.Runner
	guard     *PathGuard
	mcpServer *server.MCPServer
	log       *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(settings config.Settings, runner *pipeline.Runner, log *zap.Logger) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	guard, err := NewPathGuard(settings.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path guard: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		settings.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		settings:  settings,
		runner:    runner,
		guard:     guard,
		mcpServer: mcpServer,
		log:       log,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pathOptions := []mcp.ToolOption{
		mcp.WithString("input", mcp.Description("Template PDF (defaults to the configured input)")),
		mcp.WithString("output", mcp.Description("Output PDF (defaults to the configured output)")),
		mcp.WithString("positions", mcp.Description("Position map file (defaults to the configured positions)")),
		mcp.WithString("values", mcp.Description("Value map file (defaults to the configured values)")),
	}

	renderTool := mcp.NewTool("overlay_render",
		append([]mcp.ToolOption{mcp.WithDescription(descriptions.OverlayRenderDescription)}, pathOptions...)...)
	s.mcpServer.AddTool(renderTool, s.handleRender)

	resolveTool := mcp.NewTool("overlay_resolve",
		append([]mcp.ToolOption{mcp.WithDescription(descriptions.OverlayResolveDescription)}, pathOptions...)...)
	s.mcpServer.AddTool(resolveTool, s.handleResolve)

	fieldsTool := mcp.NewTool("overlay_fields",
		mcp.WithDescription(descriptions.OverlayFieldsDescription),
		mcp.WithString("positions", mcp.Description("Position map file (defaults to the configured positions)")),
	)
	s.mcpServer.AddTool(fieldsTool, s.handleFields)
}

// settingsFor applies the path arguments of request to the configured settings
func (s *Server) settingsFor(request mcp.CallToolRequest) (config.Settings, error) {
	args := request.GetArguments()

	var o config.Overrides
	for key, dst := range map[string]*string{
		"input":     &o.Input,
		"output":    &o.Output,
		"positions": &o.Positions,
		"values":    &o.Values,
	} {
		raw, _ := args[key].(string)
		resolved, err := s.guard.Resolve(raw)
		if err != nil {
			return config.Settings{}, err
		}
		*dst = resolved
	}
	return s.settings.With(o), nil
}

// Handler functions
func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := s.settingsFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.runner.Run(ctx, settings)
	if err != nil {
		return mcp.NewToolResultError(s.formatFailure(err, result)), nil
	}

	text := fmt.Sprintf("Overlay written: %s\n", result.Output)
	text += fmt.Sprintf("Fields: %d\n", result.Fields)
	text += fmt.Sprintf("Instructions: %d\n", len(result.Instructions))
	text += fmt.Sprintf("Size: %d bytes\n", result.Bytes)
	text += formatDiagnostics(result.Report)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := s.settingsFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.runner.DryRun(ctx, settings)
	if err != nil {
		return mcp.NewToolResultError(s.formatFailure(err, result)), nil
	}

	text := fmt.Sprintf("Resolved %d field(s) into %d instruction(s)\n", result.Fields, len(result.Instructions))
	text += formatInstructions(result.Instructions)
	text += formatDiagnostics(result.Report)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := s.settingsFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	table, report, err := pipeline.LoadFields(settings.Positions)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Position file: %s\n", settings.Positions)
	text += fmt.Sprintf("Fields: %d\n", table.Len())
	for _, f := range table.Fields() {
		text += fmt.Sprintf("\n• %s (%s)\n", f.Name, f.Kind)
		for i, p := range f.Positions {
			if f.Kind.MultiPosition() {
				text += fmt.Sprintf("  [%d] ", i)
			} else {
				text += "  "
			}
			text += fmt.Sprintf("page %d, x %g, y %g, size %g\n", p.Page, p.X, p.Y, p.Size)
		}
	}
	text += formatDiagnostics(report)
	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func (s *Server) formatFailure(err error, result *pipeline.Result) string {
	s.log.Warn("Tool run failed", zap.Error(err))
	text := fmt.Sprintf("Overlay failed: %v\n", err)
	if result != nil {
		text += formatDiagnostics(result.Report)
	}
	return text
}

func formatInstructions(instructions []overlay.Instruction) string {
	var sb strings.Builder
	for i, in := range instructions {
		fmt.Fprintf(&sb, "%d. %s: page %d, x %g, y %g, size %g, %s", i+1, in.Field, in.Page+1, in.X, in.Y, in.Size, in.Kind)
		if in.Kind == overlay.DrawText {
			fmt.Fprintf(&sb, " %q", in.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatDiagnostics(report *overlay.Report) string {
	if report.Len() == 0 {
		return ""
	}
	text := fmt.Sprintf("\nDiagnostics (%d):\n", report.Len())
	for _, d := range report.Diagnostics {
		text += fmt.Sprintf("  %s: %s\n", d.Severity, d.Error())
	}
	return text
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.log.Debug("Starting MCP server in stdio mode", zap.String("dir", s.guard.Root()))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
