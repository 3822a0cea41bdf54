// Package mcpserver exposes the registry as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/objtree/internal/app"
	"github.com/agentic-research/objtree/internal/command"
)

// Server wraps an MCP server whose tools run against one App.
type Server struct {
	app *app.App
	mcp *server.MCPServer
}

func New(a *app.App, version string) *Server {
	s := &Server{
		app: a,
		mcp: server.NewMCPServer("objtree", version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("objtree_get",
		mcp.WithDescription("Read the value of an attribute, e.g. settings.frame_gap"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dot separated attribute path")),
	), s.get)

	s.mcp.AddTool(mcp.NewTool("objtree_set",
		mcp.WithDescription("Assign an attribute from its textual form"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dot separated attribute path")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value, e.g. 7, true, toggle or #ff0000")),
	), s.set)

	s.mcp.AddTool(mcp.NewTool("objtree_ls",
		mcp.WithDescription("List the children, attributes and actions of an object"),
		mcp.WithString("path", mcp.Description("Dot separated object path; empty for the root")),
	), s.ls)

	s.mcp.AddTool(mcp.NewTool("objtree_query",
		mcp.WithDescription("Evaluate a JSONPath expression against an object snapshot"),
		mcp.WithString("expr", mcp.Required(), mcp.Description("JSONPath, e.g. $.theme.tiling.active.border_width")),
		mcp.WithString("path", mcp.Description("Object to snapshot; empty for the root")),
	), s.query)

	s.mcp.AddTool(mcp.NewTool("objtree_run",
		mcp.WithDescription("Run any objtree command, e.g. [\"compare\", \"settings.frame_gap\", \"gt\", \"3\"]"),
		mcp.WithArray("args", mcp.Required(), mcp.WithStringItems(), mcp.Description("Command name followed by its arguments")),
	), s.run)

	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves on stdin and stdout until EOF or a signal.
func (s *Server) ServeStdio() error { return server.ServeStdio(s.mcp) }

func (s *Server) get(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.exec("get", path), nil
}

func (s *Server) set(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.exec("set", path, value), nil
}

func (s *Server) ls(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.exec("attr", req.GetString("path", "")), nil
}

func (s *Server) query(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := req.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.exec("query", expr, req.GetString("path", "")), nil
}

func (s *Server) run(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["args"].([]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("args must be a non-empty array of strings"), nil
	}
	args := make([]string, len(raw))
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("args[%d] is not a string", i)), nil
		}
		args[i] = str
	}
	return s.exec(args...), nil
}

// exec maps a non-zero status to a tool error carrying the output.
func (s *Server) exec(args ...string) *mcp.CallToolResult {
	status, out := s.app.Exec(args)
	if status != command.Success {
		return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", out, status))
	}
	return mcp.NewToolResultText(out)
}
