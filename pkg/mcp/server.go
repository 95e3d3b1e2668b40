// Package mcp exposes the live theme document to agent tooling over the
// Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/twtheme/pkg/mcplog"
	"github.com/gnana997/twtheme/pkg/reload"
)

const serverName = "twtheme"

// Server implements the MCP server. Every call reads the store's current
// document, so reloads are picked up without restarting.
type Server struct {
	mcpServer *server.MCPServer
	store     *reload.Store
	logger    *mcplog.Logger // nil disables call logging
}

// NewServer creates a server backed by store. callLog may be nil.
func NewServer(store *reload.Store, callLog *mcplog.Logger, version string) *Server {
	s := &Server{store: store, logger: callLog}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer(serverName, version, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: resolveColorTool(), Handler: s.handleResolveColor},
		server.ServerTool{Tool: listTokensTool(), Handler: s.handleListTokens},
		server.ServerTool{Tool: matchContentTool(), Handler: s.handleMatchContent},
		server.ServerTool{Tool: getConfigTool(), Handler: s.handleGetConfig},
	)

	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
