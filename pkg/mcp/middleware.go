package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/twtheme/pkg/mcplog"
)

// loggingMiddleware writes one mcplog entry per tool call. Only installed
// when a call log is configured.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			version := s.store.Version()
			result, err := next(ctx, req)

			var errStr *string
			switch {
			case err != nil:
				msg := err.Error()
				errStr = &msg
			case result != nil && result.IsError:
				msg := firstText(result)
				errStr = &msg
			}

			_ = s.logger.Write(mcplog.Entry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    time.Since(start).Milliseconds(),
				ResponseBytes: mcplog.ResponseBytes(result),
				ConfigVersion: version,
				Error:         errStr,
			})

			return result, err
		}
	}
}

func firstText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
