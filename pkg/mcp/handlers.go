package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/twtheme/pkg/content"
	"github.com/gnana997/twtheme/pkg/theme"
)

type resolveResponse struct {
	Token string `json:"token"`
	Mode  string `json:"mode"`
	Value string `json:"value"`
}

type tokenInfo struct {
	Name          string `json:"name"`
	ModeDependent bool   `json:"mode_dependent"`
	Light         string `json:"light"`
	Dark          string `json:"dark"`
}

type pathMatch struct {
	Path    string `json:"path"`
	Matched bool   `json:"matched"`
}

type matchResponse struct {
	Matches      []pathMatch `json:"matches"`
	MatchedCount int         `json:"matched_count"`
}

type configResponse struct {
	Source       string               `json:"source,omitempty"`
	Format       theme.Format         `json:"format"`
	Content      []string             `json:"content"`
	DarkMode     theme.DarkMode       `json:"dark_mode"`
	TokenCount   int                  `json:"token_count"`
	PluginCount  int                  `json:"plugin_count"`
	Unrecognized []string             `json:"unrecognized,omitempty"`
	MatchCache   content.MatcherStats `json:"match_cache"`
	Version      uint64               `json:"version"`
}

func (s *Server) handleResolveColor(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawMode, err := req.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := theme.ParseMode(rawMode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	value, err := s.store.Current().ResolveColor(token, mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(resolveResponse{Token: token, Mode: string(mode), Value: value})
}

func (s *Server) handleListTokens(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.store.Current()

	if rawMode := req.GetString("mode", ""); rawMode != "" {
		mode, err := theme.ParseMode(rawMode)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		palette, err := doc.Palette(mode)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(palette)
	}

	tokens := make([]tokenInfo, 0, len(doc.Colors))
	for _, tok := range doc.Colors {
		info := tokenInfo{Name: tok.Name, ModeDependent: tok.Value.IsModeDependent()}
		if info.ModeDependent {
			info.Light, info.Dark = tok.Value.Light, tok.Value.Dark
		} else {
			info.Light, info.Dark = tok.Value.Literal, tok.Value.Literal
		}
		tokens = append(tokens, info)
	}
	return jsonResult(tokens)
}

func (s *Server) handleMatchContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := stringSlice(req.GetArguments(), "paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc := s.store.Current()
	resp := matchResponse{Matches: make([]pathMatch, 0, len(paths))}
	for _, p := range paths {
		matched := doc.MatchesContentGlob(p)
		if matched {
			resp.MatchedCount++
		}
		resp.Matches = append(resp.Matches, pathMatch{Path: p, Matched: matched})
	}
	return jsonResult(resp)
}

func (s *Server) handleGetConfig(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.store.Current()
	return jsonResult(configResponse{
		Source:       doc.Source,
		Format:       doc.Format,
		Content:      doc.Content,
		DarkMode:     doc.DarkMode,
		TokenCount:   len(doc.Colors),
		PluginCount:  len(doc.Plugins),
		Unrecognized: doc.Unrecognized,
		MatchCache:   doc.MatchStats(),
		Version:      s.store.Version(),
	})
}

func stringSlice(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("required argument %q not found", key)
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %q[%d] is not a string", key, i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %q must be an array of strings", key)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
