package mcp

import "github.com/mark3labs/mcp-go/mcp"

func resolveColorTool() mcp.Tool {
	return mcp.NewTool("resolve_color",
		mcp.WithDescription("Resolve a semantic color token (e.g. accent, accent-soft, code-bg) to its #RRGGBB literal for a mode."),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Token name. Nested tokens are dash-joined; camelCase is accepted."),
		),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Presentation mode."),
			mcp.Enum("light", "dark"),
		),
	)
}

func listTokensTool() mcp.Tool {
	return mcp.NewTool("list_tokens",
		mcp.WithDescription("List every color token in declaration order. With a mode, each token is resolved to its literal for that mode."),
		mcp.WithString("mode",
			mcp.Description("Optional mode to resolve against."),
			mcp.Enum("light", "dark"),
		),
	)
}

func matchContentTool() mcp.Tool {
	return mcp.NewTool("match_content",
		mcp.WithDescription("Report which paths are selected by the theme's content globs. Relative paths are taken from the config's directory."),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Project file paths to test."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

func getConfigTool() mcp.Tool {
	return mcp.NewTool("get_config",
		mcp.WithDescription("Summarize the loaded theme: source file, content globs, dark mode strategy and counts."),
	)
}
