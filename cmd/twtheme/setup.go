package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/jsonc"
)

// serverName is the key the MCP server is registered under in agent configs.
const serverName = "twtheme"

type agentMethod string

const (
	methodCLI  agentMethod = "cli"
	methodFile agentMethod = "file"
)

// agent describes how to find one AI agent and register the server with it.
type agent struct {
	id      string
	name    string
	method  agentMethod
	binary  string   // cli agents: executable on PATH
	markers []string // file agents: project directories that signal presence
	config  string   // file agents: config file, relative to the project root unless absolute
	key     string   // object holding server entries
	extra   map[string]string
}

// detection is an agent found on this machine.
type detection struct {
	agent
	configPath string
	configured bool
}

var (
	lookPath = exec.LookPath
	statPath = os.Stat
	runAgent = func(binary string, args []string, stdout, stderr io.Writer) error {
		cmd := exec.Command(binary, args...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		return cmd.Run()
	}
)

func knownAgents() []agent {
	return []agent{
		{id: "claude_code", name: "Claude Code", method: methodCLI, binary: "claude"},
		{id: "openai_codex", name: "OpenAI Codex", method: methodCLI, binary: "codex"},
		{
			id: "vscode_copilot", name: "VS Code Copilot", method: methodFile,
			markers: []string{".vscode"},
			config:  filepath.Join(".vscode", "mcp.json"),
			key:     "servers",
			extra:   map[string]string{"type": "stdio"},
		},
		{
			id: "cursor", name: "Cursor", method: methodFile,
			markers: []string{".cursor"},
			config:  filepath.Join(".cursor", "mcp.json"),
			key:     "mcpServers",
		},
		{
			id: "claude_desktop", name: "Claude Desktop", method: methodFile,
			config: claudeDesktopConfig(),
			key:    "mcpServers",
		},
	}
}

func claudeDesktopConfig() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

func detectAgents(root string, agents []agent) []detection {
	var found []detection
	for _, ag := range agents {
		switch ag.method {
		case methodCLI:
			if _, err := lookPath(ag.binary); err != nil {
				continue
			}
			path := filepath.Join(root, ".mcp.json")
			found = append(found, detection{agent: ag, configured: hasServerEntry(path, "mcpServers")})

		case methodFile:
			path := ag.config
			if !filepath.IsAbs(path) {
				path = filepath.Join(root, path)
			}
			if !agentPresent(root, ag, path) {
				continue
			}
			found = append(found, detection{agent: ag, configPath: path, configured: hasServerEntry(path, ag.key)})
		}
	}
	return found
}

// agentPresent reports whether a file agent is in use: a project marker
// exists, or for agents without markers, the config's directory does.
func agentPresent(root string, ag agent, configPath string) bool {
	if len(ag.markers) == 0 {
		_, err := statPath(filepath.Dir(configPath))
		return err == nil
	}
	for _, m := range ag.markers {
		if _, err := statPath(filepath.Join(root, m)); err == nil {
			return true
		}
	}
	return false
}

// readAgentConfig decodes an agent config file. Editors allow comments and
// trailing commas in these files.
func readAgentConfig(data []byte) (map[string]any, error) {
	config := make(map[string]any)
	if len(strings.TrimSpace(string(data))) == 0 {
		return config, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return config, nil
}

func hasServerEntry(path, key string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	config, err := readAgentConfig(data)
	if err != nil {
		return false
	}
	servers, _ := config[key].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

func serverArgs(configPath string) []string {
	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

func serverEntry(configPath string, extra map[string]string) map[string]any {
	args := serverArgs(configPath)
	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}
	entry := map[string]any{
		"command": serverName,
		"args":    anyArgs,
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// addServerEntry merges the server entry into an agent config under key.
// It returns nil, nil when an entry is already present.
func addServerEntry(existing []byte, key, configPath string, extra map[string]string) ([]byte, error) {
	config, err := readAgentConfig(existing)
	if err != nil {
		return nil, err
	}

	servers, ok := config[key].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverName]; exists {
		return nil, nil
	}
	servers[serverName] = serverEntry(configPath, extra)
	config[key] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeAgentConfig(d detection, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(d.configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(d.configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := addServerEntry(existing, d.key, configPath, d.extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(d.configPath, merged, 0o644)
}

func registerCLIAgent(d detection, scope, configPath string, stdout, stderr io.Writer) error {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverName, "--", serverName)
	args = append(args, serverArgs(configPath)...)
	return runAgent(d.binary, args, stdout, stderr)
}

// prompter reads answers from one scanner so buffered input is not lost
// between questions.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(r), out: w}
}

// confirm asks a Y/n question. Empty input and EOF mean yes.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [Y/n] ", question)
	if !p.in.Scan() {
		return true
	}
	answer := strings.ToLower(strings.TrimSpace(p.in.Text()))
	return answer == "" || answer == "y" || answer == "yes"
}

// scope asks where a CLI agent should store the entry. Empty means skip.
func (p *prompter) scope(name string) string {
	fmt.Fprintf(p.out, "\n%s: add the %s MCP server?\n", name, serverName)
	fmt.Fprintln(p.out, "  [1] Project scope (shared with team)")
	fmt.Fprintln(p.out, "  [2] User scope (personal, global)")
	fmt.Fprintln(p.out, "  [3] Skip")
	fmt.Fprint(p.out, "  > ")
	if !p.in.Scan() {
		return "project"
	}
	switch strings.TrimSpace(p.in.Text()) {
	case "", "1":
		return "project"
	case "2":
		return "user"
	default:
		return ""
	}
}

func (a *app) cmdSetup(args []string) error {
	var auto bool
	var configPath string
	flagSet := a.newFlagSet("setup", "setup [flags]")
	flagSet.BoolVar(&auto, "auto", false, "configure every detected agent without prompting")
	flagSet.StringVarP(&configPath, "config", "c", "", "theme declaration the server should load")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	a.setup(knownAgents(), configPath, auto)
	return nil
}

func (a *app) setup(agents []agent, configPath string, auto bool) {
	found := detectAgents(a.root(), agents)
	if len(found) == 0 {
		fmt.Fprintln(a.stdout, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(a.stdout, "Detected AI agents:")
	for _, d := range found {
		suffix := ""
		if d.configured {
			suffix = " (already configured)"
		}
		fmt.Fprintf(a.stdout, "  * %s%s\n", d.name, suffix)
	}
	fmt.Fprintln(a.stdout)

	p := newPrompter(a.stdin, a.stdout)
	if !auto && !p.confirm("Configure agents?") {
		return
	}

	for _, d := range found {
		if d.configured {
			fmt.Fprintf(a.stdout, "%s: already configured, skipping\n", d.name)
			continue
		}
		a.configureAgent(p, d, configPath, auto)
	}
}

func (a *app) configureAgent(p *prompter, d detection, configPath string, auto bool) {
	switch d.method {
	case methodCLI:
		scope := "project"
		if !auto {
			if scope = p.scope(d.name); scope == "" {
				fmt.Fprintln(a.stdout, "  skipped")
				return
			}
		}
		if err := registerCLIAgent(d, scope, configPath, a.stdout, a.stderr); err != nil {
			fmt.Fprintf(a.stdout, "  ! %s: failed: %v\n", d.name, err)
			return
		}
		fmt.Fprintf(a.stdout, "  + %s configured (scope: %s)\n", d.name, scope)

	case methodFile:
		if !auto && !p.confirm(fmt.Sprintf("\n%s: add to %s?", d.name, d.configPath)) {
			fmt.Fprintln(a.stdout, "  skipped")
			return
		}
		if err := writeAgentConfig(d, configPath); err != nil {
			fmt.Fprintf(a.stdout, "  ! %s: failed: %v\n", d.name, err)
			return
		}
		fmt.Fprintf(a.stdout, "  + %s configured (%s)\n", d.name, d.configPath)
	}
}
