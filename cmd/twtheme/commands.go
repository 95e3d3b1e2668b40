package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	mcpserver "github.com/gnana997/twtheme/pkg/mcp"
	"github.com/gnana997/twtheme/pkg/mcplog"
	"github.com/gnana997/twtheme/pkg/reload"
	"github.com/gnana997/twtheme/pkg/theme"
	"github.com/gnana997/twtheme/pkg/util"
	"github.com/gnana997/twtheme/presets"
)

func (a *app) root() string {
	if a.workDir != "" {
		return a.workDir
	}
	return "."
}

func (a *app) path(p string) string {
	if p == "" || filepath.IsAbs(p) || a.workDir == "" {
		return p
	}
	return filepath.Join(a.workDir, p)
}

// session is what a config-reading command works with.
type session struct {
	settings settings
	logger   *slog.Logger
	cache    util.SourceCache
	loader   *theme.Loader
}

func (s *session) Close() {
	s.loader.Close()
	s.cache.Close()
}

func (a *app) openSession(opts globalOptions) (*session, error) {
	project, err := loadProjectConfig(a.root())
	if err != nil {
		return nil, err
	}
	st, err := resolveSettings(opts, project)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}
	st.ConfigPath = a.path(st.ConfigPath)
	st.MCPLog = a.path(st.MCPLog)
	st.Logger.Output = a.stderr

	logger := util.NewLogger(st.Logger)
	cacheConfig := util.DefaultSourceCacheConfig()
	cacheConfig.Logger = logger
	cache := util.NewSourceCache(cacheConfig)

	return &session{
		settings: st,
		logger:   logger,
		cache:    cache,
		loader:   theme.NewLoader(theme.LoaderConfig{Cache: cache, Logger: logger}),
	}, nil
}

// load reads the configured declaration. Malformed declarations are
// reported on stdout, one problem per line.
func (a *app) load(s *session) (*theme.Document, error) {
	doc, err := s.loader.LoadFile(s.settings.ConfigPath)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, theme.ErrMalformedConfig) {
		fmt.Fprintf(a.stdout, "%s: invalid\n", s.settings.ConfigPath)
		for _, problem := range problemLines(err) {
			fmt.Fprintf(a.stdout, "  - %s\n", problem)
		}
		return nil, errSilent
	}
	return nil, err
}

func problemLines(err error) []string {
	msg := strings.TrimPrefix(err.Error(), theme.ErrMalformedConfig.Error()+": ")
	var lines []string
	for _, line := range strings.Split(msg, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// stdinPath selects standard input as the declaration source.
const stdinPath = "-"

func (a *app) cmdValidate(args []string) error {
	var opts globalOptions
	var format string
	flagSet := a.newFlagSet("validate", "validate [flags]\n\nUse --config - --format <js|ts|json|yaml> to read the declaration from stdin.")
	opts.addFlags(flagSet)
	flagSet.StringVar(&format, "format", "", "declaration format when reading stdin: js, ts, json or yaml")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return usageErrorf("unexpected argument: %s", flagSet.Arg(0))
	}

	if opts.configPath == stdinPath {
		return a.validateStdin(opts, format)
	}
	if format != "" {
		return usageErrorf("--format only applies with --config %s", stdinPath)
	}

	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := a.load(s)
	if err != nil {
		return err
	}
	a.printSummary(s.settings.ConfigPath, doc)
	return nil
}

func (a *app) validateStdin(opts globalOptions, name string) error {
	if name == "" {
		return usageErrorf("--format is required with --config %s", stdinPath)
	}
	format, err := theme.ParseFormat(name)
	if err != nil {
		return usageErrorf("%v", err)
	}

	// The session would resolve "-" against the working directory.
	opts.configPath = ""
	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	doc, err := s.loader.LoadBytes(data, format)
	if errors.Is(err, theme.ErrMalformedConfig) {
		fmt.Fprintln(a.stdout, "<stdin>: invalid")
		for _, problem := range problemLines(err) {
			fmt.Fprintf(a.stdout, "  - %s\n", problem)
		}
		return errSilent
	}
	if err != nil {
		return err
	}
	a.printSummary("<stdin>", doc)
	return nil
}

func (a *app) printSummary(source string, doc *theme.Document) {
	fmt.Fprintf(a.stdout, "%s: ok (%d tokens, %d content globs, darkMode %s)\n",
		source, len(doc.Colors), len(doc.Content), describeDarkMode(doc.DarkMode))
	if len(doc.Unrecognized) > 0 {
		fmt.Fprintf(a.stdout, "  ignored keys: %s\n", strings.Join(doc.Unrecognized, ", "))
	}
}

func describeDarkMode(dm theme.DarkMode) string {
	if dm.Selector == "" {
		return string(dm.Strategy)
	}
	return fmt.Sprintf("%s %s", dm.Strategy, dm.Selector)
}

func (a *app) cmdResolve(args []string) error {
	var opts globalOptions
	var mode string
	flagSet := a.newFlagSet("resolve", "resolve <token> [flags]")
	opts.addFlags(flagSet)
	flagSet.StringVarP(&mode, "mode", "m", "", "light or dark (default: print both)")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return usageErrorf("expected exactly one token name")
	}
	token := flagSet.Arg(0)

	modes := theme.Modes
	if mode != "" {
		m, err := theme.ParseMode(mode)
		if err != nil {
			return usageErrorf("%v", err)
		}
		modes = []theme.Mode{m}
	}

	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := a.load(s)
	if err != nil {
		return err
	}

	for _, m := range modes {
		value, err := doc.ResolveColor(token, m)
		if err != nil {
			return err
		}
		if len(modes) == 1 {
			fmt.Fprintln(a.stdout, value)
		} else {
			fmt.Fprintf(a.stdout, "%s\t%s\n", m, value)
		}
	}
	return nil
}

func (a *app) cmdMatch(args []string) error {
	var opts globalOptions
	flagSet := a.newFlagSet("match", "match <path>... [flags]\n\nExits 1 if any path is not selected.")
	opts.addFlags(flagSet)
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		return usageErrorf("expected at least one path")
	}

	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := a.load(s)
	if err != nil {
		return err
	}

	allMatched := true
	for _, p := range flagSet.Args() {
		verdict := "match"
		if !doc.MatchesContentGlob(p) {
			verdict = "no match"
			allMatched = false
		}
		fmt.Fprintf(a.stdout, "%s\t%s\n", verdict, p)
	}
	if !allMatched {
		return errSilent
	}
	return nil
}

func (a *app) cmdFiles(args []string) error {
	var opts globalOptions
	var root string
	flagSet := a.newFlagSet("files", "files [flags]")
	opts.addFlags(flagSet)
	flagSet.StringVar(&root, "root", "", "directory to walk (default: the declaration's directory)")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := a.load(s)
	if err != nil {
		return err
	}

	root = a.path(root)
	files, err := doc.DiscoverContent(root)
	if err != nil {
		return err
	}

	base := root
	if base == "" {
		base = doc.Dir()
	}
	base, _ = filepath.Abs(base)
	for _, f := range files {
		if rel, err := filepath.Rel(base, f); err == nil {
			f = filepath.ToSlash(rel)
		}
		fmt.Fprintln(a.stdout, f)
	}
	s.logger.Debug("Content discovered", "root", base, "files", len(files))
	return nil
}

func (a *app) cmdColors(args []string) error {
	var opts globalOptions
	var mode string
	flagSet := a.newFlagSet("colors", "colors [flags]")
	opts.addFlags(flagSet)
	flagSet.StringVarP(&mode, "mode", "m", "", "light or dark (default: both columns)")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	modes := theme.Modes
	if mode != "" {
		m, err := theme.ParseMode(mode)
		if err != nil {
			return usageErrorf("%v", err)
		}
		modes = []theme.Mode{m}
	}

	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := a.load(s)
	if err != nil {
		return err
	}

	out, err := renderPalette(a.stdout, doc, modes)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, out)
	return nil
}

func (a *app) cmdServe(args []string) error {
	var opts globalOptions
	var watch bool
	flagSet := a.newFlagSet("serve", "serve [flags]")
	opts.addFlags(flagSet)
	opts.addMCPLogFlag(flagSet)
	flagSet.BoolVar(&watch, "watch", true, "reload the declaration when it changes")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()
	util.SetDefault(s.logger)

	doc, err := s.loader.LoadFile(s.settings.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load theme: %w", err)
	}
	store := reload.NewStore(doc)

	if watch {
		w, err := reload.NewWatcher(s.settings.ConfigPath, store, s.loader, reload.WatchOptions{Cache: s.cache}, s.logger)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
	}

	callLog, err := mcplog.NewLogger(s.settings.MCPLog)
	if err != nil {
		return err
	}
	defer callLog.Close()

	s.logger.Info("MCP server starting", "config", s.settings.ConfigPath, "tokens", len(doc.Colors), "watch", watch)

	srv := mcpserver.NewServer(store, callLog, version)
	err = srv.ServeStdio()

	parserStats := s.loader.ParserStats()
	matchStats := store.Current().MatchStats()
	s.logger.Debug("MCP server stopped",
		"config_version", store.Version(),
		"parses", parserStats.ParsesCalled,
		"parsers_created", parserStats.ParsersCreated,
		"match_cache_hits", matchStats.CacheHits,
		"match_cache_misses", matchStats.CacheMisses)

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *app) cmdWatch(args []string) error {
	var opts globalOptions
	var debounce int
	flagSet := a.newFlagSet("watch", "watch [flags]")
	opts.addFlags(flagSet)
	flagSet.IntVar(&debounce, "debounce-ms", int(reload.DefaultDebounce.Milliseconds()), "quiet period before reloading")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	s, err := a.openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := a.load(s)
	if err != nil {
		return err
	}
	store := reload.NewStore(doc)
	fmt.Fprintf(a.stdout, "watching %s (%d tokens)\n", s.settings.ConfigPath, len(doc.Colors))

	w, err := reload.NewWatcher(s.settings.ConfigPath, store, s.loader, reload.WatchOptions{
		Debounce: millis(debounce),
		Cache:    s.cache,
		OnReload: func(r reload.Result) {
			if r.Err != nil {
				fmt.Fprintf(a.stdout, "reload failed, keeping previous version:\n")
				for _, problem := range problemLines(r.Err) {
					fmt.Fprintf(a.stdout, "  - %s\n", problem)
				}
				return
			}
			fmt.Fprintf(a.stdout, "reloaded (%d tokens, version %d)\n", len(r.Document.Colors), store.Version())
		},
	}, s.logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

func (a *app) cmdInit(args []string) error {
	var force bool
	flagSet := a.newFlagSet("init", "init [flags]")
	flagSet.BoolVarP(&force, "force", "f", false, "overwrite existing files")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	declPath := filepath.Join(a.root(), presets.TailwindConfigName)
	configPath := filepath.Join(a.root(), projectConfigPath)

	for _, p := range []string{declPath, configPath} {
		if _, err := os.Stat(p); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", p)
		}
	}

	if err := os.WriteFile(declPath, presets.TailwindConfig, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", declPath, err)
	}

	project, err := yaml.Marshal(ProjectConfig{ConfigPath: presets.TailwindConfigName, LogLevel: string(util.LevelInfo)})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(configPath, project, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}

	fmt.Fprintf(a.stdout, "  + %s\n", declPath)
	fmt.Fprintf(a.stdout, "  + %s\n", configPath)
	return nil
}
