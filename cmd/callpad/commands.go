package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamasystem/callpad/internal/adapters/dispatch"
	"github.com/tamasystem/callpad/internal/adapters/server"
	"github.com/tamasystem/callpad/internal/adapters/server/common"
	"github.com/tamasystem/callpad/internal/adapters/storage/sqlite"
	"github.com/tamasystem/callpad/internal/app"
	"github.com/tamasystem/callpad/internal/config"
	"github.com/tamasystem/callpad/internal/domain"
	"github.com/tamasystem/callpad/internal/phonebook"
	"github.com/tamasystem/callpad/internal/platform"
	"github.com/tamasystem/callpad/internal/tui"
)

// appRuntime carries everything a command needs after config resolution.
type appRuntime struct {
	appName    string
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	cache      *sqlite.Repository
	loader     app.CandidateLoader
	dispatcher *dispatch.Dispatcher
	plan       domain.DialingPlan
	stdout     io.Writer
	stderr     io.Writer
	stdin      io.Reader
}

// withRuntime resolves config, opens adapters, runs fn and releases everything afterwards.
func withRuntime(cmd *cobra.Command, flags *rootFlags, command string, fn func(context.Context, *appRuntime) error) error {
	rt, err := openRuntime(flags, command, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	rt.stdin = cmd.InOrStdin()
	defer rt.close()

	rt.logger.Info("command flow start", "command", command)
	if err := fn(cmd.Context(), rt); err != nil {
		rt.logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	rt.logger.Info("command flow complete", "command", command)
	return nil
}

// resolvePaths applies the --app and --dev flags to platform path resolution.
func resolvePaths(flags *rootFlags) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: flags.appName,
		DevMode: flags.devMode,
	})
}

// openRuntime resolves config with flag > environment > file > default precedence and builds the adapters.
func openRuntime(flags *rootFlags, command string, stdout, stderr io.Writer) (*appRuntime, error) {
	paths, err := resolvePaths(flags)
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(flags.configPath)
	if configPath == "" {
		configPath = envOr("CALLPAD_CONFIG", paths.ConfigPath)
	}
	dbPath := strings.TrimSpace(flags.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("CALLPAD_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Cache.Path = dbPath
	}
	phonebookURL := strings.TrimSpace(flags.phonebookURL)
	if phonebookURL == "" {
		phonebookURL = strings.TrimSpace(os.Getenv("CALLPAD_PHONEBOOK_URL"))
	}
	if phonebookURL != "" {
		cfg.Phonebook.URL = phonebookURL
		cfg.Phonebook.File = ""
		cfg.Phonebook.Watch = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger, err := newRuntimeLogger(stderr, flags.appName, flags.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Log lines would tear the alt-screen; the dev file still receives them.
		logger.SetConsoleEnabled(false)
	}
	rt := &appRuntime{
		appName:    flags.appName,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		stdout:     stdout,
		stderr:     stderr,
		plan: domain.DialingPlan{
			CountryCode: cfg.Dialing.CountryCode,
			URLScheme:   cfg.Dialing.URLScheme,
		}.Normalize(),
	}
	logger.Debug("configuration loaded", "config_path", configPath, "cache_path", cfg.Cache.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	var cache app.SnapshotCache
	if cfg.Cache.Enabled {
		repo, err := sqlite.Open(cfg.Cache.Path)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("open snapshot cache: %w", err)
		}
		repo.SetRetain(cfg.Cache.Retain)
		rt.cache = repo
		cache = repo
	}

	source, err := newPhonebookSource(cfg)
	if err != nil {
		rt.close()
		return nil, err
	}
	if source == nil {
		logger.Warn("no phonebook source configured", "config_path", configPath)
	}
	rt.loader = phonebook.NewLoader(source, cache, uuid.NewString, time.Now, phonebook.LoaderConfig{
		Parse:           phonebook.ParseOptions{SkipHeader: cfg.Phonebook.SkipHeader},
		OfflineFallback: cfg.Cache.OfflineFallback,
		Logger:          logger,
	})

	mode, err := dispatch.ParseMode(string(cfg.Dialing.DispatchMode))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.dispatcher = dispatch.New(mode, dispatch.WithOutput(dispatchOutput(command, stdout)), dispatch.WithLogger(logger))
	return rt, nil
}

// dispatchOutput returns where stdout-mode dispatch writes dial URLs for command.
// The tui draws on stdout, so its URLs are dropped there and only reach the log.
func dispatchOutput(command string, stdout io.Writer) io.Writer {
	if command == "tui" {
		return io.Discard
	}
	return stdout
}

// close releases the cache and the log file.
func (rt *appRuntime) close() {
	if rt.cache != nil {
		if err := rt.cache.Close(); err != nil {
			rt.logger.Warn("snapshot cache close failed", "path", rt.cfg.Cache.Path, "err", err)
		}
	}
	if err := rt.logger.Close(); err != nil {
		writef(rt.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// newDirectory builds the server- and CLI-facing directory over the runtime loader.
func (rt *appRuntime) newDirectory() *app.Directory {
	return app.NewDirectory(rt.loader, rt.dispatcher, uuid.NewString, time.Now, app.DirectoryConfig{
		Plan:              rt.plan,
		MinReloadInterval: rt.cfg.MinReloadInterval(),
		Logger:            rt.logger,
	})
}

// newPhonebookSource returns the configured source, or nil when none is set.
func newPhonebookSource(cfg config.Config) (phonebook.Source, error) {
	if url := strings.TrimSpace(cfg.Phonebook.URL); url != "" {
		src, err := phonebook.NewHTTPSource(url, nil, cfg.PhonebookTimeout())
		if err != nil {
			return nil, fmt.Errorf("configure phonebook url: %w", err)
		}
		return src, nil
	}
	if path := strings.TrimSpace(cfg.Phonebook.File); path != "" {
		src, err := phonebook.NewFileSource(path)
		if err != nil {
			return nil, fmt.Errorf("configure phonebook file: %w", err)
		}
		return src, nil
	}
	return nil, nil
}

// envOr returns the trimmed environment value of name, or fallback when unset.
func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

// runTUI starts the interactive dialer.
func runTUI(ctx context.Context, rt *appRuntime) error {
	session := app.NewSession(rt.dispatcher, uuid.NewString, time.Now, app.SessionConfig{
		Plan:   rt.plan,
		Logger: rt.logger,
	})
	opts := []tui.Option{
		tui.WithContext(ctx),
		tui.WithLogger(rt.logger),
		tui.WithKeyConfig(tui.KeyConfig{
			Reload:      rt.cfg.Keys.Reload,
			CopyURL:     rt.cfg.Keys.CopyURL,
			RequestCall: rt.cfg.Keys.RequestCall,
		}),
		tui.WithRefreshInterval(rt.cfg.RefreshInterval()),
		tui.WithURLCopier(func(url string) error {
			return rt.dispatcher.CopyURL(domain.DialRequest{URL: url})
		}),
	}

	var group errgroup.Group
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer func() {
		cancelWatch()
		_ = group.Wait()
	}()
	if rt.cfg.Phonebook.Watch {
		watcher, err := phonebook.NewWatcher(rt.cfg.Phonebook.File, 0, rt.logger)
		if err != nil {
			return fmt.Errorf("watch phonebook file: %w", err)
		}
		opts = append(opts, tui.WithPhonebookChanges(watcher.Changes()))
		group.Go(func() error {
			return watcher.Run(watchCtx)
		})
	}

	m := tui.NewModel(session, rt.loader, opts...)
	rt.logger.Info("starting tui program loop", "config_path", rt.configPath)
	if _, err := programFactory(m).Run(); err != nil {
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

func newPathsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and cache locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(flags)
			if err != nil {
				return err
			}
			configPath := strings.TrimSpace(flags.configPath)
			if configPath == "" {
				configPath = envOr("CALLPAD_CONFIG", paths.ConfigPath)
			}
			dbPath := strings.TrimSpace(flags.dbPath)
			if dbPath == "" {
				dbPath = envOr("CALLPAD_DB_PATH", paths.DBPath)
			}
			out := cmd.OutOrStdout()
			writef(out, "app: %s\n", flags.appName)
			writef(out, "dev_mode: %t\n", flags.devMode)
			writef(out, "config: %s\n", configPath)
			writef(out, "data_dir: %s\n", paths.DataDir)
			writef(out, "db: %s\n", dbPath)
			writef(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newLookupCommand(flags *rootFlags) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "lookup [query]",
		Short: "List phonebook entries whose names contain query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return withRuntime(cmd, flags, "lookup", func(ctx context.Context, rt *appRuntime) error {
				if limit < 0 {
					return fmt.Errorf("--limit must be >= 0")
				}
				matches, err := rt.newDirectory().Search(ctx, query, limit)
				if err != nil {
					return fmt.Errorf("search phonebook: %w", err)
				}
				if asJSON {
					return writeJSON(rt.stdout, matches)
				}
				if len(matches) == 0 {
					writef(rt.stdout, "no results\n")
					return nil
				}
				for _, entry := range matches {
					writef(rt.stdout, "%s\t%s\n", entry.DisplayName, entry.Number)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to print (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newResolveCommand(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve <from>",
		Short: "Show which number a caller ID entry would dial from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := args[0]
			return withRuntime(cmd, flags, "resolve", func(ctx context.Context, rt *appRuntime) error {
				dir := rt.newDirectory()
				resolved := dir.Resolve(ctx, from)
				if err := dir.LastError(); err != nil {
					rt.logger.Warn("phonebook unavailable; resolving as a raw number", "err", err)
				}
				if asJSON {
					return writeJSON(rt.stdout, resolved)
				}
				writef(rt.stdout, "display: %s\n", resolved.DisplayText)
				writef(rt.stdout, "number used for calling: %s\n", resolved.CanonicalNumber)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newDialCommand(flags *rootFlags) *cobra.Command {
	var (
		to     string
		from   string
		assume bool
	)
	cmd := &cobra.Command{
		Use:   "dial",
		Short: "Build a call intent and hand it to the softphone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, flags, "dial", func(ctx context.Context, rt *appRuntime) error {
				dir := rt.newDirectory()
				call, err := dir.PrepareCall(ctx, to, from)
				if err != nil {
					return fmt.Errorf("prepare call: %w", err)
				}
				writef(rt.stdout, "To:   %s\n", call.Intent.Destination)
				writef(rt.stdout, "From: %s (%s)\n", call.Intent.SourceDisplay, call.Intent.SourceNumber)
				writef(rt.stdout, "URL:  %s\n", call.Request.URL)
				if !assume {
					ok, err := confirm(rt.stdin, rt.stderr, "Place this call? [y/N] ")
					if err != nil {
						return err
					}
					if !ok {
						writef(rt.stdout, "call cancelled\n")
						return nil
					}
				}
				if err := dir.PlaceCall(ctx, call); err != nil {
					return err
				}
				writef(rt.stdout, "calling %s from %s\n", call.Request.Destination, call.Request.CallerID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination number")
	cmd.Flags().StringVar(&from, "from", "", "caller ID: a phonebook name or a raw number")
	cmd.Flags().BoolVarP(&assume, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newServeCommand(flags *rootFlags) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the phonebook lookup and call-intent API over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, flags, "serve", func(ctx context.Context, rt *appRuntime) error {
				if strings.TrimSpace(bind) != "" {
					rt.cfg.Server.Bind = bind
				}
				return runServe(ctx, rt)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.bind)")
	return cmd
}

// runServe runs the HTTP server next to the initial load, the file watcher and the refresh ticker.
func runServe(ctx context.Context, rt *appRuntime) error {
	dir := rt.newDirectory()
	adapter := common.NewAppServiceAdapter(dir)
	var watcher *phonebook.Watcher
	if rt.cfg.Phonebook.Watch {
		w, err := phonebook.NewWatcher(rt.cfg.Phonebook.File, 0, rt.logger)
		if err != nil {
			return fmt.Errorf("watch phonebook file: %w", err)
		}
		watcher = w
	}
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if _, err := dir.Current(gctx); err != nil {
			rt.logger.Warn("initial phonebook load failed", "err", err)
		}
		return nil
	})
	reload := func(origin string) {
		if _, err := dir.Reload(gctx); err != nil {
			if errors.Is(err, app.ErrReloadThrottled) {
				rt.logger.Debug("phonebook reload throttled", "origin", origin)
				return
			}
			rt.logger.Warn("phonebook reload failed", "origin", origin, "err", err)
		}
	}
	if watcher != nil {
		group.Go(func() error {
			return watcher.Run(gctx)
		})
		group.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-watcher.Changes():
					reload("watcher")
				}
			}
		})
	}
	if every := rt.cfg.RefreshInterval(); every > 0 {
		group.Go(func() error {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					reload("refresh")
				}
			}
		})
	}

	group.Go(func() error {
		rt.logger.Info("serving", "bind", rt.cfg.Server.Bind, "api", rt.cfg.Server.APIEndpoint, "mcp", rt.cfg.Server.MCPEndpoint)
		return server.Run(gctx, server.Config{
			HTTPBind:      rt.cfg.Server.Bind,
			APIEndpoint:   rt.cfg.Server.APIEndpoint,
			MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
			ServerName:    rt.appName,
			ServerVersion: version,
		}, server.Dependencies{
			Directory: adapter,
			Readiness: adapter,
		})
	})
	return group.Wait()
}

func newCacheCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the offline phonebook cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "List cached phonebook snapshots, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd, flags, "cache show", func(ctx context.Context, rt *appRuntime) error {
					if rt.cache == nil {
						return errCacheDisabled
					}
					summaries, err := rt.cache.ListSnapshots(ctx)
					if err != nil {
						return fmt.Errorf("list snapshots: %w", err)
					}
					writef(rt.stdout, "cache: %s\n", rt.cfg.Cache.Path)
					if len(summaries) == 0 {
						writef(rt.stdout, "no cached snapshots\n")
						return nil
					}
					for _, s := range summaries {
						writef(rt.stdout, "%s\t%d entries\t%s\t%s\n", s.ID, s.Entries, s.FetchedAt.Format(time.RFC3339), s.Source)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached phonebook snapshot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd, flags, "cache clear", func(ctx context.Context, rt *appRuntime) error {
					if rt.cache == nil {
						return errCacheDisabled
					}
					if err := rt.cache.ClearSnapshots(ctx); err != nil {
						return fmt.Errorf("clear snapshots: %w", err)
					}
					writef(rt.stdout, "cache cleared\n")
					return nil
				})
			},
		},
	)
	return cmd
}

var errCacheDisabled = errors.New("snapshot cache is disabled (cache.enabled = false)")

// confirm asks prompt on out and reads one line from in; only y or yes accepts.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	writef(out, "%s", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
