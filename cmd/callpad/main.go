package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/tamasystem/callpad/internal/platform"
)

// version is stamped at build time.
var version = "dev"

// program is the part of tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests swap it for a fake.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// stdin feeds the dial confirmation prompt.
var stdin io.Reader = os.Stdin

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	configPath   string
	dbPath       string
	phonebookURL string
	appName      string
	devMode      bool
}

// run builds the command tree for args and executes it through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	flags := &rootFlags{
		appName: platform.DefaultAppName,
		devMode: version == "dev",
	}
	if envApp := strings.TrimSpace(os.Getenv("CALLPAD_APP_NAME")); envApp != "" {
		flags.appName = envApp
	}
	if envDev, ok := parseBoolEnv("CALLPAD_DEV_MODE"); ok {
		flags.devMode = envDev
	}

	root := newRootCommand(flags)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(stdin)
	return fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithoutManpage(),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// newRootCommand assembles callpad and its subcommands.
func newRootCommand(flags *rootFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "callpad",
		Short: "Pick a caller ID from the shared phonebook and place calls",
		Long: "callpad opens a two-field dialer: type the number to call, then search the " +
			"phonebook for the identity to call as. Confirmed calls are handed to the softphone through its URL scheme.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, flags, "tui", runTUI)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config TOML")
	pf.StringVar(&flags.dbPath, "db", "", "path to the sqlite snapshot cache")
	pf.StringVar(&flags.phonebookURL, "phonebook-url", "", "phonebook CSV URL (overrides config)")
	pf.StringVar(&flags.appName, "app", flags.appName, "application name for config/data path resolution")
	pf.BoolVar(&flags.devMode, "dev", flags.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(flags),
		newLookupCommand(flags),
		newResolveCommand(flags),
		newDialCommand(flags),
		newServeCommand(flags),
		newCacheCommand(flags),
	)
	return root
}

// parseBoolEnv reads a boolean environment variable; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// writef writes formatted output, ignoring write errors on terminal streams.
func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
