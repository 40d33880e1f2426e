package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/tamasystem/callpad/internal/app"
	"github.com/tamasystem/callpad/internal/domain"
)

// Mode selects how a confirmed dial request leaves the process.
type Mode string

// ModeOpen and related constants define supported dispatch modes.
const (
	ModeOpen      Mode = "open"
	ModeClipboard Mode = "clipboard"
	ModeStdout    Mode = "stdout"
)

// ErrUnknownMode reports an unsupported dispatch mode.
var ErrUnknownMode = errors.New("unknown dispatch mode")

// ParseMode validates raw; empty means ModeOpen.
func ParseMode(raw string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ModeOpen, nil
	case ModeOpen, ModeClipboard, ModeStdout:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

// StartFunc launches an external command without waiting for it.
type StartFunc func(ctx context.Context, name string, args ...string) error

// CopyFunc writes text to the system clipboard.
type CopyFunc func(string) error

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStarter overrides how the OS opener is launched.
func WithStarter(start StartFunc) Option {
	return func(d *Dispatcher) {
		if start != nil {
			d.start = start
		}
	}
}

// WithClipboard overrides the clipboard writer.
func WithClipboard(copyFn CopyFunc) Option {
	return func(d *Dispatcher) {
		if copyFn != nil {
			d.copy = copyFn
		}
	}
}

// WithGOOS overrides the operating system used to pick the opener.
func WithGOOS(goos string) Option {
	return func(d *Dispatcher) {
		d.goos = goos
	}
}

// WithOutput sets the writer used by stdout mode.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		if w != nil {
			d.out = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger app.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = app.LoggerOrNop(logger)
	}
}

// Dispatcher hands dial URLs to the OS URL handler, the clipboard, or a writer.
type Dispatcher struct {
	mode   Mode
	goos   string
	start  StartFunc
	copy   CopyFunc
	out    io.Writer
	logger app.Logger
}

// New constructs a dispatcher for mode.
func New(mode Mode, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		mode:   mode,
		goos:   runtime.GOOS,
		start:  startCommand,
		copy:   clipboard.WriteAll,
		out:    os.Stdout,
		logger: app.LoggerOrNop(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mode returns the configured mode.
func (d *Dispatcher) Mode() Mode {
	return d.mode
}

// Dispatch sends req according to the configured mode.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.DialRequest) error {
	target := strings.TrimSpace(req.URL)
	if target == "" {
		return errors.New("dial url is empty")
	}
	switch d.mode {
	case ModeOpen, "":
		name, args := OpenerCommand(d.goos, target)
		if err := d.start(ctx, name, args...); err != nil {
			return fmt.Errorf("open dial url with %s: %w", name, err)
		}
	case ModeClipboard:
		if err := d.copy(target); err != nil {
			return fmt.Errorf("copy dial url: %w", err)
		}
	case ModeStdout:
		if _, err := fmt.Fprintln(d.out, target); err != nil {
			return fmt.Errorf("write dial url: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, d.mode)
	}
	d.logger.Debug("dial url dispatched", "mode", string(d.mode), "destination", req.Destination, "caller_id", req.CallerID)
	return nil
}

// CopyURL writes the dial URL of req to the clipboard regardless of mode.
func (d *Dispatcher) CopyURL(req domain.DialRequest) error {
	if err := d.copy(req.URL); err != nil {
		return fmt.Errorf("copy dial url: %w", err)
	}
	return nil
}

// OpenerCommand returns the command that asks goos to open target with its registered handler.
func OpenerCommand(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// startCommand starts name and reaps it in the background.
func startCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
