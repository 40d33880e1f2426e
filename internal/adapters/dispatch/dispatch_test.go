package dispatch

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/tamasystem/callpad/internal/domain"
)

func testRequest() domain.DialRequest {
	return domain.DefaultDialingPlan().DialRequestFor(domain.CallIntent{
		Destination:   "09012345678",
		SourceDisplay: "Taro",
		SourceNumber:  "0312345678",
	})
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{"": ModeOpen, " OPEN ": ModeOpen, "clipboard": ModeClipboard, "stdout": ModeStdout} {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseMode("fax"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("ParseMode(fax) error = %v, want ErrUnknownMode", err)
	}
}

func TestOpenerCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{goos: "darwin", name: "open", args: []string{"x://1"}},
		{goos: "windows", name: "rundll32", args: []string{"url.dll,FileProtocolHandler", "x://1"}},
		{goos: "linux", name: "xdg-open", args: []string{"x://1"}},
		{goos: "freebsd", name: "xdg-open", args: []string{"x://1"}},
	}
	for _, tc := range tests {
		name, args := OpenerCommand(tc.goos, "x://1")
		if name != tc.name || !slices.Equal(args, tc.args) {
			t.Fatalf("OpenerCommand(%s) = %s %v, want %s %v", tc.goos, name, args, tc.name, tc.args)
		}
	}
}

func TestDispatchOpenMode(t *testing.T) {
	var gotName string
	var gotArgs []string
	d := New(ModeOpen, WithGOOS("linux"), WithStarter(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}))
	req := testRequest()
	if err := d.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if gotName != "xdg-open" || len(gotArgs) != 1 || gotArgs[0] != req.URL {
		t.Fatalf("unexpected command %s %v", gotName, gotArgs)
	}

	failing := New(ModeOpen, WithStarter(func(context.Context, string, ...string) error { return errors.New("missing") }))
	if err := failing.Dispatch(context.Background(), req); err == nil {
		t.Fatal("expected opener failure to surface")
	}
}

func TestDispatchClipboardAndStdout(t *testing.T) {
	req := testRequest()

	var copied string
	clip := New(ModeClipboard, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))
	if err := clip.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("clipboard Dispatch() error = %v", err)
	}
	if copied != req.URL {
		t.Fatalf("copied %q, want %q", copied, req.URL)
	}

	var out bytes.Buffer
	std := New(ModeStdout, WithOutput(&out))
	if err := std.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("stdout Dispatch() error = %v", err)
	}
	if out.String() != req.URL+"\n" {
		t.Fatalf("stdout = %q", out.String())
	}
	copied = ""
	withClip := New(ModeStdout, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))
	if err := withClip.CopyURL(req); err != nil || copied != req.URL {
		t.Fatalf("CopyURL() = %v, copied %q", err, copied)
	}
}

func TestDispatchRejectsEmptyURLAndUnknownMode(t *testing.T) {
	d := New(ModeStdout, WithOutput(&bytes.Buffer{}))
	if err := d.Dispatch(context.Background(), domain.DialRequest{}); err == nil {
		t.Fatal("expected empty url error")
	}
	bad := New(Mode("fax"))
	if err := bad.Dispatch(context.Background(), testRequest()); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("Dispatch() error = %v, want ErrUnknownMode", err)
	}
}
