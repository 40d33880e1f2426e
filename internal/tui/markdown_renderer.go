package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/tamasystem/callpad/internal/app"
)

// minModalWrap keeps the confirmation body readable in narrow terminals.
const minModalWrap = 32

// markdownRenderer renders the confirmation body and recreates the glamour renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
// Renderer failures fall back to the raw markdown.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(width, minModalWrap)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}
	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// confirmationMarkdown describes one pending call.
func confirmationMarkdown(call app.PendingCall) string {
	var b strings.Builder
	b.WriteString("## Place this call?\n\n")
	fmt.Fprintf(&b, "- **To:** %s\n", call.Intent.Destination)
	fmt.Fprintf(&b, "- **From:** %s (%s)\n", call.Intent.SourceDisplay, call.Intent.SourceNumber)
	fmt.Fprintf(&b, "- **Dialed as:** `%s` from `%s`\n", call.Request.Destination, call.Request.CallerID)
	return b.String()
}
