// Package tui provides the interactive call form: a destination field, a searchable caller-ID field and a
// confirmation modal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"golang.org/x/time/rate"

	"github.com/tamasystem/callpad/internal/app"
	"github.com/tamasystem/callpad/internal/combobox"
	"github.com/tamasystem/callpad/internal/domain"
)

// defaultMinReloadInterval throttles the reload key when no option overrides it.
const defaultMinReloadInterval = 2 * time.Second

// maxDropdownRows caps how many options render at once.
const maxDropdownRows = 8

// Screen rows of the form, used for mouse hit testing. View must keep this layout.
const (
	destinationRow = 3
	sourceRow      = 6
	dropdownTop    = 7
)

// field identifies one focusable input.
type field int

const (
	fieldDestination field = iota
	fieldSource
)

// phonebookLoadedMsg carries one finished load tagged with its generation.
type phonebookLoadedMsg struct {
	generation uint64
	result     app.LoadResult
	err        error
}

// phonebookChangedMsg reports that the watched phonebook file changed.
type phonebookChangedMsg struct{}

// refreshTickMsg fires on the periodic refresh interval.
type refreshTickMsg struct{}

// Model is the bubbletea model for the call form.
type Model struct {
	session *app.Session
	loader  app.CandidateLoader
	ctx     context.Context
	logger  app.Logger

	ready  bool
	width  int
	height int

	status string

	help help.Model
	keys keyMap

	destInput   textinput.Model
	sourceInput textinput.Model
	focus       field

	confirming bool
	markdown   *markdownRenderer
	copyURL    URLCopier

	changes       <-chan struct{}
	refreshEvery  time.Duration
	reloadLimiter *rate.Limiter
}

// NewModel constructs the call form over session, loading candidates through loader.
func NewModel(session *app.Session, loader app.CandidateLoader, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	destInput := textinput.New()
	destInput.Prompt = "> "
	destInput.Placeholder = "number to call"
	destInput.CharLimit = 32
	sourceInput := textinput.New()
	sourceInput.Prompt = "> "
	sourceInput.Placeholder = "phonebook name or number"
	sourceInput.CharLimit = 120
	m := Model{
		session:       session,
		loader:        loader,
		ctx:           context.Background(),
		logger:        app.LoggerOrNop(nil),
		status:        "loading phonebook...",
		help:          h,
		keys:          newKeyMap(DefaultKeyConfig()),
		destInput:     destInput,
		sourceInput:   sourceInput,
		focus:         fieldDestination,
		markdown:      &markdownRenderer{},
		reloadLimiter: newReloadLimiter(defaultMinReloadInterval),
	}
	if session != nil {
		m.destInput.SetValue(session.Destination())
		m.sourceInput.SetValue(session.Source().Query)
	}
	_ = m.destInput.Focus()
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// newReloadLimiter returns nil when d disables throttling.
func newReloadLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Init starts the first phonebook load and any background reload sources.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startLoad()}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes))
	}
	if m.refreshEvery > 0 {
		cmds = append(cmds, refreshTick(m.refreshEvery))
	}
	return tea.Batch(cmds...)
}

// Update routes one message to the focused field or the dialog.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case phonebookLoadedMsg:
		if m.session == nil || !m.session.ApplyLoadResult(msg.generation, msg.result, msg.err) {
			return m, nil
		}
		m.status = m.loadStatusText()
		return m, nil

	case phonebookChangedMsg:
		m.logger.Debug("phonebook change detected")
		return m, tea.Batch(m.startLoad(), waitForChange(m.changes))

	case refreshTickMsg:
		return m, tea.Batch(m.startLoad(), refreshTick(m.refreshEvery))

	case tea.KeyPressMsg:
		if m.session == nil {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.confirming {
			return m.handleConfirmKey(msg)
		}
		return m.handleFormKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		return m, nil
	}
}

// startLoad begins a new load generation and returns the command that performs it.
func (m Model) startLoad() tea.Cmd {
	if m.session == nil {
		return nil
	}
	gen := m.session.BeginLoad()
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		if loader == nil {
			return phonebookLoadedMsg{generation: gen, err: app.ErrNoSource}
		}
		result, err := loader.Load(ctx)
		return phonebookLoadedMsg{generation: gen, result: result, err: err}
	}
}

// waitForChange blocks on the watcher channel; a closed channel ends the subscription.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return phonebookChangedMsg{}
	}
}

// refreshTick schedules the next periodic reload.
func refreshTick(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// handleFormKey routes keys while the form is active.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if m.reloadLimiter != nil && !m.reloadLimiter.Allow() {
			m.status = "reload throttled; try again shortly"
			return m, nil
		}
		m.status = "reloading phonebook..."
		return m, m.startLoad()
	case key.Matches(msg, m.keys.requestCall):
		return m.requestCall()
	case key.Matches(msg, m.keys.nextField), key.Matches(msg, m.keys.prevField):
		if m.focus == fieldDestination {
			return m, m.setFocus(fieldSource)
		}
		return m, m.setFocus(fieldDestination)
	}

	if m.focus == fieldSource {
		return m.handleSourceKey(msg)
	}
	if key.Matches(msg, m.keys.choose) {
		return m.requestCall()
	}
	var cmd tea.Cmd
	m.destInput, cmd = m.destInput.Update(msg)
	m.session.SetDestination(m.destInput.Value())
	return m, cmd
}

// handleSourceKey drives the caller-ID combobox.
func (m Model) handleSourceKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveDown):
		m.session.Dispatch(combobox.ArrowDown{})
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.session.Dispatch(combobox.ArrowUp{})
		return m, nil
	case key.Matches(msg, m.keys.dismiss):
		m.session.Dispatch(combobox.Escape{})
		return m, nil
	case key.Matches(msg, m.keys.choose):
		if m.session.Source().CanSelect() {
			m.applyOutcome(m.session.Dispatch(combobox.Enter{}))
			return m, nil
		}
		return m.requestCall()
	}

	before := m.sourceInput.Value()
	var cmd tea.Cmd
	m.sourceInput, cmd = m.sourceInput.Update(msg)
	if after := m.sourceInput.Value(); after != before {
		m.session.Dispatch(combobox.TextChanged{Value: after})
	}
	return m, cmd
}

// handleConfirmKey routes keys while the confirmation modal is open.
func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.confirm):
		m.confirming = false
		req, err := m.session.ConfirmCall(m.ctx)
		if err != nil {
			m.status = "call failed: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("calling %s from %s", req.Destination, req.CallerID)
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		m.confirming = false
		m.session.CancelCall()
		m.status = "call cancelled"
		return m, nil
	case key.Matches(msg, m.keys.copyURL):
		call, ok := m.session.Pending()
		switch {
		case !ok:
			m.confirming = false
		case m.copyURL == nil:
			m.status = "clipboard unavailable"
		default:
			if err := m.copyURL(call.Request.URL); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "dial URL copied"
			}
		}
		return m, nil
	default:
		return m, nil
	}
}

// handleMouseClick maps clicks onto fields and dropdown options; anything else counts as outside the list.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.session == nil || m.confirming || msg.Button != tea.MouseLeft {
		return m, nil
	}
	switch msg.Y {
	case destinationRow:
		return m, m.setFocus(fieldDestination)
	case sourceRow:
		cmd := m.setFocus(fieldSource)
		m.session.Dispatch(combobox.FocusGained{})
		return m, cmd
	}
	state := m.session.Source()
	if state.Open {
		start, end := dropdownWindow(state)
		if row := msg.Y - dropdownTop; row >= 0 && row < end-start {
			m.applyOutcome(m.session.Dispatch(combobox.OptionClicked{Index: start + row}))
			return m, nil
		}
	}
	m.session.Dispatch(combobox.OutsideInteraction{})
	return m, nil
}

// setFocus moves focus between fields and tells the combobox when it gains or loses focus.
func (m *Model) setFocus(f field) tea.Cmd {
	if f == m.focus {
		return nil
	}
	m.focus = f
	if f == fieldSource {
		m.destInput.Blur()
		m.session.Dispatch(combobox.FocusGained{})
		return m.sourceInput.Focus()
	}
	m.sourceInput.Blur()
	m.session.Dispatch(combobox.OutsideInteraction{})
	return m.destInput.Focus()
}

// applyOutcome mirrors a selection back into the text input.
func (m *Model) applyOutcome(out combobox.Outcome) {
	if !out.HasSelection {
		return
	}
	m.sourceInput.SetValue(m.session.Source().Query)
	m.sourceInput.CursorEnd()
	m.status = "caller ID: " + out.Selected.DisplayName
}

// requestCall validates the form and opens the confirmation modal.
func (m Model) requestCall() (tea.Model, tea.Cmd) {
	_, err := m.session.RequestCall()
	switch {
	case errors.Is(err, app.ErrCallNotReady):
		m.status = "enter a destination and a caller ID first"
	case errors.Is(err, domain.ErrInvalidNumberFormat):
		m.status = "invalid number format: use digits, '+' and '-' only"
	case err != nil:
		m.status = err.Error()
	default:
		m.confirming = true
		m.session.Dispatch(combobox.OutsideInteraction{})
		m.status = "confirm the call"
	}
	return m, nil
}

// loadStatusText summarizes the last applied load.
func (m Model) loadStatusText() string {
	st := m.session.Status()
	if st.Err != nil {
		return fmt.Sprintf("phonebook unavailable: %v (%s to retry)", st.Err, m.keys.reload.Help().Key)
	}
	text := fmt.Sprintf("%d entries from %s", st.Entries, st.Source)
	if st.FromCache {
		text += " (offline copy from " + st.FetchedAt.Local().Format("2006-01-02 15:04") + ")"
	}
	return text
}

// View renders the form, the dropdown and, when requested, the confirmation modal.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render builds the screen content. Row positions must match the hit-testing constants.
func (m Model) render() string {
	if !m.ready || m.session == nil {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	focusLabelStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	numberStyle := lipgloss.NewStyle().Foreground(muted)
	highlightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

	state := m.session.Source()
	label := func(text string, f field) string {
		if m.focus == f {
			return focusLabelStyle.Render(text)
		}
		return labelStyle.Render(text)
	}

	src := m.sourceInput
	switch {
	case state.Loading:
		src.Placeholder = "loading phonebook..."
	case state.LoadErr != nil:
		src.Placeholder = "phonebook unavailable"
	}

	lines := []string{
		titleStyle.Render("callpad") + statusStyle.Render("  "+truncate(m.headerText(), max(0, m.width-10))),
		"",
		label("To", fieldDestination),
		m.destInput.View(),
		"",
		label("From", fieldSource),
		src.View(),
	}
	if state.Open {
		if state.NoResults() {
			lines = append(lines, statusStyle.Render("  no results"))
		}
		start, end := dropdownWindow(state)
		for idx := start; idx < end; idx++ {
			entry := state.Filtered[idx]
			row := entry.DisplayName + "  " + numberStyle.Render(entry.Number)
			if idx == state.Highlighted {
				lines = append(lines, highlightStyle.Render("› "+entry.DisplayName)+"  "+numberStyle.Render(entry.Number))
				continue
			}
			lines = append(lines, "  "+row)
		}
	}
	if number := m.session.Resolved().CanonicalNumber; number != "" {
		lines = append(lines, "", labelStyle.Render("number used for calling: "+number))
	}
	if strings.TrimSpace(m.status) != "" {
		lines = append(lines, "", statusStyle.Render(m.status))
	}
	content := strings.Join(lines, "\n")

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	if m.confirming {
		if modal := m.renderConfirmModal(accent, muted); modal != "" {
			height := lipgloss.Height(fullContent)
			if m.height > 0 {
				height = m.height
			}
			fullContent = overlayOnContent(fullContent, modal, max(1, m.width), max(1, height))
		}
	}
	return fullContent
}

// headerText describes the phonebook state for the title row.
func (m Model) headerText() string {
	state := m.session.Source()
	switch {
	case state.Loading:
		return "loading phonebook..."
	case state.LoadErr != nil:
		return "phonebook unavailable"
	}
	st := m.session.Status()
	if st.FromCache {
		return fmt.Sprintf("%d entries (offline)", st.Entries)
	}
	return fmt.Sprintf("%d entries", st.Entries)
}

// renderConfirmModal renders the pending call for confirmation.
func (m Model) renderConfirmModal(accent, muted color.Color) string {
	call, ok := m.session.Pending()
	if !ok {
		return ""
	}
	width := min(max(40, m.width-8), 90)
	body := m.markdown.render(confirmationMarkdown(call), width-6)
	urlLine := lipgloss.NewStyle().Foreground(muted).Render("URL: " + call.Request.URL)
	hints := m.help.ShortHelpView(m.keys.modalHelp())
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(width).
		Render(body + "\n\n" + urlLine + "\n\n" + hints)
}

// dropdownWindow returns the visible slice of options around the highlight.
func dropdownWindow(state combobox.State) (int, int) {
	return windowBounds(len(state.Filtered), state.Highlighted, maxDropdownRows)
}

// windowBounds returns a [start,end) window of at most windowSize rows that keeps selected visible.
func windowBounds(total, selected, windowSize int) (int, int) {
	if windowSize <= 0 || total <= windowSize {
		return 0, total
	}
	if selected < 0 {
		return 0, windowSize
	}
	start := selected - windowSize/2
	start = max(0, min(start, total-windowSize))
	return start, start + windowSize
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base on one canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)
	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate shortens s to at most limit runes.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit <= 1 {
		return string(rs[:limit])
	}
	return string(rs[:limit-1]) + "…"
}
