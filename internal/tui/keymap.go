package tui

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"
)

// KeyConfig overrides the configurable bindings; blank fields keep the defaults.
type KeyConfig struct {
	Reload      string
	CopyURL     string
	RequestCall string
}

// DefaultKeyConfig returns the built-in bindings.
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		Reload:      "ctrl+r",
		CopyURL:     "c",
		RequestCall: "ctrl+s",
	}
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	nextField   key.Binding
	prevField   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	choose      key.Binding
	dismiss     key.Binding
	requestCall key.Binding
	reload      key.Binding
	confirm     key.Binding
	cancel      key.Binding
	copyURL     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap(cfg KeyConfig) keyMap {
	def := DefaultKeyConfig()
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "toggle help")),
		nextField:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prevField:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		moveUp:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous option")),
		moveDown:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next option")),
		choose:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose / call")),
		dismiss:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close list")),
		requestCall: configuredBinding(cfg.RequestCall, def.RequestCall, "call"),
		reload:      configuredBinding(cfg.Reload, def.Reload, "reload phonebook"),
		confirm:     key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y/enter", "place call")),
		cancel:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "cancel")),
		copyURL:     configuredBinding(cfg.CopyURL, def.CopyURL, "copy URL"),
	}
}

// configuredBinding builds one binding from a configured key, falling back when blank.
func configuredBinding(raw, fallback, desc string) key.Binding {
	keys, help := parseBindingKeys(raw, fallback)
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// parseBindingKeys maps one configured key into matcher keys and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	runes := []rune(raw)
	if len(runes) == 1 {
		if unicode.IsUpper(runes[0]) {
			return []string{raw, "shift+" + strings.ToLower(raw)}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.nextField, k.moveDown, k.choose, k.requestCall, k.reload, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextField, k.prevField, k.requestCall, k.reload, k.toggleHelp, k.quit},
		{k.moveUp, k.moveDown, k.choose, k.dismiss},
		{k.confirm, k.cancel, k.copyURL},
	}
}

// modalHelp lists the bindings active inside the confirmation modal.
func (k keyMap) modalHelp() []key.Binding {
	return []key.Binding{k.confirm, k.copyURL, k.cancel}
}
