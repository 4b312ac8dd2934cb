// Package keymap holds the TUI key bindings and the hints shown for them.
package keymap

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Context selects which hints apply.
type Context int

const (
	// ContextList is the chat picker.
	ContextList Context = iota
	// ContextChat is an open conversation.
	ContextChat
)

// KeyMap is the full set of bindings. Select and Send share enter; which
// one fires depends on the view that has focus.
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Send   key.Binding
	Reload key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap returns vim-style navigation plus arrows.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:   bind("q", "quit", "q", "ctrl+c"),
		Help:   bind("?", "help", "?"),
		Back:   bind("esc", "back", "esc"),
		Up:     bind("↑/k", "up", "up", "k"),
		Down:   bind("↓/j", "down", "down", "j"),
		Select: bind("enter", "open", "enter"),
		Send:   bind("enter", "send", "enter"),
		Reload: bind("r", "reload", "r"),
	}
}

// Hints returns the bindings worth advertising in the status bar for ctx.
func (k *KeyMap) Hints(ctx Context) []key.Binding {
	if ctx == ContextChat {
		return []key.Binding{k.Send, k.Back}
	}
	return []key.Binding{k.Select, k.Reload, k.Quit}
}

// FullHelp groups every binding for the help screen: navigation, chat,
// then global keys.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Reload},
		{k.Send, k.Back},
		{k.Help, k.Quit},
	}
}

// Format renders bindings as "key: desc" pairs joined by sep. Disabled
// bindings are skipped.
func Format(bindings []key.Binding, sep string) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, sep)
}

// Matches reports whether the key string from a tea.KeyMsg triggers binding.
func Matches(pressed string, binding key.Binding) bool {
	return binding.Enabled() && slices.Contains(binding.Keys(), pressed)
}
