package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	nextTab  key.Binding
	prevTab  key.Binding
	enter    key.Binding
	search   key.Binding
	back     key.Binding
	next     key.Binding
	previous key.Binding
	toggle   key.Binding
	like     key.Binding
	remove   key.Binding
	rewind   key.Binding
	forward  key.Binding
	open     key.Binding
	refresh  key.Binding
	account  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		nextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "results")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		toggle:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		remove:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		rewind:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-5%")),
		forward:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+5%")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		account:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "sign in/out")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextTab, k.toggle, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextTab, k.prevTab, k.enter, k.search, k.back},
		{k.next, k.previous, k.toggle, k.rewind, k.forward},
		{k.like, k.remove, k.open, k.refresh, k.account, k.quit},
	}
}
