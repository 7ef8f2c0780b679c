package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NewNode    key.Binding
	DeleteNode key.Binding
	Undo       key.Binding
	Redo       key.Binding
	Save       key.Binding
	Paste      key.Binding
	ArrowStyle key.Binding
	TextPos    key.Binding
	Front      key.Binding
	NewTab     key.Binding
	NewDoc     key.Binding
	Nudge      key.Binding
	NudgeFast  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NewNode:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("^n", "new node")),
		DeleteNode: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("^x", "delete node")),
		Undo:       key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("^z", "undo")),
		Redo:       key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("^y", "redo")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "save")),
		Paste:      key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("^v", "paste")),
		ArrowStyle: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("^a", "arrow style")),
		TextPos:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("^p", "text position")),
		Front:      key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("^f", "bring to front")),
		NewTab:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("^t", "new tab")),
		NewDoc:     key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("^d", "new document")),
		Nudge: key.NewBinding(key.WithKeys("up", "down", "left", "right"),
			key.WithHelp("←↑↓→", "nudge node")),
		NudgeFast: key.NewBinding(key.WithKeys("shift+up", "shift+down", "shift+left", "shift+right"),
			key.WithHelp("shift+←↑↓→", "nudge faster")),
		Help: key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("^q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NewNode, k.Undo, k.Save, k.Paste, k.ArrowStyle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NewNode, k.DeleteNode, k.TextPos, k.Front, k.Nudge, k.NudgeFast},
		{k.Undo, k.Redo, k.Save, k.Paste, k.ArrowStyle},
		{k.NewTab, k.NewDoc, k.Help, k.Quit},
	}
}
