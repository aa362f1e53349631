package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bassamadnan/mailsort/triage"
)

// KeyMap holds the review keybindings.
type KeyMap struct {
	Quit        key.Binding
	Inbox       key.Binding
	FollowUp    key.Binding
	ReadThrough key.Binding
	Archive     key.Binding
	Start       key.Binding
	Next        key.Binding
	Prev        key.Binding
	Sender      key.Binding
	Domain      key.Binding
	Commit      key.Binding
	Redraw      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Inbox: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "inbox"),
		),
		FollowUp: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow up"),
		),
		ReadThrough: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "read through"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "archive"),
		),
		Start: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "first"),
		),
		Next: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "prev"),
		),
		Sender: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "same sender"),
		),
		Domain: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "same domain"),
		),
		Commit: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "commit"),
		),
		Redraw: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "redraw"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Inbox, k.FollowUp, k.ReadThrough, k.Archive, k.Next, k.Prev, k.Sender, k.Domain, k.Commit, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Inbox, k.FollowUp, k.ReadThrough, k.Archive},
		{k.Next, k.Prev, k.Start, k.Redraw},
		{k.Sender, k.Domain, k.Commit, k.Quit},
	}
}

// command maps a key press to an engine command. Redraw and unknown keys map
// to a no-op.
func (k KeyMap) command(msg tea.KeyMsg) triage.Command {
	switch {
	case key.Matches(msg, k.Quit):
		return triage.Quit()
	case key.Matches(msg, k.Inbox):
		return triage.SetPending(triage.Inbox)
	case key.Matches(msg, k.FollowUp):
		return triage.SetPending(triage.FollowUp)
	case key.Matches(msg, k.ReadThrough):
		return triage.SetPending(triage.ReadThrough)
	case key.Matches(msg, k.Archive):
		return triage.SetPending(triage.Archive)
	case key.Matches(msg, k.Start):
		return triage.JumpToStart()
	case key.Matches(msg, k.Next):
		return triage.Advance()
	case key.Matches(msg, k.Prev):
		return triage.Retreat()
	case key.Matches(msg, k.Sender):
		return triage.PropagateSender()
	case key.Matches(msg, k.Domain):
		return triage.PropagateDomain()
	case key.Matches(msg, k.Commit):
		return triage.CommitFilter()
	}
	return triage.Command{}
}
