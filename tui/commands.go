package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bassamadnan/mailsort/inbox"
	"github.com/bassamadnan/mailsort/triage"
)

// startLoadCmd runs the loader and reports through events, closing it when
// done. Progress counts are dropped while the UI is behind; the final
// LoadedMsg is dropped only if ctx is cancelled.
func startLoadCmd(ctx context.Context, loader Loader, events chan<- tea.Msg) tea.Cmd {
	return func() tea.Msg {
		defer close(events)

		emails := loader.Load(ctx, func(count int) {
			select {
			case events <- ProgressMsg{Count: count}:
			default:
			}
		})

		select {
		case events <- LoadedMsg{Emails: emails}:
		case <-ctx.Done():
		}
		return nil
	}
}

// waitForEventCmd delivers the next loader event. Update re-queues it after
// every progress message.
func waitForEventCmd(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return loadStoppedMsg{}
		}
		return msg
	}
}

func commitCmd(ctx context.Context, committer inbox.Committer, emails []triage.Email) tea.Cmd {
	return func() tea.Msg {
		err := committer.Commit(ctx, emails)
		return commitDoneMsg{count: len(emails), err: err}
	}
}
