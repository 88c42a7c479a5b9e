package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/estoque-app/estoque/pkg/authevents"
	"github.com/estoque-app/estoque/pkg/session"
)

// sender is the part of *tea.Program Bind needs.
type sender interface {
	Send(msg tea.Msg)
}

// Bind forwards session transitions and forced sign-outs to p. The store
// must be subscribed to bus before Bind so the session is already cleared
// when the toast arrives. Call the returned func once the program exits.
func Bind(p sender, store *session.Store, bus *authevents.Bus) func() {
	unsubStore := store.Subscribe(func(s session.Snapshot) {
		p.Send(sessionMsg{snap: s})
	})
	sub := bus.Subscribe(func() {
		p.Send(unauthorizedMsg{})
	})
	return func() {
		unsubStore()
		sub.Unsubscribe()
	}
}
