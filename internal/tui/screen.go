package tui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/estoque-app/estoque/pkg/session"
)

// screen is a page reachable through the route table.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screen, tea.Cmd)
	View() string
	helpKeys() string
	// editing reports whether keystrokes go to an input, which disables
	// the global keys.
	editing() bool
}

// routed is implemented by messages that belong to one screen.
type routed interface {
	routePath() string
}

// -- app-level messages --

// sessionMsg announces a session transition. snap is the state at send
// time; the app re-reads the store on receipt.
type sessionMsg struct {
	snap session.Snapshot
}

// unauthorizedMsg is sent once per forced sign-out episode.
type unauthorizedMsg struct{}

type loginResultMsg struct {
	err error
}

type signedOutMsg struct {
	err error
}

// -- screen messages --

type actionDoneMsg struct {
	route  string
	status string
	err    error
}

func (m actionDoneMsg) routePath() string { return m.route }

type clipboardDoneMsg struct {
	route string
	rows  int
	err   error
}

func (m clipboardDoneMsg) routePath() string { return m.route }

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll
