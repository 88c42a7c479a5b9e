package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// stackScreen is a list with a creation form opened on top of it with n.
type stackScreen struct {
	list     screen
	form     *formModel
	showForm bool
}

func (s *stackScreen) Init() tea.Cmd {
	s.showForm = false
	return s.list.Init()
}

func (s *stackScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.list, _ = s.list.Update(msg)
		s.form.Update(msg)
		return s, nil

	case formSubmittedMsg:
		s.form.Update(msg)
		if msg.err == nil {
			s.showForm = false
			return s, s.list.Init()
		}
		return s, nil

	case tea.KeyMsg:
		if s.showForm {
			_, cmd := s.form.Update(msg)
			if s.form.closed {
				s.showForm = false
			}
			return s, cmd
		}
		if msg.String() == "n" {
			s.showForm = true
			s.form.Init()
			s.form.focus = 0
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *stackScreen) View() string {
	if s.showForm {
		return s.form.View()
	}
	return s.list.View()
}

func (s *stackScreen) helpKeys() string {
	if s.showForm {
		if s.form.editing() {
			return s.form.helpKeys()
		}
		return helpEntry("enter", "preencher") + "  " + helpEntry("esc", "voltar")
	}
	return s.list.helpKeys() + "  " + helpEntry("n", "novo")
}

func (s *stackScreen) editing() bool {
	return s.showForm
}
