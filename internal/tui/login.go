package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/estoque-app/estoque/pkg/client"
	"github.com/estoque-app/estoque/pkg/session"
)

type loginModel struct {
	store      *session.Store
	fields     []field
	focus      int
	err        string
	submitting bool
	from       string // path to open after sign-in
	width      int
	height     int
}

func newLoginModel(store *session.Store, from string) loginModel {
	return loginModel{
		store: store,
		fields: []field{
			textField("Usuário", true),
			{label: "Senha", required: true, masked: true},
		},
		from: from,
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = loginError(msg.err)
			m.fields[1].value = ""
			m.focus = 1
			return m, nil
		}
		m.err = ""

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m loginModel) handleKey(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.focus = 1 - m.focus
	case "enter":
		if m.focus == 0 {
			m.focus = 1
			return m, nil
		}
		return m.submit()
	default:
		m.fields[m.focus] = m.fields[m.focus].edit(msg.String())
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	user := strings.TrimSpace(m.fields[0].value)
	pass := m.fields[1].value
	if user == "" || pass == "" {
		m.err = "informe usuário e senha"
		return m, nil
	}
	m.err = ""
	m.submitting = true
	store := m.store
	return m, func() tea.Msg {
		return loginResultMsg{err: store.SignIn(context.Background(), user, pass)}
	}
}

// loginError is the inline message for a failed sign-in.
func loginError(err error) string {
	switch {
	case errors.Is(err, session.ErrNoIdentity):
		return "não foi possível confirmar a sessão, tente novamente"
	case errors.Is(err, session.ErrHydrating):
		return "aguarde, verificando sessão"
	case client.IsStatus(err, 401):
		return "usuário ou senha inválidos"
	}
	return client.ExtractMessage(err)
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Entrar") + "\n")
	if m.from != "" && m.from != "/" {
		b.WriteString(" " + dimStyle.Render("para acessar "+m.from) + "\n")
	}
	b.WriteString("\n")
	for i, f := range m.fields {
		b.WriteString(renderField(f, i == m.focus, 12) + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("entrando...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}

func (m loginModel) helpKeys() string {
	return helpEntry("tab", "campo") + "  " + helpEntry("enter", "entrar") + "  " + helpEntry("ctrl+c", "sair")
}
