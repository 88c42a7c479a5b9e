package tui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/estoque-app/estoque/pkg/client"
)

// formValues are the trimmed field values in field order.
type formValues []string

func (v formValues) text(i int) string { return strings.TrimSpace(v[i]) }

// id parses an already validated numeric field.
func (v formValues) id(i int) int64 {
	n, _ := strconv.ParseInt(v.text(i), 10, 64) //nolint:errcheck // validated before submit
	return n
}

func (v formValues) qty(i int) float64 {
	f, _ := strconv.ParseFloat(v.text(i), 64) //nolint:errcheck // validated before submit
	return f
}

// formVariant is one operation a form can post. Forms with several
// variants switch between them with ctrl+t.
type formVariant struct {
	name   string
	fields []field
	submit func(ctx context.Context, v formValues) (string, error)
}

type formSubmittedMsg struct {
	route  string
	status string
	err    error
}

func (m formSubmittedMsg) routePath() string { return m.route }

type formModel struct {
	route      string
	title      string
	variants   []formVariant
	variant    int
	fields     []field
	focus      int // -1 = not editing
	submitting bool
	err        string
	status     string
	closed     bool // set on esc when the form sits on top of a list
	width      int
	height     int
}

func newFormModel(route, title string, variants ...formVariant) *formModel {
	m := &formModel{route: route, title: title, variants: variants, focus: -1}
	m.reset()
	return m
}

func (m *formModel) reset() {
	v := m.variants[m.variant]
	m.fields = make([]field, len(v.fields))
	copy(m.fields, v.fields)
	m.focus = -1
}

func (m *formModel) Init() tea.Cmd {
	m.err = ""
	m.closed = false
	return nil
}

func (m *formModel) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case formSubmittedMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.ExtractMessage(msg.err)
			m.status = ""
			return m, nil
		}
		m.err = ""
		m.status = msg.status
		m.reset()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *formModel) handleKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	key := msg.String()

	if m.focus < 0 {
		switch key {
		case "enter", "i":
			m.focus = 0
			m.status = ""
		case "ctrl+t":
			m.switchVariant()
		case "esc":
			m.closed = true
		}
		return m, nil
	}

	switch key {
	case "esc":
		m.focus = -1
	case "tab", "down":
		m.focus = (m.focus + 1) % len(m.fields)
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + len(m.fields)) % len(m.fields)
	case "ctrl+t":
		m.switchVariant()
	case "ctrl+s":
		return m, m.submit()
	case "enter":
		if m.focus == len(m.fields)-1 {
			return m, m.submit()
		}
		m.focus++
	default:
		m.fields[m.focus] = m.fields[m.focus].edit(key)
	}
	return m, nil
}

func (m *formModel) switchVariant() {
	if len(m.variants) < 2 {
		return
	}
	m.variant = (m.variant + 1) % len(m.variants)
	m.err = ""
	m.status = ""
	m.reset()
}

// validate returns the inline error for the current values, or "".
func (m *formModel) validate() string {
	var missing, invalid []string
	for _, f := range m.fields {
		v := strings.TrimSpace(f.value)
		switch {
		case v == "" && f.required:
			missing = append(missing, f.label)
		case v != "" && f.kind == kindID:
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				invalid = append(invalid, f.label)
			}
		case v != "" && f.kind == kindQty:
			if q, err := strconv.ParseFloat(v, 64); err != nil || (q == 0 && f.required) {
				invalid = append(invalid, f.label)
			}
		}
	}
	switch {
	case len(missing) > 0:
		return "preencha: " + strings.Join(missing, ", ")
	case len(invalid) > 0:
		return "valor inválido: " + strings.Join(invalid, ", ")
	}
	return ""
}

func (m *formModel) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	if msg := m.validate(); msg != "" {
		m.err = msg
		return nil
	}
	m.err = ""
	m.submitting = true

	values := make(formValues, len(m.fields))
	for i, f := range m.fields {
		values[i] = f.value
	}
	route, submit := m.route, m.variants[m.variant].submit
	return func() tea.Msg {
		status, err := submit(context.Background(), values)
		return formSubmittedMsg{route: route, status: status, err: err}
	}
}

func (m *formModel) View() string {
	var b strings.Builder
	title := m.title
	if len(m.variants) > 1 {
		title += " · " + m.variants[m.variant].name
	}
	b.WriteString(" " + titleStyle.Render(title) + "\n\n")

	labelWidth := 0
	for _, f := range m.fields {
		if w := len([]rune(f.label)) + 2; w > labelWidth {
			labelWidth = w
		}
	}
	for i, f := range m.fields {
		b.WriteString(renderField(f, i == m.focus, labelWidth) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("enviando...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	case m.status != "":
		b.WriteString(" " + successStyle.Render(m.status) + "\n")
	case m.focus < 0:
		b.WriteString(" " + dimStyle.Render("enter para preencher") + "\n")
	}
	return b.String()
}

func (m *formModel) helpKeys() string {
	if m.focus < 0 {
		entries := []string{helpEntry("enter", "preencher")}
		if len(m.variants) > 1 {
			entries = append(entries, helpEntry("ctrl+t", "operação"))
		}
		return strings.Join(entries, "  ")
	}
	return helpEntry("tab", "próximo") + "  " + helpEntry("ctrl+s", "enviar") + "  " + helpEntry("esc", "sair do campo")
}

func (m *formModel) editing() bool { return m.focus >= 0 }
