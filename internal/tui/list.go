package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/estoque-app/estoque/pkg/client"
)

type column struct {
	title string
	width int
}

// listDef describes a list screen over items of type T.
type listDef[T any] struct {
	title   string
	columns []column
	load    func(ctx context.Context) ([]T, error)
	row     func(T) []string
	empty   string
	actions []listAction[T]
}

// listAction runs against the selected item; the list reloads afterwards.
type listAction[T any] struct {
	key   string
	label string
	run   func(ctx context.Context, item T) (string, error)
}

type listLoadedMsg[T any] struct {
	route string
	items []T
	err   error
}

func (m listLoadedMsg[T]) routePath() string { return m.route }

type listModel[T any] struct {
	route   string
	def     listDef[T]
	items   []T
	cursor  int
	offset  int
	loading bool
	err     string
	status  string
	width   int
	height  int
}

func newListModel[T any](route string, def listDef[T]) *listModel[T] {
	return &listModel[T]{route: route, def: def}
}

func (m *listModel[T]) Init() tea.Cmd {
	m.loading = true
	return m.load()
}

func (m *listModel[T]) load() tea.Cmd {
	route, load := m.route, m.def.load
	return func() tea.Msg {
		items, err := load(context.Background())
		return listLoadedMsg[T]{route: route, items: items, err: err}
	}
}

func (m *listModel[T]) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case listLoadedMsg[T]:
		m.loading = false
		if msg.err != nil {
			m.err = client.ExtractMessage(msg.err)
			return m, nil
		}
		m.items = msg.items
		m.err = ""
		if m.cursor >= len(m.items) {
			m.cursor = 0
			m.offset = 0
		}

	case actionDoneMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(client.ExtractMessage(msg.err))
			return m, nil
		}
		m.status = successStyle.Render(msg.status)
		m.loading = true
		return m, m.load()

	case clipboardDoneMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("não foi possível copiar: " + msg.err.Error())
		} else {
			m.status = successStyle.Render(fmt.Sprintf("%d linhas copiadas como CSV", msg.rows))
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *listModel[T]) handleKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	key := msg.String()
	switch key {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		m.scroll()
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		m.scroll()
		return m, nil
	case "r":
		m.loading = true
		m.status = ""
		return m, m.load()
	case "c":
		return m, m.copyCSV()
	}

	for _, a := range m.def.actions {
		if a.key == key && m.cursor < len(m.items) {
			item, run, route := m.items[m.cursor], a.run, m.route
			return m, func() tea.Msg {
				status, err := run(context.Background(), item)
				return actionDoneMsg{route: route, status: status, err: err}
			}
		}
	}
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *listModel[T]) scroll() {
	visible := m.visibleRows()
	if visible <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *listModel[T]) visibleRows() int {
	// title, header, blank and status lines
	return m.height - 4
}

func (m *listModel[T]) copyCSV() tea.Cmd {
	header := make([]string, len(m.def.columns))
	for i, c := range m.def.columns {
		header[i] = c.title
	}
	rows := make([][]string, 0, len(m.items))
	for _, it := range m.items {
		rows = append(rows, m.def.row(it))
	}
	route := m.route
	return func() tea.Msg {
		text, err := toCSV(header, rows)
		if err == nil {
			err = writeClipboard(text)
		}
		return clipboardDoneMsg{route: route, rows: len(rows), err: err}
	}
}

func (m *listModel[T]) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render(m.def.title) + "\n")

	if m.loading && len(m.items) == 0 {
		b.WriteString(" " + dimStyle.Render("carregando...") + "\n")
		return b.String()
	}
	if m.err != "" {
		b.WriteString(" " + errorStyle.Render("erro: "+m.err) + "\n")
		return b.String()
	}
	if len(m.items) == 0 {
		b.WriteString("\n " + dimStyle.Render(m.def.empty) + "\n")
		return b.String()
	}

	cells := make([]string, len(m.def.columns))
	for i, c := range m.def.columns {
		cells[i] = headerCellStyle.Render(padCell(c.title, c.width))
	}
	b.WriteString("   " + strings.Join(cells, " ") + "\n")

	end := len(m.items)
	if v := m.visibleRows(); v > 0 && m.offset+v < end {
		end = m.offset + v
	}
	for i := m.offset; i < end; i++ {
		row := m.def.row(m.items[i])
		for j, c := range m.def.columns {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			cells[j] = padCell(v, c.width)
		}
		line := strings.Join(cells, " ")
		if i == m.cursor {
			b.WriteString(" " + accentStyle.Render("▸") + " " + selectedRowBg.Render(selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString("   " + normalStyle.Render(line) + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n " + m.status + "\n")
	}
	return b.String()
}

func (m *listModel[T]) helpKeys() string {
	entries := []string{helpEntry("j/k", "nav"), helpEntry("r", "recarregar"), helpEntry("c", "copiar CSV")}
	for _, a := range m.def.actions {
		entries = append(entries, helpEntry(a.key, a.label))
	}
	return strings.Join(entries, "  ")
}

func (m *listModel[T]) editing() bool { return false }
