package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type item struct {
	code string
	qty  float64
}

func testList(items []item, loadErr error) *listModel[item] {
	return newListModel("/t", listDef[item]{
		title:   "Itens",
		columns: []column{{"Código", 8}, {"Qtd", 6}},
		load: func(context.Context) ([]item, error) {
			return items, loadErr
		},
		row:   func(i item) []string { return []string{i.code, formatQty(i.qty)} },
		empty: "nada aqui",
		actions: []listAction[item]{
			{key: "x", label: "zerar", run: func(_ context.Context, i item) (string, error) {
				return i.code + " zerado", nil
			}},
		},
	})
}

// loaded runs Init and feeds its result back.
func loaded(t *testing.T, m *listModel[item]) *listModel[item] {
	t.Helper()
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	cmd := m.Init()
	if !strings.Contains(m.View(), "carregando...") {
		t.Error("list should show loading before the first result")
	}
	m.Update(cmd())
	return m
}

func TestListLoadAndNavigate(t *testing.T) {
	items := []item{{"A1", 2}, {"B2", 0.5}, {"C3", 10}, {"D4", 1}, {"E5", 3}, {"F6", 7}, {"G7", 9}}
	m := loaded(t, testList(items, nil))

	v := m.View()
	if !containsAll(v, "Itens", "Código", "A1", "0.5") {
		t.Errorf("view missing rows:\n%s", v)
	}

	for range 10 {
		m.Update(keyMsg("j"))
	}
	if m.cursor != len(items)-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, len(items)-1)
	}
	// height 10 leaves 6 rows
	if m.offset != 1 {
		t.Errorf("offset = %d, want 1", m.offset)
	}
	if strings.Contains(m.View(), "A1") {
		t.Error("first row should be scrolled out")
	}

	m.Update(keyMsg("k"))
	if m.cursor != len(items)-2 {
		t.Errorf("cursor after k = %d", m.cursor)
	}
}

func TestListEmptyAndError(t *testing.T) {
	if v := loaded(t, testList(nil, nil)).View(); !strings.Contains(v, "nada aqui") {
		t.Errorf("empty view = %q", v)
	}
	if v := loaded(t, testList(nil, errors.New("falhou"))).View(); !strings.Contains(v, "erro: falhou") {
		t.Errorf("error view = %q", v)
	}
}

func TestListActionReloads(t *testing.T) {
	m := loaded(t, testList([]item{{"A1", 2}, {"B2", 1}}, nil))
	m.Update(keyMsg("j"))

	_, cmd := m.Update(keyMsg("x"))
	if cmd == nil {
		t.Fatal("action key should return a command")
	}
	done, ok := cmd().(actionDoneMsg)
	if !ok || done.status != "B2 zerado" || done.route != "/t" {
		t.Fatalf("action result = %#v", done)
	}

	_, reload := m.Update(done)
	if reload == nil || !m.loading {
		t.Error("successful action should reload the list")
	}
	if !strings.Contains(m.View(), "B2 zerado") {
		t.Error("status should be shown")
	}

	m.Update(actionDoneMsg{route: "/t", err: errors.New("recusado")})
	if !strings.Contains(m.View(), "recusado") {
		t.Error("action error should be shown")
	}
}

func TestListCopyCSV(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	m := loaded(t, testList([]item{{"A1", 2}, {"B,2", 1.5}}, nil))
	_, cmd := m.Update(keyMsg("c"))
	msg := cmd().(clipboardDoneMsg)

	want := "Código,Qtd\nA1,2\n\"B,2\",1.5\n"
	if copied != want {
		t.Errorf("csv = %q, want %q", copied, want)
	}
	m.Update(msg)
	if !strings.Contains(m.View(), "2 linhas copiadas como CSV") {
		t.Error("copy status missing")
	}

	m.Update(clipboardDoneMsg{route: "/t", err: errors.New("sem xclip")})
	if !strings.Contains(m.View(), "não foi possível copiar") {
		t.Error("copy error missing")
	}
}

func TestStackOpensFormAndReloadsOnSubmit(t *testing.T) {
	list := testList([]item{{"A1", 2}}, nil)
	var got formValues
	form := newFormModel("/t", "Novo item", formVariant{
		name:   "item",
		fields: []field{textField("Código", true), qtyField("Qtd", "")},
		submit: func(_ context.Context, v formValues) (string, error) {
			got = v
			return "criado", nil
		},
	})
	s := &stackScreen{list: list, form: form}
	s.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	s.Update(s.Init()())

	s.Update(keyMsg("n"))
	if !s.editing() || !strings.Contains(s.View(), "Novo item") {
		t.Fatal("n should open the form in edit mode")
	}

	for _, k := range []string{"Z", "9", "tab", "3", ",", "5"} {
		s.Update(keyMsg(k))
	}
	_, cmd := s.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter on the last field should submit")
	}
	_, reload := s.Update(cmd())
	if got.text(0) != "Z9" || got.qty(1) != 3.5 {
		t.Errorf("submitted %v", got)
	}
	if s.showForm || reload == nil {
		t.Error("successful submit should close the form and reload")
	}

	s.Update(keyMsg("n"))
	s.Update(keyMsg("esc"))
	s.Update(keyMsg("esc"))
	if s.showForm {
		t.Error("esc in nav mode should close the form")
	}
}
