package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/estoque-app/estoque/internal/tui"
)

func runTUI(ctx context.Context, e *env, start string) error {
	if !tui.KnownPath(start) {
		return fmt.Errorf("rota desconhecida: %s", start)
	}

	app := tui.NewApp(e.client, e.store, version, start)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	unbind := tui.Bind(p, e.store, e.bus)
	defer unbind()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
