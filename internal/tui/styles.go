package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/estoque-app/estoque/pkg/domain"
)

var (
	// Base styles
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	// Toast line shown after a forced sign-out
	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#111118")).
			Background(lipgloss.Color("#f59e0b")).
			Bold(true).
			Padding(0, 1)

	deniedTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#d05050")).
				Bold(true)

	headerCellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#606878")).
			Bold(true)

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	// Role colors
	roleColors = map[string]lipgloss.Color{
		domain.RoleMasterAdmin: lipgloss.Color("#c084e0"),
		domain.RoleGerente:     lipgloss.Color("#f0944a"),
		domain.RoleSupervisao:  lipgloss.Color("#60a0e0"),
		domain.RoleLogistica:   lipgloss.Color("#3ecce4"),
		domain.RoleOperador:    lipgloss.Color("#43e88c"),
		domain.RoleRH:          lipgloss.Color("#d4a844"),
	}

	// Movement type colors
	movementColors = map[string]lipgloss.Color{
		domain.MovementReceipt:       lipgloss.Color("#4ade80"),
		domain.MovementSale:          lipgloss.Color("#f59e0b"),
		domain.MovementReturn:        lipgloss.Color("#22d3ee"),
		domain.MovementTransferIn:    lipgloss.Color("#60a0e0"),
		domain.MovementTransferOut:   lipgloss.Color("#60a0e0"),
		domain.MovementAdjustmentIn:  lipgloss.Color("#b080d0"),
		domain.MovementAdjustmentOut: lipgloss.Color("#b45555"),
	}
)

// movementLabels are the names shown for movement types.
var movementLabels = map[string]string{
	domain.MovementReceipt:       "Entrada",
	domain.MovementSale:          "Venda",
	domain.MovementReturn:        "Devolução",
	domain.MovementTransferIn:    "Transf. entrada",
	domain.MovementTransferOut:   "Transf. saída",
	domain.MovementAdjustmentIn:  "Ajuste +",
	domain.MovementAdjustmentOut: "Ajuste -",
}

// MovementLabel returns the display name of a movement type.
func MovementLabel(t string) string {
	if l, ok := movementLabels[t]; ok {
		return l
	}
	return t
}

// RoleStyle returns a bold style colored for the given role.
func RoleStyle(role string) lipgloss.Style {
	if c, ok := roleColors[domain.NormalizeRole(role)]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Bold(true)
}

// MovementStyle returns the style for a movement type.
func MovementStyle(t string) lipgloss.Style {
	if c, ok := movementColors[t]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return dimStyle
}

// RoleBadges renders a role set as colored badges, e.g. "[GERENTE] [RH]".
func RoleBadges(roles domain.RoleSet) string {
	if len(roles) == 0 {
		return dimStyle.Render("nenhum")
	}
	parts := make([]string, 0, len(roles))
	for _, r := range roles.Sorted() {
		parts = append(parts, RoleStyle(r).Render("["+r+"]"))
	}
	return strings.Join(parts, " ")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins help entries with the usual spacing.
func helpBar(entries ...string) string {
	return " " + strings.Join(entries, "  ")
}

// helpView renders the help overlay.
func helpView(version string) string {
	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	commands := []struct{ cmd, desc string }{
		{"estoque", "Abrir o terminal (TUI)"},
		{"estoque login --user", "Entrar sem abrir o terminal"},
		{"estoque logout", "Encerrar a sessão"},
		{"estoque whoami", "Mostrar o usuário da sessão"},
		{"estoque version", "Mostrar a versão"},
	}
	keys := []struct{ key, desc string }{
		{"1-9, 0", "trocar de tela"},
		{"j/k", "navegar"},
		{"r", "recarregar"},
		{"c", "copiar lista como CSV"},
		{"o", "sair da conta"},
		{"q", "fechar"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s  %s\n\n", titleStyle.Render("E S T O Q U E"), metaStyle.Render(version))

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Comandos"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Teclas"))
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", k.key)), descStyle.Render(k.desc))
	}
	return b.String()
}
