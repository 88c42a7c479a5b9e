package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/estoque-app/estoque/pkg/client"
	"github.com/estoque-app/estoque/pkg/guard"
	"github.com/estoque-app/estoque/pkg/session"
)

// checkingText is shown while the boot hydration is pending.
const checkingText = "Verificando sessão…"

// expiredToast is shown once per forced sign-out.
const expiredToast = "Sessão expirada"

// chrome: header(1) + tabs(1) + toast(1) + help(1)
const chromeLines = 4

// App is the root Bubbletea model.
type App struct {
	client   *client.Client
	store    *session.Store
	version  string
	snap     session.Snapshot
	path     string
	opened   string // path whose screen is initialized for the current session
	screens  map[string]screen
	login    loginModel
	onLogin  bool
	helpOpen bool
	toast    string
	width    int
	height   int
}

// NewApp creates the TUI. start is the first path to open; unknown paths
// open the dashboard.
func NewApp(c *client.Client, store *session.Store, version, start string) App {
	if !KnownPath(start) {
		start = "/"
	}
	return App{
		client:  c,
		store:   store,
		version: version,
		snap:    store.Snapshot(),
		path:    start,
		screens: make(map[string]screen),
		login:   newLoginModel(store, start),
	}
}

func (a App) Init() tea.Cmd {
	if !a.snap.Loading() {
		snap := a.snap
		return func() tea.Msg { return sessionMsg{snap: snap} }
	}
	store := a.store
	return func() tea.Msg {
		return sessionMsg{snap: store.Reload(context.Background())}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		body := a.bodySize()
		a.login, _ = a.login.Update(body)
		for p, s := range a.screens {
			a.screens[p], _ = s.Update(body)
		}
		return a, nil

	case sessionMsg:
		// The store is the authority; msg.snap may already be superseded.
		a.snap = a.store.Snapshot()
		return a.enforce()

	case unauthorizedMsg:
		a.toast = expiredToast
		a.snap = a.store.Snapshot()
		return a.enforce()

	case loginResultMsg:
		a.login, _ = a.login.Update(msg)
		if msg.err != nil {
			return a, nil
		}
		a.toast = ""
		a.snap = a.store.Snapshot()
		return a.enforce()

	case signedOutMsg:
		a.snap = a.store.Snapshot()
		return a.enforce()

	case routed:
		s, ok := a.screens[msg.routePath()]
		if !ok {
			return a, nil
		}
		var cmd tea.Cmd
		a.screens[msg.routePath()], cmd = s.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.helpOpen {
		switch key {
		case "h", "esc":
			a.helpOpen = false
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	if a.onLogin {
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}

	cur := a.screens[a.path]
	if cur != nil && a.opened == a.path && cur.editing() {
		var cmd tea.Cmd
		a.screens[a.path], cmd = cur.Update(msg)
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "h":
		a.helpOpen = true
		return a, nil
	case "esc":
		if a.toast != "" {
			a.toast = ""
			return a, nil
		}
	case "o":
		if a.snap.Status == session.StatusAuthenticated {
			store := a.store
			return a, func() tea.Msg {
				return signedOutMsg{err: store.SignOut(context.Background())}
			}
		}
		return a, nil
	}

	if p, ok := a.tabPath(key); ok {
		if p == a.path {
			return a, nil
		}
		a.path = p
		a.opened = ""
		return a.enforce()
	}

	if cur != nil && a.opened == a.path {
		var cmd tea.Cmd
		a.screens[a.path], cmd = cur.Update(msg)
		return a, cmd
	}
	return a, nil
}

// decision runs the current route's guard.
func (a App) decision() guard.Decision {
	return findRoute(a.path).guard.Check(a.snap, a.path)
}

// enforce applies the guard of the current path: a redirect opens the
// login screen remembering the path, an allow opens the screen.
func (a App) enforce() (App, tea.Cmd) {
	d := a.decision()
	switch d.Outcome {
	case guard.Redirect:
		if !a.onLogin {
			a.onLogin = true
			a.login = newLoginModel(a.store, d.From)
			a.login, _ = a.login.Update(a.bodySize())
		}
		a.opened = ""
		a.screens = make(map[string]screen)
		return a, nil

	case guard.Allow:
		a.onLogin = false
		if a.opened == a.path {
			return a, nil
		}
		s, ok := a.screens[a.path]
		if !ok {
			s = findRoute(a.path).build(a.client, a.path)
			s, _ = s.Update(a.bodySize())
		}
		cmd := s.Init()
		a.screens[a.path] = s
		a.opened = a.path
		return a, cmd
	}

	a.onLogin = false
	a.opened = ""
	return a, nil
}

// visibleRoutes are the routes the current session may open.
func (a App) visibleRoutes() []route {
	if a.snap.Status != session.StatusAuthenticated {
		return nil
	}
	var out []route
	for _, r := range routes {
		if r.guard.Check(a.snap, r.path).Outcome == guard.Allow {
			out = append(out, r)
		}
	}
	return out
}

// tabPath maps a number key to a visible route: 1-9, then 0 for the tenth.
func (a App) tabPath(key string) (string, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || len(key) != 1 {
		return "", false
	}
	idx := n - 1
	if n == 0 {
		idx = 9
	}
	vis := a.visibleRoutes()
	if idx < 0 || idx >= len(vis) {
		return "", false
	}
	return vis[idx].path, true
}

func (a App) bodySize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: a.width, Height: a.height - chromeLines}
}

func (a App) View() string {
	header := " " + titleStyle.Render("ESTOQUE")
	if u := a.snap.User; u != nil && a.snap.Status == session.StatusAuthenticated {
		header += "  " + selectedStyle.Render(u.DisplayName()) + " " + RoleBadges(u.RoleSet())
	}

	var tabs strings.Builder
	for i, r := range a.visibleRoutes() {
		key := strconv.Itoa((i + 1) % 10)
		label := dimStyle.Render(r.title)
		if r.path == a.path && !a.onLogin {
			label = selectedStyle.Underline(true).Render(r.title)
			key = accentStyle.Render(key)
		} else {
			key = metaStyle.Render(key)
		}
		tabs.WriteString(" " + key + " " + label + " ")
	}

	toast := ""
	if a.toast != "" {
		toast = " " + toastStyle.Render(a.toast)
	}

	var body, help string
	d := a.decision()
	switch {
	case a.helpOpen:
		body = helpView(a.version)
		help = helpBar(helpEntry("esc", "fechar"))
	case a.onLogin:
		body = a.login.View()
		help = " " + a.login.helpKeys()
	case d.Outcome == guard.Loading:
		body = "\n " + dimStyle.Render(checkingText) + "\n"
		help = helpBar(helpEntry("q", "sair"))
	case d.Outcome == guard.Denied:
		body = deniedView(d)
		help = helpBar(helpEntry("1-9", "telas"), helpEntry("o", "sair da conta"), helpEntry("q", "fechar"))
	default:
		if s, ok := a.screens[a.path]; ok {
			body = s.View()
			help = " " + s.helpKeys() + "  " + helpEntry("o", "sair da conta") + "  " + helpEntry("h", "ajuda")
		}
	}

	if a.height > 0 {
		body = strings.TrimRight(truncateToHeight(body, a.height-chromeLines), "\n")
	}
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabs.String(), toast, body, help)
}

// deniedView shows required against actual roles.
func deniedView(d guard.Decision) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#b45555")).
		Padding(0, 2)

	content := deniedTitleStyle.Render("Acesso negado") + "\n\n" +
		dimStyle.Render("Perfis permitidos: ") + RoleBadges(d.Required) + "\n" +
		dimStyle.Render("Seu perfil:        ") + RoleBadges(d.Actual)
	return "\n" + box.Render(content) + "\n"
}
