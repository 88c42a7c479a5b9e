package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/estoque-app/estoque/pkg/domain"
)

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "-"},
		{"now", time.Now(), "agora"},
		{"minutes", time.Now().Add(-5 * time.Minute), "há 5 min"},
		{"hours", time.Now().Add(-3 * time.Hour), "há 3 h"},
		{"date", time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC), "09/03/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTime(tt.t); got != tt.want {
				t.Errorf("formatTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPadCell(t *testing.T) {
	tests := []struct {
		in   string
		w    int
		want string
	}{
		{"ab", 4, "ab  "},
		{"abcdef", 4, "abc…"},
		{"ação", 4, "ação"},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		if got := padCell(tt.in, tt.w); got != tt.want {
			t.Errorf("padCell(%q, %d) = %q, want %q", tt.in, tt.w, got, tt.want)
		}
	}
}

func TestFormatNumbers(t *testing.T) {
	if got := formatQty(35); got != "35" {
		t.Errorf("formatQty(35) = %q", got)
	}
	if got := formatQty(2.25); got != "2.25" {
		t.Errorf("formatQty(2.25) = %q", got)
	}
	if got := formatMoney(38.9); got != "R$ 38,90" {
		t.Errorf("formatMoney(38.9) = %q", got)
	}
}

func TestRoleBadges(t *testing.T) {
	if got := RoleBadges(nil); !strings.Contains(got, "nenhum") {
		t.Errorf("empty badges = %q", got)
	}
	got := RoleBadges(domain.NewRoleSet("role_rh", "GERENTE"))
	if !strings.Contains(got, "[GERENTE]") || !strings.Contains(got, "[RH]") {
		t.Errorf("badges = %q", got)
	}
	if strings.Index(got, "GERENTE") > strings.Index(got, "RH") {
		t.Error("badges should be sorted")
	}
}

func TestMovementLabel(t *testing.T) {
	if got := MovementLabel(domain.MovementSale); got != "Venda" {
		t.Errorf("MovementLabel(sale) = %q", got)
	}
	if got := MovementLabel("OUTRO"); got != "OUTRO" {
		t.Errorf("unknown label = %q", got)
	}
}

func TestHelpViewListsCommands(t *testing.T) {
	v := helpView("1.2.3")
	if !containsAll(v, "1.2.3", "estoque login --user", "copiar lista como CSV") {
		t.Errorf("help view incomplete:\n%s", v)
	}
}
