package tui

import (
	"github.com/estoque-app/estoque/pkg/client"
	"github.com/estoque-app/estoque/pkg/domain"
	"github.com/estoque-app/estoque/pkg/guard"
)

// LoginPath is where anonymous sessions are sent.
const LoginPath = guard.DefaultLoginPath

const (
	master     = domain.RoleMasterAdmin
	gerente    = domain.RoleGerente
	supervisao = domain.RoleSupervisao
	logistica  = domain.RoleLogistica
	operador   = domain.RoleOperador
	rh         = domain.RoleRH
)

type route struct {
	path  string
	title string
	guard guard.Guard
	build func(c *client.Client, path string) screen
}

func protect(roles ...string) guard.Guard {
	return guard.Protect(LoginPath, roles...)
}

// routes is the navigation order. The dashboard is open to any session.
var routes = []route{
	{"/", "Início", protect(), newDashboard},
	{"/recebimento", "Recebimento", protect(master, gerente, supervisao, logistica, operador), newReceiptScreen},
	{"/venda", "Venda", protect(master, gerente, supervisao, operador), newSaleScreen},
	{"/ajustes", "Ajustes", protect(master, gerente, supervisao, logistica), newAdjustmentScreen},
	{"/armazens", "Armazéns", protect(master, gerente, supervisao, logistica), newWarehousesScreen},
	{"/estoque", "Estoque", protect(master, gerente, supervisao, logistica, operador), newStockScreen},
	{"/clientes", "Clientes", protect(master, gerente, supervisao, operador), newCustomersScreen},
	{"/materiais", "Materiais", protect(master, gerente, supervisao, logistica), newMaterialsScreen},
	{"/usuarios", "Usuários", protect(master, gerente, supervisao, rh), newUsersScreen},
	{"/companies", "Empresas", protect(master), newCompanyScreen},
}

// findRoute returns the route for path; unknown paths fall back to the
// dashboard.
func findRoute(path string) route {
	for _, r := range routes {
		if r.path == path {
			return r
		}
	}
	return routes[0]
}

// KnownPath reports whether path is in the route table.
func KnownPath(path string) bool {
	for _, r := range routes {
		if r.path == path {
			return true
		}
	}
	return false
}
