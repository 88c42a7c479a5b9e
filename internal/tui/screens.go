package tui

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/estoque-app/estoque/pkg/client"
	"github.com/estoque-app/estoque/pkg/domain"
)

// stockFanout bounds the concurrent per-material stock calls.
const stockFanout = 4

// dashboardLimit is how many recent movements the dashboard shows.
const dashboardLimit = 20

func idStr(id int64) string { return strconv.FormatInt(id, 10) }

func resultStatus(what string, r *domain.MovementResult) string {
	if r.Message != "" {
		return r.Message
	}
	return fmt.Sprintf("%s registrada · movimento #%d · saldo %s", what, r.MovementID, formatQty(r.Balance))
}

// -- dashboard --

func newDashboard(c *client.Client, route string) screen {
	return newListModel(route, listDef[domain.Movement]{
		title: "Últimas movimentações",
		columns: []column{
			{"#", 6}, {"Tipo", 16}, {"Material", 12}, {"Local", 6}, {"Qtd", 9}, {"Por", 10}, {"Quando", 12},
		},
		load: func(ctx context.Context) ([]domain.Movement, error) {
			return c.ListMovements(ctx, domain.AllMovementTypes, dashboardLimit)
		},
		row: func(m domain.Movement) []string {
			return []string{
				idStr(m.ID), MovementLabel(m.Type), m.MaterialCode, idStr(m.LocationID),
				formatQty(m.Qty), m.CreatedBy, formatTime(m.CreatedAt),
			}
		},
		empty: "nenhuma movimentação registrada",
	})
}

// -- stock --

type stockRow struct {
	material domain.Material
	total    float64
}

// loadStock fetches the balance of every material, a few at a time. The
// first failure cancels the calls still pending.
func loadStock(ctx context.Context, c *client.Client) ([]stockRow, error) {
	materials, err := c.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]stockRow, len(materials))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stockFanout)
	for i, m := range materials {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := c.GetStock(gctx, m.ID)
			if err != nil {
				return err
			}
			rows[i] = stockRow{material: m, total: s.Total}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func newStockScreen(c *client.Client, route string) screen {
	return newListModel(route, listDef[stockRow]{
		title:   "Estoque",
		columns: []column{{"Código", 10}, {"Material", 28}, {"Un", 4}, {"Saldo", 10}},
		load: func(ctx context.Context) ([]stockRow, error) {
			return loadStock(ctx, c)
		},
		row: func(r stockRow) []string {
			return []string{r.material.Code, r.material.Name, r.material.Unit, formatQty(r.total)}
		},
		empty: "nenhum material cadastrado",
	})
}

// -- warehouses and locations --

type locationRow struct {
	warehouse domain.Warehouse
	location  domain.Location
}

func newWarehousesScreen(c *client.Client, route string) screen {
	return newListModel(route, listDef[locationRow]{
		title:   "Armazéns e locais",
		columns: []column{{"Armazém", 8}, {"Nome", 26}, {"Local", 8}, {"Descrição", 20}},
		load: func(ctx context.Context) ([]locationRow, error) {
			warehouses, err := c.ListWarehouses(ctx)
			if err != nil {
				return nil, err
			}
			var rows []locationRow
			for _, w := range warehouses {
				locs, err := c.ListLocations(ctx, w.ID)
				if err != nil {
					return nil, err
				}
				if len(locs) == 0 {
					rows = append(rows, locationRow{warehouse: w})
				}
				for _, l := range locs {
					rows = append(rows, locationRow{warehouse: w, location: l})
				}
			}
			return rows, nil
		},
		row: func(r locationRow) []string {
			return []string{r.warehouse.Code, r.warehouse.Name, r.location.Code, r.location.Name}
		},
		empty: "nenhum armazém cadastrado",
	})
}

// -- materials --

func newMaterialsScreen(c *client.Client, route string) screen {
	list := newListModel(route, listDef[domain.Material]{
		title:   "Materiais",
		columns: []column{{"#", 5}, {"Código", 10}, {"Nome", 28}, {"Un", 4}, {"Preço", 12}, {"Ativo", 5}},
		load:    c.ListMaterials,
		row: func(m domain.Material) []string {
			active := "não"
			if m.Active {
				active = "sim"
			}
			return []string{idStr(m.ID), m.Code, m.Name, m.Unit, formatMoney(m.Price), active}
		},
		empty: "nenhum material cadastrado",
		actions: []listAction[domain.Material]{
			{key: "a", label: "ativar/desativar", run: func(ctx context.Context, m domain.Material) (string, error) {
				m.Active = !m.Active
				saved, err := c.SaveMaterial(ctx, m)
				if err != nil {
					return "", err
				}
				if saved.Active {
					return saved.Code + " ativado", nil
				}
				return saved.Code + " desativado", nil
			}},
			{key: "x", label: "excluir", run: func(ctx context.Context, m domain.Material) (string, error) {
				if err := c.DeleteMaterial(ctx, m.ID); err != nil {
					return "", err
				}
				return m.Code + " excluído", nil
			}},
		},
	})

	form := newFormModel(route, "Novo material", formVariant{
		name: "material",
		fields: []field{
			textField("Código", true),
			textField("Nome", true),
			textField("Unidade", false),
			{label: "Preço", kind: kindQty, hint: "0,00"},
		},
		submit: func(ctx context.Context, v formValues) (string, error) {
			saved, err := c.SaveMaterial(ctx, domain.Material{
				Code:   v.text(0),
				Name:   v.text(1),
				Unit:   v.text(2),
				Price:  v.qty(3),
				Active: true,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("material %s criado (#%d)", saved.Code, saved.ID), nil
		},
	})
	return &stackScreen{list: list, form: form}
}

// -- customers --

func newCustomersScreen(c *client.Client, route string) screen {
	list := newListModel(route, listDef[domain.Customer]{
		title:   "Clientes",
		columns: []column{{"#", 5}, {"Nome", 28}, {"Documento", 16}, {"E-mail", 24}},
		load:    c.ListCustomers,
		row: func(cu domain.Customer) []string {
			return []string{idStr(cu.ID), cu.Name, cu.Document, cu.Email}
		},
		empty: "nenhum cliente cadastrado",
	})

	form := newFormModel(route, "Novo cliente", formVariant{
		name: "cliente",
		fields: []field{
			textField("Nome", true),
			textField("Documento", true),
			textField("E-mail", false),
			textField("Telefone", false),
		},
		submit: func(ctx context.Context, v formValues) (string, error) {
			created, err := c.CreateCustomer(ctx, domain.Customer{
				Name:     v.text(0),
				Document: v.text(1),
				Email:    v.text(2),
				Phone:    v.text(3),
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("cliente %s cadastrado (#%d)", created.Name, created.ID), nil
		},
	})
	return &stackScreen{list: list, form: form}
}

// -- users and company --

func newUsersScreen(c *client.Client, route string) screen {
	return newListModel(route, listDef[domain.User]{
		title:   "Usuários",
		columns: []column{{"#", 5}, {"Usuário", 16}, {"Nome", 24}, {"Perfis", 24}, {"Ativo", 5}},
		load:    c.ListUsers,
		row: func(u domain.User) []string {
			active := "não"
			if u.Active {
				active = "sim"
			}
			return []string{idStr(u.ID), u.Username, u.FullName, domain.NewRoleSet(u.Roles...).String(), active}
		},
		empty: "nenhum usuário",
	})
}

type kv struct{ key, value string }

func newCompanyScreen(c *client.Client, route string) screen {
	return newListModel(route, listDef[kv]{
		title:   "Empresa",
		columns: []column{{"Campo", 12}, {"Valor", 40}},
		load: func(ctx context.Context) ([]kv, error) {
			co, err := c.GetCompany(ctx)
			if err != nil {
				return nil, err
			}
			return []kv{
				{"ID", idStr(co.ID)},
				{"Nome", co.Name},
				{"Documento", co.Document},
				{"Plano", co.Plan},
			}, nil
		},
		row:   func(p kv) []string { return []string{p.key, p.value} },
		empty: "empresa não encontrada",
	})
}

// -- operations --

func newReceiptScreen(c *client.Client, route string) screen {
	return newFormModel(route, "Recebimento", formVariant{
		name: "entrada por NF",
		fields: []field{
			textField("Nota fiscal", true),
			idField("Item da NF"),
			idField("Material"),
			qtyField("Quantidade", ""),
			idField("Armazém"),
			idField("Local"),
			textField("Observação", false),
		},
		submit: func(ctx context.Context, v formValues) (string, error) {
			res, err := c.PostReceipt(ctx, domain.ReceiptRequest{
				NFNumber:      v.text(0),
				InvoiceItemID: v.id(1),
				MaterialID:    v.id(2),
				Qty:           v.qty(3),
				WarehouseID:   v.id(4),
				LocationID:    v.id(5),
				Note:          v.text(6),
			})
			if err != nil {
				return "", err
			}
			return resultStatus("entrada", res), nil
		},
	})
}

func newSaleScreen(c *client.Client, route string) screen {
	return newFormModel(route, "Venda", formVariant{
		name: "venda",
		fields: []field{
			{label: "Doc. do cliente", hint: "opcional"},
			idField("Material"),
			qtyField("Quantidade", ""),
			idField("Armazém"),
			idField("Local"),
			textField("Observação", false),
		},
		submit: func(ctx context.Context, v formValues) (string, error) {
			req := domain.SaleRequest{
				MaterialID:  v.id(1),
				Qty:         v.qty(2),
				WarehouseID: v.id(3),
				LocationID:  v.id(4),
				Note:        v.text(5),
			}
			if doc := v.text(0); doc != "" {
				cust, err := c.CustomerByDocument(ctx, doc)
				if err != nil {
					return "", err
				}
				req.CustomerID = cust.ID
			}
			res, err := c.PostSale(ctx, req)
			if err != nil {
				return "", err
			}
			return resultStatus("venda", res), nil
		},
	})
}

func newAdjustmentScreen(c *client.Client, route string) screen {
	adjust := formVariant{
		name: "ajuste",
		fields: []field{
			idField("Material"),
			idField("Armazém"),
			idField("Local"),
			qtyField("Quantidade", "negativo para saída"),
			textField("Motivo", true),
		},
		submit: func(ctx context.Context, v formValues) (string, error) {
			res, err := c.PostReturn(ctx, domain.ReturnRequest{
				MaterialID:  v.id(0),
				WarehouseID: v.id(1),
				LocationID:  v.id(2),
				Qty:         v.qty(3),
				Note:        v.text(4),
			})
			if err != nil {
				return "", err
			}
			return resultStatus("ajuste", res), nil
		},
	}
	transfer := formVariant{
		name: "transferência",
		fields: []field{
			idField("Material"),
			idField("Armazém"),
			textField("Local de origem", true),
			textField("Local de destino", true),
			qtyField("Quantidade", ""),
			textField("Observação", false),
		},
		submit: func(ctx context.Context, v formValues) (string, error) {
			res, err := c.PostTransferByCode(ctx, domain.TransferByCodeRequest{
				MaterialID:       v.id(0),
				WarehouseID:      v.id(1),
				FromLocationCode: v.text(2),
				ToLocationCode:   v.text(3),
				Qty:              v.qty(4),
				Note:             v.text(5),
			})
			if err != nil {
				return "", err
			}
			return resultStatus("transferência", res), nil
		},
	}
	return newFormModel(route, "Ajuste de estoque", adjust, transfer)
}
