package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/estoque-app/estoque/pkg/domain"
)

// --- Master data ---

// ListMaterials returns the material catalogue.
func (c *Client) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	var materials []domain.Material
	if err := c.get(ctx, "/master-data/materials", &materials); err != nil {
		return nil, fmt.Errorf("client.ListMaterials: %w", err)
	}
	return materials, nil
}

// ListWarehouses returns every warehouse.
func (c *Client) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	var warehouses []domain.Warehouse
	if err := c.get(ctx, "/master-data/warehouses", &warehouses); err != nil {
		return nil, fmt.Errorf("client.ListWarehouses: %w", err)
	}
	return warehouses, nil
}

// ListLocations returns the locations of one warehouse.
func (c *Client) ListLocations(ctx context.Context, warehouseID int64) ([]domain.Location, error) {
	params := url.Values{}
	params.Set("warehouseId", strconv.FormatInt(warehouseID, 10))

	var locations []domain.Location
	if err := c.get(ctx, "/master-data/locations?"+params.Encode(), &locations); err != nil {
		return nil, fmt.Errorf("client.ListLocations: %w", err)
	}
	return locations, nil
}

// SaveMaterial creates the material when ID is zero, updates it otherwise.
func (c *Client) SaveMaterial(ctx context.Context, m domain.Material) (*domain.Material, error) {
	var saved domain.Material
	var err error
	if m.ID == 0 {
		err = c.post(ctx, "/materials", m, &saved)
	} else {
		err = c.put(ctx, "/materials/"+strconv.FormatInt(m.ID, 10), m, &saved)
	}
	if err != nil {
		return nil, fmt.Errorf("client.SaveMaterial: %w", err)
	}
	return &saved, nil
}

// DeleteMaterial removes a material.
func (c *Client) DeleteMaterial(ctx context.Context, id int64) error {
	if err := c.delete(ctx, "/materials/"+strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("client.DeleteMaterial: %w", err)
	}
	return nil
}

// --- Movements ---

// ListMovements returns the latest movements of the given types.
func (c *Client) ListMovements(ctx context.Context, types []string, limit int) ([]domain.Movement, error) {
	params := url.Values{}
	if len(types) > 0 {
		params.Set("types", strings.Join(types, ","))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var movements []domain.Movement
	if err := c.get(ctx, "/movements?"+params.Encode(), &movements); err != nil {
		return nil, fmt.Errorf("client.ListMovements: %w", err)
	}
	return movements, nil
}

// GetStock returns the consolidated balance of a material.
func (c *Client) GetStock(ctx context.Context, materialID int64) (*domain.StockSummary, error) {
	var stock domain.StockSummary
	if err := c.get(ctx, "/movements/material/"+strconv.FormatInt(materialID, 10)+"/stock", &stock); err != nil {
		return nil, fmt.Errorf("client.GetStock: %w", err)
	}
	return &stock, nil
}

// --- Operations ---

// PostReceipt records goods received against an invoice item.
func (c *Client) PostReceipt(ctx context.Context, r domain.ReceiptRequest) (*domain.MovementResult, error) {
	var res domain.MovementResult
	if err := c.post(ctx, "/receipts", r, &res); err != nil {
		return nil, fmt.Errorf("client.PostReceipt: %w", err)
	}
	return &res, nil
}

// PostSale records a sale. Stock consumption happens server-side.
func (c *Client) PostSale(ctx context.Context, s domain.SaleRequest) (*domain.MovementResult, error) {
	var res domain.MovementResult
	if err := c.post(ctx, "/sales", s, &res); err != nil {
		return nil, fmt.Errorf("client.PostSale: %w", err)
	}
	return &res, nil
}

// PostReturn records a stock adjustment or customer return.
func (c *Client) PostReturn(ctx context.Context, r domain.ReturnRequest) (*domain.MovementResult, error) {
	var res domain.MovementResult
	if err := c.post(ctx, "/operations/returns", r, &res); err != nil {
		return nil, fmt.Errorf("client.PostReturn: %w", err)
	}
	return &res, nil
}

// PostTransferByCode moves stock between two location codes.
func (c *Client) PostTransferByCode(ctx context.Context, t domain.TransferByCodeRequest) (*domain.MovementResult, error) {
	var res domain.MovementResult
	if err := c.post(ctx, "/operations/transfers/by-code", t, &res); err != nil {
		return nil, fmt.Errorf("client.PostTransferByCode: %w", err)
	}
	return &res, nil
}
