package domain

import "time"

// Material is a stock-keeping item from master data.
type Material struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Unit        string  `json:"unit,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Active      bool    `json:"active"`
}

// Warehouse groups storage locations.
type Warehouse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Location is a bin inside a warehouse.
type Location struct {
	ID          int64  `json:"id"`
	WarehouseID int64  `json:"warehouseId"`
	Code        string `json:"code"`
	Name        string `json:"name,omitempty"`
}

// Movement types accepted by GET /movements.
const (
	MovementReceipt       = "RECEIPT"
	MovementSale          = "SALE"
	MovementReturn        = "RETURN"
	MovementTransferOut   = "TRANSFER_OUT"
	MovementTransferIn    = "TRANSFER_IN"
	MovementAdjustmentIn  = "ADJUSTMENT_IN"
	MovementAdjustmentOut = "ADJUSTMENT_OUT"
)

// AllMovementTypes is the filter the dashboard uses.
var AllMovementTypes = []string{
	MovementReceipt, MovementSale, MovementReturn,
	MovementTransferOut, MovementTransferIn,
	MovementAdjustmentIn, MovementAdjustmentOut,
}

// Movement is one stock ledger entry.
type Movement struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	MaterialID   int64     `json:"materialId"`
	MaterialCode string    `json:"materialCode,omitempty"`
	WarehouseID  int64     `json:"warehouseId"`
	LocationID   int64     `json:"locationId"`
	Qty          float64   `json:"qty"`
	Note         string    `json:"note,omitempty"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StockSummary is the consolidated balance of one material.
type StockSummary struct {
	MaterialID int64           `json:"materialId"`
	Total      float64         `json:"total"`
	ByLocation []LocationStock `json:"byLocation,omitempty"`
}

// LocationStock is the balance of a material at one location.
type LocationStock struct {
	WarehouseID  int64   `json:"warehouseId"`
	LocationID   int64   `json:"locationId"`
	LocationCode string  `json:"locationCode,omitempty"`
	Qty          float64 `json:"qty"`
}

// ReceiptRequest is the payload of POST /receipts.
type ReceiptRequest struct {
	NFNumber      string  `json:"nfNumber"`
	InvoiceItemID int64   `json:"invoiceItemId"`
	MaterialID    int64   `json:"materialId"`
	Qty           float64 `json:"qty"`
	WarehouseID   int64   `json:"warehouseId"`
	LocationID    int64   `json:"locationId"`
	Note          string  `json:"note"`
}

// SaleRequest is the payload of POST /sales.
type SaleRequest struct {
	CustomerID  int64   `json:"customerId,omitempty"`
	MaterialID  int64   `json:"materialId"`
	Qty         float64 `json:"qty"`
	WarehouseID int64   `json:"warehouseId"`
	LocationID  int64   `json:"locationId"`
	Note        string  `json:"note"`
}

// ReturnRequest is a stock adjustment: positive qty enters, negative leaves.
type ReturnRequest struct {
	MaterialID  int64   `json:"materialId"`
	WarehouseID int64   `json:"warehouseId"`
	LocationID  int64   `json:"locationId"`
	Qty         float64 `json:"qty"`
	Note        string  `json:"note"`
}

// TransferByCodeRequest moves stock between two location codes.
type TransferByCodeRequest struct {
	MaterialID       int64   `json:"materialId"`
	WarehouseID      int64   `json:"warehouseId"`
	FromLocationCode string  `json:"fromLocationCode"`
	ToLocationCode   string  `json:"toLocationCode"`
	Qty              float64 `json:"qty"`
	Note             string  `json:"note"`
}

// MovementResult is what the API answers to a posted operation.
type MovementResult struct {
	MovementID int64   `json:"movementId"`
	Balance    float64 `json:"balance"`
	Message    string  `json:"message,omitempty"`
}
