package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
}

type CloseShiftRequest struct {
	// ShiftID is optional; empty closes the caller's own open shift.
	ShiftID       *string         `json:"shift_id"       validate:"omitempty,uuid"`
	ActualBalance decimal.Decimal `json:"actual_balance" validate:"min=0"`
}

type ForceCloseShiftRequest struct {
	// ActualBalance defaults to zero when the drawer could not be counted.
	ActualBalance *decimal.Decimal `json:"actual_balance"`
	Reason        *string          `json:"reason" validate:"omitempty,max=500"`
}

// ShiftFilter is bound from query string of GET /v1/shifts.
type ShiftFilter struct {
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
	From   string `form:"from"    validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to"      validate:"omitempty,datetime=2006-01-02"`
	UserID string `form:"user_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShiftResponse struct {
	ID                   string           `json:"id"`
	GymID                string           `json:"gym_id"`
	UserID               string           `json:"user_id"`
	OperatorName         string           `json:"operator_name,omitempty"`
	OpeningBalance       decimal.Decimal  `json:"opening_balance"`
	Status               string           `json:"status"`
	OpenedAt             string           `json:"opened_at"`
	ClosedAt             *string          `json:"closed_at"`
	ActualBalance        *decimal.Decimal `json:"actual_balance"`
	ExpectedBalance      *decimal.Decimal `json:"expected_balance"`
	Difference           *decimal.Decimal `json:"difference"`
	ReconciliationStatus *string          `json:"reconciliation_status"`
	ClosedBy             *string          `json:"closed_by"`
	ForcedBy             *string          `json:"forced_by"`
	ForceReason          *string          `json:"force_reason"`
	Forced               bool             `json:"forced"`
}

type RunningTotalsResponse struct {
	TotalSales      decimal.Decimal `json:"total_sales"`
	SaleCount       int64           `json:"sale_count"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	ExpenseCount    int64           `json:"expense_count"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
}

type CurrentShiftResponse struct {
	Shift         ShiftResponse         `json:"shift"`
	RunningTotals RunningTotalsResponse `json:"running_totals"`
}

type ReconciliationResponse struct {
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	ActualBalance   decimal.Decimal `json:"actual_balance"`
	Difference      decimal.Decimal `json:"difference"`
	Status          string          `json:"status"` // BALANCED | SURPLUS | SHORTAGE
}

type CloseShiftResponse struct {
	Shift          ShiftResponse          `json:"shift"`
	Reconciliation ReconciliationResponse `json:"reconciliation"`
}

type ForceCloseShiftResponse struct {
	Message        string                 `json:"message"`
	Shift          ShiftResponse          `json:"shift"`
	Reconciliation ReconciliationResponse `json:"reconciliation"`
}

type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type ShiftListResponse struct {
	Data []ShiftResponse `json:"data"`
	Meta PageMeta        `json:"meta"`
}

type OpenShiftListResponse struct {
	Data []ShiftResponse `json:"data"`
}

type InventoryMovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	Type        string  `json:"type"`
	Quantity    int     `json:"quantity"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	ReferenceID *string `json:"reference_id"`
	CreatedAt   string  `json:"created_at"`
}

type ShiftSalesDetailResponse struct {
	Shift         ShiftResponse               `json:"shift"`
	RunningTotals RunningTotalsResponse       `json:"running_totals"`
	Sales         []SaleResponse              `json:"sales"`
	Expenses      []ExpenseResponse           `json:"expenses"`
	Movements     []InventoryMovementResponse `json:"inventory_movements"`
}
