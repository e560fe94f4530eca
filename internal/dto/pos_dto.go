package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type RecordSaleRequest struct {
	// ShiftID pins the sale to a specific shift; empty uses the caller's open shift.
	ShiftID       *string           `json:"shift_id"       validate:"omitempty,uuid"`
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
	CustomerEmail *string           `json:"customer_email" validate:"omitempty,email"`
}

type RecordExpenseRequest struct {
	ShiftID     *string         `json:"shift_id"    validate:"omitempty,uuid"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	Type        string          `json:"type"        validate:"required,oneof=SUPPLIER_PAYMENT OPERATIONAL_EXPENSE CASH_DROP"`
	Description *string         `json:"description" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	ShiftID       string             `json:"shift_id"`
	SellerID      string             `json:"seller_id"`
	ReceiptFolio  string             `json:"receipt_folio"`
	Total         decimal.Decimal    `json:"total"`
	CustomerEmail *string            `json:"customer_email"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     string             `json:"created_at"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	ShiftID     string          `json:"shift_id"`
	UserID      string          `json:"user_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
	CreatedAt   string          `json:"created_at"`
}
