package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseType string

const (
	ExpenseSupplierPayment    ExpenseType = "SUPPLIER_PAYMENT"
	ExpenseOperationalExpense ExpenseType = "OPERATIONAL_EXPENSE"
	ExpenseCashDrop           ExpenseType = "CASH_DROP"
)

// Valid reports whether t is one of the known expense types.
func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseSupplierPayment, ExpenseOperationalExpense, ExpenseCashDrop:
		return true
	}
	return false
}

// RequiresDescription is true for every type except CASH_DROP.
func (t ExpenseType) RequiresDescription() bool {
	return t == ExpenseSupplierPayment || t == ExpenseOperationalExpense
}

// Expense is cash leaving the drawer during a shift. Amount is always positive.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GymID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShiftID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null"`
	Type        ExpenseType     `gorm:"type:varchar(30);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description *string
	CreatedAt   time.Time
}

func (e *Expense) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
