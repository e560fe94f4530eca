package service

import (
	"nexogym/internal/model"

	"github.com/shopspring/decimal"
)

// Reconciliation is the breakdown computed when a shift closes.
type Reconciliation struct {
	OpeningBalance  decimal.Decimal
	TotalSales      decimal.Decimal
	TotalExpenses   decimal.Decimal
	ExpectedBalance decimal.Decimal
	ActualBalance   decimal.Decimal
	Difference      decimal.Decimal
	Status          model.ReconciliationStatus
}

// Reconcile computes expected cash and classifies the counted amount.
//
//	expected   = opening + sales − expenses
//	difference = actual − expected
//
// All values are rounded half-up to cents before comparing, so the status
// follows the sign of the rounded difference exactly.
func Reconcile(opening, totalSales, totalExpenses, actual decimal.Decimal) Reconciliation {
	opening = opening.Round(2)
	totalSales = totalSales.Round(2)
	totalExpenses = totalExpenses.Round(2)
	actual = actual.Round(2)

	expected := opening.Add(totalSales).Sub(totalExpenses)
	diff := actual.Sub(expected)

	return Reconciliation{
		OpeningBalance:  opening,
		TotalSales:      totalSales,
		TotalExpenses:   totalExpenses,
		ExpectedBalance: expected,
		ActualBalance:   actual,
		Difference:      diff,
		Status:          classify(diff),
	}
}

func classify(diff decimal.Decimal) model.ReconciliationStatus {
	switch diff.Sign() {
	case 0:
		return model.ReconciliationBalanced
	case 1:
		return model.ReconciliationSurplus
	default:
		return model.ReconciliationShortage
	}
}
