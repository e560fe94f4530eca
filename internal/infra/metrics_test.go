package infra

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ShiftOpened()
	m.ShiftClosed("SHORTAGE", true)
	m.ShiftClosed("BALANCED", false)
	m.SaleRecorded(45.5)
	m.SaleRecorded(10)
	m.ExpenseRecorded("CASH_DROP")
	m.SetStaleOpenShifts(3)
	m.ReceiptProcessed("sent")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.shiftsOpened))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shiftsClosed.WithLabelValues("SHORTAGE", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shiftsClosed.WithLabelValues("BALANCED", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.salesTotal))
	assert.InDelta(t, 55.5, testutil.ToFloat64(m.salesAmount), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expensesTotal.WithLabelValues("CASH_DROP")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.staleOpenShifts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.receiptsSent.WithLabelValues("sent")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ShiftOpened()
		m.ShiftClosed("BALANCED", false)
		m.SaleRecorded(1)
		m.ExpenseRecorded("CASH_DROP")
		m.SetStaleOpenShifts(1)
		m.ReceiptProcessed("sent")
		m.ObserveHTTP("GET", "/health", 200, 0.01)
	})
}
