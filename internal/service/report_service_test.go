package service

import (
	"context"
	"testing"

	"nexogym/internal/dto"
	"nexogym/internal/model"
	"nexogym/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports_RequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorOf(f.reception)

	_, err := f.reports.ListShifts(ctx, actor, dto.ShiftFilter{})
	assert.Equal(t, CodeForbidden, CodeOf(err))
	_, err = f.reports.ListOpenShifts(ctx, actor)
	assert.Equal(t, CodeForbidden, CodeOf(err))
	_, err = f.reports.ShiftSalesDetail(ctx, actor, uuid.New())
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestListShifts_PaginatesAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.open(t, f.reception, "10.00")
	_, err := f.shifts.Close(ctx, actorOf(f.reception), dto.CloseShiftRequest{ActualBalance: dec("10.00")})
	require.NoError(t, err)
	f.open(t, f.reception, "20.00")
	f.open(t, f.reception2, "30.00")

	all, err := f.reports.ListShifts(ctx, actorOf(f.admin), dto.ShiftFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Meta.Total)
	assert.Equal(t, 1, all.Meta.Page)
	assert.Equal(t, 20, all.Meta.Limit)
	require.Len(t, all.Data, 3)
	assert.NotEmpty(t, all.Data[0].OperatorName)

	page, err := f.reports.ListShifts(ctx, actorOf(f.admin), dto.ShiftFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Meta.Total)
	assert.Len(t, page.Data, 1)

	mine, err := f.reports.ListShifts(ctx, actorOf(f.admin), dto.ShiftFilter{UserID: f.reception.ID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Meta.Total)
	for _, s := range mine.Data {
		assert.Equal(t, f.reception.ID.String(), s.UserID)
	}
}

func TestListShifts_ScopedToGym(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.reception, "10.00")
	otherGym := testutil.SeedGym(t, f.db, model.TierBasic)
	otherAdmin := testutil.SeedUser(t, f.db, &otherGym.ID, model.RoleAdmin, "Otro")

	resp, err := f.reports.ListShifts(context.Background(), actorOf(otherAdmin), dto.ShiftFilter{})

	require.NoError(t, err)
	assert.EqualValues(t, 0, resp.Meta.Total)
	assert.Empty(t, resp.Data)
}

func TestListOpenShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.open(t, f.reception, "10.00")
	f.open(t, f.reception2, "10.00")
	_, err := f.shifts.Close(ctx, actorOf(f.reception2), dto.CloseShiftRequest{ActualBalance: dec("10.00")})
	require.NoError(t, err)

	resp, err := f.reports.ListOpenShifts(ctx, actorOf(f.admin))

	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, f.reception.ID.String(), resp.Data[0].UserID)
	assert.Equal(t, f.reception.Name, resp.Data[0].OperatorName)
}

func TestShiftSalesDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, f.db, f.gym.ID, "Agua", "12.50", 10)
	opened := f.open(t, f.reception, "100.00")

	_, err := f.sales.RecordSale(ctx, actorOf(f.reception), saleOf(line(p, 2)))
	require.NoError(t, err)
	_, err = f.shifts.RecordExpense(ctx, actorOf(f.reception), dto.RecordExpenseRequest{
		Amount: dec("5.00"), Type: string(model.ExpenseOperationalExpense), Description: strPtr("Artículos de limpieza"),
	})
	require.NoError(t, err)

	resp, err := f.reports.ShiftSalesDetail(ctx, actorOf(f.admin), uuid.MustParse(opened.ID))
	require.NoError(t, err)

	require.Len(t, resp.Sales, 1)
	require.Len(t, resp.Sales[0].Items, 1)
	assert.Equal(t, 2, resp.Sales[0].Items[0].Quantity)
	require.Len(t, resp.Expenses, 1)
	require.Len(t, resp.Movements, 1)
	assert.Equal(t, -2, resp.Movements[0].Quantity)
	requireDec(t, "25.00", resp.RunningTotals.TotalSales)
	requireDec(t, "5.00", resp.RunningTotals.TotalExpenses)
	requireDec(t, "120.00", resp.RunningTotals.ExpectedBalance)
}

func TestShiftSalesDetail_UnknownShiftIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.ShiftSalesDetail(context.Background(), actorOf(f.admin), uuid.New())

	assert.Equal(t, CodeNotFound, CodeOf(err))
}
