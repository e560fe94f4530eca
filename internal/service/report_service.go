package service

import (
	"context"
	"errors"

	"nexogym/internal/dto"
	"nexogym/internal/repository"

	"github.com/google/uuid"
)

// ReportService is the read-only projection administrators use to audit
// shifts. Every query is pinned to the actor's gym.
type ReportService interface {
	ListShifts(ctx context.Context, actor Actor, filter dto.ShiftFilter) (*dto.ShiftListResponse, error)
	ListOpenShifts(ctx context.Context, actor Actor) (*dto.OpenShiftListResponse, error)
	ShiftSalesDetail(ctx context.Context, actor Actor, shiftID uuid.UUID) (*dto.ShiftSalesDetailResponse, error)
}

type reportService struct {
	reports   repository.ReportRepository
	shifts    repository.ShiftRepository
	sales     repository.SaleRepository
	expenses  repository.ExpenseRepository
	movements repository.InventoryMovementRepository
}

func NewReportService(
	reports repository.ReportRepository,
	shifts repository.ShiftRepository,
	sales repository.SaleRepository,
	expenses repository.ExpenseRepository,
	movements repository.InventoryMovementRepository,
) ReportService {
	return &reportService{
		reports:   reports,
		shifts:    shifts,
		sales:     sales,
		expenses:  expenses,
		movements: movements,
	}
}

func (s *reportService) ListShifts(ctx context.Context, actor Actor, filter dto.ShiftFilter) (*dto.ShiftListResponse, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenError("Permisos insuficientes")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	shifts, total, err := s.reports.ListShifts(ctx, actor.GymID, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ShiftResponse, len(shifts))
	for i := range shifts {
		data[i] = shiftToResponse(&shifts[i])
	}
	return &dto.ShiftListResponse{
		Data: data,
		Meta: dto.PageMeta{Total: total, Page: filter.Page, Limit: filter.Limit},
	}, nil
}

func (s *reportService) ListOpenShifts(ctx context.Context, actor Actor) (*dto.OpenShiftListResponse, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenError("Permisos insuficientes")
	}
	shifts, err := s.reports.ListOpenShifts(ctx, actor.GymID)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ShiftResponse, len(shifts))
	for i := range shifts {
		data[i] = shiftToResponse(&shifts[i])
	}
	return &dto.OpenShiftListResponse{Data: data}, nil
}

func (s *reportService) ShiftSalesDetail(ctx context.Context, actor Actor, shiftID uuid.UUID) (*dto.ShiftSalesDetailResponse, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenError("Permisos insuficientes")
	}
	shift, err := s.shifts.FindByID(ctx, actor.GymID, shiftID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("Turno no encontrado")
	}
	if err != nil {
		return nil, err
	}

	totals, err := s.shifts.Totals(ctx, nil, shift.ID)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.ListByShift(ctx, actor.GymID, shift.ID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListByShift(ctx, actor.GymID, shift.ID)
	if err != nil {
		return nil, err
	}
	movements, err := s.movements.ListByShift(ctx, actor.GymID, shift.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ShiftSalesDetailResponse{
		Shift:         shiftToResponse(shift),
		RunningTotals: runningTotals(shift, totals),
		Sales:         make([]dto.SaleResponse, len(sales)),
		Expenses:      make([]dto.ExpenseResponse, len(expenses)),
		Movements:     make([]dto.InventoryMovementResponse, len(movements)),
	}
	for i := range sales {
		resp.Sales[i] = saleToResponse(&sales[i])
	}
	for i := range expenses {
		resp.Expenses[i] = expenseToResponse(&expenses[i])
	}
	for i, m := range movements {
		resp.Movements[i] = dto.InventoryMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			ReferenceID: uuidPtrString(m.ReferenceID),
			CreatedAt:   formatTime(m.CreatedAt),
		}
	}
	return resp, nil
}
