package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"nexogym/internal/dto"
	"nexogym/internal/infra"
	"nexogym/internal/model"
	"nexogym/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const minExpenseDescription = 5

type ShiftService interface {
	Open(ctx context.Context, actor Actor, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	// Current returns nil, nil when the operator has no open shift.
	Current(ctx context.Context, actor Actor) (*dto.CurrentShiftResponse, error)
	RunningTotals(ctx context.Context, shift *model.Shift) (*dto.RunningTotalsResponse, error)
	RecordExpense(ctx context.Context, actor Actor, req dto.RecordExpenseRequest) (*dto.ExpenseResponse, error)
	Close(ctx context.Context, actor Actor, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error)
	ForceClose(ctx context.Context, actor Actor, shiftID uuid.UUID, req dto.ForceCloseShiftRequest) (*dto.ForceCloseShiftResponse, error)
}

type shiftService struct {
	repo     repository.ShiftRepository
	expenses repository.ExpenseRepository
	audit    repository.AuditRepository
	metrics  *infra.Metrics
}

func NewShiftService(
	repo repository.ShiftRepository,
	expenses repository.ExpenseRepository,
	audit repository.AuditRepository,
	metrics *infra.Metrics,
) ShiftService {
	return &shiftService{repo: repo, expenses: expenses, audit: audit, metrics: metrics}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Open ──────────────────────────────────────────────────────────────────────
// The pre-check is only a fast path; uniq_shifts_open_per_user decides races.

func (s *shiftService) Open(ctx context.Context, actor Actor, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	if req.OpeningBalance.IsNegative() {
		return nil, validationError("El fondo inicial no puede ser negativo")
	}

	existing, err := s.repo.FindOpenByUser(ctx, actor.GymID, actor.UserID)
	switch {
	case err == nil && existing != nil:
		return nil, conflictError("Ya tienes un turno abierto; ciérralo antes de abrir otro")
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	shift := &model.Shift{
		GymID:          actor.GymID,
		UserID:         actor.UserID,
		OpeningBalance: req.OpeningBalance.Round(2),
		Status:         model.ShiftOpen,
		OpenedAt:       time.Now().UTC(),
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, shift); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflictError("Ya tienes un turno abierto; ciérralo antes de abrir otro")
			}
			return err
		}
		return s.writeAudit(ctx, tx, actor, model.AuditShiftOpened, shift.ID, map[string]any{
			"opening_balance": shift.OpeningBalance,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ShiftOpened()
	log.Info().
		Str("shift_id", shift.ID.String()).
		Str("gym_id", actor.GymID.String()).
		Str("user_id", actor.UserID.String()).
		Msg("shift opened")

	resp := shiftToResponse(shift)
	return &resp, nil
}

// ── Current / RunningTotals ───────────────────────────────────────────────────

func (s *shiftService) Current(ctx context.Context, actor Actor) (*dto.CurrentShiftResponse, error) {
	shift, err := s.repo.FindOpenByUser(ctx, actor.GymID, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	totals, err := s.RunningTotals(ctx, shift)
	if err != nil {
		return nil, err
	}
	return &dto.CurrentShiftResponse{Shift: shiftToResponse(shift), RunningTotals: *totals}, nil
}

func (s *shiftService) RunningTotals(ctx context.Context, shift *model.Shift) (*dto.RunningTotalsResponse, error) {
	totals, err := s.repo.Totals(ctx, nil, shift.ID)
	if err != nil {
		return nil, err
	}
	resp := runningTotals(shift, totals)
	return &resp, nil
}

func runningTotals(shift *model.Shift, t repository.ShiftTotals) dto.RunningTotalsResponse {
	return dto.RunningTotalsResponse{
		TotalSales:      t.TotalSales,
		SaleCount:       t.SaleCount,
		TotalExpenses:   t.TotalExpenses,
		ExpenseCount:    t.ExpenseCount,
		ExpectedBalance: shift.OpeningBalance.Add(t.TotalSales).Sub(t.TotalExpenses).Round(2),
	}
}

// ── RecordExpense ─────────────────────────────────────────────────────────────
// Expenses are immutable; a mistaken one is offset by a new entry.

func (s *shiftService) RecordExpense(ctx context.Context, actor Actor, req dto.RecordExpenseRequest) (*dto.ExpenseResponse, error) {
	// Stored in cents; anything that rounds to 0.00 is not an expense.
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, validationError("El monto debe ser mayor a 0")
	}
	expenseType := model.ExpenseType(req.Type)
	if !expenseType.Valid() {
		return nil, validationError("Tipo de egreso inválido")
	}

	var description *string
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			description = &d
		}
	}
	if expenseType.RequiresDescription() &&
		(description == nil || utf8.RuneCountInString(*description) < minExpenseDescription) {
		return nil, validationError("La descripción es obligatoria (mínimo 5 caracteres) para este tipo de egreso")
	}

	shiftID, err := resolveLedgerShift(ctx, s.repo, actor, req.ShiftID)
	if err != nil {
		return nil, err
	}

	expense := &model.Expense{
		GymID:       actor.GymID,
		ShiftID:     shiftID,
		UserID:      actor.UserID,
		Type:        expenseType,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		shift, err := s.repo.LockShared(ctx, tx, actor.GymID, shiftID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("Turno no encontrado")
			}
			return err
		}
		if !shift.IsOpen() {
			return conflictError("El turno está cerrado; no admite nuevos egresos")
		}
		return s.expenses.Create(ctx, tx, expense)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ExpenseRecorded(string(expense.Type))
	resp := expenseToResponse(expense)
	return &resp, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Totals are read and the status flipped inside one transaction that holds
// the shift row FOR UPDATE, so no sale or expense can land in between.

func (s *shiftService) Close(ctx context.Context, actor Actor, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error) {
	if req.ActualBalance.IsNegative() {
		return nil, validationError("El efectivo contado no puede ser negativo")
	}

	var shiftID uuid.UUID
	if req.ShiftID != nil && *req.ShiftID != "" {
		id, err := uuid.Parse(*req.ShiftID)
		if err != nil {
			return nil, validationError("shift_id inválido")
		}
		shiftID = id
	} else {
		open, err := s.repo.FindOpenByUser(ctx, actor.GymID, actor.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, conflictError("No tienes un turno abierto")
		}
		if err != nil {
			return nil, err
		}
		shiftID = open.ID
	}

	shift, rec, err := s.closeTx(ctx, actor, shiftID, req.ActualBalance, nil)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("shift_id", shift.ID.String()).
		Str("gym_id", actor.GymID.String()).
		Str("user_id", actor.UserID.String()).
		Str("status", string(rec.Status)).
		Str("difference", rec.Difference.StringFixed(2)).
		Msg("shift closed")

	return &dto.CloseShiftResponse{
		Shift:          shiftToResponse(shift),
		Reconciliation: reconciliationToResponse(rec),
	}, nil
}

// ── ForceClose ────────────────────────────────────────────────────────────────
// Administrative path for abandoned shifts. Without a count the actual balance
// is zero, which classifies as SHORTAGE; forced_by keeps it distinguishable.

func (s *shiftService) ForceClose(ctx context.Context, actor Actor, shiftID uuid.UUID, req dto.ForceCloseShiftRequest) (*dto.ForceCloseShiftResponse, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenError("Solo un administrador puede forzar el cierre de un turno")
	}

	actual := decimal.Zero
	if req.ActualBalance != nil {
		if req.ActualBalance.IsNegative() {
			return nil, validationError("El efectivo contado no puede ser negativo")
		}
		actual = *req.ActualBalance
	}

	var reason *string
	if req.Reason != nil {
		if r := strings.TrimSpace(*req.Reason); r != "" {
			reason = &r
		}
	}

	shift, rec, err := s.closeTx(ctx, actor, shiftID, actual, &forceClose{reason: reason})
	if err != nil {
		return nil, err
	}

	log.Warn().
		Str("shift_id", shift.ID.String()).
		Str("gym_id", actor.GymID.String()).
		Str("operator_id", shift.UserID.String()).
		Str("forced_by", actor.UserID.String()).
		Str("difference", rec.Difference.StringFixed(2)).
		Msg("shift force-closed")

	return &dto.ForceCloseShiftResponse{
		Message:        "Turno cerrado forzosamente",
		Shift:          shiftToResponse(shift),
		Reconciliation: reconciliationToResponse(rec),
	}, nil
}

type forceClose struct {
	reason *string
}

func (s *shiftService) closeTx(ctx context.Context, actor Actor, shiftID uuid.UUID, actual decimal.Decimal, force *forceClose) (*model.Shift, Reconciliation, error) {
	var (
		shift *model.Shift
		rec   Reconciliation
	)

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		locked, err := s.repo.LockExclusive(ctx, tx, actor.GymID, shiftID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("Turno no encontrado")
			}
			return err
		}
		if force == nil && locked.UserID != actor.UserID && !actor.IsAdmin() {
			return forbiddenError("Solo el operador del turno o un administrador pueden cerrarlo")
		}
		if !locked.IsOpen() {
			return conflictError("El turno ya está cerrado")
		}

		totals, err := s.repo.Totals(ctx, tx, locked.ID)
		if err != nil {
			return err
		}
		rec = Reconcile(locked.OpeningBalance, totals.TotalSales, totals.TotalExpenses, actual)

		now := time.Now().UTC()
		status := rec.Status
		closedBy := actor.UserID
		locked.Status = model.ShiftClosed
		locked.ClosedAt = &now
		locked.ActualBalance = &rec.ActualBalance
		locked.ExpectedBalance = &rec.ExpectedBalance
		locked.Difference = &rec.Difference
		locked.ReconciliationStatus = &status
		locked.ClosedBy = &closedBy

		action := model.AuditShiftClosed
		detail := map[string]any{
			"actual_balance":   rec.ActualBalance,
			"expected_balance": rec.ExpectedBalance,
			"difference":       rec.Difference,
			"status":           rec.Status,
		}
		if force != nil {
			locked.ForcedBy = &closedBy
			locked.ForceReason = force.reason
			action = model.AuditShiftForceClosed
			detail["operator_id"] = locked.UserID
			if force.reason != nil {
				detail["reason"] = *force.reason
			}
		}

		if err := s.repo.Close(ctx, tx, locked); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return conflictError("El turno ya está cerrado")
			}
			return err
		}
		shift = locked
		return s.writeAudit(ctx, tx, actor, action, locked.ID, detail)
	})
	if err != nil {
		return nil, Reconciliation{}, err
	}

	s.metrics.ShiftClosed(string(rec.Status), force != nil)
	return shift, rec, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *shiftService) writeAudit(ctx context.Context, tx *gorm.DB, actor Actor, action string, shiftID uuid.UUID, detail map[string]any) error {
	if s.audit == nil {
		return nil
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return s.audit.CreateTx(ctx, tx, &model.AuditLog{
		GymID:      actor.GymID,
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: "shift",
		EntityID:   shiftID,
		Detail:     string(raw),
	})
}

// resolveLedgerShift picks the shift a sale or expense is written to.
// An explicit id must belong to the tenant and, unless the caller is an
// admin, to the caller; otherwise the caller's open shift is used. The OPEN
// check itself happens under the row lock in the writing transaction.
func resolveLedgerShift(ctx context.Context, repo repository.ShiftRepository, actor Actor, raw *string) (uuid.UUID, error) {
	if raw != nil && *raw != "" {
		id, err := uuid.Parse(*raw)
		if err != nil {
			return uuid.Nil, validationError("shift_id inválido")
		}
		shift, err := repo.FindByID(ctx, actor.GymID, id)
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, notFoundError("Turno no encontrado")
		}
		if err != nil {
			return uuid.Nil, err
		}
		if shift.UserID != actor.UserID && !actor.IsAdmin() {
			return uuid.Nil, forbiddenError("El turno pertenece a otro operador")
		}
		return shift.ID, nil
	}

	open, err := repo.FindOpenByUser(ctx, actor.GymID, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, conflictError("No hay un turno abierto; abre un turno antes de registrar movimientos")
	}
	if err != nil {
		return uuid.Nil, err
	}
	return open.ID, nil
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func shiftToResponse(s *model.Shift) dto.ShiftResponse {
	resp := dto.ShiftResponse{
		ID:              s.ID.String(),
		GymID:           s.GymID.String(),
		UserID:          s.UserID.String(),
		OpeningBalance:  s.OpeningBalance,
		Status:          string(s.Status),
		OpenedAt:        formatTime(s.OpenedAt),
		ActualBalance:   s.ActualBalance,
		ExpectedBalance: s.ExpectedBalance,
		Difference:      s.Difference,
		ClosedBy:        uuidPtrString(s.ClosedBy),
		ForcedBy:        uuidPtrString(s.ForcedBy),
		ForceReason:     s.ForceReason,
		Forced:          s.WasForced(),
	}
	if s.User != nil {
		resp.OperatorName = s.User.Name
	}
	if s.ClosedAt != nil {
		t := formatTime(*s.ClosedAt)
		resp.ClosedAt = &t
	}
	if s.ReconciliationStatus != nil {
		st := string(*s.ReconciliationStatus)
		resp.ReconciliationStatus = &st
	}
	return resp
}

func reconciliationToResponse(r Reconciliation) dto.ReconciliationResponse {
	return dto.ReconciliationResponse{
		OpeningBalance:  r.OpeningBalance,
		TotalSales:      r.TotalSales,
		TotalExpenses:   r.TotalExpenses,
		ExpectedBalance: r.ExpectedBalance,
		ActualBalance:   r.ActualBalance,
		Difference:      r.Difference,
		Status:          string(r.Status),
	}
}

func expenseToResponse(e *model.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		ShiftID:     e.ShiftID.String(),
		UserID:      e.UserID.String(),
		Type:        string(e.Type),
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   formatTime(e.CreatedAt),
	}
}
