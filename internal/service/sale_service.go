package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"nexogym/internal/dto"
	"nexogym/internal/infra"
	"nexogym/internal/model"
	"nexogym/internal/repository"
	"nexogym/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptDispatcher hands a committed sale to the notification side.
type ReceiptDispatcher interface {
	EnqueueReceipt(ctx context.Context, job worker.ReceiptJob) error
}

type SaleService interface {
	RecordSale(ctx context.Context, actor Actor, req dto.RecordSaleRequest) (*dto.SaleResponse, error)
}

type saleService struct {
	repo       repository.SaleRepository
	shifts     repository.ShiftRepository
	inventory  InventoryService
	dispatcher ReceiptDispatcher
	metrics    *infra.Metrics
}

func NewSaleService(
	repo repository.SaleRepository,
	shifts repository.ShiftRepository,
	inventory InventoryService,
	dispatcher ReceiptDispatcher,
	metrics *infra.Metrics,
) SaleService {
	return &saleService{
		repo:       repo,
		shifts:     shifts,
		inventory:  inventory,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

type saleLine struct {
	productID uuid.UUID
	quantity  int
	position  int // 1-based, first-seen order in the request
}

// ── RecordSale ────────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock the shift FOR SHARE and re-check it is OPEN
//   2. For each line: conditional stock decrement + movement, price snapshot
//   3. Reserve the receipt folio
//   4. Insert sale + items
// Any failure rolls back every decrement. The receipt email is dispatched
// after commit and never affects the sale.

func (s *saleService) RecordSale(ctx context.Context, actor Actor, req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	var email *string
	if req.CustomerEmail != nil {
		if e := strings.TrimSpace(*req.CustomerEmail); e != "" {
			email = &e
		}
	}

	shiftID, err := resolveLedgerShift(ctx, s.shifts, actor, req.ShiftID)
	if err != nil {
		return nil, err
	}

	sale := model.Sale{
		ID:            uuid.New(),
		GymID:         actor.GymID,
		ShiftID:       shiftID,
		SellerID:      actor.UserID,
		CustomerEmail: email,
		CreatedAt:     time.Now().UTC(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		shift, err := s.shifts.LockShared(ctx, tx, actor.GymID, shiftID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("Turno no encontrado")
			}
			return err
		}
		if !shift.IsOpen() {
			return conflictError("El turno está cerrado; no admite nuevas ventas")
		}

		total := decimal.Zero
		for _, line := range lines {
			res, err := s.inventory.CheckStockAndDecrement(ctx, tx, StockRequest{
				GymID:     actor.GymID,
				ShiftID:   shiftID,
				SaleID:    sale.ID,
				ProductID: line.productID,
				Quantity:  line.quantity,
				Reason:    "Venta POS",
			})
			if err != nil {
				return err
			}
			lineTotal := res.UnitPrice.Mul(decimal.NewFromInt(int64(line.quantity))).Round(2)
			total = total.Add(lineTotal)
			sale.Items = append(sale.Items, model.SaleItem{
				Position:    line.position,
				ProductID:   res.ProductID,
				ProductName: res.ProductName,
				Quantity:    line.quantity,
				UnitPrice:   res.UnitPrice,
				LineTotal:   lineTotal,
			})
		}
		slices.SortFunc(sale.Items, func(a, b model.SaleItem) int { return a.Position - b.Position })
		sale.Total = total.Round(2)

		folio, err := s.repo.NextFolio(ctx, tx, actor.GymID)
		if err != nil {
			return err
		}
		sale.ReceiptFolio = folio

		return s.repo.Create(ctx, tx, &sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.SaleRecorded(sale.Total.InexactFloat64())
	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("shift_id", shiftID.String()).
		Str("gym_id", actor.GymID.String()).
		Str("folio", sale.ReceiptFolio).
		Str("total", sale.Total.StringFixed(2)).
		Msg("sale recorded")

	// Async receipt, best-effort.
	if email != nil && s.dispatcher != nil {
		job := worker.ReceiptJob{SaleID: sale.ID, GymID: actor.GymID, ToEmail: *email}
		if err := s.dispatcher.EnqueueReceipt(ctx, job); err != nil {
			log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("receipt enqueue failed")
		}
	}

	resp := saleToResponse(&sale)
	return &resp, nil
}

// mergeLines validates the requested lines and folds repeated products into
// one line. The result is sorted by product id so concurrent sales lock
// product rows in the same order; position keeps the request order.
func mergeLines(items []dto.SaleItemRequest) ([]saleLine, error) {
	if len(items) == 0 {
		return nil, validationError("La venta debe tener al menos un producto")
	}
	index := make(map[uuid.UUID]int, len(items))
	lines := make([]saleLine, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, validationError("La cantidad de cada producto debe ser al menos 1")
		}
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, validationError(fmt.Sprintf("product_id inválido: %s", item.ProductID))
		}
		if i, seen := index[pid]; seen {
			lines[i].quantity += item.Quantity
			continue
		}
		index[pid] = len(lines)
		lines = append(lines, saleLine{productID: pid, quantity: item.Quantity, position: len(lines) + 1})
	}
	slices.SortFunc(lines, func(a, b saleLine) int { return bytes.Compare(a.productID[:], b.productID[:]) })
	return lines, nil
}

func saleToResponse(s *model.Sale) dto.SaleResponse {
	items := make([]dto.SaleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = dto.SaleItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return dto.SaleResponse{
		ID:            s.ID.String(),
		ShiftID:       s.ShiftID.String(),
		SellerID:      s.SellerID.String(),
		ReceiptFolio:  s.ReceiptFolio,
		Total:         s.Total,
		CustomerEmail: s.CustomerEmail,
		Items:         items,
		CreatedAt:     formatTime(s.CreatedAt),
	}
}
