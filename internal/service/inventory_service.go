package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexogym/internal/model"
	"nexogym/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockRequest is one sale line handed to the inventory gateway.
type StockRequest struct {
	GymID     uuid.UUID
	ShiftID   uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Reason    string
}

// StockResult is what the gateway observed while decrementing.
type StockResult struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	StockBefore int
	StockAfter  int
}

// InventoryService is the gateway the POS uses to consume stock.
type InventoryService interface {
	// CheckStockAndDecrement runs inside the caller's sale transaction; a
	// later failure in that transaction rolls the decrement back.
	CheckStockAndDecrement(ctx context.Context, tx *gorm.DB, req StockRequest) (*StockResult, error)
}

type inventoryService struct {
	products  repository.ProductRepository
	movements repository.InventoryMovementRepository
}

func NewInventoryService(products repository.ProductRepository, movements repository.InventoryMovementRepository) InventoryService {
	return &inventoryService{products: products, movements: movements}
}

func (s *inventoryService) CheckStockAndDecrement(ctx context.Context, tx *gorm.DB, req StockRequest) (*StockResult, error) {
	p, err := s.products.FindByIDTx(ctx, tx, req.GymID, req.ProductID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !p.Active) {
		return nil, &AppError{
			Code:    CodeNotFound,
			Message: "Producto no encontrado",
			Details: map[string]any{"product_id": req.ProductID.String()},
		}
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.products.DecrementStockTx(ctx, tx, req.GymID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("decrement stock %s: %w", req.ProductID, err)
	}

	// Re-read inside the tx: after a successful decrement the row is ours,
	// after a rejected one this is the stock that beat us.
	current, err := s.products.FindByIDTx(ctx, tx, req.GymID, req.ProductID)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &AppError{
			Code:    CodeInsufficientStock,
			Message: fmt.Sprintf("Stock insuficiente para %s", p.Name),
			Details: map[string]any{
				"product_id":   req.ProductID.String(),
				"product_name": p.Name,
				"requested":    req.Quantity,
				"available":    current.Stock,
			},
		}
	}

	result := &StockResult{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		StockBefore: current.Stock + req.Quantity,
		StockAfter:  current.Stock,
	}

	shiftID := req.ShiftID
	saleID := req.SaleID
	mov := &model.InventoryMovement{
		GymID:       req.GymID,
		ProductID:   req.ProductID,
		ShiftID:     &shiftID,
		Type:        model.MovementSale,
		Quantity:    -req.Quantity,
		StockBefore: result.StockBefore,
		StockAfter:  result.StockAfter,
		ReferenceID: &saleID,
		Reason:      req.Reason,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.movements.CreateTx(ctx, tx, mov); err != nil {
		return nil, err
	}
	return result, nil
}
