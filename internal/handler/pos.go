package handler

import (
	"net/http"

	"nexogym/internal/dto"
	"nexogym/internal/middleware"
	"nexogym/internal/service"

	"github.com/gin-gonic/gin"
)

// POSHandler records ledger entries against the operator's open shift.
type POSHandler struct {
	sales  service.SaleService
	shifts service.ShiftService
}

func NewPOSHandler(sales service.SaleService, shifts service.ShiftService) *POSHandler {
	return &POSHandler{sales: sales, shifts: shifts}
}

// RecordSale godoc
// @Summary Registra una venta de mostrador
// @Tags pos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordSaleRequest true "Lineas de la venta"
// @Success 201 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "CONFLICT o INSUFFICIENT_STOCK"
// @Failure 422 {object} apierror.APIError
// @Router /v1/pos/sales [post]
func (h *POSHandler) RecordSale(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sales.RecordSale(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sale": resp})
}

// RecordExpense godoc
// @Summary Registra un egreso de caja
// @Tags pos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordExpenseRequest true "Egreso"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/pos/expenses [post]
func (h *POSHandler) RecordExpense(c *gin.Context) {
	var req dto.RecordExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.shifts.RecordExpense(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": resp})
}
