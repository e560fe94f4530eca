package handler

import (
	"net/http"

	"nexogym/internal/dto"
	"nexogym/internal/middleware"
	"nexogym/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// ListShifts godoc
// @Summary Historial paginado de turnos del gimnasio
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param page query int false "Pagina" default(1)
// @Param limit query int false "Tamano de pagina" default(20)
// @Param from query string false "Desde (YYYY-MM-DD)"
// @Param to query string false "Hasta (YYYY-MM-DD)"
// @Param user_id query string false "Operador"
// @Success 200 {object} dto.ShiftListResponse
// @Router /v1/shifts [get]
func (h *ReportsHandler) ListShifts(c *gin.Context) {
	var filter dto.ShiftFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListShifts(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListOpenShifts godoc
// @Summary Turnos abiertos del gimnasio, el mas antiguo primero
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.OpenShiftListResponse
// @Router /v1/shifts/open [get]
func (h *ReportsHandler) ListOpenShifts(c *gin.Context) {
	resp, err := h.svc.ListOpenShifts(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ShiftSales godoc
// @Summary Ventas, egresos y movimientos de inventario de un turno
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Success 200 {object} dto.ShiftSalesDetailResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/{id}/sales [get]
func (h *ReportsHandler) ShiftSales(c *gin.Context) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ShiftSalesDetail(c.Request.Context(), middleware.GetActor(c), shiftID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
