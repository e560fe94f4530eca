package handler

import (
	"net/http"

	"nexogym/internal/dto"
	"nexogym/internal/middleware"
	"nexogym/internal/service"

	"github.com/gin-gonic/gin"
)

type ShiftHandler struct{ svc service.ShiftService }

func NewShiftHandler(svc service.ShiftService) *ShiftHandler { return &ShiftHandler{svc: svc} }

// Open godoc
// @Summary Abre un turno de caja para el operador
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenShiftRequest true "Fondo inicial"
// @Success 201 {object} dto.ShiftResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/shifts/open [post]
func (h *ShiftHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shift": resp})
}

// Current godoc
// @Summary Turno abierto del operador con totales parciales
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CurrentShiftResponse "null cuando no hay turno abierto"
// @Router /v1/shifts/current [get]
func (h *ShiftHandler) Current(c *gin.Context) {
	resp, err := h.svc.Current(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Cierra el turno con arqueo ciego
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseShiftRequest true "Efectivo contado"
// @Success 200 {object} dto.CloseShiftResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts/close [post]
func (h *ShiftHandler) Close(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ForceClose godoc
// @Summary Cierre forzado de un turno abandonado (administrador)
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Param body body dto.ForceCloseShiftRequest false "Efectivo contado y motivo"
// @Success 200 {object} dto.ForceCloseShiftResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts/{id}/force-close [post]
func (h *ShiftHandler) ForceClose(c *gin.Context) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ForceCloseShiftRequest
	// The body is optional.
	if c.Request.ContentLength != 0 {
		if !bindAndValidate(c, &req) {
			return
		}
	}
	resp, err := h.svc.ForceClose(c.Request.Context(), middleware.GetActor(c), shiftID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
