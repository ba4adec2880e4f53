package handler

import (
	"net/http"

	"cajapos/internal/dto"
	"cajapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CreditosHandler struct{ svc service.CreditoService }

func NewCreditosHandler(svc service.CreditoService) *CreditosHandler {
	return &CreditosHandler{svc: svc}
}

// Crear godoc
// @Summary Registra una venta a crédito contra una cuenta
// @Tags creditos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearVentaCreditoRequest true "Venta a crédito"
// @Success 201 {object} dto.VentaCreditoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/creditos [post]
func (h *CreditosHandler) Crear(c *gin.Context) {
	var req dto.CrearVentaCreditoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearVentaCredito(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Pagar godoc
// @Summary Aplica un pago a una venta a crédito
// @Tags creditos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PagoCreditoRequest true "Pago"
// @Success 200 {object} dto.VentaCreditoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/creditos/pagos [post]
func (h *CreditosHandler) Pagar(c *gin.Context) {
	var req dto.PagoCreditoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), getActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CreditosHandler) Obtener(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerVentaCredito(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Revertir godoc
// @Summary Revierte una venta a crédito sin pagos
// @Tags creditos
// @Security BearerAuth
// @Param id path string true "ID de venta a crédito"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/creditos/{id} [delete]
func (h *CreditosHandler) Revertir(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RevertirVentaCredito(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
