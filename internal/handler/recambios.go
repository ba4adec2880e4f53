package handler

import (
	"net/http"

	"cajapos/internal/dto"
	"cajapos/internal/service"

	"github.com/gin-gonic/gin"
)

type RecambiosHandler struct{ svc service.RecambioService }

func NewRecambiosHandler(svc service.RecambioService) *RecambiosHandler {
	return &RecambiosHandler{svc: svc}
}

// Cotizar godoc
// @Summary Cotiza un recambio sin efectos
// @Tags recambios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CotizarRecambioRequest true "Items del recambio"
// @Success 200 {object} dto.CotizacionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/recambios/cotizar [post]
func (h *RecambiosHandler) Cotizar(c *gin.Context) {
	var req dto.CotizarRecambioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cotizar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Confirmar godoc
// @Summary Confirma un recambio sobre una venta
// @Tags recambios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ConfirmarRecambioRequest true "Recambio"
// @Success 201 {object} dto.RecambioResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/recambios [post]
func (h *RecambiosHandler) Confirmar(c *gin.Context) {
	var req dto.ConfirmarRecambioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Confirmar(c.Request.Context(), getActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RecambiosHandler) Obtener(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerRecambio(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecambiosHandler) Listar(c *gin.Context) {
	page, limit := pagination(c)
	resp, total, err := h.svc.Listar(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}
