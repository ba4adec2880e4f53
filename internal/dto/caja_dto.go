package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoApertura decimal.Decimal `json:"monto_apertura" validate:"min=0"`
	Manual        bool            `json:"manual"`
}

type CerrarCajaRequest struct {
	MontoContado decimal.Decimal `json:"monto_contado" validate:"min=0"`
	Manual       bool            `json:"manual"`
	Notas        *string         `json:"notas"`
}

type MovimientoRequest struct {
	CajaID     string          `json:"caja_id"     validate:"required,uuid"`
	Tipo       string          `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Concepto   string          `json:"concepto"    validate:"required,min=3"`
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo debito credito transferencia"`
	VentaID    *string         `json:"venta_id"    validate:"omitempty,uuid"`
	Notas      string          `json:"notas"`
}

type RetiroRequest struct {
	Monto                   decimal.Decimal `json:"monto" validate:"required,gt=0"`
	ActualizarMontoApertura bool            `json:"actualizar_monto_apertura"`
	Notas                   string          `json:"notas"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID             string           `json:"id"`
	MontoApertura  decimal.Decimal  `json:"monto_apertura"`
	MontoActual    decimal.Decimal  `json:"monto_actual"`
	MontoCierre    *decimal.Decimal `json:"monto_cierre"`
	Diferencia     *decimal.Decimal `json:"diferencia"`
	Estado         string           `json:"estado"`
	AbiertaPor     string           `json:"abierta_por"`
	CerradaPor     *string          `json:"cerrada_por"`
	AperturaManual bool             `json:"apertura_manual"`
	CierreManual   bool             `json:"cierre_manual"`
	AbiertaEn      string           `json:"abierta_en"`
	CerradaEn      *string          `json:"cerrada_en"`
}

type MovimientoResponse struct {
	ID         string          `json:"id"`
	CajaID     string          `json:"caja_id"`
	Tipo       string          `json:"tipo"`
	Concepto   string          `json:"concepto"`
	Monto      decimal.Decimal `json:"monto"`
	MetodoPago string          `json:"metodo_pago"`
	VentaID    *string         `json:"venta_id"`
	Actor      string          `json:"actor"`
	Notas      string          `json:"notas"`
	CreatedAt  string          `json:"created_at"`
}

type ReporteCajaResponse struct {
	Caja          CajaResponse         `json:"caja"`
	TotalIngresos decimal.Decimal      `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal      `json:"total_egresos"`
	Movimientos   []MovimientoResponse `json:"movimientos"`
}

type HistorialCajasResponse struct {
	Data  []CajaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
