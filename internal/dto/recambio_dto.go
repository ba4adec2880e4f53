package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RecambioItemRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,gt=0"`
}

type CotizarRecambioRequest struct {
	ItemsDevueltos  []RecambioItemRequest `json:"items_devueltos"  validate:"required,min=1,dive"`
	ItemsEntregados []RecambioItemRequest `json:"items_entregados" validate:"required,min=1,dive"`
	DescuentoPct    decimal.Decimal       `json:"descuento_pct"    validate:"min=0,max=100"`
}

type ConfirmarRecambioRequest struct {
	VentaID           string                `json:"venta_id"           validate:"required,uuid"`
	ItemsDevueltos    []RecambioItemRequest `json:"items_devueltos"    validate:"required,min=1,dive"`
	ItemsEntregados   []RecambioItemRequest `json:"items_entregados"   validate:"required,min=1,dive"`
	DescuentoPct      decimal.Decimal       `json:"descuento_pct"      validate:"min=0,max=100"`
	MetodoLiquidacion *string               `json:"metodo_liquidacion" validate:"omitempty,oneof=efectivo credito"`
	Motivo            string                `json:"motivo"             validate:"required,min=3"`
	Notas             string                `json:"notas"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CotizacionResponse struct {
	TotalDevuelto  decimal.Decimal `json:"total_devuelto"`
	TotalEntregado decimal.Decimal `json:"total_entregado"`
	DescuentoMonto decimal.Decimal `json:"descuento_monto"`
	MontoAPagar    decimal.Decimal `json:"monto_a_pagar"`
}

type RecambioItemResponse struct {
	ProductoID     string          `json:"producto_id"`
	Tipo           string          `json:"tipo"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type RecambioResponse struct {
	ID                string                 `json:"id"`
	VentaID           string                 `json:"venta_id"`
	TotalDevuelto     decimal.Decimal        `json:"total_devuelto"`
	TotalEntregado    decimal.Decimal        `json:"total_entregado"`
	DescuentoPct      decimal.Decimal        `json:"descuento_pct"`
	DescuentoMonto    decimal.Decimal        `json:"descuento_monto"`
	MontoAPagar       decimal.Decimal        `json:"monto_a_pagar"`
	MetodoLiquidacion *string                `json:"metodo_liquidacion"`
	RealizadoPor      string                 `json:"realizado_por"`
	Motivo            string                 `json:"motivo"`
	Notas             string                 `json:"notas"`
	Items             []RecambioItemResponse `json:"items"`
	CreatedAt         string                 `json:"created_at"`
}
