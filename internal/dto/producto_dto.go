package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre       string          `json:"nombre"        validate:"required,min=2,max=200"`
	CodigoBarras *string         `json:"codigo_barras" validate:"omitempty,min=4,max=50"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"  validate:"required,gt=0"`
	Stock        int             `json:"stock"         validate:"min=0"`
}

type ActualizarProductoRequest struct {
	Nombre       string           `json:"nombre"        validate:"omitempty,min=2,max=200"`
	CodigoBarras *string          `json:"codigo_barras" validate:"omitempty,min=4,max=50"`
	PrecioVenta  *decimal.Decimal `json:"precio_venta"`
	Stock        *int             `json:"stock"`
	Activo       *bool            `json:"activo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string          `json:"id"`
	Nombre       string          `json:"nombre"`
	CodigoBarras *string         `json:"codigo_barras"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	Stock        int             `json:"stock"`
	Activo       bool            `json:"activo"`
}
