package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,gt=0"`
}

type RegistrarVentaRequest struct {
	Items            []ItemVentaRequest `json:"items"             validate:"required,min=1,dive"`
	MetodoPago       string             `json:"metodo_pago"       validate:"required,oneof=efectivo credito"`
	ClienteID        *string            `json:"cliente_id"        validate:"omitempty,uuid"`
	FechaVencimiento *string            `json:"fecha_vencimiento" validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID           string              `json:"id"`
	NumeroTicket int                 `json:"numero_ticket"`
	Items        []ItemVentaResponse `json:"items"`
	Total        decimal.Decimal     `json:"total"`
	MetodoPago   string              `json:"metodo_pago"`
	ClienteID    *string             `json:"cliente_id"`
	Estado       string              `json:"estado"`
	Recambiada   bool                `json:"recambiada"`
	CreatedAt    string              `json:"created_at"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
