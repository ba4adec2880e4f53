package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	Nombre        string          `json:"nombre"         validate:"required,min=2,max=150"`
	Cedula        string          `json:"cedula"         validate:"required,min=4,max=30"`
	Telefono      *string         `json:"telefono"`
	LimiteCredito decimal.Decimal `json:"limite_credito" validate:"min=0"`
}

type ActualizarClienteRequest struct {
	Nombre        string           `json:"nombre"         validate:"omitempty,min=2,max=150"`
	Telefono      *string          `json:"telefono"`
	LimiteCredito *decimal.Decimal `json:"limite_credito"`
	Activo        *bool            `json:"activo"`
}

type CrearVentaCreditoRequest struct {
	VentaID          string          `json:"venta_id"          validate:"required,uuid"`
	ClienteID        string          `json:"cliente_id"        validate:"required,uuid"`
	MontoTotal       decimal.Decimal `json:"monto_total"       validate:"required,gt=0"`
	FechaVencimiento *string         `json:"fecha_vencimiento" validate:"omitempty,datetime=2006-01-02"`
}

type PagoCreditoRequest struct {
	VentaCreditoID string          `json:"venta_credito_id" validate:"required,uuid"`
	Monto          decimal.Decimal `json:"monto"            validate:"required,gt=0"`
	MetodoPago     string          `json:"metodo_pago"      validate:"required,oneof=efectivo debito credito transferencia"`
	Notas          string          `json:"notas"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	Cedula        string          `json:"cedula"`
	Telefono      *string         `json:"telefono"`
	LimiteCredito decimal.Decimal `json:"limite_credito"`
	SaldoActual   decimal.Decimal `json:"saldo_actual"`
	Disponible    decimal.Decimal `json:"disponible"`
	Activo        bool            `json:"activo"`
}

type VentaCreditoResponse struct {
	ID               string                `json:"id"`
	VentaID          string                `json:"venta_id"`
	ClienteID        string                `json:"cliente_id"`
	MontoTotal       decimal.Decimal       `json:"monto_total"`
	SaldoPendiente   decimal.Decimal       `json:"saldo_pendiente"`
	Estado           string                `json:"estado"`
	FechaVenta       string                `json:"fecha_venta"`
	FechaVencimiento *string               `json:"fecha_vencimiento"`
	Pagos            []PagoCreditoResponse `json:"pagos"`
}

type PagoCreditoResponse struct {
	ID          string          `json:"id"`
	MontoPagado decimal.Decimal `json:"monto_pagado"`
	MetodoPago  string          `json:"metodo_pago"`
	Actor       string          `json:"actor"`
	Notas       string          `json:"notas"`
	PagadoEn    string          `json:"pagado_en"`
}
