package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecambioItem tipos.
const (
	ItemDevuelto  = "devuelto"
	ItemEntregado = "entregado"
)

// Métodos de liquidación del diferencial.
const (
	LiquidacionEfectivo = "efectivo"
	LiquidacionCredito  = "credito"
)

// Recambio is a post-sale exchange: previously sold items come back to stock
// and replacement items leave it, with a monetary differential.
// MontoAPagar = (TotalEntregado − DescuentoMonto) − TotalDevuelto and is
// never negative at confirmation time — net refunds are rejected.
// MetodoLiquidacion is required only when MontoAPagar > 0.
type Recambio struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	TotalDevuelto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalEntregado    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DescuentoPct      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DescuentoMonto    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	MontoAPagar       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoLiquidacion *string         `gorm:"type:varchar(20)"`
	RealizadoPorID    uuid.UUID       `gorm:"type:uuid;not null"`
	RealizadoPor      string          `gorm:"not null"`
	Motivo            string          `gorm:"not null"`
	Notas             string
	CreatedAt         time.Time

	Items []RecambioItem `gorm:"foreignKey:RecambioID"`
}

// RecambioItem is one returned or replacement line of an exchange.
type RecambioItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecambioID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Tipo           string          `gorm:"type:varchar(10);not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
