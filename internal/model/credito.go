package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VentaCredito estados. Derived from SaldoPendiente:
// pendiente when nothing was paid, parcial in between, pagada at zero.
const (
	CreditoPendiente = "pendiente"
	CreditoParcial   = "parcial"
	CreditoPagada    = "pagada"
)

// VentaCredito tracks a deferred-payment sale against a client account.
// SaldoPendiente = MontoTotal − Σ pagos. It may only be deleted (with
// balance rollback) while it has no pagos.
type VentaCredito struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID          uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	ClienteID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	MontoTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoPendiente   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado           string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	FechaVenta       time.Time       `gorm:"not null"`
	FechaVencimiento *time.Time

	Cliente *Cliente     `gorm:"foreignKey:ClienteID"`
	Pagos   []PagoCredito `gorm:"foreignKey:VentaCreditoID"`
}

// PagoCredito is an immutable payment applied to a venta a crédito.
type PagoCredito struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	VentaCreditoID uuid.UUID       `gorm:"type:uuid;index;not null"`
	MontoPagado    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago     string          `gorm:"type:varchar(20);not null"`
	ActorID        uuid.UUID       `gorm:"type:uuid;not null"`
	ActorNombre    string          `gorm:"not null"`
	Notas          string
	PagadoEn       time.Time
}
