package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta estados.
const (
	VentaCompletada = "completada"
	VentaAnulada    = "anulada"
)

// Metodos de pago de una venta.
const (
	MetodoEfectivo = "efectivo"
	MetodoCredito  = "credito"
)

// Venta is a completed sale. Recambiada is a one-time flag: a sale can be
// exchanged at most once.
type Venta struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroTicket int             `gorm:"uniqueIndex;not null"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago   string          `gorm:"type:varchar(20);not null"`
	ClienteID    *uuid.UUID      `gorm:"type:uuid;index"`
	Estado       string          `gorm:"type:varchar(20);not null;default:'completada'"`
	Recambiada   bool            `gorm:"not null;default:false"`
	ActorID      uuid.UUID       `gorm:"type:uuid;not null"`
	ActorNombre  string          `gorm:"not null"`
	CreatedAt    time.Time

	Items []VentaItem `gorm:"foreignKey:VentaID"`
}

// VentaItem is one line of a sale.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}
