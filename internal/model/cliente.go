package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cliente is a credit account. SaldoActual accumulates the pending balance
// of its ventas a crédito; the limit check is a business rule validated
// inside the create-credit-sale transaction, not a DB constraint.
type Cliente struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre        string          `gorm:"not null"`
	Cedula        string          `gorm:"uniqueIndex;not null"`
	Telefono      *string
	LimiteCredito decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoActual   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Activo        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
