package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Configuracion is a single-row settings record. MontoAperturaDefault is the
// suggested opening amount for the next caja; a withdrawal can update it
// when the operator empties the drawer down to the next day's float.
type Configuracion struct {
	ID                   int             `gorm:"primaryKey;default:1"`
	MontoAperturaDefault decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	UpdatedAt            time.Time
}
