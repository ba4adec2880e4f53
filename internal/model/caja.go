package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Caja estados.
const (
	CajaAbierta = "abierta"
	CajaCerrada = "cerrada"
)

// Movimiento tipos. Direction lives in Tipo; Monto is always positive.
const (
	MovimientoIngreso = "ingreso"
	MovimientoEgreso  = "egreso"
)

// ConceptoAjusteCierre marks the synthetic movement created when the counted
// amount at close differs from the running balance.
const ConceptoAjusteCierre = "ajuste de cierre"

// Caja is a till session bounding the cash movements between an open and a
// close event. At most one caja may be abierta at any time (partial unique
// index on estado, plus an in-transaction check on Abrir).
// MontoActual must always equal MontoApertura + Σ ingresos − Σ egresos.
type Caja struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MontoApertura  decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MontoActual    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MontoCierre    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Diferencia records the reconciliation result at close:
	// monto contado − balance esperado. Mirrors the "ajuste de cierre"
	// movement when non-zero.
	Diferencia     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado         string           `gorm:"type:varchar(20);not null;default:'abierta';index"`
	AbiertaPorID   uuid.UUID        `gorm:"type:uuid;not null"`
	AbiertaPor     string           `gorm:"not null"`
	CerradaPorID   *uuid.UUID       `gorm:"type:uuid"`
	CerradaPor     *string
	AperturaManual bool `gorm:"not null;default:false"`
	CierreManual   bool `gorm:"not null;default:false"`
	Notas          *string
	AbiertaEn      time.Time
	CerradaEn      *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:CajaID"`
}

// MovimientoCaja is an immutable entry in the register ledger. Movements are
// never updated or deleted — corrections create inverse entries.
type MovimientoCaja struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo        string          `gorm:"type:varchar(10);not null"`
	Concepto    string          `gorm:"not null"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago  string          `gorm:"type:varchar(20);not null;default:'efectivo'"`
	VentaID     *uuid.UUID      `gorm:"type:uuid"`
	ActorID     uuid.UUID       `gorm:"type:uuid;not null"`
	ActorNombre string          `gorm:"not null"`
	Notas       string
	CreatedAt   time.Time
}

// Firmado returns the signed effect of the movement on the running balance.
func (m *MovimientoCaja) Firmado() decimal.Decimal {
	if m.Tipo == MovimientoEgreso {
		return m.Monto.Neg()
	}
	return m.Monto
}
