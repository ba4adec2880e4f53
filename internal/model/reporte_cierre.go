package model

import (
	"time"

	"github.com/google/uuid"
)

// ReporteCierre estados.
const (
	ReportePendiente = "pendiente"
	ReporteGenerado  = "generado"
	ReporteError     = "error"
)

// ReporteCierre tracks the async close-of-register report: a PDF generated
// after a caja closes and optionally emailed to supervision. Failed
// generations are retried with backoff by the retry cron until
// MaxReporteRetries, then parked in the DLQ.
type ReporteCierre struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Estado      string    `gorm:"type:varchar(20);not null;default:'pendiente'"`
	PDFPath     *string
	RetryCount  int `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
