package worker

// reporte_worker.go
// Processes close-of-register report jobs from QueueReportes: renders the
// session PDF and hands delivery to the email queue. Generation failures
// leave the report pendiente with a next_retry_at for the retry cron.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cajapos/internal/infra"
	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxReporteRetries bounds cron retries before a report is parked in the DLQ.
const MaxReporteRetries = 5

// ReporteJobPayload is the job envelope sent to QueueReportes.
type ReporteJobPayload struct {
	CajaID string `json:"caja_id"`
}

type ReporteWorker struct {
	cajaRepo       repository.CajaRepository
	reporteRepo    repository.ReporteRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
	reportesEmail  string
}

func NewReporteWorker(
	cajaRepo repository.CajaRepository,
	reporteRepo repository.ReporteRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
	reportesEmail string,
) *ReporteWorker {
	return &ReporteWorker{
		cajaRepo:       cajaRepo,
		reporteRepo:    reporteRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		reportesEmail:  reportesEmail,
	}
}

// Process handles a single close-report job:
//  1. Parse ReporteJobPayload from the job envelope
//  2. Fetch the closed caja with its movements
//  3. Find or create the ReporteCierre record (pendiente)
//  4. Render the PDF with bounded retries
//  5. On success mark generado and enqueue the email job
//  6. On failure schedule the retry cron via next_retry_at
func (w *ReporteWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReporteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("reporte_worker: invalid payload")
		return
	}
	cajaID, err := uuid.Parse(payload.CajaID)
	if err != nil {
		log.Error().Str("caja_id", payload.CajaID).Msg("reporte_worker: invalid caja_id")
		return
	}

	caja, err := w.cajaRepo.FindByID(ctx, cajaID)
	if err != nil {
		log.Error().Err(err).Str("caja_id", payload.CajaID).Msg("reporte_worker: caja not found")
		return
	}
	movimientos, err := w.cajaRepo.ListMovimientos(ctx, cajaID)
	if err != nil {
		log.Error().Err(err).Str("caja_id", payload.CajaID).Msg("reporte_worker: movements not available")
		return
	}

	rep, err := w.reporteRepo.FindByCajaID(ctx, cajaID)
	if err != nil {
		rep = &model.ReporteCierre{CajaID: cajaID, Estado: model.ReportePendiente}
		if err := w.reporteRepo.Create(ctx, rep); err != nil {
			log.Error().Err(err).Str("caja_id", payload.CajaID).Msg("reporte_worker: failed to create report record")
			return
		}
	}
	if rep.Estado == model.ReporteGenerado {
		log.Debug().Str("caja_id", payload.CajaID).Msg("reporte_worker: report already generated, skipping")
		return
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReporteCierrePDF(caja, movimientos, w.pdfStoragePath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).
				Str("caja_id", payload.CajaID).
				Msg("reporte_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})

	if genErr != nil {
		rep.RetryCount++
		errMsg := genErr.Error()
		rep.LastError = &errMsg
		next := time.Now().Add(computeRetryBackoff(rep.RetryCount))
		rep.NextRetryAt = &next
		_ = w.reporteRepo.Update(ctx, rep)
		log.Error().Err(genErr).Str("caja_id", payload.CajaID).
			Time("next_retry_at", next).
			Msg("reporte_worker: generation failed, scheduled for retry")
		return
	}

	rep.Estado = model.ReporteGenerado
	rep.PDFPath = &pdfPath
	rep.NextRetryAt = nil
	rep.LastError = nil
	if err := w.reporteRepo.Update(ctx, rep); err != nil {
		log.Error().Err(err).Str("caja_id", payload.CajaID).Msg("reporte_worker: failed to update report record")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("caja_id", payload.CajaID).Msg("reporte_worker: report generated")

	if w.reportesEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: w.reportesEmail,
			Subject: fmt.Sprintf("Cierre de caja %s — %s", caja.ID, caja.AbiertaEn.Format("02/01/2006")),
			Body:    buildReporteBody(caja),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("caja_id", payload.CajaID).Msg("reporte_worker: failed to enqueue email")
		}
	}
}

func buildReporteBody(caja *model.Caja) string {
	body := fmt.Sprintf("Reporte de cierre de caja.\nApertura: $%s\nSaldo final: $%s",
		caja.MontoApertura.StringFixed(2), caja.MontoActual.StringFixed(2))
	if caja.Diferencia != nil && !caja.Diferencia.IsZero() {
		body += fmt.Sprintf("\nDiferencia de arqueo: $%s", caja.Diferencia.StringFixed(2))
	}
	return body
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// computeRetryBackoff grows the cron wait per retry: 1m, 2m, 4m …, capped.
func computeRetryBackoff(retryCount int) time.Duration {
	if retryCount > 6 {
		retryCount = 6
	}
	return time.Duration(1<<uint(retryCount-1)) * time.Minute
}
