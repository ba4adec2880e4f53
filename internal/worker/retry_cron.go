package worker

// retry_cron.go
// Background goroutine that periodically re-attempts close reports stuck in
// estado='pendiente' with a next_retry_at in the past. Uses the circuit
// breaker so a downed SMTP relay does not burn the whole retry budget.

import (
	"context"
	"fmt"
	"time"

	"cajapos/internal/infra"
	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	ReporteRepo    repository.ReporteRepository
	CajaRepo       repository.CajaRepository
	Dispatcher     *Dispatcher
	CB             *infra.CircuitBreaker
	RDB            *redis.Client
	PDFStoragePath string
	ReportesEmail  string
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries pending reports, and re-attempts generation plus delivery.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open the email leg would fast-fail anyway — skip the tick.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	reportes, err := cfg.ReporteRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(reportes) == 0 {
		return
	}

	log.Info().Int("count", len(reportes)).Msg("retry_cron: processing pending reports")

	for i := range reportes {
		rep := &reportes[i]

		// The CB may have tripped mid-batch.
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		caja, err := cfg.CajaRepo.FindByID(ctx, rep.CajaID)
		if err != nil {
			log.Error().Err(err).Str("caja_id", rep.CajaID.String()).Msg("retry_cron: caja not found")
			continue
		}
		movimientos, err := cfg.CajaRepo.ListMovimientos(ctx, rep.CajaID)
		if err != nil {
			log.Error().Err(err).Str("caja_id", rep.CajaID.String()).Msg("retry_cron: movements not available")
			continue
		}

		pdfPath, genErr := infra.GenerateReporteCierrePDF(caja, movimientos, cfg.PDFStoragePath)
		if genErr != nil {
			rep.RetryCount++
			errMsg := genErr.Error()
			rep.LastError = &errMsg
			next := time.Now().Add(computeRetryBackoff(rep.RetryCount))
			rep.NextRetryAt = &next

			if rep.RetryCount >= MaxReporteRetries {
				rep.Estado = model.ReporteError
				rep.NextRetryAt = nil
				log.Error().
					Str("reporte_id", rep.ID.String()).
					Str("caja_id", rep.CajaID.String()).
					Int("retries", rep.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to error/DLQ")

				payload := fmt.Sprintf(`{"caja_id":"%s","reporte_id":"%s"}`, rep.CajaID, rep.ID)
				SendToDLQ(ctx, cfg.RDB, QueueReportes, "reporte_cierre", []byte(payload),
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxReporteRetries, errMsg),
					rep.RetryCount)
			} else {
				log.Warn().
					Str("reporte_id", rep.ID.String()).
					Int("retry_count", rep.RetryCount).
					Time("next_retry_at", *rep.NextRetryAt).
					Msg("retry_cron: generation failed again, scheduled next attempt")
			}
			_ = cfg.ReporteRepo.Update(ctx, rep)
			continue
		}

		// Success path
		rep.Estado = model.ReporteGenerado
		rep.PDFPath = &pdfPath
		rep.NextRetryAt = nil
		rep.LastError = nil
		_ = cfg.ReporteRepo.Update(ctx, rep)

		log.Info().
			Str("reporte_id", rep.ID.String()).
			Int("total_retries", rep.RetryCount).
			Msg("retry_cron: report generated after retry")

		if cfg.ReportesEmail != "" {
			emailJob := EmailJobPayload{
				ToEmail: cfg.ReportesEmail,
				Subject: fmt.Sprintf("Cierre de caja %s — %s", caja.ID, caja.AbiertaEn.Format("02/01/2006")),
				Body:    buildReporteBody(caja),
				PDFPath: pdfPath,
			}
			if err := cfg.Dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
				log.Warn().Err(err).Str("caja_id", rep.CajaID.String()).Msg("retry_cron: failed to enqueue email")
			}
		}
	}
}
