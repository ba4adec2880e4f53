package repository

import (
	"context"
	"time"

	"cajapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReporteRepository interface {
	Create(ctx context.Context, r *model.ReporteCierre) error
	FindByCajaID(ctx context.Context, cajaID uuid.UUID) (*model.ReporteCierre, error)
	Update(ctx context.Context, r *model.ReporteCierre) error
	// ListPendingRetries returns pending reports whose next_retry_at has passed.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.ReporteCierre, error)
}

type reporteRepo struct{ db *gorm.DB }

func NewReporteRepository(db *gorm.DB) ReporteRepository { return &reporteRepo{db: db} }

func (r *reporteRepo) Create(ctx context.Context, rep *model.ReporteCierre) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *reporteRepo) FindByCajaID(ctx context.Context, cajaID uuid.UUID) (*model.ReporteCierre, error) {
	var rep model.ReporteCierre
	err := r.db.WithContext(ctx).Where("caja_id = ?", cajaID).First(&rep).Error
	return &rep, err
}

func (r *reporteRepo) Update(ctx context.Context, rep *model.ReporteCierre) error {
	return r.db.WithContext(ctx).Save(rep).Error
}

func (r *reporteRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.ReporteCierre, error) {
	var reps []model.ReporteCierre
	err := r.db.WithContext(ctx).
		Where("estado = 'pendiente' AND next_retry_at IS NOT NULL AND next_retry_at <= ?", now).
		Order("next_retry_at ASC").Limit(limit).
		Find(&reps).Error
	return reps, err
}
