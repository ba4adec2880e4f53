package repository

import (
	"context"

	"cajapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecambioRepository interface {
	CreateTx(tx *gorm.DB, r *model.Recambio) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Recambio, error)
	List(ctx context.Context, page, limit int) ([]model.Recambio, int64, error)
}

type recambioRepo struct{ db *gorm.DB }

func NewRecambioRepository(db *gorm.DB) RecambioRepository { return &recambioRepo{db: db} }

func (r *recambioRepo) CreateTx(tx *gorm.DB, rec *model.Recambio) error {
	return tx.Create(rec).Error
}

func (r *recambioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Recambio, error) {
	var rec model.Recambio
	err := r.db.WithContext(ctx).Preload("Items").First(&rec, id).Error
	return &rec, err
}

func (r *recambioRepo) List(ctx context.Context, page, limit int) ([]model.Recambio, int64, error) {
	var recambios []model.Recambio
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Recambio{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&recambios).Error
	return recambios, total, err
}
