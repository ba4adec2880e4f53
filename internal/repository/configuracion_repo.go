package repository

import (
	"context"

	"cajapos/internal/model"

	"gorm.io/gorm"
)

type ConfiguracionRepository interface {
	Get(ctx context.Context) (*model.Configuracion, error)
	UpdateTx(tx *gorm.DB, c *model.Configuracion) error
}

type configuracionRepo struct{ db *gorm.DB }

func NewConfiguracionRepository(db *gorm.DB) ConfiguracionRepository {
	return &configuracionRepo{db: db}
}

func (r *configuracionRepo) Get(ctx context.Context) (*model.Configuracion, error) {
	var c model.Configuracion
	err := r.db.WithContext(ctx).FirstOrCreate(&c, model.Configuracion{ID: 1}).Error
	return &c, err
}

func (r *configuracionRepo) UpdateTx(tx *gorm.DB, c *model.Configuracion) error {
	return tx.Save(c).Error
}
