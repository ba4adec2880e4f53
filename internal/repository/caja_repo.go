package repository

import (
	"context"

	"cajapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CajaRepository interface {
	Create(ctx context.Context, c *model.Caja) error
	FindAbierta(ctx context.Context) (*model.Caja, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	UpdateTx(tx *gorm.DB, c *model.Caja) error
	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error)
	SumMovimientosPorTipo(ctx context.Context, cajaID uuid.UUID) (map[string]decimal.Decimal, error)
	ListCerradas(ctx context.Context, page, limit int) ([]model.Caja, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindAbierta(ctx context.Context) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Where("estado = 'abierta'").First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Preload("Movimientos").First(&c, id).Error
	return &c, err
}

func (r *cajaRepo) UpdateTx(tx *gorm.DB, c *model.Caja) error {
	return tx.Save(c).Error
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	return tx.Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).Where("caja_id = ?", cajaID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) SumMovimientosPorTipo(ctx context.Context, cajaID uuid.UUID) (map[string]decimal.Decimal, error) {
	type row struct {
		Tipo  string
		Total decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS total").
		Where("caja_id = ?", cajaID).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := map[string]decimal.Decimal{
		model.MovimientoIngreso: decimal.Zero,
		model.MovimientoEgreso:  decimal.Zero,
	}
	for _, rw := range rows {
		sums[rw.Tipo] = rw.Total
	}
	return sums, nil
}

func (r *cajaRepo) ListCerradas(ctx context.Context, page, limit int) ([]model.Caja, int64, error) {
	var cajas []model.Caja
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Caja{}).Where("estado = 'cerrada'")
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("cerrada_en DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&cajas).Error
	return cajas, total, err
}
