package repository

import (
	"context"

	"cajapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreditoRepository interface {
	CreateVentaCreditoTx(tx *gorm.DB, vc *model.VentaCredito) error
	FindVentaCreditoByID(ctx context.Context, id uuid.UUID) (*model.VentaCredito, error)
	FindVentaCreditoPorVenta(ctx context.Context, ventaID uuid.UUID) (*model.VentaCredito, error)
	UpdateVentaCreditoTx(tx *gorm.DB, vc *model.VentaCredito) error
	DeleteVentaCreditoTx(tx *gorm.DB, id uuid.UUID) error
	CreatePagoTx(tx *gorm.DB, p *model.PagoCredito) error
	CountPagos(ctx context.Context, ventaCreditoID uuid.UUID) (int64, error)
	ListPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.VentaCredito, error)
	ListPagos(ctx context.Context, ventaCreditoID uuid.UUID) ([]model.PagoCredito, error)
	DB() *gorm.DB
}

type creditoRepo struct{ db *gorm.DB }

func NewCreditoRepository(db *gorm.DB) CreditoRepository { return &creditoRepo{db: db} }

func (r *creditoRepo) DB() *gorm.DB { return r.db }

func (r *creditoRepo) CreateVentaCreditoTx(tx *gorm.DB, vc *model.VentaCredito) error {
	return tx.Create(vc).Error
}

func (r *creditoRepo) FindVentaCreditoByID(ctx context.Context, id uuid.UUID) (*model.VentaCredito, error) {
	var vc model.VentaCredito
	err := r.db.WithContext(ctx).Preload("Pagos").Preload("Cliente").First(&vc, id).Error
	return &vc, err
}

func (r *creditoRepo) FindVentaCreditoPorVenta(ctx context.Context, ventaID uuid.UUID) (*model.VentaCredito, error) {
	var vc model.VentaCredito
	err := r.db.WithContext(ctx).Preload("Pagos").Where("venta_id = ?", ventaID).First(&vc).Error
	return &vc, err
}

func (r *creditoRepo) UpdateVentaCreditoTx(tx *gorm.DB, vc *model.VentaCredito) error {
	return tx.Save(vc).Error
}

func (r *creditoRepo) DeleteVentaCreditoTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.VentaCredito{}, id).Error
}

func (r *creditoRepo) CreatePagoTx(tx *gorm.DB, p *model.PagoCredito) error {
	return tx.Create(p).Error
}

func (r *creditoRepo) CountPagos(ctx context.Context, ventaCreditoID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PagoCredito{}).
		Where("venta_credito_id = ?", ventaCreditoID).Count(&count).Error
	return count, err
}

func (r *creditoRepo) ListPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.VentaCredito, error) {
	var ventas []model.VentaCredito
	err := r.db.WithContext(ctx).Preload("Pagos").
		Where("cliente_id = ?", clienteID).
		Order("fecha_venta DESC").Find(&ventas).Error
	return ventas, err
}

func (r *creditoRepo) ListPagos(ctx context.Context, ventaCreditoID uuid.UUID) ([]model.PagoCredito, error) {
	var pagos []model.PagoCredito
	err := r.db.WithContext(ctx).Where("venta_credito_id = ?", ventaCreditoID).
		Order("pagado_en ASC").Find(&pagos).Error
	return pagos, err
}
