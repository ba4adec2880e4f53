package service

// In-memory repository fakes shared by the service tests. Every DB() returns
// nil so runTx executes the transactional closure directly.

import (
	"context"
	"sync"
	"time"

	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Caja ──────────────────────────────────────────────────────────────────────

// fakeCajaRepo mimics the row semantics of the real store: reads hand out
// detached copies and UpdateTx copies the struct back, so state only moves
// on an explicit update. Safe for concurrent callers.
type fakeCajaRepo struct {
	mu             sync.Mutex
	cajas          map[uuid.UUID]*model.Caja
	movimientos    []model.MovimientoCaja
	findAbiertaErr error
}

func newFakeCajaRepo() *fakeCajaRepo {
	return &fakeCajaRepo{cajas: make(map[uuid.UUID]*model.Caja)}
}

func (r *fakeCajaRepo) DB() *gorm.DB { return nil }

func (r *fakeCajaRepo) Create(_ context.Context, c *model.Caja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.cajas[c.ID] = &cp
	return nil
}

func (r *fakeCajaRepo) FindAbierta(_ context.Context) (*model.Caja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findAbiertaErr != nil {
		return nil, r.findAbiertaErr
	}
	for _, c := range r.cajas {
		if c.Estado == model.CajaAbierta {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCajaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cajas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCajaRepo) UpdateTx(_ *gorm.DB, c *model.Caja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cajas[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	*stored = *c
	return nil
}

func (r *fakeCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *fakeCajaRepo) ListMovimientos(_ context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.CajaID == cajaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeCajaRepo) SumMovimientosPorTipo(_ context.Context, cajaID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := map[string]decimal.Decimal{
		model.MovimientoIngreso: decimal.Zero,
		model.MovimientoEgreso:  decimal.Zero,
	}
	for _, m := range r.movimientos {
		if m.CajaID == cajaID {
			sums[m.Tipo] = sums[m.Tipo].Add(m.Monto)
		}
	}
	return sums, nil
}

func (r *fakeCajaRepo) ListCerradas(_ context.Context, page, limit int) ([]model.Caja, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Caja
	for _, c := range r.cajas {
		if c.Estado == model.CajaCerrada {
			all = append(all, *c)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ repository.CajaRepository = (*fakeCajaRepo)(nil)

// movimientosPorConcepto filters the recorded ledger by concepto.
func (r *fakeCajaRepo) movimientosPorConcepto(concepto string) []model.MovimientoCaja {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.Concepto == concepto {
			out = append(out, m)
		}
	}
	return out
}

// ── Configuración ─────────────────────────────────────────────────────────────

type fakeConfigRepo struct {
	cfg model.Configuracion
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{cfg: model.Configuracion{ID: 1}}
}

func (r *fakeConfigRepo) Get(_ context.Context) (*model.Configuracion, error) {
	return &r.cfg, nil
}

func (r *fakeConfigRepo) UpdateTx(_ *gorm.DB, c *model.Configuracion) error {
	r.cfg = *c
	return nil
}

var _ repository.ConfiguracionRepository = (*fakeConfigRepo)(nil)

// ── Clientes ──────────────────────────────────────────────────────────────────

type fakeClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newFakeClienteRepo() *fakeClienteRepo {
	return &fakeClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *fakeClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *fakeClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakeClienteRepo) FindByCedula(_ context.Context, cedula string) (*model.Cliente, error) {
	for _, c := range r.clientes {
		if c.Cedula == cedula {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClienteRepo) List(_ context.Context, incluirInactivos bool) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if c.Activo || incluirInactivos {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *fakeClienteRepo) UpdateTx(_ *gorm.DB, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

var _ repository.ClienteRepository = (*fakeClienteRepo)(nil)

// ── Créditos ──────────────────────────────────────────────────────────────────

type fakeCreditoRepo struct {
	ventas map[uuid.UUID]*model.VentaCredito
	pagos  []model.PagoCredito
}

func newFakeCreditoRepo() *fakeCreditoRepo {
	return &fakeCreditoRepo{ventas: make(map[uuid.UUID]*model.VentaCredito)}
}

func (r *fakeCreditoRepo) DB() *gorm.DB { return nil }

func (r *fakeCreditoRepo) CreateVentaCreditoTx(_ *gorm.DB, vc *model.VentaCredito) error {
	if vc.ID == uuid.Nil {
		vc.ID = uuid.New()
	}
	r.ventas[vc.ID] = vc
	return nil
}

func (r *fakeCreditoRepo) attachPagos(vc *model.VentaCredito) {
	vc.Pagos = nil
	for _, p := range r.pagos {
		if p.VentaCreditoID == vc.ID {
			vc.Pagos = append(vc.Pagos, p)
		}
	}
}

func (r *fakeCreditoRepo) FindVentaCreditoByID(_ context.Context, id uuid.UUID) (*model.VentaCredito, error) {
	vc, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	r.attachPagos(vc)
	return vc, nil
}

func (r *fakeCreditoRepo) FindVentaCreditoPorVenta(_ context.Context, ventaID uuid.UUID) (*model.VentaCredito, error) {
	for _, vc := range r.ventas {
		if vc.VentaID == ventaID {
			r.attachPagos(vc)
			return vc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCreditoRepo) UpdateVentaCreditoTx(_ *gorm.DB, vc *model.VentaCredito) error {
	r.ventas[vc.ID] = vc
	return nil
}

func (r *fakeCreditoRepo) DeleteVentaCreditoTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.ventas, id)
	return nil
}

func (r *fakeCreditoRepo) CreatePagoTx(_ *gorm.DB, p *model.PagoCredito) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pagos = append(r.pagos, *p)
	return nil
}

func (r *fakeCreditoRepo) CountPagos(_ context.Context, ventaCreditoID uuid.UUID) (int64, error) {
	var count int64
	for _, p := range r.pagos {
		if p.VentaCreditoID == ventaCreditoID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCreditoRepo) ListPorCliente(_ context.Context, clienteID uuid.UUID) ([]model.VentaCredito, error) {
	var out []model.VentaCredito
	for _, vc := range r.ventas {
		if vc.ClienteID == clienteID {
			r.attachPagos(vc)
			out = append(out, *vc)
		}
	}
	return out, nil
}

func (r *fakeCreditoRepo) ListPagos(_ context.Context, ventaCreditoID uuid.UUID) ([]model.PagoCredito, error) {
	var out []model.PagoCredito
	for _, p := range r.pagos {
		if p.VentaCreditoID == ventaCreditoID {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ repository.CreditoRepository = (*fakeCreditoRepo)(nil)

// ── Productos ─────────────────────────────────────────────────────────────────

// fakeProductoRepo keeps the seeded structs live (tests assert on them) but
// hands out copies from reads and serializes stock adjustments, matching the
// guarded UPDATE of the real repo.
type fakeProductoRepo struct {
	mu        sync.Mutex
	productos map[uuid.UUID]*model.Producto
}

func newFakeProductoRepo() *fakeProductoRepo {
	return &fakeProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *fakeProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *fakeProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *fakeProductoRepo) List(_ context.Context) ([]model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Producto
	for _, p := range r.productos {
		if p.Activo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productos[p.ID] = p
	return nil
}

func (r *fakeProductoRepo) AjustarStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if p.Stock+delta < 0 {
		return repository.ErrStockInsuficiente
	}
	p.Stock += delta
	return nil
}

var _ repository.ProductoRepository = (*fakeProductoRepo)(nil)

// ── Ventas ────────────────────────────────────────────────────────────────────

type fakeVentaRepo struct {
	mu         sync.Mutex
	ventas     map[uuid.UUID]*model.Venta
	nextTicket int
}

func newFakeVentaRepo() *fakeVentaRepo {
	return &fakeVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *fakeVentaRepo) DB() *gorm.DB { return nil }

func (r *fakeVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	for i := range v.Items {
		if v.Items[i].ID == uuid.Nil {
			v.Items[i].ID = uuid.New()
		}
		v.Items[i].VentaID = v.ID
	}
	v.CreatedAt = time.Now()
	r.ventas[v.ID] = v
	return nil
}

func (r *fakeVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *fakeVentaRepo) NextTicketNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTicket++
	return r.nextTicket, nil
}

func (r *fakeVentaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Estado = estado
	return nil
}

func (r *fakeVentaRepo) MarcarRecambiadaTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Recambiada = true
	return nil
}

func (r *fakeVentaRepo) List(_ context.Context, page, limit int) ([]model.Venta, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Venta
	for _, v := range r.ventas {
		all = append(all, *v)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ repository.VentaRepository = (*fakeVentaRepo)(nil)

// ── Recambios ─────────────────────────────────────────────────────────────────

type fakeRecambioRepo struct {
	recambios map[uuid.UUID]*model.Recambio
}

func newFakeRecambioRepo() *fakeRecambioRepo {
	return &fakeRecambioRepo{recambios: make(map[uuid.UUID]*model.Recambio)}
}

func (r *fakeRecambioRepo) CreateTx(_ *gorm.DB, rec *model.Recambio) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	r.recambios[rec.ID] = rec
	return nil
}

func (r *fakeRecambioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Recambio, error) {
	rec, ok := r.recambios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeRecambioRepo) List(_ context.Context, page, limit int) ([]model.Recambio, int64, error) {
	var all []model.Recambio
	for _, rec := range r.recambios {
		all = append(all, *rec)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		return all[start:], total, nil
	}
	return all[start:end], total, nil
}

var _ repository.RecambioRepository = (*fakeRecambioRepo)(nil)

// ── Enqueuer ──────────────────────────────────────────────────────────────────

type fakeEnqueuer struct {
	encolados []uuid.UUID
}

func (e *fakeEnqueuer) EnqueueReporteCierre(_ context.Context, cajaID uuid.UUID) error {
	e.encolados = append(e.encolados, cajaID)
	return nil
}
