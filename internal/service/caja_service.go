package service

import (
	"context"
	"errors"
	"time"

	"cajapos/internal/domainerr"
	"cajapos/internal/dto"
	"cajapos/internal/lock"
	"cajapos/internal/model"
	"cajapos/internal/repository"
	"cajapos/internal/statemachine"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MovimientoSink is the narrow capability other services use to post cash
// movements into the open register, inside their own transaction.
// AbiertaParaMovimiento hands the caja back already locked; callers keep the
// returned release func deferred until their transaction commits, and take
// any cliente lock after it.
type MovimientoSink interface {
	AbiertaParaMovimiento(ctx context.Context) (*model.Caja, func(), error)
	AplicarMovimientoTx(tx *gorm.DB, caja *model.Caja, mov *model.MovimientoCaja) error
}

// ReporteEnqueuer enqueues the async close-of-register report job.
// Implemented by worker.Dispatcher; nil disables the pipeline (tests).
type ReporteEnqueuer interface {
	EnqueueReporteCierre(ctx context.Context, cajaID uuid.UUID) error
}

type CajaService interface {
	Abrir(ctx context.Context, actor model.Actor, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	Cerrar(ctx context.Context, actor model.Actor, req dto.CerrarCajaRequest) (*dto.CajaResponse, error)
	ObtenerAbierta(ctx context.Context) (*dto.CajaResponse, error)
	RegistrarMovimiento(ctx context.Context, actor model.Actor, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	RegistrarRetiro(ctx context.Context, actor model.Actor, req dto.RetiroRequest) (*dto.MovimientoResponse, error)
	Reporte(ctx context.Context, id uuid.UUID) (*dto.ReporteCajaResponse, error)
	Historial(ctx context.Context, page, limit int) (*dto.HistorialCajasResponse, error)

	MovimientoSink
}

type cajaService struct {
	repo       repository.CajaRepository
	configRepo repository.ConfiguracionRepository
	locks      *lock.KeyedMutex
	reportes   ReporteEnqueuer
}

func NewCajaService(
	repo repository.CajaRepository,
	configRepo repository.ConfiguracionRepository,
	locks *lock.KeyedMutex,
	reportes ReporteEnqueuer,
) CajaService {
	return &cajaService{repo: repo, configRepo: configRepo, locks: locks, reportes: reportes}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, actor model.Actor, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if req.MontoApertura.IsNegative() {
		return nil, domainerr.Validation("el monto de apertura no puede ser negativo")
	}

	// Guard: only one caja abierta at a time. The partial unique index on
	// estado='abierta' backs this check against races.
	existente, err := s.findAbierta(ctx)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, domainerr.Conflict("ya existe una caja abierta")
	}

	caja := &model.Caja{
		MontoApertura:  req.MontoApertura,
		MontoActual:    req.MontoApertura,
		Estado:         model.CajaAbierta,
		AbiertaPorID:   actor.ID,
		AbiertaPor:     actor.Nombre,
		AperturaManual: req.Manual,
		AbiertaEn:      time.Now(),
	}
	if err := s.repo.Create(ctx, caja); err != nil {
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}

	log.Info().Str("caja_id", caja.ID.String()).
		Str("monto_apertura", caja.MontoApertura.String()).
		Str("actor", actor.Nombre).
		Msg("caja abierta")

	return cajaToResponse(caja), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Computes diferencia = monto contado − monto actual. When it is non-zero,
// exactly one synthetic movement (concepto "ajuste de cierre") is appended
// and the balance updated, in the SAME transaction as the close itself —
// a closed caja without its adjustment must never be observable.

func (s *cajaService) Cerrar(ctx context.Context, actor model.Actor, req dto.CerrarCajaRequest) (*dto.CajaResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	abierta, err := s.findAbierta(ctx)
	if err != nil {
		return nil, err
	}
	if abierta == nil {
		return nil, domainerr.NotFound("no hay caja abierta")
	}

	s.locks.Lock(abierta.ID)
	defer s.locks.Unlock(abierta.ID)

	// Re-fetch under the lock: movements may have landed in between.
	caja, err := s.repo.FindByID(ctx, abierta.ID)
	if err != nil {
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}

	fsm := statemachine.NewCajaFSM(caja)

	diferencia := req.MontoContado.Sub(caja.MontoActual)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if !diferencia.IsZero() {
			tipo := model.MovimientoIngreso
			if diferencia.IsNegative() {
				tipo = model.MovimientoEgreso
			}
			ajuste := &model.MovimientoCaja{
				CajaID:      caja.ID,
				Tipo:        tipo,
				Concepto:    model.ConceptoAjusteCierre,
				Monto:       diferencia.Abs(),
				MetodoPago:  "efectivo",
				ActorID:     actor.ID,
				ActorNombre: actor.Nombre,
			}
			if err := s.AplicarMovimientoTx(tx, caja, ajuste); err != nil {
				return err
			}
		}

		if err := fsm.Cerrar(ctx); err != nil {
			return err
		}

		now := time.Now()
		montoCierre := req.MontoContado
		caja.MontoCierre = &montoCierre
		caja.Diferencia = &diferencia
		caja.CerradaPorID = &actor.ID
		caja.CerradaPor = &actor.Nombre
		caja.CierreManual = req.Manual
		caja.Notas = req.Notas
		caja.CerradaEn = &now
		return s.repo.UpdateTx(tx, caja)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("caja_id", caja.ID.String()).
		Str("monto_contado", req.MontoContado.String()).
		Str("diferencia", diferencia.String()).
		Msg("caja cerrada")

	// Async close report — best-effort, never blocks the close.
	if s.reportes != nil {
		if err := s.reportes.EnqueueReporteCierre(ctx, caja.ID); err != nil {
			log.Warn().Err(err).Str("caja_id", caja.ID.String()).Msg("no se pudo encolar el reporte de cierre")
		}
	}

	return cajaToResponse(caja), nil
}

// ── ObtenerAbierta ────────────────────────────────────────────────────────────

func (s *cajaService) ObtenerAbierta(ctx context.Context) (*dto.CajaResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	caja, err := s.findAbierta(ctx)
	if err != nil {
		return nil, err
	}
	if caja == nil {
		return nil, nil // no open caja is not an error at this layer
	}
	return cajaToResponse(caja), nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Movement insert and balance update happen in one transaction, serialized
// per caja — a movement without its balance effect (or vice versa) must
// never be observable.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, actor model.Actor, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, domainerr.Validation("caja_id inválido")
	}
	if !req.Monto.IsPositive() {
		return nil, domainerr.Validation("el monto debe ser mayor a cero")
	}

	s.locks.Lock(cajaID)
	defer s.locks.Unlock(cajaID)

	caja, err := s.repo.FindByID(ctx, cajaID)
	if err != nil {
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}

	var ventaID *uuid.UUID
	if req.VentaID != nil {
		vid, err := uuid.Parse(*req.VentaID)
		if err != nil {
			return nil, domainerr.Validation("venta_id inválido")
		}
		ventaID = &vid
	}

	mov := &model.MovimientoCaja{
		CajaID:      cajaID,
		Tipo:        req.Tipo,
		Concepto:    req.Concepto,
		Monto:       req.Monto,
		MetodoPago:  req.MetodoPago,
		VentaID:     ventaID,
		ActorID:     actor.ID,
		ActorNombre: actor.Nombre,
		Notas:       req.Notas,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.AplicarMovimientoTx(tx, caja, mov)
	})
	if txErr != nil {
		return nil, txErr
	}

	return movimientoToResponse(mov), nil
}

// ── RegistrarRetiro ───────────────────────────────────────────────────────────
// A cash withdrawal from the open caja. Optionally stores the withdrawn-to
// amount as the suggested opening amount for the next session.

func (s *cajaService) RegistrarRetiro(ctx context.Context, actor model.Actor, req dto.RetiroRequest) (*dto.MovimientoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if !req.Monto.IsPositive() {
		return nil, domainerr.Validation("el monto debe ser mayor a cero")
	}

	abierta, err := s.findAbierta(ctx)
	if err != nil {
		return nil, err
	}
	if abierta == nil {
		return nil, domainerr.NotFound("no hay caja abierta")
	}

	s.locks.Lock(abierta.ID)
	defer s.locks.Unlock(abierta.ID)

	caja, err := s.repo.FindByID(ctx, abierta.ID)
	if err != nil {
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}

	if req.Monto.GreaterThan(caja.MontoActual) {
		return nil, domainerr.InsufficientFunds(
			"fondos insuficientes: la caja tiene %s", caja.MontoActual.StringFixed(2))
	}

	mov := &model.MovimientoCaja{
		CajaID:      caja.ID,
		Tipo:        model.MovimientoEgreso,
		Concepto:    "retiro de efectivo",
		Monto:       req.Monto,
		MetodoPago:  "efectivo",
		ActorID:     actor.ID,
		ActorNombre: actor.Nombre,
		Notas:       req.Notas,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.AplicarMovimientoTx(tx, caja, mov); err != nil {
			return err
		}
		if req.ActualizarMontoApertura {
			cfg, err := s.configRepo.Get(ctx)
			if err != nil {
				return domainerr.FromDB(err, "configuración no encontrada")
			}
			cfg.MontoAperturaDefault = caja.MontoActual
			return s.configRepo.UpdateTx(tx, cfg)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return movimientoToResponse(mov), nil
}

// ── Reporte / Historial ───────────────────────────────────────────────────────

func (s *cajaService) Reporte(ctx context.Context, id uuid.UUID) (*dto.ReporteCajaResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}
	sums, err := s.repo.SumMovimientosPorTipo(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}
	movs, err := s.repo.ListMovimientos(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}

	resp := &dto.ReporteCajaResponse{
		Caja:          *cajaToResponse(caja),
		TotalIngresos: sums[model.MovimientoIngreso],
		TotalEgresos:  sums[model.MovimientoEgreso],
	}
	for i := range movs {
		resp.Movimientos = append(resp.Movimientos, *movimientoToResponse(&movs[i]))
	}
	return resp, nil
}

func (s *cajaService) Historial(ctx context.Context, page, limit int) (*dto.HistorialCajasResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	cajas, total, err := s.repo.ListCerradas(ctx, page, limit)
	if err != nil {
		return nil, domainerr.FromDB(err, "historial no disponible")
	}
	resp := &dto.HistorialCajasResponse{Total: total, Page: page, Limit: limit}
	for i := range cajas {
		resp.Data = append(resp.Data, *cajaToResponse(&cajas[i]))
	}
	return resp, nil
}

// ── MovimientoSink ────────────────────────────────────────────────────────────

// AbiertaParaMovimiento resolves the open caja for a cross-service cash
// effect. The caja lock is taken BEFORE the balance is read, so the struct
// the caller mutates already reflects every movement committed ahead of it;
// the release func must stay held until the caller's transaction commits.
// Conflict when no caja is open — cash effects fail loudly instead of
// silently skipping the drawer.
func (s *cajaService) AbiertaParaMovimiento(ctx context.Context) (*model.Caja, func(), error) {
	abierta, err := s.findAbierta(ctx)
	if err != nil {
		return nil, nil, err
	}
	if abierta == nil {
		return nil, nil, domainerr.Conflict("no hay caja abierta para registrar el movimiento")
	}

	s.locks.Lock(abierta.ID)
	caja, err := s.repo.FindByID(ctx, abierta.ID)
	if err != nil {
		s.locks.Unlock(abierta.ID)
		return nil, nil, domainerr.FromDB(err, "caja no encontrada")
	}
	if caja.Estado != model.CajaAbierta {
		// Closed between the lookup and the lock.
		s.locks.Unlock(abierta.ID)
		return nil, nil, domainerr.Conflict("no hay caja abierta para registrar el movimiento")
	}
	return caja, func() { s.locks.Unlock(caja.ID) }, nil
}

// AplicarMovimientoTx appends mov and applies its signed effect to the
// running balance inside tx. The caja must be abierta.
func (s *cajaService) AplicarMovimientoTx(tx *gorm.DB, caja *model.Caja, mov *model.MovimientoCaja) error {
	if caja.Estado != model.CajaAbierta {
		return domainerr.NotFound("la caja no está abierta")
	}
	if !mov.Monto.IsPositive() {
		return domainerr.Validation("el monto debe ser mayor a cero")
	}
	if err := s.repo.CreateMovimientoTx(tx, mov); err != nil {
		return domainerr.FromDB(err, "caja no encontrada")
	}
	caja.MontoActual = caja.MontoActual.Add(mov.Firmado())
	if err := s.repo.UpdateTx(tx, caja); err != nil {
		return domainerr.FromDB(err, "caja no encontrada")
	}
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// findAbierta distinguishes "no hay caja abierta" (nil, nil) from a storage
// failure, which must surface instead of reading as an absent caja.
func (s *cajaService) findAbierta(ctx context.Context) (*model.Caja, error) {
	caja, err := s.repo.FindAbierta(ctx)
	switch {
	case err == nil:
		return caja, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, domainerr.FromDB(err, "caja no encontrada")
	}
}

func cajaToResponse(c *model.Caja) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:             c.ID.String(),
		MontoApertura:  c.MontoApertura,
		MontoActual:    c.MontoActual,
		MontoCierre:    c.MontoCierre,
		Estado:         c.Estado,
		AbiertaPor:     c.AbiertaPor,
		CerradaPor:     c.CerradaPor,
		AperturaManual: c.AperturaManual,
		CierreManual:   c.CierreManual,
		Diferencia:     c.Diferencia,
		AbiertaEn:      c.AbiertaEn.Format(time.RFC3339),
	}
	if c.CerradaEn != nil {
		t := c.CerradaEn.Format(time.RFC3339)
		resp.CerradaEn = &t
	}
	return resp
}

func movimientoToResponse(m *model.MovimientoCaja) *dto.MovimientoResponse {
	resp := &dto.MovimientoResponse{
		ID:         m.ID.String(),
		CajaID:     m.CajaID.String(),
		Tipo:       m.Tipo,
		Concepto:   m.Concepto,
		Monto:      m.Monto,
		MetodoPago: m.MetodoPago,
		Actor:      m.ActorNombre,
		Notas:      m.Notas,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
	if m.VentaID != nil {
		v := m.VentaID.String()
		resp.VentaID = &v
	}
	return resp
}
