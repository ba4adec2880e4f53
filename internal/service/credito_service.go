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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreditoPoster is the capability other services use to create or unwind
// credit sales inside their own transaction. Callers must hold the cliente
// lock (LockCliente/UnlockCliente) around the whole cycle; when a caja lock
// is also needed (AbiertaParaMovimiento takes it) it comes BEFORE the
// cliente lock.
type CreditoPoster interface {
	LockCliente(id uuid.UUID)
	UnlockCliente(id uuid.UUID)
	CrearVentaCreditoTx(ctx context.Context, tx *gorm.DB, clienteID, ventaID uuid.UUID, monto decimal.Decimal, fechaVencimiento *time.Time) (*model.VentaCredito, error)
	RevertirPorVentaTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) error
	AjustarPorRecambioTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID, delta decimal.Decimal) error
}

type CreditoService interface {
	CrearCliente(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ActualizarCliente(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	ObtenerCliente(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	ListarClientes(ctx context.Context, incluirInactivos bool) ([]dto.ClienteResponse, error)

	CrearVentaCredito(ctx context.Context, req dto.CrearVentaCreditoRequest) (*dto.VentaCreditoResponse, error)
	RegistrarPago(ctx context.Context, actor model.Actor, req dto.PagoCreditoRequest) (*dto.VentaCreditoResponse, error)
	RevertirVentaCredito(ctx context.Context, id uuid.UUID) error
	ObtenerVentaCredito(ctx context.Context, id uuid.UUID) (*dto.VentaCreditoResponse, error)
	ListarPorCliente(ctx context.Context, clienteID uuid.UUID) ([]dto.VentaCreditoResponse, error)

	CreditoPoster
}

type creditoService struct {
	repo     repository.CreditoRepository
	clientes repository.ClienteRepository
	caja     MovimientoSink
	locks    *lock.KeyedMutex
}

func NewCreditoService(
	repo repository.CreditoRepository,
	clientes repository.ClienteRepository,
	caja MovimientoSink,
	locks *lock.KeyedMutex,
) CreditoService {
	return &creditoService{repo: repo, clientes: clientes, caja: caja, locks: locks}
}

// ── Clientes ──────────────────────────────────────────────────────────────────

func (s *creditoService) CrearCliente(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if req.LimiteCredito.IsNegative() {
		return nil, domainerr.Validation("el límite de crédito no puede ser negativo")
	}
	existente, err := s.clientes.FindByCedula(ctx, req.Cedula)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}
	if existente != nil && err == nil {
		return nil, domainerr.Conflict("ya existe un cliente con la cédula %s", req.Cedula)
	}

	cliente := &model.Cliente{
		Nombre:        req.Nombre,
		Cedula:        req.Cedula,
		Telefono:      req.Telefono,
		LimiteCredito: req.LimiteCredito,
		SaldoActual:   decimal.Zero,
		Activo:        true,
	}
	if err := s.clientes.Create(ctx, cliente); err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}

	log.Info().Str("cliente_id", cliente.ID.String()).Str("cedula", cliente.Cedula).Msg("cliente creado")
	return clienteToResponse(cliente), nil
}

func (s *creditoService) ActualizarCliente(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	cliente, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}

	if req.Nombre != "" {
		cliente.Nombre = req.Nombre
	}
	if req.Telefono != nil {
		cliente.Telefono = req.Telefono
	}
	if req.LimiteCredito != nil {
		if req.LimiteCredito.IsNegative() {
			return nil, domainerr.Validation("el límite de crédito no puede ser negativo")
		}
		// Lowering the limit below the current balance is allowed: it only
		// blocks NEW credit, it never invalidates existing debt.
		cliente.LimiteCredito = *req.LimiteCredito
	}
	if req.Activo != nil {
		if !*req.Activo && cliente.SaldoActual.IsPositive() {
			return nil, domainerr.Conflict("no se puede desactivar un cliente con saldo pendiente de %s", cliente.SaldoActual.StringFixed(2))
		}
		cliente.Activo = *req.Activo
	}

	if err := s.clientes.Update(ctx, cliente); err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}
	return clienteToResponse(cliente), nil
}

func (s *creditoService) ObtenerCliente(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	cliente, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}
	return clienteToResponse(cliente), nil
}

func (s *creditoService) ListarClientes(ctx context.Context, incluirInactivos bool) ([]dto.ClienteResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	clientes, err := s.clientes.List(ctx, incluirInactivos)
	if err != nil {
		return nil, domainerr.FromDB(err, "clientes no disponibles")
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, *clienteToResponse(&clientes[i]))
	}
	return out, nil
}

// ── Ventas a crédito ──────────────────────────────────────────────────────────

func (s *creditoService) CrearVentaCredito(ctx context.Context, req dto.CrearVentaCreditoRequest) (*dto.VentaCreditoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	ventaID, err := uuid.Parse(req.VentaID)
	if err != nil {
		return nil, domainerr.Validation("venta_id inválido")
	}
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, domainerr.Validation("cliente_id inválido")
	}
	fechaVenc, err := parseFechaVencimiento(req.FechaVencimiento)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(clienteID)
	defer s.locks.Unlock(clienteID)

	var vc *model.VentaCredito
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		vc, err = s.CrearVentaCreditoTx(ctx, tx, clienteID, ventaID, req.MontoTotal, fechaVenc)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return ventaCreditoToResponse(vc), nil
}

// RegistrarPago applies a payment to a credit sale. The payment row, the
// balance decrements (venta and cliente) and the cash movement (when paid
// efectivo) commit in a single transaction. Lock order: caja, then cliente.
func (s *creditoService) RegistrarPago(ctx context.Context, actor model.Actor, req dto.PagoCreditoRequest) (*dto.VentaCreditoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	vcID, err := uuid.Parse(req.VentaCreditoID)
	if err != nil {
		return nil, domainerr.Validation("venta_credito_id inválido")
	}
	if !req.Monto.IsPositive() {
		return nil, domainerr.Validation("el monto del pago debe ser mayor a cero")
	}

	// A cash payment lands in the drawer, so it needs an open caja. Other
	// methods (transferencia, débito) skip the drawer entirely.
	var caja *model.Caja
	if req.MetodoPago == model.MetodoEfectivo {
		var release func()
		caja, release, err = s.caja.AbiertaParaMovimiento(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	vc, err := s.repo.FindVentaCreditoByID(ctx, vcID)
	if err != nil {
		return nil, domainerr.FromDB(err, "venta a crédito no encontrada")
	}

	s.locks.Lock(vc.ClienteID)
	defer s.locks.Unlock(vc.ClienteID)

	cliente, err := s.clientes.FindByID(ctx, vc.ClienteID)
	if err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}

	if vc.Estado == model.CreditoPagada {
		return nil, domainerr.Conflict("la venta a crédito ya está pagada")
	}
	if req.Monto.GreaterThan(vc.SaldoPendiente) {
		return nil, domainerr.Validation(
			"el pago de %s excede el saldo pendiente de %s",
			req.Monto.StringFixed(2), vc.SaldoPendiente.StringFixed(2))
	}

	pago := &model.PagoCredito{
		ClienteID:      vc.ClienteID,
		VentaCreditoID: vc.ID,
		MontoPagado:    req.Monto,
		MetodoPago:     req.MetodoPago,
		ActorID:        actor.ID,
		ActorNombre:    actor.Nombre,
		Notas:          req.Notas,
		PagadoEn:       time.Now(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreatePagoTx(tx, pago); err != nil {
			return domainerr.FromDB(err, "venta a crédito no encontrada")
		}

		vc.SaldoPendiente = vc.SaldoPendiente.Sub(req.Monto)
		if err := statemachine.NewCreditoFSM(vc).AplicarPago(ctx); err != nil {
			return err
		}
		if err := s.repo.UpdateVentaCreditoTx(tx, vc); err != nil {
			return domainerr.FromDB(err, "venta a crédito no encontrada")
		}

		cliente.SaldoActual = cliente.SaldoActual.Sub(req.Monto)
		if err := s.clientes.UpdateTx(tx, cliente); err != nil {
			return domainerr.FromDB(err, "cliente no encontrado")
		}

		if caja != nil {
			mov := &model.MovimientoCaja{
				CajaID:      caja.ID,
				Tipo:        model.MovimientoIngreso,
				Concepto:    "pago de crédito de " + cliente.Nombre,
				Monto:       req.Monto,
				MetodoPago:  req.MetodoPago,
				VentaID:     &vc.VentaID,
				ActorID:     actor.ID,
				ActorNombre: actor.Nombre,
			}
			return s.caja.AplicarMovimientoTx(tx, caja, mov)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("venta_credito_id", vc.ID.String()).
		Str("monto", req.Monto.String()).
		Str("estado", vc.Estado).
		Msg("pago de crédito registrado")

	vc.Pagos = append(vc.Pagos, *pago)
	return ventaCreditoToResponse(vc), nil
}

// RevertirVentaCredito deletes a credit sale and rolls back the client
// balance. Refused once any payment exists.
func (s *creditoService) RevertirVentaCredito(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	vc, err := s.repo.FindVentaCreditoByID(ctx, id)
	if err != nil {
		return domainerr.FromDB(err, "venta a crédito no encontrada")
	}

	s.locks.Lock(vc.ClienteID)
	defer s.locks.Unlock(vc.ClienteID)

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.RevertirPorVentaTx(ctx, tx, vc.VentaID)
	})
}

func (s *creditoService) ObtenerVentaCredito(ctx context.Context, id uuid.UUID) (*dto.VentaCreditoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	vc, err := s.repo.FindVentaCreditoByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "venta a crédito no encontrada")
	}
	return ventaCreditoToResponse(vc), nil
}

func (s *creditoService) ListarPorCliente(ctx context.Context, clienteID uuid.UUID) ([]dto.VentaCreditoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	ventas, err := s.repo.ListPorCliente(ctx, clienteID)
	if err != nil {
		return nil, domainerr.FromDB(err, "créditos no disponibles")
	}
	out := make([]dto.VentaCreditoResponse, 0, len(ventas))
	for i := range ventas {
		out = append(out, *ventaCreditoToResponse(&ventas[i]))
	}
	return out, nil
}

// ── CreditoPoster ─────────────────────────────────────────────────────────────

func (s *creditoService) LockCliente(id uuid.UUID)   { s.locks.Lock(id) }
func (s *creditoService) UnlockCliente(id uuid.UUID) { s.locks.Unlock(id) }

// CrearVentaCreditoTx validates the client (activo, limit) and creates the
// credit sale plus the balance increment inside tx. Caller holds the
// cliente lock.
func (s *creditoService) CrearVentaCreditoTx(ctx context.Context, tx *gorm.DB, clienteID, ventaID uuid.UUID, monto decimal.Decimal, fechaVencimiento *time.Time) (*model.VentaCredito, error) {
	if !monto.IsPositive() {
		return nil, domainerr.Validation("el monto del crédito debe ser mayor a cero")
	}

	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}
	if !cliente.Activo {
		return nil, domainerr.ClientInactive("el cliente %s está inactivo", cliente.Nombre)
	}
	nuevoSaldo := cliente.SaldoActual.Add(monto)
	if nuevoSaldo.GreaterThan(cliente.LimiteCredito) {
		return nil, domainerr.CreditLimit(
			"la venta de %s excede el límite: saldo %s, límite %s",
			monto.StringFixed(2), cliente.SaldoActual.StringFixed(2), cliente.LimiteCredito.StringFixed(2))
	}

	vc := &model.VentaCredito{
		VentaID:          ventaID,
		ClienteID:        clienteID,
		MontoTotal:       monto,
		SaldoPendiente:   monto,
		Estado:           model.CreditoPendiente,
		FechaVenta:       time.Now(),
		FechaVencimiento: fechaVencimiento,
	}
	if err := s.repo.CreateVentaCreditoTx(tx, vc); err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}

	cliente.SaldoActual = nuevoSaldo
	if err := s.clientes.UpdateTx(tx, cliente); err != nil {
		return nil, domainerr.FromDB(err, "cliente no encontrado")
	}
	return vc, nil
}

// RevertirPorVentaTx removes the credit sale tied to ventaID and restores
// the client balance. Caller holds the cliente lock.
func (s *creditoService) RevertirPorVentaTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) error {
	vc, err := s.repo.FindVentaCreditoPorVenta(ctx, ventaID)
	if err != nil {
		return domainerr.FromDB(err, "venta a crédito no encontrada")
	}
	if len(vc.Pagos) > 0 {
		return domainerr.HasPayments("la venta a crédito tiene %d pago(s) registrados", len(vc.Pagos))
	}

	if err := s.repo.DeleteVentaCreditoTx(tx, vc.ID); err != nil {
		return domainerr.FromDB(err, "venta a crédito no encontrada")
	}

	cliente, err := s.clientes.FindByID(ctx, vc.ClienteID)
	if err != nil {
		return domainerr.FromDB(err, "cliente no encontrado")
	}
	cliente.SaldoActual = cliente.SaldoActual.Sub(vc.SaldoPendiente)
	if err := s.clientes.UpdateTx(tx, cliente); err != nil {
		return domainerr.FromDB(err, "cliente no encontrado")
	}

	log.Info().Str("venta_id", ventaID.String()).
		Str("monto", vc.SaldoPendiente.String()).
		Msg("venta a crédito revertida")
	return nil
}

// AjustarPorRecambioTx grows the credit sale tied to ventaID by delta when an
// exchange settles its difference on credit. Refused once payments exist,
// and still subject to the client limit.
func (s *creditoService) AjustarPorRecambioTx(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID, delta decimal.Decimal) error {
	if !delta.IsPositive() {
		return domainerr.Validation("el ajuste de crédito debe ser mayor a cero")
	}

	vc, err := s.repo.FindVentaCreditoPorVenta(ctx, ventaID)
	if err != nil {
		return domainerr.FromDB(err, "la venta original no es una venta a crédito")
	}
	if len(vc.Pagos) > 0 {
		return domainerr.HasPayments("la venta a crédito tiene %d pago(s); liquide el recambio en efectivo", len(vc.Pagos))
	}

	cliente, err := s.clientes.FindByID(ctx, vc.ClienteID)
	if err != nil {
		return domainerr.FromDB(err, "cliente no encontrado")
	}
	if !cliente.Activo {
		return domainerr.ClientInactive("el cliente %s está inactivo", cliente.Nombre)
	}
	nuevoSaldo := cliente.SaldoActual.Add(delta)
	if nuevoSaldo.GreaterThan(cliente.LimiteCredito) {
		return domainerr.CreditLimit(
			"el ajuste de %s excede el límite: saldo %s, límite %s",
			delta.StringFixed(2), cliente.SaldoActual.StringFixed(2), cliente.LimiteCredito.StringFixed(2))
	}

	vc.MontoTotal = vc.MontoTotal.Add(delta)
	vc.SaldoPendiente = vc.SaldoPendiente.Add(delta)
	if err := s.repo.UpdateVentaCreditoTx(tx, vc); err != nil {
		return domainerr.FromDB(err, "venta a crédito no encontrada")
	}

	cliente.SaldoActual = nuevoSaldo
	return s.clientes.UpdateTx(tx, cliente)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func parseFechaVencimiento(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, domainerr.Validation("fecha_vencimiento inválida, se espera AAAA-MM-DD")
	}
	return &t, nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:            c.ID.String(),
		Nombre:        c.Nombre,
		Cedula:        c.Cedula,
		Telefono:      c.Telefono,
		LimiteCredito: c.LimiteCredito,
		SaldoActual:   c.SaldoActual,
		Disponible:    c.LimiteCredito.Sub(c.SaldoActual),
		Activo:        c.Activo,
	}
}

func ventaCreditoToResponse(vc *model.VentaCredito) *dto.VentaCreditoResponse {
	resp := &dto.VentaCreditoResponse{
		ID:             vc.ID.String(),
		VentaID:        vc.VentaID.String(),
		ClienteID:      vc.ClienteID.String(),
		MontoTotal:     vc.MontoTotal,
		SaldoPendiente: vc.SaldoPendiente,
		Estado:         vc.Estado,
		FechaVenta:     vc.FechaVenta.Format(time.RFC3339),
		Pagos:          []dto.PagoCreditoResponse{},
	}
	if vc.FechaVencimiento != nil {
		f := vc.FechaVencimiento.Format("2006-01-02")
		resp.FechaVencimiento = &f
	}
	for i := range vc.Pagos {
		p := &vc.Pagos[i]
		resp.Pagos = append(resp.Pagos, dto.PagoCreditoResponse{
			ID:          p.ID.String(),
			MontoPagado: p.MontoPagado,
			MetodoPago:  p.MetodoPago,
			Actor:       p.ActorNombre,
			Notas:       p.Notas,
			PagadoEn:    p.PagadoEn.Format(time.RFC3339),
		})
	}
	return resp
}
