package service

import (
	"context"
	"fmt"
	"time"

	"cajapos/internal/domainerr"
	"cajapos/internal/dto"
	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var cien = decimal.NewFromInt(100)

type RecambioService interface {
	Cotizar(ctx context.Context, req dto.CotizarRecambioRequest) (*dto.CotizacionResponse, error)
	Confirmar(ctx context.Context, actor model.Actor, req dto.ConfirmarRecambioRequest) (*dto.RecambioResponse, error)
	ObtenerRecambio(ctx context.Context, id uuid.UUID) (*dto.RecambioResponse, error)
	Listar(ctx context.Context, page, limit int) ([]dto.RecambioResponse, int64, error)
}

type recambioService struct {
	repo      repository.RecambioRepository
	ventas    repository.VentaRepository
	productos repository.ProductoRepository
	caja      MovimientoSink
	creditos  CreditoPoster
}

func NewRecambioService(
	repo repository.RecambioRepository,
	ventas repository.VentaRepository,
	productos repository.ProductoRepository,
	caja MovimientoSink,
	creditos CreditoPoster,
) RecambioService {
	return &recambioService{repo: repo, ventas: ventas, productos: productos, caja: caja, creditos: creditos}
}

// ── Cotizar ───────────────────────────────────────────────────────────────────
// A quote is pure arithmetic over current catalog prices, no side effects:
// descuento = total entregado × pct / 100
// monto a pagar = (total entregado − descuento) − total devuelto

func (s *recambioService) Cotizar(ctx context.Context, req dto.CotizarRecambioRequest) (*dto.CotizacionResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	cot, _, err := s.cotizar(ctx, req.ItemsDevueltos, req.ItemsEntregados, req.DescuentoPct)
	if err != nil {
		return nil, err
	}
	return cot, nil
}

// ── Confirmar ─────────────────────────────────────────────────────────────────
// Stock swap, the recambio record, the one-time flag on the sale and the
// settlement of the differential commit in a single transaction. A negative
// differential is rejected: exchanges never pay money out.

func (s *recambioService) Confirmar(ctx context.Context, actor model.Actor, req dto.ConfirmarRecambioRequest) (*dto.RecambioResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	ventaID, err := uuid.Parse(req.VentaID)
	if err != nil {
		return nil, domainerr.Validation("venta_id inválido")
	}
	venta, err := s.ventas.FindByID(ctx, ventaID)
	if err != nil {
		return nil, domainerr.FromDB(err, "venta no encontrada")
	}
	if venta.Estado == model.VentaAnulada {
		return nil, domainerr.Conflict("no se puede recambiar una venta anulada")
	}
	if venta.Recambiada {
		return nil, domainerr.Conflict("la venta #%d ya tiene un recambio", venta.NumeroTicket)
	}

	cot, items, err := s.cotizar(ctx, req.ItemsDevueltos, req.ItemsEntregados, req.DescuentoPct)
	if err != nil {
		return nil, err
	}
	if cot.MontoAPagar.IsNegative() {
		return nil, domainerr.Validation(
			"el recambio resultaría en una devolución de %s; no se entregan reembolsos",
			cot.MontoAPagar.Abs().StringFixed(2))
	}

	var metodo *string
	if cot.MontoAPagar.IsPositive() {
		if req.MetodoLiquidacion == nil {
			return nil, domainerr.Validation("se requiere metodo_liquidacion cuando hay un monto a pagar")
		}
		metodo = req.MetodoLiquidacion
		if *metodo == model.LiquidacionCredito && venta.MetodoPago != model.MetodoCredito {
			return nil, domainerr.Validation("solo una venta a crédito admite liquidación a crédito")
		}
	}

	// Lock order: caja before cliente. Only one of the two is taken here
	// because settlement goes through exactly one channel.
	var caja *model.Caja
	if metodo != nil && *metodo == model.LiquidacionEfectivo {
		var release func()
		caja, release, err = s.caja.AbiertaParaMovimiento(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	if metodo != nil && *metodo == model.LiquidacionCredito && venta.ClienteID != nil {
		s.creditos.LockCliente(*venta.ClienteID)
		defer s.creditos.UnlockCliente(*venta.ClienteID)
	}

	recambio := &model.Recambio{
		VentaID:           venta.ID,
		TotalDevuelto:     cot.TotalDevuelto,
		TotalEntregado:    cot.TotalEntregado,
		DescuentoPct:      req.DescuentoPct,
		DescuentoMonto:    cot.DescuentoMonto,
		MontoAPagar:       cot.MontoAPagar,
		MetodoLiquidacion: metodo,
		RealizadoPorID:    actor.ID,
		RealizadoPor:      actor.Nombre,
		Motivo:            req.Motivo,
		Notas:             req.Notas,
		Items:             items,
	}

	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		for i := range items {
			delta := items[i].Cantidad
			if items[i].Tipo == model.ItemEntregado {
				delta = -delta
			}
			if err := s.productos.AjustarStockTx(tx, items[i].ProductoID, delta); err != nil {
				return ajustarStockErr(err)
			}
		}

		if err := s.repo.CreateTx(tx, recambio); err != nil {
			return domainerr.FromDB(err, "venta no encontrada")
		}
		if err := s.ventas.MarcarRecambiadaTx(tx, venta.ID); err != nil {
			return domainerr.FromDB(err, "venta no encontrada")
		}

		if metodo == nil {
			return nil
		}
		switch *metodo {
		case model.LiquidacionEfectivo:
			mov := &model.MovimientoCaja{
				CajaID:      caja.ID,
				Tipo:        model.MovimientoIngreso,
				Concepto:    fmt.Sprintf("recambio de venta #%d", venta.NumeroTicket),
				Monto:       cot.MontoAPagar,
				MetodoPago:  model.MetodoEfectivo,
				VentaID:     &venta.ID,
				ActorID:     actor.ID,
				ActorNombre: actor.Nombre,
			}
			return s.caja.AplicarMovimientoTx(tx, caja, mov)
		case model.LiquidacionCredito:
			return s.creditos.AjustarPorRecambioTx(ctx, tx, venta.ID, cot.MontoAPagar)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("recambio_id", recambio.ID.String()).
		Int("ticket", venta.NumeroTicket).
		Str("monto_a_pagar", cot.MontoAPagar.String()).
		Msg("recambio confirmado")

	return recambioToResponse(recambio), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *recambioService) ObtenerRecambio(ctx context.Context, id uuid.UUID) (*dto.RecambioResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "recambio no encontrado")
	}
	return recambioToResponse(rec), nil
}

func (s *recambioService) Listar(ctx context.Context, page, limit int) ([]dto.RecambioResponse, int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	recambios, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, domainerr.FromDB(err, "recambios no disponibles")
	}
	out := make([]dto.RecambioResponse, 0, len(recambios))
	for i := range recambios {
		out = append(out, *recambioToResponse(&recambios[i]))
	}
	return out, total, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// cotizar prices both sides of the exchange and builds the item rows.
// Replacement items must have stock; returned items only need to exist.
func (s *recambioService) cotizar(ctx context.Context, devueltos, entregados []dto.RecambioItemRequest, pct decimal.Decimal) (*dto.CotizacionResponse, []model.RecambioItem, error) {
	if pct.IsNegative() || pct.GreaterThan(cien) {
		return nil, nil, domainerr.Validation("descuento_pct debe estar entre 0 y 100")
	}

	var items []model.RecambioItem
	totalDevuelto := decimal.Zero
	totalEntregado := decimal.Zero

	for _, it := range devueltos {
		item, err := s.precio(ctx, it, model.ItemDevuelto)
		if err != nil {
			return nil, nil, err
		}
		totalDevuelto = totalDevuelto.Add(item.Subtotal)
		items = append(items, *item)
	}
	for _, it := range entregados {
		item, err := s.precio(ctx, it, model.ItemEntregado)
		if err != nil {
			return nil, nil, err
		}
		totalEntregado = totalEntregado.Add(item.Subtotal)
		items = append(items, *item)
	}

	descuento := totalEntregado.Mul(pct).Div(cien).Round(2)
	montoAPagar := totalEntregado.Sub(descuento).Sub(totalDevuelto)

	return &dto.CotizacionResponse{
		TotalDevuelto:  totalDevuelto,
		TotalEntregado: totalEntregado,
		DescuentoMonto: descuento,
		MontoAPagar:    montoAPagar,
	}, items, nil
}

func (s *recambioService) precio(ctx context.Context, it dto.RecambioItemRequest, tipo string) (*model.RecambioItem, error) {
	pid, err := uuid.Parse(it.ProductoID)
	if err != nil {
		return nil, domainerr.Validation("producto_id inválido")
	}
	producto, err := s.productos.FindByID(ctx, pid)
	if err != nil {
		return nil, domainerr.FromDB(err, "producto no encontrado")
	}
	if tipo == model.ItemEntregado && producto.Stock < it.Cantidad {
		return nil, domainerr.Stock(
			"stock insuficiente de %s: hay %d, se piden %d",
			producto.Nombre, producto.Stock, it.Cantidad)
	}
	subtotal := producto.PrecioVenta.Mul(decimal.NewFromInt(int64(it.Cantidad)))
	return &model.RecambioItem{
		ProductoID:     pid,
		Tipo:           tipo,
		Cantidad:       it.Cantidad,
		PrecioUnitario: producto.PrecioVenta,
		Subtotal:       subtotal,
	}, nil
}

func recambioToResponse(r *model.Recambio) *dto.RecambioResponse {
	resp := &dto.RecambioResponse{
		ID:                r.ID.String(),
		VentaID:           r.VentaID.String(),
		TotalDevuelto:     r.TotalDevuelto,
		TotalEntregado:    r.TotalEntregado,
		DescuentoPct:      r.DescuentoPct,
		DescuentoMonto:    r.DescuentoMonto,
		MontoAPagar:       r.MontoAPagar,
		MetodoLiquidacion: r.MetodoLiquidacion,
		RealizadoPor:      r.RealizadoPor,
		Motivo:            r.Motivo,
		Notas:             r.Notas,
		Items:             []dto.RecambioItemResponse{},
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
	for i := range r.Items {
		it := &r.Items[i]
		resp.Items = append(resp.Items, dto.RecambioItemResponse{
			ProductoID:     it.ProductoID.String(),
			Tipo:           it.Tipo,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	return resp
}
