package service

import (
	"context"
	"errors"
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

type VentaService interface {
	RegistrarVenta(ctx context.Context, actor model.Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, page, limit int) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo      repository.VentaRepository
	productos repository.ProductoRepository
	caja      MovimientoSink
	creditos  CreditoPoster
}

func NewVentaService(
	repo repository.VentaRepository,
	productos repository.ProductoRepository,
	caja MovimientoSink,
	creditos CreditoPoster,
) VentaService {
	return &ventaService{repo: repo, productos: productos, caja: caja, creditos: creditos}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Ticket number, sale rows, stock decrements and the payment effect (cash
// movement or credit sale) commit in one transaction. Lock order when both
// are involved: caja first, then cliente.

func (s *ventaService) RegistrarVenta(ctx context.Context, actor model.Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var clienteID *uuid.UUID
	if req.MetodoPago == model.MetodoCredito {
		if req.ClienteID == nil {
			return nil, domainerr.Validation("una venta a crédito requiere cliente_id")
		}
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, domainerr.Validation("cliente_id inválido")
		}
		clienteID = &cid
	}
	fechaVenc, err := parseFechaVencimiento(req.FechaVencimiento)
	if err != nil {
		return nil, err
	}

	items, total, err := s.resolverItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	var caja *model.Caja
	if req.MetodoPago == model.MetodoEfectivo {
		var release func()
		caja, release, err = s.caja.AbiertaParaMovimiento(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	if clienteID != nil {
		s.creditos.LockCliente(*clienteID)
		defer s.creditos.UnlockCliente(*clienteID)
	}

	venta := &model.Venta{
		Total:       total,
		MetodoPago:  req.MetodoPago,
		ClienteID:   clienteID,
		Estado:      model.VentaCompletada,
		ActorID:     actor.ID,
		ActorNombre: actor.Nombre,
		Items:       items,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		num, err := s.repo.NextTicketNumber(ctx, tx)
		if err != nil {
			return domainerr.FromDB(err, "venta no encontrada")
		}
		venta.NumeroTicket = num

		if err := s.repo.CreateTx(tx, venta); err != nil {
			return domainerr.FromDB(err, "venta no encontrada")
		}
		for i := range venta.Items {
			if err := s.productos.AjustarStockTx(tx, venta.Items[i].ProductoID, -venta.Items[i].Cantidad); err != nil {
				return ajustarStockErr(err)
			}
		}

		switch req.MetodoPago {
		case model.MetodoEfectivo:
			mov := &model.MovimientoCaja{
				CajaID:      caja.ID,
				Tipo:        model.MovimientoIngreso,
				Concepto:    fmt.Sprintf("venta #%d", venta.NumeroTicket),
				Monto:       total,
				MetodoPago:  model.MetodoEfectivo,
				VentaID:     &venta.ID,
				ActorID:     actor.ID,
				ActorNombre: actor.Nombre,
			}
			return s.caja.AplicarMovimientoTx(tx, caja, mov)
		case model.MetodoCredito:
			_, err := s.creditos.CrearVentaCreditoTx(ctx, tx, *clienteID, venta.ID, total, fechaVenc)
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Int("ticket", venta.NumeroTicket).
		Str("total", total.String()).
		Str("metodo_pago", venta.MetodoPago).
		Msg("venta registrada")

	return ventaToResponse(venta), nil
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Stock returns, the state flip and the monetary unwind (inverse movement or
// credit reversal) commit together. A sale already exchanged cannot be
// annulled: the exchange already reshaped its items.

func (s *ventaService) AnularVenta(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.VentaResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "venta no encontrada")
	}
	if venta.Estado == model.VentaAnulada {
		return nil, domainerr.Conflict("la venta ya está anulada")
	}
	if venta.Recambiada {
		return nil, domainerr.Conflict("la venta tiene un recambio asociado y no puede anularse")
	}

	var caja *model.Caja
	if venta.MetodoPago == model.MetodoEfectivo {
		var release func()
		caja, release, err = s.caja.AbiertaParaMovimiento(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	if venta.MetodoPago == model.MetodoCredito && venta.ClienteID != nil {
		s.creditos.LockCliente(*venta.ClienteID)
		defer s.creditos.UnlockCliente(*venta.ClienteID)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for i := range venta.Items {
			if err := s.productos.AjustarStockTx(tx, venta.Items[i].ProductoID, venta.Items[i].Cantidad); err != nil {
				return ajustarStockErr(err)
			}
		}
		if err := s.repo.UpdateEstadoTx(tx, venta.ID, model.VentaAnulada); err != nil {
			return domainerr.FromDB(err, "venta no encontrada")
		}

		switch venta.MetodoPago {
		case model.MetodoEfectivo:
			mov := &model.MovimientoCaja{
				CajaID:      caja.ID,
				Tipo:        model.MovimientoEgreso,
				Concepto:    fmt.Sprintf("anulación de venta #%d", venta.NumeroTicket),
				Monto:       venta.Total,
				MetodoPago:  model.MetodoEfectivo,
				VentaID:     &venta.ID,
				ActorID:     actor.ID,
				ActorNombre: actor.Nombre,
			}
			return s.caja.AplicarMovimientoTx(tx, caja, mov)
		case model.MetodoCredito:
			return s.creditos.RevertirPorVentaTx(ctx, tx, venta.ID)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	venta.Estado = model.VentaAnulada
	log.Info().Int("ticket", venta.NumeroTicket).Str("actor", actor.Nombre).Msg("venta anulada")
	return ventaToResponse(venta), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "venta no encontrada")
	}
	return ventaToResponse(venta), nil
}

func (s *ventaService) Listar(ctx context.Context, page, limit int) (*dto.VentaListResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	ventas, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, domainerr.FromDB(err, "ventas no disponibles")
	}
	resp := &dto.VentaListResponse{Total: total, Page: page, Limit: limit, Data: []dto.VentaResponse{}}
	for i := range ventas {
		resp.Data = append(resp.Data, *ventaToResponse(&ventas[i]))
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// ajustarStockErr maps a rejected stock decrement to the domain taxonomy.
// The catalog check in resolverItems runs outside the transaction, so the
// guarded UPDATE is what actually holds the floor under concurrent sales.
func ajustarStockErr(err error) error {
	if errors.Is(err, repository.ErrStockInsuficiente) {
		return domainerr.Stock("stock insuficiente para completar la operación")
	}
	return domainerr.FromDB(err, "producto no encontrado")
}

// resolverItems loads each product, checks it is sellable and has stock, and
// builds the sale lines with the catalog price at this moment.
func (s *ventaService) resolverItems(ctx context.Context, reqs []dto.ItemVentaRequest) ([]model.VentaItem, decimal.Decimal, error) {
	items := make([]model.VentaItem, 0, len(reqs))
	total := decimal.Zero
	for _, it := range reqs {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, decimal.Zero, domainerr.Validation("producto_id inválido")
		}
		producto, err := s.productos.FindByID(ctx, pid)
		if err != nil {
			return nil, decimal.Zero, domainerr.FromDB(err, "producto no encontrado")
		}
		if !producto.Activo {
			return nil, decimal.Zero, domainerr.Validation("el producto %s no está activo", producto.Nombre)
		}
		if producto.Stock < it.Cantidad {
			return nil, decimal.Zero, domainerr.Stock(
				"stock insuficiente de %s: hay %d, se piden %d",
				producto.Nombre, producto.Stock, it.Cantidad)
		}
		subtotal := producto.PrecioVenta.Mul(decimal.NewFromInt(int64(it.Cantidad)))
		items = append(items, model.VentaItem{
			ProductoID:     pid,
			Cantidad:       it.Cantidad,
			PrecioUnitario: producto.PrecioVenta,
			Subtotal:       subtotal,
			Producto:       producto,
		})
		total = total.Add(subtotal)
	}
	return items, total, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:           v.ID.String(),
		NumeroTicket: v.NumeroTicket,
		Total:        v.Total,
		MetodoPago:   v.MetodoPago,
		Estado:       v.Estado,
		Recambiada:   v.Recambiada,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
		Items:        []dto.ItemVentaResponse{},
	}
	if v.ClienteID != nil {
		c := v.ClienteID.String()
		resp.ClienteID = &c
	}
	for i := range v.Items {
		it := &v.Items[i]
		nombre := it.ProductoID.String()
		if it.Producto != nil {
			nombre = it.Producto.Nombre
		}
		resp.Items = append(resp.Items, dto.ItemVentaResponse{
			Producto:       nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	return resp
}
