package service

import (
	"context"
	"fmt"
	"testing"

	"cajapos/internal/domainerr"
	"cajapos/internal/dto"
	"cajapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recambioFixture struct {
	*ventaFixture
	recambioRepo *fakeRecambioRepo
	svc          RecambioService
}

func newRecambioFixture() *recambioFixture {
	vf := newVentaFixture()
	recambioRepo := newFakeRecambioRepo()
	svc := NewRecambioService(recambioRepo, vf.ventaRepo, vf.productoRepo, vf.cajaSvc, vf.creditoSvc)
	return &recambioFixture{ventaFixture: vf, recambioRepo: recambioRepo, svc: svc}
}

// ventaEfectivo registers a cash sale of cantidad units of producto.
func (f *recambioFixture) ventaEfectivo(t *testing.T, p *model.Producto, cantidad int) *dto.VentaResponse {
	t.Helper()
	resp, err := f.ventaFixture.svc.RegistrarVenta(context.Background(), testActor(), dto.RegistrarVentaRequest{
		Items:      []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: cantidad}},
		MetodoPago: model.MetodoEfectivo,
	})
	require.NoError(t, err)
	return resp
}

func TestCotizarRecambio(t *testing.T) {
	// devuelto 1000, entregado 1200, 10% de descuento sobre lo entregado:
	// descuento 120, a pagar 1200 − 120 − 1000 = 80
	f := newRecambioFixture()
	devuelto := f.seedProducto(t, "Campera M", 1000, 0)
	entregado := f.seedProducto(t, "Campera L", 1200, 3)

	cot, err := f.svc.Cotizar(context.Background(), dto.CotizarRecambioRequest{
		ItemsDevueltos:  []dto.RecambioItemRequest{{ProductoID: devuelto.ID.String(), Cantidad: 1}},
		ItemsEntregados: []dto.RecambioItemRequest{{ProductoID: entregado.ID.String(), Cantidad: 1}},
		DescuentoPct:    decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "1000", cot.TotalDevuelto.String())
	assert.Equal(t, "1200", cot.TotalEntregado.String())
	assert.Equal(t, "120", cot.DescuentoMonto.String())
	assert.Equal(t, "80", cot.MontoAPagar.String())
}

func TestCotizarSinStockDelEntregado(t *testing.T) {
	f := newRecambioFixture()
	devuelto := f.seedProducto(t, "Remera S", 500, 0)
	entregado := f.seedProducto(t, "Remera M", 500, 0)

	_, err := f.svc.Cotizar(context.Background(), dto.CotizarRecambioRequest{
		ItemsDevueltos:  []dto.RecambioItemRequest{{ProductoID: devuelto.ID.String(), Cantidad: 1}},
		ItemsEntregados: []dto.RecambioItemRequest{{ProductoID: entregado.ID.String(), Cantidad: 1}},
		DescuentoPct:    decimal.Zero,
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindStock, domainerr.KindOf(err))
}

func TestConfirmarRecambioEfectivo(t *testing.T) {
	f := newRecambioFixture()
	f.abrirCaja(t, 1000)
	vendido := f.seedProducto(t, "Zapatilla 40", 1000, 5)
	reemplazo := f.seedProducto(t, "Zapatilla 42", 1200, 2)
	venta := f.ventaEfectivo(t, vendido, 1)
	// 5 − 1 vendido = 4 en stock; la caja quedó en 2000
	require.Equal(t, 4, vendido.Stock)

	metodo := model.LiquidacionEfectivo
	resp, err := f.svc.Confirmar(context.Background(), testActor(), dto.ConfirmarRecambioRequest{
		VentaID:           venta.ID,
		ItemsDevueltos:    []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		ItemsEntregados:   []dto.RecambioItemRequest{{ProductoID: reemplazo.ID.String(), Cantidad: 1}},
		DescuentoPct:      decimal.NewFromInt(10),
		MetodoLiquidacion: &metodo,
		Motivo:            "talle equivocado",
	})
	require.NoError(t, err)
	// 1200 − 120 − 1000 = 80
	assert.Equal(t, "80", resp.MontoAPagar.String())

	// Returned unit back in stock, replacement out
	assert.Equal(t, 5, vendido.Stock)
	assert.Equal(t, 1, reemplazo.Stock)

	// The sale is flagged and cannot be exchanged again
	v, err := f.ventaRepo.FindByID(context.Background(), uuid.MustParse(venta.ID))
	require.NoError(t, err)
	assert.True(t, v.Recambiada)

	// One ingreso of 80 in the drawer
	movs := f.cajaRepo.movimientosPorConcepto(fmt.Sprintf("recambio de venta #%d", venta.NumeroTicket))
	require.Len(t, movs, 1)
	assert.Equal(t, "80", movs[0].Monto.String())
	abierta, err := f.cajaSvc.ObtenerAbierta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2080", abierta.MontoActual.String())
}

func TestConfirmarRecambioRechazaReembolso(t *testing.T) {
	// Exchanging down in value would mean paying the customer — refused.
	f := newRecambioFixture()
	f.abrirCaja(t, 1000)
	vendido := f.seedProducto(t, "Pantalón 44", 1500, 5)
	barato := f.seedProducto(t, "Pantalón 38", 900, 5)
	venta := f.ventaEfectivo(t, vendido, 1)

	metodo := model.LiquidacionEfectivo
	_, err := f.svc.Confirmar(context.Background(), testActor(), dto.ConfirmarRecambioRequest{
		VentaID:           venta.ID,
		ItemsDevueltos:    []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		ItemsEntregados:   []dto.RecambioItemRequest{{ProductoID: barato.ID.String(), Cantidad: 1}},
		DescuentoPct:      decimal.Zero,
		MetodoLiquidacion: &metodo,
		Motivo:            "quería otro modelo",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindValidation, domainerr.KindOf(err))
}

func TestConfirmarRecambioDosVeces(t *testing.T) {
	f := newRecambioFixture()
	f.abrirCaja(t, 1000)
	vendido := f.seedProducto(t, "Gorra", 800, 5)
	otro := f.seedProducto(t, "Gorra premium", 800, 5)
	venta := f.ventaEfectivo(t, vendido, 1)

	confirmar := func() error {
		_, err := f.svc.Confirmar(context.Background(), testActor(), dto.ConfirmarRecambioRequest{
			VentaID:         venta.ID,
			ItemsDevueltos:  []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
			ItemsEntregados: []dto.RecambioItemRequest{{ProductoID: otro.ID.String(), Cantidad: 1}},
			DescuentoPct:    decimal.Zero,
			Motivo:          "cambio de color",
		})
		return err
	}

	require.NoError(t, confirmar())
	err := confirmar()
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
}

func TestConfirmarSinMetodoConMontoAPagar(t *testing.T) {
	f := newRecambioFixture()
	f.abrirCaja(t, 1000)
	vendido := f.seedProducto(t, "Short", 500, 5)
	caro := f.seedProducto(t, "Short pro", 700, 5)
	venta := f.ventaEfectivo(t, vendido, 1)

	_, err := f.svc.Confirmar(context.Background(), testActor(), dto.ConfirmarRecambioRequest{
		VentaID:         venta.ID,
		ItemsDevueltos:  []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		ItemsEntregados: []dto.RecambioItemRequest{{ProductoID: caro.ID.String(), Cantidad: 1}},
		DescuentoPct:    decimal.Zero,
		Motivo:          "upgrade",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindValidation, domainerr.KindOf(err))
}

func TestConfirmarLiquidacionCreditoSobreVentaEfectivo(t *testing.T) {
	f := newRecambioFixture()
	f.abrirCaja(t, 1000)
	vendido := f.seedProducto(t, "Mochila", 900, 5)
	caro := f.seedProducto(t, "Mochila XL", 1400, 5)
	venta := f.ventaEfectivo(t, vendido, 1)

	metodo := model.LiquidacionCredito
	_, err := f.svc.Confirmar(context.Background(), testActor(), dto.ConfirmarRecambioRequest{
		VentaID:           venta.ID,
		ItemsDevueltos:    []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		ItemsEntregados:   []dto.RecambioItemRequest{{ProductoID: caro.ID.String(), Cantidad: 1}},
		DescuentoPct:      decimal.Zero,
		MetodoLiquidacion: &metodo,
		Motivo:            "quería la grande",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindValidation, domainerr.KindOf(err))
}

func TestConfirmarLiquidacionCredito(t *testing.T) {
	f := newRecambioFixture()
	actor := testActor()
	vendido := f.seedProducto(t, "Campera básica", 1000, 5)
	cara := f.seedProducto(t, "Campera premium", 1600, 5)

	cliente := &model.Cliente{
		Nombre: "Carlos Ruiz", Cedula: "999000",
		LimiteCredito: decimal.NewFromInt(5000), Activo: true,
	}
	require.NoError(t, f.clienteRepo.Create(context.Background(), cliente))
	clienteID := cliente.ID.String()

	venta, err := f.ventaFixture.svc.RegistrarVenta(context.Background(), actor, dto.RegistrarVentaRequest{
		Items:      []dto.ItemVentaRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		MetodoPago: model.MetodoCredito,
		ClienteID:  &clienteID,
	})
	require.NoError(t, err)
	require.Equal(t, "1000", cliente.SaldoActual.String())

	metodo := model.LiquidacionCredito
	resp, err := f.svc.Confirmar(context.Background(), actor, dto.ConfirmarRecambioRequest{
		VentaID:           venta.ID,
		ItemsDevueltos:    []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		ItemsEntregados:   []dto.RecambioItemRequest{{ProductoID: cara.ID.String(), Cantidad: 1}},
		DescuentoPct:      decimal.Zero,
		MetodoLiquidacion: &metodo,
		Motivo:            "upgrade de modelo",
	})
	require.NoError(t, err)
	assert.Equal(t, "600", resp.MontoAPagar.String())

	// The existing credit sale grew by the differential
	vc, err := f.creditoRepo.FindVentaCreditoPorVenta(context.Background(), uuid.MustParse(venta.ID))
	require.NoError(t, err)
	assert.Equal(t, "1600", vc.MontoTotal.String())
	assert.Equal(t, "1600", vc.SaldoPendiente.String())
	assert.Equal(t, "1600", cliente.SaldoActual.String())
}

func TestConfirmarLiquidacionCreditoConPagos(t *testing.T) {
	f := newRecambioFixture()
	actor := testActor()
	vendido := f.seedProducto(t, "Buzo", 1000, 5)
	caro := f.seedProducto(t, "Buzo premium", 1500, 5)

	cliente := &model.Cliente{
		Nombre: "Ana Torres", Cedula: "444555",
		LimiteCredito: decimal.NewFromInt(5000), Activo: true,
	}
	require.NoError(t, f.clienteRepo.Create(context.Background(), cliente))
	clienteID := cliente.ID.String()

	venta, err := f.ventaFixture.svc.RegistrarVenta(context.Background(), actor, dto.RegistrarVentaRequest{
		Items:      []dto.ItemVentaRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		MetodoPago: model.MetodoCredito,
		ClienteID:  &clienteID,
	})
	require.NoError(t, err)

	vc, err := f.creditoRepo.FindVentaCreditoPorVenta(context.Background(), uuid.MustParse(venta.ID))
	require.NoError(t, err)
	_, err = f.creditoSvc.RegistrarPago(context.Background(), actor, dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(200),
		MetodoPago:     "transferencia",
	})
	require.NoError(t, err)

	metodo := model.LiquidacionCredito
	_, err = f.svc.Confirmar(context.Background(), actor, dto.ConfirmarRecambioRequest{
		VentaID:           venta.ID,
		ItemsDevueltos:    []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		ItemsEntregados:   []dto.RecambioItemRequest{{ProductoID: caro.ID.String(), Cantidad: 1}},
		DescuentoPct:      decimal.Zero,
		MetodoLiquidacion: &metodo,
		Motivo:            "cambio tardío",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindHasPayments, domainerr.KindOf(err))
}

func TestConfirmarSobreVentaAnulada(t *testing.T) {
	f := newRecambioFixture()
	actor := testActor()
	f.abrirCaja(t, 2000)
	vendido := f.seedProducto(t, "Cinturón", 400, 5)
	otro := f.seedProducto(t, "Cinturón cuero", 400, 5)
	venta := f.ventaEfectivo(t, vendido, 1)

	_, err := f.ventaFixture.svc.AnularVenta(context.Background(), actor, uuid.MustParse(venta.ID))
	require.NoError(t, err)

	_, err = f.svc.Confirmar(context.Background(), actor, dto.ConfirmarRecambioRequest{
		VentaID:         venta.ID,
		ItemsDevueltos:  []dto.RecambioItemRequest{{ProductoID: vendido.ID.String(), Cantidad: 1}},
		ItemsEntregados: []dto.RecambioItemRequest{{ProductoID: otro.ID.String(), Cantidad: 1}},
		DescuentoPct:    decimal.Zero,
		Motivo:          "ya no corresponde",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
}
