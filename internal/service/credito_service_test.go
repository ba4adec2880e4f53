package service

import (
	"context"
	"testing"

	"cajapos/internal/domainerr"
	"cajapos/internal/dto"
	"cajapos/internal/lock"
	"cajapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type creditoFixture struct {
	cajaRepo    *fakeCajaRepo
	clienteRepo *fakeClienteRepo
	creditoRepo *fakeCreditoRepo
	cajaSvc     CajaService
	svc         CreditoService
}

func newCreditoFixture() *creditoFixture {
	cajaRepo := newFakeCajaRepo()
	cajaSvc := NewCajaService(cajaRepo, newFakeConfigRepo(), lock.NewKeyedMutex(), nil)
	clienteRepo := newFakeClienteRepo()
	creditoRepo := newFakeCreditoRepo()
	svc := NewCreditoService(creditoRepo, clienteRepo, cajaSvc, lock.NewKeyedMutex())
	return &creditoFixture{
		cajaRepo:    cajaRepo,
		clienteRepo: clienteRepo,
		creditoRepo: creditoRepo,
		cajaSvc:     cajaSvc,
		svc:         svc,
	}
}

func (f *creditoFixture) seedCliente(t *testing.T, limite, saldo int64) *model.Cliente {
	t.Helper()
	cliente := &model.Cliente{
		Nombre:        "María López",
		Cedula:        uuid.NewString(),
		LimiteCredito: decimal.NewFromInt(limite),
		SaldoActual:   decimal.NewFromInt(saldo),
		Activo:        true,
	}
	require.NoError(t, f.clienteRepo.Create(context.Background(), cliente))
	return cliente
}

func (f *creditoFixture) seedVentaCredito(t *testing.T, cliente *model.Cliente, monto int64) *model.VentaCredito {
	t.Helper()
	resp, err := f.svc.CrearVentaCredito(context.Background(), dto.CrearVentaCreditoRequest{
		VentaID:    uuid.NewString(),
		ClienteID:  cliente.ID.String(),
		MontoTotal: decimal.NewFromInt(monto),
	})
	require.NoError(t, err)
	vc, err := f.creditoRepo.FindVentaCreditoByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	return vc
}

// ── Clientes ──────────────────────────────────────────────────────────────────

func TestCrearClienteCedulaDuplicada(t *testing.T) {
	f := newCreditoFixture()

	_, err := f.svc.CrearCliente(context.Background(), dto.CrearClienteRequest{
		Nombre: "Juan Pérez", Cedula: "12345678", LimiteCredito: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	_, err = f.svc.CrearCliente(context.Background(), dto.CrearClienteRequest{
		Nombre: "Otro Juan", Cedula: "12345678", LimiteCredito: decimal.NewFromInt(500),
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
}

func TestDesactivarClienteConSaldo(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 1200)

	inactivo := false
	_, err := f.svc.ActualizarCliente(context.Background(), cliente.ID, dto.ActualizarClienteRequest{
		Activo: &inactivo,
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
}

func TestBajarLimitePorDebajoDelSaldo(t *testing.T) {
	// Lowering the limit under the current balance is allowed: it only blocks
	// new credit.
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 3000)

	nuevoLimite := decimal.NewFromInt(1000)
	resp, err := f.svc.ActualizarCliente(context.Background(), cliente.ID, dto.ActualizarClienteRequest{
		LimiteCredito: &nuevoLimite,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000", resp.LimiteCredito.String())
	assert.Equal(t, "3000", resp.SaldoActual.String())
	assert.Equal(t, "-2000", resp.Disponible.String())
}

// ── Ventas a crédito ──────────────────────────────────────────────────────────

func TestVentaCreditoExcedeLimite(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 4800)

	_, err := f.svc.CrearVentaCredito(context.Background(), dto.CrearVentaCreditoRequest{
		VentaID:    uuid.NewString(),
		ClienteID:  cliente.ID.String(),
		MontoTotal: decimal.NewFromInt(300),
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindCreditLimit, domainerr.KindOf(err))

	// A sale that lands exactly on the limit is accepted
	resp, err := f.svc.CrearVentaCredito(context.Background(), dto.CrearVentaCreditoRequest{
		VentaID:    uuid.NewString(),
		ClienteID:  cliente.ID.String(),
		MontoTotal: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.Equal(t, model.CreditoPendiente, resp.Estado)
	assert.Equal(t, "5000", cliente.SaldoActual.String())
}

func TestVentaCreditoClienteInactivo(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 0)
	cliente.Activo = false

	_, err := f.svc.CrearVentaCredito(context.Background(), dto.CrearVentaCreditoRequest{
		VentaID:    uuid.NewString(),
		ClienteID:  cliente.ID.String(),
		MontoTotal: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindClientInactive, domainerr.KindOf(err))
}

// ── Pagos ─────────────────────────────────────────────────────────────────────

func TestPagoAvanzaEstado(t *testing.T) {
	// pendiente → parcial → pagada, with client balance tracking every payment
	f := newCreditoFixture()
	actor := testActor()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 1000)

	resp, err := f.svc.RegistrarPago(context.Background(), actor, dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(400),
		MetodoPago:     "transferencia",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CreditoParcial, resp.Estado)
	assert.Equal(t, "600", resp.SaldoPendiente.String())
	assert.Equal(t, "600", cliente.SaldoActual.String())

	resp, err = f.svc.RegistrarPago(context.Background(), actor, dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(600),
		MetodoPago:     "transferencia",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CreditoPagada, resp.Estado)
	assert.True(t, resp.SaldoPendiente.IsZero())
	assert.True(t, cliente.SaldoActual.IsZero())
}

func TestPagoUnicoSaldaDirecto(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 750)

	resp, err := f.svc.RegistrarPago(context.Background(), testActor(), dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(750),
		MetodoPago:     "debito",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CreditoPagada, resp.Estado)
}

func TestPagoExcedeSaldo(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 500)

	_, err := f.svc.RegistrarPago(context.Background(), testActor(), dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(501),
		MetodoPago:     "efectivo",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindValidation, domainerr.KindOf(err))
}

func TestPagoEfectivoSinCajaAbierta(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 500)

	_, err := f.svc.RegistrarPago(context.Background(), testActor(), dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(100),
		MetodoPago:     "efectivo",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
}

func TestPagoEfectivoEntraALaCaja(t *testing.T) {
	f := newCreditoFixture()
	actor := testActor()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 500)

	_, err := f.cajaSvc.Abrir(context.Background(), actor, dto.AbrirCajaRequest{
		MontoApertura: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	_, err = f.svc.RegistrarPago(context.Background(), actor, dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(300),
		MetodoPago:     "efectivo",
	})
	require.NoError(t, err)

	abierta, err := f.cajaSvc.ObtenerAbierta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1300", abierta.MontoActual.String())

	movs := f.cajaRepo.movimientosPorConcepto("pago de crédito de " + cliente.Nombre)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoIngreso, movs[0].Tipo)
	assert.Equal(t, "300", movs[0].Monto.String())
}

func TestPagoSobreVentaPagada(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 200)

	_, err := f.svc.RegistrarPago(context.Background(), testActor(), dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(200),
		MetodoPago:     "debito",
	})
	require.NoError(t, err)

	_, err = f.svc.RegistrarPago(context.Background(), testActor(), dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(50),
		MetodoPago:     "debito",
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
}

// ── Reversión ─────────────────────────────────────────────────────────────────

func TestRevertirVentaCredito(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 800)
	require.Equal(t, "800", cliente.SaldoActual.String())

	err := f.svc.RevertirVentaCredito(context.Background(), vc.ID)
	require.NoError(t, err)
	assert.True(t, cliente.SaldoActual.IsZero())

	_, err = f.svc.ObtenerVentaCredito(context.Background(), vc.ID)
	require.Error(t, err)
	assert.Equal(t, domainerr.KindNotFound, domainerr.KindOf(err))
}

func TestRevertirVentaCreditoConPagos(t *testing.T) {
	f := newCreditoFixture()
	cliente := f.seedCliente(t, 5000, 0)
	vc := f.seedVentaCredito(t, cliente, 800)

	_, err := f.svc.RegistrarPago(context.Background(), testActor(), dto.PagoCreditoRequest{
		VentaCreditoID: vc.ID.String(),
		Monto:          decimal.NewFromInt(100),
		MetodoPago:     "transferencia",
	})
	require.NoError(t, err)

	err = f.svc.RevertirVentaCredito(context.Background(), vc.ID)
	require.Error(t, err)
	assert.Equal(t, domainerr.KindHasPayments, domainerr.KindOf(err))
}
