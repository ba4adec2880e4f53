package statemachine

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"github.com/shopspring/decimal"

	"cajapos/internal/domainerr"
	"cajapos/internal/model"
)

// CreditoFSM guards the credit-sale status: pendiente → parcial → pagada,
// plus the direct pendiente → pagada jump when a single payment settles the
// full balance. Status never moves backwards.
type CreditoFSM struct {
	venta *model.VentaCredito
	fsm   *fsm.FSM
}

func NewCreditoFSM(venta *model.VentaCredito) *CreditoFSM {
	return &CreditoFSM{
		venta: venta,
		fsm: fsm.NewFSM(
			venta.Estado,
			fsm.Events{
				{Name: "abonar", Src: []string{model.CreditoPendiente, model.CreditoParcial}, Dst: model.CreditoParcial},
				{Name: "saldar", Src: []string{model.CreditoPendiente, model.CreditoParcial}, Dst: model.CreditoPagada},
			},
			fsm.Callbacks{},
		),
	}
}

// AplicarPago advances the status after SaldoPendiente has been decremented.
func (c *CreditoFSM) AplicarPago(ctx context.Context) error {
	event := "abonar"
	if c.venta.SaldoPendiente.Equal(decimal.Zero) {
		event = "saldar"
	}
	if err := c.fsm.Event(ctx, event); err != nil {
		// A second partial payment keeps the status in parcial; fsm reports
		// that as NoTransitionError, which is fine here.
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return domainerr.Conflict("la venta a crédito no admite pagos en estado %q", c.venta.Estado)
		}
	}
	c.venta.Estado = c.fsm.Current()
	return nil
}
