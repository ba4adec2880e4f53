// Package statemachine wraps the domain lifecycles in explicit looplab/fsm
// machines so invalid transitions fail at the transition, not as silent
// status overwrites.
package statemachine

import (
	"context"

	"github.com/looplab/fsm"

	"cajapos/internal/domainerr"
	"cajapos/internal/model"
)

// CajaFSM guards the till lifecycle: abierta → cerrada, with no way out of
// cerrada — a new caja must be opened instead.
type CajaFSM struct {
	caja *model.Caja
	fsm  *fsm.FSM
}

func NewCajaFSM(caja *model.Caja) *CajaFSM {
	return &CajaFSM{
		caja: caja,
		fsm: fsm.NewFSM(
			caja.Estado,
			fsm.Events{
				{Name: "cerrar", Src: []string{model.CajaAbierta}, Dst: model.CajaCerrada},
			},
			fsm.Callbacks{},
		),
	}
}

// Cerrar transitions the caja to cerrada.
func (c *CajaFSM) Cerrar(ctx context.Context) error {
	if err := c.fsm.Event(ctx, "cerrar"); err != nil {
		return domainerr.Conflict("la caja no puede cerrarse en estado %q", c.caja.Estado)
	}
	c.caja.Estado = c.fsm.Current()
	return nil
}
