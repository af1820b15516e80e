package engine

import (
	"context"

	"github.com/hammamikhairi/buildpace/internal/domain"
)

// ReloadBuildOrders installs a freshly loaded list. The cursor follows the
// active order and branch by id, never by position. When the active order
// is gone the session is finalised and the first enabled order is
// selected, or the engine goes idle if there is none.
func (e *Engine) ReloadBuildOrders(ctx context.Context, orders []domain.BuildOrder) error {
	e.list = domain.CloneOrders(orders)
	e.log.Debug("reloaded %d build orders", len(e.list))

	if e.active == nil {
		if first, ok := e.firstEnabled(); ok {
			return e.SelectBuildOrder(ctx, first.ID)
		}
		return nil
	}

	order, ok := e.find(e.active.ID)
	if !ok {
		e.log.Info("active build order %s was removed", e.active.ID)
		err := e.endSession(ctx)
		if first, ok := e.firstEnabled(); ok {
			if selErr := e.SelectBuildOrder(ctx, first.ID); selErr != nil {
				return selErr
			}
			return err
		}
		e.resetDerived()
		e.active = nil
		e.state = domain.StateIdle
		e.cursor = domain.Cursor{}
		return err
	}

	e.active = order.Clone()
	e.cursor.OrderID = order.ID

	if e.cursor.BranchID != "" {
		if _, ok := e.active.Branch(e.cursor.BranchID); !ok {
			e.log.Info("active branch %s was removed, back to main", e.cursor.BranchID)
			e.cursor.BranchID = ""
		}
	}

	n := len(e.sequence())
	switch e.state {
	case domain.StateCompleted:
		e.cursor.StepIndex = n
	case domain.StateActive:
		if e.cursor.StepIndex >= n {
			e.cursor.StepIndex = n - 1
		}
	}
	return nil
}

// ReloadConfig applies a configuration written elsewhere.
func (e *Engine) ReloadConfig(cfg domain.AppConfig) {
	e.ApplyConfig(cfg)
}
