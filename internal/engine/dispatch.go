package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hammamikhairi/buildpace/internal/domain"
)

// Dispatch applies one external action. Every action maps to exactly one
// transition. Failures are put on the status line and returned; none of
// them is fatal.
func (e *Engine) Dispatch(ctx context.Context, a domain.Action) error {
	var err error

	switch a.Type {
	case domain.ActionAdvance:
		err = e.Advance(ctx)
	case domain.ActionRetreat:
		err = e.Retreat(ctx)
	case domain.ActionTogglePause:
		e.TogglePause()
	case domain.ActionReset:
		err = e.Reset(ctx)
	case domain.ActionCycleBuildOrder:
		err = e.CycleBuildOrder(ctx)
	case domain.ActionToggleClickThrough:
		err = e.ToggleClickThrough(ctx)
	case domain.ActionToggleCompact:
		err = e.ToggleCompact(ctx)
	case domain.ActionActivateBranch:
		slot, convErr := strconv.Atoi(a.Payload)
		if convErr != nil {
			err = fmt.Errorf("branch slot %q: %w", a.Payload, domain.ErrParse)
			break
		}
		err = e.SelectBranchSlot(slot)
	case domain.ActionDismissBadge:
		e.DismissBadge(a.Payload)
	case domain.ActionQuit:
		// Handled by the loop owner.
	default:
		err = fmt.Errorf("action %q: %w", a.Type, domain.ErrNotFound)
	}

	if err != nil {
		e.log.Warn("%s: %v", a.Type, err)
		e.fail(err)
	}
	return err
}
