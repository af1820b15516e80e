package loop

import (
	"context"
	"sync/atomic"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/engine"
	"github.com/hammamikhairi/buildpace/internal/eventbus"
)

// latest orders fetched results for one event. Fetches run concurrently
// and may finish out of order; a result is applied only if no newer one
// has been applied already. A failed fetch applies nothing, so an older
// successful result still lands.
type latest struct {
	seq     atomic.Uint64
	applied uint64 // loop goroutine only
}

func (s *latest) next() uint64 { return s.seq.Add(1) }

// apply reports whether the result fetched under seq should be applied.
// It must run on the loop goroutine.
func (s *latest) apply(seq uint64) bool {
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	return true
}

// Watch reloads the engine whenever the stores announce a change. The
// store is read off the loop goroutine and the result delivered as an
// external job, so a handler fired from inside the loop never blocks it.
// The returned function releases both subscriptions.
func (l *Loop) Watch(ctx context.Context, src eventbus.Listener, orders domain.BuildOrderStore, configs domain.ConfigStore) func() {
	orderBinding := eventbus.NewBinding(src, domain.EventBuildOrdersChanged)
	configBinding := eventbus.NewBinding(src, domain.EventConfigChanged)

	var orderSeq, configSeq latest

	orderBinding.Bind(func(any) {
		seq := orderSeq.next()
		go func() {
			list, err := orders.List(ctx)
			if err != nil {
				l.log.Error("reloading build orders: %v", err)
				return
			}
			_ = l.Deliver(ctx, func(ctx context.Context, e *engine.Engine) error {
				if !orderSeq.apply(seq) {
					return nil
				}
				return e.ReloadBuildOrders(ctx, list)
			})
		}()
	})

	configBinding.Bind(func(any) {
		seq := configSeq.next()
		go func() {
			cfg, err := configs.Load(ctx)
			if err != nil {
				l.log.Error("reloading config: %v", err)
				return
			}
			_ = l.Deliver(ctx, func(_ context.Context, e *engine.Engine) error {
				if !configSeq.apply(seq) {
					return nil
				}
				e.ReloadConfig(cfg)
				return nil
			})
		}()
	})

	return func() {
		orderBinding.Close()
		configBinding.Close()
	}
}
