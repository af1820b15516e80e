package loop

import (
	"sync"

	"github.com/hammamikhairi/buildpace/internal/engine"
)

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers skip intermediate snapshots. The cancel function releases the
// subscription exactly once.
func (l *Loop) Subscribe() (<-chan engine.Snapshot, func()) {
	ch := make(chan engine.Snapshot, 1)

	l.subMu.Lock()
	l.nextSub++
	id := l.nextSub
	l.subs[id] = ch
	l.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subMu.Lock()
			defer l.subMu.Unlock()
			if _, ok := l.subs[id]; ok {
				delete(l.subs, id)
				close(ch)
			}
		})
	}
}

// broadcast pushes the current snapshot to every subscriber, replacing
// any snapshot it has not read yet.
func (l *Loop) broadcast() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if len(l.subs) == 0 {
		return
	}

	snap := l.eng.Snapshot()
	for _, ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
