// Package loop runs the single-owner event loop around the engine. Ticks,
// user actions and sync reloads are all serialised onto one goroutine;
// nothing else touches the engine.
package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/engine"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Option configures the loop.
type Option func(*Loop)

// WithTickInterval sets how often the match clock is sampled.
func WithTickInterval(d time.Duration) Option {
	return func(l *Loop) {
		l.tickInterval = d
	}
}

// WithQueueSize sets the capacity of the local and external queues.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		l.queueSize = n
	}
}

// Job is work run on the loop goroutine with exclusive engine access.
type Job func(ctx context.Context, eng *engine.Engine) error

type command struct {
	action *domain.Action
	job    Job
	reply  chan error
}

// Loop owns an engine and drives it.
type Loop struct {
	eng          *engine.Engine
	log          *logger.Logger
	tickInterval time.Duration
	queueSize    int

	local    chan command
	external chan Job
	ticks    chan uint64

	quitOnce sync.Once
	quit     chan struct{}

	subMu   sync.Mutex
	subs    map[uint64]chan engine.Snapshot
	nextSub uint64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a loop around eng. The engine must already be loaded.
func New(eng *engine.Engine, log *logger.Logger, opts ...Option) *Loop {
	l := &Loop{
		eng:          eng,
		log:          log,
		tickInterval: time.Second,
		queueSize:    64,
		quit:         make(chan struct{}),
		subs:         make(map[uint64]chan engine.Snapshot),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.local = make(chan command, l.queueSize)
	l.external = make(chan Job, l.queueSize)
	l.ticks = make(chan uint64, 1)
	return l
}

// Start begins the tick producer and the loop. Non-blocking.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		l.log.Warn("event loop already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true
	l.done = make(chan struct{})

	go l.tickLoop(childCtx)
	go l.run(childCtx)

	l.log.Info("event loop started (tick=%s)", l.tickInterval)
}

// Stop shuts the loop down and waits for the open session to be
// finalised.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.cancel()
	l.running = false
	done := l.done
	l.mu.Unlock()

	<-done
	l.log.Info("event loop stopped")
}

// Quit is closed once a quit action has been dispatched.
func (l *Loop) Quit() <-chan struct{} { return l.quit }

// Send queues a user action. Local actions always run before any pending
// sync reload.
func (l *Loop) Send(ctx context.Context, a domain.Action) error {
	return l.enqueue(ctx, command{action: &a})
}

// Do runs job on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, job Job) error {
	reply := make(chan error, 1)
	if err := l.enqueue(ctx, command{job: job, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver queues an external job, e.g. a reload after another window
// changed the stores. It runs on a later loop turn than any local action
// already queued.
func (l *Loop) Deliver(ctx context.Context, job Job) error {
	select {
	case l.external <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) enqueue(ctx context.Context, c command) error {
	select {
	case l.local <- c:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queueing command: %w", ctx.Err())
	}
}

// tickLoop samples the reset token when it schedules each tick, so a tick
// produced before a reset is recognised as stale by the engine.
func (l *Loop) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case l.ticks <- l.eng.Token():
			default:
				// Loop is busy; the next tick catches up.
			}
		}
	}
}

// run is the main loop.
func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	l.broadcast()

	for {
		// Drain local commands before looking at anything else.
		select {
		case c := <-l.local:
			l.handle(ctx, c)
			l.broadcast()
			continue
		default:
		}

		select {
		case <-ctx.Done():
			l.shutdown(ctx)
			return
		case c := <-l.local:
			l.handle(ctx, c)
		case token := <-l.ticks:
			l.eng.Tick(ctx, token)
		case job := <-l.external:
			if err := job(ctx, l.eng); err != nil {
				l.log.Error("external job: %v", err)
			}
		}
		l.broadcast()
	}
}

func (l *Loop) handle(ctx context.Context, c command) {
	var err error
	switch {
	case c.action != nil:
		err = l.eng.Dispatch(ctx, *c.action)
		if c.action.Type == domain.ActionQuit {
			l.quitOnce.Do(func() { close(l.quit) })
		}
	case c.job != nil:
		err = c.job(ctx, l.eng)
	}
	if c.reply != nil {
		c.reply <- err
	}
}

func (l *Loop) shutdown(ctx context.Context) {
	if err := l.eng.Close(context.WithoutCancel(ctx)); err != nil {
		l.log.Error("closing session: %v", err)
	}
	l.broadcast()

	l.subMu.Lock()
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
	l.subMu.Unlock()
}
