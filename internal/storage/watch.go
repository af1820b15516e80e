package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Poller watches paths on disk and publishes an event when one changes
// behind the application's back, e.g. an edit from another process.
type Poller struct {
	pub      domain.Publisher
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	targets []*pollTarget
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type pollTarget struct {
	path  string
	event string
	last  string
}

// NewPoller creates a poller that checks every interval.
func NewPoller(pub domain.Publisher, log *logger.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{pub: pub, log: log, interval: interval}
}

// Add watches path, a file or a directory, and publishes event when it
// changes.
func (p *Poller) Add(path, event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets = append(p.targets, &pollTarget{path: path, event: event, last: fingerprint(path)})
}

// Refresh records the current state of every path as seen, so the
// application's own writes are not reported again.
func (p *Poller) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.targets {
		t.last = fingerprint(t.path)
	}
}

// Poll checks every path once and publishes one event per changed path.
func (p *Poller) Poll() {
	p.mu.Lock()
	var fire []string
	for _, t := range p.targets {
		fp := fingerprint(t.path)
		if fp != t.last {
			t.last = fp
			fire = append(fire, t.event)
			p.log.Debug("%s changed on disk", t.path)
		}
	}
	p.mu.Unlock()

	for _, ev := range fire {
		publish(p.pub, ev, nil)
	}
}

// Start polls in the background until Stop or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Poll()
			}
		}
	}()
}

// Stop halts background polling.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.running = false
	done := p.done
	p.mu.Unlock()
	<-done
}

// fingerprint summarises the name, size and modification time of a file,
// or of every entry of a directory. Missing paths share one fingerprint.
func fingerprint(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "missing"
		}
		return "error"
	}
	if !info.IsDir() {
		return stamp(info)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "error"
	}
	lines := make([]string, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || !isOrderFile(ent.Name()) {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		lines = append(lines, filepath.Base(ent.Name())+"|"+stamp(info))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func stamp(info fs.FileInfo) string {
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano())
}
