// Package storage provides persistence for build orders, configuration and
// session history: in-memory stores for tests and ephemeral runs, a
// JSON/YAML file store, a TOML config file and a SQLite history database.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.BuildOrderStore = (*MemoryBuildOrders)(nil)
	_ domain.ConfigStore     = (*MemoryConfig)(nil)
	_ domain.HistoryStore    = (*MemoryHistory)(nil)
)

// publish sends a change event if a publisher is wired.
func publish(pub domain.Publisher, name string, payload any) {
	if pub != nil {
		pub.Publish(name, payload)
	}
}

// MemoryBuildOrders is an in-memory build order store. Safe for concurrent
// access.
type MemoryBuildOrders struct {
	mu     sync.RWMutex
	orders map[string]*domain.BuildOrder
	pub    domain.Publisher
	log    *logger.Logger
}

// NewMemoryBuildOrders creates a store holding copies of the given orders.
// Invalid seed orders are skipped.
func NewMemoryBuildOrders(log *logger.Logger, pub domain.Publisher, seed ...domain.BuildOrder) *MemoryBuildOrders {
	s := &MemoryBuildOrders{
		orders: make(map[string]*domain.BuildOrder),
		pub:    pub,
		log:    log,
	}
	for i := range seed {
		if err := domain.ValidateBuildOrder(&seed[i]); err != nil {
			log.Warn("skipping seed build order %q: %v", seed[i].ID, err)
			continue
		}
		s.orders[seed[i].ID] = seed[i].Clone()
	}
	log.Debug("seeded %d build orders", len(s.orders))
	return s
}

// List returns copies of every order, sorted by ID.
func (s *MemoryBuildOrders) List(ctx context.Context) ([]domain.BuildOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BuildOrder, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save validates and stores an order, replacing any order with the same ID.
func (s *MemoryBuildOrders) Save(ctx context.Context, order *domain.BuildOrder) error {
	if err := domain.ValidateBuildOrder(order); err != nil {
		return err
	}

	s.mu.Lock()
	s.orders[order.ID] = order.Clone()
	s.mu.Unlock()

	s.log.Debug("saved build order %s", order.ID)
	publish(s.pub, domain.EventBuildOrdersChanged, order.ID)
	return nil
}

// Delete removes an order by ID.
func (s *MemoryBuildOrders) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.orders[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("build order %q: %w", id, domain.ErrNotFound)
	}
	delete(s.orders, id)
	s.mu.Unlock()

	s.log.Debug("deleted build order %s", id)
	publish(s.pub, domain.EventBuildOrdersChanged, id)
	return nil
}

// MemoryConfig keeps the configuration in memory.
type MemoryConfig struct {
	mu  sync.RWMutex
	cfg domain.AppConfig
	pub domain.Publisher
}

// NewMemoryConfig creates a config store starting from defaults.
func NewMemoryConfig(pub domain.Publisher) *MemoryConfig {
	return &MemoryConfig{cfg: domain.DefaultConfig(), pub: pub}
}

// Load returns a copy of the stored config.
func (s *MemoryConfig) Load(ctx context.Context) (domain.AppConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone(), nil
}

// Save replaces the stored config.
func (s *MemoryConfig) Save(ctx context.Context, cfg domain.AppConfig) error {
	s.mu.Lock()
	s.cfg = cfg.Clone()
	s.mu.Unlock()

	publish(s.pub, domain.EventConfigChanged, nil)
	return nil
}

// MemoryHistory keeps archived sessions in memory, newest first.
type MemoryHistory struct {
	mu   sync.RWMutex
	recs []domain.SessionRecord
}

// NewMemoryHistory creates an empty history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Append prepends a session and trims the history to limit.
func (s *MemoryHistory) Append(ctx context.Context, rec domain.SessionRecord, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recs = append([]domain.SessionRecord{*rec.Clone()}, s.recs...)
	if limit > 0 && len(s.recs) > limit {
		s.recs = s.recs[:limit]
	}
	return nil
}

// List returns up to limit sessions, newest first. limit <= 0 means all.
func (s *MemoryHistory) List(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.recs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.SessionRecord, n)
	for i := 0; i < n; i++ {
		out[i] = *s.recs[i].Clone()
	}
	return out, nil
}

// Clear removes every session.
func (s *MemoryHistory) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = nil
	return nil
}
