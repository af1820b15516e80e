package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

var _ domain.BuildOrderStore = (*FileBuildOrders)(nil)

// MaxImportSize caps how much data a single import may read.
const MaxImportSize = 1 << 20

// FileOption configures a FileBuildOrders store.
type FileOption func(*FileBuildOrders)

// WithPublisher announces every mutation on pub.
func WithPublisher(pub domain.Publisher) FileOption {
	return func(s *FileBuildOrders) {
		s.pub = pub
	}
}

// WithAfterWrite runs fn after the store changed the directory and before
// the change event is published. Used to keep a poll watcher from
// reporting the store's own writes a second time.
func WithAfterWrite(fn func()) FileOption {
	return func(s *FileBuildOrders) {
		s.afterWrite = fn
	}
}

// FileBuildOrders keeps one JSON file per build order in a directory.
// YAML files in the same directory are read too, but never written.
type FileBuildOrders struct {
	dir        string
	pub        domain.Publisher
	afterWrite func()
	log        *logger.Logger

	mu sync.Mutex
}

// NewFileBuildOrders creates the directory if needed.
func NewFileBuildOrders(dir string, log *logger.Logger, opts ...FileOption) (*FileBuildOrders, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating build order dir: %w: %v", domain.ErrIO, err)
	}
	s := &FileBuildOrders{dir: dir, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory the store reads from.
func (s *FileBuildOrders) Dir() string { return s.dir }

// List reads every build order file, sorted by ID. Files that fail to
// parse or validate are skipped with a warning so one bad file never hides
// the rest. When two files carry the same ID the first by file name wins.
func (s *FileBuildOrders) List(ctx context.Context) ([]domain.BuildOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list()
}

func (s *FileBuildOrders) list() ([]domain.BuildOrder, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %v", s.dir, domain.ErrIO, err)
	}

	seen := make(map[string]string)
	var out []domain.BuildOrder
	for _, ent := range entries {
		if ent.IsDir() || !isOrderFile(ent.Name()) {
			continue
		}
		path := filepath.Join(s.dir, ent.Name())
		order, err := readOrderFile(path)
		if err != nil {
			s.log.Warn("skipping %s: %v", ent.Name(), err)
			continue
		}
		if prev, dup := seen[order.ID]; dup {
			s.log.Warn("skipping %s: id %q already loaded from %s", ent.Name(), order.ID, prev)
			continue
		}
		seen[order.ID] = ent.Name()
		out = append(out, order)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save validates and writes an order to <id>.json.
func (s *FileBuildOrders) Save(ctx context.Context, order *domain.BuildOrder) error {
	if err := domain.ValidateBuildOrder(order); err != nil {
		return err
	}

	s.mu.Lock()
	err := s.write(order)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.Debug("saved build order %s", order.ID)
	s.changed(order.ID)
	return nil
}

// Delete removes every file holding the order.
func (s *FileBuildOrders) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateBuildOrderID(id); err != nil {
		return err
	}

	s.mu.Lock()
	removed := 0
	var errs []error
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		err := os.Remove(filepath.Join(s.dir, id+ext))
		switch {
		case err == nil:
			removed++
		case !errors.Is(err, os.ErrNotExist):
			errs = append(errs, err)
		}
	}
	s.mu.Unlock()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("deleting build order %s: %w: %v", id, domain.ErrIO, err)
	}
	if removed == 0 {
		return fmt.Errorf("build order %q: %w", id, domain.ErrNotFound)
	}

	s.log.Debug("deleted build order %s", id)
	s.changed(id)
	return nil
}

// Import decodes one order or an array of orders from JSON or YAML and
// saves them all. Nothing is written unless every order is valid and no
// ID collides with an existing order or another order in the batch.
// Steps without an ID get a generated one. Returns the imported IDs.
func (s *FileBuildOrders) Import(ctx context.Context, data []byte) ([]string, error) {
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("%w: import exceeds %d bytes", domain.ErrValidation, MaxImportSize)
	}

	orders, err := DecodeBuildOrders(data)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: import contains no build orders", domain.ErrValidation)
	}

	s.mu.Lock()
	existing, err := s.list()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	taken := make(map[string]bool, len(existing)+len(orders))
	for _, o := range existing {
		taken[o.ID] = true
	}

	ids := make([]string, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		fillStepIDs(o)
		if err := domain.ValidateBuildOrder(o); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("build order %d: %w", i+1, err)
		}
		if taken[o.ID] {
			s.mu.Unlock()
			return nil, fmt.Errorf("build order %q: %w", o.ID, domain.ErrAlreadyExists)
		}
		taken[o.ID] = true
		ids = append(ids, o.ID)
	}

	for i := range orders {
		if err := s.write(&orders[i]); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()

	s.log.Info("imported %d build orders", len(ids))
	s.changed(strings.Join(ids, ","))
	return ids, nil
}

// ImportFile imports the contents of path.
func (s *FileBuildOrders) ImportFile(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %v", path, domain.ErrIO, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %v", path, domain.ErrIO, err)
	}
	return s.Import(ctx, data)
}

// Seed writes orders only when the directory holds no build orders yet.
// Returns how many were written.
func (s *FileBuildOrders) Seed(ctx context.Context, orders []domain.BuildOrder) (int, error) {
	s.mu.Lock()
	existing, err := s.list()
	if err != nil || len(existing) > 0 {
		s.mu.Unlock()
		return 0, err
	}
	n := 0
	for i := range orders {
		if err := domain.ValidateBuildOrder(&orders[i]); err != nil {
			s.log.Warn("skipping seed build order %q: %v", orders[i].ID, err)
			continue
		}
		if err := s.write(&orders[i]); err != nil {
			s.mu.Unlock()
			return n, err
		}
		n++
	}
	s.mu.Unlock()

	if n > 0 {
		s.changed("")
	}
	return n, nil
}

func (s *FileBuildOrders) write(order *domain.BuildOrder) error {
	data, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding build order %s: %w", order.ID, err)
	}
	data = append(data, '\n')
	return atomicWrite(filepath.Join(s.dir, order.ID+".json"), data)
}

func (s *FileBuildOrders) changed(payload string) {
	if s.afterWrite != nil {
		s.afterWrite()
	}
	publish(s.pub, domain.EventBuildOrdersChanged, payload)
}

// DecodeBuildOrders parses JSON or YAML holding either one order or an
// array of orders. Input starting with '{' or '[' is treated as JSON.
func DecodeBuildOrders(data []byte) ([]domain.BuildOrder, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty build order data", domain.ErrParse)
	}

	switch trimmed[0] {
	case '[':
		var list []domain.BuildOrder
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
		}
		return list, nil
	case '{':
		var one domain.BuildOrder
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
		}
		return []domain.BuildOrder{one}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("%w: empty build order data", domain.ErrParse)
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var list []domain.BuildOrder
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
		}
		return list, nil
	}
	var one domain.BuildOrder
	if err := node.Decode(&one); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return []domain.BuildOrder{one}, nil
}

func readOrderFile(path string) (domain.BuildOrder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.BuildOrder{}, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}

	var order domain.BuildOrder
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &order)
	} else {
		err = yaml.Unmarshal(data, &order)
	}
	if err != nil {
		return domain.BuildOrder{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if err := domain.ValidateBuildOrder(&order); err != nil {
		return domain.BuildOrder{}, err
	}
	return order, nil
}

func isOrderFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return !strings.HasPrefix(name, ".")
	}
	return false
}

func fillStepIDs(o *domain.BuildOrder) {
	fill := func(steps []domain.Step) {
		for i := range steps {
			if strings.TrimSpace(steps[i].ID) == "" {
				steps[i].ID = uuid.NewString()
			}
		}
	}
	fill(o.Steps)
	for i := range o.Branches {
		fill(o.Branches[i].Steps)
	}
}

// atomicWrite replaces path with data via a temp file in the same
// directory, so readers never see a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w: %v", path, domain.ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w: %v", path, domain.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w: %v", path, domain.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w: %v", path, domain.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w: %v", path, domain.ErrIO, err)
	}
	return nil
}
