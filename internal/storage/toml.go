package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

var _ domain.ConfigStore = (*TOMLConfig)(nil)

// TOMLConfig stores the configuration in a TOML file.
type TOMLConfig struct {
	path       string
	pub        domain.Publisher
	afterWrite func()
	log        *logger.Logger

	mu sync.Mutex
}

// NewTOMLConfig creates a config store for path. The file is created on
// the first Save.
func NewTOMLConfig(path string, pub domain.Publisher, log *logger.Logger) *TOMLConfig {
	return &TOMLConfig{path: path, pub: pub, log: log}
}

// OnWrite sets a hook run after every successful Save, before the change
// event is published.
func (s *TOMLConfig) OnWrite(fn func()) { s.afterWrite = fn }

// Path returns the config file location.
func (s *TOMLConfig) Path() string { return s.path }

// Load reads the config file. A missing file yields the defaults; keys
// absent from the file keep their default values.
func (s *TOMLConfig) Load(ctx context.Context) (domain.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := domain.DefaultConfig()
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debug("no config at %s, using defaults", s.path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("stat config: %w: %v", domain.ErrIO, err)
	}

	md, err := toml.DecodeFile(s.path, &cfg)
	if err != nil {
		return domain.DefaultConfig(), fmt.Errorf("decoding %s: %w: %v", s.path, domain.ErrParse, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		s.log.Warn("ignoring unknown config keys: %v", undecoded)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg atomically and publishes a config change.
func (s *TOMLConfig) Save(ctx context.Context, cfg domain.AppConfig) error {
	cfg.Normalize()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	s.mu.Lock()
	err := os.MkdirAll(filepath.Dir(s.path), 0o755)
	if err == nil {
		err = atomicWrite(s.path, buf.Bytes())
	} else {
		err = fmt.Errorf("creating config dir: %w: %v", domain.ErrIO, err)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.Debug("config written to %s", s.path)
	if s.afterWrite != nil {
		s.afterWrite()
	}
	publish(s.pub, domain.EventConfigChanged, nil)
	return nil
}
