package engine

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/buildpace/internal/domain"
)

// VolumeSetter is an optional interface that CuePlayer implementations can
// satisfy to follow the configured metronome volume.
type VolumeSetter interface {
	SetVolume(v float64)
}

// CoachPackSetter is implemented by players that can load cue files.
type CoachPackSetter interface {
	SetCoachPack(pack domain.CoachPackConfig)
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() domain.AppConfig { return e.cfg.Clone() }

// ApplyConfig installs a configuration and pushes it into every owned
// component. Disabling drift drops the accumulated value.
func (e *Engine) ApplyConfig(cfg domain.AppConfig) {
	cfg.Normalize()
	e.cfg = cfg.Clone()

	e.drift.SetEnabled(cfg.TimerDrift.Enabled)
	e.badges.Configure(cfg.UpgradeBadges)
	e.metronome.Configure(cfg.Metronome)
	e.reminders.Configure(cfg.Reminders)

	if vs, ok := e.cues.(VolumeSetter); ok {
		vs.SetVolume(cfg.Metronome.Volume)
	}
	if cs, ok := e.cues.(CoachPackSetter); ok {
		cs.SetCoachPack(cfg.CoachPack)
	}
	e.log.Debug("config applied (drift=%v, metronome=%v, reminders=%v)",
		cfg.TimerDrift.Enabled, cfg.Metronome.Enabled, cfg.Reminders.Enabled)
}

// ToggleCompact flips compact mode and persists it.
func (e *Engine) ToggleCompact(ctx context.Context) error {
	e.cfg.CompactMode = !e.cfg.CompactMode
	return e.saveConfig(ctx, "compact mode")
}

// ToggleClickThrough flips click-through and persists it.
func (e *Engine) ToggleClickThrough(ctx context.Context) error {
	e.cfg.ClickThrough = !e.cfg.ClickThrough
	return e.saveConfig(ctx, "click-through")
}

// saveConfig persists the in-memory config. The in-memory value stays
// authoritative when the write fails.
func (e *Engine) saveConfig(ctx context.Context, what string) error {
	e.status = domain.Status{State: domain.StatusSaving, At: e.clock.Now()}
	if err := e.configs.Save(ctx, e.cfg.Clone()); err != nil {
		err = fmt.Errorf("saving %s: %w", what, err)
		e.log.Error("%v", err)
		e.fail(err)
		return err
	}
	e.status = domain.Status{State: domain.StatusSaved, At: e.clock.Now()}
	return nil
}

// Status returns the status line if it is still visible.
func (e *Engine) Status() domain.Status {
	if !e.status.Visible(e.clock.Now()) {
		return domain.Status{}
	}
	return e.status
}

// fail records err on the status line.
func (e *Engine) fail(err error) {
	e.status = domain.StatusFromError(err, e.clock.Now())
}
