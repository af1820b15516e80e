package domain

// Well-known change events published once per logical mutation.
const (
	EventBuildOrdersChanged = "build-orders-changed"
	EventConfigChanged      = "config-changed"
)

// Metronome interval bounds, in seconds.
const (
	MinMetronomeInterval = 10
	MaxMetronomeInterval = 60
)

// AppConfig is the user-facing configuration.
type AppConfig struct {
	LogLevel      string              `toml:"log_level"`
	ClickThrough  bool                `toml:"click_through"`
	CompactMode   bool                `toml:"compact_mode"`
	Hotkeys       HotkeyConfig        `toml:"hotkeys"`
	AutoAdvance   AutoAdvanceConfig   `toml:"auto_advance"`
	TimerDrift    TimerDriftConfig    `toml:"timer_drift"`
	UpgradeBadges UpgradeBadgesConfig `toml:"upgrade_badges"`
	Metronome     MetronomeConfig     `toml:"metronome"`
	Reminders     ReminderConfig      `toml:"reminders"`
	CoachPack     CoachPackConfig     `toml:"coach_pack"`
}

// HotkeyConfig binds key names to actions.
type HotkeyConfig struct {
	PreviousStep       string `toml:"previous_step"`
	NextStep           string `toml:"next_step"`
	CycleBuildOrder    string `toml:"cycle_build_order"`
	ToggleClickThrough string `toml:"toggle_click_through"`
	ToggleCompact      string `toml:"toggle_compact"`
	ResetBuildOrder    string `toml:"reset_build_order"`
	TogglePause        string `toml:"toggle_pause"`
	DismissBadges      string `toml:"dismiss_badges"`
	ActivateBranchMain string `toml:"activate_branch_main"`
	ActivateBranch1    string `toml:"activate_branch_1"`
	ActivateBranch2    string `toml:"activate_branch_2"`
	ActivateBranch3    string `toml:"activate_branch_3"`
	ActivateBranch4    string `toml:"activate_branch_4"`
}

// AutoAdvanceConfig moves to the next step once its timing has passed.
type AutoAdvanceConfig struct {
	Enabled      bool `toml:"enabled"`
	DelaySeconds int  `toml:"delay_seconds"` // extra grace after the step timing
}

// TimerDriftConfig toggles drift adjustment of future step timings.
type TimerDriftConfig struct {
	Enabled bool `toml:"enabled"`
}

// Badge is a time-triggered reminder, e.g. an economy upgrade.
type Badge struct {
	ID             string `toml:"id"`
	Name           string `toml:"name"`
	ShortName      string `toml:"short_name"`
	TriggerSeconds int    `toml:"trigger_seconds"`
	Enabled        bool   `toml:"enabled"`
	Branch         string `toml:"branch,omitempty"` // only shown while this branch is active
}

// UpgradeBadgesConfig holds the badge feature toggle and the badge list.
type UpgradeBadgesConfig struct {
	Enabled bool    `toml:"enabled"`
	Badges  []Badge `toml:"badges"`
}

// MetronomeConfig drives the macro-cycle metronome.
type MetronomeConfig struct {
	Enabled         bool    `toml:"enabled"`
	IntervalSeconds int     `toml:"interval_seconds"`
	Volume          float64 `toml:"volume"`     // 0.0 - 1.0
	CoachLoop       bool    `toml:"coach_loop"` // cycle the macro task list
}

// ReminderItem is one periodic reminder.
type ReminderItem struct {
	Key             string `toml:"key"`
	Message         string `toml:"message"`
	Enabled         bool   `toml:"enabled"`
	IntervalSeconds int    `toml:"interval_seconds"`
}

// CalmModeConfig suppresses reminders early in the game.
type CalmModeConfig struct {
	Enabled      bool `toml:"enabled"`
	UntilSeconds int  `toml:"until_seconds"`
}

// ReminderConfig holds periodic reminder settings.
type ReminderConfig struct {
	Enabled  bool           `toml:"enabled"`
	Items    []ReminderItem `toml:"items"`
	CalmMode CalmModeConfig `toml:"calm_mode"`
}

// Cue names a sound the coach can play.
type Cue string

const (
	CueStepAdvance   Cue = "step_advance"
	CueMetronomeTick Cue = "metronome_tick"
	CueBehindPace    Cue = "behind_pace"
	CueReminder      Cue = "reminder"
)

// CoachPackConfig points cues at WAV files on disk.
type CoachPackConfig struct {
	Enabled  bool              `toml:"enabled"`
	BasePath string            `toml:"base_path"`
	Files    map[string]string `toml:"files"` // cue name -> file name
}

// DefaultConfig returns the configuration used when nothing is persisted.
func DefaultConfig() AppConfig {
	return AppConfig{
		LogLevel:     "normal",
		ClickThrough: true,
		CompactMode:  false,
		Hotkeys: HotkeyConfig{
			PreviousStep:       "F2",
			NextStep:           "F3",
			CycleBuildOrder:    "F4",
			ToggleClickThrough: "F5",
			ToggleCompact:      "F6",
			ResetBuildOrder:    "F7",
			TogglePause:        "F8",
			DismissBadges:      "F9",
			ActivateBranchMain: "alt+0",
			ActivateBranch1:    "alt+1",
			ActivateBranch2:    "alt+2",
			ActivateBranch3:    "alt+3",
			ActivateBranch4:    "alt+4",
		},
		AutoAdvance: AutoAdvanceConfig{Enabled: false, DelaySeconds: 0},
		TimerDrift:  TimerDriftConfig{Enabled: true},
		UpgradeBadges: UpgradeBadgesConfig{
			Enabled: true,
			Badges: []Badge{
				{ID: "wheelbarrow", Name: "Wheelbarrow", ShortName: "Wheel", TriggerSeconds: 180, Enabled: true},
				{ID: "blacksmith_attack", Name: "Blacksmith +1 Attack", ShortName: "+1 Atk", TriggerSeconds: 300, Enabled: true},
				{ID: "double_broadaxe", Name: "Double Broadaxe", ShortName: "Broadaxe", TriggerSeconds: 360, Enabled: true},
				{ID: "textiles", Name: "Textiles", ShortName: "Textiles", TriggerSeconds: 480, Enabled: true},
			},
		},
		Metronome: MetronomeConfig{Enabled: false, IntervalSeconds: 20, Volume: 0.5, CoachLoop: true},
		Reminders: ReminderConfig{
			Enabled: false,
			Items: []ReminderItem{
				{Key: "villager_queue", Message: "Keep queuing villagers", Enabled: true, IntervalSeconds: 25},
				{Key: "scout", Message: "Check your scout", Enabled: true, IntervalSeconds: 45},
				{Key: "houses", Message: "Don't get supply blocked", Enabled: true, IntervalSeconds: 40},
				{Key: "military", Message: "Build more military", Enabled: true, IntervalSeconds: 60},
				{Key: "map_control", Message: "Control the map", Enabled: true, IntervalSeconds: 90},
			},
			CalmMode: CalmModeConfig{Enabled: false, UntilSeconds: 180},
		},
		CoachPack: CoachPackConfig{Files: map[string]string{}},
	}
}

// Normalize clamps out-of-range values in place.
func (c *AppConfig) Normalize() {
	m := &c.Metronome
	if m.IntervalSeconds < MinMetronomeInterval {
		m.IntervalSeconds = MinMetronomeInterval
	}
	if m.IntervalSeconds > MaxMetronomeInterval {
		m.IntervalSeconds = MaxMetronomeInterval
	}
	if m.Volume < 0 {
		m.Volume = 0
	}
	if m.Volume > 1 {
		m.Volume = 1
	}
	if c.AutoAdvance.DelaySeconds < 0 {
		c.AutoAdvance.DelaySeconds = 0
	}
	if c.Reminders.CalmMode.UntilSeconds < 0 {
		c.Reminders.CalmMode.UntilSeconds = 0
	}
	for i := range c.Reminders.Items {
		if c.Reminders.Items[i].IntervalSeconds < 1 {
			c.Reminders.Items[i].IntervalSeconds = 1
		}
	}
	if c.CoachPack.Files == nil {
		c.CoachPack.Files = map[string]string{}
	}
}

// Clone deep-copies the configuration.
func (c AppConfig) Clone() AppConfig {
	out := c
	out.UpgradeBadges.Badges = append([]Badge(nil), c.UpgradeBadges.Badges...)
	out.Reminders.Items = append([]ReminderItem(nil), c.Reminders.Items...)
	out.CoachPack.Files = make(map[string]string, len(c.CoachPack.Files))
	for k, v := range c.CoachPack.Files {
		out.CoachPack.Files[k] = v
	}
	return out
}
