// Package hotkey turns external input into engine actions: named events
// from a global hotkey source ("next-step", "toggle-pause") and key
// presses matched against the configured bindings.
package hotkey

import (
	"regexp"
	"strings"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// eventAliases maps hotkey event names that differ from the action names.
var eventAliases = map[string]domain.Action{
	"next-step":            {Type: domain.ActionAdvance},
	"previous-step":        {Type: domain.ActionRetreat},
	"prev-step":            {Type: domain.ActionRetreat},
	"reset-build-order":    {Type: domain.ActionReset},
	"dismiss-badges":       {Type: domain.ActionDismissBadge},
	"activate-branch-main": {Type: domain.ActionActivateBranch, Payload: "0"},
	"exit":                 {Type: domain.ActionQuit},
}

var branchEvent = regexp.MustCompile(`^activate-branch-([1-4])$`)

// ParseEvent converts a named event to an action. The "hotkey-" prefix
// used by global shortcut sources is optional.
func ParseEvent(name string) (domain.Action, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "hotkey-")
	if n == "" {
		return domain.Action{}, false
	}

	if a, ok := eventAliases[n]; ok {
		return a, true
	}
	if m := branchEvent.FindStringSubmatch(n); m != nil {
		return domain.Action{Type: domain.ActionActivateBranch, Payload: m[1]}, true
	}

	// "activate-branch 2" and "dismiss-badge wheelbarrow" carry a payload.
	head, payload, _ := strings.Cut(n, " ")
	t := domain.ActionFromString(head)
	if t == domain.ActionUnknown {
		return domain.Action{}, false
	}
	return domain.Action{Type: t, Payload: strings.TrimSpace(payload)}, true
}

// Binding is one key bound to one action.
type Binding struct {
	Key    string // normalised key name
	Label  string // key as configured, for help text
	Name   string // hotkey name, e.g. "next_step"
	Action domain.Action
}

// Keymap resolves key presses against the configured hotkeys.
type Keymap struct {
	log       *logger.Logger
	cfg       domain.HotkeyConfig
	bindings  []Binding
	byKey     map[string]domain.Action
	conflicts []string
}

// NewKeymap builds a keymap from cfg. Empty bindings are skipped; when two
// hotkeys share a key the first one keeps it.
func NewKeymap(cfg domain.HotkeyConfig, log *logger.Logger) *Keymap {
	km := &Keymap{log: log, cfg: cfg, byKey: make(map[string]domain.Action)}

	entries := []struct {
		name   string
		key    string
		action domain.Action
	}{
		{"previous_step", cfg.PreviousStep, domain.Action{Type: domain.ActionRetreat}},
		{"next_step", cfg.NextStep, domain.Action{Type: domain.ActionAdvance}},
		{"cycle_build_order", cfg.CycleBuildOrder, domain.Action{Type: domain.ActionCycleBuildOrder}},
		{"toggle_click_through", cfg.ToggleClickThrough, domain.Action{Type: domain.ActionToggleClickThrough}},
		{"toggle_compact", cfg.ToggleCompact, domain.Action{Type: domain.ActionToggleCompact}},
		{"reset_build_order", cfg.ResetBuildOrder, domain.Action{Type: domain.ActionReset}},
		{"toggle_pause", cfg.TogglePause, domain.Action{Type: domain.ActionTogglePause}},
		{"dismiss_badges", cfg.DismissBadges, domain.Action{Type: domain.ActionDismissBadge}},
		{"activate_branch_main", cfg.ActivateBranchMain, domain.Action{Type: domain.ActionActivateBranch, Payload: "0"}},
		{"activate_branch_1", cfg.ActivateBranch1, domain.Action{Type: domain.ActionActivateBranch, Payload: "1"}},
		{"activate_branch_2", cfg.ActivateBranch2, domain.Action{Type: domain.ActionActivateBranch, Payload: "2"}},
		{"activate_branch_3", cfg.ActivateBranch3, domain.Action{Type: domain.ActionActivateBranch, Payload: "3"}},
		{"activate_branch_4", cfg.ActivateBranch4, domain.Action{Type: domain.ActionActivateBranch, Payload: "4"}},
	}

	for _, e := range entries {
		key := NormalizeKey(e.key)
		if key == "" {
			continue
		}
		if _, taken := km.byKey[key]; taken {
			log.Warn("hotkey %s: key %q already bound, ignoring", e.name, e.key)
			km.conflicts = append(km.conflicts, e.name)
			continue
		}
		km.byKey[key] = e.action
		km.bindings = append(km.bindings, Binding{Key: key, Label: e.key, Name: e.name, Action: e.action})
	}
	log.Debug("keymap built with %d bindings", len(km.bindings))
	return km
}

// Config returns the hotkey settings the keymap was built from.
func (km *Keymap) Config() domain.HotkeyConfig { return km.cfg }

// Rebind returns km when cfg is unchanged, otherwise a new keymap built
// from cfg.
func (km *Keymap) Rebind(cfg domain.HotkeyConfig) *Keymap {
	if cfg == km.cfg {
		return km
	}
	km.log.Info("hotkeys changed, rebuilding keymap")
	return NewKeymap(cfg, km.log)
}

// Lookup returns the action bound to key.
func (km *Keymap) Lookup(key string) (domain.Action, bool) {
	a, ok := km.byKey[NormalizeKey(key)]
	return a, ok
}

// Bindings returns the active bindings in configuration order.
func (km *Keymap) Bindings() []Binding {
	return append([]Binding(nil), km.bindings...)
}

// Conflicts names the hotkeys that lost their key to an earlier binding.
func (km *Keymap) Conflicts() []string {
	return append([]string(nil), km.conflicts...)
}

var keyAliases = map[string]string{
	"escape":     "esc",
	"return":     "enter",
	"del":        "delete",
	"pageup":     "pgup",
	"pagedown":   "pgdown",
	"pgdn":       "pgdown",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"space":      " ",
	"option":     "alt",
	"control":    "ctrl",
}

// NormalizeKey lowercases a key name and rewrites it to the form terminal
// key events use: "Alt-1" becomes "alt+1", "Escape" becomes "esc".
func NormalizeKey(key string) string {
	if key == " " {
		return " "
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return ""
	}
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "-", "+")

	parts := strings.Split(k, "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if alias, ok := keyAliases[p]; ok {
			p = alias
		}
		parts[i] = p
	}
	return strings.Join(parts, "+")
}
