package domain

// ActionType classifies what an external event (hotkey, key press, CLI
// input) asks the engine to do.
type ActionType int

const (
	ActionUnknown ActionType = iota
	ActionAdvance
	ActionRetreat
	ActionTogglePause
	ActionReset
	ActionCycleBuildOrder
	ActionToggleClickThrough
	ActionToggleCompact
	ActionActivateBranch // Payload: branch slot "0" (main) to "4"
	ActionDismissBadge   // Payload: badge ID, empty dismisses all visible
	ActionQuit
)

// String returns the external event name for an action.
func (a ActionType) String() string {
	switch a {
	case ActionAdvance:
		return "advance"
	case ActionRetreat:
		return "retreat"
	case ActionTogglePause:
		return "toggle-pause"
	case ActionReset:
		return "reset"
	case ActionCycleBuildOrder:
		return "cycle-build-order"
	case ActionToggleClickThrough:
		return "toggle-click-through"
	case ActionToggleCompact:
		return "toggle-compact"
	case ActionActivateBranch:
		return "activate-branch"
	case ActionDismissBadge:
		return "dismiss-badge"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Action is a parsed external event.
type Action struct {
	Type    ActionType
	Payload string
}

// actionNames maps event names to ActionType values.
var actionNames = map[string]ActionType{
	"advance":              ActionAdvance,
	"retreat":              ActionRetreat,
	"toggle-pause":         ActionTogglePause,
	"reset":                ActionReset,
	"cycle-build-order":    ActionCycleBuildOrder,
	"toggle-click-through": ActionToggleClickThrough,
	"toggle-compact":       ActionToggleCompact,
	"activate-branch":      ActionActivateBranch,
	"dismiss-badge":        ActionDismissBadge,
	"quit":                 ActionQuit,
	"unknown":              ActionUnknown,
}

// ActionFromString converts an event name to an ActionType.
// Returns ActionUnknown for unrecognized names.
func ActionFromString(name string) ActionType {
	if t, ok := actionNames[name]; ok {
		return t
	}
	return ActionUnknown
}
