// Package signals holds the secondary behaviours driven off the match
// clock: upgrade badges, the macro-cycle metronome and periodic reminders.
// Each type is owned by the engine and not safe for concurrent use.
package signals

import "github.com/hammamikhairi/buildpace/internal/domain"

// UrgentAfter is how long past its trigger a badge turns urgent, in seconds.
const UrgentAfter = 30

// BadgeView is a badge that should be on screen.
type BadgeView struct {
	Badge  domain.Badge
	Urgent bool
}

// Badges decides which time-gated badges are visible and tracks the ones
// the player dismissed this session.
type Badges struct {
	enabled   bool
	badges    []domain.Badge
	dismissed map[string]struct{}
}

// NewBadges creates a badge set from config.
func NewBadges(cfg domain.UpgradeBadgesConfig) *Badges {
	b := &Badges{dismissed: make(map[string]struct{})}
	b.Configure(cfg)
	return b
}

// Configure swaps in new badge settings. Dismissals survive.
func (b *Badges) Configure(cfg domain.UpgradeBadgesConfig) {
	b.enabled = cfg.Enabled
	b.badges = append([]domain.Badge(nil), cfg.Badges...)
}

// Visible returns the badges to show at elapsed seconds while branchID is
// active. Branch-scoped badges only show on their branch.
func (b *Badges) Visible(elapsed int, branchID string) []BadgeView {
	if !b.enabled || elapsed < 1 {
		return nil
	}
	var out []BadgeView
	for _, badge := range b.badges {
		if !badge.Enabled || elapsed < badge.TriggerSeconds {
			continue
		}
		if badge.Branch != "" && badge.Branch != branchID {
			continue
		}
		if _, ok := b.dismissed[badge.ID]; ok {
			continue
		}
		out = append(out, BadgeView{
			Badge:  badge,
			Urgent: elapsed >= badge.TriggerSeconds+UrgentAfter,
		})
	}
	return out
}

// Dismiss hides a badge for the rest of the session.
func (b *Badges) Dismiss(id string) {
	b.dismissed[id] = struct{}{}
}

// DismissVisible dismisses everything currently shown and returns how many
// badges were hidden.
func (b *Badges) DismissVisible(elapsed int, branchID string) int {
	views := b.Visible(elapsed, branchID)
	for _, v := range views {
		b.Dismiss(v.Badge.ID)
	}
	return len(views)
}

// Dismissed reports whether the badge was dismissed.
func (b *Badges) Dismissed(id string) bool {
	_, ok := b.dismissed[id]
	return ok
}

// ClearBranchScoped forgets dismissals of badges tied to a branch.
func (b *Badges) ClearBranchScoped() {
	for _, badge := range b.badges {
		if badge.Branch != "" {
			delete(b.dismissed, badge.ID)
		}
	}
}

// Reset forgets every dismissal. Called on a session boundary.
func (b *Badges) Reset() {
	clear(b.dismissed)
}
