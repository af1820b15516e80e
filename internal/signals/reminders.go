package signals

import "github.com/hammamikhairi/buildpace/internal/domain"

// Reminders fires periodic coaching messages off match time. At most one
// reminder fires per check, in config order.
type Reminders struct {
	cfg      domain.ReminderConfig
	lastFire map[string]int // key -> elapsed seconds of the last firing
}

// NewReminders creates a reminder set from config.
func NewReminders(cfg domain.ReminderConfig) *Reminders {
	r := &Reminders{lastFire: make(map[string]int)}
	r.Configure(cfg)
	return r
}

// Configure applies new settings.
func (r *Reminders) Configure(cfg domain.ReminderConfig) {
	r.cfg = cfg
	r.cfg.Items = append([]domain.ReminderItem(nil), cfg.Items...)
}

// Check returns the reminder due at elapsed seconds, if any. Calm mode
// holds every reminder back until its threshold.
func (r *Reminders) Check(elapsed int) (domain.ReminderItem, bool) {
	if !r.cfg.Enabled || elapsed <= 0 {
		return domain.ReminderItem{}, false
	}
	if r.cfg.CalmMode.Enabled && elapsed < r.cfg.CalmMode.UntilSeconds {
		return domain.ReminderItem{}, false
	}
	for _, item := range r.cfg.Items {
		if !item.Enabled || item.IntervalSeconds <= 0 {
			continue
		}
		if elapsed-r.lastFire[item.Key] >= item.IntervalSeconds {
			r.lastFire[item.Key] = elapsed
			return item, true
		}
	}
	return domain.ReminderItem{}, false
}

// Reset restarts every interval from zero.
func (r *Reminders) Reset() {
	clear(r.lastFire)
}
