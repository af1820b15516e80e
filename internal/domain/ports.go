package domain

import "context"

// BuildOrderStore persists build orders. Implementations can be in-memory
// or file-based. Every successful mutation publishes one
// EventBuildOrdersChanged.
type BuildOrderStore interface {
	List(ctx context.Context) ([]BuildOrder, error)
	Save(ctx context.Context, order *BuildOrder) error
	Delete(ctx context.Context, id string) error
}

// ConfigStore persists the app configuration. Save publishes one
// EventConfigChanged.
type ConfigStore interface {
	Load(ctx context.Context) (AppConfig, error)
	Save(ctx context.Context, cfg AppConfig) error
}

// HistoryStore persists finished sessions, newest first.
type HistoryStore interface {
	Append(ctx context.Context, rec SessionRecord, limit int) error
	List(ctx context.Context, limit int) ([]SessionRecord, error)
	Clear(ctx context.Context) error
}

// Publisher broadcasts change events to every subscriber, in this process
// or another window.
type Publisher interface {
	Publish(name string, payload any)
}

// Notifier delivers messages to the user. Implementations can write to the
// terminal UI or stdout.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// CuePlayer plays short audio cues. The no-op implementation is used when
// no audio device is available.
type CuePlayer interface {
	Play(ctx context.Context, cue Cue) error
}
