// Package notify delivers coach messages and audio cues: a terminal text
// notifier, a message feed for the overlay, and an oto-backed cue player.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Notifier = (*Text)(nil)
	_ domain.Notifier = (*Feed)(nil)
	_ domain.Notifier = Multi(nil)
)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	cyan  = "\033[36m"
)

// PrintFunc prints one formatted line.
type PrintFunc func(format string, a ...interface{})

// Text writes notifications as coloured terminal lines.
type Text struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewText creates a text notifier. If printFn is nil, fmt.Printf is used.
func NewText(log *logger.Logger, printFn PrintFunc) *Text {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &Text{log: log, printFn: printFn}
}

// Notify prints a normal notification.
func (n *Text) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s%s%s%s", cyan, bold, message, reset)
	return nil
}

// NotifyUrgent prints an urgent notification in bold red.
func (n *Text) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s%s%s%s", red, bold, message, reset)
	return nil
}

// Message is one notification held by a Feed.
type Message struct {
	Text   string
	Urgent bool
	At     time.Time
}

// Feed queues notifications for a consumer such as the overlay. When the
// consumer falls behind the oldest queued message is dropped; Notify never
// blocks the caller.
type Feed struct {
	ch  chan Message
	now func() time.Time
}

// NewFeed creates a feed holding up to size unread messages.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = 1
	}
	return &Feed{ch: make(chan Message, size), now: time.Now}
}

// Messages is the channel the consumer reads from.
func (f *Feed) Messages() <-chan Message { return f.ch }

// Notify queues a normal message.
func (f *Feed) Notify(ctx context.Context, message string) error {
	f.push(Message{Text: message, At: f.now()})
	return nil
}

// NotifyUrgent queues an urgent message.
func (f *Feed) NotifyUrgent(ctx context.Context, message string) error {
	f.push(Message{Text: message, Urgent: true, At: f.now()})
	return nil
}

func (f *Feed) push(m Message) {
	for {
		select {
		case f.ch <- m:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// Multi fans a notification out to several notifiers.
type Multi []domain.Notifier

// Notify delivers to every notifier and joins their errors.
func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyUrgent delivers to every notifier and joins their errors.
func (m Multi) NotifyUrgent(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyUrgent(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
