// Package display provides the terminal overlay using Bubble Tea.
//
// The [UI] renders the latest engine snapshot and turns key presses into
// actions. Coach messages are printed above the rendered area via
// Program.Println so they form a scrollback log.
package display

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/engine"
	"github.com/hammamikhairi/buildpace/internal/hotkey"
	"github.com/hammamikhairi/buildpace/internal/notify"
)

// SendFunc delivers an action to the event loop. It may block, so the UI
// always calls it from a command goroutine.
type SendFunc func(domain.Action)

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely call
// [UI.Println] and [UI.Printf] at any time.
type UI struct {
	program  *tea.Program
	keys     *hotkey.Keymap
	send     SendFunc
	snaps    <-chan engine.Snapshot
	messages <-chan notify.Message
	quitCh   chan struct{}
	done     atomic.Bool
}

// NewUI creates the display. messages may be nil.
func NewUI(keys *hotkey.Keymap, send SendFunc, snaps <-chan engine.Snapshot, messages <-chan notify.Message) *UI {
	return &UI{
		keys:     keys,
		send:     send,
		snaps:    snaps,
		messages: messages,
		quitCh:   make(chan struct{}),
	}
}

// Println prints a line above the overlay. Falls back to fmt.Println
// before the program starts or after it exits.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the overlay.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	u.program = tea.NewProgram(newModel(u.keys, u.send, u.snaps, u.messages))
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Key bindings ─────────────────────────────────────────────────

var hotkeyHelp = map[string]string{
	"previous_step":        "back",
	"next_step":            "next",
	"cycle_build_order":    "cycle order",
	"toggle_click_through": "click-through",
	"toggle_compact":       "compact",
	"reset_build_order":    "reset",
	"toggle_pause":         "pause",
	"dismiss_badges":       "dismiss",
	"activate_branch_main": "main line",
	"activate_branch_1":    "branch 1",
	"activate_branch_2":    "branch 2",
	"activate_branch_3":    "branch 3",
	"activate_branch_4":    "branch 4",
}

type keyMap struct {
	hotkeys []key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap(km *hotkey.Keymap) keyMap {
	k := keyMap{
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
	for _, b := range km.Bindings() {
		k.hotkeys = append(k.hotkeys, key.NewBinding(
			key.WithKeys(b.Key),
			key.WithHelp(b.Label, hotkeyHelp[b.Name]),
		))
	}
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	n := 3
	if len(k.hotkeys) < n {
		n = len(k.hotkeys)
	}
	return append(append([]key.Binding(nil), k.hotkeys[:n]...), k.Help, k.Quit)
}

func (k keyMap) FullHelp() [][]key.Binding {
	var cols [][]key.Binding
	for i := 0; i < len(k.hotkeys); i += 5 {
		end := i + 5
		if end > len(k.hotkeys) {
			end = len(k.hotkeys)
		}
		cols = append(cols, k.hotkeys[i:end])
	}
	return append(cols, []key.Binding{k.Help, k.Quit})
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	hotkeys  *hotkey.Keymap
	keys     keyMap
	help     help.Model
	send     SendFunc
	snaps    <-chan engine.Snapshot
	messages <-chan notify.Message

	snap  engine.Snapshot
	ready bool
	width int
	now   time.Time
}

// Messages.
type (
	snapshotMsg engine.Snapshot
	feedMsg     notify.Message
	closedMsg   struct{}
	clockMsg    time.Time
)

func newModel(km *hotkey.Keymap, send SendFunc, snaps <-chan engine.Snapshot, messages <-chan notify.Message) model {
	return model{
		hotkeys:  km,
		keys:     newKeyMap(km),
		help:     help.New(),
		send:     send,
		snaps:    snaps,
		messages: messages,
		now:      time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitSnapshot(m.snaps),
		waitMessage(m.messages),
		clockCmd(),
	)
}

func waitSnapshot(ch <-chan engine.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(s)
	}
}

func waitMessage(ch <-chan notify.Message) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return feedMsg(msg)
	}
}

// clockCmd redraws twice a second so status lines and the metronome
// pulse expire even when no snapshot arrives.
func clockCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func (m model) dispatch(a domain.Action) tea.Cmd {
	send := m.send
	return func() tea.Msg {
		send(a)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Sequence(m.dispatch(domain.Action{Type: domain.ActionQuit}), tea.Quit)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if a, ok := m.hotkeys.Lookup(msg.String()); ok {
			return m, m.dispatch(a)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = engine.Snapshot(msg)
		m.ready = true
		if m.snap.Hotkeys != (domain.HotkeyConfig{}) {
			if km := m.hotkeys.Rebind(m.snap.Hotkeys); km != m.hotkeys {
				m.hotkeys = km
				m.keys = newKeyMap(km)
			}
		}
		return m, waitSnapshot(m.snaps)

	case feedMsg:
		line := chatStyle.Render("  " + msg.Text)
		if msg.Urgent {
			line = urgentStyle.Render("  " + msg.Text)
		}
		stamp := secondaryStyle.Render(msg.At.Format("15:04:05"))
		return m, tea.Batch(tea.Println(stamp+line), waitMessage(m.messages))

	case closedMsg:
		return m, tea.Quit

	case clockMsg:
		m.now = time.Time(msg)
		return m, clockCmd()
	}
	return m, nil
}

func (m model) View() string {
	if !m.ready {
		return secondaryStyle.Render("  loading build orders…")
	}
	return render(m.snap, m.width, m.now) + "\n" + m.help.View(m.keys)
}
