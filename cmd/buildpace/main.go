// Buildpace is a build order coach for real-time strategy games.
//
// Usage:
//
//	buildpace [--verbose] [--quiet] [--headless]
//	buildpace list | import <file> | validate <file> | history | config
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/buildpace/internal/display"
	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/engine"
	"github.com/hammamikhairi/buildpace/internal/eventbus"
	"github.com/hammamikhairi/buildpace/internal/hotkey"
	"github.com/hammamikhairi/buildpace/internal/logger"
	"github.com/hammamikhairi/buildpace/internal/loop"
	"github.com/hammamikhairi/buildpace/internal/notify"
	"github.com/hammamikhairi/buildpace/internal/storage"
)

const (
	defaultTick     = 250 * time.Millisecond
	defaultPoll     = 2 * time.Second
	feedSize        = 32
	stopGracePeriod = 5 * time.Second
)

// envLogLevel overrides the config log level; flags override both.
const envLogLevel = "BUILDPACE_LOG_LEVEL"

var (
	configPath string
	dataDir    string
	logFile    string
	verbose    bool
	quiet      bool
	noSound    bool
	headless   bool
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "buildpace",
		Short:         "Build order timing coach",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runOverlayCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", storage.DefaultConfigPath(), "path to the TOML config file")
	pf.StringVar(&dataDir, "data-dir", storage.DefaultDataDir(), "directory for build orders and history")
	pf.StringVar(&logFile, "log-file", "", "file to write logs to (default <data-dir>/buildpace.log, \"stderr\" for console)")
	pf.BoolVar(&verbose, "verbose", false, "enable verbose/debug logging")
	pf.BoolVar(&quiet, "quiet", false, "disable all logging")

	addOverlayFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the overlay (default)",
		Args:  cobra.NoArgs,
		RunE:  runOverlayCmd,
	}
	addOverlayFlags(runCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addOverlayFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noSound, "no-sound", false, "disable audio cues")
	cmd.Flags().BoolVar(&headless, "headless", false, "read hotkey event names from stdin instead of drawing the overlay")
}

// openLog configures the logger. Logs go to a file by default so the
// overlay stays clean. The returned func closes the file.
func openLog() (*logger.Logger, func()) {
	level := logger.LevelNormal
	if verbose {
		level = logger.LevelVerbose
	}
	if quiet {
		level = logger.LevelOff
	}

	path := logFile
	if path == "" {
		path = storage.LogPath(dataDir)
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if path != "stderr" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		} else {
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}

	// Third-party libraries log through the standard package.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(level, out), closeFn
}

// app holds the wired stores shared by every command.
type app struct {
	log     *logger.Logger
	bus     *eventbus.Bus
	poller  *storage.Poller
	orders  *storage.FileBuildOrders
	configs *storage.TOMLConfig
	history *storage.SQLiteHistory
}

func openApp(ctx context.Context, log *logger.Logger) (*app, error) {
	bus := eventbus.New(log.Named("bus"))
	poller := storage.NewPoller(bus, log.Named("watch"), defaultPoll)

	orders, err := storage.NewFileBuildOrders(storage.BuildOrderDir(dataDir), log.Named("orders"),
		storage.WithPublisher(bus),
		storage.WithAfterWrite(poller.Refresh),
	)
	if err != nil {
		return nil, err
	}
	if n, err := orders.Seed(ctx, storage.Builtins()); err != nil {
		log.Warn("seeding build orders: %v", err)
	} else if n > 0 {
		log.Info("seeded %d built-in build orders into %s", n, orders.Dir())
	}

	configs := storage.NewTOMLConfig(configPath, bus, log.Named("config"))
	configs.OnWrite(poller.Refresh)

	history, err := storage.OpenSQLiteHistory(storage.HistoryPath(dataDir))
	if err != nil {
		return nil, err
	}

	poller.Add(orders.Dir(), domain.EventBuildOrdersChanged)
	poller.Add(configs.Path(), domain.EventConfigChanged)

	return &app{
		log:     log,
		bus:     bus,
		poller:  poller,
		orders:  orders,
		configs: configs,
		history: history,
	}, nil
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		a.log.Warn("closing history: %v", err)
	}
}

func runOverlayCmd(cmd *cobra.Command, _ []string) error {
	log, closeLog := openLog()
	defer closeLog()

	// Cancelled when the overlay quits.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if !verbose && !quiet {
		if v := os.Getenv(envLogLevel); v != "" {
			log.SetLevel(logger.ParseLevel(v))
		} else if cfg, err := a.configs.Load(ctx); err == nil {
			log.SetLevel(logger.ParseLevel(cfg.LogLevel))
		}
	}

	var cues domain.CuePlayer = notify.NewSilent(log.Named("audio"))
	if !noSound {
		player, err := notify.NewSoundPlayer(log.Named("audio"))
		if err != nil {
			log.Error("audio player init failed, cues disabled: %v", err)
		} else {
			defer player.Stop()
			cues = player
		}
	}

	feed := notify.NewFeed(feedSize)
	var notifier domain.Notifier = notify.Multi{
		feed,
		notify.NewText(log, func(format string, args ...interface{}) {
			log.Info("coach: "+format, args...)
		}),
	}
	if headless {
		notifier = notify.NewText(log, nil)
	}

	eng := engine.New(a.orders, a.configs, log.Named("engine"),
		engine.WithHistory(a.history),
		engine.WithNotifier(notifier),
		engine.WithCuePlayer(cues),
	)
	if err := eng.Load(ctx); err != nil {
		log.Warn("starting with partial state: %v", err)
	}

	// Read before the loop starts; afterwards only the loop touches eng.
	keys := hotkey.NewKeymap(eng.Config().Hotkeys, log.Named("hotkey"))

	lp := loop.New(eng, log.Named("loop"), loop.WithTickInterval(defaultTick))
	stopWatch := lp.Watch(ctx, a.bus, a.orders, a.configs)
	defer stopWatch()

	lp.Start(ctx)
	a.poller.Start(ctx)
	defer a.poller.Stop()

	snaps, unsubscribe := lp.Subscribe()
	defer unsubscribe()

	send := func(act domain.Action) {
		sendCtx, cancelSend := context.WithTimeout(ctx, stopGracePeriod)
		defer cancelSend()
		if err := lp.Send(sendCtx, act); err != nil {
			log.Warn("dropping %s: %v", act.Type, err)
		}
	}

	if headless {
		err = runHeadless(ctx, lp, snaps, send, cmd.InOrStdin(), cmd.OutOrStdout())
	} else {
		fmt.Println(display.RenderBanner("? key bindings · q quit"))
		ui := display.NewUI(keys, send, snaps, feed.Messages())
		err = ui.Run()
	}

	lp.Stop()
	cancel()
	return err
}

// runHeadless drives the loop from hotkey event names on stdin, one per
// line, and prints a line whenever the cursor moves.
func runHeadless(ctx context.Context, lp *loop.Loop, snaps <-chan engine.Snapshot, send display.SendFunc, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lp.Quit():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if line := headlessLine(snap); line != last {
				fmt.Fprintln(out, line)
				last = line
			}
		case line, ok := <-lines:
			if !ok {
				send(domain.Action{Type: domain.ActionQuit})
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			act, ok := hotkey.ParseEvent(line)
			if !ok {
				fmt.Fprintf(out, "unknown event %q\n", line)
				continue
			}
			send(act)
		}
	}
}

func headlessLine(s engine.Snapshot) string {
	switch s.State {
	case domain.StateIdle:
		return "idle"
	case domain.StateCompleted:
		return fmt.Sprintf("%s complete", s.OrderName)
	}
	desc := ""
	if v, ok := s.ActiveStep(); ok {
		desc = v.Step.Description
	}
	line := fmt.Sprintf("%s step %d/%d: %s", s.OrderName, s.StepIndex+1, s.StepCount, desc)
	if s.Delta != "" {
		line += fmt.Sprintf(" (%s %s)", s.Pace, s.DeltaCompact)
	}
	return line
}
