package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/storage"
	"github.com/hammamikhairi/buildpace/internal/timing"
)

var (
	historyLimit int
	historyClear bool
	configWrite  bool
)

// withApp opens the stores for a subcommand and closes them afterwards.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log, closeLog := openLog()
		defer closeLog()

		a, err := openApp(cmd.Context(), log)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored build orders",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			orders, err := a.orders.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no build orders in %s\n", a.orders.Dir())
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCIV\tSTEPS\tBRANCHES\tENABLED")
			for _, o := range orders {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%t\n", o.ID, o.DisplayName(), o.Civilization, len(o.Steps), len(o.Branches), o.Enabled)
			}
			return w.Flush()
		}),
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import build orders from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ids, err := a.orders.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", id)
			}
			return nil
		}),
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a build order file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			orders, err := storage.DecodeBuildOrders(data)
			if err != nil {
				return err
			}

			var errs []error
			for i := range orders {
				if err := domain.ValidateBuildOrder(&orders[i]); err != nil {
					errs = append(errs, fmt.Errorf("order %d (%s): %w", i+1, orders[i].ID, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok  %s (%d steps)\n", orders[i].ID, len(orders[i].Steps))
			}
			return errors.Join(errs...)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sessions",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if historyClear {
				if err := a.history.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}

			records, err := a.history.List(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tBUILD ORDER\tSTEPS\tLAST DELTA")
			for _, rec := range records {
				last := "-"
				if n := len(rec.Steps); n > 0 {
					last = timing.FormatDelta(rec.Steps[n-1].DeltaSeconds)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", rec.StartedAt.Local().Format("2006-01-02 15:04"), rec.BuildOrderName, len(rec.Steps), last)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&historyLimit, "last", 10, "number of sessions to show (0 for all)")
	cmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded sessions")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			cfg, err := a.configs.Load(cmd.Context())
			if err != nil {
				return err
			}
			if configWrite {
				if err := a.configs.Save(cmd.Context(), cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configs.Path())
				return nil
			}

			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.configs.Path(), buf.String())
			return nil
		}),
	}
	cmd.Flags().BoolVar(&configWrite, "write", false, "write the effective config (defaults filled in) to disk")
	return cmd
}
