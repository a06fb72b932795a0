// AngelaMos | 2026
// migrate.go

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coachforge/platform/internal/core"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(fn func(cmd *cobra.Command, mg *core.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			mg, err := core.NewMigrator(cfg.Database.URL)
			if err != nil {
				return err
			}
			defer mg.Close() //nolint:errcheck // best-effort close after run
			return fn(cmd, mg)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, mg *core.Migrator) error {
			if err := mg.Up(); err != nil {
				return err
			}
			return printStatus(cmd, mg)
		}),
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Example: `  coachctl migrate down           # roll back one migration
  coachctl migrate down --steps 3`,
		Args: cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, mg *core.Migrator) error {
			if err := mg.Down(steps); err != nil {
				return err
			}
			return printStatus(cmd, mg)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(printStatus),
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(func(cmd *cobra.Command, mg *core.Migrator) error {
				if err := mg.Force(version); err != nil {
					return err
				}
				return printStatus(cmd, mg)
			})(cmd, args)
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

func printStatus(cmd *cobra.Command, mg *core.Migrator) error {
	st, err := mg.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", st.Version, st.Dirty)
	return nil
}
