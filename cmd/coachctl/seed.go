// AngelaMos | 2026
// seed.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/gamification"
)

func newSeedCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data",
	}

	var file string
	achievements := &cobra.Command{
		Use:   "achievements",
		Short: "Create missing achievements from the built-in or a YAML catalog",
		Example: `  coachctl seed achievements
  coachctl seed achievements --file deploy/achievements.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := gamification.DefaultAchievements
			if file != "" {
				loaded, err := gamification.LoadCatalog(file)
				if err != nil {
					return err
				}
				catalog = loaded
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}

			db, err := core.NewDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // best-effort close after run

			svc := gamification.NewService(gamification.NewRepository(db.DB), nil, cfg.Gamification)
			res, err := svc.SeedAchievements(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "achievements created: %d skipped: %d\n", res.Created, res.Skipped)
			return nil
		},
	}
	achievements.Flags().StringVar(&file, "file", "", "YAML catalog with an achievements list")

	cmd.AddCommand(achievements)
	return cmd
}
