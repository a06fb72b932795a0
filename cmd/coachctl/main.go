// AngelaMos | 2026
// main.go

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/coachforge/platform/internal/config"
)

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "coachctl",
		Short:        "Operate the coaching platform",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(
		newMigrateCmd(opts),
		newKeysCmd(),
		newSeedCmd(opts),
	)
	return root
}

func (o *options) load() (*config.Config, error) {
	return config.Load(o.configPath)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
