package cli

import (
	"github.com/spf13/cobra"
	"github.com/veedubyou/stem-splitter/src/shared/config"
	"github.com/veedubyou/stem-splitter/src/shared/config/envvar"
	"github.com/veedubyou/stem-splitter/src/shared/lib/env"
	"github.com/veedubyou/stem-splitter/src/shared/lib/logging"
	sessionentity "github.com/veedubyou/stem-splitter/src/shared/session/entity"
)

// Options holds what the commands reach outside the process for
type Options struct {
	FindBin      func(bin string) (string, error)
	SessionStore func() sessionentity.Store
}

func DefaultOptions() Options {
	return Options{
		FindBin:      config.FindBin,
		SessionStore: sessionStoreFromEnv,
	}
}

func NewRootCommand(options Options) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Operator tools for the stem splitter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// logs go to stderr so stdout stays the command's output
			_, err := logging.Setup(logging.Config{
				Environment: env.Get(),
				Level:       logLevel,
			})
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envvar.Get(envvar.LOG_LEVEL, "warn"), "Minimum log level")

	rootCmd.AddCommand(newDepsCommand(options))
	rootCmd.AddCommand(newSweepCommand(options))

	return rootCmd
}
