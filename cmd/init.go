package cmd

import (
	"log"

	"github.com/josephlewis42/shellmock/core/config"
	"github.com/spf13/cobra"
)

// newInitCmd intializes the stub directory
func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the stub directory for the test directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logger := log.New(cmd.ErrOrStderr(), "", 0)

			cfg, err := config.Initialize(opts.testDir, logger)
			if err != nil {
				return err
			}

			logger.Printf("Add %s to the front of PATH to use the stubs.", cfg.StubDir())
			return nil
		},
	}
}
