package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/josephlewis42/shellmock/core/config"
	"github.com/spf13/cobra"
)

// newCleanupCmd removes the stub directory
func newCleanupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove the stub directory with its stubs, records and logs.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load(opts.testDir)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}

			return os.RemoveAll(cfg.StubDir())
		},
	}
}
