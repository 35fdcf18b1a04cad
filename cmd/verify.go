package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/shellmock/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// newVerifyCmd lists the calls the stubs received
func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var (
		report    bool
		unmatched bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "List the calls the stubs received, one COMMAND-ARGS line each.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var calls []*logger.Call
			fd, err := cfg.ReadCallLog()
			switch {
			case errors.Is(err, fs.ErrNotExist):
				// No stub has been called yet.
			case err != nil:
				return err
			default:
				defer fd.Close()
				if err := logger.ReadCallLog(fd, func(c *logger.Call) {
					calls = append(calls, c)
				}); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if report {
				r := logger.NewReport()
				for _, c := range calls {
					r.Update(c)
				}

				out, err := yaml.Marshal(r)
				if err != nil {
					return err
				}
				_, err = w.Write(out)
				return err
			}

			missed := 0
			for _, c := range calls {
				if unmatched && !c.NoMatch {
					continue
				}
				if c.NoMatch {
					missed++
				}
				fmt.Fprintln(w, c.CaptureLine())
			}

			if unmatched && missed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&report, "report", false, "summarize the calls as YAML")
	cmd.Flags().BoolVar(&unmatched, "unmatched", false, "only list calls no expectation matched and fail if there are any")

	return cmd
}
