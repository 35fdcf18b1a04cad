package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/josephlewis42/shellmock/core/config"
	"github.com/josephlewis42/shellmock/core/match"
	"github.com/josephlewis42/shellmock/core/mock"
	"github.com/josephlewis42/shellmock/core/shim"
	"github.com/spf13/cobra"
)

type expectFlags struct {
	sourceScript   string
	execScript     string
	argsMatchType  string
	stdinMatchType string
	matchArgs      string
	matchStdin     string
	status         int
	output         string
	binary         string
}

// newExpectCmd registers an expectation and writes the stub for it
func newExpectCmd(opts *rootOptions) *cobra.Command {
	flags := &expectFlags{}

	cmd := &cobra.Command{
		Use:   "expect COMMAND",
		Short: "Register an expected call of COMMAND and how to answer it.",
		Long: `Register an expected call of COMMAND and how to answer it.

Expectations for the same command are kept in registration order. When
several match the same call they are replayed round-robin.`,
		Example: `  shellmock expect cp --match-args "a b" --output ok
  shellmock expect git -t partial -m push --exec /usr/bin/git
  shellmock expect env -t regex -m '.*' --source ./fixtures/env.sh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logger := log.New(cmd.ErrOrStderr(), "", 0)
			cfg, err := config.LoadOrInitialize(opts.testDir, logger)
			if err != nil {
				return err
			}
			if opts.debug {
				cfg.Debug = true
			}

			capture, err := flags.capture(cmd, cfg, args[0])
			if err != nil {
				return err
			}

			backend, debugLogger, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			debugLogger.Printf("expect: %s args: *%s* (%s) stdin: *%s* (%s) type: %s",
				capture.Command,
				capture.MatchArgs, capture.ArgsMatchType,
				capture.MatchStdin, capture.StdinMatchType,
				capture.Action.StubType())
			if err := backend.AppendCapture(capture); err != nil {
				return err
			}

			binary := flags.binary
			if binary == "" {
				if binary, err = os.Executable(); err != nil {
					return err
				}
			}

			if err := shim.Write(cfg.Fs(), shim.Options{
				Command: capture.Command,
				Binary:  binary,
				StubDir: cfg.StubDir(),
				Shell:   cfg.Shell,
			}); err != nil {
				return err
			}
			debugLogger.Printf("expect: wrote stub %s", cfg.ShimPath(capture.Command))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.sourceScript, "source", "S", "", "source the provided script when matched")
	f.StringVarP(&flags.execScript, "exec", "e", "", "execute the provided script when matched, {} is replaced by the args")
	f.StringVarP(&flags.argsMatchType, "args-match-type", "t", "", "partial, exact, or regex for argument list matching")
	f.StringVarP(&flags.stdinMatchType, "stdin-match-type", "T", "", "partial, exact, or regex for stdin input matching")
	f.StringVarP(&flags.matchArgs, "match-args", "m", "", "argument list to use in matching")
	f.StringVarP(&flags.matchStdin, "match-stdin", "M", "", "stdin to use in matching")
	f.IntVarP(&flags.status, "status", "s", 0, "status to return from the stub")
	f.StringVarP(&flags.output, "output", "o", "", "simulated output to return")
	f.StringVar(&flags.binary, "binary", "", "shellmock executable called by the stub (default: this executable)")

	return cmd
}

// capture builds the expectation described by the flags.
func (f *expectFlags) capture(cmd *cobra.Command, cfg *config.Configuration, command string) (mock.Capture, error) {
	changed := cmd.Flags().Changed

	if changed("exec") && changed("source") {
		return mock.Capture{}, errors.New("--exec and --source can't be used together")
	}

	argsType, err := cfg.ArgsMatchType()
	if changed("args-match-type") {
		argsType, err = match.Parse(f.argsMatchType)
	}
	if err != nil {
		return mock.Capture{}, fmt.Errorf("args match type: %w", err)
	}

	stdinType, err := cfg.StdinMatchType()
	if changed("stdin-match-type") {
		stdinType, err = match.Parse(f.stdinMatchType)
	}
	if err != nil {
		return mock.Capture{}, fmt.Errorf("stdin match type: %w", err)
	}

	matchArgs, err := mock.NormalizeExpected(argsType, f.matchArgs)
	if err != nil {
		return mock.Capture{}, fmt.Errorf("match args: %w", err)
	}
	matchStdin, err := mock.NormalizeExpected(stdinType, f.matchStdin)
	if err != nil {
		return mock.Capture{}, fmt.Errorf("match stdin: %w", err)
	}

	var action mock.Action
	switch {
	case changed("exec"):
		action = mock.Forward{Script: f.execScript}
	case changed("source"):
		action = mock.Source{Script: f.sourceScript}
	default:
		out := mock.Output{}
		if changed("output") {
			output := f.output
			out.Output = &output
		}
		if changed("status") {
			status := f.status
			out.Status = &status
		}
		action = out
	}

	capture := mock.Capture{
		Command:        command,
		MatchArgs:      matchArgs,
		MatchStdin:     matchStdin,
		ArgsMatchType:  argsType,
		StdinMatchType: stdinType,
		Action:         action,
	}
	if err := capture.Validate(); err != nil {
		return mock.Capture{}, err
	}
	return capture, nil
}
