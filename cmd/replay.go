package cmd

import (
	"fmt"
	"io/ioutil"

	"github.com/josephlewis42/shellmock/core/logger"
	"github.com/josephlewis42/shellmock/core/normalize"
	"github.com/josephlewis42/shellmock/core/replay"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newReplayCmd answers a call of a stubbed command, it is run by the stubs
func newReplayCmd(opts *rootOptions) *cobra.Command {
	var (
		stdin     string
		stdinFile string
	)

	cmd := &cobra.Command{
		Use:   "replay COMMAND [-- ARGS...]",
		Short: "Answer a call of a stubbed command.",
		Long: `Answer a call of a stubbed command using the registered expectations.

The answer is reported through the exit code and standard output:

  99  no expectation matched
  98  SCRIPT|<script>  run the script
  97  SOURCE|<script>  source the script
  96  shellmock failed, e.g. the record store is corrupt
  otherwise the registered output is printed and its status returned`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return infraError(err)
			}

			if cmd.Flags().Changed("stdin-file") {
				data, err := readInput(cmd, stdinFile)
				if err != nil {
					return infraError(err)
				}
				stdin = string(data)
			}

			backend, debugLogger, closer, err := openStore(cfg)
			if err != nil {
				return infraError(err)
			}
			defer closer()

			command := args[0]
			rawArgs := normalize.Join(args[1:])
			call := logger.Call{Command: command, Args: rawArgs, Stdin: stdin}

			result, err := replay.New(backend, debugLogger).Replay(command, rawArgs, stdin)
			if err == nil {
				call.ExitCode, err = replay.Write(cmd.OutOrStdout(), result)
				call.Result = replay.Describe(result)
				_, call.NoMatch = result.(replay.NoMatch)
			}
			if err != nil {
				call.ExitCode = replay.ExitInfraError
				call.Error = err.Error()
			}
			debugLogger.Printf("replay: cmd: %s action: %s", command, call.Result)

			if logErr := recordCall(cfg.OpenCallLog, call); logErr != nil && err == nil {
				err = logErr
				call.ExitCode = replay.ExitInfraError
			}

			switch {
			case err != nil:
				return infraError(err)
			case call.ExitCode != 0:
				return &exitError{code: call.ExitCode}
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&stdin, "stdin", "", "standard input the stub received")
	cmd.Flags().StringVar(&stdinFile, "stdin-file", "", `read the stub's standard input from a file, "-" reads this process' input`)

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return ioutil.ReadAll(cmd.InOrStdin())
	}
	return ioutil.ReadFile(path)
}

func recordCall(open func() (afero.File, error), call logger.Call) error {
	fd, err := open()
	if err != nil {
		return fmt.Errorf("call log: %w", err)
	}
	defer fd.Close()

	return logger.NewJSONLinesLogRecorder(fd).LogCall(call)
}
