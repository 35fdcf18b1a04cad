package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/shellmock/core/config"
	"github.com/josephlewis42/shellmock/core/replay"
	"github.com/josephlewis42/shellmock/core/store"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	testDir string
	debug   bool
}

func (o *rootOptions) loadConfig(stderr io.Writer) (*config.Configuration, error) {
	configuration, err := config.Load(o.testDir)

	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(stderr, "Couldn't load config: did you run init?")
	}
	if err != nil {
		return nil, err
	}

	if o.debug {
		configuration.Debug = true
	}
	return configuration, nil
}

// openStore opens the configured record store and a debug logger writing to
// the stub directory. The returned func releases both.
func openStore(cfg *config.Configuration) (store.Backend, *log.Logger, func(), error) {
	backend, err := store.Open(cfg.Store, cfg.Fs(), cfg.SQLiteFile())
	if err != nil {
		return nil, nil, nil, err
	}

	debugLog := cfg.OpenDebugLog()
	logger := log.New(debugLog, "debug: ", log.LstdFlags)
	closer := func() {
		backend.Close()
		debugLog.Close()
	}
	return backend, logger, closer, nil
}

// exitError carries a process exit code out of a subcommand. err is printed
// if set.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// newRootCmd represents the base command when called without any subcommands
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "shellmock",
		Short: "Command stubs for shell test suites",
		Long: `Registers expectations for external commands and replays them from
generated stubs placed on the PATH of a bats test.`,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.testDir, "dir", config.DefaultTestDir(), "test directory, stubs are kept in its tmpstubs directory")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write a debug log to the stub directory")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newExpectCmd(opts),
		newReplayCmd(opts),
		newCapturesCmd(opts),
		newVerifyCmd(opts),
		newCleanupCmd(opts),
	)

	return rootCmd
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()

	var exit *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exit):
		if exit.err != nil {
			fmt.Fprintf(stderr, "shellmock: %v\n", exit.err)
		}
		return exit.code
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// Execute runs the command line and exits the process.
// This is called by main.main().
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// infraError marks failures of shellmock itself, as opposed to a test
// calling a stub unexpectedly.
func infraError(err error) error {
	return &exitError{code: replay.ExitInfraError, err: err}
}
