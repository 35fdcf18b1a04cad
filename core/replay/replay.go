// Package replay resolves an actual invocation of a stubbed command against
// its registered captures.
package replay

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strings"

	"github.com/josephlewis42/shellmock/core/mock"
	"github.com/josephlewis42/shellmock/core/normalize"
	"github.com/josephlewis42/shellmock/core/store"
)

// Result is the outcome of a replay. It is one of NoMatch, Forward, Source
// or Completed.
type Result interface {
	isResult()
}

// NoMatch means no capture satisfied the invocation.
type NoMatch struct{}

// Forward asks the shim to run Script and propagate its exit code.
type Forward struct {
	Script string
}

// Source asks the shim to source Script into its own shell and propagate its
// exit code.
type Source struct {
	Script string
}

// Completed carries canned output and the exit status to report.
type Completed struct {
	// Output is nil when the capture registered no output.
	Output *string
	Status int
}

func (NoMatch) isResult()   {}
func (Forward) isResult()   {}
func (Source) isResult()    {}
func (Completed) isResult() {}

// argsPlaceholder in a forward script is replaced by the invocation's args.
const argsPlaceholder = "{}"

// Engine replays invocations against a Store.
type Engine struct {
	store  store.Store
	logger *log.Logger
}

// New creates an engine. A nil logger discards debug output.
func New(s store.Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Engine{store: s, logger: logger}
}

// Replay selects the capture to serve for the invocation and advances the
// cursor for its (command, args, stdin) key. Captures matching the same key
// are served round-robin in registration order.
func (e *Engine) Replay(command, rawArgs, rawStdin string) (Result, error) {
	args, err := normalize.Args(rawArgs)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	stdin, err := normalize.Args(rawStdin)
	if err != nil {
		return nil, fmt.Errorf("stdin: %w", err)
	}
	e.logger.Printf("replay: cmd: %s args: *%s* stdin: *%s*", command, args, stdin)

	matches, err := e.matching(command, args, stdin)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		e.logger.Printf("replay: cmd: %s no match", command)
		return NoMatch{}, nil
	}

	state, err := store.LookupState(e.store, command, args, stdin)
	if err != nil {
		return nil, err
	}

	// The cursor may point past the match set if it shrank since the last
	// call; restart the cycle.
	idx := state.NextIdx
	if idx < 0 || idx >= len(matches) {
		idx = 0
	}
	selected := matches[idx]
	if err := selected.Validate(); err != nil {
		return nil, fmt.Errorf("capture %d for %q: %w", idx, command, err)
	}
	e.logger.Printf("replay: cmd: %s match count: %d selected: %d", command, len(matches), idx)

	state.NextIdx = idx + 1
	if err := e.store.UpsertState(state); err != nil {
		return nil, err
	}

	return resolve(selected, args), nil
}

func (e *Engine) matching(command, args, stdin string) ([]mock.Capture, error) {
	captures, err := e.store.LoadCaptures(command)
	if err != nil {
		return nil, err
	}

	var matches []mock.Capture
	for _, c := range captures {
		ok, err := c.Matches(args, stdin)
		if err != nil {
			return nil, fmt.Errorf("capture for %q: %w", command, err)
		}
		if ok {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func resolve(c mock.Capture, args string) Result {
	switch a := c.Action.(type) {
	case mock.Forward:
		return Forward{Script: strings.ReplaceAll(a.Script, argsPlaceholder, args)}
	case mock.Source:
		return Source{Script: a.Script}
	case mock.Output:
		status := 0
		if a.Status != nil {
			status = *a.Status
		}
		return Completed{Output: a.Output, Status: status}
	default:
		// Unreachable for decoded captures.
		return NoMatch{}
	}
}

// Exit codes reported to the shim.
const (
	ExitNoMatch    = 99
	ExitForward    = 98
	ExitSource     = 97
	ExitInfraError = 96
)

const (
	forwardPrefix = "SCRIPT|"
	sourcePrefix  = "SOURCE|"
)

// Write renders r to w using the shim protocol and returns the exit code the
// process should report.
func Write(w io.Writer, r Result) (int, error) {
	switch res := r.(type) {
	case NoMatch:
		return ExitNoMatch, nil
	case Forward:
		_, err := fmt.Fprintln(w, forwardPrefix+res.Script)
		return ExitForward, err
	case Source:
		_, err := fmt.Fprintln(w, sourcePrefix+res.Script)
		return ExitSource, err
	case Completed:
		if res.Output != nil {
			if _, err := fmt.Fprintf(w, "%s\n\n", *res.Output); err != nil {
				return ExitInfraError, err
			}
		}
		return res.Status, nil
	default:
		return ExitInfraError, fmt.Errorf("unknown replay result %T", r)
	}
}

// Describe summarizes a result for logs.
func Describe(r Result) string {
	switch res := r.(type) {
	case NoMatch:
		return "no match"
	case Forward:
		return "forward: " + res.Script
	case Source:
		return "source: " + res.Script
	case Completed:
		if res.Output == nil {
			return fmt.Sprintf("status: %d", res.Status)
		}
		return fmt.Sprintf("status: %d output: %q", res.Status, *res.Output)
	default:
		return fmt.Sprintf("%T", r)
	}
}
