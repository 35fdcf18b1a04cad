// Package mock defines the records persisted for a stubbed command: the
// expectations registered for it and the replay cursors.
package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/shellmock/core/match"
	"github.com/josephlewis42/shellmock/core/normalize"
)

// Action is what happens when a capture is selected for replay. It is one of
// Output, Forward or Source.
type Action interface {
	// StubType is the persisted name of the action.
	StubType() string

	isAction()
}

// Output replays canned output and an exit status.
type Output struct {
	Output *string
	Status *int
}

// Forward asks the shim to run Script and propagate its exit code.
type Forward struct {
	Script string
}

// Source asks the shim to source Script into its own shell.
type Source struct {
	Script string
}

const (
	StubTypeNormal  = "NORMAL"
	StubTypeForward = "FORWARD"
	StubTypeSource  = "SOURCE"
)

func (Output) StubType() string  { return StubTypeNormal }
func (Forward) StubType() string { return StubTypeForward }
func (Source) StubType() string  { return StubTypeSource }

func (Output) isAction()  {}
func (Forward) isAction() {}
func (Source) isAction()  {}

// Exit statuses a stub can return. 96 to 99 carry the replay protocol and
// can't be registered as canned statuses.
const (
	maxStatus          = 255
	reservedStatusLow  = 96
	reservedStatusHigh = 99
)

// ErrInvalidStatus is returned for canned statuses a process can't exit with
// or that the replay protocol reserves.
var ErrInvalidStatus = errors.New("invalid status")

// Capture is a single registered expectation for a command.
type Capture struct {
	Command        string `validate:"required,excludesall=/\\"`
	MatchArgs      string
	MatchStdin     string
	ArgsMatchType  match.Type
	StdinMatchType match.Type
	Action         Action `validate:"required"`
}

// Validate checks the capture for errors that would otherwise only surface
// when the command is replayed.
func (c *Capture) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.ToLower(fld.Name)
	})
	if err := validate.Struct(c); err != nil {
		return err
	}

	if err := c.ArgsMatchType.Validate(c.MatchArgs); err != nil {
		return fmt.Errorf("args: %w", err)
	}
	if err := c.StdinMatchType.Validate(c.MatchStdin); err != nil {
		return fmt.Errorf("stdin: %w", err)
	}

	switch a := c.Action.(type) {
	case Output:
		if a.Status != nil {
			return validateStatus(*a.Status)
		}
	case Forward:
		if a.Script == "" {
			return fmt.Errorf("forward stub for %q has no script", c.Command)
		}
	case Source:
		if a.Script == "" {
			return fmt.Errorf("source stub for %q has no script", c.Command)
		}
	}
	return nil
}

func validateStatus(status int) error {
	switch {
	case status < 0 || status > maxStatus:
		return fmt.Errorf("%w %d: must be between 0 and %d", ErrInvalidStatus, status, maxStatus)
	case status >= reservedStatusLow && status <= reservedStatusHigh:
		return fmt.Errorf("%w %d: %d-%d are reserved for replay", ErrInvalidStatus, status, reservedStatusLow, reservedStatusHigh)
	default:
		return nil
	}
}

// Matches reports whether normalized args and stdin satisfy the capture.
// Stdin is only checked if the args match.
func (c *Capture) Matches(args, stdin string) (bool, error) {
	ok, err := matches(c.ArgsMatchType, args, c.MatchArgs)
	if err != nil || !ok {
		return false, err
	}

	return matches(c.StdinMatchType, stdin, c.MatchStdin)
}

// NormalizeExpected renders a registered match value for its policy. Regex
// values keep their backslashes, see normalize.Pattern.
func NormalizeExpected(t match.Type, raw string) (string, error) {
	if t == match.Regex {
		return normalize.Pattern(raw)
	}
	return normalize.Args(raw)
}

// matches compares regex policies against the unescaped rendering of actual,
// the form their patterns are registered in.
func matches(t match.Type, actual, expected string) (bool, error) {
	if t == match.Regex {
		var err error
		if actual, err = normalize.Pattern(actual); err != nil {
			return false, err
		}
	}
	return t.Matches(actual, expected)
}

// captureJSON is the on-disk layout. Fields are kept in alphabetical order so
// the files diff cleanly between runs.
type captureJSON struct {
	ArgsMatchType  match.Type `json:"args_match_type"`
	Command        string     `json:"command"`
	ExecScript     *string    `json:"exec_script"`
	MatchArgs      string     `json:"match_args"`
	MatchStdin     string     `json:"match_stdin"`
	Output         *string    `json:"output"`
	Status         *int       `json:"status"`
	StdinMatchType match.Type `json:"stdin_match_type"`
	StubType       string     `json:"stub_type"`
}

// MarshalJSON implements json.Marshaler.
func (c Capture) MarshalJSON() ([]byte, error) {
	out := captureJSON{
		ArgsMatchType:  c.ArgsMatchType,
		Command:        c.Command,
		MatchArgs:      c.MatchArgs,
		MatchStdin:     c.MatchStdin,
		StdinMatchType: c.StdinMatchType,
	}

	switch a := c.Action.(type) {
	case Output:
		out.Output = a.Output
		out.Status = a.Status
	case Forward:
		out.ExecScript = &a.Script
	case Source:
		out.ExecScript = &a.Script
	default:
		return nil, fmt.Errorf("capture for %q has unknown action %T", c.Command, c.Action)
	}
	out.StubType = c.Action.StubType()

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Capture) UnmarshalJSON(data []byte) error {
	var in captureJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	script := ""
	if in.ExecScript != nil {
		script = *in.ExecScript
	}

	var action Action
	switch in.StubType {
	case StubTypeNormal:
		action = Output{Output: in.Output, Status: in.Status}
	case StubTypeForward:
		action = Forward{Script: script}
	case StubTypeSource:
		action = Source{Script: script}
	default:
		return fmt.Errorf("unknown stub_type %q", in.StubType)
	}

	*c = Capture{
		Command:        in.Command,
		MatchArgs:      in.MatchArgs,
		MatchStdin:     in.MatchStdin,
		ArgsMatchType:  in.ArgsMatchType,
		StdinMatchType: in.StdinMatchType,
		Action:         action,
	}
	return nil
}

// State is the replay cursor for one (command, args, stdin) key.
type State struct {
	Command    string `json:"command"`
	MatchArgs  string `json:"match_args"`
	MatchStdin string `json:"match_stdin"`
	NextIdx    int    `json:"next_idx"`
}

// SameKey reports whether both states track the same invocation.
func (s State) SameKey(other State) bool {
	return s.Command == other.Command &&
		s.MatchArgs == other.MatchArgs &&
		s.MatchStdin == other.MatchStdin
}
