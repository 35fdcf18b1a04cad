package mock

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/josephlewis42/shellmock/core/match"
	"github.com/josephlewis42/shellmock/core/normalize"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCapture_Validate(t *testing.T) {
	cases := map[string]struct {
		capture Capture
		wantErr bool
	}{
		"normal": {
			capture: Capture{Command: "cp", Action: Output{}},
		},
		"forward": {
			capture: Capture{Command: "cp", Action: Forward{Script: "/bin/cp"}},
		},
		"missing command": {
			capture: Capture{Action: Output{}},
			wantErr: true,
		},
		"command with slash": {
			capture: Capture{Command: "../cp", Action: Output{}},
			wantErr: true,
		},
		"missing action": {
			capture: Capture{Command: "cp"},
			wantErr: true,
		},
		"forward without script": {
			capture: Capture{Command: "cp", Action: Forward{}},
			wantErr: true,
		},
		"source without script": {
			capture: Capture{Command: "cp", Action: Source{}},
			wantErr: true,
		},
		"bad args regex": {
			capture: Capture{Command: "cp", MatchArgs: "(", ArgsMatchType: match.Regex, Action: Output{}},
			wantErr: true,
		},
		"bad stdin regex": {
			capture: Capture{Command: "cp", MatchStdin: "[", StdinMatchType: match.Regex, Action: Output{}},
			wantErr: true,
		},
		"zero status": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(0)}},
		},
		"max status": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(255)}},
		},
		"status below reserved": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(95)}},
		},
		"status too large": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(256)}},
			wantErr: true,
		},
		"negative status": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(-1)}},
			wantErr: true,
		},
		"infra status": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(96)}},
			wantErr: true,
		},
		"forward status": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(98)}},
			wantErr: true,
		},
		"no match status": {
			capture: Capture{Command: "cp", Action: Output{Status: intPtr(99)}},
			wantErr: true,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			err := tc.capture.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCapture_ValidateRegexError(t *testing.T) {
	c := Capture{Command: "cp", MatchArgs: "(", ArgsMatchType: match.Regex, Action: Output{}}
	assert.True(t, errors.Is(c.Validate(), match.ErrInvalidRegex))
}

func TestCapture_ValidateStatusError(t *testing.T) {
	c := Capture{Command: "ls", Action: Output{Output: strPtr("x"), Status: intPtr(97)}}
	assert.True(t, errors.Is(c.Validate(), ErrInvalidStatus))
}

func TestCapture_MatchesRegexEscapes(t *testing.T) {
	pattern, err := NormalizeExpected(match.Regex, `^v\\d+`)
	assert.NoError(t, err)
	assert.Equal(t, `^v\d+`, pattern)

	c := Capture{
		Command:        "git",
		MatchArgs:      pattern,
		ArgsMatchType:  match.Regex,
		MatchStdin:     `^\w+\.txt$`,
		StdinMatchType: match.Regex,
		Action:         Output{},
	}
	assert.NoError(t, c.Validate())

	cases := map[string]struct {
		args  string
		stdin string
		want  bool
	}{
		"digits":        {"v12", "notes.txt", true},
		"no digits":     {"vx", "notes.txt", false},
		"literal dot":   {"v1", "notesxtxt", false},
		"quoted stdin":  {"v1", `"notes.txt"`, true},
		"multiple args": {"v1 --tags", "a.txt", true},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ok, err := c.Matches(tc.args, tc.stdin)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestNormalizeExpected(t *testing.T) {
	exact, err := NormalizeExpected(match.Exact, `'a\b' "c d"`)
	assert.NoError(t, err)
	assert.Equal(t, `a\\b "c d"`, exact)

	regex, err := NormalizeExpected(match.Regex, `'a\b' "c d"`)
	assert.NoError(t, err)
	assert.Equal(t, `a\b "c d"`, regex)

	_, err = NormalizeExpected(match.Regex, `"unterminated`)
	assert.True(t, errors.Is(err, normalize.ErrMalformedInput))
}

func TestCapture_Matches(t *testing.T) {
	c := Capture{
		Command:        "git",
		MatchArgs:      "commit",
		ArgsMatchType:  match.Partial,
		MatchStdin:     "",
		StdinMatchType: match.Exact,
		Action:         Output{},
	}

	ok, err := c.Matches(`commit -m "a message"`, "")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Matches("push", "")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Matches("commit", "unexpected")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCapture_MatchesShortCircuits(t *testing.T) {
	// The stdin regex is broken, but it is never evaluated when the args
	// don't match.
	c := Capture{
		Command:        "git",
		MatchArgs:      "push",
		MatchStdin:     "(",
		StdinMatchType: match.Regex,
		Action:         Output{},
	}

	ok, err := c.Matches("pull", "")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Matches("push", "")
	assert.True(t, errors.Is(err, match.ErrInvalidRegex))
}

func TestCapture_JSON(t *testing.T) {
	cases := map[string]Capture{
		"normal with output": {
			Command:        "cp",
			MatchArgs:      `"a b" c`,
			MatchStdin:     `d "e f"`,
			ArgsMatchType:  match.Exact,
			StdinMatchType: match.Partial,
			Action:         Output{Output: strPtr("ok"), Status: intPtr(0)},
		},
		"normal without status": {
			Command: "cp",
			Action:  Output{Output: strPtr("ok")},
		},
		"forward": {
			Command:       "cp",
			ArgsMatchType: match.Regex,
			MatchArgs:     ".*",
			Action:        Forward{Script: "/bin/real-cp"},
		},
		"source": {
			Command: "cp",
			Action:  Source{Script: "./fixture.sh"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			data, err := json.Marshal(tc)
			assert.NoError(t, err)

			var decoded Capture
			assert.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tc, decoded)
		})
	}
}

func TestCapture_JSONLayout(t *testing.T) {
	c := Capture{
		Command:        "cp",
		MatchArgs:      "x",
		StdinMatchType: match.Regex,
		Action:         Forward{Script: "/bin/real-cp"},
	}

	data, err := json.Marshal(c)
	assert.NoError(t, err)
	assert.JSONEq(t, `{
		"args_match_type": "exact",
		"command": "cp",
		"exec_script": "/bin/real-cp",
		"match_args": "x",
		"match_stdin": "",
		"output": null,
		"status": null,
		"stdin_match_type": "regex",
		"stub_type": "FORWARD"
	}`, string(data))
}

func TestCapture_JSONAbsentStatus(t *testing.T) {
	var absent, zero Capture
	assert.NoError(t, json.Unmarshal([]byte(`{"command":"cp","stub_type":"NORMAL","status":null}`), &absent))
	assert.NoError(t, json.Unmarshal([]byte(`{"command":"cp","stub_type":"NORMAL","status":0}`), &zero))

	assert.Nil(t, absent.Action.(Output).Status)
	assert.Equal(t, intPtr(0), zero.Action.(Output).Status)
}

func TestCapture_JSONErrors(t *testing.T) {
	var c Capture
	assert.Error(t, json.Unmarshal([]byte(`{"command":"cp","stub_type":"BOGUS"}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"command":"cp","stub_type":"NORMAL","args_match_type":"fuzzy"}`), &c))

	_, err := json.Marshal(Capture{Command: "cp"})
	assert.Error(t, err)
}

func TestState_SameKey(t *testing.T) {
	a := State{Command: "cp", MatchArgs: "a", MatchStdin: "b", NextIdx: 3}
	assert.True(t, a.SameKey(State{Command: "cp", MatchArgs: "a", MatchStdin: "b"}))
	assert.False(t, a.SameKey(State{Command: "cp", MatchArgs: "a", MatchStdin: "c"}))
	assert.False(t, a.SameKey(State{Command: "mv", MatchArgs: "a", MatchStdin: "b"}))
}
