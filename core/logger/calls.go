package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Call is a single replayed invocation of a stubbed command.
type Call struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	Command         string `json:"command"`
	Args            string `json:"args"`
	Stdin           string `json:"stdin,omitempty"`
	Result          string `json:"result"`
	ExitCode        int    `json:"exit_code"`
	NoMatch         bool   `json:"no_match,omitempty"`
	Error           string `json:"error,omitempty"`
}

// CaptureLine renders the call the way it is listed by verify: the command
// and its normalized args joined by a dash.
func (c *Call) CaptureLine() string {
	return fmt.Sprintf("%s-%s", c.Command, c.Args)
}

// CallRecorder is a callback that stores calls in an external datastore.
type CallRecorder func(c *Call) error

// Logger records replayed calls.
type Logger struct {
	Record CallRecorder
	now    func() time.Time
}

// NewJSONLinesLogRecorder creates a Logger that exports calls in newline
// delimited JSON object format.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		Record: func(c *Call) error {
			entry, err := json.Marshal(c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
		now: time.Now,
	}
}

// LogCall stamps and records a call.
func (l *Logger) LogCall(c Call) error {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	c.TimestampMicros = now().UnixNano() / int64(time.Microsecond)

	return l.Record(&c)
}

// ReadCallLog parses a newline delimited JSON call log.
func ReadCallLog(r io.Reader, handler func(c *Call)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var call Call
		if err := decoder.Decode(&call); err != nil {
			return err
		}

		handler(&call)
	}
	return nil
}
