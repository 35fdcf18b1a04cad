package logger

// Report holds statistics about the recorded calls.
type Report struct {
	Calls     int          `json:"calls"`
	Commands  StrCounter   `json:"commands"`
	Results   StrCounter   `json:"results"`
	Errors    StrCounter   `json:"errors"`
	Unmatched *PathCounter `json:"unmatched"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Unmatched: NewPathCounter("command", "args", "stdin"),
	}
}

// Update adds a call to the report.
func (r *Report) Update(c *Call) {
	r.Calls++
	r.Commands.Increment(c.Command)

	switch {
	case c.Error != "":
		r.Errors.Increment(c.Error)
	case c.NoMatch:
		r.Unmatched.Increment(c.Command, c.Args, c.Stdin)
	default:
		r.Results.Increment(c.Result)
	}
}
