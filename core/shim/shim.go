// Package shim writes the executable stubs that stand in for mocked commands
// on the PATH.
package shim

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// Options configure a generated stub.
type Options struct {
	// Command is the name of the stubbed program.
	Command string
	// Binary is the shellmock executable the stub calls back into.
	Binary string
	// StubDir is the stub directory, passed back to the replay call.
	StubDir string
	// Shell is the interpreter line, e.g. "/usr/bin/env bash".
	Shell string
}

var stubTemplate = template.Must(template.New("stub").Funcs(template.FuncMap{"quote": quote}).Parse(`#!{{ .Shell }}
# Stub for {{ .Command }} generated by shellmock, do not edit.
shellmock_stdin=""
if [ ! -t 0 ]; then
    shellmock_stdin="$(cat)"
fi

shellmock_out="$(printf '%s' "$shellmock_stdin" | {{ quote .Binary }} --dir {{ quote .StubDir }} replay {{ quote .Command }} --stdin-file - -- "$@")"
shellmock_status=$?

case "$shellmock_status" in
98)
    eval "${shellmock_out#SCRIPT|}"
    exit $?
    ;;
97)
    . "${shellmock_out#SOURCE|}"
    exit $?
    ;;
esac

if [ -n "$shellmock_out" ]; then
    echo "$shellmock_out"
fi
exit "$shellmock_status"
`))

// Render writes the stub script for opts to w.
func Render(w io.Writer, opts Options) error {
	return stubTemplate.Execute(w, opts)
}

// Write creates or replaces the stub for opts.Command in fs and marks it
// executable.
func Write(fs afero.Fs, opts Options) error {
	if opts.Command == "" || strings.ContainsRune(opts.Command, '/') {
		return fmt.Errorf("invalid command name %q", opts.Command)
	}

	fd, err := fs.OpenFile(opts.Command, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return err
	}
	if err := Render(fd, opts); err != nil {
		fd.Close()
		return err
	}
	if err := fd.Close(); err != nil {
		return err
	}

	// OpenFile doesn't change the mode of an existing file.
	return fs.Chmod(opts.Command, 0755)
}

// quote single quotes s for the shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
