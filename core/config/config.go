package config

import (
	_ "embed"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/shellmock/core/match"
	"github.com/spf13/afero"
	lj "gopkg.in/natefinch/lumberjack.v2"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	StubDirName       = "tmpstubs"

	// EnvTestDir is set by bats to the directory of the running test file.
	EnvTestDir = "BATS_TEST_DIRNAME"

	debugLogMaxSizeMB  = 10
	debugLogMaxBackups = 3
)

type Configuration struct {
	configFs afero.Fs
	stubDir  string

	Store      string `json:"store" validate:"oneof=file sqlite"`
	SQLitePath string `json:"sqlite_path" validate:"required"`

	DefaultArgsMatchType  string `json:"default_args_match_type" validate:"oneof=exact partial regex"`
	DefaultStdinMatchType string `json:"default_stdin_match_type" validate:"oneof=exact partial regex"`

	Shell string `json:"shell" validate:"required"`

	Debug    bool   `json:"debug"`
	DebugLog string `json:"debug_log" validate:"required,excludesall=/"`
	CallLog  string `json:"call_log" validate:"required,excludesall=/"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// DefaultTestDir is the directory the stub directory lives in when none is
// given.
func DefaultTestDir() string {
	if dir := os.Getenv(EnvTestDir); dir != "" {
		return dir
	}
	return "."
}

// StubDir is the directory holding stubs, records and logs.
func (c *Configuration) StubDir() string {
	return c.stubDir
}

// Fs is rooted at the stub directory.
func (c *Configuration) Fs() afero.Fs {
	return c.configFs
}

// ArgsMatchType is the policy for expectations that don't set one.
func (c *Configuration) ArgsMatchType() (match.Type, error) {
	return match.Parse(c.DefaultArgsMatchType)
}

// StdinMatchType is the policy for expectations that don't set one.
func (c *Configuration) StdinMatchType() (match.Type, error) {
	return match.Parse(c.DefaultStdinMatchType)
}

// SQLiteFile is the absolute path of the sqlite database.
func (c *Configuration) SQLiteFile() string {
	if filepath.IsAbs(c.SQLitePath) || c.SQLitePath == ":memory:" {
		return c.SQLitePath
	}
	return filepath.Join(c.stubDir, c.SQLitePath)
}

// OpenDebugLog opens the rotating debug log, or a discarding writer if debug
// logging is off.
func (c *Configuration) OpenDebugLog() io.WriteCloser {
	if !c.Debug {
		return nopWriteCloser{ioutil.Discard}
	}

	return &lj.Logger{
		Filename:   filepath.Join(c.stubDir, c.DebugLog),
		MaxSize:    debugLogMaxSizeMB,
		MaxBackups: debugLogMaxBackups,
	}
}

// OpenCallLog opens the call log in an append only state.
func (c *Configuration) OpenCallLog() (afero.File, error) {
	return c.Fs().OpenFile(c.CallLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// ReadCallLog opens the call log for reading.
func (c *Configuration) ReadCallLog() (afero.File, error) {
	return c.Fs().OpenFile(c.CallLog, os.O_RDONLY, 0644)
}

// ShimPath is the absolute path of command's stub.
func (c *Configuration) ShimPath(command string) string {
	return filepath.Join(c.stubDir, command)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
