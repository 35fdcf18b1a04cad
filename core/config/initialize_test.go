package config

import (
	"errors"
	"io/fs"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, discardLogger()); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, filepath.Join(tempDir, StubDirName), cfg.StubDir())

	t.Run("OpenCallLog", func(t *testing.T) {
		fd, err := cfg.OpenCallLog()
		assert.Nil(t, err)
		fd.Close()

		_, err = os.Stat(filepath.Join(cfg.StubDir(), cfg.CallLog))
		assert.Nil(t, err)
	})

	t.Run("ReadCallLog", func(t *testing.T) {
		fd, err := cfg.ReadCallLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("ShimPath", func(t *testing.T) {
		assert.Equal(t, filepath.Join(cfg.StubDir(), "cp"), cfg.ShimPath("cp"))
	})

	t.Run("OpenDebugLog", func(t *testing.T) {
		w := cfg.OpenDebugLog()
		_, err := w.Write([]byte("discarded\n"))
		assert.Nil(t, err)
		assert.Nil(t, w.Close())

		_, err = os.Stat(filepath.Join(cfg.StubDir(), cfg.DebugLog))
		assert.True(t, errors.Is(err, fs.ErrNotExist))

		cfg.Debug = true
		w = cfg.OpenDebugLog()
		_, err = w.Write([]byte("kept\n"))
		assert.Nil(t, err)
		assert.Nil(t, w.Close())

		contents, err := ioutil.ReadFile(filepath.Join(cfg.StubDir(), cfg.DebugLog))
		assert.Nil(t, err)
		assert.Equal(t, "kept\n", string(contents))
	})

	t.Run("SQLiteFile", func(t *testing.T) {
		assert.Equal(t, filepath.Join(cfg.StubDir(), "shellmock.db"), cfg.SQLiteFile())
	})
}

func TestInitialize_keepsExistingConfig(t *testing.T) {
	tempDir := t.TempDir()
	stubDir := filepath.Join(tempDir, StubDirName)
	assert.Nil(t, os.MkdirAll(stubDir, 0755))
	assert.Nil(t, ioutil.WriteFile(filepath.Join(stubDir, ConfigurationName), []byte(`store: sqlite
sqlite_path: mocks.db
default_args_match_type: partial
default_stdin_match_type: exact
shell: /bin/bash
debug: true
debug_log: debug.log
call_log: calls.jsonl
`), 0644))

	cfg, err := Initialize(tempDir, discardLogger())
	assert.Nil(t, err)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "partial", cfg.DefaultArgsMatchType)
}

func TestLoad(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("config path", func(t *testing.T) {
		tempDir := t.TempDir()
		_, err := Initialize(tempDir, discardLogger())
		assert.Nil(t, err)

		cfg, err := Load(filepath.Join(tempDir, StubDirName, ConfigurationName))
		assert.Nil(t, err)
		assert.Equal(t, filepath.Join(tempDir, StubDirName), cfg.StubDir())

		cfg, err = Load(filepath.Join(tempDir, StubDirName))
		assert.Nil(t, err)
		assert.Equal(t, filepath.Join(tempDir, StubDirName), cfg.StubDir())
	})

	t.Run("unknown field", func(t *testing.T) {
		tempDir := t.TempDir()
		stubDir := filepath.Join(tempDir, StubDirName)
		assert.Nil(t, os.MkdirAll(stubDir, 0755))
		assert.Nil(t, ioutil.WriteFile(filepath.Join(stubDir, ConfigurationName), []byte("nope: 1\n"), 0644))

		_, err := Load(tempDir)
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		tempDir := t.TempDir()
		_, err := Initialize(tempDir, discardLogger())
		assert.Nil(t, err)
		configPath := filepath.Join(tempDir, StubDirName, ConfigurationName)
		assert.Nil(t, ioutil.WriteFile(configPath, []byte("store: redis\nsqlite_path: x\ndefault_args_match_type: exact\ndefault_stdin_match_type: exact\nshell: sh\ndebug_log: d\ncall_log: c\n"), 0644))

		_, err = Load(tempDir)
		assert.Error(t, err)
	})
}

func TestLoadOrInitialize(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := LoadOrInitialize(tempDir, discardLogger())
	assert.Nil(t, err)
	assert.Equal(t, "file", cfg.Store)

	_, err = os.Stat(filepath.Join(tempDir, StubDirName, ConfigurationName))
	assert.Nil(t, err)
}

func TestDefaultTestDir(t *testing.T) {
	t.Setenv(EnvTestDir, "/tmp/bats-suite")
	assert.Equal(t, "/tmp/bats-suite", DefaultTestDir())

	t.Setenv(EnvTestDir, "")
	assert.Equal(t, ".", DefaultTestDir())
}
