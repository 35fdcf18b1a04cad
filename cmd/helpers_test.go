package cmd

import (
	"io/ioutil"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/shellmock/core/config"
)

func discardLogger() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

func rewriteConfig(t *testing.T, dir, old, new string) {
	t.Helper()

	path := filepath.Join(dir, config.StubDirName, config.ConfigurationName)
	contents, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(contents), old) {
		t.Fatalf("%s doesn't contain %q", path, old)
	}

	updated := strings.Replace(string(contents), old, new, 1)
	if err := ioutil.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}
}

func setStore(t *testing.T, dir, backend string) {
	t.Helper()
	rewriteConfig(t, dir, "store: file", "store: "+backend)
}
