package config

import (
	"errors"
	"fmt"
	"io/fs"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the stub directory under dir.
func Load(dir string) (*Configuration, error) {
	stubDir := resolveStubDir(dir)

	configContents, err := ioutil.ReadFile(filepath.Join(stubDir, ConfigurationName))
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}

	out.stubDir = stubDir
	out.configFs = afero.NewBasePathFs(afero.NewOsFs(), stubDir)
	return &out, nil
}

// Initialize creates the stub directory under dir with a default
// configuration. An existing configuration is kept.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	stubDir := resolveStubDir(dir)
	configPath := filepath.Join(stubDir, ConfigurationName)

	logger.Printf("Setting up stubs in %s", stubDir)
	if err := os.MkdirAll(stubDir, 0755); err != nil {
		return nil, err
	}

	switch _, err := os.Stat(configPath); {
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("Writing %s", configPath)
		if err := ioutil.WriteFile(configPath, defaultConfigData, 0644); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		logger.Printf("Keeping existing %s", configPath)
	}

	return Load(dir)
}

// LoadOrInitialize loads the configuration, creating the stub directory first
// if it doesn't exist yet.
func LoadOrInitialize(dir string, logger *log.Logger) (*Configuration, error) {
	cfg, err := Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Initialize(dir, logger)
	}
	return cfg, err
}

// resolveStubDir returns an absolute path, it is baked into generated stubs.
func resolveStubDir(dir string) string {
	switch filepath.Base(dir) {
	case ConfigurationName:
		// If given the path to a config.yaml file, move back up a level.
		dir = filepath.Dir(dir)
	case StubDirName:
	default:
		dir = filepath.Join(dir, StubDirName)
	}

	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
