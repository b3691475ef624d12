// Package config loads the per-user loghub configuration file, an INI file
// holding credentials per remote service.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// fileName is the fixed config file name in the user's home directory.
const fileName = ".loghubrc"

// ServiceGitHub is the config section for github.com credentials.
const ServiceGitHub = "github"

// Credentials holds the stored credentials of one remote service. All
// fields are optional; CLI flags override whatever is stored.
type Credentials struct {
	Username string `ini:"username"`
	Password string `ini:"password"`
	Token    string `ini:"token"`
}

// Config is the loaded user configuration.
type Config struct {
	file *ini.File
}

// Path returns the location of the user configuration file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fileName), nil
}

// Load reads the user configuration. A missing file is not an error and
// yields an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{file: ini.Empty()}, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return &Config{file: file}, nil
}

// Credentials returns the stored credentials for a service section. An
// absent section yields empty credentials.
func (c *Config) Credentials(service string) Credentials {
	section, err := c.file.GetSection(service)
	if err != nil {
		return Credentials{}
	}

	var creds Credentials
	if err := section.MapTo(&creds); err != nil {
		return Credentials{}
	}
	return creds
}
