// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config resolves vcops configuration from the environment, an
// optional YAML config file, and the OS keyring.
//
// Environment variables win over the config file. The canonical variable
// names are VCENTER_HOST, VCENTER_USER, VCENTER_PASSWORD and
// VCENTER_INSECURE; the legacy aliases VCENTER_SERVER and VCENTER_USERNAME
// are honoured when the canonical name is unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/vcops/internal/secrets"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// DefaultInstructionsPath is where the maintenance runbook is read from when
// no explicit path is configured.
const DefaultInstructionsPath = "instructions/maintenance-vmware.md"

// Config holds everything needed to talk to a vCenter and run vcops.
type Config struct {
	// Host is the vCenter hostname or IP (no scheme).
	Host string `yaml:"host"`

	// User is the vCenter SSO user, e.g. administrator@vsphere.local.
	User string `yaml:"user"`

	// Password is resolved from env, config file, or the OS keyring, in
	// that order. Never written back to the config file.
	Password string `yaml:"-"`

	// Insecure disables TLS certificate verification.
	Insecure bool `yaml:"insecure"`

	// Datacenter optionally pins inventory lookups to one datacenter.
	Datacenter string `yaml:"datacenter"`

	// InstructionsPath is the maintenance runbook location.
	InstructionsPath string `yaml:"instructions"`

	// AuditPath is the SQLite audit log location. Empty disables auditing.
	AuditPath string `yaml:"audit_db"`
}

// fileConfig mirrors Config for YAML decoding, with the password allowed in
// the file for lab setups.
type fileConfig struct {
	Host             string `yaml:"host"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Insecure         bool   `yaml:"insecure"`
	Datacenter       string `yaml:"datacenter"`
	InstructionsPath string `yaml:"instructions"`
	AuditPath        string `yaml:"audit_db"`
}

// Path returns the config file location: $VCOPS_CONFIG if set, otherwise
// ~/.config/vcops/config.yaml (respecting XDG_CONFIG_HOME).
func Path() string {
	if p := os.Getenv("VCOPS_CONFIG"); p != "" {
		return p
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "vcops", "config.yaml")
}

// Load resolves the configuration from all sources. The result is not
// validated; call Validate before opening a connection.
func Load() (*Config, error) {
	cfg := &Config{InstructionsPath: DefaultInstructionsPath}

	if path := Path(); path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}
	mergeEnv(cfg)

	if cfg.Password == "" && cfg.Host != "" && cfg.User != "" {
		// Keyring errors are non-fatal: headless hosts often have no
		// secret service running.
		if secret, err := secrets.GetPassword(cfg.Host, cfg.User); err == nil {
			cfg.Password = secret
		}
	}

	return cfg, nil
}

// mergeFile overlays values from the YAML config file, if it exists.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &vcerrors.ConfigError{Key: path, Reason: "cannot read config file", Cause: err}
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &vcerrors.ConfigError{Key: path, Reason: "invalid YAML", Cause: err}
	}

	if fc.Host != "" {
		cfg.Host = fc.Host
	}
	if fc.User != "" {
		cfg.User = fc.User
	}
	if fc.Password != "" {
		cfg.Password = fc.Password
	}
	if fc.Insecure {
		cfg.Insecure = true
	}
	if fc.Datacenter != "" {
		cfg.Datacenter = fc.Datacenter
	}
	if fc.InstructionsPath != "" {
		cfg.InstructionsPath = fc.InstructionsPath
	}
	if fc.AuditPath != "" {
		cfg.AuditPath = fc.AuditPath
	}
	return nil
}

// mergeEnv overlays values from environment variables.
func mergeEnv(cfg *Config) {
	if v := firstEnv("VCENTER_HOST", "VCENTER_SERVER"); v != "" {
		cfg.Host = v
	}
	if v := firstEnv("VCENTER_USER", "VCENTER_USERNAME"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("VCENTER_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("VCENTER_INSECURE"); v != "" {
		cfg.Insecure = isTruthy(v)
	}
	if v := os.Getenv("VCENTER_DATACENTER"); v != "" {
		cfg.Datacenter = v
	}
	if v := os.Getenv("VCOPS_INSTRUCTIONS"); v != "" {
		cfg.InstructionsPath = v
	}
	if v := os.Getenv("VCOPS_AUDIT_DB"); v != "" {
		cfg.AuditPath = v
	}
}

// Validate checks that the connection settings are complete. The error
// names every missing variable at once so the operator can fix them in one
// pass.
func (c *Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "VCENTER_HOST")
	}
	if c.User == "" {
		missing = append(missing, "VCENTER_USER")
	}
	if c.Password == "" {
		missing = append(missing, "VCENTER_PASSWORD")
	}
	if len(missing) > 0 {
		return &vcerrors.ConfigError{
			Key:    strings.Join(missing, ", "),
			Reason: fmt.Sprintf("missing required settings: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
