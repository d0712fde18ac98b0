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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// clearVCenterEnv blanks every variable Load consults so tests are hermetic.
func clearVCenterEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"VCENTER_HOST", "VCENTER_SERVER", "VCENTER_USER", "VCENTER_USERNAME",
		"VCENTER_PASSWORD", "VCENTER_INSECURE", "VCENTER_DATACENTER",
		"VCOPS_INSTRUCTIONS", "VCOPS_AUDIT_DB",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_EnvCanonicalNames(t *testing.T) {
	clearVCenterEnv(t)
	t.Setenv("VCOPS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("VCENTER_HOST", "vcsa.example.com")
	t.Setenv("VCENTER_USER", "administrator@vsphere.local")
	t.Setenv("VCENTER_PASSWORD", "secret")
	t.Setenv("VCENTER_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host != "vcsa.example.com" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if !cfg.Insecure {
		t.Error("Insecure should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should pass: %v", err)
	}
}

func TestLoad_LegacyAliases(t *testing.T) {
	clearVCenterEnv(t)
	t.Setenv("VCOPS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("VCENTER_SERVER", "legacy.example.com")
	t.Setenv("VCENTER_USERNAME", "root")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host != "legacy.example.com" {
		t.Errorf("VCENTER_SERVER alias not honoured, Host = %q", cfg.Host)
	}
	if cfg.User != "root" {
		t.Errorf("VCENTER_USERNAME alias not honoured, User = %q", cfg.User)
	}
}

func TestLoad_CanonicalWinsOverAlias(t *testing.T) {
	clearVCenterEnv(t)
	t.Setenv("VCOPS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("VCENTER_HOST", "canonical.example.com")
	t.Setenv("VCENTER_SERVER", "legacy.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host != "canonical.example.com" {
		t.Errorf("canonical name should win, Host = %q", cfg.Host)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearVCenterEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "host: file.example.com\nuser: fileuser\ninsecure: true\ndatacenter: DC0\naudit_db: /tmp/audit.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VCOPS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host != "file.example.com" || cfg.User != "fileuser" {
		t.Errorf("file values not loaded: %+v", cfg)
	}
	if cfg.Datacenter != "DC0" {
		t.Errorf("Datacenter = %q", cfg.Datacenter)
	}
	if cfg.AuditPath != "/tmp/audit.db" {
		t.Errorf("AuditPath = %q", cfg.AuditPath)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearVCenterEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("host: file.example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VCOPS_CONFIG", path)
	t.Setenv("VCENTER_HOST", "env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host != "env.example.com" {
		t.Errorf("env should override file, Host = %q", cfg.Host)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearVCenterEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VCOPS_CONFIG", path)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail on invalid YAML")
	}
	var cfgErr *vcerrors.ConfigError
	if !vcerrors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

func TestValidate_ListsAllMissing(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail on empty config")
	}
	for _, name := range []string{"VCENTER_HOST", "VCENTER_USER", "VCENTER_PASSWORD"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should name %s, got %q", name, err.Error())
		}
	}
}

func TestDefaultInstructionsPath(t *testing.T) {
	clearVCenterEnv(t)
	t.Setenv("VCOPS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.InstructionsPath != DefaultInstructionsPath {
		t.Errorf("InstructionsPath = %q", cfg.InstructionsPath)
	}
}
