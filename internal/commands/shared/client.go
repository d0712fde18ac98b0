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

package shared

import (
	"context"
	"log/slog"

	"github.com/tombee/vcops/internal/config"
	"github.com/tombee/vcops/internal/log"
	"github.com/tombee/vcops/internal/vsphere"
)

// Logger builds the CLI logger. Verbose bumps the level to debug.
func Logger() *slog.Logger {
	cfg := log.FromEnv()
	if GetVerbose() {
		cfg.Level = "debug"
	}
	return log.New(cfg)
}

// LoadConfig loads and validates the vCenter configuration.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadMaintenanceConfig loads the configuration without requiring vCenter
// credentials. Runbook parsing is pure text processing.
func LoadMaintenanceConfig() (*config.Config, error) {
	return config.Load()
}

// Connect loads the configuration and opens a vCenter session. The caller
// owns the returned client and must Close it.
func Connect(ctx context.Context, logger *slog.Logger) (*vsphere.Client, *config.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("connecting to vCenter",
		slog.String(log.HostKey, cfg.Host),
		slog.String("user", cfg.User),
		slog.String("password", log.SanitizePassword(cfg.Password)),
		slog.Bool("insecure", cfg.Insecure),
	)

	client, err := vsphere.Connect(ctx, vsphere.Config{
		Host:       cfg.Host,
		User:       cfg.User,
		Password:   cfg.Password,
		Insecure:   cfg.Insecure,
		Datacenter: cfg.Datacenter,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}
