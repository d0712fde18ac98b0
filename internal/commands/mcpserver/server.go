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

// Package mcpserver implements the `vcops mcp-server` command.
package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/vcops/internal/audit"
	"github.com/tombee/vcops/internal/commands/shared"
	"github.com/tombee/vcops/internal/log"
	"github.com/tombee/vcops/internal/maintenance"
	srv "github.com/tombee/vcops/internal/mcpserver"
	"github.com/tombee/vcops/internal/tracing"
	"github.com/tombee/vcops/internal/vsphere"
)

// NewCommand creates the mcp-server command
func NewCommand() *cobra.Command {
	var (
		traceExporter string
		traceEndpoint string
		metricsAddr   string
	)

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start the vcops MCP server",
		Long: `Start the vcops MCP (Model Context Protocol) server.

The server exposes vCenter inventory, power, provisioning, and maintenance
operations as tools that AI assistants can call over stdio.

Configuration example for Claude Code (~/.config/claude/config.json):
  {
    "mcpServers": {
      "vcops": {
        "command": "vcops",
        "args": ["mcp-server"],
        "env": {
          "VCENTER_HOST": "vcenter.example.com",
          "VCENTER_USER": "administrator@vsphere.local"
        }
      }
    }
  }

For safety, the power sequence tools default to dry_run=true. AI assistants
must explicitly set dry_run=false to change power state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(traceExporter, traceEndpoint, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&traceExporter, "trace-exporter", os.Getenv("VCOPS_TRACE_EXPORTER"),
		"Span exporter: none, stdout, otlp-grpc, otlp-http")
	cmd.Flags().StringVar(&traceEndpoint, "trace-endpoint", os.Getenv("VCOPS_TRACE_ENDPOINT"),
		"OTLP collector endpoint for the otlp exporters")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", os.Getenv("VCOPS_METRICS_ADDR"),
		"Optional listen address for the Prometheus /metrics endpoint, e.g. :9090")

	return cmd
}

func runServer(traceExporter, traceEndpoint, metricsAddr string) error {
	logger := shared.Logger()
	versionStr, _, _ := shared.GetVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	provider, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:    "vcops",
		ServiceVersion: versionStr,
		Exporter:       traceExporter,
		Endpoint:       traceEndpoint,
		Insecure:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		provider.Shutdown(shutdownCtx)
	}()

	if metricsAddr != "" {
		metricsSrv := provider.ServeMetrics(metricsAddr)
		defer metricsSrv.Close()
		logger.Info("metrics listener started", "addr", metricsAddr)
	}

	client, err := vsphere.Connect(ctx, vsphere.Config{
		Host:       cfg.Host,
		User:       cfg.User,
		Password:   cfg.Password,
		Insecure:   cfg.Insecure,
		Datacenter: cfg.Datacenter,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	var store *audit.Store
	if cfg.AuditPath != "" {
		store, err = audit.Open(cfg.AuditPath)
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		defer store.Close()
	}

	source := maintenance.NewSource(cfg.InstructionsPath, maintenance.NewParser(), logger)
	if err := source.Start(ctx); err != nil {
		// A missing or unwatchable runbook only disables the maintenance
		// tools; inventory and power tools still work.
		logger.Warn("runbook watcher not started", "path", cfg.InstructionsPath, log.Error(err))
	}

	server := srv.NewServer(srv.Options{
		VCenter: client,
		Source:  source,
		Audit:   store,
		Logger:  logger,
		Version: versionStr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
