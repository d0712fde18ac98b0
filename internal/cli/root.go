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

// Package cli holds the root command and shared CLI plumbing.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/vcops/internal/commands/shared"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for vcops
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vcops",
		Short: "vcops - vCenter operations for AI assistants and operators",
		Long: `vcops manages VMware vCenter environments from the command line and
exposes the same operations to AI assistants over the Model Context
Protocol (MCP).

It reads a natural-language maintenance runbook and turns it into ordered
power sequences, so shutting a cluster down for maintenance is one command
(and a dry run by default).

Run 'vcops mcp-server' to serve tools over stdio.
Run 'vcops vm list' to inspect the inventory.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, json := shared.RegisterFlagPointers()
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// Exit codes.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

// HandleExitError prints the error and exits with a code that reflects
// its kind. Config problems exit 2 so wrappers can tell them apart from
// operation failures.
func HandleExitError(err error) {
	fmt.Fprintln(os.Stderr, shared.RenderError(err.Error()))

	var cfgErr *vcerrors.ConfigError
	if vcerrors.As(err, &cfgErr) {
		os.Exit(ExitConfigError)
	}
	os.Exit(ExitFailure)
}
