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

package main

import (
	"github.com/tombee/vcops/internal/cli"
	configcmd "github.com/tombee/vcops/internal/commands/config"
	maintenancecmd "github.com/tombee/vcops/internal/commands/maintenance"
	"github.com/tombee/vcops/internal/commands/mcpserver"
	versioncmd "github.com/tombee/vcops/internal/commands/version"
	vmcmd "github.com/tombee/vcops/internal/commands/vm"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	rootCmd.AddCommand(mcpserver.NewCommand())
	rootCmd.AddCommand(vmcmd.NewCommand())
	rootCmd.AddCommand(maintenancecmd.NewCommand())
	rootCmd.AddCommand(configcmd.NewCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	rootCmd.SetHelpCommand(cli.NewHelpCommand(rootCmd))

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
