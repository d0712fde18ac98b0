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

// Package config implements the `vcops config` command family.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/vcops/internal/commands/shared"
	"github.com/tombee/vcops/internal/config"
	"github.com/tombee/vcops/internal/secrets"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// NewCommand creates the config command with its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration and manage credentials",
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetPasswordCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration (password redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			cmd.Println(shared.RenderLabel("config file: ") + config.Path())
			cmd.Println(shared.RenderLabel("host:       ") + cfg.Host)
			cmd.Println(shared.RenderLabel("user:       ") + cfg.User)
			cmd.Println(shared.RenderLabel("password:   ") + redact(cfg.Password))
			cmd.Println(shared.RenderLabel("insecure:   ") + fmt.Sprint(cfg.Insecure))
			cmd.Println(shared.RenderLabel("datacenter: ") + cfg.Datacenter)
			cmd.Println(shared.RenderLabel("runbook:    ") + cfg.InstructionsPath)
			cmd.Println(shared.RenderLabel("audit db:   ") + cfg.AuditPath)
			return nil
		},
	}
}

func redact(password string) string {
	if password == "" {
		return "(not set)"
	}
	return "********"
}

func newSetPasswordCommand() *cobra.Command {
	var host, user string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Store the vCenter password in the OS keyring",
		Long: `Store the vCenter password in the operating system keyring.

The password is prompted for interactively and never echoed. It is stored
per host and user, and picked up automatically when VCENTER_PASSWORD is
not set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if host == "" {
				host = cfg.Host
			}
			if user == "" {
				user = cfg.User
			}
			if host == "" || user == "" {
				return &vcerrors.ConfigError{
					Key:    "VCENTER_HOST, VCENTER_USER",
					Reason: "a host and user are needed to key the stored password; set them in the environment, the config file, or via --host/--user",
				}
			}

			cmd.Printf("Password for %s@%s: ", user, host)
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			cmd.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimSpace(string(raw))
			if password == "" {
				return &vcerrors.ValidationError{Field: "password", Message: "password must not be empty"}
			}

			if err := secrets.SetPassword(host, user, password); err != nil {
				return err
			}
			cmd.Println(shared.RenderOK(fmt.Sprintf("password stored for %s@%s", user, host)))
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "vCenter host the password belongs to")
	cmd.Flags().StringVar(&user, "user", "", "vCenter user the password belongs to")
	return cmd
}
