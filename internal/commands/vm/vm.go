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

// Package vm implements the `vcops vm` command family.
package vm

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/vcops/internal/audit"
	"github.com/tombee/vcops/internal/commands/shared"
	"github.com/tombee/vcops/internal/query"
)

// NewCommand creates the vm command with its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vm",
		Short: "Inspect and control virtual machines",
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newInfoCommand())
	cmd.AddCommand(newPowerCommand("on", "Power on a VM"))
	cmd.AddCommand(newPowerCommand("off", "Power off a VM"))
	cmd.AddCommand(newResetCommand())

	return cmd
}

func newListCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list [pattern]",
		Short: "List VMs, optionally narrowed by a glob pattern and a filter expression",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, _, err := shared.Connect(ctx, shared.Logger())
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}

			vms, err := client.ListVMs(ctx, pattern)
			if err != nil {
				return err
			}
			if filter != "" {
				vms, err = query.FilterVMs(filter, vms)
				if err != nil {
					return err
				}
			}

			if shared.GetJSON() {
				return printJSON(cmd, vms)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPOWER\tCPU\tMEM MB\tIP")
			for _, vm := range vms {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					vm.Name, shared.RenderPowerState(vm.PowerState),
					vm.CPUCount, vm.MemoryMB, vm.IPAddress)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "",
		`Boolean expression over VM fields, e.g. 'power_state == "poweredOn"'`)
	return cmd
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show detailed information about one VM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, _, err := shared.Connect(ctx, shared.Logger())
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			vm, err := client.GetVM(ctx, args[0])
			if err != nil {
				return err
			}
			if shared.GetJSON() {
				return printJSON(cmd, vm)
			}

			cmd.Println(shared.Header.Render(vm.Name))
			cmd.Printf("%s %s\n", shared.RenderLabel("power:"), shared.RenderPowerState(vm.PowerState))
			cmd.Printf("%s %s\n", shared.RenderLabel("guest:"), vm.GuestOS)
			cmd.Printf("%s %d vCPU, %d MB\n", shared.RenderLabel("hardware:"), vm.CPUCount, vm.MemoryMB)
			cmd.Printf("%s %s\n", shared.RenderLabel("ip:"), vm.IPAddress)
			cmd.Printf("%s %s\n", shared.RenderLabel("host:"), vm.Host)
			return nil
		},
	}
}

func newPowerCommand(direction, short string) *cobra.Command {
	var graceful bool

	cmd := &cobra.Command{
		Use:   direction + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			client, cfg, err := shared.Connect(ctx, shared.Logger())
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			var changed bool
			var action string
			switch {
			case direction == "on":
				action = "power_on"
				changed, err = client.PowerOn(ctx, name)
			case graceful:
				action = "shutdown_guest"
				err = client.ShutdownGuest(ctx, name)
				changed = err == nil
			default:
				action = "power_off"
				changed, err = client.PowerOff(ctx, name)
			}

			recordAudit(ctx, cfg.AuditPath, name, action, err)
			if err != nil {
				return err
			}
			if !changed {
				cmd.Println(shared.RenderOK(fmt.Sprintf("%s is already powered %s", name, direction)))
				return nil
			}
			cmd.Println(shared.RenderOK(fmt.Sprintf("%s powered %s", name, direction)))
			return nil
		},
	}

	if direction == "off" {
		cmd.Flags().BoolVar(&graceful, "graceful", false,
			"Shut down the guest OS via VMware Tools instead of cutting power")
	}
	return cmd
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <name>",
		Short: "Hard-reset a running VM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			client, cfg, err := shared.Connect(ctx, shared.Logger())
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			err = client.Reset(ctx, name)
			recordAudit(ctx, cfg.AuditPath, name, "reset", err)
			if err != nil {
				return err
			}
			cmd.Println(shared.RenderOK(name + " reset"))
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

// recordAudit appends a CLI power action to the audit database, when one
// is configured. Audit failures never fail the command.
func recordAudit(ctx context.Context, path, target, action string, opErr error) {
	if path == "" {
		return
	}
	store, err := audit.Open(path)
	if err != nil {
		return
	}
	defer store.Close()

	outcome := audit.OutcomeOK
	detail := ""
	if opErr != nil {
		outcome = audit.OutcomeError
		detail = opErr.Error()
	}
	store.Record(ctx, audit.Entry{
		Tool:    "vcops vm " + action,
		Target:  target,
		Action:  action,
		Outcome: outcome,
		Detail:  detail,
	})
}
