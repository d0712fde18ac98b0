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

// Package maintenance implements the `vcops maintenance` command family:
// parsing the runbook, previewing the categorization, and executing the
// power sequences.
package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tombee/vcops/internal/commands/shared"
	"github.com/tombee/vcops/internal/maintenance"
	"github.com/tombee/vcops/internal/vsphere"
)

// NewCommand creates the maintenance command with its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Parse the maintenance runbook and run its power sequences",
	}

	cmd.AddCommand(newPlanCommand())
	cmd.AddCommand(newCategorizeCommand())
	cmd.AddCommand(newSequenceCommand(maintenance.SequenceDown))
	cmd.AddCommand(newSequenceCommand(maintenance.SequenceUp))

	return cmd
}

// loadPlan parses the configured runbook without touching vCenter.
func loadPlan() (*maintenance.Plan, string, error) {
	cfg, err := shared.LoadMaintenanceConfig()
	if err != nil {
		return nil, "", err
	}

	text, err := maintenance.ReadInstructions(cfg.InstructionsPath)
	if err != nil {
		return nil, "", err
	}
	plan, err := maintenance.Parse(text)
	if err != nil {
		return nil, "", err
	}
	return plan, cfg.InstructionsPath, nil
}

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the parsed shutdown and startup waves",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, path, err := loadPlan()
			if err != nil {
				return err
			}

			if shared.GetJSON() {
				return printJSON(cmd, map[string]any{
					"runbook":        path,
					"shutdown_waves": plan.DownWaves,
					"startup_waves":  plan.UpWaves,
				})
			}

			cmd.Println(shared.RenderLabel("runbook: ") + path)
			printWaves(cmd, "Shutdown sequence", plan.DownWaves)
			printWaves(cmd, "Startup sequence", plan.UpWaves)
			return nil
		},
	}
}

func printWaves(cmd *cobra.Command, title string, waves []maintenance.Wave) {
	cmd.Println()
	cmd.Println(shared.Header.Render(title))
	if len(waves) == 0 {
		cmd.Println("  (none)")
		return
	}
	for _, w := range waves {
		cmd.Printf("  %d. %s (%s)\n", w.Order, w.Description, w.Category)
		for _, sel := range w.Selectors {
			cmd.Printf("     - %s\n", sel)
		}
	}
}

func newCategorizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize",
		Short: "Group the live VM inventory into the plan's categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plan, _, err := loadPlan()
			if err != nil {
				return err
			}

			client, _, err := shared.Connect(ctx, shared.Logger())
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			names, err := client.ListVMNames(ctx)
			if err != nil {
				return err
			}
			groups := plan.Categorize(names)

			if shared.GetJSON() {
				return printJSON(cmd, groups)
			}

			categories := make([]string, 0, len(groups))
			for category := range groups {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			for _, category := range categories {
				cmd.Println(shared.Header.Render(category))
				if len(groups[category]) == 0 {
					cmd.Println("  (no VMs)")
					continue
				}
				for _, vm := range groups[category] {
					cmd.Printf("  %s\n", vm)
				}
			}
			return nil
		},
	}
}

func newSequenceCommand(seq maintenance.Sequence) *cobra.Command {
	var dryRun bool

	use := "down"
	short := "Execute the shutdown sequence wave by wave"
	if seq == maintenance.SequenceUp {
		use = "up"
		short = "Execute the startup sequence wave by wave"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Defaults to a dry run that prints what would happen. Pass --dry-run=false
to actually change power state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plan, _, err := loadPlan()
			if err != nil {
				return err
			}

			logger := shared.Logger()
			client, _, err := shared.Connect(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			names, err := client.ListVMNames(ctx)
			if err != nil {
				return err
			}

			runner := maintenance.NewRunner(maintenance.RunnerConfig{Logger: logger})
			report := runner.Execute(ctx, plan, seq, names, dryRun, powerFunc(client, seq))

			cmd.Println(report.Text())
			if report.Failed > 0 {
				return fmt.Errorf("%d power actions failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", true,
		"Preview the sequence without changing power state")
	return cmd
}

func powerFunc(client *vsphere.Client, seq maintenance.Sequence) maintenance.PowerFunc {
	if seq == maintenance.SequenceDown {
		return func(ctx context.Context, vm string) error {
			_, err := client.PowerOff(ctx, vm)
			return err
		}
	}
	return func(ctx context.Context, vm string) error {
		_, err := client.PowerOn(ctx, vm)
		return err
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
