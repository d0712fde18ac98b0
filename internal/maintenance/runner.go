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

package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tombee/vcops/internal/log"
)

// PowerFunc performs one power action against a named VM. Implementations
// must honour ctx cancellation; the runner bounds every call with a timeout.
type PowerFunc func(ctx context.Context, vmName string) error

// ActionResult records the outcome of one power action.
type ActionResult struct {
	VM       string        `json:"vm"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Skipped  bool          `json:"skipped,omitempty"`
}

// WaveResult records the outcome of one wave.
type WaveResult struct {
	Wave    Wave           `json:"wave"`
	VMs     []string       `json:"vms"`
	Actions []ActionResult `json:"actions,omitempty"`
}

// Report is the outcome of a full sequence execution.
type Report struct {
	Sequence Sequence     `json:"sequence"`
	DryRun   bool         `json:"dry_run"`
	Waves    []WaveResult `json:"waves"`
	Failed   int          `json:"failed"`
}

// Text renders the report in the line-oriented form the MCP tools return.
func (r *Report) Text() string {
	var b strings.Builder
	mode := "Executing"
	if r.DryRun {
		mode = "Dry run of"
	}
	fmt.Fprintf(&b, "%s VM power-%s sequence based on maintenance instructions...\n", mode, r.Sequence)

	for _, wr := range r.Waves {
		fmt.Fprintf(&b, "\n%d. %s:\n", wr.Wave.Order, wr.Wave.Description)
		if len(wr.VMs) == 0 {
			b.WriteString("   No VMs found in this category\n")
			continue
		}
		if r.DryRun {
			for _, vm := range wr.VMs {
				fmt.Fprintf(&b, "   - %s: would power %s\n", vm, powerVerb(r.Sequence))
			}
			continue
		}
		for _, action := range wr.Actions {
			if action.Error != "" {
				fmt.Fprintf(&b, "   - %s: Error: %s\n", action.VM, action.Error)
			} else {
				fmt.Fprintf(&b, "   - %s: powered %s\n", action.VM, powerVerb(r.Sequence))
			}
		}
	}

	if r.Failed > 0 {
		fmt.Fprintf(&b, "\n%d action(s) failed; sequence continued past failures.\n", r.Failed)
	}
	return b.String()
}

func powerVerb(seq Sequence) string {
	if seq == SequenceUp {
		return "on"
	}
	return "off"
}

// Runner executes the waves of a plan in document order. Failures are
// recorded and execution continues: a maintenance window is better served
// by a partial sequence with a clear report than by stopping at the first
// stuck VM. There is deliberately no rollback.
type Runner struct {
	logger        *slog.Logger
	limiter       *rate.Limiter
	actionTimeout time.Duration
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Logger receives per-action progress. Default: slog.Default().
	Logger *slog.Logger

	// ActionsPerSecond paces power calls so a large wave cannot hammer
	// vCenter. Default: 2.
	ActionsPerSecond float64

	// ActionTimeout bounds each individual power action. Default: 2m.
	ActionTimeout time.Duration
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perSecond := cfg.ActionsPerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	timeout := cfg.ActionTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Runner{
		logger:        logger,
		limiter:       rate.NewLimiter(rate.Limit(perSecond), 1),
		actionTimeout: timeout,
	}
}

// Execute runs one sequence of the plan against the given live VM names.
// Waves run in document order; within a wave, VMs are acted on in the order
// the partition assigned them. With dryRun set, powerFn is never called and
// the report lists what would happen.
func (r *Runner) Execute(ctx context.Context, plan *Plan, seq Sequence, vmNames []string, dryRun bool, powerFn PowerFunc) *Report {
	report := &Report{Sequence: seq, DryRun: dryRun}
	partition := plan.Categorize(vmNames)

	for _, wave := range plan.Waves(seq) {
		wr := WaveResult{Wave: wave, VMs: partition[wave.Category]}
		r.logger.Debug("executing wave",
			slog.String(log.WaveKey, wave.Description),
			slog.String(log.CategoryKey, wave.Category),
			slog.Int("vms", len(wr.VMs)),
			slog.Bool("dry_run", dryRun),
		)

		if !dryRun {
			for _, vm := range wr.VMs {
				action := r.runAction(ctx, seq, vm, powerFn)
				if action.Error != "" && !action.Skipped {
					report.Failed++
				}
				wr.Actions = append(wr.Actions, action)
			}
		}
		recordWave(string(seq))
		report.Waves = append(report.Waves, wr)
	}

	return report
}

// runAction performs a single rate-limited, timeout-bounded power call.
func (r *Runner) runAction(ctx context.Context, seq Sequence, vm string, powerFn PowerFunc) ActionResult {
	if err := r.limiter.Wait(ctx); err != nil {
		// Context cancelled while pacing; report the VM as skipped.
		return ActionResult{VM: vm, Error: err.Error(), Skipped: true}
	}

	start := time.Now()
	actionCtx, cancel := context.WithTimeout(ctx, r.actionTimeout)
	defer cancel()

	err := powerFn(actionCtx, vm)
	elapsed := time.Since(start)

	logger := log.WithVM(r.logger, vm)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		logger.Warn("power action failed",
			slog.String("sequence", string(seq)),
			log.Error(err),
		)
	} else {
		logger.Info("power action complete",
			slog.String("sequence", string(seq)),
			log.Duration("duration", elapsed.Milliseconds()),
		)
	}
	recordPowerAction(string(seq), outcome)

	result := ActionResult{VM: vm, Duration: elapsed}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
