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
	"errors"
	"strings"
	"testing"
)

// testPlan builds a two-wave plan without going through the parser.
func testPlan() *Plan {
	return &Plan{
		DownWaves: []Wave{
			{Order: 1, Category: CategoryWorkerNodes, Description: "Worker Nodes", Selectors: []string{"worker"}},
			{Order: 2, Category: CategoryRemaining, Description: "Remaining VMs", Selectors: []string{SelectorRemaining}},
		},
		UpWaves: []Wave{
			{Order: 1, Category: CategoryRemaining, Description: "Remaining VMs", Selectors: []string{SelectorRemaining}},
			{Order: 2, Category: CategoryWorkerNodes, Description: "Worker Nodes", Selectors: []string{"worker"}},
		},
		Categories: []Category{
			{Name: CategoryWorkerNodes, Selectors: []string{"worker"}},
			{Name: CategoryRemaining, Selectors: []string{SelectorRemaining}},
		},
	}
}

// fastRunner returns a runner that will not slow tests down on pacing.
func fastRunner() *Runner {
	return NewRunner(RunnerConfig{ActionsPerSecond: 10000})
}

func TestExecute_WaveOrder(t *testing.T) {
	vms := []string{"k8s-worker-01", "k8s-worker-02", "db-01"}

	var calls []string
	powerFn := func(ctx context.Context, vm string) error {
		calls = append(calls, vm)
		return nil
	}

	report := fastRunner().Execute(context.Background(), testPlan(), SequenceDown, vms, false, powerFn)

	want := []string{"k8s-worker-01", "k8s-worker-02", "db-01"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", calls, want)
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	if len(report.Waves) != 2 {
		t.Errorf("Waves = %d, want 2", len(report.Waves))
	}
}

func TestExecute_UpSequenceReversesPrecedence(t *testing.T) {
	vms := []string{"k8s-worker-01", "db-01"}

	var calls []string
	powerFn := func(ctx context.Context, vm string) error {
		calls = append(calls, vm)
		return nil
	}

	fastRunner().Execute(context.Background(), testPlan(), SequenceUp, vms, false, powerFn)

	// Categorization precedence is unchanged, but the up sequence visits the
	// remaining wave first.
	want := []string{"db-01", "k8s-worker-01"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", calls, want)
	}
}

func TestExecute_DryRunSkipsActions(t *testing.T) {
	called := false
	powerFn := func(ctx context.Context, vm string) error {
		called = true
		return nil
	}

	report := fastRunner().Execute(context.Background(), testPlan(), SequenceDown, []string{"k8s-worker-01"}, true, powerFn)

	if called {
		t.Error("powerFn should not run during a dry run")
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	text := report.Text()
	if !strings.Contains(text, "would power off") {
		t.Errorf("dry run text should describe intended actions:\n%s", text)
	}
}

func TestExecute_ContinuesPastFailures(t *testing.T) {
	vms := []string{"k8s-worker-01", "k8s-worker-02", "db-01"}

	var calls []string
	powerFn := func(ctx context.Context, vm string) error {
		calls = append(calls, vm)
		if vm == "k8s-worker-01" {
			return errors.New("task failed on host")
		}
		return nil
	}

	report := fastRunner().Execute(context.Background(), testPlan(), SequenceDown, vms, false, powerFn)

	if len(calls) != 3 {
		t.Errorf("all VMs should be attempted, got %v", calls)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	text := report.Text()
	if !strings.Contains(text, "task failed on host") {
		t.Errorf("report should carry the failure message:\n%s", text)
	}
	if !strings.Contains(text, "db-01: powered off") {
		t.Errorf("report should show later successes:\n%s", text)
	}
}

func TestReportText_EmptyCategory(t *testing.T) {
	report := fastRunner().Execute(context.Background(), testPlan(), SequenceDown, []string{"db-01"}, true, nil)

	text := report.Text()
	// No VM matches the worker wave, only the remaining wave.
	if !strings.Contains(text, "No VMs found in this category") {
		t.Errorf("text should flag the empty wave:\n%s", text)
	}
	if !strings.Contains(text, "db-01") {
		t.Errorf("text should list the remaining VM:\n%s", text)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := fastRunner().Execute(ctx, testPlan(), SequenceDown, []string{"k8s-worker-01"}, false, func(ctx context.Context, vm string) error {
		t.Error("powerFn should not run once the context is cancelled")
		return nil
	})

	if report.Failed != 0 {
		t.Errorf("cancelled actions count as skipped, Failed = %d", report.Failed)
	}
	for _, wave := range report.Waves {
		for _, action := range wave.Actions {
			if !action.Skipped {
				t.Errorf("action %+v should be skipped", action)
			}
		}
	}
}
