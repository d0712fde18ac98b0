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

package audit

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Record(ctx, Entry{
		Tool:    "vcenter_power_off",
		Target:  "k8s-worker-01",
		Action:  "power_off",
		Outcome: OutcomeOK,
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if first.ID == "" || first.Timestamp.IsZero() {
		t.Errorf("Record() should fill in ID and timestamp: %+v", first)
	}

	if _, err := s.Record(ctx, Entry{
		Tool:    "vcenter_power_on",
		Target:  "db-01",
		Action:  "power_on",
		Outcome: OutcomeError,
		Detail:  "task failed",
	}); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	entries, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() = %d entries, want 2", len(entries))
	}
}

func TestList_FilterByTarget(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, target := range []string{"vm-a", "vm-b", "vm-a"} {
		if _, err := s.Record(ctx, Entry{Tool: "t", Target: target, Action: "power_on", Outcome: OutcomeOK}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx, ListOptions{Target: "vm-a"})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List(target=vm-a) = %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Target != "vm-a" {
			t.Errorf("unexpected target %q", e.Target)
		}
	}
}

func TestList_SinceAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := Entry{Tool: "t", Action: "power_on", Outcome: OutcomeOK, Timestamp: time.Now().Add(-2 * time.Hour)}
	if _, err := s.Record(ctx, old); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Record(ctx, Entry{Tool: "t", Action: "power_off", Outcome: OutcomeDryRun}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.List(ctx, ListOptions{Since: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("List(since) = %d entries, want 3", len(recent))
	}

	limited, err := s.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(limit=2) = %d entries, want 2", len(limited))
	}
}
