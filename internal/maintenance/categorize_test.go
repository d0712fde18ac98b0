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
	"reflect"
	"testing"
)

func TestCategorize_ThreeWaveRunbook(t *testing.T) {
	plan, err := Parse(technicalRunbook)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	vms := []string{
		"k8s-worker-01", "k8s-worker-02",
		"k8s-master-01", "k8s-master-02",
		"app-server-01", "db-server-01",
	}

	got := plan.Categorize(vms)

	want := map[string][]string{
		CategoryWorkerNodes:  {"k8s-worker-01", "k8s-worker-02"},
		CategoryControlPlane: {"k8s-master-01", "k8s-master-02"},
		CategoryRemaining:    {"app-server-01", "db-server-01"},
	}
	for cat, wantVMs := range want {
		if !reflect.DeepEqual(got[cat], wantVMs) {
			t.Errorf("%s = %v, want %v", cat, got[cat], wantVMs)
		}
	}
}

func TestPartition_NoVMInTwoCategories(t *testing.T) {
	categories := []Category{
		{Name: "a", Selectors: []string{"web"}},
		{Name: "b", Selectors: []string{"web", "db"}},
		{Name: "c", Selectors: []string{SelectorRemaining}},
	}
	vms := []string{"web-01", "web-02", "db-01", "cache-01"}

	got := Partition(vms, categories)

	seen := make(map[string]string)
	for cat, names := range got {
		for _, name := range names {
			if prev, dup := seen[name]; dup {
				t.Errorf("VM %s assigned to both %s and %s", name, prev, cat)
			}
			seen[name] = cat
		}
	}
	if len(seen) != len(vms) {
		t.Errorf("assigned %d VMs, want %d", len(seen), len(vms))
	}
}

func TestPartition_FirstCategoryWins(t *testing.T) {
	categories := []Category{
		{Name: "a", Selectors: []string{"web"}},
		{Name: "b", Selectors: []string{"web"}},
	}

	got := Partition([]string{"web-01"}, categories)

	if !reflect.DeepEqual(got["a"], []string{"web-01"}) {
		t.Errorf("a = %v, want [web-01]", got["a"])
	}
	if len(got["b"]) != 0 {
		t.Errorf("b = %v, want empty", got["b"])
	}
}

func TestPartition_RemainingAbsorbsExactlyUnclaimed(t *testing.T) {
	categories := []Category{
		{Name: CategoryWorkerNodes, Selectors: []string{"worker"}},
		{Name: CategoryRemaining, Selectors: []string{SelectorRemaining}},
	}
	vms := []string{"k8s-worker-01", "app-01", "db-01"}

	got := Partition(vms, categories)

	if !reflect.DeepEqual(got[CategoryRemaining], []string{"app-01", "db-01"}) {
		t.Errorf("remaining = %v", got[CategoryRemaining])
	}
}

func TestPartition_EveryCategoryHasEntry(t *testing.T) {
	categories := []Category{
		{Name: "a", Selectors: []string{"nomatch"}},
		{Name: "b", Selectors: []string{"alsonomatch"}},
	}

	got := Partition([]string{"web-01"}, categories)

	for _, cat := range categories {
		if _, ok := got[cat.Name]; !ok {
			t.Errorf("category %s missing from partition", cat.Name)
		}
	}
}

func TestMatchesSelectors(t *testing.T) {
	tests := []struct {
		name      string
		vm        string
		selectors []string
		want      bool
	}{
		{"selector inside name", "k8s-worker-01", []string{"worker"}, true},
		{"case insensitive", "K8S-WORKER-01", []string{"Worker"}, true},
		{"name inside selector", "worker", []string{"k8s-worker-pool"}, true},
		{"plural selector folds", "k8s-worker-01", []string{"workers"}, true},
		{"plural name folds", "workers", []string{"k8s-worker-pool"}, true},
		{"no match", "db-server-01", []string{"worker", "master"}, false},
		{"empty selectors", "anything", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesSelectors(tt.vm, tt.selectors); got != tt.want {
				t.Errorf("matchesSelectors(%q, %v) = %v, want %v", tt.vm, tt.selectors, got, tt.want)
			}
		})
	}
}
