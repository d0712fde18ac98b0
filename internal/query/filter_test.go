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

package query

import (
	"testing"

	"github.com/tombee/vcops/internal/vsphere"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

var sampleVMs = []vsphere.VMInfo{
	{Name: "k8s-worker-01", PowerState: "poweredOn", CPUCount: 4, MemoryMB: 8192},
	{Name: "k8s-master-01", PowerState: "poweredOn", CPUCount: 2, MemoryMB: 4096},
	{Name: "db-01", PowerState: "poweredOff", CPUCount: 8, MemoryMB: 16384},
}

func TestFilterVMs(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantNames  []string
	}{
		{"by power state", `power_state == "poweredOn"`, []string{"k8s-worker-01", "k8s-master-01"}},
		{"by memory", `memory_mb >= 8192`, []string{"k8s-worker-01", "db-01"}},
		{"combined", `power_state == "poweredOn" && cpu_count > 2`, []string{"k8s-worker-01"}},
		{"name contains", `name contains "master"`, []string{"k8s-master-01"}},
		{"none match", `cpu_count > 100`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterVMs(tt.expression, sampleVMs)
			if err != nil {
				t.Fatalf("FilterVMs(%q) error: %v", tt.expression, err)
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("FilterVMs(%q) = %v, want names %v", tt.expression, got, tt.wantNames)
			}
			for i, want := range tt.wantNames {
				if got[i].Name != want {
					t.Errorf("result[%d] = %q, want %q", i, got[i].Name, want)
				}
			}
		})
	}
}

func TestFilterVMs_EmptyKeepsAll(t *testing.T) {
	got, err := FilterVMs("", sampleVMs)
	if err != nil {
		t.Fatalf("FilterVMs(\"\") error: %v", err)
	}
	if len(got) != len(sampleVMs) {
		t.Errorf("empty filter should keep all VMs, got %d", len(got))
	}
}

func TestFilterVMs_InvalidExpression(t *testing.T) {
	_, err := FilterVMs(`power_state ==`, sampleVMs)
	var vErr *vcerrors.ValidationError
	if !vcerrors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	// Non-boolean expressions are rejected at compile time.
	_, err = FilterVMs(`name`, sampleVMs)
	if !vcerrors.As(err, &vErr) {
		t.Errorf("expected ValidationError for non-boolean expression, got %v", err)
	}
}
