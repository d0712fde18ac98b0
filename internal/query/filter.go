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

// Package query filters inventory listings with boolean expressions, e.g.
// `power_state == "poweredOn" && memory_mb >= 4096`.
package query

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/vcops/internal/vsphere"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// vmEnv flattens a VMInfo into the names available to filter expressions.
func vmEnv(v vsphere.VMInfo) map[string]interface{} {
	return map[string]interface{}{
		"name":           v.Name,
		"power_state":    v.PowerState,
		"guest_os":       v.GuestOS,
		"ip_address":     v.IPAddress,
		"hostname":       v.Hostname,
		"cpu_count":      int(v.CPUCount),
		"memory_mb":      int(v.MemoryMB),
		"cpu_usage_mhz":  int(v.CPUUsage),
		"mem_usage_mb":   int(v.MemUsage),
		"uptime_seconds": int(v.Uptime),
		"template":       v.Template,
		"tools_state":    v.ToolsState,
	}
}

// CompileVMFilter compiles a filter expression. The expression must produce
// a boolean.
func CompileVMFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(vmEnv(vsphere.VMInfo{})), expr.AsBool())
	if err != nil {
		return nil, &vcerrors.ValidationError{
			Field:      "filter",
			Message:    "invalid filter expression: " + err.Error(),
			Suggestion: "use a boolean expression such as `power_state == \"poweredOn\" && cpu_count > 2`",
		}
	}
	return program, nil
}

// FilterVMs returns the VMs for which the expression evaluates to true.
// An empty expression keeps everything.
func FilterVMs(expression string, vms []vsphere.VMInfo) ([]vsphere.VMInfo, error) {
	if expression == "" {
		return vms, nil
	}

	program, err := CompileVMFilter(expression)
	if err != nil {
		return nil, err
	}

	matched := make([]vsphere.VMInfo, 0, len(vms))
	for _, v := range vms {
		out, err := expr.Run(program, vmEnv(v))
		if err != nil {
			return nil, &vcerrors.ValidationError{
				Field:   "filter",
				Message: "filter evaluation failed: " + err.Error(),
			}
		}
		if keep, ok := out.(bool); ok && keep {
			matched = append(matched, v)
		}
	}
	return matched, nil
}
