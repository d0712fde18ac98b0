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

package vsphere

import (
	"context"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vmware/govmomi/vim25/mo"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// VMInfo is the flattened view of a virtual machine returned to tools and
// the CLI.
type VMInfo struct {
	ID         string `json:"id" expr:"id"`
	Name       string `json:"name" expr:"name"`
	PowerState string `json:"power_state" expr:"power_state"`
	GuestOS    string `json:"guest_os,omitempty" expr:"guest_os"`
	IPAddress  string `json:"ip_address,omitempty" expr:"ip_address"`
	Hostname   string `json:"hostname,omitempty" expr:"hostname"`
	CPUCount   int32  `json:"cpu_count" expr:"cpu_count"`
	MemoryMB   int32  `json:"memory_mb" expr:"memory_mb"`
	CPUUsage   int32  `json:"cpu_usage_mhz" expr:"cpu_usage_mhz"`
	MemUsage   int32  `json:"mem_usage_mb" expr:"mem_usage_mb"`
	Uptime     int32  `json:"uptime_seconds" expr:"uptime_seconds"`
	Template   bool   `json:"template,omitempty" expr:"template"`
	ToolsState string `json:"tools_state,omitempty" expr:"tools_state"`
}

var vmProps = []string{"name", "summary", "config.template", "guest.hostName"}

// ListVMs returns every VM in the inventory, sorted by name. A non-empty
// pattern filters names with glob matching ("k8s-*", "*worker*").
func (c *Client) ListVMs(ctx context.Context, pattern string) ([]VMInfo, error) {
	if pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &vcerrors.ValidationError{
				Field:      "pattern",
				Message:    "invalid glob pattern",
				Suggestion: "use glob syntax such as \"k8s-*\" or \"*worker*\"",
			}
		}
	}

	var raw []mo.VirtualMachine
	if err := c.retrieve(ctx, "VirtualMachine", vmProps, &raw); err != nil {
		return nil, err
	}

	vms := make([]VMInfo, 0, len(raw))
	for i := range raw {
		info := vmInfoFromManaged(&raw[i])
		if pattern != "" {
			ok, _ := doublestar.Match(strings.ToLower(pattern), strings.ToLower(info.Name))
			if !ok {
				continue
			}
		}
		vms = append(vms, info)
	}

	sort.Slice(vms, func(i, j int) bool { return vms[i].Name < vms[j].Name })
	return vms, nil
}

// ListVMNames returns the names of every non-template VM; this is the live
// list maintenance categorization partitions.
func (c *Client) ListVMNames(ctx context.Context) ([]string, error) {
	vms, err := c.ListVMs(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(vms))
	for _, vm := range vms {
		if vm.Template {
			continue
		}
		names = append(names, vm.Name)
	}
	return names, nil
}

// ListTemplates returns every VM marked as a template.
func (c *Client) ListTemplates(ctx context.Context) ([]VMInfo, error) {
	vms, err := c.ListVMs(ctx, "")
	if err != nil {
		return nil, err
	}
	var templates []VMInfo
	for _, vm := range vms {
		if vm.Template {
			templates = append(templates, vm)
		}
	}
	return templates, nil
}

// VMDetail extends VMInfo with placement and storage information for the
// single-VM info tool.
type VMDetail struct {
	VMInfo
	Host        string   `json:"host,omitempty"`
	Datastores  []string `json:"datastores,omitempty"`
	Networks    []string `json:"networks,omitempty"`
	StorageGB   float64  `json:"storage_gb"`
	Annotations string   `json:"annotations,omitempty"`
}

// GetVM returns detailed information for a VM by exact name.
func (c *Client) GetVM(ctx context.Context, name string) (*VMDetail, error) {
	var raw []mo.VirtualMachine
	props := append([]string{"network", "datastore", "runtime.host", "config.annotation"}, vmProps...)
	if err := c.retrieve(ctx, "VirtualMachine", props, &raw); err != nil {
		return nil, err
	}

	var vm *mo.VirtualMachine
	for i := range raw {
		if raw[i].Name == name {
			vm = &raw[i]
			break
		}
	}
	if vm == nil {
		return nil, &vcerrors.NotFoundError{Resource: "VM", ID: name}
	}

	detail := &VMDetail{VMInfo: vmInfoFromManaged(vm)}
	detail.StorageGB = float64(vm.Summary.Storage.Committed) / (1 << 30)
	if vm.Config != nil {
		detail.Annotations = vm.Config.Annotation
	}

	if vm.Runtime.Host != nil {
		if name, err := c.entityName(ctx, *vm.Runtime.Host); err == nil {
			detail.Host = name
		}
	}
	for _, dsRef := range vm.Datastore {
		if name, err := c.entityName(ctx, dsRef); err == nil {
			detail.Datastores = append(detail.Datastores, name)
		}
	}
	for _, netRef := range vm.Network {
		if name, err := c.entityName(ctx, netRef); err == nil {
			detail.Networks = append(detail.Networks, name)
		}
	}
	return detail, nil
}

func vmInfoFromManaged(vm *mo.VirtualMachine) VMInfo {
	s := vm.Summary
	info := VMInfo{
		ID:         moRefValue(vm.Self),
		Name:       vm.Name,
		PowerState: string(s.Runtime.PowerState),
		GuestOS:    s.Config.GuestFullName,
		IPAddress:  s.Guest.IpAddress,
		CPUCount:   s.Config.NumCpu,
		MemoryMB:   s.Config.MemorySizeMB,
		CPUUsage:   s.QuickStats.OverallCpuUsage,
		MemUsage:   s.QuickStats.GuestMemoryUsage,
		Uptime:     s.QuickStats.UptimeSeconds,
		ToolsState: string(s.Guest.ToolsRunningStatus),
	}
	if vm.Config != nil {
		info.Template = vm.Config.Template
	}
	if vm.Guest != nil {
		info.Hostname = vm.Guest.HostName
	}
	return info
}
