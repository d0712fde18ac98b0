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

	"github.com/vmware/govmomi/vim25/mo"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// HostInfo is the flattened view of an ESXi host.
type HostInfo struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ConnectionState string  `json:"connection_state"`
	PowerState      string  `json:"power_state"`
	Vendor          string  `json:"vendor,omitempty"`
	Model           string  `json:"model,omitempty"`
	CPUModel        string  `json:"cpu_model,omitempty"`
	CPUCores        int16   `json:"cpu_cores"`
	CPUMhz          int32   `json:"cpu_mhz"`
	CPUUsageMhz     int32   `json:"cpu_usage_mhz"`
	MemoryGB        float64 `json:"memory_gb"`
	MemUsageGB      float64 `json:"mem_usage_gb"`
	VMCount         int     `json:"vm_count"`
	Version         string  `json:"version,omitempty"`
}

// ListHosts returns every ESXi host in the inventory, sorted by name.
func (c *Client) ListHosts(ctx context.Context) ([]HostInfo, error) {
	var raw []mo.HostSystem
	props := []string{"name", "summary", "vm"}
	if err := c.retrieve(ctx, "HostSystem", props, &raw); err != nil {
		return nil, err
	}

	hosts := make([]HostInfo, 0, len(raw))
	for i := range raw {
		hosts = append(hosts, hostInfoFromManaged(&raw[i]))
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Name < hosts[j].Name })
	return hosts, nil
}

// GetHost returns one host by exact name.
func (c *Client) GetHost(ctx context.Context, name string) (*HostInfo, error) {
	hosts, err := c.ListHosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range hosts {
		if hosts[i].Name == name {
			return &hosts[i], nil
		}
	}
	return nil, &vcerrors.NotFoundError{Resource: "host", ID: name}
}

func hostInfoFromManaged(h *mo.HostSystem) HostInfo {
	s := h.Summary
	info := HostInfo{
		ID:      moRefValue(h.Self),
		Name:    h.Name,
		VMCount: len(h.Vm),
	}
	info.ConnectionState = string(s.Runtime.ConnectionState)
	info.PowerState = string(s.Runtime.PowerState)
	if s.Hardware != nil {
		info.Vendor = s.Hardware.Vendor
		info.Model = s.Hardware.Model
		info.CPUModel = s.Hardware.CpuModel
		info.CPUCores = s.Hardware.NumCpuCores
		info.CPUMhz = s.Hardware.CpuMhz
		info.MemoryGB = float64(s.Hardware.MemorySize) / (1 << 30)
	}
	info.CPUUsageMhz = s.QuickStats.OverallCpuUsage
	info.MemUsageGB = float64(s.QuickStats.OverallMemoryUsage) / 1024
	if s.Config.Product != nil {
		info.Version = s.Config.Product.FullName
	}
	return info
}

// DatastoreInfo is the flattened view of a datastore.
type DatastoreInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	CapacityGB float64 `json:"capacity_gb"`
	FreeGB     float64 `json:"free_gb"`
	Accessible bool    `json:"accessible"`
}

// ListDatastores returns every datastore in the inventory, sorted by name.
func (c *Client) ListDatastores(ctx context.Context) ([]DatastoreInfo, error) {
	var raw []mo.Datastore
	if err := c.retrieve(ctx, "Datastore", []string{"name", "summary"}, &raw); err != nil {
		return nil, err
	}

	stores := make([]DatastoreInfo, 0, len(raw))
	for i := range raw {
		s := raw[i].Summary
		stores = append(stores, DatastoreInfo{
			ID:         moRefValue(raw[i].Self),
			Name:       raw[i].Name,
			Type:       s.Type,
			CapacityGB: float64(s.Capacity) / (1 << 30),
			FreeGB:     float64(s.FreeSpace) / (1 << 30),
			Accessible: s.Accessible,
		})
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].Name < stores[j].Name })
	return stores, nil
}

// NetworkInfo is the flattened view of a network or portgroup.
type NetworkInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Accessible bool   `json:"accessible"`
	VMCount    int    `json:"vm_count"`
}

// ListNetworks returns every network in the inventory, including
// distributed portgroups, sorted by name.
func (c *Client) ListNetworks(ctx context.Context) ([]NetworkInfo, error) {
	var raw []mo.Network
	if err := c.retrieve(ctx, "Network", []string{"name", "summary", "vm"}, &raw); err != nil {
		return nil, err
	}

	nets := make([]NetworkInfo, 0, len(raw))
	for i := range raw {
		info := NetworkInfo{
			ID:      moRefValue(raw[i].Self),
			Name:    raw[i].Name,
			VMCount: len(raw[i].Vm),
		}
		if s := raw[i].Summary.GetNetworkSummary(); s != nil {
			info.Accessible = s.Accessible
		}
		nets = append(nets, info)
	}
	sort.Slice(nets, func(i, j int) bool { return nets[i].Name < nets[j].Name })
	return nets, nil
}

// FolderInfo is the flattened view of an inventory folder.
type FolderInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ChildTypes []string `json:"child_types,omitempty"`
	ChildCount int      `json:"child_count"`
}

// ListFolders returns every inventory folder, sorted by name.
func (c *Client) ListFolders(ctx context.Context) ([]FolderInfo, error) {
	var raw []mo.Folder
	if err := c.retrieve(ctx, "Folder", []string{"name", "childType", "childEntity"}, &raw); err != nil {
		return nil, err
	}

	folders := make([]FolderInfo, 0, len(raw))
	for i := range raw {
		folders = append(folders, FolderInfo{
			ID:         moRefValue(raw[i].Self),
			Name:       raw[i].Name,
			ChildTypes: raw[i].ChildType,
			ChildCount: len(raw[i].ChildEntity),
		})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}
