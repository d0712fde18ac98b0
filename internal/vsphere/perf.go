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

	"github.com/vmware/govmomi/performance"
	"github.com/vmware/govmomi/vim25/types"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// perfMetricNames are the counters collected for VMs and hosts; the realtime
// equivalents of overall CPU, memory, disk, and network activity.
var perfMetricNames = []string{
	"cpu.usage.average",
	"cpu.usagemhz.average",
	"mem.usage.average",
	"disk.read.average",
	"disk.write.average",
	"net.received.average",
	"net.transmitted.average",
}

// MetricSample is one counter instance value.
type MetricSample struct {
	Name     string `json:"name"`
	Instance string `json:"instance,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Value    int64  `json:"value"`
}

// PerfReport is the latest realtime sample set for one entity.
type PerfReport struct {
	Entity  string         `json:"entity"`
	Samples []MetricSample `json:"samples"`
}

// VMPerformance returns the latest realtime performance sample for a VM.
func (c *Client) VMPerformance(ctx context.Context, name string) (*PerfReport, error) {
	vm, err := c.findVM(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.performance(ctx, name, vm.Reference())
}

// HostPerformance returns the latest realtime performance sample for a host.
func (c *Client) HostPerformance(ctx context.Context, name string) (*PerfReport, error) {
	hosts, err := c.ListHosts(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range hosts {
		if h.Name == name {
			ref := types.ManagedObjectReference{Type: "HostSystem", Value: h.ID}
			return c.performance(ctx, name, ref)
		}
	}
	return nil, &vcerrors.NotFoundError{Resource: "host", ID: name}
}

func (c *Client) performance(ctx context.Context, name string, ref types.ManagedObjectReference) (*PerfReport, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	mgr := performance.NewManager(c.vim)
	spec := types.PerfQuerySpec{
		MaxSample:  1,
		IntervalId: 20,
	}

	sample, err := mgr.SampleByName(ctx, spec, perfMetricNames, []types.ManagedObjectReference{ref})
	if err != nil {
		return nil, vcerrors.Wrapf(err, "querying performance of %s", name)
	}

	series, err := mgr.ToMetricSeries(ctx, sample)
	if err != nil {
		return nil, vcerrors.Wrapf(err, "decoding performance of %s", name)
	}

	report := &PerfReport{Entity: name}
	for _, entity := range series {
		for _, metric := range entity.Value {
			if len(metric.Value) == 0 {
				continue
			}
			report.Samples = append(report.Samples, MetricSample{
				Name:     metric.Name,
				Instance: metric.Instance,
				Unit:     metric.Unit,
				Value:    metric.Value[len(metric.Value)-1],
			})
		}
	}
	return report, nil
}

// SummaryStats is an environment-wide utilization roll-up built from
// quickstats rather than the performance manager, so it works even when
// realtime counters are still warming up.
type SummaryStats struct {
	VMCount       int     `json:"vm_count"`
	PoweredOn     int     `json:"powered_on"`
	PoweredOff    int     `json:"powered_off"`
	TemplateCount int     `json:"template_count"`
	HostCount     int     `json:"host_count"`
	TotalCPUMhz   int64   `json:"total_cpu_mhz"`
	UsedCPUMhz    int64   `json:"used_cpu_mhz"`
	TotalMemGB    float64 `json:"total_mem_gb"`
	UsedMemGB     float64 `json:"used_mem_gb"`
	DatastoreGB   float64 `json:"datastore_gb"`
	DatastoreFree float64 `json:"datastore_free_gb"`
}

// Summary collects environment-wide stats across VMs, hosts, and datastores.
func (c *Client) Summary(ctx context.Context) (*SummaryStats, error) {
	vms, err := c.ListVMs(ctx, "")
	if err != nil {
		return nil, err
	}
	hosts, err := c.ListHosts(ctx)
	if err != nil {
		return nil, err
	}
	stores, err := c.ListDatastores(ctx)
	if err != nil {
		return nil, err
	}

	stats := &SummaryStats{VMCount: len(vms), HostCount: len(hosts)}
	for _, vm := range vms {
		switch vm.PowerState {
		case string(types.VirtualMachinePowerStatePoweredOn):
			stats.PoweredOn++
		case string(types.VirtualMachinePowerStatePoweredOff):
			stats.PoweredOff++
		}
		if vm.Template {
			stats.TemplateCount++
		}
	}
	for _, h := range hosts {
		stats.TotalCPUMhz += int64(h.CPUMhz) * int64(h.CPUCores)
		stats.UsedCPUMhz += int64(h.CPUUsageMhz)
		stats.TotalMemGB += h.MemoryGB
		stats.UsedMemGB += h.MemUsageGB
	}
	for _, ds := range stores {
		stats.DatastoreGB += ds.CapacityGB
		stats.DatastoreFree += ds.FreeGB
	}
	return stats, nil
}
