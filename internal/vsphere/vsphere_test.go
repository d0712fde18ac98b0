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
	"strings"
	"testing"

	"github.com/vmware/govmomi/simulator"
	"github.com/vmware/govmomi/vim25"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// testClient attaches a Client to a simulator connection with pacing
// effectively disabled. The simulator's datacenter is resolved on the
// finder up front, as Connect does for real sessions, so folder and
// resource pool lookups work.
func testClient(ctx context.Context, t *testing.T, vc *vim25.Client) *Client {
	t.Helper()
	c := newClient(vc, Config{RequestsPerSecond: 10000})
	dc, err := c.finder.DefaultDatacenter(ctx)
	if err != nil {
		t.Fatalf("resolving simulator datacenter: %v", err)
	}
	c.finder.SetDatacenter(dc)
	return c
}

func TestListVMs(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		vms, err := c.ListVMs(ctx, "")
		if err != nil {
			t.Fatalf("ListVMs() error: %v", err)
		}
		if len(vms) == 0 {
			t.Fatal("ListVMs() returned no VMs")
		}
		for i := 1; i < len(vms); i++ {
			if vms[i-1].Name > vms[i].Name {
				t.Fatalf("VMs not sorted: %q before %q", vms[i-1].Name, vms[i].Name)
			}
		}
		for _, vm := range vms {
			if vm.ID == "" || vm.PowerState == "" {
				t.Errorf("incomplete VMInfo: %+v", vm)
			}
		}
	})
}

func TestListVMs_Pattern(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		all, err := c.ListVMs(ctx, "")
		if err != nil {
			t.Fatalf("ListVMs() error: %v", err)
		}
		filtered, err := c.ListVMs(ctx, "*_VM0")
		if err != nil {
			t.Fatalf("ListVMs(pattern) error: %v", err)
		}
		if len(filtered) == 0 || len(filtered) >= len(all) {
			t.Errorf("pattern should narrow results: all=%d filtered=%d", len(all), len(filtered))
		}
		for _, vm := range filtered {
			if !strings.HasSuffix(vm.Name, "_VM0") {
				t.Errorf("unexpected match %q", vm.Name)
			}
		}
	})
}

func TestListVMs_BadPattern(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		_, err := c.ListVMs(ctx, "[")
		var vErr *vcerrors.ValidationError
		if !vcerrors.As(err, &vErr) {
			t.Errorf("expected ValidationError for bad pattern, got %v", err)
		}
	})
}

func TestGetVM(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		detail, err := c.GetVM(ctx, "DC0_H0_VM0")
		if err != nil {
			t.Fatalf("GetVM() error: %v", err)
		}
		if detail.Name != "DC0_H0_VM0" {
			t.Errorf("Name = %q", detail.Name)
		}
		if detail.Host == "" {
			t.Error("Host should be resolved")
		}
		if len(detail.Datastores) == 0 {
			t.Error("Datastores should be resolved")
		}

		if _, err := c.GetVM(ctx, "no-such-vm"); !vcerrors.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}

func TestPowerCycle(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)
		const name = "DC0_H0_VM0"

		// Simulator VMs boot powered on.
		changed, err := c.PowerOff(ctx, name)
		if err != nil {
			t.Fatalf("PowerOff() error: %v", err)
		}
		if !changed {
			t.Error("PowerOff() should report a state change")
		}

		changed, err = c.PowerOff(ctx, name)
		if err != nil {
			t.Fatalf("second PowerOff() error: %v", err)
		}
		if changed {
			t.Error("PowerOff() on a stopped VM should be a no-op")
		}

		if err := c.Reset(ctx, name); err == nil {
			t.Error("Reset() of a powered-off VM should fail")
		}

		changed, err = c.PowerOn(ctx, name)
		if err != nil {
			t.Fatalf("PowerOn() error: %v", err)
		}
		if !changed {
			t.Error("PowerOn() should report a state change")
		}

		if err := c.Reset(ctx, name); err != nil {
			t.Errorf("Reset() of a running VM failed: %v", err)
		}
	})
}

func TestPower_UnknownVM(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		if _, err := c.PowerOn(ctx, "no-such-vm"); !vcerrors.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}

func TestInventoryListings(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		hosts, err := c.ListHosts(ctx)
		if err != nil {
			t.Fatalf("ListHosts() error: %v", err)
		}
		if len(hosts) == 0 {
			t.Error("no hosts")
		}
		for _, h := range hosts {
			if h.Name == "" || h.ID == "" {
				t.Errorf("incomplete HostInfo: %+v", h)
			}
		}

		stores, err := c.ListDatastores(ctx)
		if err != nil {
			t.Fatalf("ListDatastores() error: %v", err)
		}
		if len(stores) == 0 {
			t.Error("no datastores")
		}

		nets, err := c.ListNetworks(ctx)
		if err != nil {
			t.Fatalf("ListNetworks() error: %v", err)
		}
		if len(nets) == 0 {
			t.Error("no networks")
		}

		folders, err := c.ListFolders(ctx)
		if err != nil {
			t.Fatalf("ListFolders() error: %v", err)
		}
		if len(folders) == 0 {
			t.Error("no folders")
		}
	})
}

func TestGetHost(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		hosts, err := c.ListHosts(ctx)
		if err != nil || len(hosts) == 0 {
			t.Fatalf("ListHosts() = %v, %v", hosts, err)
		}

		h, err := c.GetHost(ctx, hosts[0].Name)
		if err != nil {
			t.Fatalf("GetHost() error: %v", err)
		}
		if h.Name != hosts[0].Name {
			t.Errorf("Name = %q, want %q", h.Name, hosts[0].Name)
		}

		if _, err := c.GetHost(ctx, "no-such-host"); !vcerrors.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}

func TestSummary(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		stats, err := c.Summary(ctx)
		if err != nil {
			t.Fatalf("Summary() error: %v", err)
		}
		if stats.VMCount == 0 || stats.HostCount == 0 {
			t.Errorf("empty summary: %+v", stats)
		}
		if stats.PoweredOn+stats.PoweredOff > stats.VMCount {
			t.Errorf("power counts exceed VM count: %+v", stats)
		}
	})
}

func TestCloneVM(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		detail, err := c.CloneVM(ctx, CloneRequest{
			SourceName: "DC0_H0_VM0",
			TargetName: "clone-01",
		})
		if err != nil {
			t.Fatalf("CloneVM() error: %v", err)
		}
		if detail.Name != "clone-01" {
			t.Errorf("Name = %q", detail.Name)
		}

		if _, err := c.GetVM(ctx, "clone-01"); err != nil {
			t.Errorf("clone not found afterwards: %v", err)
		}
	})
}

func TestCloneVM_Validation(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		_, err := c.CloneVM(ctx, CloneRequest{SourceName: "DC0_H0_VM0"})
		var vErr *vcerrors.ValidationError
		if !vcerrors.As(err, &vErr) {
			t.Errorf("expected ValidationError, got %v", err)
		}

		_, err = c.CloneVM(ctx, CloneRequest{SourceName: "no-such-vm", TargetName: "x"})
		if !vcerrors.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}

func TestDeployFromTemplate_RejectsLiveVM(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		_, err := c.DeployFromTemplate(ctx, CloneRequest{
			SourceName: "DC0_H0_VM0",
			TargetName: "deploy-01",
		})
		var vErr *vcerrors.ValidationError
		if !vcerrors.As(err, &vErr) {
			t.Errorf("expected ValidationError for live VM source, got %v", err)
		}
	})
}

func TestListVMNames_ExcludesTemplates(t *testing.T) {
	simulator.Test(func(ctx context.Context, vc *vim25.Client) {
		c := testClient(ctx, t, vc)

		vm, err := c.findVM(ctx, "DC0_H0_VM1")
		if err != nil {
			t.Fatalf("findVM() error: %v", err)
		}
		if _, err := c.PowerOff(ctx, "DC0_H0_VM1"); err != nil {
			t.Fatalf("PowerOff() error: %v", err)
		}
		if err := vm.MarkAsTemplate(ctx); err != nil {
			t.Fatalf("MarkAsTemplate() error: %v", err)
		}

		names, err := c.ListVMNames(ctx)
		if err != nil {
			t.Fatalf("ListVMNames() error: %v", err)
		}
		for _, name := range names {
			if name == "DC0_H0_VM1" {
				t.Error("template should be excluded from live VM names")
			}
		}

		templates, err := c.ListTemplates(ctx)
		if err != nil {
			t.Fatalf("ListTemplates() error: %v", err)
		}
		found := false
		for _, tpl := range templates {
			if tpl.Name == "DC0_H0_VM1" {
				found = true
			}
		}
		if !found {
			t.Error("template missing from ListTemplates")
		}
	})
}
