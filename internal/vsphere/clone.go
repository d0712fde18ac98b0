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
	"log/slog"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/tombee/vcops/internal/log"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// CloneRequest describes a VM clone or template deployment.
type CloneRequest struct {
	// SourceName is the VM or template to clone from.
	SourceName string

	// TargetName is the name of the new VM.
	TargetName string

	// Folder is an optional inventory folder path; the datacenter's VM
	// folder is used when empty.
	Folder string

	// Datastore is an optional target datastore name.
	Datastore string

	// ResourcePool is an optional target resource pool path.
	ResourcePool string

	// CPUCount and MemoryMB override the source hardware when non-zero.
	CPUCount int32
	MemoryMB int64

	// Hostname and IPAddress drive Linux guest customization when set.
	// A static IPAddress needs Netmask and Gateway too.
	Hostname  string
	IPAddress string
	Netmask   string
	Gateway   string

	// PowerOn starts the new VM once the clone completes.
	PowerOn bool
}

// CloneVM creates a new VM from an existing VM or template and waits for
// the clone task to finish.
func (c *Client) CloneVM(ctx context.Context, req CloneRequest) (*VMDetail, error) {
	if req.SourceName == "" || req.TargetName == "" {
		return nil, &vcerrors.ValidationError{
			Field:   "vm_name",
			Message: "both a source and a target VM name are required",
		}
	}

	src, err := c.findVM(ctx, req.SourceName)
	if err != nil {
		return nil, err
	}

	folder, err := c.targetFolder(ctx, req.Folder)
	if err != nil {
		return nil, err
	}

	spec, err := c.buildCloneSpec(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("cloning VM",
		slog.String("source", req.SourceName),
		slog.String(log.VMKey, req.TargetName),
	)

	task, err := src.Clone(ctx, folder, req.TargetName, *spec)
	if err != nil {
		return nil, vcerrors.Wrapf(err, "starting clone of %s", req.SourceName)
	}
	if err := c.waitTask(ctx, task, "clone", req.TargetName); err != nil {
		return nil, err
	}

	return c.GetVM(ctx, req.TargetName)
}

// DeployFromTemplate clones a template into a new VM. It is CloneVM with
// the extra guarantee that the source is actually a template, which catches
// the common mistake of deploying from a live VM.
func (c *Client) DeployFromTemplate(ctx context.Context, req CloneRequest) (*VMDetail, error) {
	src, err := c.GetVM(ctx, req.SourceName)
	if err != nil {
		return nil, err
	}
	if !src.Template {
		return nil, &vcerrors.ValidationError{
			Field:      "template_name",
			Message:    "source is a live VM, not a template",
			Suggestion: "use vcenter_clone_vm for live VMs, or pick a template from vcenter_list_vms",
		}
	}
	return c.CloneVM(ctx, req)
}

func (c *Client) targetFolder(ctx context.Context, path string) (*object.Folder, error) {
	folder, err := c.finder.FolderOrDefault(ctx, path)
	if err != nil {
		if path != "" {
			return nil, &vcerrors.NotFoundError{Resource: "folder", ID: path}
		}
		return nil, vcerrors.Wrap(err, "resolving default VM folder")
	}
	return folder, nil
}

func (c *Client) buildCloneSpec(ctx context.Context, req CloneRequest) (*types.VirtualMachineCloneSpec, error) {
	spec := &types.VirtualMachineCloneSpec{PowerOn: req.PowerOn}

	pool, err := c.finder.ResourcePoolOrDefault(ctx, req.ResourcePool)
	if err != nil {
		if req.ResourcePool != "" {
			return nil, &vcerrors.NotFoundError{Resource: "resource pool", ID: req.ResourcePool}
		}
		return nil, vcerrors.Wrap(err, "resolving default resource pool")
	}
	poolRef := pool.Reference()
	spec.Location.Pool = &poolRef

	if req.Datastore != "" {
		ds, err := c.finder.Datastore(ctx, req.Datastore)
		if err != nil {
			return nil, &vcerrors.NotFoundError{Resource: "datastore", ID: req.Datastore}
		}
		dsRef := ds.Reference()
		spec.Location.Datastore = &dsRef
	}

	if req.CPUCount > 0 || req.MemoryMB > 0 {
		spec.Config = &types.VirtualMachineConfigSpec{
			NumCPUs:  req.CPUCount,
			MemoryMB: req.MemoryMB,
		}
	}

	if req.Hostname != "" || req.IPAddress != "" {
		custom, err := linuxCustomization(req)
		if err != nil {
			return nil, err
		}
		spec.Customization = custom
	}

	return spec, nil
}

// linuxCustomization builds a LinuxPrep customization for hostname and
// static IP assignment.
func linuxCustomization(req CloneRequest) (*types.CustomizationSpec, error) {
	hostname := req.Hostname
	if hostname == "" {
		hostname = req.TargetName
	}

	spec := &types.CustomizationSpec{
		Identity: &types.CustomizationLinuxPrep{
			HostName: &types.CustomizationFixedName{Name: hostname},
			Domain:   "local",
		},
		GlobalIPSettings: types.CustomizationGlobalIPSettings{},
	}

	adapter := types.CustomizationAdapterMapping{}
	if req.IPAddress != "" {
		if req.Netmask == "" || req.Gateway == "" {
			return nil, &vcerrors.ValidationError{
				Field:      "ip_address",
				Message:    "a static IP needs netmask and gateway as well",
				Suggestion: "set netmask and gateway, or omit ip_address for DHCP",
			}
		}
		adapter.Adapter = types.CustomizationIPSettings{
			Ip:         &types.CustomizationFixedIp{IpAddress: req.IPAddress},
			SubnetMask: req.Netmask,
			Gateway:    []string{req.Gateway},
		}
	} else {
		adapter.Adapter = types.CustomizationIPSettings{
			Ip: &types.CustomizationDhcpIpGenerator{},
		}
	}
	spec.NicSettingMap = []types.CustomizationAdapterMapping{adapter}

	return spec, nil
}
