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

	"github.com/vmware/govmomi/vim25/types"

	"github.com/tombee/vcops/internal/log"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// PowerOn powers on a VM by name and waits for the task to finish. It
// returns false when the VM was already powered on and nothing was done.
func (c *Client) PowerOn(ctx context.Context, name string) (bool, error) {
	vm, err := c.findVM(ctx, name)
	if err != nil {
		return false, err
	}

	state, err := vm.PowerState(ctx)
	if err != nil {
		return false, vcerrors.Wrapf(err, "reading power state of %s", name)
	}
	if state == types.VirtualMachinePowerStatePoweredOn {
		return false, nil
	}

	if err := c.pace(ctx); err != nil {
		return false, err
	}
	c.logger.Info("powering on VM", slog.String(log.VMKey, name))

	task, err := vm.PowerOn(ctx)
	if err != nil {
		return false, vcerrors.Wrapf(err, "starting power-on of %s", name)
	}
	return true, c.waitTask(ctx, task, "power on", name)
}

// PowerOff hard-stops a VM by name and waits for the task to finish. It
// returns false when the VM was already powered off.
func (c *Client) PowerOff(ctx context.Context, name string) (bool, error) {
	vm, err := c.findVM(ctx, name)
	if err != nil {
		return false, err
	}

	state, err := vm.PowerState(ctx)
	if err != nil {
		return false, vcerrors.Wrapf(err, "reading power state of %s", name)
	}
	if state == types.VirtualMachinePowerStatePoweredOff {
		return false, nil
	}

	if err := c.pace(ctx); err != nil {
		return false, err
	}
	c.logger.Info("powering off VM", slog.String(log.VMKey, name))

	task, err := vm.PowerOff(ctx)
	if err != nil {
		return false, vcerrors.Wrapf(err, "starting power-off of %s", name)
	}
	return true, c.waitTask(ctx, task, "power off", name)
}

// Reset hard-resets a running VM. Resetting a powered-off VM is rejected;
// power-on is the right operation there.
func (c *Client) Reset(ctx context.Context, name string) error {
	vm, err := c.findVM(ctx, name)
	if err != nil {
		return err
	}

	state, err := vm.PowerState(ctx)
	if err != nil {
		return vcerrors.Wrapf(err, "reading power state of %s", name)
	}
	if state == types.VirtualMachinePowerStatePoweredOff {
		return &vcerrors.ValidationError{
			Field:      "vm_name",
			Message:    "VM is powered off and cannot be reset",
			Suggestion: "power the VM on instead",
		}
	}

	if err := c.pace(ctx); err != nil {
		return err
	}
	c.logger.Info("resetting VM", slog.String(log.VMKey, name))

	task, err := vm.Reset(ctx)
	if err != nil {
		return vcerrors.Wrapf(err, "starting reset of %s", name)
	}
	return c.waitTask(ctx, task, "reset", name)
}

// ShutdownGuest asks VMware Tools inside the VM for a clean OS shutdown.
// There is no task to await; the call returns once vCenter accepts it.
func (c *Client) ShutdownGuest(ctx context.Context, name string) error {
	vm, err := c.findVM(ctx, name)
	if err != nil {
		return err
	}

	if err := c.pace(ctx); err != nil {
		return err
	}
	c.logger.Info("requesting guest shutdown", slog.String(log.VMKey, name))

	if err := vm.ShutdownGuest(ctx); err != nil {
		return &vcerrors.TaskError{
			Operation: "guest shutdown",
			Target:    name,
			Message:   "guest shutdown request failed; VMware Tools may not be running",
			Cause:     err,
		}
	}
	return nil
}
