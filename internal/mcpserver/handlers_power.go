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

package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/vcops/internal/audit"
	"github.com/tombee/vcops/internal/vsphere"
)

func (s *Server) handlePowerOn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowWrite() {
		return s.rateLimited("vcenter_power_on")
	}
	name := request.GetString("name", "")
	if name == "" {
		return s.errorResult(validationError("name", "name is required"))
	}

	changed, err := s.vc.PowerOn(ctx, name)
	s.recordAudit(ctx, audit.Entry{
		Tool:    "vcenter_power_on",
		Target:  name,
		Action:  "power_on",
		Outcome: auditOutcome(err),
		Detail:  errDetail(err),
	})
	if err != nil {
		return s.errorResult(err)
	}
	if !changed {
		return s.textResult(fmt.Sprintf("%s is already powered on", name))
	}
	return s.textResult(fmt.Sprintf("%s powered on", name))
}

func (s *Server) handlePowerOff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowWrite() {
		return s.rateLimited("vcenter_power_off")
	}
	name := request.GetString("name", "")
	if name == "" {
		return s.errorResult(validationError("name", "name is required"))
	}

	if request.GetBool("graceful", false) {
		err := s.vc.ShutdownGuest(ctx, name)
		s.recordAudit(ctx, audit.Entry{
			Tool:    "vcenter_power_off",
			Target:  name,
			Action:  "shutdown_guest",
			Outcome: auditOutcome(err),
			Detail:  errDetail(err),
		})
		if err != nil {
			return s.errorResult(err)
		}
		return s.textResult(fmt.Sprintf("guest shutdown requested for %s", name))
	}

	changed, err := s.vc.PowerOff(ctx, name)
	s.recordAudit(ctx, audit.Entry{
		Tool:    "vcenter_power_off",
		Target:  name,
		Action:  "power_off",
		Outcome: auditOutcome(err),
		Detail:  errDetail(err),
	})
	if err != nil {
		return s.errorResult(err)
	}
	if !changed {
		return s.textResult(fmt.Sprintf("%s is already powered off", name))
	}
	return s.textResult(fmt.Sprintf("%s powered off", name))
}

func (s *Server) handleResetVM(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowWrite() {
		return s.rateLimited("vcenter_reset_vm")
	}
	name := request.GetString("name", "")
	if name == "" {
		return s.errorResult(validationError("name", "name is required"))
	}

	err := s.vc.Reset(ctx, name)
	s.recordAudit(ctx, audit.Entry{
		Tool:    "vcenter_reset_vm",
		Target:  name,
		Action:  "reset",
		Outcome: auditOutcome(err),
		Detail:  errDetail(err),
	})
	if err != nil {
		return s.errorResult(err)
	}
	return s.textResult(fmt.Sprintf("%s reset", name))
}

func (s *Server) handleCloneVM(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowWrite() {
		return s.rateLimited("vcenter_clone_vm")
	}

	req := vsphere.CloneRequest{
		SourceName: request.GetString("source", ""),
		TargetName: request.GetString("target", ""),
		Folder:     request.GetString("folder", ""),
		Datastore:  request.GetString("datastore", ""),
		CPUCount:   int32(request.GetInt("cpu", 0)),
		MemoryMB:   int64(request.GetInt("memory_mb", 0)),
		PowerOn:    request.GetBool("power_on", false),
	}

	vm, err := s.vc.CloneVM(ctx, req)
	s.recordAudit(ctx, audit.Entry{
		Tool:    "vcenter_clone_vm",
		Target:  req.TargetName,
		Action:  "clone",
		Outcome: auditOutcome(err),
		Detail:  errDetail(err),
	})
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(vm)
}

func (s *Server) handleDeployTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowWrite() {
		return s.rateLimited("vcenter_deploy_template")
	}

	req := vsphere.CloneRequest{
		SourceName: request.GetString("template", ""),
		TargetName: request.GetString("name", ""),
		Folder:     request.GetString("folder", ""),
		Datastore:  request.GetString("datastore", ""),
		CPUCount:   int32(request.GetInt("cpu", 0)),
		MemoryMB:   int64(request.GetInt("memory_mb", 0)),
		Hostname:   request.GetString("hostname", ""),
		IPAddress:  request.GetString("ip", ""),
		Netmask:    request.GetString("netmask", ""),
		Gateway:    request.GetString("gateway", ""),
		PowerOn:    request.GetBool("power_on", false),
	}

	vm, err := s.vc.DeployFromTemplate(ctx, req)
	s.recordAudit(ctx, audit.Entry{
		Tool:    "vcenter_deploy_template",
		Target:  req.TargetName,
		Action:  "deploy",
		Outcome: auditOutcome(err),
		Detail:  errDetail(err),
	})
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(vm)
}

func auditOutcome(err error) string {
	if err != nil {
		return audit.OutcomeError
	}
	return audit.OutcomeOK
}

func errDetail(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
