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
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/vcops/internal/audit"
	"github.com/tombee/vcops/internal/maintenance"
)

func (s *Server) handleMaintenancePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_maintenance_plan")
	}
	plan, err := s.plan()
	if err != nil {
		return s.errorResult(err)
	}

	return s.jsonResult(map[string]any{
		"runbook":        s.source.Path(),
		"shutdown_waves": plan.DownWaves,
		"startup_waves":  plan.UpWaves,
	})
}

func (s *Server) handleCategorizeVMs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_categorize_vms")
	}
	plan, err := s.plan()
	if err != nil {
		return s.errorResult(err)
	}

	names, err := s.vc.ListVMNames(ctx)
	if err != nil {
		return s.errorResult(err)
	}

	groups := plan.Categorize(names)
	counts := make(map[string]int, len(groups))
	for category, vms := range groups {
		counts[category] = len(vms)
	}

	return s.jsonResult(map[string]any{
		"categories": groups,
		"counts":     counts,
		"total_vms":  len(names),
	})
}

func (s *Server) handlePowerDownSequence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runSequence(ctx, request, maintenance.SequenceDown, "vcenter_power_down_sequence")
}

func (s *Server) handlePowerUpSequence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runSequence(ctx, request, maintenance.SequenceUp, "vcenter_power_up_sequence")
}

func (s *Server) runSequence(ctx context.Context, request mcp.CallToolRequest, seq maintenance.Sequence, tool string) (*mcp.CallToolResult, error) {
	if !s.limiter.allowWrite() {
		return s.rateLimited(tool)
	}
	plan, err := s.plan()
	if err != nil {
		return s.errorResult(err)
	}
	if plan.Empty() {
		return s.errorResult(validationError("instructions",
			"the runbook contains no power sequences"))
	}

	dryRun := request.GetBool("dry_run", true)

	names, err := s.vc.ListVMNames(ctx)
	if err != nil {
		return s.errorResult(err)
	}

	powerFn := s.vc.PowerOn
	if seq == maintenance.SequenceDown {
		powerFn = s.vc.PowerOff
	}
	report := s.runner.Execute(ctx, plan, seq, names, dryRun, func(ctx context.Context, vm string) error {
		_, err := powerFn(ctx, vm)
		return err
	})

	outcome := audit.OutcomeDryRun
	detail := ""
	if !dryRun {
		outcome = audit.OutcomeOK
		if report.Failed > 0 {
			outcome = audit.OutcomeError
			detail = fmt.Sprintf("%d VMs failed", report.Failed)
		}
	}
	s.recordAudit(ctx, audit.Entry{
		Tool:    tool,
		Action:  "power_" + string(seq) + "_sequence",
		Outcome: outcome,
		Detail:  detail,
	})

	return s.textResult(report.Text())
}

func (s *Server) handleAuditLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_audit_log")
	}
	if s.audit == nil {
		return s.errorResult(validationError("audit",
			"no audit database configured; set audit_db in the config file"))
	}

	opts := audit.ListOptions{
		Target: request.GetString("target", ""),
		Limit:  request.GetInt("limit", 0),
	}
	if hours := request.GetInt("hours", 0); hours > 0 {
		opts.Since = time.Now().Add(-time.Duration(hours) * time.Hour)
	}

	entries, err := s.audit.List(ctx, opts)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
