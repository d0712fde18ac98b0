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

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/vcops/internal/query"
)

func (s *Server) handleListVMs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_list_vms")
	}

	vms, err := s.vc.ListVMs(ctx, request.GetString("pattern", ""))
	if err != nil {
		return s.errorResult(err)
	}

	if filter := request.GetString("filter", ""); filter != "" {
		vms, err = query.FilterVMs(filter, vms)
		if err != nil {
			return s.errorResult(err)
		}
	}

	result := map[string]any{
		"vms":   vms,
		"count": len(vms),
	}

	if expression := request.GetString("jq", ""); expression != "" {
		transformed, err := s.jq.Transform(ctx, expression, result)
		if err != nil {
			return s.errorResult(validationError("jq", err.Error()))
		}
		return s.jsonResult(transformed)
	}
	return s.jsonResult(result)
}

func (s *Server) handleVMInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_vm_info")
	}
	name := request.GetString("name", "")
	if name == "" {
		return s.errorResult(validationError("name", "name is required"))
	}

	vm, err := s.vc.GetVM(ctx, name)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(vm)
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_list_templates")
	}

	templates, err := s.vc.ListTemplates(ctx)
	if err != nil {
		return s.errorResult(err)
	}

	result := map[string]any{
		"templates": templates,
		"count":     len(templates),
	}

	// Content library items live outside the VM inventory. Listing them is
	// best-effort: older vCenters without the vAPI endpoint still get the
	// inventory templates.
	if items, err := s.vc.ListLibraryItems(ctx); err == nil {
		result["library_items"] = items
	} else {
		s.logger.Debug("content library listing failed", "error", err)
	}

	return s.jsonResult(result)
}

func (s *Server) handleListHosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_list_hosts")
	}
	hosts, err := s.vc.ListHosts(ctx)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(map[string]any{"hosts": hosts, "count": len(hosts)})
}

func (s *Server) handleHostInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_host_info")
	}
	name := request.GetString("name", "")
	if name == "" {
		return s.errorResult(validationError("name", "name is required"))
	}

	host, err := s.vc.GetHost(ctx, name)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(host)
}

func (s *Server) handleListDatastores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_list_datastores")
	}
	datastores, err := s.vc.ListDatastores(ctx)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(map[string]any{"datastores": datastores, "count": len(datastores)})
}

func (s *Server) handleListNetworks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_list_networks")
	}
	networks, err := s.vc.ListNetworks(ctx)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(map[string]any{"networks": networks, "count": len(networks)})
}

func (s *Server) handleListFolders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_list_folders")
	}
	folders, err := s.vc.ListFolders(ctx)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(map[string]any{"folders": folders, "count": len(folders)})
}

func (s *Server) handleVMPerformance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_vm_performance")
	}
	name := request.GetString("name", "")
	if name == "" {
		return s.errorResult(validationError("name", "name is required"))
	}

	report, err := s.vc.VMPerformance(ctx, name)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(report)
}

func (s *Server) handleHostPerformance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_host_performance")
	}
	name := request.GetString("name", "")
	if name == "" {
		return s.errorResult(validationError("name", "name is required"))
	}

	report, err := s.vc.HostPerformance(ctx, name)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(report)
}

func (s *Server) handleSummaryStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.allowRead() {
		return s.rateLimited("vcenter_summary_stats")
	}
	stats, err := s.vc.Summary(ctx)
	if err != nil {
		return s.errorResult(err)
	}
	return s.jsonResult(stats)
}
