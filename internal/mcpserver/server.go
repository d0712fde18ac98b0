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

// Package mcpserver exposes vCenter operations as MCP tools over stdio.
// Failures that the calling agent can act on (bad input, unknown VM,
// vCenter task errors) come back as tool results with failure text, not
// protocol errors, so the agent can read the message and retry.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/vcops/internal/audit"
	"github.com/tombee/vcops/internal/jq"
	"github.com/tombee/vcops/internal/log"
	"github.com/tombee/vcops/internal/maintenance"
	"github.com/tombee/vcops/internal/personality"
	"github.com/tombee/vcops/internal/vsphere"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// VCenter is the inventory and power surface the tools are built on.
// *vsphere.Client implements it; tests substitute a fake.
type VCenter interface {
	ListVMs(ctx context.Context, pattern string) ([]vsphere.VMInfo, error)
	ListVMNames(ctx context.Context) ([]string, error)
	ListTemplates(ctx context.Context) ([]vsphere.VMInfo, error)
	ListLibraryItems(ctx context.Context) ([]vsphere.LibraryItem, error)
	GetVM(ctx context.Context, name string) (*vsphere.VMDetail, error)

	PowerOn(ctx context.Context, name string) (bool, error)
	PowerOff(ctx context.Context, name string) (bool, error)
	Reset(ctx context.Context, name string) error
	ShutdownGuest(ctx context.Context, name string) error

	CloneVM(ctx context.Context, req vsphere.CloneRequest) (*vsphere.VMDetail, error)
	DeployFromTemplate(ctx context.Context, req vsphere.CloneRequest) (*vsphere.VMDetail, error)

	ListHosts(ctx context.Context) ([]vsphere.HostInfo, error)
	GetHost(ctx context.Context, name string) (*vsphere.HostInfo, error)
	ListDatastores(ctx context.Context) ([]vsphere.DatastoreInfo, error)
	ListNetworks(ctx context.Context) ([]vsphere.NetworkInfo, error)
	ListFolders(ctx context.Context) ([]vsphere.FolderInfo, error)

	VMPerformance(ctx context.Context, name string) (*vsphere.PerfReport, error)
	HostPerformance(ctx context.Context, name string) (*vsphere.PerfReport, error)
	Summary(ctx context.Context) (*vsphere.SummaryStats, error)
}

// Options wires the server's collaborators. VCenter and Source are
// required; everything else has a working default.
type Options struct {
	VCenter VCenter
	Source  *maintenance.Source

	// Audit is optional. Nil disables operation auditing.
	Audit *audit.Store

	Runner    *maintenance.Runner
	Formatter *personality.Formatter
	Logger    *slog.Logger
	Version   string
}

// Server is the MCP server for vCenter operations.
type Server struct {
	vc        VCenter
	source    *maintenance.Source
	runner    *maintenance.Runner
	jq        *jq.Executor
	audit     *audit.Store
	formatter *personality.Formatter
	limiter   *toolLimiter
	logger    *slog.Logger

	mcp *server.MCPServer
}

// NewServer builds the server and registers every tool.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = maintenance.NewRunner(maintenance.RunnerConfig{Logger: logger})
	}
	formatter := opts.Formatter
	if formatter == nil {
		formatter = personality.FromEnv()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		vc:        opts.VCenter,
		source:    opts.Source,
		runner:    runner,
		jq:        jq.NewExecutor(0, 0),
		audit:     opts.Audit,
		formatter: formatter,
		limiter:   newToolLimiter(),
		logger:    log.WithComponent(logger, "mcp"),
	}

	s.mcp = server.NewMCPServer("vcops", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(traceMiddleware()),
	)
	s.registerTools()
	return s
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve() error {
	s.logger.Info("mcp server listening on stdio", "personality", s.formatter.Name())
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	// Inventory.
	s.mcp.AddTool(mcp.NewTool("vcenter_list_vms",
		mcp.WithDescription("List virtual machines, optionally narrowed by a glob pattern, a boolean filter expression, and a jq transform."),
		mcp.WithString("pattern", mcp.Description("Glob matched against VM names, e.g. 'k8s-*' or '*worker*'. Case-insensitive.")),
		mcp.WithString("filter", mcp.Description("Boolean expression over VM fields, e.g. 'power_state == \"poweredOn\" && memory_mb >= 4096'.")),
		mcp.WithString("jq", mcp.Description("jq expression applied to the JSON result, e.g. '[.vms[].name]'.")),
	), s.handleListVMs)

	s.mcp.AddTool(mcp.NewTool("vcenter_vm_info",
		mcp.WithDescription("Get detailed information about one virtual machine."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The VM name.")),
	), s.handleVMInfo)

	s.mcp.AddTool(mcp.NewTool("vcenter_list_templates",
		mcp.WithDescription("List VM templates and content library items available for deployment."),
	), s.handleListTemplates)

	s.mcp.AddTool(mcp.NewTool("vcenter_list_hosts",
		mcp.WithDescription("List ESXi hosts with their connection state and capacity."),
	), s.handleListHosts)

	s.mcp.AddTool(mcp.NewTool("vcenter_host_info",
		mcp.WithDescription("Get detailed information about one ESXi host."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The host name.")),
	), s.handleHostInfo)

	s.mcp.AddTool(mcp.NewTool("vcenter_list_datastores",
		mcp.WithDescription("List datastores with capacity and free space."),
	), s.handleListDatastores)

	s.mcp.AddTool(mcp.NewTool("vcenter_list_networks",
		mcp.WithDescription("List networks and distributed port groups."),
	), s.handleListNetworks)

	s.mcp.AddTool(mcp.NewTool("vcenter_list_folders",
		mcp.WithDescription("List inventory folders."),
	), s.handleListFolders)

	// Performance.
	s.mcp.AddTool(mcp.NewTool("vcenter_vm_performance",
		mcp.WithDescription("Get current CPU, memory, disk, and network metrics for a VM."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The VM name.")),
	), s.handleVMPerformance)

	s.mcp.AddTool(mcp.NewTool("vcenter_host_performance",
		mcp.WithDescription("Get current CPU, memory, disk, and network metrics for an ESXi host."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The host name.")),
	), s.handleHostPerformance)

	s.mcp.AddTool(mcp.NewTool("vcenter_summary_stats",
		mcp.WithDescription("Get environment-wide counts and capacity: VMs by power state, hosts, datastore usage."),
	), s.handleSummaryStats)

	// Power.
	s.mcp.AddTool(mcp.NewTool("vcenter_power_on",
		mcp.WithDescription("Power on a virtual machine. No-op if it is already powered on."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The VM name.")),
	), s.handlePowerOn)

	s.mcp.AddTool(mcp.NewTool("vcenter_power_off",
		mcp.WithDescription("Power off a virtual machine. Set graceful=true to request a guest OS shutdown via VMware Tools instead of a hard power off."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The VM name.")),
		mcp.WithBoolean("graceful", mcp.Description("Shut down the guest OS instead of cutting power. Requires VMware Tools.")),
	), s.handlePowerOff)

	s.mcp.AddTool(mcp.NewTool("vcenter_reset_vm",
		mcp.WithDescription("Hard-reset a running virtual machine."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The VM name.")),
	), s.handleResetVM)

	// Provisioning.
	s.mcp.AddTool(mcp.NewTool("vcenter_clone_vm",
		mcp.WithDescription("Clone an existing VM to a new VM, optionally resizing CPU and memory."),
		mcp.WithString("source", mcp.Required(), mcp.Description("The VM to clone from.")),
		mcp.WithString("target", mcp.Required(), mcp.Description("The name of the new VM.")),
		mcp.WithString("folder", mcp.Description("Destination folder path. Defaults to the source VM's folder.")),
		mcp.WithString("datastore", mcp.Description("Destination datastore name.")),
		mcp.WithNumber("cpu", mcp.Description("vCPU count for the new VM.")),
		mcp.WithNumber("memory_mb", mcp.Description("Memory in MB for the new VM.")),
		mcp.WithBoolean("power_on", mcp.Description("Power the new VM on after cloning.")),
	), s.handleCloneVM)

	s.mcp.AddTool(mcp.NewTool("vcenter_deploy_template",
		mcp.WithDescription("Deploy a new VM from a template, with optional guest customization (hostname, static IP)."),
		mcp.WithString("template", mcp.Required(), mcp.Description("The template to deploy from.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("The name of the new VM.")),
		mcp.WithString("folder", mcp.Description("Destination folder path.")),
		mcp.WithString("datastore", mcp.Description("Destination datastore name.")),
		mcp.WithNumber("cpu", mcp.Description("vCPU count for the new VM.")),
		mcp.WithNumber("memory_mb", mcp.Description("Memory in MB for the new VM.")),
		mcp.WithString("hostname", mcp.Description("Guest hostname to set via customization.")),
		mcp.WithString("ip", mcp.Description("Static IP address. Requires netmask and gateway. Omit for DHCP.")),
		mcp.WithString("netmask", mcp.Description("Netmask for the static IP.")),
		mcp.WithString("gateway", mcp.Description("Default gateway for the static IP.")),
		mcp.WithBoolean("power_on", mcp.Description("Power the new VM on after deployment.")),
	), s.handleDeployTemplate)

	// Maintenance.
	s.mcp.AddTool(mcp.NewTool("vcenter_maintenance_plan",
		mcp.WithDescription("Show the parsed maintenance plan: shutdown and startup waves with their VM selectors."),
	), s.handleMaintenancePlan)

	s.mcp.AddTool(mcp.NewTool("vcenter_categorize_vms",
		mcp.WithDescription("Group the current VM inventory into the maintenance plan's categories."),
	), s.handleCategorizeVMs)

	s.mcp.AddTool(mcp.NewTool("vcenter_power_down_sequence",
		mcp.WithDescription("Execute the maintenance shutdown sequence wave by wave. Defaults to a dry run; pass dry_run=false to actually power VMs off."),
		mcp.WithBoolean("dry_run", mcp.Description("Preview the sequence without powering anything off. Default: true."), mcp.DefaultBool(true)),
	), s.handlePowerDownSequence)

	s.mcp.AddTool(mcp.NewTool("vcenter_power_up_sequence",
		mcp.WithDescription("Execute the maintenance startup sequence wave by wave. Defaults to a dry run; pass dry_run=false to actually power VMs on."),
		mcp.WithBoolean("dry_run", mcp.Description("Preview the sequence without powering anything on. Default: true."), mcp.DefaultBool(true)),
	), s.handlePowerUpSequence)

	// Audit.
	s.mcp.AddTool(mcp.NewTool("vcenter_audit_log",
		mcp.WithDescription("Query the audit log of state-changing operations, newest first."),
		mcp.WithString("target", mcp.Description("Only entries for this VM or object.")),
		mcp.WithNumber("hours", mcp.Description("Only entries from the last N hours.")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return. Default: 100.")),
	), s.handleAuditLog)
}

// traceMiddleware wraps every tool dispatch in a span so slow vCenter
// calls are visible in traces. Tool results carrying failure text are
// marked as errors even though they are protocol-level successes.
func traceMiddleware() server.ToolHandlerMiddleware {
	tracer := otel.Tracer("vcops/mcp")
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name := request.Params.Name
			ctx, span := tracer.Start(ctx, "mcp.tool "+name,
				trace.WithAttributes(attribute.String("mcp.tool.name", name)))
			defer span.End()

			result, err := next(ctx, request)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case result != nil && result.IsError:
				span.SetStatus(codes.Error, "tool returned failure text")
			}
			return result, err
		}
	}
}

// textResult wraps plain text in the active personality.
func (s *Server) textResult(content string) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatter.Format(content)), nil
}

// jsonResult marshals v and returns it as a text result.
func (s *Server) jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(s.formatter.Format(string(data))), nil
}

// errorResult converts an operation error into a failure-text tool result,
// carrying the suggestion from typed errors when there is one.
func (s *Server) errorResult(err error) (*mcp.CallToolResult, error) {
	msg := err.Error()
	var vErr *vcerrors.ValidationError
	var cErr *vcerrors.ConnectionError
	switch {
	case vcerrors.As(err, &vErr) && vErr.Suggestion != "":
		msg += ". " + vErr.Suggestion
	case vcerrors.As(err, &cErr) && cErr.Suggestion != "":
		msg += ". " + cErr.Suggestion
	}
	return mcp.NewToolResultError(msg), nil
}

func validationError(field, message string) *vcerrors.ValidationError {
	return &vcerrors.ValidationError{Field: field, Message: message}
}

// rateLimited is returned when a tool call exceeds its bucket.
func (s *Server) rateLimited(tool string) (*mcp.CallToolResult, error) {
	s.logger.Warn("tool call rate limited", log.ToolKey, tool)
	return mcp.NewToolResultError("rate limit exceeded for " + tool + ", retry in a moment"), nil
}

// recordAudit writes an audit entry. Audit failures are logged and
// swallowed so they never fail the operation itself.
func (s *Server) recordAudit(ctx context.Context, e audit.Entry) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(ctx, e); err != nil {
		s.logger.Warn("failed to record audit entry", log.ToolKey, e.Tool, log.Error(err))
	}
}

// plan returns the current maintenance plan, loading the runbook on
// first use.
func (s *Server) plan() (*maintenance.Plan, error) {
	if s.source == nil {
		return nil, validationError("instructions", "no maintenance runbook configured")
	}
	return s.source.Plan()
}
