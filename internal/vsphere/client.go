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

// Package vsphere is the vCenter access layer. It wraps the govmomi SOAP
// client for inventory, power, and clone operations, and the vAPI REST
// client for content library lookups. Every operation takes a context and
// is paced by a shared rate limiter so wave execution cannot flood vCenter.
package vsphere

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/vapi/rest"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"
	"golang.org/x/time/rate"

	"github.com/tombee/vcops/internal/log"
	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// Config carries the connection settings for a vCenter endpoint.
type Config struct {
	Host       string
	User       string
	Password   string
	Insecure   bool
	Datacenter string

	// RequestsPerSecond paces API calls. Default: 5.
	RequestsPerSecond float64

	// TaskTimeout bounds how long a vCenter task is awaited. Default: 5m.
	TaskTimeout time.Duration

	Logger *slog.Logger
}

// Client is a connected vCenter session.
type Client struct {
	vim     *vim25.Client
	session *session.Manager
	finder  *find.Finder
	limiter *rate.Limiter
	logger  *slog.Logger

	taskTimeout time.Duration
	user        string
	password    string

	restMu sync.Mutex
	restc  *rest.Client
}

// Connect logs in to vCenter over SOAP and returns a ready client.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	u := &url.URL{Scheme: "https", Host: cfg.Host, Path: "/sdk"}
	u.User = url.UserPassword(cfg.User, cfg.Password)

	soapClient := soap.NewClient(u, cfg.Insecure)
	vimClient, err := vim25.NewClient(ctx, soapClient)
	if err != nil {
		return nil, &vcerrors.ConnectionError{
			Host:       cfg.Host,
			Message:    "could not reach the vCenter SDK endpoint",
			Suggestion: "check VCENTER_HOST and network reachability; set VCENTER_INSECURE=true for self-signed certificates",
			Cause:      err,
		}
	}

	mgr := session.NewManager(vimClient)
	if err := mgr.Login(ctx, u.User); err != nil {
		return nil, &vcerrors.ConnectionError{
			Host:       cfg.Host,
			Message:    "vCenter login failed",
			Suggestion: "check VCENTER_USER and VCENTER_PASSWORD",
			Cause:      err,
		}
	}

	c := newClient(vimClient, cfg)
	c.session = mgr

	if cfg.Datacenter != "" {
		dc, err := c.finder.Datacenter(ctx, cfg.Datacenter)
		if err != nil {
			_ = mgr.Logout(ctx)
			return nil, &vcerrors.NotFoundError{Resource: "datacenter", ID: cfg.Datacenter}
		}
		c.finder.SetDatacenter(dc)
	} else if dc, err := c.finder.DefaultDatacenter(ctx); err == nil {
		// Ambiguity is fine here; name-based lookups fall back to full
		// inventory scans.
		c.finder.SetDatacenter(dc)
	}

	c.logger.Info("connected to vCenter",
		slog.String(log.HostKey, cfg.Host),
		slog.String("version", vimClient.ServiceContent.About.Version),
	)
	return c, nil
}

// newClient assembles a Client around an established vim25 connection.
// Split out so tests can attach to a simulator without going through Login.
func newClient(vimClient *vim25.Client, cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perSecond := cfg.RequestsPerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		vim:         vimClient,
		finder:      find.NewFinder(vimClient, true),
		limiter:     rate.NewLimiter(rate.Limit(perSecond), int(perSecond)),
		logger:      logger.With(slog.String("component", "vsphere")),
		taskTimeout: timeout,
		user:        cfg.User,
		password:    cfg.Password,
	}
}

// Close logs out of the SOAP and REST sessions.
func (c *Client) Close(ctx context.Context) error {
	c.restMu.Lock()
	if c.restc != nil {
		_ = c.restc.Logout(ctx)
		c.restc = nil
	}
	c.restMu.Unlock()

	if c.session != nil {
		return c.session.Logout(ctx)
	}
	return nil
}

// pace blocks until the rate limiter admits another API call.
func (c *Client) pace(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return vcerrors.Wrap(err, "waiting for vCenter rate limit")
	}
	return nil
}

// restSession returns the lazily-established vAPI REST session.
func (c *Client) restSession(ctx context.Context) (*rest.Client, error) {
	c.restMu.Lock()
	defer c.restMu.Unlock()

	if c.restc != nil {
		return c.restc, nil
	}

	rc := rest.NewClient(c.vim)
	if err := rc.Login(ctx, url.UserPassword(c.user, c.password)); err != nil {
		return nil, &vcerrors.ConnectionError{
			Host:       c.vim.URL().Host,
			Message:    "vAPI REST login failed",
			Suggestion: "content library operations need the vCenter automation API; check credentials",
			Cause:      err,
		}
	}
	c.restc = rc
	return c.restc, nil
}

// retrieve runs a container-view property collection over the whole
// inventory for one managed object kind.
func (c *Client) retrieve(ctx context.Context, kind string, props []string, dst interface{}) error {
	if err := c.pace(ctx); err != nil {
		return err
	}

	m := view.NewManager(c.vim)
	v, err := m.CreateContainerView(ctx, c.vim.ServiceContent.RootFolder, []string{kind}, true)
	if err != nil {
		return vcerrors.Wrapf(err, "creating %s container view", kind)
	}
	defer func() { _ = v.Destroy(ctx) }()

	if err := v.Retrieve(ctx, []string{kind}, props, dst); err != nil {
		return vcerrors.Wrapf(err, "retrieving %s properties", kind)
	}
	return nil
}

// findVM locates a VM by exact name anywhere in the inventory.
func (c *Client) findVM(ctx context.Context, name string) (*object.VirtualMachine, error) {
	var vms []mo.VirtualMachine
	if err := c.retrieve(ctx, "VirtualMachine", []string{"name"}, &vms); err != nil {
		return nil, err
	}
	for i := range vms {
		if vms[i].Name == name {
			return object.NewVirtualMachine(c.vim, vms[i].Self), nil
		}
	}
	return nil, &vcerrors.NotFoundError{Resource: "VM", ID: name}
}

// waitTask awaits a vCenter task under the client's task timeout, so a stuck
// task surfaces as a timeout instead of blocking a whole power sequence.
func (c *Client) waitTask(ctx context.Context, task *object.Task, op, target string) error {
	taskCtx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	start := time.Now()
	if err := task.Wait(taskCtx); err != nil {
		if taskCtx.Err() == context.DeadlineExceeded {
			return &vcerrors.TimeoutError{Operation: op, Duration: c.taskTimeout, Cause: err}
		}
		return &vcerrors.TaskError{Operation: op, Target: target, Message: err.Error(), Cause: err}
	}

	c.logger.Debug("task complete",
		slog.String("operation", op),
		slog.String("target", target),
		log.Duration("duration", time.Since(start).Milliseconds()),
	)
	return nil
}

// entityName resolves the display name of any managed object reference.
func (c *Client) entityName(ctx context.Context, ref types.ManagedObjectReference) (string, error) {
	return object.NewCommon(c.vim, ref).ObjectName(ctx)
}

// moRefValue returns the stable identifier of a managed object reference.
func moRefValue(ref types.ManagedObjectReference) string {
	return ref.Value
}
