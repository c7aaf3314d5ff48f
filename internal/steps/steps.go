// SPDX-License-Identifier: MPL-2.0

// Package steps defines the concrete provisioning steps `termhost up`
// runs, in order: packages, ssh daemon, tmux, then the optional distro,
// mesh and tunnel steps, and finally the user's post-up hooks. Each step
// depends on narrow interfaces over the adapters so tests can substitute
// fakes without touching external binaries.
package steps

import (
	"context"

	"termhost/internal/config"
	"termhost/internal/distro"
	"termhost/internal/hooks"
	"termhost/internal/mesh"
	"termhost/internal/pkgmgr"
	"termhost/internal/sshd"
	"termhost/internal/step"
	"termhost/internal/tmux"
	"termhost/internal/tunnel"
)

type (
	// SSHDaemon is the slice of *sshd.Daemon the sshd step uses.
	SSHDaemon interface {
		Installed() bool
		ConfigManaged() bool
		Running(port int) bool
		EnsureHostKeys(ctx context.Context) error
		WriteConfig(cfg sshd.Config) error
		InstallAuthorizedKey(key string) error
		Start(ctx context.Context) error
	}

	// TmuxManager is the slice of *tmux.Manager the tmux step uses.
	TmuxManager interface {
		Installed() bool
		Configured() bool
		AutostartInstalled() bool
		WriteConf(cfg tmux.Config) error
		InstallAutostart() error
		RemoveAutostart() error
	}

	// MeshClient is the slice of *mesh.Client the mesh step uses.
	MeshClient interface {
		Available() bool
		Status(ctx context.Context) (*mesh.Status, error)
		StartDaemon(ctx context.Context) error
		Up(ctx context.Context, opts mesh.UpOptions) error
	}

	// HookRunner is the slice of *hooks.Runner the hooks step uses.
	HookRunner interface {
		RunAll(ctx context.Context, snippets []string) ([]*hooks.Result, error)
	}

	// TunnelFactory builds a tunnel client for a provider; used by the
	// tunnel step to probe availability without starting anything.
	TunnelFactory func(provider string) (tunnel.Client, error)

	// Deps bundles the adapters the steps operate on.
	Deps struct {
		Pkg       pkgmgr.Manager
		Daemon    SSHDaemon
		Tmux      TmuxManager
		Distro    distro.Bootstrapper
		Mesh      MeshClient
		Hooks     HookRunner
		NewTunnel TunnelFactory
	}
)

// DefaultDeps builds Deps from the real adapters. Package manager
// detection can fail on exotic hosts; the error surfaces here so `up`
// can point at the environment instead of failing mid-run.
func DefaultDeps() (Deps, error) {
	mgr, err := pkgmgr.Detect()
	if err != nil {
		return Deps{}, err
	}
	return Deps{
		Pkg:    mgr,
		Daemon: sshd.NewDaemon(),
		Tmux:   tmux.NewManager(),
		Distro: distro.NewProotDistro(),
		Mesh:   mesh.NewClient(),
		Hooks:  hooks.NewRunner(),
		NewTunnel: func(provider string) (tunnel.Client, error) {
			return tunnel.NewClient(provider)
		},
	}, nil
}

// All returns the ordered step list for the configuration. Disabled
// optional features contribute no step at all, so the receipt only ever
// records work the user asked for.
func All(cfg *config.Config, deps Deps) []step.Step {
	list := []step.Step{
		NewPackagesStep(deps.Pkg, cfg.Packages),
		NewSSHDStep(deps.Daemon, cfg.SSH),
		NewTmuxStep(deps.Tmux, cfg.Tmux),
	}
	if cfg.Distro.Enabled {
		list = append(list, NewDistroStep(deps.Distro, cfg.Distro))
	}
	if cfg.Mesh.Enabled {
		list = append(list, NewMeshStep(deps.Mesh, cfg.Mesh))
	}
	if cfg.Tunnel.Enabled {
		list = append(list, NewTunnelStep(deps.NewTunnel, deps.Pkg, cfg.Tunnel))
	}
	if len(cfg.Hooks.PostUp) > 0 {
		list = append(list, NewHooksStep(deps.Hooks, cfg.Hooks))
	}
	return list
}
