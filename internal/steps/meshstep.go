// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"fmt"

	"termhost/internal/clitool"
	"termhost/internal/config"
	"termhost/internal/mesh"
	"termhost/internal/step"
)

// MeshStep joins the device to the VPN mesh. Optional: joining a tailnet
// touches accounts outside the device, so the runner asks first.
type MeshStep struct {
	client MeshClient
	cfg    config.MeshConfig
}

// NewMeshStep creates the mesh join step.
func NewMeshStep(client MeshClient, cfg config.MeshConfig) *MeshStep {
	return &MeshStep{client: client, cfg: cfg}
}

// Name implements step.Step.
func (s *MeshStep) Name() string { return "mesh" }

// Summary implements step.Step.
func (s *MeshStep) Summary() string {
	return "Join the Tailscale mesh network"
}

// Optional implements step.Step.
func (s *MeshStep) Optional() bool { return true }

// Check reports satisfied when the node is connected to a tailnet. A
// status failure (daemon down, client missing) just means missing: Apply
// surfaces the actual problem.
func (s *MeshStep) Check(ctx context.Context) (step.Status, error) {
	if !s.client.Available() {
		return step.StatusMissing, nil
	}
	status, err := s.client.Status(ctx)
	if err != nil {
		return step.StatusMissing, nil
	}
	if status.Connected() {
		return step.StatusSatisfied, nil
	}
	return step.StatusMissing, nil
}

// Apply joins the tailnet, starting tailscaled first when the backend is
// not answering. Without an auth key the client prints a login URL and
// blocks until the browser flow completes.
func (s *MeshStep) Apply(ctx context.Context) error {
	if !s.client.Available() {
		return &clitool.NotAvailableError{
			Tool:   "tailscale",
			Reason: "the mesh client is not installed (pkg install tailscale)",
		}
	}
	if _, err := s.client.Status(ctx); err != nil {
		if err := s.client.StartDaemon(ctx); err != nil {
			return fmt.Errorf("failed to start the mesh daemon: %w", err)
		}
	}
	return s.client.Up(ctx, mesh.UpOptions{
		AuthKey:  s.cfg.AuthKey,
		Hostname: s.cfg.Hostname,
		SSH:      s.cfg.SSH,
	})
}
