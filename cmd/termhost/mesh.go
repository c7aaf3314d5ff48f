// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"termhost/internal/mesh"

	"github.com/spf13/cobra"
)

var (
	meshAuthKey  string
	meshHostname string
	meshSSH      bool

	meshCmd = &cobra.Command{
		Use:   "mesh",
		Short: "Manage the Tailscale mesh connection",
	}

	meshUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Join the mesh network",
		Long: `Join the configured tailnet. Without an auth key the client prints a
login URL and waits for the browser flow to complete.`,
		RunE: runMeshUp,
	}

	meshDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Disconnect from the mesh network",
		RunE:  runMeshDown,
	}

	meshStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the mesh connection state",
		RunE:  runMeshStatus,
	}
)

func init() {
	meshUpCmd.Flags().StringVar(&meshAuthKey, "auth-key", "", "pre-authorized key for non-interactive join")
	meshUpCmd.Flags().StringVar(&meshHostname, "hostname", "", "device name advertised to the mesh")
	meshUpCmd.Flags().BoolVar(&meshSSH, "ssh", false, "advertise Tailscale SSH for this node")

	meshCmd.AddCommand(meshUpCmd)
	meshCmd.AddCommand(meshDownCmd)
	meshCmd.AddCommand(meshStatusCmd)
}

func runMeshUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	// Flags override the config file.
	opts := mesh.UpOptions{
		AuthKey:  cfg.Mesh.AuthKey,
		Hostname: cfg.Mesh.Hostname,
		SSH:      cfg.Mesh.SSH,
	}
	if meshAuthKey != "" {
		opts.AuthKey = meshAuthKey
	}
	if meshHostname != "" {
		opts.Hostname = meshHostname
	}
	if cmd.Flags().Changed("ssh") {
		opts.SSH = meshSSH
	}

	client := mesh.NewClient()
	if _, err := client.Status(cmd.Context()); err != nil {
		fmt.Println(SubtitleStyle.Render("Starting tailscaled..."))
		if err := client.StartDaemon(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start the mesh daemon: %w", err)
		}
	}

	if err := client.Up(cmd.Context(), opts); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("✓ ") + "joined the mesh")
	return nil
}

func runMeshDown(cmd *cobra.Command, args []string) error {
	if err := mesh.NewClient().Down(cmd.Context()); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("✓ ") + "disconnected from the mesh")
	return nil
}

func runMeshStatus(cmd *cobra.Command, args []string) error {
	status, err := mesh.NewClient().Status(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("Mesh"))
	fmt.Printf("  %-10s %s\n", "state", meshStateLabel(status))
	if status.Connected() {
		fmt.Printf("  %-10s %s\n", "hostname", status.Self.HostName)
		if dns := status.Self.DNSName; dns != "" {
			fmt.Printf("  %-10s %s\n", "dns", dns)
		}
		if ip := status.IPv4(); ip != "" {
			fmt.Printf("  %-10s %s\n", "ipv4", CmdStyle.Render(ip))
		}
	}
	return nil
}

func meshStateLabel(status *mesh.Status) string {
	if status.Connected() {
		return SuccessStyle.Render(status.BackendState)
	}
	return WarningStyle.Render(status.BackendState)
}
