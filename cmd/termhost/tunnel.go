// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"termhost/internal/tunnel"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	tunnelLocalPort int

	tunnelConfigID          string
	tunnelConfigCredentials string
	tunnelConfigHostname    string
	tunnelConfigLocalPort   int

	tunnelCmd = &cobra.Command{
		Use:   "tunnel",
		Short: "Expose the SSH port through a public tunnel",
	}

	tunnelUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Start the tunnel in the foreground",
		Long: `Start the configured tunnel client in the foreground and print the
public endpoint once it is up. The tunnel lives as long as this
command; press ctrl+c to tear it down.

With cloudflared this opens an ad-hoc quick tunnel; connect through it
with:
  ssh -o ProxyCommand='cloudflared access tcp --hostname %h' <name>.trycloudflare.com`,
		RunE: runTunnel,
	}

	tunnelConfigCmd = &cobra.Command{
		Use:   "config",
		Short: "Write a cloudflared named-tunnel config.yml",
		Long: `Render ~/.cloudflared/config.yml for a persistent named tunnel, so
the endpoint survives restarts instead of changing on every 'tunnel up'.

Create the tunnel and its credentials first:
  cloudflared tunnel login
  cloudflared tunnel create <name>`,
		RunE: runTunnelConfig,
	}
)

func init() {
	tunnelUpCmd.Flags().IntVar(&tunnelLocalPort, "local-port", 0, "local port to expose (default: the SSH port)")

	tunnelConfigCmd.Flags().StringVar(&tunnelConfigID, "id", "", "tunnel name or UUID from 'cloudflared tunnel create'")
	tunnelConfigCmd.Flags().StringVar(&tunnelConfigCredentials, "credentials", "", "credentials file path (default: ~/.cloudflared/<id>.json)")
	tunnelConfigCmd.Flags().StringVar(&tunnelConfigHostname, "hostname", "", "public hostname routed to the tunnel")
	tunnelConfigCmd.Flags().IntVar(&tunnelConfigLocalPort, "local-port", 0, "local port to expose (default: the SSH port)")
	_ = tunnelConfigCmd.MarkFlagRequired("id")

	tunnelCmd.AddCommand(tunnelUpCmd)
	tunnelCmd.AddCommand(tunnelConfigCmd)
}

func runTunnel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := tunnel.NewClient(cfg.Tunnel.Provider.String())
	if err != nil {
		return fmt.Errorf("%w\nRun %s for installation hints", err, CmdStyle.Render("termhost doctor"))
	}

	localPort := tunnelLocalPort
	if localPort == 0 {
		localPort = cfg.Tunnel.LocalPort
	}
	if localPort == 0 {
		localPort = int(cfg.SSH.Port)
	}

	log.Info("starting tunnel", "provider", client.Name(), "local_port", localPort)
	if err := client.Start(ctx, localPort); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Tunnel up"))
	fmt.Printf("  %-10s %s\n", "provider", client.Name())
	fmt.Printf("  %-10s %s\n", "forwards", fmt.Sprintf("localhost:%d", localPort))
	fmt.Printf("  %-10s %s\n", "endpoint", CmdStyle.Render(client.URL()))
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Press ctrl+c to stop."))

	select {
	case <-ctx.Done():
		log.Info("shutting down tunnel")
		return client.Stop()
	case err := <-client.Err():
		_ = client.Stop()
		if err != nil {
			return fmt.Errorf("tunnel terminated: %w", err)
		}
		return nil
	}
}

func runTunnelConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	localPort := tunnelConfigLocalPort
	if localPort == 0 {
		localPort = cfg.Tunnel.LocalPort
	}
	if localPort == 0 {
		localPort = int(cfg.SSH.Port)
	}

	client := tunnel.NewCloudflared()

	credentials := tunnelConfigCredentials
	if credentials == "" {
		credentials = filepath.Join(filepath.Dir(client.ConfigPath()), tunnelConfigID+".json")
	}

	namedCfg := tunnel.NamedTunnelConfig{
		Tunnel:          tunnelConfigID,
		CredentialsFile: credentials,
		Ingress: []tunnel.IngressRule{{
			Hostname: tunnelConfigHostname,
			Service:  fmt.Sprintf("tcp://localhost:%d", localPort),
		}},
	}
	if err := client.WriteNamedTunnelConfig(namedCfg); err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render("✓ ") + "wrote " + CmdStyle.Render(client.ConfigPath()))
	fmt.Println(SubtitleStyle.Render("Run the tunnel with:"))
	if tunnelConfigHostname != "" {
		fmt.Printf("  cloudflared tunnel route dns %s %s\n", tunnelConfigID, tunnelConfigHostname)
	}
	fmt.Printf("  cloudflared tunnel run %s\n", tunnelConfigID)
	return nil
}
