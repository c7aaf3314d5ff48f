// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"termhost/internal/config"
	"termhost/internal/platform"
	"termhost/internal/sshd"
	"termhost/internal/sshserver"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	serveHostKeyPath    string
	serveAuthorizedKeys string
	servePassword       bool

	sshdCmd = &cobra.Command{
		Use:   "sshd",
		Short: "Manage SSH access to the device",
	}

	sshdStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the system OpenSSH daemon",
		Long: `Generate missing host keys and start the system sshd in the
background. The daemon keeps running after termhost exits.`,
		RunE: runSSHDStart,
	}

	sshdServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the built-in fallback SSH server in the foreground",
		Long: `Serve SSH directly from this process, for environments where the
system OpenSSH daemon is unavailable. Authentication uses
~/.ssh/authorized_keys; pass --password to additionally allow a
one-off session password entered at startup.

The server stops when this command exits.`,
		RunE: runSSHDServe,
	}

	sshdPasswordCmd = &cobra.Command{
		Use:   "password",
		Short: "Set the login password for SSH password authentication",
		RunE:  runSSHDPassword,
	}
)

func init() {
	sshdServeCmd.Flags().StringVar(&serveHostKeyPath, "host-key", "", "host key path (default: <state dir>/ssh_host_ed25519_key)")
	sshdServeCmd.Flags().StringVar(&serveAuthorizedKeys, "authorized-keys", "", "authorized_keys path (default: ~/.ssh/authorized_keys)")
	sshdServeCmd.Flags().BoolVar(&servePassword, "password", false, "prompt for a session password at startup")

	sshdCmd.AddCommand(sshdStartCmd)
	sshdCmd.AddCommand(sshdServeCmd)
	sshdCmd.AddCommand(sshdPasswordCmd)
}

func runSSHDStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	daemon := sshd.NewDaemon()
	if !daemon.Installed() {
		return fmt.Errorf("sshd is not installed; run %s or use %s",
			CmdStyle.Render("termhost up"), CmdStyle.Render("termhost sshd serve"))
	}

	if daemon.Running(int(cfg.SSH.Port)) {
		fmt.Println(SuccessStyle.Render("✓ ") + fmt.Sprintf("sshd already listening on port %d", int(cfg.SSH.Port)))
		return nil
	}

	if err := daemon.EnsureHostKeys(ctx); err != nil {
		return err
	}
	if err := daemon.Start(ctx); err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render("✓ ") + fmt.Sprintf("sshd started on port %d", int(cfg.SSH.Port)))
	return nil
}

func runSSHDServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	serverCfg := sshserver.DefaultConfig()
	serverCfg.Port = sshserver.ListenPort(cfg.SSH.Port)

	serverCfg.HostKeyPath = serveHostKeyPath
	if serverCfg.HostKeyPath == "" {
		stateDir, err := config.StateDir()
		if err != nil {
			return err
		}
		serverCfg.HostKeyPath = filepath.Join(stateDir, "ssh_host_ed25519_key")
	}

	serverCfg.AuthorizedKeysPath = serveAuthorizedKeys
	if serverCfg.AuthorizedKeysPath == "" {
		home, err := platform.HomeDir()
		if err != nil {
			return err
		}
		serverCfg.AuthorizedKeysPath = filepath.Join(home, ".ssh", "authorized_keys")
	}

	if servePassword {
		password, err := sshd.PromptPassword()
		if err != nil {
			return err
		}
		serverCfg.Password = password
	}

	srv, err := sshserver.New(serverCfg)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("Fallback SSH server"))
	fmt.Printf("  %-10s %s\n", "address", CmdStyle.Render(srv.Address()))
	fmt.Printf("  %-10s %s\n", "host key", serverCfg.HostKeyPath)
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Press ctrl+c to stop."))

	go func() {
		<-ctx.Done()
		if err := srv.Stop(); err != nil {
			log.Error("server shutdown failed", "err", err)
		}
	}()

	return srv.Wait()
}

func runSSHDPassword(cmd *cobra.Command, args []string) error {
	// Termux's passwd reads the new password from stdin without asking
	// for the current one; elsewhere that feed would hang or fail.
	if !platform.IsTermux() {
		return fmt.Errorf("setting the password is only supported on Termux; use %s directly",
			CmdStyle.Render("passwd"))
	}

	password, err := sshd.PromptPassword()
	if err != nil {
		return err
	}
	if err := sshd.SetPassword(cmd.Context(), password); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("✓ ") + "password updated")
	return nil
}
