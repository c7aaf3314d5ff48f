// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"termhost/internal/distro"

	"github.com/spf13/cobra"
)

var (
	distroCmd = &cobra.Command{
		Use:   "distro",
		Short: "Manage the user-space Linux container",
	}

	distroListCmd = &cobra.Command{
		Use:   "list",
		Short: "List installed and supported distributions",
		RunE:  runDistroList,
	}

	distroInstallCmd = &cobra.Command{
		Use:   "install [alias]",
		Short: "Install a container",
		Long: `Download and unpack a distribution rootfs. Without an argument the
configured distro is installed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDistroInstall,
	}

	distroLoginCmd = &cobra.Command{
		Use:   "login [alias]",
		Short: "Open an interactive shell inside a container",
		Long: `Open an interactive login shell inside the named container. Without an
argument the configured distro is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDistroLogin,
	}

	distroRemoveCmd = &cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove an installed container",
		Args:  cobra.ExactArgs(1),
		RunE:  runDistroRemove,
	}

	distroExecCmd = &cobra.Command{
		Use:   "exec <alias> -- <command> [args...]",
		Short: "Run a command inside a container",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runDistroExec,
	}
)

func init() {
	distroCmd.AddCommand(distroListCmd)
	distroCmd.AddCommand(distroInstallCmd)
	distroCmd.AddCommand(distroLoginCmd)
	distroCmd.AddCommand(distroRemoveCmd)
	distroCmd.AddCommand(distroExecCmd)
}

func runDistroList(cmd *cobra.Command, args []string) error {
	boot := distro.NewProotDistro()

	installed, err := boot.ListInstalled()
	if err != nil {
		return err
	}
	installedSet := make(map[distro.Alias]bool, len(installed))
	for _, alias := range installed {
		installedSet[alias] = true
	}

	fmt.Println(TitleStyle.Render("Distributions"))
	for _, alias := range distro.SupportedAliases() {
		if installedSet[alias] {
			fmt.Printf("  %s %s %s\n", SuccessStyle.Render("✓"), alias, SubtitleStyle.Render("installed"))
		} else {
			fmt.Printf("  %s %s\n", SubtitleStyle.Render("○"), alias)
		}
	}
	return nil
}

func runDistroInstall(cmd *cobra.Command, args []string) error {
	alias, err := resolveAlias(cmd, args)
	if err != nil {
		return err
	}

	boot := distro.NewProotDistro()
	if !boot.Available() {
		return fmt.Errorf("proot-distro is not installed; run %s first", CmdStyle.Render("termhost up"))
	}
	if boot.Installed(alias) {
		fmt.Println(SuccessStyle.Render("✓ ") + alias.String() + " is already installed")
		return nil
	}

	if err := boot.Install(cmd.Context(), alias); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("✓ ") + "installed " + alias.String())
	return nil
}

func runDistroLogin(cmd *cobra.Command, args []string) error {
	alias, err := resolveAlias(cmd, args)
	if err != nil {
		return err
	}

	boot := distro.NewProotDistro()
	if !boot.Installed(alias) {
		return fmt.Errorf("distro %s is not installed; run %s first",
			alias, CmdStyle.Render("termhost up"))
	}
	return boot.Login(cmd.Context(), alias)
}

func runDistroRemove(cmd *cobra.Command, args []string) error {
	alias := distro.Alias(args[0])
	if err := alias.Validate(); err != nil {
		return err
	}

	if err := distro.NewProotDistro().Remove(cmd.Context(), alias); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("✓ ") + "removed " + alias.String())
	return nil
}

func runDistroExec(cmd *cobra.Command, args []string) error {
	alias := distro.Alias(args[0])
	if err := alias.Validate(); err != nil {
		return err
	}

	out, err := distro.NewProotDistro().Exec(cmd.Context(), alias, args[1:]...)
	if out != "" {
		fmt.Print(out)
	}
	return err
}

// resolveAlias picks the alias from the argument or the configuration.
func resolveAlias(cmd *cobra.Command, args []string) (distro.Alias, error) {
	if len(args) > 0 {
		alias := distro.Alias(args[0])
		return alias, alias.Validate()
	}

	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return "", err
	}
	alias := distro.Alias(cfg.Distro.Name.String())
	return alias, alias.Validate()
}
