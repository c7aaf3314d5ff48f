// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"termhost/internal/config"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage termhost configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging defaults, the config file, and
TERMHOST_* environment variables.`,
		RunE: runConfigShow,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long: `Write a commented starter config file with the built-in defaults.
Refuses to overwrite an existing file.`,
		RunE: runConfigInit,
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE:  runConfigPath,
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Println(SubtitleStyle.Render("# " + path))
	fmt.Println()

	sections := []struct {
		name   string
		fields [][2]string
	}{
		{"packages", [][2]string{
			{"extra", "[" + strings.Join(cfg.Packages.Extra, ", ") + "]"},
			{"upgrade", fmt.Sprint(cfg.Packages.Upgrade)},
		}},
		{"ssh", [][2]string{
			{"port", fmt.Sprint(int(cfg.SSH.Port))},
			{"password_auth", fmt.Sprint(cfg.SSH.PasswordAuth)},
			{"authorized_key", orUnset(cfg.SSH.AuthorizedKey)},
		}},
		{"tmux", [][2]string{
			{"mouse", fmt.Sprint(cfg.Tmux.Mouse)},
			{"prefix", orUnset(cfg.Tmux.Prefix)},
			{"history_limit", fmt.Sprint(cfg.Tmux.HistoryLimit)},
			{"autostart", fmt.Sprint(cfg.Tmux.Autostart)},
		}},
		{"distro", [][2]string{
			{"enabled", fmt.Sprint(cfg.Distro.Enabled)},
			{"name", cfg.Distro.Name.String()},
		}},
		{"mesh", [][2]string{
			{"enabled", fmt.Sprint(cfg.Mesh.Enabled)},
			{"auth_key", redact(cfg.Mesh.AuthKey)},
			{"hostname", orUnset(cfg.Mesh.Hostname)},
			{"ssh", fmt.Sprint(cfg.Mesh.SSH)},
		}},
		{"tunnel", [][2]string{
			{"enabled", fmt.Sprint(cfg.Tunnel.Enabled)},
			{"provider", cfg.Tunnel.Provider.String()},
			{"local_port", fmt.Sprint(cfg.Tunnel.LocalPort)},
		}},
		{"hooks", [][2]string{
			{"post_up", fmt.Sprintf("%d hook(s)", len(cfg.Hooks.PostUp))},
		}},
		{"ui", [][2]string{
			{"color_scheme", cfg.UI.ColorScheme.String()},
			{"verbose", fmt.Sprint(cfg.UI.Verbose)},
		}},
	}

	for _, section := range sections {
		fmt.Println(TitleStyle.Render(section.name))
		for _, field := range section.fields {
			fmt.Printf("  %-15s %s\n", field[0], field[1])
		}
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.WriteStarterFile()
	if err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("✓ ") + "wrote " + CmdStyle.Render(path))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return SubtitleStyle.Render("(unset)")
	}
	return s
}

// redact hides secrets while still showing whether one is configured.
func redact(s string) string {
	if s == "" {
		return SubtitleStyle.Render("(unset)")
	}
	return SubtitleStyle.Render("(set, hidden)")
}
