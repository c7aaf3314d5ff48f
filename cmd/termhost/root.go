// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for termhost.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"termhost/internal/config"
	"termhost/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "termhost",
		Short: "Turn a phone's terminal into a small always-on server",
		Long: TitleStyle.Render("termhost") + SubtitleStyle.Render(" - Turn a phone's terminal into a small always-on server") + `

termhost provisions a Termux-style mobile terminal environment into a
lightweight server: it installs packages, enables SSH access, configures
tmux session persistence, and sets up an optional user-space Linux
container. The device can join a Tailscale mesh or be exposed through a
public tunnel.

Every step is idempotent: rerunning ` + CmdStyle.Render("termhost up") + ` only performs the
work that is still missing.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'termhost up' and answer the prompts
  2. Note the SSH port (default 8022)
  3. Connect from another machine: ssh -p 8022 <device-ip>

` + SubtitleStyle.Render("Examples:") + `
  termhost up                 Provision everything
  termhost up --only sshd     Re-run a single step
  termhost status             Show per-step provisioning state
  termhost doctor             Diagnose missing tools
  termhost tunnel up          Expose SSH through a public tunnel`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/termhost/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(distroCmd)
	rootCmd.AddCommand(meshCmd)
	rootCmd.AddCommand(tunnelCmd)
	rootCmd.AddCommand(sshdCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig wires the --config flag and applies config-driven defaults.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// loadConfig returns the effective configuration for a command run.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
