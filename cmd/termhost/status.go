// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"termhost/internal/config"
	"termhost/internal/platform"
	"termhost/internal/step"
	"termhost/internal/steps"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-step provisioning state",
	Long: `Probe the live system for each configured step and show whether its
effect is in place, together with the outcome of the last 'termhost up'
run recorded in the receipt.

The receipt is informational only: the live probe decides what a rerun
of 'up' would actually do.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	deps, err := steps.DefaultDeps()
	if err != nil {
		return fmt.Errorf("%s\nRun %s for details", err, CmdStyle.Render("termhost doctor"))
	}

	stateDir, err := config.StateDir()
	if err != nil {
		return err
	}
	receipt, err := step.LoadReceipt(stateDir)
	if err != nil {
		return err
	}

	printEnvironment()

	fmt.Println(TitleStyle.Render("Steps"))
	for _, s := range steps.All(cfg, deps) {
		status, checkErr := s.Check(ctx)

		line := fmt.Sprintf("  %s %-10s %s", statusGlyph(status), s.Name(), statusLabel(status))
		if entry, ok := receipt.Last(s.Name()); ok {
			line += SubtitleStyle.Render(fmt.Sprintf("  (last: %s %s)",
				entry.Outcome, entry.AppliedAt.Local().Format(time.DateTime)))
		}
		fmt.Println(line)

		if checkErr != nil {
			fmt.Println("      " + VerboseStyle.Render(checkErr.Error()))
		}
	}

	return nil
}

func printEnvironment() {
	fmt.Println(TitleStyle.Render("Environment"))
	if platform.IsTermux() {
		fmt.Printf("  Termux %s (%s), prefix %s\n",
			platform.TermuxVersion(), platform.MachineArch(), platform.Prefix())
	} else {
		fmt.Printf("  %s (%s)\n",
			WarningStyle.Render("not Termux"),
			platform.MachineArch()+SubtitleStyle.Render(", running in plain-Linux mode"))
	}
	fmt.Println()
}

func statusGlyph(s step.Status) string {
	switch s {
	case step.StatusSatisfied:
		return SuccessStyle.Render("✓")
	case step.StatusMissing:
		return WarningStyle.Render("○")
	default:
		return ErrorStyle.Render("?")
	}
}

func statusLabel(s step.Status) string {
	switch s {
	case step.StatusSatisfied:
		return SuccessStyle.Render(s.String())
	case step.StatusMissing:
		return WarningStyle.Render(s.String())
	default:
		return ErrorStyle.Render(s.String())
	}
}
