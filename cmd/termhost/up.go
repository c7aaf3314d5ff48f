// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"termhost/internal/config"
	"termhost/internal/step"
	"termhost/internal/steps"
	"termhost/internal/tui"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	upYes             bool
	upContinueOnError bool
	upOnly            []string
	upSkip            []string

	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Provision the device into a server",
		Long: `Run the provisioning steps in order: packages, sshd, tmux, and the
optional distro, mesh, tunnel and hooks steps as configured.

Every step is idempotent. Steps whose effect is already in place are
reported as satisfied and skipped; rerunning 'up' after a failure
resumes where it left off.

Examples:
  termhost up                     Provision everything, asking before optional steps
  termhost up --yes               Never prompt; run all configured steps
  termhost up --only sshd,tmux    Re-run specific steps
  termhost up --skip distro       Everything except the container`,
		RunE: runUp,
	}
)

func init() {
	upCmd.Flags().BoolVarP(&upYes, "yes", "y", false, "run optional steps without asking")
	upCmd.Flags().BoolVar(&upContinueOnError, "continue-on-error", false, "keep running remaining steps after a failure")
	upCmd.Flags().StringSliceVar(&upOnly, "only", nil, "restrict the run to these steps")
	upCmd.Flags().StringSliceVar(&upSkip, "skip", nil, "exclude these steps from the run")
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	deps, err := steps.DefaultDeps()
	if err != nil {
		return fmt.Errorf("%s\nRun %s for details", err, CmdStyle.Render("termhost doctor"))
	}

	opts := []step.RunnerOption{
		step.WithLogger(log.Default()),
		step.WithOnly(upOnly),
		step.WithSkip(upSkip),
	}
	if upContinueOnError {
		opts = append(opts, step.WithContinueOnError())
	}
	if !upYes && term.IsTerminal(int(os.Stdin.Fd())) {
		opts = append(opts, step.WithConfirm(confirmStep))
	}

	runner := step.NewRunner(steps.All(cfg, deps), opts...)
	results, runErr := runner.Run(ctx)

	// The receipt records whatever did run, even on an aborted run.
	if err := saveReceipt(results); err != nil {
		log.Warn("failed to save run receipt", "err", err)
	}

	printRunSummary(results)

	if runErr != nil {
		return &ExitError{Code: 1, Err: runErr}
	}
	return nil
}

// confirmStep asks the user whether an optional step should run. A
// cancelled prompt counts as a decline.
func confirmStep(summary string) bool {
	ok, err := tui.Confirm(tui.ConfirmOptions{
		Title:   summary + "?",
		Default: true,
	})
	if err != nil {
		return false
	}
	return ok
}

// saveReceipt merges the run results into the on-disk receipt.
func saveReceipt(results []step.Result) error {
	if len(results) == 0 {
		return nil
	}

	stateDir, err := config.StateDir()
	if err != nil {
		return err
	}
	receipt, err := step.LoadReceipt(stateDir)
	if err != nil {
		return err
	}
	receipt.Record(results, time.Now())
	return receipt.Save(stateDir)
}

// printRunSummary renders one line per step result.
func printRunSummary(results []step.Result) {
	if len(results) == 0 {
		return
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Provisioning summary"))
	for _, res := range results {
		fmt.Printf("  %s %s %s\n",
			outcomeGlyph(res.Outcome),
			res.Name,
			SubtitleStyle.Render(outcomeDetail(res)),
		)
	}
}

func outcomeGlyph(o step.Outcome) string {
	switch o {
	case step.OutcomeApplied, step.OutcomeAlreadySatisfied:
		return SuccessStyle.Render("✓")
	case step.OutcomeFailed:
		return ErrorStyle.Render("✗")
	case step.OutcomeDeclined, step.OutcomeSkipped:
		return WarningStyle.Render("-")
	default:
		return "?"
	}
}

func outcomeDetail(res step.Result) string {
	detail := res.Outcome.String()
	if res.Outcome == step.OutcomeApplied {
		detail += " in " + res.Duration.Round(time.Millisecond).String()
	}
	if res.Err != nil {
		detail += ": " + res.Err.Error()
	}
	return detail
}
