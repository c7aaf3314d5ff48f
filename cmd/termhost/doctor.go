// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"termhost/internal/distro"
	"termhost/internal/issue"
	"termhost/internal/mesh"
	"termhost/internal/pkgmgr"
	"termhost/internal/platform"
	"termhost/internal/sshd"
	"termhost/internal/tmux"
	"termhost/internal/tunnel"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// doctorCheck is one diagnosable precondition. required distinguishes
// checks that break provisioning from ones that only limit features.
type doctorCheck struct {
	name     string
	required bool
	probe    func() bool
	issueID  issue.Id
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the environment and required tools",
	Long: `Check that the environment and every external tool termhost depends on
is present, and explain how to fix whatever is missing.

Exits non-zero when a required tool is missing.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	checks := []doctorCheck{
		{
			name:     "package manager",
			required: true,
			probe: func() bool {
				_, err := pkgmgr.Detect()
				return err == nil
			},
			issueID: issue.PackageManagerNotFoundId,
		},
		{
			name:     "sshd",
			required: true,
			probe:    func() bool { return sshd.NewDaemon().Installed() },
			issueID:  issue.SSHDaemonNotFoundId,
		},
		{
			name:     "tmux",
			required: true,
			probe:    func() bool { return tmux.NewManager().Installed() },
			issueID:  issue.MultiplexerNotFoundId,
		},
		{
			name:     "proot-distro",
			required: false,
			probe:    func() bool { return distro.NewProotDistro().Available() },
			issueID:  issue.DistroToolNotFoundId,
		},
		{
			name:     "tailscale",
			required: false,
			probe:    func() bool { return mesh.NewClient().Available() },
			issueID:  issue.MeshClientNotFoundId,
		},
		{
			name:     "tunnel client",
			required: false,
			probe: func() bool {
				_, err := tunnel.NewClient(cfg.Tunnel.Provider.String())
				return err == nil
			},
			issueID: issue.TunnelClientNotFoundId,
		},
	}

	fmt.Println(TitleStyle.Render("Environment"))
	if platform.IsTermux() {
		fmt.Printf("  %s Termux %s detected\n", SuccessStyle.Render("✓"), platform.TermuxVersion())
	} else {
		fmt.Printf("  %s not Termux\n", WarningStyle.Render("!"))
		renderIssue(issue.UnsupportedEnvironmentId)
	}
	fmt.Println()

	fmt.Println(TitleStyle.Render("Tools"))
	requiredMissing := false
	for _, check := range checks {
		if check.probe() {
			fmt.Printf("  %s %s\n", SuccessStyle.Render("✓"), check.name)
			continue
		}

		glyph := WarningStyle.Render("!")
		if check.required {
			glyph = ErrorStyle.Render("✗")
			requiredMissing = true
		}
		fmt.Printf("  %s %s\n", glyph, check.name)
		renderIssue(check.issueID)
	}

	if requiredMissing {
		return &ExitError{Code: 1, Err: fmt.Errorf("required tools are missing")}
	}
	return nil
}

// renderIssue prints the registered explanation for a known failure class.
func renderIssue(id issue.Id) {
	i, err := issue.Lookup(id)
	if err != nil {
		log.Debug("no registered issue", "id", id, "err", err)
		return
	}
	rendered, err := i.Render()
	if err != nil {
		log.Debug("issue rendering failed", "id", id, "err", err)
		fmt.Println(VerboseStyle.Render(string(i.MarkdownMsg())))
		return
	}
	fmt.Print(rendered)
}
