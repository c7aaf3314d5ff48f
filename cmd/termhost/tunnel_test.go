// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestTunnelCommandWiring(t *testing.T) {
	have := make(map[string]*cobra.Command)
	for _, c := range tunnelCmd.Commands() {
		have[c.Name()] = c
	}

	if have["up"] == nil {
		t.Fatal("tunnel command missing 'up' subcommand")
	}

	cfg := have["config"]
	if cfg == nil {
		t.Fatal("tunnel command missing 'config' subcommand")
	}
	for _, name := range []string{"id", "credentials", "hostname", "local-port"} {
		if cfg.Flags().Lookup(name) == nil {
			t.Errorf("tunnel config missing --%s flag", name)
		}
	}

	id := cfg.Flags().Lookup("id")
	if id.Annotations[cobra.BashCompOneRequiredFlag] == nil {
		t.Error("--id should be a required flag")
	}
}
