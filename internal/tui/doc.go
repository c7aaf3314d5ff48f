// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive terminal components used by the
// CLI, currently a yes/no confirmation prompt shown before optional
// provisioning steps.
package tui
