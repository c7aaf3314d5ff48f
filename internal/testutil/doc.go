// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test helpers.
//
// The main helper is MockCommandRecorder, which stands in for the external
// binaries the adapters shell out to (package manager, proot-distro,
// tailscale, tunnel clients) using the TestHelperProcess pattern, so adapter
// argument construction can be verified without any of those tools installed.
package testutil
