// SPDX-License-Identifier: MPL-2.0

// Package platform detects the host environment termhost is provisioning.
//
// The primary target is a Termux-style terminal environment on Android,
// where binaries and configuration live under a sandboxed prefix instead of
// the usual FHS locations. Everything that needs a path (sshd_config,
// tmux.conf, the package manager binary) asks this package instead of
// hardcoding /usr or /etc.
package platform
