// SPDX-License-Identifier: MPL-2.0

// Package sshd manages the system OpenSSH daemon.
//
// It renders a termhost-managed sshd_config, generates host keys, installs
// authorized keys, and starts the daemon. On Termux the daemon listens on
// an unprivileged port (8022 by convention) because the app sandbox has no
// root; the same convention is kept on plain Linux so provisioning never
// needs elevated privileges.
package sshd
