// SPDX-License-Identifier: MPL-2.0

// Package sshserver provides a built-in SSH server used as a fallback when
// the system OpenSSH daemon is unavailable. It serves interactive login
// shells and single-command sessions over a Wish server, authenticating
// against the user's authorized_keys file (and optionally a session
// password). The server runs in the foreground of `termhost sshd serve`.
package sshserver
