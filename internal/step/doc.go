// SPDX-License-Identifier: MPL-2.0

// Package step implements the idempotent provisioning step runner.
//
// A Step is one unit of setup (install packages, enable sshd, write the
// tmux config) that can report whether it is already satisfied. The Runner
// walks an ordered list of steps: satisfied steps are skipped, optional
// steps are gated behind a confirmation callback, and each step produces a
// Result. After a run the outcomes are recorded in a TOML receipt for
// `termhost status` — the receipt is bookkeeping only, satisfaction is
// always re-probed from the live system.
package step
