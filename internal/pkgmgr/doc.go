// SPDX-License-Identifier: MPL-2.0

// Package pkgmgr wraps the system package manager.
//
// Termux ships `pkg`, a thin frontend over apt with mirror rotation; plain
// Debian-family hosts use `apt-get` directly. Both speak the same dpkg
// vocabulary underneath, which is what IsInstalled queries. Detect prefers
// `pkg` so the Termux mirror logic is kept when available.
package pkgmgr
