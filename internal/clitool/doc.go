// SPDX-License-Identifier: MPL-2.0

// Package clitool provides the shared base for adapters around external
// command-line programs (package manager, container bootstrap tool, VPN
// client, tunnel client).
//
// Every provisioning action termhost performs is ultimately an invocation of
// a third-party binary. Tool centralizes binary resolution, command
// construction, and output capture, and exposes an injectable exec function
// so adapter behavior can be tested without the real binaries installed.
package clitool
