// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing diagnostics.
//
// ActionableError carries what operation failed, which resource was
// involved, and concrete suggestions for fixing it; the CLI layer formats
// it for terminal display. The issue registry maps known failure classes
// (missing external tool, unsupported environment, config problems) to
// markdown explanations rendered with glamour by `termhost doctor`.
package issue
