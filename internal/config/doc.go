// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates termhost configuration.
//
// Configuration lives in a CUE file (config.cue) under the termhost config
// directory. Loading merges three layers through Viper: built-in defaults,
// the config file (validated against the embedded #Config CUE schema), and
// TERMHOST_* environment variables. The resulting Config drives which
// provisioning steps run and how the external tools are invoked.
package config
