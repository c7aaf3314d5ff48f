// SPDX-License-Identifier: MPL-2.0

package config

var (
	// configDirOverride allows tests to override the config directory.
	// os.UserHomeDir() doesn't reliably respect the HOME environment
	// variable on all platforms, so tests set this directly.
	configDirOverride string

	// stateDirOverride allows tests to override the state directory.
	stateDirOverride string

	// configFilePathOverride carries the --config flag value.
	configFilePathOverride string
)

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	stateDirOverride = ""
	configFilePathOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetStateDirOverride sets a custom state directory path.
func SetStateDirOverride(dir string) {
	stateDirOverride = dir
}

// SetConfigFilePathOverride forces loading from a specific config file.
// Used by the --config CLI flag.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}
