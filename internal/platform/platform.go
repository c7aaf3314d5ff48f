// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// termuxPrefixMarker is the app-private path fragment every Termux
	// install carries in $PREFIX.
	termuxPrefixMarker = "com.termux"

	// defaultTermuxPrefix is the canonical Termux prefix, used when the
	// environment variable is missing (e.g. when invoked from a stripped
	// environment such as cron or an SSH forced command).
	defaultTermuxPrefix = "/data/data/com.termux/files/usr"
)

// envFunc is the environment lookup used by detection. Tests override it to
// simulate Termux and plain-Linux environments.
var envFunc = os.Getenv

// SetEnvFuncForTest replaces the environment lookup. The returned function
// restores the previous lookup and should be deferred by the caller.
func SetEnvFuncForTest(fn func(string) string) func() {
	prev := envFunc
	envFunc = fn
	return func() { envFunc = prev }
}

// IsTermux reports whether the process is running inside a Termux
// environment. TERMUX_VERSION is set by every supported Termux release;
// the prefix check covers older builds that predate it.
func IsTermux() bool {
	if envFunc("TERMUX_VERSION") != "" {
		return true
	}
	return strings.Contains(envFunc("PREFIX"), termuxPrefixMarker)
}

// Prefix returns the installation prefix for binaries and configuration.
// On Termux this is $PREFIX; elsewhere it is /usr.
func Prefix() string {
	if p := envFunc("PREFIX"); p != "" && strings.Contains(p, termuxPrefixMarker) {
		return p
	}
	if IsTermux() {
		return defaultTermuxPrefix
	}
	return "/usr"
}

// EtcDir returns the directory holding system configuration files.
// Termux keeps them under $PREFIX/etc; regular Linux uses /etc.
func EtcDir() string {
	if IsTermux() {
		return filepath.Join(Prefix(), "etc")
	}
	return "/etc"
}

// HomeDir returns the user's home directory, preferring $HOME so the
// Termux app-private home is honored even when os.UserHomeDir falls back
// to the passwd database.
func HomeDir() (string, error) {
	if h := envFunc("HOME"); h != "" {
		return h, nil
	}
	return os.UserHomeDir()
}

// TermuxVersion returns the Termux release string, or "" outside Termux.
func TermuxVersion() string {
	return envFunc("TERMUX_VERSION")
}
