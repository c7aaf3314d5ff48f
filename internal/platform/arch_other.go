// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package platform

import "runtime"

// MachineArch returns the machine architecture string. Without a Linux
// kernel to ask, the GOARCH name is translated to uname vocabulary.
func MachineArch() string {
	return goarchFallback(runtime.GOARCH)
}
