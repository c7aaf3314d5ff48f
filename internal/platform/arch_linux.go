// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// MachineArch returns the kernel's machine architecture string (e.g.
// "aarch64", "x86_64"). The container bootstrap tool names its rootfs
// tarballs after this value, so it must match what uname reports rather
// than Go's GOARCH vocabulary.
func MachineArch() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return goarchFallback(runtime.GOARCH)
	}
	return unix.ByteSliceToString(uts.Machine[:])
}
