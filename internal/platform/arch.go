// SPDX-License-Identifier: MPL-2.0

package platform

// goarchFallback maps Go architecture names to the uname -m vocabulary
// used by rootfs distributors.
func goarchFallback(goarch string) string {
	switch goarch {
	case "arm64":
		return "aarch64"
	case "amd64":
		return "x86_64"
	case "arm":
		return "armv7l"
	case "386":
		return "i686"
	default:
		return goarch
	}
}
