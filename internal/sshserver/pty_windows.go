// SPDX-License-Identifier: MPL-2.0

//go:build windows

package sshserver

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// startPty is unsupported on Windows; the fallback server only targets
// Termux and Linux hosts.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	return nil, fmt.Errorf("interactive shells are not supported on this platform")
}

// setWinsize is a no-op on Windows.
func setWinsize(f *os.File, width, height int) {}

// copyBuffer copies from src to dst.
func copyBuffer(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}
