// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package sshserver

import (
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// startPty starts a command attached to a new pseudo-terminal.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}

// setWinsize propagates a window-change request to the PTY.
func setWinsize(f *os.File, width, height int) {
	_ = unix.IoctlSetWinsize(int(f.Fd()), unix.TIOCSWINSZ, &unix.Winsize{
		Row: uint16(height),
		Col: uint16(width),
	})
}

// copyBuffer copies from src to dst.
func copyBuffer(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}
