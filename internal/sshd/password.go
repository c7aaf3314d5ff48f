// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"termhost/internal/clitool"
)

// SetPassword sets the login password by feeding the passwd utility on
// stdin. Termux's passwd reads the new password twice without prompting
// for the current one, which is what makes this scriptable.
func SetPassword(ctx context.Context, password string, opts ...clitool.ToolOption) error {
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	passwd := clitool.New("passwd", opts...)
	if !passwd.Available() {
		return &clitool.NotAvailableError{Tool: "passwd", Reason: "binary not found on PATH"}
	}

	cmd := passwd.CreateCommand(ctx)
	cmd.Stdin = strings.NewReader(password + "\n" + password + "\n")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("passwd failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// PromptPassword reads a password from the terminal without echo, asking
// twice and requiring both entries to match.
func PromptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for password: stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, "New password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Retype password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(first) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(first), nil
}
