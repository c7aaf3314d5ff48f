// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidHostAddress is the sentinel error wrapped by InvalidHostAddressError.
	ErrInvalidHostAddress = errors.New("invalid host address")
	// ErrInvalidListenPort is the sentinel error wrapped by InvalidListenPortError.
	ErrInvalidListenPort = errors.New("invalid listen port")
	// ErrInvalidServeConfig is the sentinel error wrapped by InvalidServeConfigError.
	ErrInvalidServeConfig = errors.New("invalid SSH server config")
)

type (
	// HostAddress is a bind address (IP or hostname). A valid address is
	// non-empty and not whitespace-only.
	HostAddress string

	// ListenPort is a TCP listen port. 0 selects an ephemeral port.
	ListenPort int

	// InvalidHostAddressError is returned for an empty or whitespace-only
	// HostAddress.
	InvalidHostAddressError struct {
		Value HostAddress
	}

	// InvalidListenPortError is returned for an out-of-range ListenPort.
	InvalidListenPortError struct {
		Value ListenPort
	}

	// InvalidServeConfigError collects field-level validation errors from a
	// Config. It wraps ErrInvalidServeConfig for errors.Is().
	InvalidServeConfigError struct {
		FieldErrors []error
	}

	// Config holds immutable configuration for the fallback SSH server.
	Config struct {
		// Host is the address to bind to (default 0.0.0.0 so phones on the
		// same network can reach the shell).
		Host HostAddress
		// Port is the port to listen on (0 = auto-select).
		Port ListenPort
		// Shell is the login shell spawned for sessions (default /bin/sh,
		// or $SHELL when set).
		Shell string
		// HostKeyPath is where the server host key lives; a missing key is
		// generated on first start.
		HostKeyPath string
		// AuthorizedKeysPath points at the OpenSSH authorized_keys file
		// used for public key auth. Empty disables key auth.
		AuthorizedKeysPath string
		// Password, when non-empty, additionally allows password auth with
		// this exact value. Intended for one-off sessions, not persistence.
		Password string
		// ShutdownTimeout bounds graceful shutdown (default 10s).
		ShutdownTimeout time.Duration
		// StartupTimeout bounds how long Start waits for readiness (default 5s).
		StartupTimeout time.Duration
	}
)

// String returns the string representation of the HostAddress.
func (h HostAddress) String() string { return string(h) }

// Validate returns nil for a non-empty, non-whitespace HostAddress.
//
//goplint:nonzero
func (h HostAddress) Validate() error {
	if strings.TrimSpace(string(h)) == "" {
		return &InvalidHostAddressError{Value: h}
	}
	return nil
}

// Validate returns nil for a port in [0, 65535]; 0 means auto-select.
func (p ListenPort) Validate() error {
	if p < 0 || p > 65535 {
		return &InvalidListenPortError{Value: p}
	}
	return nil
}

// Validate collects field errors from Host and Port.
func (c Config) Validate() error {
	var fieldErrs []error
	if err := c.Host.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}
	if err := c.Port.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}
	if len(fieldErrs) > 0 {
		return &InvalidServeConfigError{FieldErrors: fieldErrs}
	}
	return nil
}

// Error implements the error interface for InvalidHostAddressError.
func (e *InvalidHostAddressError) Error() string {
	return fmt.Sprintf("invalid host address %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidHostAddress for errors.Is() compatibility.
func (e *InvalidHostAddressError) Unwrap() error { return ErrInvalidHostAddress }

// Error implements the error interface for InvalidListenPortError.
func (e *InvalidListenPortError) Error() string {
	return fmt.Sprintf("invalid listen port %d: must be in range 0-65535", e.Value)
}

// Unwrap returns ErrInvalidListenPort for errors.Is() compatibility.
func (e *InvalidListenPortError) Unwrap() error { return ErrInvalidListenPort }

// Error implements the error interface for InvalidServeConfigError.
func (e *InvalidServeConfigError) Error() string {
	return fmt.Sprintf("invalid SSH server config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidServeConfig for errors.Is() compatibility.
func (e *InvalidServeConfigError) Unwrap() error { return ErrInvalidServeConfig }
