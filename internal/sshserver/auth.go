// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"crypto/subtle"
	"fmt"
	"os"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// loadAuthorizedKeys parses an OpenSSH authorized_keys file. A missing
// file is not an error: the server may be running before any key has been
// installed, with password auth covering the gap.
func loadAuthorizedKeys(path string) ([]ssh.PublicKey, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read authorized keys from %s: %w", path, err)
	}

	var keys []ssh.PublicKey
	for len(data) > 0 {
		key, _, _, rest, err := gossh.ParseAuthorizedKey(data)
		if err != nil {
			// Tolerate blank lines and comments at the tail of the file.
			break
		}
		keys = append(keys, key)
		data = rest
	}
	return keys, nil
}

// publicKeyHandler accepts any key listed in authorized_keys.
func (s *Server) publicKeyHandler(ctx ssh.Context, key ssh.PublicKey) bool {
	for _, authorized := range s.authorizedKeys {
		if ssh.KeysEqual(key, authorized) {
			s.logger.Debug("public key authentication successful", "user", ctx.User())
			return true
		}
	}
	s.logger.Warn("rejected public key", "user", ctx.User(), "type", key.Type())
	return false
}

// passwordHandler compares the offered password against the configured
// session password in constant time.
func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1 {
		s.logger.Debug("password authentication successful", "user", ctx.User())
		return true
	}
	s.logger.Warn("rejected password attempt", "user", ctx.User())
	return false
}
