// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// starterConfig is written by `termhost config init`. Every field is
// optional and mirrors a default, so the file is documentation as much as
// configuration.
const starterConfig = `// termhost configuration (CUE). All fields are optional.

packages: {
	// extra: ["git", "htop"]
	upgrade: true
}

ssh: {
	port:          8022
	password_auth: true
	// authorized_key: "ssh-ed25519 AAAA... user@laptop"
}

tmux: {
	mouse:         true
	history_limit: 10000
	autostart:     true
}

distro: {
	enabled: true
	name:    "ubuntu"
}

mesh: {
	enabled: false
	// auth_key: "tskey-auth-..."
	ssh: true
}

tunnel: {
	enabled:  false
	provider: "cloudflared"
}

// hooks: post_up: ["echo provisioning done"]
`

// WriteStarterFile creates the config file with commented defaults.
// It refuses to overwrite an existing file and returns the written path.
func WriteStarterFile() (string, error) {
	path, err := ConfigFilePath()
	if err != nil {
		return "", err
	}

	if fileExists(path) {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}
