// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"termhost/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for config and state directories.
	AppName = "termhost"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// maxConfigFileSize bounds config reads; a config file this large is
	// never legitimate.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the termhost configuration directory:
// $XDG_CONFIG_HOME/termhost, defaulting to ~/.config/termhost.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, AppName), nil
}

// StateDir returns the termhost state directory used for the run receipt:
// $XDG_STATE_HOME/termhost, defaulting to ~/.local/state/termhost.
func StateDir() (string, error) {
	if stateDirOverride != "" {
		return stateDirOverride, nil
	}

	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".local", "state")
	}

	return filepath.Join(stateDir, AppName), nil
}

// ConfigFilePath returns the full path of the config file, honoring the
// --config flag override.
func ConfigFilePath() (string, error) {
	if configFilePathOverride != "" {
		return configFilePathOverride, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads configuration from defaults, the config file (if present), and
// TERMHOST_* environment variables, in increasing precedence.
func Load(ctx context.Context) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("packages.extra", defaults.Packages.Extra)
	v.SetDefault("packages.upgrade", defaults.Packages.Upgrade)
	v.SetDefault("ssh.port", int(defaults.SSH.Port))
	v.SetDefault("ssh.password_auth", defaults.SSH.PasswordAuth)
	v.SetDefault("ssh.authorized_key", defaults.SSH.AuthorizedKey)
	v.SetDefault("tmux.mouse", defaults.Tmux.Mouse)
	v.SetDefault("tmux.prefix", defaults.Tmux.Prefix)
	v.SetDefault("tmux.history_limit", defaults.Tmux.HistoryLimit)
	v.SetDefault("tmux.autostart", defaults.Tmux.Autostart)
	v.SetDefault("distro.enabled", defaults.Distro.Enabled)
	v.SetDefault("distro.name", string(defaults.Distro.Name))
	v.SetDefault("mesh.enabled", defaults.Mesh.Enabled)
	v.SetDefault("mesh.auth_key", defaults.Mesh.AuthKey)
	v.SetDefault("mesh.hostname", defaults.Mesh.Hostname)
	v.SetDefault("mesh.ssh", defaults.Mesh.SSH)
	v.SetDefault("tunnel.enabled", defaults.Tunnel.Enabled)
	v.SetDefault("tunnel.provider", string(defaults.Tunnel.Provider))
	v.SetDefault("tunnel.local_port", defaults.Tunnel.LocalPort)
	v.SetDefault("hooks.post_up", defaults.Hooks.PostUp)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix("TERMHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	if fileExists(path) {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Run 'termhost config init' to regenerate a starter config").
				Wrap(err).
				BuildError()
		}
	} else if configFilePathOverride != "" {
		// An explicitly requested file must exist; silent defaults would
		// mask a typo in --config.
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			Wrap(fmt.Errorf("config file not found: %s", path)).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if int64(len(data)) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	// Concrete(false): every schema field is optional, defaults fill the gaps.
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
