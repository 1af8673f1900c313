// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package config provides configuration management for tutils with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables (TUTILS_ prefix, "__" separates sections)
//  3. Configuration file
//  4. Built-in defaults
//
// Files are YAML and are discovered in standard locations when no explicit
// path is given. Command-line flags are applied by the caller after Load
// returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	tuerrors "github.com/sirseerhq/tutils/internal/errors"
	"github.com/sirseerhq/tutils/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig.
// TUTILS_TRANSFORM__CHECKPOINT_INTERVAL maps to transform.checkpoint_interval.
const EnvPrefix = "TUTILS_"

// SearchPaths returns the locations LoadConfig tries, in order, when no
// explicit config file is given. The first existing file wins.
func SearchPaths() []string {
	return []string{
		".tutils.yaml",
		".tutils.yml",
		filepath.Join(homeDir(), ".tutils", "config.yaml"),
	}
}

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file and a missing file is an error. Otherwise, it searches
// SearchPaths and succeeds with defaults when none exists.
//
// Environment variables are applied after the file. The state directory has
// ~ and environment variables expanded.
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	path := configPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file %s: %w", path, tuerrors.ErrFileNotFound)
			}
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	} else {
		for _, candidate := range SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: failed to load config from %s: %v", tuerrors.ErrInvalidConfig, path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", tuerrors.ErrInvalidConfig, err)
	}

	cfg.State.Dir = expandPath(cfg.State.Dir)

	return cfg, nil
}

// envKey maps TUTILS_LOG__LEVEL to log.level.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate checks if the configuration contains valid values. This should
// be called after loading configuration and applying flags to catch invalid
// settings early. Every returned error wraps errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Transform.CheckpointInterval < 0 {
		return fmt.Errorf("%w: checkpoint interval must not be negative, got: %s",
			tuerrors.ErrInvalidConfig, c.Transform.CheckpointInterval)
	}
	if c.Transform.TempSuffix == "" {
		return fmt.Errorf("%w: temp suffix cannot be empty", tuerrors.ErrInvalidConfig)
	}
	if strings.ContainsRune(c.Transform.TempSuffix, filepath.Separator) || strings.Contains(c.Transform.TempSuffix, "/") {
		return fmt.Errorf("%w: temp suffix %q must not contain a path separator",
			tuerrors.ErrInvalidConfig, c.Transform.TempSuffix)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", tuerrors.ErrInvalidConfig, err)
	}
	if c.State.Enabled && c.State.Dir == "" {
		return fmt.Errorf("%w: state directory cannot be empty when state is enabled", tuerrors.ErrInvalidConfig)
	}
	return nil
}

// YAML renders the effective configuration in the same format LoadConfig reads.
func (c *Config) YAML() ([]byte, error) {
	out, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return out, nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir(), path[2:])
	}
	return os.ExpandEnv(path)
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE") // Windows
	}
	return home
}
