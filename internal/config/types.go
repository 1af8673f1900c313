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
package config

import "time"

// Config represents the complete configuration for tutils.
// It consolidates settings from defaults, a YAML file, environment
// variables and command-line flags.
type Config struct {
	Transform TransformConfig `koanf:"transform" yaml:"transform"`
	Log       LogConfig       `koanf:"log" yaml:"log"`
	Metrics   MetricsConfig   `koanf:"metrics" yaml:"metrics"`
	State     StateConfig     `koanf:"state" yaml:"state"`
}

// TransformConfig controls the checkpointed in-place transform.
// A zero CheckpointInterval persists after every record.
type TransformConfig struct {
	CheckpointInterval time.Duration `koanf:"checkpoint_interval" yaml:"checkpoint_interval"`
	TempSuffix         string        `koanf:"temp_suffix" yaml:"temp_suffix"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	Color bool   `koanf:"color" yaml:"color"`
	JSON  bool   `koanf:"json" yaml:"json"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is non-empty.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// StateConfig controls where run metadata is written.
type StateConfig struct {
	Dir     string `koanf:"dir" yaml:"dir"`
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases: a one minute checkpoint cadence, colored info-level logs and
// run metadata kept under the user's home directory.
func DefaultConfig() *Config {
	return &Config{
		Transform: TransformConfig{
			CheckpointInterval: 60 * time.Second,
			TempSuffix:         ".tmp",
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
		State: StateConfig{
			Dir:     "~/.tutils/runs",
			Enabled: true,
		},
	}
}
