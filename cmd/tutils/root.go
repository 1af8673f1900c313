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
package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/tutils/internal/config"
	tuerrors "github.com/sirseerhq/tutils/internal/errors"
	"github.com/sirseerhq/tutils/internal/logging"
)

// app carries what every subcommand shares: output streams, the effective
// configuration and the logger built from it.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logJSON    bool
	noColor    bool

	cfg *config.Config
	log *slog.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tutils",
		Short: "Crash-safe in-place JSON Lines transforms and data helpers",
		Long: `tutils rewrites JSON Lines files in place, one record at a time.
Progress is checkpointed to the source file at a fixed interval with an
atomic replace, so a crash or Ctrl-C leaves either the old file or a file
whose head is transformed and whose tail is still the original input.`,
		Version:       version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // main prints errors and picks the exit code
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: .tutils.yaml, .tutils.yml or ~/.tutils/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warning, error, critical")
	flags.BoolVar(&a.logJSON, "log-json", false, "Emit logs as JSON")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(
		newTransformCommand(a),
		newCountCommand(a),
		newHeadCommand(a),
		newAppendCommand(a),
		newCompactCommand(a),
		newTopKCommand(a),
		newMaxPCommand(a),
		newBase62Command(a),
		newRandStrCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}

// setup loads configuration, applies the global flags on top of it and
// builds the logger. Flags win over environment, file and defaults.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}
	if flags.Changed("no-color") {
		cfg.Log.Color = !a.noColor
	}

	logger, err := logging.New(logging.Options{
		Name:   "tutils",
		Level:  cfg.Log.Level,
		Color:  cfg.Log.Color,
		JSON:   cfg.Log.JSON,
		Writer: a.stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", tuerrors.ErrInvalidConfig, err)
	}

	a.cfg = cfg
	a.log = logger
	return nil
}
