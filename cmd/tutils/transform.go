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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sirseerhq/tutils/internal/config"
	"github.com/sirseerhq/tutils/internal/inplace"
	"github.com/sirseerhq/tutils/internal/logging"
	"github.com/sirseerhq/tutils/internal/metadata"
	"github.com/sirseerhq/tutils/internal/metrics"
	"github.com/sirseerhq/tutils/internal/steps"
	"github.com/sirseerhq/tutils/internal/timing"
)

type transformFlags struct {
	interval    time.Duration
	tempSuffix  string
	metricsAddr string
	noMetadata  bool

	set     []string
	del     []string
	rename  []string
	require []string
	dropIf  []string
}

func newTransformCommand(a *app) *cobra.Command {
	f := &transformFlags{}

	cmd := &cobra.Command{
		Use:   "transform <file.jsonl>",
		Short: "Rewrite every record of a JSON Lines file in place",
		Long: `Rewrite every record of a JSON Lines file in place.

Edits run in a fixed order for each record: --require, --drop-if, --rename,
--delete, then --set. Each flag may be repeated. Values given to --set and
--drop-if are read as JSON when they parse (5, true, "5", {"a":1}) and as
plain strings otherwise.

Lines that are not valid JSON, and records an edit fails on, are logged and
left out of the result. Blank lines are removed.

Progress is saved to the file every --interval (0 saves after every record).
On Ctrl-C the run stops before the next record, saves, and exits with 130.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd.Context(), a, cmd, args[0], f)
		},
	}

	f.register(cmd.Flags())

	return cmd
}

func (f *transformFlags) register(flags *pflag.FlagSet) {
	flags.DurationVar(&f.interval, "interval", inplace.DefaultInterval, "Minimum time between checkpoints")
	flags.StringVar(&f.tempSuffix, "temp-suffix", "", "Suffix of the scratch file written next to the source (default .tmp)")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.BoolVar(&f.noMetadata, "no-metadata", false, "Do not save run metadata")

	flags.StringArrayVar(&f.set, "set", nil, "Set a field: key=value")
	flags.StringArrayVar(&f.del, "delete", nil, "Delete a field")
	flags.StringArrayVar(&f.rename, "rename", nil, "Rename a field: old=new")
	flags.StringArrayVar(&f.require, "require", nil, "Drop records without this field")
	flags.StringArrayVar(&f.dropIf, "drop-if", nil, "Drop records where a field equals a value: key=value")
}

// buildSteps turns the edit flags into a step list in the documented order.
func (f *transformFlags) buildSteps() ([]steps.Step, error) {
	var out []steps.Step
	for _, key := range f.require {
		out = append(out, steps.Require(key))
	}
	for _, arg := range f.dropIf {
		key, value, err := steps.ParseAssignment(arg)
		if err != nil {
			return nil, fmt.Errorf("--drop-if: %w", err)
		}
		out = append(out, steps.DropIf(key, steps.ParseValue(value)))
	}
	for _, arg := range f.rename {
		from, to, err := steps.ParseAssignment(arg)
		if err != nil {
			return nil, fmt.Errorf("--rename: %w", err)
		}
		out = append(out, steps.Rename(from, to))
	}
	for _, key := range f.del {
		out = append(out, steps.Delete(key))
	}
	for _, arg := range f.set {
		key, value, err := steps.ParseAssignment(arg)
		if err != nil {
			return nil, fmt.Errorf("--set: %w", err)
		}
		out = append(out, steps.Set(key, steps.ParseValue(value)))
	}
	return out, nil
}

// apply overlays the transform flags that were given on cfg.
func (f *transformFlags) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("interval") {
		cfg.Transform.CheckpointInterval = f.interval
	}
	if flags.Changed("temp-suffix") {
		cfg.Transform.TempSuffix = f.tempSuffix
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if f.noMetadata {
		cfg.State.Enabled = false
	}
}

func runTransform(ctx context.Context, a *app, cmd *cobra.Command, pathArg string, f *transformFlags) error {
	timer := timing.New(timing.Options{})
	_ = timer.Start("prepare")

	cfg := *a.cfg
	f.apply(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	list, err := f.buildSteps()
	if err != nil {
		return err
	}

	path, err := filepath.Abs(pathArg)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", pathArg, err)
	}
	log := a.log

	m := metrics.NewTransform()
	if cfg.Metrics.Addr != "" {
		serveCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := m.Serve(serveCtx, cfg.Metrics.Addr); err != nil {
				log.Error("metrics server stopped", slog.String("addr", cfg.Metrics.Addr), slog.Any("error", err))
			}
		}()
		log.Info("serving metrics", slog.String("addr", cfg.Metrics.Addr))
	}

	var previous *metadata.RunRef
	if cfg.State.Enabled {
		prev, err := metadata.LoadLatestMetadata(cfg.State.Dir, path)
		if err != nil {
			log.Warn("could not read previous run metadata", slog.Any("error", err))
		} else if prev != nil {
			previous = prev.Ref()
			if prev.Results.Interrupted {
				log.Warn("previous run on this file was interrupted; its transformed head will be transformed again",
					slog.String("run_id", prev.RunID),
					slog.Int("persisted", prev.Results.Persisted))
			}
		}
	}

	tracker := metadata.New()
	engine := inplace.New(inplace.Options{
		Interval:   cfg.Transform.CheckpointInterval,
		TempSuffix: cfg.Transform.TempSuffix,
		Logger:     log,
		Metrics:    m,
		Observer:   tracker,
	})
	_, _ = timer.End("prepare")

	_ = timer.Start("transform")
	res, err := engine.Run(ctx, path, steps.Chain(list...))
	if err != nil {
		return err
	}
	_, _ = timer.End("transform")

	fmt.Fprintf(a.stderr, "Processed %d of %d records (%d kept, %d dropped, %d invalid, %d failed) in %s\n",
		res.Consumed, res.TotalLines, res.Kept, res.Dropped, res.ParseErrors, res.TransformErrors,
		res.CompletedAt.Sub(res.StartedAt).Round(time.Millisecond))
	if msg := checkpointWarning(res); msg != "" {
		fmt.Fprintln(a.stderr, msg)
	}

	if cfg.State.Enabled {
		_ = timer.Start("metadata")
		params := metadata.RunParams{
			Path:       path,
			Interval:   cfg.Transform.CheckpointInterval.String(),
			TempSuffix: cfg.Transform.TempSuffix,
			Steps:      steps.Names(list),
		}
		md := tracker.GenerateMetadata(version, params, res, previous)
		if saved, err := metadata.SaveMetadata(md, cfg.State.Dir); err != nil {
			log.Warn("could not save run metadata", slog.Any("error", err))
		} else {
			log.Info("saved run metadata", slog.String("file", saved), logging.Color("cyan"))
		}
		_, _ = timer.End("metadata")
	}
	log.Debug("timings\n" + timer.Report())

	if res.Interrupted {
		return errInterrupted
	}
	return nil
}

// checkpointWarning describes failed checkpoint writes, or returns "" when
// there were none.
func checkpointWarning(res *inplace.Result) string {
	if res.FailedCheckpoints == 0 {
		return ""
	}
	attempts := res.FailedCheckpoints + res.Checkpoints
	if res.Persisted == res.Consumed {
		return fmt.Sprintf("Warning: %d of %d checkpoint writes failed; a later write succeeded and the file is up to date",
			res.FailedCheckpoints, attempts)
	}
	return fmt.Sprintf("Warning: %d of %d checkpoint writes failed; the file holds the last successful checkpoint (%d of %d lines transformed)",
		res.FailedCheckpoints, attempts, res.Persisted, res.TotalLines)
}
