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

package inplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/tutils/internal/atomicfile"
	tuerrors "github.com/sirseerhq/tutils/internal/errors"
	"github.com/sirseerhq/tutils/internal/jsonl"
	"github.com/sirseerhq/tutils/internal/logging"
	"github.com/sirseerhq/tutils/internal/metrics"
)

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	// Interval is the minimum wall time between checkpoints. Zero checkpoints
	// after every record; negative values are treated as zero.
	Interval time.Duration
	// TempSuffix names the scratch file as path+TempSuffix.
	TempSuffix string

	Logger   *slog.Logger
	Clock    Clock
	FS       FileSystem
	// Metrics may be nil, which disables instrumentation.
	Metrics  *metrics.Transform
	Observer Observer
}

// Engine runs checkpointed in-place transforms. An Engine holds no per-run
// state and may be reused, but never for two concurrent runs on one path.
type Engine struct {
	opts Options
}

// New creates an Engine, filling unset options with defaults:
// atomicfile.DefaultSuffix, a discarding logger, SystemClock and
// atomicfile.OSFS. A zero Interval is honored as "after every record";
// callers wanting the usual cadence pass DefaultInterval.
func New(opts Options) *Engine {
	if opts.Interval < 0 {
		opts.Interval = 0
	}
	if opts.TempSuffix == "" {
		opts.TempSuffix = atomicfile.DefaultSuffix
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.FS == nil {
		opts.FS = atomicfile.OSFS{}
	}
	return &Engine{opts: opts}
}

// Run transforms every record of path in order and rewrites path in place.
//
// A missing source returns an error wrapping errors.ErrFileNotFound before
// anything is written. Cancelling ctx stops the loop between records and
// goes straight to the final flush; the returned Result has Interrupted set
// and the error is nil.
func (e *Engine) Run(ctx context.Context, path string, fn TransformFunc) (*Result, error) {
	log := e.opts.Logger.With(slog.String("path", path))
	log.Info("start reading file")

	data, err := e.opts.FS.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error("file not found")
			return nil, fmt.Errorf("%w: %s", tuerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := jsonl.SplitLines(data)
	log.Info("loaded lines", slog.Int("lines", len(lines)))

	r := &run{
		e:        e,
		log:      log,
		path:     path,
		lines:    lines,
		lastSave: e.opts.Clock.Now(),
		res: &Result{
			RunID:      uuid.NewString(),
			Path:       path,
			TotalLines: len(lines),
			StartedAt:  e.opts.Clock.Now(),
		},
	}

	for idx, line := range lines {
		if ctx.Err() != nil {
			r.res.Interrupted = true
			log.Warn("interrupted, flushing progress", slog.Int("line", idx+1))
			break
		}

		r.process(idx+1, line, fn)

		if e.opts.Clock.Now().Sub(r.lastSave) >= e.opts.Interval {
			r.checkpoint(false)
		}
	}

	r.finish()
	return r.res, nil
}

// run holds the state of a single Run call.
type run struct {
	e    *Engine
	log  *slog.Logger
	path string

	lines []string
	// cursor is the number of lines consumed so far.
	cursor int
	// processed holds encoded transform outputs already folded into checkpoints.
	processed [][]byte
	// buffer holds encoded outputs produced since the last checkpoint.
	buffer [][]byte

	persisted int
	seq       int
	lastSave  time.Time
	res       *Result
}

func (r *run) process(lineNo int, line string, fn TransformFunc) {
	defer func() { r.cursor = lineNo }()
	m := r.e.opts.Metrics

	rec, err := jsonl.ParseLine(line)
	if err != nil {
		r.res.ParseErrors++
		m.ObserveRecord(metrics.OutcomeParseError)
		r.log.Warn("skipping malformed line", slog.Int("line", lineNo), slog.Any("error", err))
		return
	}

	out, err := apply(fn, rec)
	if err == nil && out != nil {
		var enc []byte
		if enc, err = jsonl.Marshal(out); err != nil {
			err = fmt.Errorf("%w: result is not serializable: %w", tuerrors.ErrTransform, err)
		} else {
			r.buffer = append(r.buffer, enc)
			r.res.Kept++
			m.ObserveRecord(metrics.OutcomeKept)
			return
		}
	}
	if err != nil {
		r.res.TransformErrors++
		m.ObserveRecord(metrics.OutcomeTransformError)
		r.log.Warn("skipping record", slog.Int("line", lineNo), slog.Any("error", err))
		return
	}

	r.res.Dropped++
	m.ObserveRecord(metrics.OutcomeDropped)
}

// apply calls fn and converts both returned errors and panics into
// ErrTransform so that a faulty transform only costs the current record.
func apply(fn TransformFunc, rec jsonl.Record) (out jsonl.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("%w: panic: %v", tuerrors.ErrTransform, p)
		}
	}()

	out, err = fn(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tuerrors.ErrTransform, err)
	}
	return out, nil
}

// checkpoint folds the buffer into the processed results and persists
// processed ++ lines[cursor:].
func (r *run) checkpoint(final bool) {
	r.processed = append(r.processed, r.buffer...)
	r.buffer = r.buffer[:0]

	if !final {
		r.log.Info("auto-saving progress to source file",
			slog.Int("processed", r.cursor),
			slog.Int("total", len(r.lines)),
			slog.Int("records", len(r.processed)))
	}

	r.persist(final)
	r.lastSave = r.e.opts.Clock.Now()
}

func (r *run) persist(final bool) {
	r.seq++
	cursor := r.cursor
	records := r.processed
	suffix := r.lines[cursor:]

	start := r.e.opts.Clock.Now()
	err := atomicfile.WriteFileWith(r.path, atomicfile.Options{
		Suffix: r.e.opts.TempSuffix,
		FS:     r.e.opts.FS,
	}, func(w io.Writer) error {
		for _, enc := range records {
			if err := writeLine(w, enc); err != nil {
				return err
			}
		}
		for _, line := range suffix {
			if err := writeLine(w, []byte(line)); err != nil {
				return err
			}
		}
		return nil
	})
	took := r.e.opts.Clock.Now().Sub(start)

	if err != nil {
		err = fmt.Errorf("%w: %w", tuerrors.ErrCheckpointWrite, err)
		r.res.FailedCheckpoints++
		r.log.Error("save failed, source file left unchanged", slog.Int("seq", r.seq), slog.Any("error", err))
	} else {
		r.persisted = cursor
		r.res.Checkpoints++
		r.res.Persisted = cursor
	}

	r.e.opts.Metrics.ObserveCheckpoint(len(records), took, err)
	if r.e.opts.Observer != nil {
		r.e.opts.Observer.OnCheckpoint(Checkpoint{
			Seq:      r.seq,
			Cursor:   cursor,
			Records:  len(records),
			Total:    len(r.lines),
			Final:    final,
			Duration: took,
			Err:      err,
		})
	}
}

func writeLine(w io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

// finish performs the final flush and removes any leftover temporary file.
// The flush is skipped when the last successful checkpoint already covers
// every consumed line.
func (r *run) finish() {
	r.res.Consumed = r.cursor
	r.log.Info("saving records to source file",
		slog.Int("processed", r.cursor),
		slog.Int("records", len(r.processed)+len(r.buffer)))

	flushed := len(r.buffer) > 0 || r.cursor != r.persisted
	if flushed {
		r.checkpoint(true)
		r.res.Updated = r.persisted == r.cursor
	}

	switch {
	case r.res.Updated:
		r.log.Info("done, source file updated")
	case flushed:
		r.log.Error("done, final save failed; source file holds the last successful checkpoint",
			slog.Int("persisted", r.persisted),
			slog.Int("processed", r.cursor))
	default:
		r.log.Info("done, no data to save")
	}

	_ = r.e.opts.FS.Remove(atomicfile.TempPath(r.path, r.e.opts.TempSuffix))
	r.res.CompletedAt = r.e.opts.Clock.Now()
}
