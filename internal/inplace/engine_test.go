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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tuerrors "github.com/sirseerhq/tutils/internal/errors"
	"github.com/sirseerhq/tutils/internal/jsonl"
	"github.com/sirseerhq/tutils/internal/logging"
	"github.com/sirseerhq/tutils/internal/metrics"
)

var intervals = []struct {
	name     string
	interval time.Duration
}{
	{"every record", 0},
	{"every two records", 2 * time.Second},
	{"never mid-run", time.Hour},
}

func TestRun_IdentityIsIdempotent(t *testing.T) {
	original := []string{
		`{"id":1,"text":"alpha"}`,
		`{"id":2,"score":0.25,"text":"beta"}`,
		`{"id":3,"nested":{"a":[1,2,3]},"text":"gamma"}`,
		`{"big":12345678901234567890,"id":4}`,
		`"bare string"`,
	}

	for _, iv := range intervals {
		t.Run(iv.name, func(t *testing.T) {
			path := writeLines(t, original...)
			clock := newFakeClock()
			engine := New(Options{Interval: iv.interval, Clock: clock})
			fn := func(rec jsonl.Record) (jsonl.Record, error) {
				clock.Advance(time.Second)
				return rec, nil
			}

			for i := 0; i < 2; i++ {
				res, err := engine.Run(context.Background(), path, fn)
				require.NoError(t, err)
				assert.Equal(t, len(original), res.Kept)
				assert.Equal(t, original, readLines(t, path))
			}
		})
	}
}

func TestRun_DropSemantics(t *testing.T) {
	for _, iv := range intervals {
		t.Run(iv.name, func(t *testing.T) {
			path := writeLines(t, "1", "-2", "3", "-4", "5")
			clock := newFakeClock()
			engine := New(Options{Interval: iv.interval, Clock: clock})

			res, err := engine.Run(context.Background(), path, func(rec jsonl.Record) (jsonl.Record, error) {
				clock.Advance(time.Second)
				return dropNegative(rec)
			})
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "1\n3\n5\n", string(data))
			assert.Equal(t, 3, res.Kept)
			assert.Equal(t, 2, res.Dropped)
			assert.Equal(t, 5, res.Consumed)
			assert.Equal(t, 5, res.Persisted)
		})
	}
}

func TestRun_MalformedLineTolerance(t *testing.T) {
	tests := []struct {
		name string
		bad  string
	}{
		{name: "truncated json", bad: `{"id":2`},
		{name: "invalid utf-8", bad: "{\"id\":2,\"name\":\"\xff\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLines(t, `{"id":1}`, tt.bad, `{"id":3}`)

			var logs bytes.Buffer
			logger, err := logging.New(logging.Options{Writer: &logs})
			require.NoError(t, err)

			res, err := New(Options{Logger: logger}).Run(context.Background(), path, identity)
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "{\"id\":1}\n{\"id\":3}\n", string(data))
			assert.Equal(t, 1, res.ParseErrors)
			assert.Equal(t, 2, res.Kept)
			assert.Equal(t, 1, strings.Count(logs.String(), "skipping malformed line"))
			assert.Contains(t, logs.String(), "line=2")
		})
	}
}

func TestRun_TransformErrorsDropOnlyThatRecord(t *testing.T) {
	path := writeLines(t, `{"id":1}`, `{"id":2}`, `{"id":3}`, `{"id":4}`)

	res, err := New(Options{}).Run(context.Background(), path, func(rec jsonl.Record) (jsonl.Record, error) {
		obj, _ := jsonl.AsObject(rec)
		switch fmt.Sprint(obj["id"]) {
		case "2":
			return nil, errors.New("bad record")
		case "3":
			panic("transform blew up")
		case "4":
			return map[string]any{"ch": make(chan int)}, nil
		}
		return rec, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{`{"id":1}`}, readLines(t, path))
	assert.Equal(t, 3, res.TransformErrors)
	assert.Equal(t, 1, res.Kept)
}

func TestApply_WrapsErrors(t *testing.T) {
	_, err := apply(func(jsonl.Record) (jsonl.Record, error) { return nil, errors.New("nope") }, nil)
	assert.ErrorIs(t, err, tuerrors.ErrTransform)

	_, err = apply(func(jsonl.Record) (jsonl.Record, error) { panic("boom") }, nil)
	assert.ErrorIs(t, err, tuerrors.ErrTransform)
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_CheckpointShapeAndMonotonicity(t *testing.T) {
	original := []string{`{"id":1}`, `{"id":2}`, `{"id":3}`, `{"id":4}`, `{"id":5}`}
	path := writeLines(t, original...)
	clock := newFakeClock()

	var snapshots [][]string
	cps := &checkpointLog{}
	observer := ObserverFunc(func(cp Checkpoint) {
		cps.OnCheckpoint(cp)
		snapshots = append(snapshots, readLines(t, path))
	})

	engine := New(Options{Interval: 2 * time.Second, Clock: clock, Observer: observer})
	_, err := engine.Run(context.Background(), path, tagged(clock, time.Second))
	require.NoError(t, err)

	all := cps.all()
	require.Len(t, all, 3)

	prev := 0
	for i, cp := range all {
		require.NoError(t, cp.Err)
		assert.GreaterOrEqual(t, cp.Cursor, prev, "cursor must not move backwards")
		assert.LessOrEqual(t, cp.Cursor, cp.Total)
		prev = cp.Cursor

		// File holds the transformed prefix followed by the verbatim raw suffix
		for j, line := range snapshots[i] {
			if j < cp.Cursor {
				assert.Contains(t, line, `"seen":true`)
			} else {
				assert.Equal(t, original[j], line)
			}
		}
		assert.Len(t, snapshots[i], len(original))
	}

	assert.Equal(t, []int{2, 4, 5}, []int{all[0].Cursor, all[1].Cursor, all[2].Cursor})
	assert.True(t, all[2].Final)
}

func TestRun_CheckpointAtomicityOnWriteFailure(t *testing.T) {
	original := []string{`{"id":1}`, `{"id":2}`, `{"id":3}`, `{"id":4}`}
	path := writeLines(t, original...)
	clock := newFakeClock()
	fsys := &recordingFS{failSyncOn: map[int]bool{2: true}}

	var lastGood []byte
	failures := 0
	observer := ObserverFunc(func(cp Checkpoint) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		if cp.Err != nil {
			failures++
			assert.Equal(t, lastGood, data, "failed checkpoint must leave the source byte-for-byte unchanged")
			return
		}
		lastGood = data
	})

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &logs})
	require.NoError(t, err)

	engine := New(Options{Interval: time.Second, Clock: clock, FS: fsys, Observer: observer, Logger: logger})
	res, err := engine.Run(context.Background(), path, tagged(clock, time.Second))
	require.NoError(t, err)

	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, res.FailedCheckpoints)
	assert.Contains(t, logs.String(), "save failed")

	// The run continues and later checkpoints still land
	for _, line := range readLines(t, path) {
		assert.Contains(t, line, `"seen":true`)
	}
	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_FailedSyncLeavesSourceByteIdentical(t *testing.T) {
	path := writeLines(t, `{"id":1}`, `{"id":2}`)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	fsys := &recordingFS{failSyncOn: map[int]bool{1: true}}
	var seen []byte
	observer := ObserverFunc(func(cp Checkpoint) {
		seen, _ = os.ReadFile(path)
	})

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &logs})
	require.NoError(t, err)

	res, err := New(Options{Interval: time.Hour, FS: fsys, Observer: observer, Logger: logger}).
		Run(context.Background(), path, tagged(nil, 0))
	require.NoError(t, err)

	assert.Equal(t, original, seen)
	assert.False(t, res.Updated)
	assert.Equal(t, 1, res.FailedCheckpoints)
	assert.Contains(t, logs.String(), "final save failed")
	assert.NotContains(t, logs.String(), "no data to save")
}

func TestRun_FailedCheckpointRetriedAtFinish(t *testing.T) {
	path := writeLines(t, `{"id":1}`, `{"id":2}`, `{"id":3}`)
	clock := newFakeClock()
	fsys := &recordingFS{failRenames: 1}

	engine := New(Options{Interval: 3 * time.Second, Clock: clock, FS: fsys})
	res, err := engine.Run(context.Background(), path, tagged(clock, time.Second))
	require.NoError(t, err)

	// The checkpoint after record 3 fails; the final flush writes it again
	assert.Equal(t, 1, res.FailedCheckpoints)
	assert.Equal(t, 1, res.Checkpoints)
	assert.True(t, res.Updated)
	assert.Len(t, readLines(t, path), 3)
}

func TestRun_FinalFlushSkippedWhenLastCheckpointCoversEverything(t *testing.T) {
	path := writeLines(t, `{"id":1}`, `{"id":2}`, `{"id":3}`)
	fsys := &recordingFS{}
	cps := &checkpointLog{}

	res, err := New(Options{Interval: 0, FS: fsys, Observer: cps}).Run(context.Background(), path, identity)
	require.NoError(t, err)

	all := cps.all()
	require.Len(t, all, 3)
	for _, cp := range all {
		assert.False(t, cp.Final)
	}
	assert.Equal(t, 3, fsys.creates, "temp file must not be recreated after the last checkpoint")
	assert.False(t, res.Updated)
	assert.Equal(t, 3, res.Persisted)
}

func TestRun_Interruption(t *testing.T) {
	original := []string{`{"id":1}`, `{"id":2}`, `{"id":3}`, `{"id":4}`, `{"id":5}`, `{"id":6}`}
	path := writeLines(t, original...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count := 0
	res, err := New(Options{Interval: time.Hour}).Run(ctx, path, func(rec jsonl.Record) (jsonl.Record, error) {
		count++
		if count == 3 {
			cancel()
		}
		obj, _ := jsonl.AsObject(rec)
		obj["seen"] = true
		return obj, nil
	})
	require.NoError(t, err)

	assert.True(t, res.Interrupted)
	assert.Equal(t, 3, res.Consumed)
	assert.True(t, res.Updated)

	got := readLines(t, path)
	require.Len(t, got, len(original))
	assert.Equal(t, []string{`{"id":1,"seen":true}`, `{"id":2,"seen":true}`, `{"id":3,"seen":true}`}, got[:3])
	assert.Equal(t, original[3:], got[3:])
}

func TestRun_InterruptedBeforeFirstRecord(t *testing.T) {
	path := writeLines(t, `{"id":1}`)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(Options{}).Run(ctx, path, identity)
	require.NoError(t, err)
	assert.True(t, res.Interrupted)
	assert.False(t, res.Updated)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_MissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.jsonl")
	fsys := &recordingFS{}

	res, err := New(Options{FS: fsys}).Run(context.Background(), path, identity)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, tuerrors.ErrFileNotFound)
	assert.Zero(t, fsys.mutations())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_BlankLinesNeverWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("\n{\"a\":1}\n\n   \n{\"a\":2}\n\n"), 0o644))

	res, err := New(Options{}).Run(context.Background(), path, identity)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalLines)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n", string(data))
}

func TestRun_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	fsys := &recordingFS{}

	res, err := New(Options{FS: fsys}).Run(context.Background(), path, identity)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Zero(t, fsys.creates)
}

func TestRun_CustomTempSuffix(t *testing.T) {
	path := writeLines(t, `{"a":1}`)
	var sawTemp bool
	fsys := &recordingFS{}

	observer := ObserverFunc(func(Checkpoint) {
		_, err := os.Stat(path + ".swap")
		sawTemp = sawTemp || err == nil
	})
	_, err := New(Options{TempSuffix: ".swap", FS: fsys, Observer: observer}).
		Run(context.Background(), path, identity)
	require.NoError(t, err)

	// Renamed away on success, so it never lingers
	assert.False(t, sawTemp)
	assert.Equal(t, 1, fsys.renames)
}

func TestRun_Metrics(t *testing.T) {
	path := writeLines(t, "1", "-2", "oops", "4")
	m := metrics.NewTransform()

	_, err := New(Options{Interval: time.Hour, Metrics: m}).Run(context.Background(), path, dropNegative)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records.WithLabelValues(metrics.OutcomeKept)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues(metrics.OutcomeDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues(metrics.OutcomeParseError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkpoints.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PersistedRecords))
}

func TestNew_Defaults(t *testing.T) {
	e := New(Options{Interval: -time.Second})
	assert.Equal(t, time.Duration(0), e.opts.Interval)
	assert.Equal(t, ".tmp", e.opts.TempSuffix)
	assert.NotNil(t, e.opts.Logger)
	assert.NotNil(t, e.opts.Clock)
	assert.NotNil(t, e.opts.FS)
}
