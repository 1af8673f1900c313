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
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/tutils/internal/atomicfile"
	"github.com/sirseerhq/tutils/internal/jsonl"
)

// fakeClock only moves when a test advances it
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingFS wraps the real filesystem, counts mutations and can fail
// selected checkpoint attempts (1-based, counted per Create call)
type recordingFS struct {
	atomicfile.OSFS

	mu          sync.Mutex
	creates     int
	renames     int
	removes     int
	failSyncOn  map[int]bool
	failRenames int
}

type syncFailFile struct {
	atomicfile.File
}

func (f syncFailFile) Sync() error { return errors.New("injected sync failure") }

func (f *recordingFS) Create(name string, perm os.FileMode) (atomicfile.File, error) {
	f.mu.Lock()
	f.creates++
	failSync := f.failSyncOn[f.creates]
	f.mu.Unlock()

	file, err := f.OSFS.Create(name, perm)
	if err != nil {
		return nil, err
	}
	if failSync {
		return syncFailFile{File: file}, nil
	}
	return file, nil
}

func (f *recordingFS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	f.renames++
	fail := f.failRenames > 0
	if fail {
		f.failRenames--
	}
	f.mu.Unlock()

	if fail {
		return errors.New("injected rename failure")
	}
	return f.OSFS.Rename(oldpath, newpath)
}

func (f *recordingFS) Remove(name string) error {
	f.mu.Lock()
	f.removes++
	f.mu.Unlock()
	return f.OSFS.Remove(name)
}

func (f *recordingFS) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates + f.renames + f.removes
}

// checkpointLog collects observer notifications
type checkpointLog struct {
	mu  sync.Mutex
	cps []Checkpoint
}

func (l *checkpointLog) OnCheckpoint(cp Checkpoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cps = append(l.cps, cp)
}

func (l *checkpointLog) all() []Checkpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Checkpoint(nil), l.cps...)
}

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return jsonl.SplitLines(data)
}

func identity(rec jsonl.Record) (jsonl.Record, error) { return rec, nil }

// dropNegative drops numeric records below zero and keeps everything else
func dropNegative(rec jsonl.Record) (jsonl.Record, error) {
	if n, ok := rec.(json.Number); ok {
		v, err := n.Int64()
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, nil
		}
	}
	return rec, nil
}

// tagged returns a transform that sets "seen" on objects and advances clock per record
func tagged(clock *fakeClock, step time.Duration) TransformFunc {
	return func(rec jsonl.Record) (jsonl.Record, error) {
		if clock != nil {
			clock.Advance(step)
		}
		obj, ok := jsonl.AsObject(rec)
		if !ok {
			return rec, nil
		}
		obj["seen"] = true
		return obj, nil
	}
}
