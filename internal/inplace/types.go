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
	"time"

	"github.com/sirseerhq/tutils/internal/atomicfile"
	"github.com/sirseerhq/tutils/internal/jsonl"
)

// DefaultInterval is the usual checkpoint cadence. Configuration applies it;
// New does not, since a zero Interval means "after every record".
const DefaultInterval = 60 * time.Second

// TransformFunc maps one record to its replacement. Returning a nil record
// drops it. A returned error or a panic drops the record and is logged; it
// never stops the run.
type TransformFunc func(rec jsonl.Record) (jsonl.Record, error)

// Clock supplies the wall time used to schedule checkpoints.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FileSystem is everything the engine does to disk.
type FileSystem interface {
	atomicfile.FS
	ReadFile(name string) ([]byte, error)
}

// Checkpoint describes one persistence attempt.
type Checkpoint struct {
	// Seq numbers attempts from 1 within a run.
	Seq int
	// Cursor is the number of raw lines consumed; the file holds the
	// transformed records for lines [0, Cursor) followed by lines [Cursor, Total).
	Cursor int
	// Records is the number of transformed records written ahead of the raw suffix.
	Records int
	// Total is the number of non-blank lines read at start.
	Total int
	// Final is set for the write made while finishing the run.
	Final bool
	// Duration covers write, sync and rename.
	Duration time.Duration
	// Err is non-nil when the attempt failed and the source was left as it was.
	Err error
}

// Observer is notified after every checkpoint attempt.
type Observer interface {
	OnCheckpoint(cp Checkpoint)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(cp Checkpoint)

func (f ObserverFunc) OnCheckpoint(cp Checkpoint) { f(cp) }

// Result summarizes a run. The rewritten file is the real output; Result is
// for reporting.
type Result struct {
	RunID string
	Path  string

	// TotalLines is the number of non-blank lines read at start.
	TotalLines int
	// Consumed is the number of lines reached before the run ended.
	Consumed int
	// Kept counts records the transform returned.
	Kept int
	// Dropped counts records the transform returned nil for.
	Dropped int
	// ParseErrors counts malformed lines.
	ParseErrors int
	// TransformErrors counts records whose transform failed.
	TransformErrors int

	Checkpoints       int
	FailedCheckpoints int

	// Persisted is the cursor of the last successful write.
	Persisted int
	// Interrupted is set when the context was cancelled before every line was reached.
	Interrupted bool
	// Updated is set when the final flush rewrote the file.
	Updated bool

	StartedAt   time.Time
	CompletedAt time.Time
}
