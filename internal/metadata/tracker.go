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
// Package metadata provides tracking and persistence of transform run
// metadata. The Tracker observes checkpoints while the engine runs and is
// combined with the engine's Result into a RunMetadata record afterwards.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sirseerhq/tutils/internal/atomicfile"
	"github.com/sirseerhq/tutils/internal/inplace"
)

const (
	// FormatVersion identifies the layout of saved metadata files.
	FormatVersion = "tutils-run-v1"

	filePrefix = "run-"
)

// Tracker collects checkpoint attempts during a run. It implements
// inplace.Observer and is safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	checkpoints []CheckpointRecord
	failures    int
}

var _ inplace.Observer = (*Tracker)(nil)

// New creates a new metadata tracker.
func New() *Tracker {
	return &Tracker{}
}

// OnCheckpoint records one persistence attempt.
func (t *Tracker) OnCheckpoint(cp inplace.Checkpoint) {
	rec := CheckpointRecord{
		Seq:      cp.Seq,
		Cursor:   cp.Cursor,
		Records:  cp.Records,
		Total:    cp.Total,
		Final:    cp.Final,
		Duration: cp.Duration.String(),
	}
	if cp.Err != nil {
		rec.Error = cp.Err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkpoints = append(t.checkpoints, rec)
	if cp.Err != nil {
		t.failures++
	}
}

// Checkpoints returns a copy of the attempts seen so far.
func (t *Tracker) Checkpoints() []CheckpointRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CheckpointRecord, len(t.checkpoints))
	copy(out, t.checkpoints)
	return out
}

// Failures returns the number of failed attempts seen so far.
func (t *Tracker) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}

// GenerateMetadata creates the complete metadata record for a finished run.
// previous may be nil.
func (t *Tracker) GenerateMetadata(toolVersion string, params RunParams, res *inplace.Result, previous *RunRef) *RunMetadata {
	runID := res.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &RunMetadata{
		ToolVersion:   toolVersion,
		FormatVersion: FormatVersion,
		RunID:         runID,
		Parameters:    params,
		Results: RunResults{
			TotalLines:        res.TotalLines,
			Consumed:          res.Consumed,
			Kept:              res.Kept,
			Dropped:           res.Dropped,
			ParseErrors:       res.ParseErrors,
			TransformErrors:   res.TransformErrors,
			Checkpoints:       res.Checkpoints,
			FailedCheckpoints: res.FailedCheckpoints,
			Persisted:         res.Persisted,
			Interrupted:       res.Interrupted,
			Updated:           res.Updated,
			Duration:          res.CompletedAt.Sub(res.StartedAt).String(),
			StartedAt:         res.StartedAt,
			CompletedAt:       res.CompletedAt,
		},
		Checkpoints: t.Checkpoints(),
		PreviousRun: previous,
	}
}

// Ref returns a lightweight reference to md for linking the next run.
func (md *RunMetadata) Ref() *RunRef {
	return &RunRef{
		RunID:       md.RunID,
		CompletedAt: md.Results.CompletedAt,
		Interrupted: md.Results.Interrupted,
	}
}

// SaveMetadata writes metadata to stateDir atomically and returns the path
// of the written file. Files are named by start time and run id so runs on
// different files never collide.
func SaveMetadata(metadata *RunMetadata, stateDir string) (string, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	filename := fmt.Sprintf("%s%d-%s.json", filePrefix, metadata.Results.StartedAt.UnixNano(), shortID(metadata.RunID))
	path := filepath.Join(stateDir, filename)

	err := atomicfile.WriteFile(path, func(w io.Writer) error {
		return WriteMetadataToWriter(metadata, w)
	})
	if err != nil {
		return "", fmt.Errorf("failed to save metadata file: %w", err)
	}
	return path, nil
}

// LoadLatestMetadata returns the most recent saved run for sourcePath, or
// nil when there is none. Unreadable files are skipped.
func LoadLatestMetadata(stateDir, sourcePath string) (*RunMetadata, error) {
	pattern := filepath.Join(stateDir, filePrefix+"*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}

	type candidate struct {
		path string
		md   *RunMetadata
	}
	var matches []candidate
	for _, file := range files {
		md, readErr := readMetadata(file)
		if readErr != nil || md.Parameters.Path != sourcePath {
			continue
		}
		matches = append(matches, candidate{path: file, md: md})
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].md.Results.StartedAt.After(matches[j].md.Results.StartedAt)
	})
	return matches[0].md, nil
}

func readMetadata(path string) (*RunMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var metadata RunMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &metadata, nil
}

// WriteMetadataToWriter writes metadata as indented JSON to any io.Writer.
func WriteMetadataToWriter(metadata *RunMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
