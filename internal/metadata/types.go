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
// Package metadata types define the structures used for tracking and
// persisting information about transform runs. A saved record lets an
// operator see what happened to a file, including an interrupted run.
package metadata

import (
	"time"
)

// RunMetadata represents the complete metadata record for a single transform
// run: what was run, against which file, and what came out of it.
type RunMetadata struct {
	ToolVersion   string             `json:"tool_version"`
	FormatVersion string             `json:"format_version"`
	RunID         string             `json:"run_id"`
	Parameters    RunParams          `json:"parameters"`
	Results       RunResults         `json:"results"`
	Checkpoints   []CheckpointRecord `json:"checkpoints"`
	PreviousRun   *RunRef            `json:"previous_run,omitempty"`
}

// RunParams captures the inputs of a run.
type RunParams struct {
	Path       string   `json:"path"`
	Interval   string   `json:"checkpoint_interval"`
	TempSuffix string   `json:"temp_suffix"`
	Steps      []string `json:"steps,omitempty"`
}

// RunResults contains the counters of a completed run.
type RunResults struct {
	TotalLines        int       `json:"total_lines"`
	Consumed          int       `json:"consumed"`
	Kept              int       `json:"kept"`
	Dropped           int       `json:"dropped"`
	ParseErrors       int       `json:"parse_errors"`
	TransformErrors   int       `json:"transform_errors"`
	Checkpoints       int       `json:"checkpoints"`
	FailedCheckpoints int       `json:"failed_checkpoints"`
	Persisted         int       `json:"persisted"`
	Interrupted       bool      `json:"interrupted"`
	Updated           bool      `json:"updated"`
	Duration          string    `json:"run_duration"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
}

// CheckpointRecord is one persistence attempt as observed during the run.
type CheckpointRecord struct {
	Seq      int    `json:"seq"`
	Cursor   int    `json:"cursor"`
	Records  int    `json:"records"`
	Total    int    `json:"total"`
	Final    bool   `json:"final"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// RunRef links a run to the previous run on the same file.
type RunRef struct {
	RunID       string    `json:"run_id"`
	CompletedAt time.Time `json:"completed_at"`
	Interrupted bool      `json:"interrupted"`
}
