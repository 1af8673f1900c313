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
package integration

import (
	"path/filepath"
	"testing"

	"github.com/sirseerhq/tutils/internal/metadata"
	"github.com/sirseerhq/tutils/test/testutil"
)

func TestMetadata_SavedAndLinked(t *testing.T) {
	home := t.TempDir()
	data := testutil.WriteLines(t, home, "data.jsonl", testutil.GenerateLines(1, 10)...)
	stateDir := filepath.Join(home, ".tutils", "runs")

	result := testutil.RunCLI(t, home, []string{"transform", data, "--drop-if", "id=3"}, nil)
	testutil.AssertCLISuccess(t, result)
	testutil.AssertDirExists(t, stateDir)

	first, err := metadata.LoadLatestMetadata(stateDir, data)
	if err != nil || first == nil {
		t.Fatalf("LoadLatestMetadata() = %v, %v", first, err)
	}
	if first.FormatVersion != metadata.FormatVersion {
		t.Errorf("FormatVersion = %s, want %s", first.FormatVersion, metadata.FormatVersion)
	}
	if first.RunID == "" {
		t.Error("Missing run ID")
	}
	if first.Results.Kept != 9 || first.Results.Dropped != 1 {
		t.Errorf("Kept/Dropped = %d/%d, want 9/1", first.Results.Kept, first.Results.Dropped)
	}
	if first.Results.Duration == "" {
		t.Error("Missing duration in metadata")
	}
	if len(first.Checkpoints) == 0 || !first.Checkpoints[len(first.Checkpoints)-1].Final {
		t.Errorf("Checkpoints = %+v, want a final checkpoint", first.Checkpoints)
	}
	if first.PreviousRun != nil {
		t.Error("Expected no previous run reference")
	}

	result = testutil.RunCLI(t, home, []string{"transform", data}, nil)
	testutil.AssertCLISuccess(t, result)

	second, err := metadata.LoadLatestMetadata(stateDir, data)
	if err != nil || second == nil {
		t.Fatalf("LoadLatestMetadata() = %v, %v", second, err)
	}
	if second.PreviousRun == nil || second.PreviousRun.RunID != first.RunID {
		t.Errorf("PreviousRun = %+v, want link to %s", second.PreviousRun, first.RunID)
	}
}

func TestMetadata_Disabled(t *testing.T) {
	home := t.TempDir()
	data := testutil.WriteLines(t, home, "data.jsonl", testutil.GenerateLines(1, 2)...)

	result := testutil.RunCLI(t, home, []string{"transform", data}, map[string]string{
		"TUTILS_STATE__ENABLED": "false",
	})
	testutil.AssertCLISuccess(t, result)
	testutil.AssertFileNotExists(t, filepath.Join(home, ".tutils", "runs"))
}
