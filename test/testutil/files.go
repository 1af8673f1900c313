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
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CreateTempFile creates a temporary file with the given content
func CreateTempFile(t *testing.T, dir, pattern, content string) string {
	t.Helper()

	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		t.Fatalf("Failed to write to temp file: %v", err)
	}

	if err := file.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	t.Cleanup(func() {
		os.Remove(file.Name())
	})

	return file.Name()
}

// WriteLines writes each line followed by a newline to dir/name and returns
// the path. Empty strings become blank lines.
func WriteLines(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// ReadLines returns the newline-separated lines of path without the
// trailing empty element.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// WriteJSON writes a struct as JSON to a file
func WriteJSON(t *testing.T, path string, data interface{}) {
	t.Helper()

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to write JSON file: %v", err)
	}
}

// ReadJSON reads JSON from a file into a struct
func ReadJSON(t *testing.T, path string, v interface{}) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}

// AssertFileExists checks that a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks that a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks that a file holds exactly the expected content
func AssertFileContains(t *testing.T, path, expected string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	if string(content) != expected {
		t.Errorf("File content mismatch\nGot:\n%s\nWant:\n%s", content, expected)
	}
}

// CreateStateDir creates the run metadata directory layout under baseDir
func CreateStateDir(t *testing.T, baseDir string) string {
	t.Helper()

	stateDir := filepath.Join(baseDir, ".tutils", "runs")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatalf("Failed to create state dir: %v", err)
	}

	return stateDir
}
