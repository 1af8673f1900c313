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
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// AssertJSONLines validates that every non-blank line of filePath is a JSON
// value and that there are expectedCount of them. Objects are returned in
// order; non-object values are returned as nil entries.
func AssertJSONLines(t *testing.T, filePath string, expectedCount int) []map[string]interface{} {
	t.Helper()

	file, err := os.Open(filePath)
	if err != nil {
		t.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	var records []map[string]interface{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			t.Errorf("Line %d: unexpected blank line", lineNo)
			continue
		}

		var v interface{}
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Errorf("Line %d: invalid JSON: %v", lineNo, err)
			continue
		}
		obj, _ := v.(map[string]interface{})
		records = append(records, obj)
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading file: %v", err)
	}

	if len(records) != expectedCount {
		t.Errorf("Expected %d records, got %d", expectedCount, len(records))
	}
	return records
}

// AssertRequiredFields checks that every record carries the given fields
func AssertRequiredFields(t *testing.T, records []map[string]interface{}, fields ...string) {
	t.Helper()

	for i, rec := range records {
		for _, field := range fields {
			if _, ok := rec[field]; !ok {
				t.Errorf("Record %d: missing required field '%s'", i+1, field)
			}
		}
	}
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}

// AssertNotContainsString checks if a string does not contain a substring
func AssertNotContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Errorf("Expected string to NOT contain %q, got: %s", needle, haystack)
	}
}

// AssertDirExists checks that a directory exists
func AssertDirExists(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Expected directory to exist: %s", path)
		}
		t.Fatalf("Failed to stat directory: %v", err)
	}

	if !info.IsDir() {
		t.Fatalf("Expected %s to be a directory", path)
	}
}

// AssertFilePermissions checks file has expected permissions
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}

	if mode := info.Mode().Perm(); mode != expectedMode {
		t.Errorf("Expected file mode %v, got %v", expectedMode, mode)
	}
}
