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

package jsonl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	tuerrors "github.com/sirseerhq/tutils/internal/errors"
)

// Load reads every non-blank line of path as a Record.
// A missing file wraps errors.ErrFileNotFound; a malformed line aborts the
// load with an error naming its 1-based line number.
func Load(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", tuerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var records []Record
	reader := bufio.NewReader(file)
	lineNo := 0
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("failed to read %s: %w", path, readErr)
		}
		lineNo++

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			rec, err := ParseLine(trimmed)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			records = append(records, rec)
		}

		if readErr == io.EOF {
			break
		}
	}

	return records, nil
}

// Dump writes records to path, replacing any previous content, and returns
// the number of records written.
func Dump(path string, records []Record) (int, error) {
	w, err := NewFileWriter(path)
	if err != nil {
		return 0, err
	}
	return writeAll(w, records)
}

// Append adds records to the end of path, creating it if needed, and returns
// the number of records written.
func Append(path string, records []Record) (int, error) {
	w, err := NewAppendWriter(path)
	if err != nil {
		return 0, err
	}
	return writeAll(w, records)
}

func writeAll(w *Writer, records []Record) (int, error) {
	for _, record := range records {
		if err := w.Write(record); err != nil {
			_ = w.Close()
			return w.Count(), err
		}
	}
	if err := w.Close(); err != nil {
		return w.Count(), fmt.Errorf("failed to close output file: %w", err)
	}
	return w.Count(), nil
}
