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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	tuerrors "github.com/sirseerhq/tutils/internal/errors"
)

// Record is one decoded JSON value. Objects decode to map[string]any and
// numbers decode to json.Number.
type Record = any

// ParseLine decodes a single line into a Record. The line must hold exactly
// one JSON value and be valid UTF-8; encoding/json would otherwise replace
// bad bytes with U+FFFD and the line would be rewritten silently. Failures
// wrap errors.ErrRecordParse.
func ParseLine(line string) (Record, error) {
	if !utf8.ValidString(line) {
		return nil, fmt.Errorf("%w: invalid UTF-8", tuerrors.ErrRecordParse)
	}
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", tuerrors.ErrRecordParse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after JSON value", tuerrors.ErrRecordParse)
	}
	return rec, nil
}

// Marshal encodes v as compact JSON without a trailing newline.
// HTML characters and non-ASCII text are written as-is.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// SplitLines splits data on newlines, trims surrounding whitespace from each
// line and discards blank lines. Order is preserved.
func SplitLines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// AsObject returns rec as a JSON object if it is one.
func AsObject(rec Record) (map[string]any, bool) {
	obj, ok := rec.(map[string]any)
	return obj, ok
}
