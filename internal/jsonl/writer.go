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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// RecordWriter defines the interface for writing records one per line.
// It lets callers swap a file for an in-memory buffer in tests.
type RecordWriter interface {
	// Write writes a single record followed by a newline.
	Write(record any) error

	// Close closes the underlying writer and releases any resources.
	Close() error
}

// Writer handles streaming JSON Lines output to a file or io.Writer.
// It is safe for concurrent use.
type Writer struct {
	mu        sync.Mutex
	output    io.Writer
	encoder   *json.Encoder
	count     int
	closeFunc func() error
}

var _ RecordWriter = (*Writer)(nil)

// NewWriter creates a new JSON Lines writer that writes to the specified output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		output:  w,
		encoder: newEncoder(w),
	}
}

// NewFileWriter creates a new writer that truncates or creates filename.
// The caller must call Close() when done to ensure the file is properly closed.
func NewFileWriter(filename string) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return newFileBacked(file), nil
}

// NewAppendWriter creates a new writer that appends to filename, creating it
// if needed.
func NewAppendWriter(filename string) (*Writer, error) {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return newFileBacked(file), nil
}

func newFileBacked(file *os.File) *Writer {
	return &Writer{
		output:    file,
		encoder:   newEncoder(file),
		closeFunc: file.Close,
	}
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// Write writes a single record as one line.
func (w *Writer) Write(record any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying writer if it's a file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closeFunc != nil {
		err := w.closeFunc()
		w.closeFunc = nil
		return err
	}
	return nil
}
