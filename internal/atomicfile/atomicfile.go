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

package atomicfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultSuffix is appended to the destination path to name the temporary file.
const DefaultSuffix = ".tmp"

// defaultPerm is used when the destination does not exist yet.
const defaultPerm os.FileMode = 0o644

// Options tunes WriteFileWith. The zero value is valid.
type Options struct {
	// Suffix names the temporary file as path+Suffix. Empty means DefaultSuffix.
	Suffix string

	// Perm is the mode of a newly created file. Zero keeps the mode of an
	// existing destination, or 0644 when there is none.
	Perm os.FileMode

	// FS performs the file operations. Nil means OSFS.
	FS FS
}

// TempPath returns the scratch path used for writing path.
func TempPath(path, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return path + suffix
}

// WriteFile atomically replaces path with the bytes produced by write,
// using DefaultSuffix for the temporary file.
func WriteFile(path string, write func(w io.Writer) error) error {
	return WriteFileWith(path, Options{}, write)
}

// WriteFileWith atomically replaces path with the bytes produced by write.
// The content is flushed and synced to stable storage before the rename.
// On any failure the temporary file is removed and path is left untouched.
func WriteFileWith(path string, opts Options, write func(w io.Writer) error) error {
	fsys := opts.FS
	if fsys == nil {
		fsys = OSFS{}
	}
	tempFile := TempPath(path, opts.Suffix)

	perm := opts.Perm
	if perm == 0 {
		perm = defaultPerm
		if info, err := fsys.Stat(path); err == nil {
			perm = info.Mode().Perm()
		}
	}

	file, err := fsys.Create(tempFile, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	bw := bufio.NewWriterSize(file, 64*1024)
	if err := write(bw); err != nil {
		_ = file.Close()
		_ = fsys.Remove(tempFile)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = file.Close()
		_ = fsys.Remove(tempFile)
		return fmt.Errorf("failed to flush temp file: %w", err)
	}

	// Sync to ensure data is flushed to disk
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = fsys.Remove(tempFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = fsys.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := fsys.Rename(tempFile, path); err != nil {
		_ = fsys.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Persisting the directory entry is best effort; not every platform
	// supports syncing a directory handle.
	if _, ok := fsys.(OSFS); ok {
		_ = syncDir(filepath.Dir(path))
	}

	return nil
}

// Remove deletes path. A missing file is not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
