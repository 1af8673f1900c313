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
	"io"
	"os"
)

// File is the writable handle returned by FS.Create.
type File interface {
	io.Writer
	Sync() error
	Close() error
}

// FS is the filesystem surface WriteFileWith needs. OSFS is the production
// implementation; tests substitute fakes to inject failures at each step.
type FS interface {
	Create(name string, perm os.FileMode) (File, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
	Stat(name string) (os.FileInfo, error)
}

// OSFS implements FS on top of package os.
type OSFS struct{}

var _ FS = OSFS{}

// Create opens name for writing, truncating it if it exists.
func (OSFS) Create(name string, perm os.FileMode) (File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}

func (OSFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (OSFS) Remove(name string) error { return os.Remove(name) }

func (OSFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// ReadFile reads the whole of name. It lets OSFS back readers as well as writers.
func (OSFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }
