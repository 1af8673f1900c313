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

// Package atomicfile writes files with a write-to-temp-and-rename pattern.
//
// A reader that opens the destination path at any instant sees either the
// complete previous content or the complete new content, never a mix. The
// temporary file lives next to the destination (destination path plus a
// fixed suffix) so the final rename never crosses a filesystem boundary.
//
// Example usage:
//
//	err := atomicfile.WriteFile("data.jsonl", func(w io.Writer) error {
//	    _, err := io.WriteString(w, "{\"id\":1}\n")
//	    return err
//	})
package atomicfile
