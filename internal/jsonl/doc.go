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

// Package jsonl provides utilities for reading and writing JSON Lines files.
// JSON Lines (also called NDJSON) stores one JSON value per line, which makes
// it convenient for datasets that are appended to, streamed, or rewritten one
// record at a time.
//
// The codec is deliberately closed: values handed to Marshal or Writer must
// already be plain JSON values (maps, slices, strings, numbers, booleans,
// nil, or types implementing json.Marshaler). Numbers are decoded as
// json.Number so that a record read and written back unchanged keeps its
// exact numeric text.
//
// Example usage:
//
//	records, err := jsonl.Load("train.jsonl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	w, err := jsonl.NewFileWriter("filtered.jsonl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	for _, record := range records {
//	    if err := w.Write(record); err != nil {
//	        log.Printf("Failed to write record: %v", err)
//	    }
//	}
package jsonl
