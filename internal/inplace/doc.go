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

// Package inplace rewrites a JSON Lines file in place through a caller
// supplied transform, checkpointing progress back to the same path.
//
// The whole file is read into memory first. Records are then transformed in
// order and, whenever the checkpoint interval has elapsed, the file is
// atomically replaced with the transformed records produced so far followed
// by the raw lines not yet reached. A crash, kill or cancellation therefore
// leaves the file parseable and holding either its original content or a
// safely advanced mix of transformed prefix and untouched suffix.
//
// Failures inside the loop never abort a run:
//   - a line that is not valid JSON is logged and dropped
//   - a transform error or panic is logged and the record dropped
//   - a failed checkpoint is logged and the source keeps its previous content
//
// Only a missing or unreadable source file is fatal, and in that case
// nothing on disk is touched.
//
// Example usage:
//
//	engine := inplace.New(inplace.Options{Interval: 30 * time.Second, Logger: logger})
//	result, err := engine.Run(ctx, "train.jsonl", func(rec jsonl.Record) (jsonl.Record, error) {
//	    obj, ok := jsonl.AsObject(rec)
//	    if !ok || obj["text"] == "" {
//	        return nil, nil // drop
//	    }
//	    obj["len"] = len(obj["text"].(string))
//	    return obj, nil
//	})
//
// The engine assumes it is the only writer of the path for the duration of a
// run; two concurrent runs against one path would share a temporary file.
package inplace
