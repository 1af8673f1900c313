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
// Package main implements the tutils command-line interface.
// Its main job is rewriting a JSON Lines file in place, record by record,
// with periodic crash-safe checkpoints so an interrupted run never leaves a
// half-written file behind. A few small data helpers ride along.
//
// The CLI supports:
//   - transform: edit every record of a file in place (set, delete, rename,
//     require, drop-if) with checkpoints every --interval
//   - count, head, append: inspect and extend JSON Lines files
//   - topk, maxp: locate the largest entries of a numeric matrix
//   - base62, randstr: stable short ids and seeded random strings
//   - config show: print the effective configuration
//
// Usage:
//
//	tutils transform <file.jsonl> [flags]
//
// Example:
//
//	tutils transform data.jsonl --require id --set source=import --interval 30s
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: File not found or invalid input/configuration
//   - 130: Interrupted; the file holds every record processed so far
package main
