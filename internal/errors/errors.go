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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrFileNotFound indicates the source file of an operation does not exist.
	// Nothing on disk is modified when this is returned.
	// Maps to exit code 2.
	ErrFileNotFound = errors.New("file not found")

	// ErrRecordParse indicates a line is not a valid JSON object.
	// During a transform run this is recovered locally and the line is dropped.
	ErrRecordParse = errors.New("invalid record")

	// ErrTransform indicates a caller supplied transform failed for a record.
	// During a transform run this is recovered locally and the record is dropped.
	ErrTransform = errors.New("transform failed")

	// ErrCheckpointWrite indicates a write, sync or rename step of a checkpoint failed.
	// The source file keeps its previous content.
	ErrCheckpointWrite = errors.New("checkpoint write failed")

	// ErrInvalidConfig indicates configuration values failed validation.
	// Maps to exit code 2.
	ErrInvalidConfig = errors.New("invalid configuration")
)
