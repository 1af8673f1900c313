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
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tuerrors "github.com/sirseerhq/tutils/internal/errors"
	"github.com/sirseerhq/tutils/internal/matrix"
	"github.com/sirseerhq/tutils/internal/steps"
)

var version = "dev"

// errInterrupted reports that a run stopped early on a signal. The work done
// up to that point has been saved.
var errInterrupted = errors.New("interrupted")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp(os.Stdout, os.Stderr)
	err := newRootCommand(a).ExecuteContext(ctx)
	stop()

	if err != nil {
		if errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, "Interrupted: progress saved")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(mapErrorToExitCode(err))
	}
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, errInterrupted) || errors.Is(err, context.Canceled) {
		return 130
	}

	if errors.Is(err, tuerrors.ErrFileNotFound) ||
		errors.Is(err, tuerrors.ErrInvalidConfig) ||
		errors.Is(err, tuerrors.ErrRecordParse) ||
		errors.Is(err, steps.ErrBadAssignment) ||
		errors.Is(err, matrix.ErrNotMatrix) ||
		errors.Is(err, matrix.ErrNonFinitePercent) {
		return 2 // Missing file or invalid input
	}

	return 1 // General error
}
