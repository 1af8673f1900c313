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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	tuerrors "github.com/sirseerhq/tutils/internal/errors"
	"github.com/sirseerhq/tutils/internal/jsonl"
	"github.com/sirseerhq/tutils/internal/memory"
)

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", tuerrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func newCountCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count <file.jsonl>",
		Short: "Count records and invalid lines in a JSON Lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(args[0])
			if err != nil {
				return err
			}

			lines := jsonl.SplitLines(data)
			invalid := 0
			for _, line := range lines {
				if _, err := jsonl.ParseLine(line); err != nil {
					invalid++
				}
			}
			fmt.Fprintf(a.stdout, "records: %d\ninvalid: %d\nsize: %s\n",
				len(lines)-invalid, invalid, memory.FormatBytes(float64(len(data))))
			return nil
		},
	}
}

func newHeadCommand(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "head <file.jsonl>",
		Short: "Print the first records of a JSON Lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(args[0])
			if err != nil {
				return err
			}
			lines := jsonl.SplitLines(data)
			if n >= 0 && n < len(lines) {
				lines = lines[:n]
			}
			for _, line := range lines {
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "lines", "n", 10, "Number of records to print (negative prints all)")
	return cmd
}

func newAppendCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "append <file.jsonl> <json>...",
		Short: "Append JSON values to a JSON Lines file",
		Long: `Append one record per argument to a JSON Lines file, creating it if
needed. Every argument is validated before anything is written.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records := make([]jsonl.Record, 0, len(args)-1)
			for i, arg := range args[1:] {
				rec, err := jsonl.ParseLine(arg)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				records = append(records, rec)
			}

			n, err := jsonl.Append(args[0], records)
			if err != nil {
				return err
			}
			a.log.Info("appended records", slog.String("path", args[0]), slog.Int("count", n))
			return nil
		},
	}
}

func newCompactCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compact <in.jsonl> <out.jsonl>",
		Short: "Re-encode a JSON Lines file compactly",
		Long: `Re-encode every record of in.jsonl compactly into out.jsonl, dropping
blank lines. Unlike transform this is strict: the first malformed line
aborts the command and out.jsonl is not written.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := jsonl.Load(args[0])
			if err != nil {
				return err
			}
			n, err := jsonl.Dump(args[1], records)
			if err != nil {
				return err
			}
			a.log.Info("compacted records", slog.String("from", args[0]), slog.String("to", args[1]), slog.Int("count", n))
			return nil
		},
	}
}
