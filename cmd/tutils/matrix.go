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
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/sirseerhq/tutils/internal/jsonl"
	"github.com/sirseerhq/tutils/internal/matrix"
)

// loadMatrix reads a JSON matrix from path, or from stdin when path is "-".
func loadMatrix(cmd *cobra.Command, path string) (*mat.Dense, error) {
	if path == "-" {
		return matrix.Decode(cmd.InOrStdin())
	}
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return matrix.Decode(bytes.NewReader(data))
}

func writeCoords(w io.Writer, coords []matrix.Coord) error {
	out := jsonl.NewWriter(w)
	for _, c := range coords {
		if err := out.Write(c); err != nil {
			return fmt.Errorf("failed to write coordinate: %w", err)
		}
	}
	return out.Close()
}

func newTopKCommand(a *app) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "topk <matrix.json|->",
		Short: "Print the coordinates of the k largest matrix entries",
		Long: `Print the coordinates of the k largest entries of a matrix given as a
JSON array of rows, largest first, one {"row":i,"col":j} per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMatrix(cmd, args[0])
			if err != nil {
				return err
			}
			return writeCoords(a.stdout, matrix.TopK(m, k))
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of entries")
	return cmd
}

func newMaxPCommand(a *app) *cobra.Command {
	var percent float64

	cmd := &cobra.Command{
		Use:   "maxp <matrix.json|->",
		Short: "Print the coordinates of entries above a fraction of the maximum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMatrix(cmd, args[0])
			if err != nil {
				return err
			}
			coords, err := matrix.MaxP(m, percent)
			if err != nil {
				return err
			}
			return writeCoords(a.stdout, coords)
		},
	}
	cmd.Flags().Float64VarP(&percent, "percent", "p", 0.9, "Fraction of the maximum an entry must exceed")
	return cmd
}
