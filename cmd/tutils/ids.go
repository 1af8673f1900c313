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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/tutils/internal/randutil"
)

func newBase62Command(a *app) *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "base62 <string>...",
		Short: "Print a stable base-62 id for each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range args {
				fmt.Fprintln(a.stdout, randutil.Base62(s, length))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "length", randutil.DefaultBase62Length, "Id length")
	return cmd
}

func newRandStrCommand(a *app) *cobra.Command {
	var (
		length int
		count  int
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "randstr",
		Short: "Print random alphanumeric strings",
		Long: `Print random alphanumeric strings. With --seed the output is
reproducible; without it a time-based seed is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			r := randutil.New(seed)
			for range count {
				fmt.Fprintln(a.stdout, randutil.String(r, length))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "length", 5, "String length")
	cmd.Flags().IntVarP(&count, "count", "c", 1, "Number of strings")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible output")
	return cmd
}
