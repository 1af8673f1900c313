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
// Package randutil holds small helpers for reproducible randomness and short
// stable identifiers. There is no package-level seeded state; callers own
// their generators.
package randutil

import (
	"crypto/sha256"
	"math/big"
	"math/rand/v2"
	"strings"
)

const (
	// Alphanumeric is the alphabet used by String.
	Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Base62Alphabet is the digit order used by Base62.
	Base62Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultBase62Length is the length used by the CLI when none is given.
	DefaultBase62Length = 8
)

// New returns a deterministic generator for seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// String returns n characters drawn uniformly from Alphanumeric.
func String(r *rand.Rand, n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(Alphanumeric[r.IntN(len(Alphanumeric))])
	}
	return b.String()
}

// Base62 maps s to a fixed-length identifier. The SHA-256 digest of s is read
// as a big-endian integer and its base-62 digits are emitted least
// significant first. The same input always yields the same output.
func Base62(s string, length int) string {
	if length <= 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	num := new(big.Int).SetBytes(sum[:])
	base := big.NewInt(int64(len(Base62Alphabet)))
	rem := new(big.Int)

	out := make([]byte, length)
	for i := range out {
		num.DivMod(num, base, rem)
		out[i] = Base62Alphabet[rem.Int64()]
	}
	return string(out)
}
