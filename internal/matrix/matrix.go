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
// Package matrix locates large entries in dense matrices. It works on any
// gonum mat.Matrix and reports coordinates in descending value order.
package matrix

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotMatrix is returned for input that is not a non-empty rectangle.
	ErrNotMatrix = errors.New("input must be a non-empty two-dimensional matrix")

	// ErrNonFinitePercent is returned by MaxP for a NaN or infinite percent.
	ErrNonFinitePercent = errors.New("percent must be finite")
)

// Coord is a (row, column) position in a matrix.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type entry struct {
	Coord
	v float64
}

// entries lists a in row-major order.
func entries(a mat.Matrix) []entry {
	r, c := a.Dims()
	out := make([]entry, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, entry{Coord: Coord{Row: i, Col: j}, v: a.At(i, j)})
		}
	}
	return out
}

// descending orders larger values first and NaN last. Ties keep row-major order.
func descending(x, y entry) int {
	xn, yn := math.IsNaN(x.v), math.IsNaN(y.v)
	switch {
	case xn && yn:
		return 0
	case xn:
		return 1
	case yn:
		return -1
	}
	return cmp.Compare(y.v, x.v)
}

func coords(es []entry) []Coord {
	out := make([]Coord, len(es))
	for i, e := range es {
		out[i] = e.Coord
	}
	return out
}

// TopK returns the coordinates of the k largest entries of a, largest first.
// k <= 0 yields an empty result and k larger than the matrix is clamped.
func TopK(a mat.Matrix, k int) []Coord {
	if k <= 0 {
		return []Coord{}
	}
	es := entries(a)
	k = min(k, len(es))
	slices.SortStableFunc(es, descending)
	return coords(es[:k])
}

// MaxP returns the coordinates of every finite entry strictly greater than
// max(a) * percent, largest first. NaN entries are ignored when computing the
// maximum; a matrix with no non-NaN entry yields an empty result.
func MaxP(a mat.Matrix, percent float64) ([]Coord, error) {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNonFinitePercent, percent)
	}

	es := entries(a)
	maxv, seen := math.Inf(-1), false
	for _, e := range es {
		if math.IsNaN(e.v) {
			continue
		}
		if !seen || e.v > maxv {
			maxv, seen = e.v, true
		}
	}
	if !seen {
		return []Coord{}, nil
	}

	thr := maxv * percent
	hits := es[:0]
	for _, e := range es {
		if !math.IsInf(e.v, 0) && !math.IsNaN(e.v) && e.v > thr {
			hits = append(hits, e)
		}
	}
	slices.SortStableFunc(hits, descending)
	return coords(hits), nil
}

// FromRows builds a dense matrix from row slices. Every row must have the
// same non-zero length.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrNotMatrix
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotMatrix, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// Decode reads a JSON array of numeric rows, e.g. [[1,2],[3,4]].
func Decode(r io.Reader) (*mat.Dense, error) {
	var rows [][]float64
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMatrix, err)
	}
	return FromRows(rows)
}
