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
// Package memory reports the tensor memory held by a model, broken down by
// device. Only tensor payload bytes are counted; allocator overhead and
// optimizer state are not.
package memory

import (
	"fmt"
	"io"
)

var units = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with a binary unit and two decimals, e.g. "1.50 KB".
// Values beyond the TB range stay in TB.
func FormatBytes(n float64) string {
	for i, unit := range units {
		if n < 1024 || i == len(units)-1 {
			return fmt.Sprintf("%.2f %s", n, unit)
		}
		n /= 1024
	}
	return ""
}

// Tensor is the view of a tensor the report needs.
type Tensor interface {
	Device() string
	NumElements() int64
	ElementSize() int64
	RequiresGrad() bool
	// GradBytes is the size of the accumulated gradient, or 0 if there is none.
	GradBytes() int64
}

// Model exposes parameters and non-trainable buffers.
type Model interface {
	Parameters() []Tensor
	Buffers() []Tensor
}

// Options selects what the report counts.
type Options struct {
	IncludeBuffers bool
	IncludeGrads   bool
	ByDevice       bool
}

// DefaultOptions matches the usual report: buffers on, grads off, per device.
func DefaultOptions() Options {
	return Options{IncludeBuffers: true, ByDevice: true}
}

// Usage is a byte breakdown for one device or for all of them.
type Usage struct {
	Device  string `json:"device,omitempty"`
	Params  int64  `json:"params"`
	Grads   int64  `json:"grads"`
	Buffers int64  `json:"buffers"`
}

// Sum is params + grads + buffers.
func (u Usage) Sum() int64 { return u.Params + u.Grads + u.Buffers }

// Report is the result of Calculate.
type Report struct {
	Name      string  `json:"name,omitempty"`
	Trainable int64   `json:"trainable_params"`
	Frozen    int64   `json:"frozen_params"`
	Devices   []Usage `json:"devices"`
	Total     Usage   `json:"total"`

	opts Options
}

func bytesOf(t Tensor) int64 { return t.NumElements() * t.ElementSize() }

// Calculate walks m and totals its tensor memory. Devices are listed in the
// order they are first seen.
func Calculate(name string, m Model, opts Options) *Report {
	r := &Report{Name: name, opts: opts}
	index := map[string]int{}
	dev := func(name string) *Usage {
		i, ok := index[name]
		if !ok {
			i = len(r.Devices)
			index[name] = i
			r.Devices = append(r.Devices, Usage{Device: name})
		}
		return &r.Devices[i]
	}

	for _, p := range m.Parameters() {
		u := dev(p.Device())
		u.Params += bytesOf(p)
		if p.RequiresGrad() {
			r.Trainable += p.NumElements()
			if opts.IncludeGrads {
				u.Grads += p.GradBytes()
			}
		} else {
			r.Frozen += p.NumElements()
		}
	}
	if opts.IncludeBuffers {
		for _, b := range m.Buffers() {
			dev(b.Device()).Buffers += bytesOf(b)
		}
	}

	for _, u := range r.Devices {
		r.Total.Params += u.Params
		r.Total.Grads += u.Grads
		r.Total.Buffers += u.Buffers
	}
	return r
}

// GrandTotal is the byte total across all devices.
func (r *Report) GrandTotal() int64 { return r.Total.Sum() }

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) error {
	ew := &errWriter{w: w}
	if r.Name != "" {
		ew.printf("Model: %s\n", r.Name)
	}
	ew.printf("=== Model Memory Report (tensors only) ===\n")
	ew.printf("Trainable params: %s | Frozen params: %s\n", groupDigits(r.Trainable), groupDigits(r.Frozen))
	ew.printf("--------------------by device-------------------------\n")
	if r.opts.ByDevice {
		for _, u := range r.Devices {
			ew.printf("- Device: %8s | total=%s (params=%s, grads=%s, buffers=%s)\n",
				u.Device, fb(u.Sum()), fb(u.Params), fb(u.Grads), fb(u.Buffers))
		}
	}
	ew.printf("--------------------total-------------------------\n")
	ew.printf("Grand total (all devices): %s [params=%s", fb(r.GrandTotal()), fb(r.Total.Params))
	if r.opts.IncludeGrads {
		ew.printf(", grads=%s", fb(r.Total.Grads))
	}
	if r.opts.IncludeBuffers {
		ew.printf(", buffers=%s", fb(r.Total.Buffers))
	}
	ew.printf("]\n")
	ew.printf("------------------------------------------------\n")
	return ew.err
}

func fb(n int64) string { return FormatBytes(float64(n)) }

// groupDigits renders n with comma thousands separators.
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if n < 0 {
		neg, s = true, s[1:]
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
