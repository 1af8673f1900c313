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
// Package timing provides a manual segment timer. Callers mark the start and
// end of each segment explicitly; names are labels only, so reusing a name
// records a new independent segment rather than accumulating.
package timing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("a segment is already running")
	ErrNotRunning     = errors.New("no segment is running")
	ErrEmptyName      = errors.New("segment name must not be empty")
	ErrNameMismatch   = errors.New("segment name mismatch")
)

// Segment is one completed start/end pair.
type Segment struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Options configures a Timer.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Sync, when set, runs at every start and end mark, e.g. to wait for
	// asynchronous device work to finish before reading the clock.
	Sync func()
}

// Timer records named segments. It is not safe for concurrent use.
type Timer struct {
	opts Options

	running bool
	name    string
	t0      time.Time
	total   time.Duration
	records []Segment
}

// New creates a Timer.
func New(opts Options) *Timer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Timer{opts: opts}
}

func (t *Timer) sync() {
	if t.opts.Sync != nil {
		t.opts.Sync()
	}
}

// Start begins a segment called name.
func (t *Timer) Start(name string) error {
	if t.running {
		return fmt.Errorf("%w: %q, call End first", ErrAlreadyRunning, t.name)
	}
	if name == "" {
		return ErrEmptyName
	}
	t.sync()
	t.name = name
	t.t0 = t.opts.Now()
	t.running = true
	return nil
}

// End closes the running segment and returns its duration. A non-empty name
// must match the one given to Start.
func (t *Timer) End(name string) (time.Duration, error) {
	if !t.running {
		return 0, ErrNotRunning
	}
	if name != "" && name != t.name {
		return 0, fmt.Errorf("%w: started %q, ended %q", ErrNameMismatch, t.name, name)
	}
	t.sync()
	span := t.opts.Now().Sub(t.t0)

	t.total += span
	t.records = append(t.records, Segment{Name: t.name, Duration: span})

	t.running = false
	t.name = ""
	t.t0 = time.Time{}
	return span, nil
}

// Reset stops any running segment and zeroes the total. Records are kept
// unless clearRecords is set.
func (t *Timer) Reset(clearRecords bool) {
	t.running = false
	t.name = ""
	t.t0 = time.Time{}
	t.total = 0
	if clearRecords {
		t.records = nil
	}
}

func (t *Timer) Running() bool { return t.running }

// CurrentName is the running segment's name, or "".
func (t *Timer) CurrentName() string { return t.name }

// Total sums completed segments; a running segment is not included.
func (t *Timer) Total() time.Duration { return t.total }

// Records returns completed segments in order.
func (t *Timer) Records() []Segment {
	out := make([]Segment, len(t.records))
	copy(out, t.records)
	return out
}

// Report renders the total, each segment, and the running segment if any.
func (t *Timer) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total: %s", FormatDuration(t.total))
	if len(t.records) > 0 {
		b.WriteString("\nSegments:")
		for i, r := range t.records {
			fmt.Fprintf(&b, "\n  #%02d %s: %s", i+1, r.Name, FormatDuration(r.Duration))
		}
	}
	if t.running && t.name != "" {
		fmt.Fprintf(&b, "\n* still running: %s", t.name)
	}
	return b.String()
}

// FormatDuration picks ns, µs, ms or s so the figure stays readable.
func FormatDuration(d time.Duration) string {
	sec := d.Seconds()
	switch {
	case sec < 1e-6:
		return fmt.Sprintf("%.1f ns", sec*1e9)
	case sec < 1e-3:
		return fmt.Sprintf("%.1f µs", sec*1e6)
	case sec < 1:
		return fmt.Sprintf("%.2f ms", sec*1e3)
	default:
		return fmt.Sprintf("%.3f s", sec)
	}
}
