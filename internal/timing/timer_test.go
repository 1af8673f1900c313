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
package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTimer() (*Timer, *stepClock) {
	clock := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(Options{Now: clock.Now}), clock
}

func TestTimer_Segments(t *testing.T) {
	timer, clock := newTestTimer()

	require.NoError(t, timer.Start("load"))
	assert.True(t, timer.Running())
	assert.Equal(t, "load", timer.CurrentName())
	clock.advance(120 * time.Millisecond)
	d, err := timer.End("load")
	require.NoError(t, err)
	assert.Equal(t, 120*time.Millisecond, d)

	require.NoError(t, timer.Start("train"))
	clock.advance(2 * time.Second)
	_, err = timer.End("")
	require.NoError(t, err)

	// Same name again is a separate segment.
	require.NoError(t, timer.Start("load"))
	clock.advance(110 * time.Millisecond)
	_, err = timer.End("load")
	require.NoError(t, err)

	assert.False(t, timer.Running())
	assert.Equal(t, "", timer.CurrentName())
	assert.Equal(t, 2230*time.Millisecond, timer.Total())
	assert.Equal(t, []Segment{
		{"load", 120 * time.Millisecond},
		{"train", 2 * time.Second},
		{"load", 110 * time.Millisecond},
	}, timer.Records())
}

func TestTimer_Errors(t *testing.T) {
	timer, _ := newTestTimer()

	_, err := timer.End("")
	assert.ErrorIs(t, err, ErrNotRunning)

	assert.ErrorIs(t, timer.Start(""), ErrEmptyName)

	require.NoError(t, timer.Start("a"))
	assert.ErrorIs(t, timer.Start("b"), ErrAlreadyRunning)

	_, err = timer.End("b")
	assert.ErrorIs(t, err, ErrNameMismatch)
	assert.True(t, timer.Running(), "a mismatched End leaves the segment running")
}

func TestTimer_Reset(t *testing.T) {
	timer, clock := newTestTimer()
	require.NoError(t, timer.Start("a"))
	clock.advance(time.Second)
	_, err := timer.End("a")
	require.NoError(t, err)
	require.NoError(t, timer.Start("b"))

	timer.Reset(false)
	assert.False(t, timer.Running())
	assert.Zero(t, timer.Total())
	assert.Len(t, timer.Records(), 1)

	timer.Reset(true)
	assert.Empty(t, timer.Records())
}

func TestTimer_Sync(t *testing.T) {
	calls := 0
	timer := New(Options{Sync: func() { calls++ }})
	require.NoError(t, timer.Start("x"))
	_, err := timer.End("x")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTimer_Report(t *testing.T) {
	timer, clock := newTestTimer()
	assert.Equal(t, "Total: 0.0 ns", timer.Report())

	require.NoError(t, timer.Start("load"))
	clock.advance(1500 * time.Millisecond)
	_, err := timer.End("load")
	require.NoError(t, err)
	require.NoError(t, timer.Start("eval"))

	want := "Total: 1.500 s\nSegments:\n  #01 load: 1.500 s\n* still running: eval"
	assert.Equal(t, want, timer.Report())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Nanosecond, "500.0 ns"},
		{1500 * time.Nanosecond, "1.5 µs"},
		{2500 * time.Microsecond, "2.50 ms"},
		{time.Second, "1.000 s"},
		{90 * time.Second, "90.000 s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}
