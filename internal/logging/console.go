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

package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for console output.
const (
	Reset   = "\033[0m"
	Black   = "\033[30m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"

	BrightBlack   = "\033[90m"
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"

	Bold      = "\033[1m"
	Underline = "\033[4m"
)

// ColorKey is the attribute key that overrides the color of one record.
// Its value is a color name such as "blue" or "bright_red", or a raw ANSI
// sequence. The attribute itself is not printed.
const ColorKey = "color"

var colorNames = map[string]string{
	"black":          Black,
	"red":            Red,
	"green":          Green,
	"yellow":         Yellow,
	"blue":           Blue,
	"magenta":        Magenta,
	"cyan":           Cyan,
	"white":          White,
	"bright_black":   BrightBlack,
	"bright_red":     BrightRed,
	"bright_green":   BrightGreen,
	"bright_yellow":  BrightYellow,
	"bright_blue":    BrightBlue,
	"bright_magenta": BrightMagenta,
	"bright_cyan":    BrightCyan,
	"bright_white":   BrightWhite,
	"bold":           Bold,
	"underline":      Underline,
}

// Color returns an attribute that sets the color of a single record.
func Color(name string) slog.Attr {
	return slog.String(ColorKey, name)
}

// ColorCode resolves a color name to its ANSI sequence. Unknown names are
// returned unchanged so raw escape codes pass through.
func ColorCode(name string) string {
	if code, ok := colorNames[strings.ToLower(name)]; ok {
		return code
	}
	return name
}

func levelColor(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return Bold + Red
	case level >= slog.LevelError:
		return Red
	case level >= slog.LevelWarn:
		return Yellow
	case level >= slog.LevelInfo:
		return Green
	default:
		return Cyan
	}
}

const timeLayout = "2006-01-02 15:04:05"

// ConsoleOptions configures a ConsoleHandler.
type ConsoleOptions struct {
	Name  string
	Level slog.Leveler
	Color bool
}

// ConsoleHandler is a slog.Handler that writes one human-readable line per
// record. It is safe for concurrent use; handlers derived through WithAttrs
// and WithGroup share the parent's writer lock.
type ConsoleHandler struct {
	opts   ConsoleOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  string
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a ConsoleHandler writing to w.
func NewConsoleHandler(w io.Writer, opts ConsoleOptions) *ConsoleHandler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	return &ConsoleHandler{opts: opts, mu: &sync.Mutex{}, w: w}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	color := levelColor(r.Level)
	var fields strings.Builder
	fields.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == ColorKey && len(h.groups) == 0 {
			color = ColorCode(a.Value.String())
			return true
		}
		appendAttr(&fields, h.groups, a)
		return true
	})

	if h.opts.Color {
		buf.WriteString(color)
	}
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString("[")
	buf.WriteString(ts.Format(timeLayout))
	buf.WriteString("] [")
	buf.WriteString(LevelName(r.Level))
	buf.WriteString("] ")
	if h.opts.Name != "" {
		buf.WriteString("[")
		buf.WriteString(h.opts.Name)
		buf.WriteString("] ")
	}
	buf.WriteString(r.Message)
	buf.WriteString(fields.String())
	if h.opts.Color {
		buf.WriteString(Reset)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.groups, a)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func appendAttr(b *strings.Builder, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, sub, ga)
		}
		return
	}

	b.WriteByte(' ')
	for _, g := range groups {
		b.WriteString(g)
		b.WriteByte('.')
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"=") || val == "" {
		b.WriteString(strconv.Quote(val))
	} else {
		b.WriteString(val)
	}
}
