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

// Package logging builds the structured loggers used across tutils.
//
// Loggers are plain *slog.Logger values. They are constructed once (usually
// in main) and passed down explicitly; nothing in this package keeps a
// process-wide logger. The text form mirrors a classic colored console
// layout:
//
//	[2025-01-02 15:04:05] [INFO] [tutils.transform] checkpoint saved persisted=120 total=500
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelCritical sits above slog.LevelError for unrecoverable conditions.
const LevelCritical = slog.Level(12)

// ErrInvalidLevel is returned for level names ParseLevel does not know.
var ErrInvalidLevel = errors.New("invalid log level")

// Options controls how New builds a logger.
type Options struct {
	// Name is printed with every text record and attached as "logger" in JSON mode.
	Name string
	// Level is one of DEBUG, INFO, WARN/WARNING, ERROR, CRITICAL (case-insensitive).
	// Empty means INFO.
	Level string
	// Color enables ANSI colors in text mode.
	Color bool
	// JSON switches to slog's JSON handler.
	JSON bool
	// Writer receives the output. Nil means os.Stdout.
	Writer io.Writer
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	if opts.JSON {
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceLevelName,
		})
		logger := slog.New(h)
		if opts.Name != "" {
			logger = logger.With(slog.String("logger", opts.Name))
		}
		return logger, nil
	}

	return slog.New(NewConsoleHandler(w, ConsoleOptions{
		Name:  opts.Name,
		Level: level,
		Color: opts.Color,
	})), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// LevelName returns the display name used for level.
func LevelName(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return "CRITICAL"
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lv, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(lv))
		}
	}
	return a
}
