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
// Package steps provides small record edits that compose into an
// inplace.TransformFunc. They back the transform subcommand's flags.
package steps

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/sirseerhq/tutils/internal/inplace"
	"github.com/sirseerhq/tutils/internal/jsonl"
)

var (
	// ErrNotObject is returned by steps that edit fields of a record that is
	// not a JSON object.
	ErrNotObject = errors.New("record is not an object")

	// ErrBadAssignment is returned by ParseAssignment for input without "=".
	ErrBadAssignment = errors.New("expected key=value")
)

// Step is one named edit. Apply returns nil to drop the record.
type Step struct {
	Name  string
	Apply func(rec jsonl.Record) (jsonl.Record, error)
}

func (s Step) String() string { return s.Name }

// Names lists the steps for run metadata.
func Names(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}

// Chain applies steps in order, stopping at the first drop or error.
// With no steps it is the identity transform.
func Chain(steps ...Step) inplace.TransformFunc {
	return func(rec jsonl.Record) (jsonl.Record, error) {
		var err error
		for _, s := range steps {
			rec, err = s.Apply(rec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.Name, err)
			}
			if rec == nil {
				return nil, nil
			}
		}
		return rec, nil
	}
}

func object(rec jsonl.Record) (map[string]any, error) {
	obj, ok := jsonl.AsObject(rec)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// Set assigns value to key, replacing any existing value.
func Set(key string, value any) Step {
	return Step{
		Name: "set " + key,
		Apply: func(rec jsonl.Record) (jsonl.Record, error) {
			obj, err := object(rec)
			if err != nil {
				return nil, err
			}
			obj[key] = value
			return obj, nil
		},
	}
}

// Delete removes key. A missing key is not an error.
func Delete(key string) Step {
	return Step{
		Name: "delete " + key,
		Apply: func(rec jsonl.Record) (jsonl.Record, error) {
			obj, err := object(rec)
			if err != nil {
				return nil, err
			}
			delete(obj, key)
			return obj, nil
		},
	}
}

// Rename moves the value at from to to. Records without from pass unchanged.
func Rename(from, to string) Step {
	return Step{
		Name: "rename " + from + "=" + to,
		Apply: func(rec jsonl.Record) (jsonl.Record, error) {
			obj, err := object(rec)
			if err != nil {
				return nil, err
			}
			if v, ok := obj[from]; ok {
				delete(obj, from)
				obj[to] = v
			}
			return obj, nil
		},
	}
}

// Require drops records that are not objects or lack key.
func Require(key string) Step {
	return Step{
		Name: "require " + key,
		Apply: func(rec jsonl.Record) (jsonl.Record, error) {
			obj, ok := jsonl.AsObject(rec)
			if !ok {
				return nil, nil
			}
			if _, ok := obj[key]; !ok {
				return nil, nil
			}
			return obj, nil
		},
	}
}

// DropIf drops object records whose key holds a value equal to value.
// Values are compared by their JSON encoding, so 1 and "1" differ.
func DropIf(key string, value any) Step {
	want, wantErr := jsonl.Marshal(value)
	return Step{
		Name: "drop-if " + key,
		Apply: func(rec jsonl.Record) (jsonl.Record, error) {
			if wantErr != nil {
				return nil, wantErr
			}
			obj, ok := jsonl.AsObject(rec)
			if !ok {
				return rec, nil
			}
			v, ok := obj[key]
			if !ok {
				return obj, nil
			}
			got, err := jsonl.Marshal(v)
			if err != nil {
				return nil, err
			}
			if bytes.Equal(got, want) {
				return nil, nil
			}
			return obj, nil
		},
	}
}

// ParseAssignment splits "key=value" at the first "=".
func ParseAssignment(s string) (key, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w, got %q", ErrBadAssignment, s)
	}
	return key, value, nil
}

// ParseValue reads s as a JSON value, falling back to the plain string.
// "5" is a number, "true" a bool, `"5"` and "five" are strings.
func ParseValue(s string) any {
	v, err := jsonl.ParseLine(s)
	if err != nil {
		return s
	}
	return v
}
