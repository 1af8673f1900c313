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
package testutil

import (
	"encoding/json"
	"fmt"
)

// RecordBuilder provides a fluent API for creating test records
type RecordBuilder struct {
	fields map[string]interface{}
}

// NewRecordBuilder creates a record with an id, a name and a score
func NewRecordBuilder(id int) *RecordBuilder {
	return &RecordBuilder{
		fields: map[string]interface{}{
			"id":    id,
			"name":  fmt.Sprintf("record-%d", id),
			"score": float64(id) * 1.5,
		},
	}
}

// WithField sets a field
func (b *RecordBuilder) WithField(key string, value interface{}) *RecordBuilder {
	b.fields[key] = value
	return b
}

// WithoutField removes a field
func (b *RecordBuilder) WithoutField(key string) *RecordBuilder {
	delete(b.fields, key)
	return b
}

// Build returns the record as a map
func (b *RecordBuilder) Build() map[string]interface{} {
	out := make(map[string]interface{}, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// Line returns the record encoded as one JSON line without a newline
func (b *RecordBuilder) Line() string {
	data, err := json.Marshal(b.fields)
	if err != nil {
		panic(fmt.Sprintf("testutil: record is not encodable: %v", err))
	}
	return string(data)
}

// GenerateLines creates JSON lines for ids start through end inclusive
func GenerateLines(start, end int) []string {
	lines := make([]string, 0, end-start+1)
	for id := start; id <= end; id++ {
		lines = append(lines, NewRecordBuilder(id).Line())
	}
	return lines
}
