// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package document builds and reads JSON:API documents (spec.md §4.4,
// §4.5): the Reader parses inbound documents, the Builder serializes
// resources into response documents, and Canonicalize produces the
// deterministic byte form the precondition package hashes into ETags.
package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Canonicalize renders v into the engine's canonical JSON form: object
// keys sorted byte-wise ascending, no insignificant whitespace, integers
// without a decimal point, floats via strconv.FormatFloat(f, 'g', -1, 64),
// the null literal for nil, and RFC 3339 nanosecond for time.Time values.
// This is the single canonicalization used both for strong-ETag hashing
// and for any deterministic serialization mode (resolves spec.md §9's
// Open Question on ETag canonicalization).
func Canonicalize(v any) []byte {
	var b strings.Builder
	writeCanonical(&b, v)
	return []byte(b.String())
}

func writeCanonical(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		writeCanonicalString(b, x)
	case int:
		b.WriteString(strconv.Itoa(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case float64:
		writeCanonicalFloat(b, x)
	case time.Time:
		writeCanonicalString(b, x.UTC().Format("2006-01-02T15:04:05.999999999Z"))
	case map[string]any:
		writeCanonicalObject(b, x)
	case []any:
		b.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		b.WriteString(fmt.Sprintf("%q", fmt.Sprintf("%v", x)))
	}
}

func writeCanonicalFloat(b *strings.Builder, f float64) {
	if f == float64(int64(f)) {
		b.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

func writeCanonicalObject(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonicalString(b, k)
		b.WriteByte(':')
		writeCanonical(b, m[k])
	}
	b.WriteByte('}')
}

func writeCanonicalString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
