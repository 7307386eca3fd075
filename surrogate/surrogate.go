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

// Package surrogate computes the Surrogate-Key header value from a
// response's shape (spec.md §4.11) for CDN/reverse-proxy invalidation.
package surrogate

import "strings"

// Ref identifies one resource contributing a key to the response.
type Ref struct {
	Type string
	ID   string
}

// Keys computes the space-separated Surrogate-Key value: one type-level
// key per distinct type present, plus one TYPE:ID key per referenced
// resource across primary and included data (spec.md §6 bit-exact
// behavior: "TYPE TYPE:ID TYPE:ID2 ...").
func Keys(refs []Ref) string {
	seenType := make(map[string]bool)
	seenKey := make(map[string]bool)
	var parts []string

	for _, r := range refs {
		if !seenType[r.Type] {
			seenType[r.Type] = true
			parts = append(parts, r.Type)
		}
		key := r.Type + ":" + r.ID
		if !seenKey[key] {
			seenKey[key] = true
			parts = append(parts, key)
		}
	}

	return strings.Join(parts, " ")
}
