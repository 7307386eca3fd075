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

// Package changeset builds a ChangeSet — the strictly-present subset of
// fields submitted for a create or update, distinguishing "absent" from
// "present and null" (spec.md §3) — from a raw JSON:API document body.
package changeset

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

const maxRecursionDepth = 100

// PresenceMap tracks which dot-paths were actually present in a JSON
// object, as opposed to merely absent (and therefore defaulted). Keys are
// normalized dot paths, e.g. "attributes.title" or "relationships.author.data".
type PresenceMap map[string]bool

// Has returns true if the exact path is present.
func (pm PresenceMap) Has(path string) bool {
	return pm != nil && pm[path]
}

// HasPrefix returns true if any path with the given prefix is present.
func (pm PresenceMap) HasPrefix(prefix string) bool {
	if pm == nil {
		return false
	}
	prefixDot := prefix + "."
	for path := range pm {
		if path == prefix || strings.HasPrefix(path, prefixDot) {
			return true
		}
	}
	return false
}

// ComputePresence unmarshals rawJSON and returns the set of dot-paths that
// were actually present in the document.
func ComputePresence(rawJSON []byte) (PresenceMap, error) {
	if len(rawJSON) == 0 {
		return nil, nil
	}

	var data map[string]any
	if err := sonic.Unmarshal(rawJSON, &data); err != nil {
		return nil, err
	}

	pm := make(PresenceMap)
	markPresence(data, "", pm, 0)
	return pm, nil
}

func markPresence(m map[string]any, prefix string, pm PresenceMap, depth int) {
	if depth > maxRecursionDepth {
		return
	}

	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		pm[path] = true

		if nested, ok := v.(map[string]any); ok {
			markPresence(nested, path, pm, depth+1)
		}

		if arr, ok := v.([]any); ok {
			for i, item := range arr {
				itemPath := path + "." + strconv.Itoa(i)
				pm[itemPath] = true
				if nestedMap, ok := item.(map[string]any); ok {
					markPresence(nestedMap, itemPath, pm, depth+1)
				}
			}
		}
	}
}
