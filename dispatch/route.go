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

// Package dispatch wires the parsed query, the precondition evaluator, the
// document builder, the include engine, and the host's collaborator
// interfaces into the fixed endpoint table of spec.md §4.8.
package dispatch

import "strings"

// Kind names which shape of endpoint a parsed route matches.
type Kind int

const (
	KindCollection Kind = iota
	KindResource
	KindRelationshipSelf
	KindRelated
)

// Route is a parsed request path relative to the engine's route prefix.
type Route struct {
	Kind         Kind
	Type         string
	ID           string
	Relationship string
}

// ParseRoute matches path (after stripping prefix) against the four shapes
// spec.md §4.8 enumerates. Returns ok=false for anything else (404 territory,
// left to the caller to map).
func ParseRoute(path, prefix string) (Route, bool) {
	p := strings.TrimPrefix(path, prefix)
	p = strings.Trim(p, "/")
	if p == "" {
		return Route{}, false
	}

	segs := strings.Split(p, "/")
	for _, s := range segs {
		if s == "" {
			return Route{}, false
		}
	}

	switch len(segs) {
	case 1:
		return Route{Kind: KindCollection, Type: segs[0]}, true
	case 2:
		return Route{Kind: KindResource, Type: segs[0], ID: segs[1]}, true
	case 3:
		if segs[2] == "relationships" {
			return Route{}, false
		}
		return Route{Kind: KindRelated, Type: segs[0], ID: segs[1], Relationship: segs[2]}, true
	case 4:
		if segs[2] != "relationships" {
			return Route{}, false
		}
		return Route{Kind: KindRelationshipSelf, Type: segs[0], ID: segs[1], Relationship: segs[3]}, true
	default:
		return Route{}, false
	}
}
