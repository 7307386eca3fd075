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

// Package criteria parses a request's query string into a typed, immutable
// Criteria value and enforces the engine's DoS limits while doing so
// (spec.md §4.2).
package criteria

// IncludeNode is one node of the include tree: the relationship name this
// node represents, plus its own children (the next path segment).
type IncludeNode struct {
	Relationship string
	Children     []*IncludeNode
}

// SortField is one parsed entry of the "sort" query parameter.
type SortField struct {
	Field      string
	Descending bool
}

// Pagination carries the resolved page[number]/page[size] values.
type Pagination struct {
	Number int
	Size   int
}

// FilterOp is one of the recognized filter operators.
type FilterOp string

const (
	OpEQ    FilterOp = "eq"
	OpNE    FilterOp = "ne"
	OpGT    FilterOp = "gt"
	OpGTE   FilterOp = "gte"
	OpLT    FilterOp = "lt"
	OpLTE   FilterOp = "lte"
	OpLike  FilterOp = "like"
	OpIn    FilterOp = "in"
	OpNIn   FilterOp = "nin"
	OpNull  FilterOp = "null"
	OpNNull FilterOp = "nnull"
)

// allOps is the configured operator set from spec.md §4.2.
var allOps = map[FilterOp]bool{
	OpEQ: true, OpNE: true, OpGT: true, OpGTE: true, OpLT: true, OpLTE: true,
	OpLike: true, OpIn: true, OpNIn: true, OpNull: true, OpNNull: true,
}

// FilterClause is one parsed "filter[FIELD][OP]=VALUE" entry.
type FilterClause struct {
	Field string
	Op    FilterOp
	Value string
}

// Criteria is the immutable, fully-parsed query-string intent for one
// request. Immutable after Parse returns (spec.md §3).
type Criteria struct {
	Include    []*IncludeNode
	Fields     map[string][]string // type -> field names, in request order
	Sort       []SortField
	Pagination Pagination
	Filter     []FilterClause
}

// HasFields reports whether a sparse fieldset was requested for type t.
func (c *Criteria) HasFields(t string) bool {
	_, ok := c.Fields[t]
	return ok
}

// IncludesRelationship reports whether the top-level include tree contains
// the named relationship directly under the primary type.
func (c *Criteria) IncludesRelationship(name string) bool {
	for _, n := range c.Include {
		if n.Relationship == name {
			return true
		}
	}
	return false
}
