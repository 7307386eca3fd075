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

// Package include expands an include tree into a flat, de-duplicated
// included set via a breadth-first graph walk (spec.md §4.6).
package include

import (
	"jsonapi.dev/engine/criteria"
	"jsonapi.dev/engine/jsonapierr"
)

// Entity pairs an opaque host value with the (type,id) the engine needs
// for de-duplication and further relationship walks.
type Entity struct {
	Type  string
	ID    string
	Value any
}

// Loader batches the load of one relationship hop: given the parent type,
// the distinct parent ids at this BFS level, and the relationship name, it
// returns every related entity (spec.md §4.6: "batches the load through
// RelationshipReader.getRelated"). This generalizes the host's
// ResourceRepository.findRelated collaborator (spec.md §6).
type Loader interface {
	LoadRelated(parentType string, parentIDs []string, relationshipName string) ([]Entity, error)
}

// frontier pairs an include-tree node with the parent entities it should
// resolve its relationship against. Expand advances the whole forest of
// frontier items one depth at a time so that every node at depth k — across
// every root, not just the first root's subtree — is resolved before any
// node at depth k+1, matching spec.md §4.6's "for each node at depth k, the
// engine collects all relationship-target refs... at that depth" wording.
type frontier struct {
	node    *criteria.IncludeNode
	parents []Entity
}

// Expand performs the BFS walk described in spec.md §4.6: siblings are
// visited in include-tree declaration order, each (type,id) is visited at
// most once, and primary-data resources never reappear in the result.
func Expand(primary []Entity, tree []*criteria.IncludeNode, loader Loader) ([]Entity, *jsonapierr.E) {
	visited := make(map[string]bool, len(primary))
	for _, e := range primary {
		visited[key(e.Type, e.ID)] = true
	}

	var included []Entity

	level := make([]frontier, 0, len(tree))
	for _, node := range tree {
		level = append(level, frontier{node: node, parents: primary})
	}

	for len(level) > 0 {
		var next []frontier
		for _, item := range level {
			fresh, err := resolveNode(item.parents, item.node, loader, visited, &included)
			if err != nil {
				return nil, err
			}
			for _, child := range item.node.Children {
				next = append(next, frontier{node: child, parents: fresh})
			}
		}
		level = next
	}

	return included, nil
}

// resolveNode loads one relationship hop for a single include-tree node,
// appends newly-visited entities to included (declaration order preserved),
// and returns them so the caller can queue this node's children for the
// next BFS depth.
func resolveNode(parents []Entity, node *criteria.IncludeNode, loader Loader, visited map[string]bool, included *[]Entity) ([]Entity, *jsonapierr.E) {
	if len(parents) == 0 {
		return nil, nil
	}

	byType := make(map[string][]string)
	var typeOrder []string
	for _, p := range parents {
		if _, ok := byType[p.Type]; !ok {
			typeOrder = append(typeOrder, p.Type)
		}
		byType[p.Type] = append(byType[p.Type], p.ID)
	}

	var children []Entity
	for _, t := range typeOrder {
		related, err := loader.LoadRelated(t, byType[t], node.Relationship)
		if err != nil {
			return nil, jsonapierr.New(jsonapierr.CodeNotFound, "failed to load relationship \""+node.Relationship+"\": "+err.Error())
		}
		children = append(children, related...)
	}

	var fresh []Entity
	for _, c := range children {
		k := key(c.Type, c.ID)
		if visited[k] {
			continue
		}
		visited[k] = true
		*included = append(*included, c)
		fresh = append(fresh, c)
	}

	return fresh, nil
}

func key(typ, id string) string {
	return typ + ":" + id
}
