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

// Package registry is the single source of truth for resource-type
// metadata. It is built once at engine init and is immutable and read-only
// thereafter; every other component looks up type metadata through it.
package registry

import "fmt"

// SerializationGroup names one of the phases an attribute participates in.
type SerializationGroup string

const (
	GroupRead   SerializationGroup = "read"
	GroupWrite  SerializationGroup = "write"
	GroupCreate SerializationGroup = "create"
	GroupUpdate SerializationGroup = "update"
)

// AttributeMetadata describes one declared attribute of a resource type.
type AttributeMetadata struct {
	Name                string
	PropertyPath        string
	Types               []string
	Nullable            bool
	SerializationGroups map[SerializationGroup]bool

	// ValidateTag is a go-playground/validator tag string (e.g.
	// "required,min=1,max=255") applied to the attribute's value on
	// create/update, independent of the presence/type checks above
	// (spec.md §4.10's 422 path). Empty means no constraint beyond type.
	ValidateTag string
}

// InGroup reports whether the attribute participates in the given phase.
// Absent SerializationGroups defaults to {read, write}, per spec.md §3.
func (a AttributeMetadata) InGroup(g SerializationGroup) bool {
	if len(a.SerializationGroups) == 0 {
		return g == GroupRead || g == GroupWrite
	}
	return a.SerializationGroups[g]
}

// RelationshipMetadata describes one declared relationship of a resource type.
type RelationshipMetadata struct {
	Name       string
	ToMany     bool
	TargetType string
	Nullable   bool
	Inverse    string
}

// ResourceMetadata describes one registered resource type.
type ResourceMetadata struct {
	Type             string
	DataClass        string
	Attributes       map[string]AttributeMetadata
	AttributeOrder   []string
	Relationships    map[string]RelationshipMetadata
	RelationshipOrder []string
	ExposeID         bool
	RoutePrefix      string
	Description      string
	IDPropertyPath   string
	FilterableFields map[string][]string // field -> allowed operators
	SortableFields   map[string]bool
	ClientGeneratedID bool
}

// Attribute looks up a declared attribute by name.
func (m ResourceMetadata) Attribute(name string) (AttributeMetadata, bool) {
	a, ok := m.Attributes[name]
	return a, ok
}

// Relationship looks up a declared relationship by name.
func (m ResourceMetadata) Relationship(name string) (RelationshipMetadata, bool) {
	r, ok := m.Relationships[name]
	return r, ok
}

// NameCollides reports whether name collides with "id", "type", or any
// declared relationship name (spec.md §3 invariant d).
func (m ResourceMetadata) NameCollides(name string) bool {
	if name == "id" || name == "type" {
		return true
	}
	_, isRel := m.Relationships[name]
	return isRel
}

// Registry is the immutable, O(1) lookup table of resource metadata.
type Registry struct {
	byType  map[string]ResourceMetadata
	byClass map[string]ResourceMetadata
	order   []string
}

// Builder accumulates resource declarations before Build freezes them into
// a Registry. Duplicate types fail at Build time, never silently.
type Builder struct {
	types []ResourceMetadata
}

// NewBuilder returns an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Register adds one resource type declaration to the builder.
func (b *Builder) Register(m ResourceMetadata) *Builder {
	b.types = append(b.types, m)
	return b
}

// Build validates and freezes the registered types into a Registry.
// Fails if any type name repeats, or a relationship's TargetType does not
// resolve to another registered type (spec.md §3 invariants a, c).
func (b *Builder) Build() (*Registry, error) {
	byType := make(map[string]ResourceMetadata, len(b.types))
	byClass := make(map[string]ResourceMetadata, len(b.types))
	order := make([]string, 0, len(b.types))

	for _, m := range b.types {
		if _, exists := byType[m.Type]; exists {
			return nil, fmt.Errorf("registry: duplicate resource type %q", m.Type)
		}
		for name := range m.Attributes {
			if m.NameCollides(name) {
				return nil, fmt.Errorf("registry: type %q attribute %q collides with id/type/relationship name", m.Type, name)
			}
		}
		byType[m.Type] = m
		if m.DataClass != "" {
			byClass[m.DataClass] = m
		}
		order = append(order, m.Type)
	}

	for _, m := range b.types {
		for relName, rel := range m.Relationships {
			if rel.TargetType == "" {
				return nil, fmt.Errorf("registry: type %q relationship %q has no resolvable target type", m.Type, relName)
			}
			if _, ok := byType[rel.TargetType]; !ok {
				return nil, fmt.Errorf("registry: type %q relationship %q targets unregistered type %q", m.Type, relName, rel.TargetType)
			}
		}
	}

	return &Registry{byType: byType, byClass: byClass, order: order}, nil
}

// GetByType returns the metadata for a registered type, or false if unknown.
func (r *Registry) GetByType(t string) (ResourceMetadata, bool) {
	m, ok := r.byType[t]
	return m, ok
}

// GetByClass returns the metadata for a registered host-side data class, or
// false if unknown.
func (r *Registry) GetByClass(class string) (ResourceMetadata, bool) {
	m, ok := r.byClass[class]
	return m, ok
}

// All returns every registered type's metadata, in registration order.
func (r *Registry) All() []ResourceMetadata {
	out := make([]ResourceMetadata, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byType[t])
	}
	return out
}
