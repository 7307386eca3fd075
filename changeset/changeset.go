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

package changeset

import (
	"github.com/bytedance/sonic"

	"jsonapi.dev/engine/constraint"
	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/refs"
	"jsonapi.dev/engine/registry"
)

// ChangeSet is the strictly-present subset of fields submitted for a
// create or update (spec.md §3). Only fields actually present in the
// request are recorded; ToOne entries with a nil Ref mean the relationship
// was explicitly set to null.
type ChangeSet struct {
	Attributes map[string]any
	ToOne      map[string]*refs.Ref
	ToMany     map[string][]refs.Ref
}

// HasAttribute reports whether name was present in the request.
func (c *ChangeSet) HasAttribute(name string) bool {
	_, ok := c.Attributes[name]
	return ok
}

// Build parses a JSON:API write-request body (the `{"data": {...}}`
// envelope) into a ChangeSet for resourceType, validating attribute and
// relationship names against meta and dropping attributes whose
// SerializationGroups exclude op (spec.md §4.4).
func Build(body []byte, meta registry.ResourceMetadata, op registry.SerializationGroup) (*ChangeSet, string, string, *jsonapierr.Multi) {
	errs := &jsonapierr.Multi{}

	var envelope struct {
		Data struct {
			Type          string                     `json:"type"`
			ID            string                     `json:"id"`
			LID           string                     `json:"lid"`
			Attributes    map[string]any             `json:"attributes"`
			Relationships map[string]rawRelationship `json:"relationships"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		errs.Add(jsonapierr.New(jsonapierr.CodeUnknownAttribute, "malformed JSON:API document: "+err.Error()).WithPointer("/data"))
		return nil, "", "", errs
	}

	presence, _ := ComputePresence(body)

	cs := &ChangeSet{
		Attributes: make(map[string]any),
		ToOne:      make(map[string]*refs.Ref),
		ToMany:     make(map[string][]refs.Ref),
	}

	if envelope.Data.Type != meta.Type {
		errs.Add(jsonapierr.New(jsonapierr.CodeUnknownAttribute,
			"resource type \""+envelope.Data.Type+"\" does not match endpoint type \""+meta.Type+"\"").WithPointer("/data/type"))
	}

	for name, value := range envelope.Data.Attributes {
		attr, known := meta.Attribute(name)
		if !known {
			errs.Add(jsonapierr.New(jsonapierr.CodeUnknownAttribute,
				"unknown attribute \""+name+"\"").WithPointer("/data/attributes/" + name))
			continue
		}
		if !attr.InGroup(op) {
			continue // silently dropped per spec.md §4.4
		}
		if !presence.Has("data.attributes." + name) {
			continue
		}
		cs.Attributes[name] = value
	}

	for name, rel := range envelope.Data.Relationships {
		relMeta, known := meta.Relationship(name)
		if !known {
			errs.Add(jsonapierr.New(jsonapierr.CodeUnknownRelationship,
				"unknown relationship \""+name+"\"").WithPointer("/data/relationships/" + name))
			continue
		}

		ptr := "/data/relationships/" + name + "/data"

		if relMeta.ToMany {
			if rel.Data == nil {
				errs.Add(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData,
					"to-many relationship \""+name+"\" cannot be null; use an empty array to clear").WithPointer(ptr))
				continue
			}
			list, ok := rel.Data.([]any)
			if !ok {
				errs.Add(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData,
					"to-many relationship \""+name+"\" requires an array of resource identifiers").WithPointer(ptr))
				continue
			}
			refsOut := make([]refs.Ref, 0, len(list))
			for _, item := range list {
				r, convErr := toRef(item, relMeta.TargetType)
				if convErr != nil {
					errs.Add(convErr.WithPointer(ptr))
					continue
				}
				refsOut = append(refsOut, r)
			}
			cs.ToMany[name] = refsOut
		} else {
			if rel.Data == nil {
				cs.ToOne[name] = nil
				continue
			}
			obj, ok := rel.Data.(map[string]any)
			if !ok {
				errs.Add(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData,
					"to-one relationship \""+name+"\" requires a single resource identifier").WithPointer(ptr))
				continue
			}
			r, convErr := toRef(obj, relMeta.TargetType)
			if convErr != nil {
				errs.Add(convErr.WithPointer(ptr))
				continue
			}
			cs.ToOne[name] = &r
		}
	}

	for _, violation := range constraint.Check(meta, cs.Attributes) {
		errs.Add(violation)
	}

	return cs, envelope.Data.ID, envelope.Data.LID, errs
}

// rawRelationship captures the wire shape of one relationships.NAME entry
// with Data left as a loosely-typed any (nil / map / []any) so both arities
// can be type-switched during ChangeSet assembly.
type rawRelationship struct {
	Data any `json:"data"`
}

func toRef(v any, targetType string) (refs.Ref, *jsonapierr.E) {
	obj, ok := v.(map[string]any)
	if !ok {
		return refs.Ref{}, jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "resource identifier must be an object")
	}
	typ, _ := obj["type"].(string)
	if typ == "" {
		typ = targetType
	}
	id, _ := obj["id"].(string)
	lid, _ := obj["lid"].(string)
	if id == "" && lid == "" {
		return refs.Ref{}, jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "resource identifier requires id or lid")
	}
	return refs.Ref{Type: typ, ID: id, LID: lid}, nil
}
