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

package document

import (
	"jsonapi.dev/engine/changeset"
	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/registry"
)

// ReadResult is the outcome of parsing one write-request body.
type ReadResult struct {
	ChangeSet *changeset.ChangeSet
	ID        string
	LID       string
}

// Read parses body for resourceType/op, enforcing: the resource object's
// type must match the endpoint type (delegated into changeset.Build), and
// on PATCH the id must match urlID (spec.md §4.4).
func Read(body []byte, meta registry.ResourceMetadata, op registry.SerializationGroup, urlID string) (*ReadResult, *jsonapierr.Multi) {
	cs, id, lid, errs := changeset.Build(body, meta, op)

	if op == registry.GroupUpdate && urlID != "" && id != "" && id != urlID {
		errs.Add(jsonapierr.New(jsonapierr.CodeUnknownAttribute,
			"resource id in body does not match URL id").WithPointer("/data/id"))
	}

	if op == registry.GroupCreate && id != "" {
		if !meta.ClientGeneratedID {
			errs.Add(jsonapierr.New(jsonapierr.CodeForbiddenClientID,
				"client-generated ids are not permitted for type \""+meta.Type+"\"").WithPointer("/data/id"))
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}

	return &ReadResult{ChangeSet: cs, ID: id, LID: lid}, nil
}
