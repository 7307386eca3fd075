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

// Package refs resolves resource identifiers and Local IDs (LIDs) within
// the scope of a single atomic request (spec.md §4.9, §GLOSSARY).
package refs

import (
	"sync"

	"jsonapi.dev/engine/jsonapierr"
)

// LidRegistry maps LID strings to resolved real IDs. Scope is exactly one
// atomic request (spec.md §3); it is never shared between requests.
type LidRegistry struct {
	mu       sync.Mutex
	resolved map[string]string
	declared map[string]bool
}

// NewLidRegistry returns an empty registry for one atomic request.
func NewLidRegistry() *LidRegistry {
	return &LidRegistry{
		resolved: make(map[string]string),
		declared: make(map[string]bool),
	}
}

// Declare registers that lid will be created by this batch and records its
// resolved real id. A LID declared twice is a protocol error
// (CodeDuplicateLID, spec.md §4.9/§8 property 7).
func (r *LidRegistry) Declare(lid, realID string) *jsonapierr.E {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.declared[lid] {
		return jsonapierr.New(jsonapierr.CodeDuplicateLID, "local id \""+lid+"\" declared more than once")
	}
	r.declared[lid] = true
	r.resolved[lid] = realID
	return nil
}

// Resolve looks up the real id for a previously-declared lid. Referencing
// an undeclared lid is a protocol error (CodeUnknownLID, spec.md §4.9/§8
// property 7).
func (r *LidRegistry) Resolve(lid string) (string, *jsonapierr.E) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.resolved[lid]
	if !ok {
		return "", jsonapierr.New(jsonapierr.CodeUnknownLID, "local id \""+lid+"\" was never declared")
	}
	return id, nil
}

// Ref is a resource identifier as it appears inside a request body: exactly
// one of ID or LID is set (spec.md §3).
type Ref struct {
	Type string
	ID   string
	LID  string
}

// Resolve returns the real (type,id) pair for r, resolving through reg when
// r carries a LID. A bare id ref is returned unchanged.
func (r Ref) Resolve(reg *LidRegistry) (resolvedType, resolvedID string, err *jsonapierr.E) {
	if r.LID == "" {
		return r.Type, r.ID, nil
	}
	id, resolveErr := reg.Resolve(r.LID)
	if resolveErr != nil {
		return "", "", resolveErr
	}
	return r.Type, id, nil
}
