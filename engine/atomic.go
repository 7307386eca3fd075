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

package engine

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"jsonapi.dev/engine/atomicops"
	"jsonapi.dev/engine/changeset"
	"jsonapi.dev/engine/jsonapi"
	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/refs"
	"jsonapi.dev/engine/registry"
)

// wireOperationsEnvelope is the top-level "atomic:operations" request body
// shape (spec.md §4.9).
type wireOperationsEnvelope struct {
	Operations []wireOperation `json:"atomic:operations"`
}

// wireOperation is one entry of "atomic:operations". Data is left as a
// loosely-typed any since its shape depends on the operation: a full
// resource object for add/update, or relationship linkage (null / single
// identifier / identifier array) when ref.relationship is set.
type wireOperation struct {
	Op   string   `json:"op"`
	Ref  *wireRef `json:"ref"`
	Data any      `json:"data"`
}

// wireRef is the "ref" member of one atomic operation.
type wireRef struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	LID          string `json:"lid"`
	Relationship string `json:"relationship"`
}

// handleAtomic parses and runs one "atomic:operations" request against the
// PARSE -> EXECUTE -> RECORD-LID -> COMMIT state machine of spec.md §4.9
// (atomicops.Execute issues no separate flush between operations),
// rendering "atomic:results" or the single failing error.
// contentType is the negotiated response Content-Type (carrying the atomic
// extension token, and any resolved profile, per spec.md §6).
func (e *Engine) handleAtomic(ctx context.Context, body []byte, contentType string) *Result {
	if !e.atomicEnabled() {
		m := &jsonapierr.Multi{}
		m.Add(jsonapierr.New(jsonapierr.CodeInternal, "the atomic operations extension is not configured for this engine"))
		return e.renderErrors(m)
	}

	ops, wireOps, errs := e.parseAtomicBody(body)
	if errs != nil {
		return e.renderErrors(errs)
	}

	lidReg := refs.NewLidRegistry()
	outcomes, failedIndex, opErr := atomicops.Execute(ctx, ops, e.cfg.maxOperations, e.persister, e.relUpdater, lidReg, e.txm)
	if opErr != nil {
		m := &jsonapierr.Multi{}
		m.Add(opErr.WithPointer(jsonapierr.AtomicPointer(failedIndex, opErr.Source.Pointer)))
		return e.renderErrors(m)
	}

	return e.renderAtomicResults(wireOps, outcomes, contentType)
}

// parseAtomicBody decodes the request body and builds one atomicops.Operation
// per entry, collecting every detectable per-operation error before
// returning (spec.md §7 aggregation policy).
func (e *Engine) parseAtomicBody(body []byte) ([]atomicops.Operation, []wireOperation, *jsonapierr.Multi) {
	errs := &jsonapierr.Multi{}

	var envelope wireOperationsEnvelope
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		errs.Add(jsonapierr.New(jsonapierr.CodeUnknownOperation, "malformed atomic:operations document: "+err.Error()))
		return nil, nil, errs
	}

	if e.cfg.maxOperations > 0 && len(envelope.Operations) > e.cfg.maxOperations {
		errs.Add(jsonapierr.New(jsonapierr.CodeUnknownOperation, "operation count exceeds configured max_operations"))
		return nil, nil, errs
	}

	ops := make([]atomicops.Operation, 0, len(envelope.Operations))
	for i, w := range envelope.Operations {
		op, opErrs := e.parseOneAtomicOp(w)
		if opErrs.HasErrors() {
			for _, inner := range opErrs.Errors {
				errs.Add(inner.WithPointer(jsonapierr.AtomicPointer(i, inner.Source.Pointer)))
			}
			continue
		}
		ops = append(ops, op)
	}

	if errs.HasErrors() {
		return nil, nil, errs
	}
	return ops, envelope.Operations, nil
}

func (e *Engine) parseOneAtomicOp(w wireOperation) (atomicops.Operation, *jsonapierr.Multi) {
	errs := &jsonapierr.Multi{}

	kind := atomicops.Kind(w.Op)
	switch kind {
	case atomicops.KindAdd, atomicops.KindUpdate, atomicops.KindRemove:
	default:
		errs.Add(jsonapierr.New(jsonapierr.CodeUnknownOperation, "unknown atomic operation \""+w.Op+"\"").WithPointer("/op"))
		return atomicops.Operation{}, errs
	}

	op := atomicops.Operation{Kind: kind}

	if w.Ref != nil {
		op.Ref = refs.Ref{Type: w.Ref.Type, ID: w.Ref.ID, LID: w.Ref.LID}
		op.Relationship = w.Ref.Relationship
	}

	dataObj, _ := w.Data.(map[string]any)

	typ := ""
	if w.Ref != nil && w.Ref.Type != "" {
		typ = w.Ref.Type
	} else if dataObj != nil {
		typ, _ = dataObj["type"].(string)
	}
	op.Type = typ

	meta, ok := e.reg.GetByType(typ)
	if !ok {
		errs.Add(jsonapierr.New(jsonapierr.CodeNotFound, "unknown resource type \""+typ+"\"").WithPointer("/data/type"))
		return atomicops.Operation{}, errs
	}

	if op.Relationship != "" {
		return e.parseRelationshipOp(op, meta, w.Data, errs)
	}

	if kind == atomicops.KindAdd || dataObj != nil {
		body, err := sonic.Marshal(map[string]any{"data": w.Data})
		if err != nil {
			errs.Add(jsonapierr.New(jsonapierr.CodeUnknownOperation, "malformed atomic operation data: "+err.Error()).WithPointer("/data"))
			return atomicops.Operation{}, errs
		}

		group := registry.GroupUpdate
		if kind == atomicops.KindAdd {
			group = registry.GroupCreate
		}
		cs, id, lid, buildErrs := changeset.Build(body, meta, group)
		if buildErrs.HasErrors() {
			errs.Errors = append(errs.Errors, buildErrs.Errors...)
			return atomicops.Operation{}, errs
		}
		op.ChangeSet = cs
		op.DataID = id
		op.DataLID = lid
	} else {
		op.ChangeSet = &changeset.ChangeSet{}
	}

	return op, errs
}

// parseRelationshipOp builds the ChangeSet for one of the three
// relationship-variant atomic operations (spec.md §4.9), whose "data"
// carries linkage rather than a full resource object.
func (e *Engine) parseRelationshipOp(op atomicops.Operation, meta registry.ResourceMetadata, data any, errs *jsonapierr.Multi) (atomicops.Operation, *jsonapierr.Multi) {
	relMeta, ok := meta.Relationship(op.Relationship)
	if !ok {
		errs.Add(jsonapierr.New(jsonapierr.CodeUnknownRelationship, "unknown relationship \""+op.Relationship+"\"").WithPointer("/ref/relationship"))
		return atomicops.Operation{}, errs
	}

	cs := &changeset.ChangeSet{ToOne: make(map[string]*refs.Ref), ToMany: make(map[string][]refs.Ref)}

	if relMeta.ToMany {
		list, ok := data.([]any)
		if !ok {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "to-many relationship data must be an array of resource identifiers").WithPointer("/data"))
			return atomicops.Operation{}, errs
		}
		refsOut := make([]refs.Ref, 0, len(list))
		for _, item := range list {
			r, err := parseIdentifier(item, relMeta.TargetType)
			if err != nil {
				errs.Add(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, err.Error()).WithPointer("/data"))
				continue
			}
			refsOut = append(refsOut, r)
		}
		cs.ToMany[op.Relationship] = refsOut
	} else {
		if data == nil {
			cs.ToOne[op.Relationship] = nil
		} else {
			r, err := parseIdentifier(data, relMeta.TargetType)
			if err != nil {
				errs.Add(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, err.Error()).WithPointer("/data"))
				return atomicops.Operation{}, errs
			}
			cs.ToOne[op.Relationship] = &r
		}
	}

	if errs.HasErrors() {
		return atomicops.Operation{}, errs
	}
	op.ChangeSet = cs
	return op, errs
}

// parseIdentifier converts one decoded JSON value into a resource
// identifier ref, defaulting its type when the identifier omits one.
func parseIdentifier(v any, defaultType string) (refs.Ref, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return refs.Ref{}, errInvalidIdentifier
	}
	typ, _ := obj["type"].(string)
	if typ == "" {
		typ = defaultType
	}
	id, _ := obj["id"].(string)
	lid, _ := obj["lid"].(string)
	if id == "" && lid == "" {
		return refs.Ref{}, errInvalidIdentifier
	}
	return refs.Ref{Type: typ, ID: id, LID: lid}, nil
}

var errInvalidIdentifier = errors.New("resource identifier requires id or lid")

// renderAtomicResults zips the original operations with their outcomes into
// the "atomic:results" response body. A batch with no content-bearing op
// produces 204; otherwise 200 with one result entry per operation, in
// request order (spec.md §4.9).
func (e *Engine) renderAtomicResults(wireOps []wireOperation, outcomes []atomicops.Outcome, contentType string) *Result {
	anyContent := false
	for _, o := range outcomes {
		if !o.NoContent {
			anyContent = true
			break
		}
	}

	if !anyContent {
		return &Result{Status: http.StatusNoContent, Headers: map[string]string{}}
	}

	results := make([]map[string]any, 0, len(outcomes))
	for i, o := range outcomes {
		if o.NoContent {
			results = append(results, map[string]any{})
			continue
		}

		typ := wireOps[i].Ref.typeOrEmpty()
		if dataObj, ok := wireOps[i].Data.(map[string]any); ok {
			if t, _ := dataObj["type"].(string); t != "" {
				typ = t
			}
		}
		meta, ok := e.reg.GetByType(typ)
		if !ok {
			results = append(results, map[string]any{
				"data": jsonapi.ResourceIdentifier{Type: typ, ID: o.ID},
			})
			continue
		}

		if o.Resource == nil {
			results = append(results, map[string]any{
				"data": jsonapi.ResourceIdentifier{Type: typ, ID: o.ID},
			})
			continue
		}
		ro := e.builder.BuildResourceObject(o.Resource, meta, e.acc, nil, registry.GroupRead)
		results = append(results, map[string]any{"data": ro})
	}

	body, err := sonic.Marshal(map[string]any{
		"atomic:results": results,
		"jsonapi":        jsonapi.JSONAPIObject{Version: jsonapi.Version},
	})
	if err != nil {
		m := &jsonapierr.Multi{}
		m.Add(jsonapierr.New(jsonapierr.CodeInternal, "failed to render atomic:results: "+err.Error()))
		return e.renderErrors(m)
	}

	return &Result{Status: http.StatusOK, Body: body, Headers: map[string]string{"Content-Type": contentType}}
}

func (r *wireRef) typeOrEmpty() string {
	if r == nil {
		return ""
	}
	return r.Type
}
