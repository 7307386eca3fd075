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

// Package atomicops implements the Atomic Operations extension's state
// machine: PARSE -> (EXECUTE -> RECORD-LID?)* -> COMMIT, with ROLLBACK on
// any failure (spec.md §4.9). No separate flush is issued between
// operations; a later operation sees an earlier one's writes only through
// the TransactionManager's read-your-writes guarantee.
package atomicops

import (
	"context"
	"errors"

	"jsonapi.dev/engine/changeset"
	"jsonapi.dev/engine/collab"
	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/refs"
)

// Kind is one of the three operation verbs.
type Kind string

const (
	KindAdd    Kind = "add"
	KindUpdate Kind = "update"
	KindRemove Kind = "remove"
)

// Operation is one parsed entry of "atomic:operations".
type Operation struct {
	Kind         Kind
	Type         string
	Ref          refs.Ref // target (type,id|lid) for update/remove
	Relationship string   // set when this op targets a relationship
	ChangeSet    *changeset.ChangeSet
	DataID       string // client-generated id, add only
	DataLID      string // lid this op's result should register, add only
}

// Outcome is one entry of "atomic:results", in request order.
type Outcome struct {
	Resource any
	ID       string
	NoContent bool
}

// ErrMaxOperationsExceeded describes a batch rejected before execution for
// carrying too many operations (spec.md §4.9 "Limits"). Execute does not
// return it: it reports that case as a *jsonapierr.E with code
// unknown-operation.
var ErrMaxOperationsExceeded = errors.New("atomicops: operation count exceeds max_operations")

// Execute runs ops strictly in order against persister (or relUpdater, for
// relationship-targeting operations), recording LIDs between operations,
// inside one TransactionManager-managed unit of work. It makes no flush
// call of its own between operations. On the
// first failure it returns the 0-based failing index and the mapped
// *jsonapierr.E; the caller (engine) composes the /atomic:operations/{index}
// pointer via jsonapierr.AtomicPointer. relUpdater may be nil if the host
// never enables relationship-targeting atomic operations.
func Execute(ctx context.Context, ops []Operation, maxOperations int, persister collab.ResourcePersister, relUpdater collab.RelationshipUpdater, lidReg *refs.LidRegistry, txm collab.TransactionManager) ([]Outcome, int, *jsonapierr.E) {
	if maxOperations > 0 && len(ops) > maxOperations {
		return nil, -1, jsonapierr.New(jsonapierr.CodeUnknownOperation, "operation count exceeds max_operations")
	}

	var outcomes []Outcome
	failedIndex := -1
	var opErr *jsonapierr.E

	_, txErr := txm.Transactional(ctx, func(ctx context.Context) (any, error) {
		for i, op := range ops {
			outcome, err := execOne(ctx, op, persister, relUpdater, lidReg)
			if err != nil {
				failedIndex = i
				opErr = err
				return nil, errors.New(err.Error())
			}
			outcomes = append(outcomes, outcome)
		}
		return outcomes, nil
	})

	if txErr != nil {
		if opErr == nil {
			opErr = jsonapierr.New(jsonapierr.CodeInternal, txErr.Error())
			if failedIndex < 0 {
				failedIndex = len(outcomes)
			}
		}
		return nil, failedIndex, opErr
	}

	return outcomes, -1, nil
}

func execOne(ctx context.Context, op Operation, persister collab.ResourcePersister, relUpdater collab.RelationshipUpdater, lidReg *refs.LidRegistry) (Outcome, *jsonapierr.E) {
	if op.Relationship != "" {
		return execRelationship(ctx, op, relUpdater, lidReg)
	}
	switch op.Kind {
	case KindAdd:
		return execAdd(ctx, op, persister, lidReg)
	case KindUpdate:
		return execUpdate(ctx, op, persister, lidReg)
	case KindRemove:
		return execRemove(ctx, op, persister, lidReg)
	default:
		return Outcome{}, jsonapierr.New(jsonapierr.CodeUnknownOperation, "unknown atomic operation kind \""+string(op.Kind)+"\"")
	}
}

// execRelationship handles the three relationship-variant operations
// (spec.md §4.9: "relationship variants (when ref.relationship set)").
func execRelationship(ctx context.Context, op Operation, relUpdater collab.RelationshipUpdater, lidReg *refs.LidRegistry) (Outcome, *jsonapierr.E) {
	if relUpdater == nil {
		return Outcome{}, jsonapierr.New(jsonapierr.CodeInternal, "no relationship updater configured for atomic relationship operations")
	}

	typ, id, refErr := op.Ref.Resolve(lidReg)
	if refErr != nil {
		return Outcome{}, refErr
	}
	if err := resolveChangeSetRefs(op.ChangeSet, lidReg); err != nil {
		return Outcome{}, err
	}

	switch op.Kind {
	case KindUpdate:
		if toOne, ok := op.ChangeSet.ToOne[op.Relationship]; ok {
			var target any
			if toOne != nil {
				target = toOne.ID
			}
			if err := relUpdater.Replace(ctx, typ, id, op.Relationship, target); err != nil {
				return Outcome{}, mapPersisterErr(err)
			}
			return Outcome{NoContent: true, ID: id}, nil
		}
		if err := relUpdater.Replace(ctx, typ, id, op.Relationship, idsFromRefs(op.ChangeSet.ToMany[op.Relationship])); err != nil {
			return Outcome{}, mapPersisterErr(err)
		}
	case KindAdd:
		if err := relUpdater.Add(ctx, typ, id, op.Relationship, idsFromRefs(op.ChangeSet.ToMany[op.Relationship])); err != nil {
			return Outcome{}, mapPersisterErr(err)
		}
	case KindRemove:
		if err := relUpdater.Remove(ctx, typ, id, op.Relationship, idsFromRefs(op.ChangeSet.ToMany[op.Relationship])); err != nil {
			return Outcome{}, mapPersisterErr(err)
		}
	default:
		return Outcome{}, jsonapierr.New(jsonapierr.CodeUnknownOperation, "unknown atomic relationship operation kind \""+string(op.Kind)+"\"")
	}
	return Outcome{NoContent: true, ID: id}, nil
}

func idsFromRefs(list []refs.Ref) []string {
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	return ids
}

func execAdd(ctx context.Context, op Operation, persister collab.ResourcePersister, lidReg *refs.LidRegistry) (Outcome, *jsonapierr.E) {
	if err := resolveChangeSetRefs(op.ChangeSet, lidReg); err != nil {
		return Outcome{}, err
	}

	resource, err := persister.Create(ctx, op.Type, op.ChangeSet, op.DataID)
	if err != nil {
		return Outcome{}, mapPersisterErr(err)
	}

	id := extractID(resource)
	if id == "" {
		id = op.DataID
	}
	if op.DataLID != "" {
		if declErr := lidReg.Declare(op.DataLID, id); declErr != nil {
			return Outcome{}, declErr
		}
	}

	return Outcome{Resource: resource, ID: id}, nil
}

func execUpdate(ctx context.Context, op Operation, persister collab.ResourcePersister, lidReg *refs.LidRegistry) (Outcome, *jsonapierr.E) {
	typ, id, refErr := op.Ref.Resolve(lidReg)
	if refErr != nil {
		return Outcome{}, refErr
	}
	if err := resolveChangeSetRefs(op.ChangeSet, lidReg); err != nil {
		return Outcome{}, err
	}

	resource, err := persister.Update(ctx, typ, id, op.ChangeSet)
	if err != nil {
		return Outcome{}, mapPersisterErr(err)
	}
	return Outcome{Resource: resource, ID: id}, nil
}

func execRemove(ctx context.Context, op Operation, persister collab.ResourcePersister, lidReg *refs.LidRegistry) (Outcome, *jsonapierr.E) {
	typ, id, refErr := op.Ref.Resolve(lidReg)
	if refErr != nil {
		return Outcome{}, refErr
	}

	if err := persister.Delete(ctx, typ, id); err != nil {
		return Outcome{}, mapPersisterErr(err)
	}
	return Outcome{NoContent: true, ID: id}, nil
}

// resolveChangeSetRefs resolves every LID appearing inside a ChangeSet's
// relationship data through the registry before use (spec.md §4.9: "every
// resource identifier in operation data... is passed through the registry
// before use").
func resolveChangeSetRefs(cs *changeset.ChangeSet, lidReg *refs.LidRegistry) *jsonapierr.E {
	if cs == nil {
		return nil
	}
	for name, ref := range cs.ToOne {
		if ref == nil || ref.LID == "" {
			continue
		}
		id, err := lidReg.Resolve(ref.LID)
		if err != nil {
			return err
		}
		cs.ToOne[name] = &refs.Ref{Type: ref.Type, ID: id}
	}
	for name, list := range cs.ToMany {
		resolved := make([]refs.Ref, 0, len(list))
		for _, ref := range list {
			if ref.LID == "" {
				resolved = append(resolved, ref)
				continue
			}
			id, err := lidReg.Resolve(ref.LID)
			if err != nil {
				return err
			}
			resolved = append(resolved, refs.Ref{Type: ref.Type, ID: id})
		}
		cs.ToMany[name] = resolved
	}
	return nil
}

func mapPersisterErr(err error) *jsonapierr.E {
	switch {
	case errors.Is(err, collab.ErrNotFound):
		return jsonapierr.New(jsonapierr.CodeNotFound, err.Error())
	case errors.Is(err, collab.ErrConflict):
		return jsonapierr.New(jsonapierr.CodeConflict, err.Error())
	case errors.Is(err, collab.ErrValidationFailed):
		return jsonapierr.New(jsonapierr.CodeUnprocessableEntity, err.Error())
	default:
		return jsonapierr.New(jsonapierr.CodeInternal, err.Error())
	}
}

// extractID recovers the id of a just-created resource. Hosts that don't
// return a type with a ResourceID() string method from Create must instead
// rely on a client-generated id (DataID), which execAdd falls back to.
func extractID(resource any) string {
	if idr, ok := resource.(interface{ ResourceID() string }); ok {
		return idr.ResourceID()
	}
	return ""
}
