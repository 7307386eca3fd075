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

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	"jsonapi.dev/engine/collab"
	"jsonapi.dev/engine/criteria"
	"jsonapi.dev/engine/document"
	"jsonapi.dev/engine/hooks"
	"jsonapi.dev/engine/include"
	"jsonapi.dev/engine/jsonapi"
	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/precondition"
	"jsonapi.dev/engine/registry"
	"jsonapi.dev/engine/surrogate"
)

// WriteResponseMode controls the body shape of a successful relationship
// write (spec.md §4.8).
type WriteResponseMode string

const (
	WriteResponseLinkage   WriteResponseMode = "linkage"
	WriteResponseNoContent WriteResponseMode = "204"
)

// Config controls dispatcher-wide policy.
type Config struct {
	RoutePrefix               string
	AllowRelationshipWrites   bool
	RelationshipWriteResponse WriteResponseMode
	Document                  document.Config
	Limits                    criteria.Limits
	Precondition              precondition.RequirePolicy
	WeakETagForCollections    bool
}

// Response is the fully-assembled outcome of one dispatched request.
type Response struct {
	Status        int
	Doc           *jsonapi.Document
	Headers       map[string]string
	NoBody        bool
	SurrogateKeys string
}

// Dispatcher implements the CRUD Dispatcher component: it is the only piece
// of the engine that touches the host's collaborator interfaces directly.
type Dispatcher struct {
	cfg        Config
	reg        *registry.Registry
	builder    *document.Builder
	acc        document.Accessor
	repo       collab.ResourceRepository
	persister  collab.ResourcePersister
	relReader  collab.RelationshipReader
	relUpdater collab.RelationshipUpdater
	existence  collab.ExistenceChecker
	hooks      *hooks.Dispatcher
}

// New builds a Dispatcher bound to its collaborators. Any collaborator not
// needed by the host's enabled endpoints may be nil; the relevant handler
// returns a 500 internal error if invoked without one.
func New(cfg Config, reg *registry.Registry, acc document.Accessor, repo collab.ResourceRepository, persister collab.ResourcePersister, relReader collab.RelationshipReader, relUpdater collab.RelationshipUpdater, existence collab.ExistenceChecker, hookDispatcher *hooks.Dispatcher) *Dispatcher {
	if cfg.RoutePrefix == "" {
		cfg.RoutePrefix = "/api"
	}
	if cfg.RelationshipWriteResponse == "" {
		cfg.RelationshipWriteResponse = WriteResponseLinkage
	}
	return &Dispatcher{
		cfg:        cfg,
		reg:        reg,
		builder:    document.NewBuilder(reg, cfg.Document),
		acc:        acc,
		repo:       repo,
		persister:  persister,
		relReader:  relReader,
		relUpdater: relUpdater,
		existence:  existence,
		hooks:      hookDispatcher,
	}
}

// Dispatch routes one negotiated, parsed request to its endpoint handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req *jsonapi.RequestContext, route Route, activeProfiles []string, body []byte) (*Response, *jsonapierr.Multi) {
	meta, ok := d.reg.GetByType(route.Type)
	if !ok {
		return nil, single(jsonapierr.New(jsonapierr.CodeNotFound, "unknown resource type \""+route.Type+"\""))
	}

	switch route.Kind {
	case KindCollection:
		switch req.Method {
		case http.MethodGet:
			return d.getCollection(ctx, req, meta, activeProfiles)
		case http.MethodPost:
			return d.create(ctx, req, meta, body, activeProfiles)
		}
	case KindResource:
		switch req.Method {
		case http.MethodGet:
			return d.getResource(ctx, req, meta, route.ID, activeProfiles)
		case http.MethodPatch:
			return d.update(ctx, req, meta, route.ID, body)
		case http.MethodDelete:
			return d.delete(ctx, req, meta, route.ID)
		}
	case KindRelationshipSelf:
		relMeta, ok := meta.Relationship(route.Relationship)
		if !ok {
			return nil, single(jsonapierr.New(jsonapierr.CodeUnknownRelationship, "unknown relationship \""+route.Relationship+"\""))
		}
		switch req.Method {
		case http.MethodGet:
			return d.getRelationship(ctx, meta, relMeta, route.ID, route.Relationship)
		case http.MethodPatch, http.MethodPost, http.MethodDelete:
			if !d.cfg.AllowRelationshipWrites {
				return nil, single(jsonapierr.New(jsonapierr.CodeMethodNotAllowed, "relationship writes are disabled"))
			}
			return d.writeRelationship(ctx, meta, relMeta, route.ID, route.Relationship, req.Method, body)
		}
	case KindRelated:
		if req.Method == http.MethodGet {
			return d.getRelated(ctx, req, meta, route.ID, route.Relationship, activeProfiles)
		}
	}

	return nil, single(jsonapierr.New(jsonapierr.CodeMethodNotAllowed, "method \""+req.Method+"\" not allowed for this path"))
}

func (d *Dispatcher) getCollection(ctx context.Context, req *jsonapi.RequestContext, meta registry.ResourceMetadata, activeProfiles []string) (*Response, *jsonapierr.Multi) {
	c, errs := criteria.Parse(req.URL.RawQuery, meta.Type, d.reg, d.cfg.Limits)
	if errs.HasErrors() {
		return nil, errs
	}

	if d.hooks != nil {
		if err := d.hooks.Run(hooks.PhaseBeforeFindCollection, activeProfiles, c); err != nil {
			return nil, single(jsonapierr.New(jsonapierr.CodeInternal, err.Error()))
		}
	}

	slice, err := d.repo.FindCollection(ctx, meta.Type, c)
	if err != nil {
		return nil, single(mapCollabErr(err))
	}

	primaries := make([]*jsonapi.ResourceObject, 0, len(slice.Items))
	entities := make([]include.Entity, 0, len(slice.Items))
	for _, item := range slice.Items {
		ro := d.builder.BuildResourceObject(item, meta, d.acc, c, registry.GroupRead)
		primaries = append(primaries, ro)
		entities = append(entities, include.Entity{Type: meta.Type, ID: ro.ID, Value: item})
	}

	_, includedROs, incErr := d.expandIncludes(entities, c)
	if incErr != nil {
		return nil, single(incErr)
	}

	doc := d.builder.BuildCollectionDocument(primaries, includedROs, slice, req.URL)
	if d.hooks != nil {
		if err := d.hooks.Run(hooks.PhaseTopLevelMeta, activeProfiles, doc); err != nil {
			return nil, single(jsonapierr.New(jsonapierr.CodeInternal, err.Error()))
		}
	}

	resp := &Response{Status: http.StatusOK, Doc: doc, Headers: map[string]string{}}
	resp.SurrogateKeys = surrogateKeysFor(meta.Type, primaries, includedROs)
	return resp, nil
}

func (d *Dispatcher) getResource(ctx context.Context, req *jsonapi.RequestContext, meta registry.ResourceMetadata, id string, activeProfiles []string) (*Response, *jsonapierr.Multi) {
	c, errs := criteria.Parse(req.URL.RawQuery, meta.Type, d.reg, d.cfg.Limits)
	if errs.HasErrors() {
		return nil, errs
	}

	if d.hooks != nil {
		if err := d.hooks.Run(hooks.PhaseBeforeFindOne, activeProfiles, c); err != nil {
			return nil, single(jsonapierr.New(jsonapierr.CodeInternal, err.Error()))
		}
	}

	entity, err := d.repo.FindOne(ctx, meta.Type, id, c)
	if err != nil {
		return nil, single(mapCollabErr(err))
	}

	ro := d.builder.BuildResourceObject(entity, meta, d.acc, c, registry.GroupRead)
	state := resourceState(ro, d.acc, entity, false)

	if outcome := precondition.EvaluateRead(conditionalHeaders(req), state); outcome == precondition.NotModified {
		return &Response{Status: http.StatusNotModified, NoBody: true, Headers: map[string]string{"ETag": state.ETag.String()}}, nil
	}

	entities := []include.Entity{{Type: meta.Type, ID: ro.ID, Value: entity}}
	_, includedROs, incErr := d.expandIncludes(entities, c)
	if incErr != nil {
		return nil, single(incErr)
	}

	doc := d.builder.BuildSingleDocument(ro, includedROs)
	resp := &Response{
		Status: http.StatusOK,
		Doc:    doc,
		Headers: map[string]string{
			"ETag": state.ETag.String(),
		},
	}
	resp.SurrogateKeys = surrogateKeysFor(meta.Type, []*jsonapi.ResourceObject{ro}, includedROs)
	return resp, nil
}

func (d *Dispatcher) create(ctx context.Context, req *jsonapi.RequestContext, meta registry.ResourceMetadata, body []byte, activeProfiles []string) (*Response, *jsonapierr.Multi) {
	read, errs := document.Read(body, meta, registry.GroupCreate, "")
	if errs != nil {
		return nil, errs
	}

	if read.ID != "" && d.existence != nil {
		exists, err := d.existence.Exists(ctx, meta.Type, read.ID)
		if err != nil {
			return nil, single(jsonapierr.New(jsonapierr.CodeInternal, err.Error()))
		}
		if exists {
			return nil, single(jsonapierr.New(jsonapierr.CodeConflict, "resource id \""+read.ID+"\" already exists").WithPointer("/data/id"))
		}
	}

	if d.hooks != nil {
		if err := d.hooks.Run(hooks.PhaseBeforeCreate, activeProfiles, read.ChangeSet); err != nil {
			return nil, single(jsonapierr.New(jsonapierr.CodeInternal, err.Error()))
		}
	}

	entity, err := d.persister.Create(ctx, meta.Type, read.ChangeSet, read.ID)
	if err != nil {
		return nil, single(mapCollabErr(err))
	}

	ro := d.builder.BuildResourceObject(entity, meta, d.acc, nil, registry.GroupRead)
	doc := d.builder.BuildSingleDocument(ro, nil)

	return &Response{
		Status: http.StatusCreated,
		Doc:    doc,
		Headers: map[string]string{
			"Location": fmt.Sprintf("%s/%s/%s", d.cfg.RoutePrefix, meta.Type, ro.ID),
		},
		SurrogateKeys: surrogate.Keys([]surrogate.Ref{{Type: meta.Type, ID: ro.ID}}),
	}, nil
}

func (d *Dispatcher) update(ctx context.Context, req *jsonapi.RequestContext, meta registry.ResourceMetadata, id string, body []byte) (*Response, *jsonapierr.Multi) {
	if status, precErr := d.checkWritePrecondition(ctx, req, meta, id); precErr != nil {
		return nil, single(precErr)
	} else if status != 0 {
		return &Response{Status: status, NoBody: true}, nil
	}

	read, errs := document.Read(body, meta, registry.GroupUpdate, id)
	if errs != nil {
		return nil, errs
	}

	entity, err := d.persister.Update(ctx, meta.Type, id, read.ChangeSet)
	if err != nil {
		return nil, single(mapCollabErr(err))
	}

	ro := d.builder.BuildResourceObject(entity, meta, d.acc, nil, registry.GroupRead)
	doc := d.builder.BuildSingleDocument(ro, nil)

	return &Response{
		Status:        http.StatusOK,
		Doc:           doc,
		Headers:       map[string]string{},
		SurrogateKeys: surrogate.Keys([]surrogate.Ref{{Type: meta.Type, ID: ro.ID}}),
	}, nil
}

func (d *Dispatcher) delete(ctx context.Context, req *jsonapi.RequestContext, meta registry.ResourceMetadata, id string) (*Response, *jsonapierr.Multi) {
	if status, precErr := d.checkWritePrecondition(ctx, req, meta, id); precErr != nil {
		return nil, single(precErr)
	} else if status != 0 {
		return &Response{Status: status, NoBody: true}, nil
	}

	if err := d.persister.Delete(ctx, meta.Type, id); err != nil {
		return nil, single(mapCollabErr(err))
	}

	return &Response{
		Status:        http.StatusNoContent,
		NoBody:        true,
		SurrogateKeys: surrogate.Keys([]surrogate.Ref{{Type: meta.Type, ID: id}}),
	}, nil
}

// checkWritePrecondition evaluates conditional headers against the current
// entity before a PATCH/DELETE proceeds. Returns a non-zero status when the
// caller should short-circuit (304/412/428 territory — here only 412/428
// apply since conditional writes never return 304).
func (d *Dispatcher) checkWritePrecondition(ctx context.Context, req *jsonapi.RequestContext, meta registry.ResourceMetadata, id string) (int, *jsonapierr.E) {
	h := conditionalHeaders(req)
	if h.IfMatch == "" && h.IfUnmodifiedSince == "" && !d.cfg.Precondition.RequireIfMatchOnWrite {
		return 0, nil
	}

	entity, err := d.repo.FindOne(ctx, meta.Type, id, nil)
	if err != nil {
		return 0, mapCollabErr(err)
	}
	ro := d.builder.BuildResourceObject(entity, meta, d.acc, nil, registry.GroupRead)
	state := resourceState(ro, d.acc, entity, false)

	outcome, precErr := precondition.EvaluateWrite(h, state, d.cfg.Precondition)
	switch outcome {
	case precondition.PreconditionFailed:
		return http.StatusPreconditionFailed, precErr
	case precondition.PreconditionRequired:
		return http.StatusPreconditionRequired, precErr
	}
	return 0, nil
}

func (d *Dispatcher) getRelationship(ctx context.Context, meta registry.ResourceMetadata, relMeta registry.RelationshipMetadata, id, relName string) (*Response, *jsonapierr.Multi) {
	if d.relReader == nil {
		return nil, single(jsonapierr.New(jsonapierr.CodeInternal, "no relationship reader configured"))
	}

	if relMeta.ToMany {
		ids, err := d.relReader.GetToManyIDs(ctx, meta.Type, id, relName, criteria.Pagination{Number: 1, Size: d.cfg.Limits.DefaultPageSize})
		if err != nil {
			return nil, single(mapCollabErr(err))
		}
		idents := make([]jsonapi.ResourceIdentifier, 0, len(ids))
		for _, relID := range ids {
			idents = append(idents, jsonapi.ResourceIdentifier{Type: relMeta.TargetType, ID: relID})
		}
		return &Response{Status: http.StatusOK, Doc: &jsonapi.Document{JSONAPI: jsonapi.JSONAPIObject{Version: jsonapi.Version}, Data: jsonapi.LinkageOf(idents)}}, nil
	}

	relID, isNull, err := d.relReader.GetToOneID(ctx, meta.Type, id, relName)
	if err != nil {
		return nil, single(mapCollabErr(err))
	}
	doc := &jsonapi.Document{JSONAPI: jsonapi.JSONAPIObject{Version: jsonapi.Version}}
	if isNull {
		doc.Data = jsonapi.NullLinkage()
	} else {
		doc.Data = jsonapi.LinkageOf(jsonapi.ResourceIdentifier{Type: relMeta.TargetType, ID: relID})
	}
	return &Response{Status: http.StatusOK, Doc: doc}, nil
}

func (d *Dispatcher) writeRelationship(ctx context.Context, meta registry.ResourceMetadata, relMeta registry.RelationshipMetadata, id, relName, method string, body []byte) (*Response, *jsonapierr.Multi) {
	if d.relUpdater == nil {
		return nil, single(jsonapierr.New(jsonapierr.CodeInternal, "no relationship updater configured"))
	}

	var envelope struct {
		Data any `json:"data"`
	}
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return nil, single(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "malformed relationship document: "+err.Error()).WithPointer("/data"))
	}

	switch method {
	case http.MethodPatch:
		if relMeta.ToMany {
			ids, convErr := toManyIDs(envelope.Data)
			if convErr != nil {
				return nil, single(convErr)
			}
			if err := d.relUpdater.Replace(ctx, meta.Type, id, relName, ids); err != nil {
				return nil, single(mapCollabErr(err))
			}
		} else {
			target, convErr := toOneTarget(envelope.Data)
			if convErr != nil {
				return nil, single(convErr)
			}
			if err := d.relUpdater.Replace(ctx, meta.Type, id, relName, target); err != nil {
				return nil, single(mapCollabErr(err))
			}
		}
	case http.MethodPost:
		if !relMeta.ToMany {
			return nil, single(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "cannot add to a to-one relationship"))
		}
		ids, convErr := toManyIDs(envelope.Data)
		if convErr != nil {
			return nil, single(convErr)
		}
		if err := d.relUpdater.Add(ctx, meta.Type, id, relName, ids); err != nil {
			return nil, single(mapCollabErr(err))
		}
	case http.MethodDelete:
		if !relMeta.ToMany {
			return nil, single(jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "cannot remove from a to-one relationship"))
		}
		ids, convErr := toManyIDs(envelope.Data)
		if convErr != nil {
			return nil, single(convErr)
		}
		if err := d.relUpdater.Remove(ctx, meta.Type, id, relName, ids); err != nil {
			return nil, single(mapCollabErr(err))
		}
	}

	if d.cfg.RelationshipWriteResponse == WriteResponseNoContent {
		return &Response{Status: http.StatusNoContent, NoBody: true}, nil
	}
	return d.getRelationship(ctx, meta, relMeta, id, relName)
}

func (d *Dispatcher) getRelated(ctx context.Context, req *jsonapi.RequestContext, meta registry.ResourceMetadata, id, relName string, activeProfiles []string) (*Response, *jsonapierr.Multi) {
	relMeta, ok := meta.Relationship(relName)
	if !ok {
		return nil, single(jsonapierr.New(jsonapierr.CodeUnknownRelationship, "unknown relationship \""+relName+"\""))
	}
	targetMeta, ok := d.reg.GetByType(relMeta.TargetType)
	if !ok {
		return nil, single(jsonapierr.New(jsonapierr.CodeInternal, "relationship target type \""+relMeta.TargetType+"\" is not registered"))
	}

	if d.hooks != nil {
		if err := d.hooks.Run(hooks.PhaseBeforeRelationshipRead, activeProfiles, nil); err != nil {
			return nil, single(jsonapierr.New(jsonapierr.CodeInternal, err.Error()))
		}
	}

	related, err := d.repo.FindRelated(ctx, meta.Type, relName, []string{id})
	if err != nil {
		return nil, single(mapCollabErr(err))
	}

	if !relMeta.ToMany {
		if len(related) == 0 {
			// A null to-one relationship's "related" endpoint response carries
			// an explicit "data": null rather than omitting the member
			// (SPEC_FULL.md's null-safety supplement).
			return &Response{Status: http.StatusOK, Doc: &jsonapi.Document{JSONAPI: jsonapi.JSONAPIObject{Version: jsonapi.Version}, Data: jsonapi.NullLinkage()}}, nil
		}
		ro := d.builder.BuildResourceObject(related[0], targetMeta, d.acc, nil, registry.GroupRead)
		return &Response{Status: http.StatusOK, Doc: d.builder.BuildSingleDocument(ro, nil), SurrogateKeys: surrogateKeysFor(targetMeta.Type, []*jsonapi.ResourceObject{ro}, nil)}, nil
	}

	primaries := make([]*jsonapi.ResourceObject, 0, len(related))
	for _, item := range related {
		primaries = append(primaries, d.builder.BuildResourceObject(item, targetMeta, d.acc, nil, registry.GroupRead))
	}
	slice := document.Slice{Items: related, PageNumber: 1, PageSize: d.cfg.Limits.DefaultPageSize, TotalItems: len(related)}
	doc := d.builder.BuildCollectionDocument(primaries, nil, slice, req.URL)
	return &Response{Status: http.StatusOK, Doc: doc, SurrogateKeys: surrogateKeysFor(targetMeta.Type, primaries, nil)}, nil
}

func (d *Dispatcher) expandIncludes(primary []include.Entity, c *criteria.Criteria) ([]include.Entity, []*jsonapi.ResourceObject, *jsonapierr.E) {
	if c == nil || len(c.Include) == 0 || d.repo == nil {
		return nil, nil, nil
	}

	loader := repositoryLoader{repo: d.repo, reg: d.reg, acc: d.acc}
	entities, err := include.Expand(primary, c.Include, loader)
	if err != nil {
		return nil, nil, err
	}

	ros := make([]*jsonapi.ResourceObject, 0, len(entities))
	for _, e := range entities {
		meta, ok := d.reg.GetByType(e.Type)
		if !ok {
			continue
		}
		ros = append(ros, d.builder.BuildResourceObject(e.Value, meta, d.acc, c, registry.GroupRead))
	}
	return entities, ros, nil
}

// repositoryLoader adapts collab.ResourceRepository.FindRelated to the
// include.Loader contract, tagging each result with its own (type,id) from
// the registry-declared relationship target so include.Expand's visited-set
// deduplication has a key to work with.
type repositoryLoader struct {
	repo collab.ResourceRepository
	reg  *registry.Registry
	acc  document.Accessor
}

func (l repositoryLoader) LoadRelated(parentType string, parentIDs []string, relationshipName string) ([]include.Entity, error) {
	parentMeta, ok := l.reg.GetByType(parentType)
	if !ok {
		return nil, fmt.Errorf("dispatch: unknown type %q in include walk", parentType)
	}
	relMeta, ok := parentMeta.Relationship(relationshipName)
	if !ok {
		return nil, fmt.Errorf("dispatch: type %q has no relationship %q", parentType, relationshipName)
	}

	items, err := l.repo.FindRelated(context.Background(), parentType, relationshipName, parentIDs)
	if err != nil {
		return nil, err
	}
	out := make([]include.Entity, 0, len(items))
	for _, item := range items {
		out = append(out, include.Entity{Type: relMeta.TargetType, ID: l.acc.ID(item), Value: item})
	}
	return out, nil
}

func single(e *jsonapierr.E) *jsonapierr.Multi {
	m := &jsonapierr.Multi{}
	m.Add(e)
	return m
}

func mapCollabErr(err error) *jsonapierr.E {
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

func conditionalHeaders(req *jsonapi.RequestContext) precondition.Headers {
	return precondition.Headers{
		IfMatch:           req.Header("If-Match"),
		IfNoneMatch:       req.Header("If-None-Match"),
		IfModifiedSince:   req.Header("If-Modified-Since"),
		IfUnmodifiedSince: req.Header("If-Unmodified-Since"),
	}
}

func resourceState(ro *jsonapi.ResourceObject, acc document.Accessor, entity any, weak bool) precondition.State {
	canonical := document.Canonicalize(map[string]any{"type": ro.Type, "id": ro.ID, "attributes": ro.Attributes})
	var tag precondition.ETag
	if weak {
		tag = precondition.WeakFromBytes(canonical)
	} else {
		tag = precondition.StrongFromBytes(canonical)
	}
	state := precondition.State{ETag: tag}
	if t, ok := acc.UpdatedAt(entity); ok {
		state.LastModified = t
	}
	return state
}

func surrogateKeysFor(primaryType string, primaries, included []*jsonapi.ResourceObject) string {
	refs := make([]surrogate.Ref, 0, len(primaries)+len(included))
	for _, ro := range primaries {
		refs = append(refs, surrogate.Ref{Type: ro.Type, ID: ro.ID})
	}
	for _, ro := range included {
		refs = append(refs, surrogate.Ref{Type: ro.Type, ID: ro.ID})
	}
	if len(refs) == 0 {
		refs = append(refs, surrogate.Ref{Type: primaryType, ID: ""})
	}
	return surrogate.Keys(refs)
}

func toOneTarget(data any) (*string, *jsonapierr.E) {
	if data == nil {
		return nil, nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "to-one relationship data must be a resource identifier or null").WithPointer("/data")
	}
	id, _ := obj["id"].(string)
	if id == "" {
		return nil, jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "resource identifier requires id").WithPointer("/data")
	}
	return &id, nil
}

func toManyIDs(data any) ([]string, *jsonapierr.E) {
	list, ok := data.([]any)
	if !ok {
		return nil, jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "to-many relationship data must be an array of resource identifiers").WithPointer("/data")
	}
	ids := make([]string, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "resource identifier must be an object").WithPointer("/data")
		}
		id, _ := obj["id"].(string)
		if id == "" {
			return nil, jsonapierr.New(jsonapierr.CodeInvalidRelationshipData, "resource identifier requires id").WithPointer("/data")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
