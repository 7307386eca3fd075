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
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonapi.dev/engine/changeset"
	"jsonapi.dev/engine/collab"
	"jsonapi.dev/engine/criteria"
	"jsonapi.dev/engine/document"
	"jsonapi.dev/engine/jsonapi"
	"jsonapi.dev/engine/logging"
	"jsonapi.dev/engine/registry"
)

type fakeArticle struct {
	id    string
	title string
}

func (a fakeArticle) ResourceID() string { return a.id }

type fakeAccessor struct{}

func (fakeAccessor) ID(e any) string { return e.(fakeArticle).id }
func (fakeAccessor) Attribute(e any, path string) any {
	if path == "title" {
		return e.(fakeArticle).title
	}
	return nil
}
func (fakeAccessor) ToOneID(e any, name string) (string, bool) { return "", true }
func (fakeAccessor) ToManyIDs(e any, name string) []string     { return nil }
func (fakeAccessor) UpdatedAt(e any) (time.Time, bool)         { return time.Time{}, false }

type fakeRepo struct {
	items []any
}

func (r *fakeRepo) FindCollection(_ context.Context, _ string, _ *criteria.Criteria) (document.Slice, error) {
	return document.Slice{Items: r.items, TotalItems: len(r.items)}, nil
}

func (r *fakeRepo) FindOne(_ context.Context, _, id string, _ *criteria.Criteria) (any, error) {
	for _, it := range r.items {
		if it.(fakeArticle).id == id {
			return it, nil
		}
	}
	return nil, collab.ErrNotFound
}

func (r *fakeRepo) FindRelated(_ context.Context, _, _ string, _ []string) ([]any, error) {
	return nil, nil
}

type fakePersister struct {
	nextID  int
	created []fakeArticle
	updated []string
}

func (p *fakePersister) Create(_ context.Context, _ string, cs *changeset.ChangeSet, clientID string) (any, error) {
	id := clientID
	if id == "" {
		p.nextID++
		id = "gen" + string(rune('0'+p.nextID))
	}
	title, _ := cs.Attributes["title"].(string)
	a := fakeArticle{id: id, title: title}
	p.created = append(p.created, a)
	return a, nil
}

func (p *fakePersister) Update(_ context.Context, _, id string, cs *changeset.ChangeSet) (any, error) {
	p.updated = append(p.updated, id)
	title, _ := cs.Attributes["title"].(string)
	return fakeArticle{id: id, title: title}, nil
}

func (p *fakePersister) Delete(_ context.Context, _, _ string) error { return nil }

type fakeTxManager struct{ rolledBack bool }

func (tm *fakeTxManager) Transactional(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := fn(ctx)
	if err != nil {
		tm.rolledBack = true
	}
	return result, err
}

type fakeRelUpdater struct {
	replaced map[string]any
}

func (u *fakeRelUpdater) Replace(_ context.Context, _, id, name string, target any) error {
	if u.replaced == nil {
		u.replaced = map[string]any{}
	}
	u.replaced[id+"/"+name] = target
	return nil
}
func (u *fakeRelUpdater) Add(_ context.Context, _, _, _ string, _ []string) error    { return nil }
func (u *fakeRelUpdater) Remove(_ context.Context, _, _, _ string, _ []string) error { return nil }

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewBuilder().
		Register(registry.ResourceMetadata{
			Type:           "articles",
			Attributes:     map[string]registry.AttributeMetadata{"title": {Name: "title", PropertyPath: "title"}},
			AttributeOrder: []string{"title"},
			Relationships: map[string]registry.RelationshipMetadata{
				"author": {Name: "author", TargetType: "authors"},
			},
			RelationshipOrder: []string{"author"},
		}).
		Register(registry.ResourceMetadata{Type: "authors"}).
		Build()
	require.NoError(t, err)
	return reg
}

func newTestEngine(t *testing.T, repo collab.ResourceRepository, persister collab.ResourcePersister, relUpdater collab.RelationshipUpdater, txm collab.TransactionManager) *Engine {
	t.Helper()
	e, err := New(NewConfig(), newTestRegistry(t), Collaborators{
		Repo:       repo,
		Persister:  persister,
		RelUpdater: relUpdater,
		TxManager:  txm,
		Accessor:   fakeAccessor{},
	})
	require.NoError(t, err)
	return e
}

func req(method, path string, body string) *jsonapi.RequestContext {
	r := &jsonapi.RequestContext{
		Method: method,
		URL:    &url.URL{Path: path},
	}
	if body != "" {
		r.Headers = map[string][]string{"Content-Type": {jsonapi.BaseMediaType}}
		r.Body = strings.NewReader(body)
	}
	return r
}

func TestHandle_CollectionGet(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{items: []any{fakeArticle{id: "1", title: "Hello"}}}
	txm := &fakeTxManager{}
	e := newTestEngine(t, repo, nil, nil, txm)

	result := e.Handle(context.Background(), req(http.MethodGet, "/api/articles", ""))

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Contains(t, string(result.Body), `"title":"Hello"`)
	assert.Equal(t, jsonapi.BaseMediaType, result.Headers["Content-Type"])
}

func TestHandle_LogsRequestThroughConfiguredLogger(t *testing.T) {
	t.Parallel()

	logger, buf := logging.NewTestLogger()
	repo := &fakeRepo{items: []any{fakeArticle{id: "1", title: "Hello"}}}
	txm := &fakeTxManager{}
	e, err := New(NewConfig(WithLogger(logger)), newTestRegistry(t), Collaborators{
		Repo:      repo,
		TxManager: txm,
		Accessor:  fakeAccessor{},
	})
	require.NoError(t, err)

	result := e.Handle(context.Background(), req(http.MethodGet, "/api/articles", ""))
	require.Equal(t, http.StatusOK, result.Status)

	entries, err := logging.ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	var sawRequestLog bool
	for _, entry := range entries {
		if entry.Message == "http request" {
			sawRequestLog = true
			assert.Equal(t, "GET", entry.Attrs["method"])
			assert.Equal(t, "/api/articles", entry.Attrs["path"])
		}
	}
	assert.True(t, sawRequestLog, "expected Handle to log the inbound request via the configured logger")
}

func TestHandle_LogsErrorsThroughConfiguredLogger(t *testing.T) {
	t.Parallel()

	logger, buf := logging.NewTestLogger()
	txm := &fakeTxManager{}
	e, err := New(NewConfig(WithLogger(logger)), newTestRegistry(t), Collaborators{
		Repo:      &fakeRepo{},
		TxManager: txm,
		Accessor:  fakeAccessor{},
	})
	require.NoError(t, err)

	result := e.Handle(context.Background(), req(http.MethodGet, "/api/bogus/path/too/long", ""))
	require.Equal(t, http.StatusNotFound, result.Status)

	entries, err := logging.ParseJSONLogEntries(buf)
	require.NoError(t, err)
	var sawErrorLog bool
	for _, entry := range entries {
		if entry.Level == "ERROR" {
			sawErrorLog = true
		}
	}
	assert.True(t, sawErrorLog, "expected the 404 to be logged as an error via the configured logger")
}

func TestHandle_UnknownRouteIs404(t *testing.T) {
	t.Parallel()

	txm := &fakeTxManager{}
	e := newTestEngine(t, &fakeRepo{}, nil, nil, txm)

	result := e.Handle(context.Background(), req(http.MethodGet, "/api/bogus/path/too/long", ""))

	assert.Equal(t, http.StatusNotFound, result.Status)
}

func TestHandle_Create(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{}
	txm := &fakeTxManager{}
	e := newTestEngine(t, &fakeRepo{}, persister, nil, txm)

	body := `{"data":{"type":"articles","attributes":{"title":"New"}}}`
	result := e.Handle(context.Background(), req(http.MethodPost, "/api/articles", body))

	assert.Equal(t, http.StatusCreated, result.Status)
	require.Len(t, persister.created, 1)
	assert.Equal(t, "New", persister.created[0].title)
}

func TestHandle_RejectsBadAccept(t *testing.T) {
	t.Parallel()

	txm := &fakeTxManager{}
	e := newTestEngine(t, &fakeRepo{}, nil, nil, txm)

	r := req(http.MethodGet, "/api/articles", "")
	r.Headers = map[string][]string{"Accept": {"text/plain"}}

	result := e.Handle(context.Background(), r)

	assert.Equal(t, http.StatusNotAcceptable, result.Status)
}

func TestHandle_AtomicAddThenUpdateWithLID(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{}
	txm := &fakeTxManager{}
	e := newTestEngine(t, &fakeRepo{}, persister, nil, txm)

	body := `{
		"atomic:operations": [
			{"op": "add", "data": {"type": "articles", "lid": "temp-1", "attributes": {"title": "First"}}},
			{"op": "update", "ref": {"type": "articles", "lid": "temp-1"}, "data": {"type": "articles", "lid": "temp-1", "attributes": {"title": "Second"}}}
		]
	}`

	r := req(http.MethodPost, "/api/operations", body)
	r.Headers["Accept"] = []string{`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`}
	r.Headers["Content-Type"] = []string{`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`}

	result := e.Handle(context.Background(), r)

	require.Equal(t, http.StatusOK, result.Status)
	assert.Contains(t, string(result.Body), "atomic:results")
	assert.False(t, txm.rolledBack)
	require.Len(t, persister.updated, 1)
	assert.Equal(t, `application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`, result.Headers["Content-Type"])
}

func TestHandle_AtomicRollbackReportsPointer(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{}
	txm := &fakeTxManager{}
	e := newTestEngine(t, &fakeRepo{}, persister, nil, txm)

	body := `{
		"atomic:operations": [
			{"op": "add", "data": {"type": "articles", "attributes": {"title": "First"}}},
			{"op": "remove", "ref": {"type": "articles", "lid": "never-declared"}}
		]
	}`

	r := req(http.MethodPost, "/api/operations", body)
	r.Headers["Accept"] = []string{`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`}
	r.Headers["Content-Type"] = []string{`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`}

	result := e.Handle(context.Background(), r)

	assert.True(t, txm.rolledBack)
	assert.Contains(t, string(result.Body), `/atomic:operations/1`)
}

func TestHandle_AtomicRelationshipVariant(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{}
	relUpdater := &fakeRelUpdater{}
	txm := &fakeTxManager{}
	e := newTestEngine(t, &fakeRepo{}, persister, relUpdater, txm)

	body := `{
		"atomic:operations": [
			{"op": "update", "ref": {"type": "articles", "id": "1", "relationship": "author"}, "data": {"type": "authors", "id": "A1"}}
		]
	}`

	r := req(http.MethodPost, "/api/operations", body)
	r.Headers["Accept"] = []string{`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`}
	r.Headers["Content-Type"] = []string{`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`}

	result := e.Handle(context.Background(), r)

	require.Equal(t, http.StatusNoContent, result.Status)
	assert.Equal(t, "A1", relUpdater.replaced["1/author"])
}
