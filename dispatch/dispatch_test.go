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
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonapi.dev/engine/collab"
	"jsonapi.dev/engine/jsonapi"
	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/registry"
)

type fakeEntity struct {
	id        string
	title     string
	updatedAt time.Time
}

type fakeAccessor struct{}

func (fakeAccessor) ID(e any) string { return e.(fakeEntity).id }
func (fakeAccessor) Attribute(e any, path string) any {
	if path == "title" {
		return e.(fakeEntity).title
	}
	return nil
}
func (fakeAccessor) ToOneID(e any, name string) (string, bool) { return "", true }
func (fakeAccessor) ToManyIDs(e any, name string) []string     { return nil }
func (fakeAccessor) UpdatedAt(e any) (time.Time, bool) {
	fe := e.(fakeEntity)
	return fe.updatedAt, !fe.updatedAt.IsZero()
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewBuilder().Register(registry.ResourceMetadata{
		Type:           "articles",
		Attributes:     map[string]registry.AttributeMetadata{"title": {Name: "title", PropertyPath: "title"}},
		AttributeOrder: []string{"title"},
	}).Build()
	require.NoError(t, err)
	return reg
}

func TestParseRoute(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want Route
		ok   bool
	}{
		{"/api/articles", Route{Kind: KindCollection, Type: "articles"}, true},
		{"/api/articles/1", Route{Kind: KindResource, Type: "articles", ID: "1"}, true},
		{"/api/articles/1/author", Route{Kind: KindRelated, Type: "articles", ID: "1", Relationship: "author"}, true},
		{"/api/articles/1/relationships/author", Route{Kind: KindRelationshipSelf, Type: "articles", ID: "1", Relationship: "author"}, true},
		{"/api/", Route{}, false},
		{"/api/articles/1/relationships", Route{}, false},
		{"/api/articles/1/bad/extra/segments", Route{}, false},
	}

	for _, tc := range cases {
		got, ok := ParseRoute(tc.path, "/api")
		assert.Equal(t, tc.ok, ok, tc.path)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.path)
		}
	}
}

func TestMapCollabErr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, jsonapierr.CodeNotFound, mapCollabErr(collab.ErrNotFound).Code)
	assert.Equal(t, jsonapierr.CodeConflict, mapCollabErr(collab.ErrConflict).Code)
	assert.Equal(t, jsonapierr.CodeUnprocessableEntity, mapCollabErr(collab.ErrValidationFailed).Code)
}

func TestToManyIDs(t *testing.T) {
	t.Parallel()

	ids, err := toManyIDs([]any{
		map[string]any{"type": "tags", "id": "1"},
		map[string]any{"type": "tags", "id": "2"},
	})
	require.Nil(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	_, err = toManyIDs(map[string]any{"type": "tags", "id": "1"})
	require.NotNil(t, err)
	assert.Equal(t, jsonapierr.CodeInvalidRelationshipData, err.Code)
}

func TestToOneTarget(t *testing.T) {
	t.Parallel()

	target, err := toOneTarget(nil)
	require.Nil(t, err)
	assert.Nil(t, target)

	target, err = toOneTarget(map[string]any{"type": "authors", "id": "A1"})
	require.Nil(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "A1", *target)
}

func TestDispatch_UnknownTypeIs404(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	d := New(Config{}, reg, fakeAccessor{}, nil, nil, nil, nil, nil, nil)

	req := &jsonapi.RequestContext{Method: http.MethodGet, URL: &url.URL{Path: "/api/widgets"}}
	_, errs := d.Dispatch(context.Background(), req, Route{Kind: KindCollection, Type: "widgets"}, nil, nil)
	require.NotNil(t, errs)
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, jsonapierr.CodeNotFound, errs.Errors[0].Code)
}

func TestDispatch_RelationshipWritesDisabledIs405(t *testing.T) {
	t.Parallel()

	reg, err := registry.NewBuilder().
		Register(registry.ResourceMetadata{
			Type: "articles",
			Relationships: map[string]registry.RelationshipMetadata{
				"author": {Name: "author", TargetType: "authors"},
			},
			RelationshipOrder: []string{"author"},
		}).
		Register(registry.ResourceMetadata{Type: "authors"}).
		Build()
	require.NoError(t, err)

	d := New(Config{AllowRelationshipWrites: false}, reg, fakeAccessor{}, nil, nil, nil, nil, nil, nil)

	req := &jsonapi.RequestContext{Method: http.MethodPatch, URL: &url.URL{Path: "/api/articles/1/relationships/author"}}
	_, errs := d.Dispatch(context.Background(), req, Route{Kind: KindRelationshipSelf, Type: "articles", ID: "1", Relationship: "author"}, nil, []byte(`{"data":null}`))
	require.NotNil(t, errs)
	assert.Equal(t, jsonapierr.CodeMethodNotAllowed, errs.Errors[0].Code)
}
