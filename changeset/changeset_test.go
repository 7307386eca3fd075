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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jsonapi.dev/engine/registry"
)

func articleMeta() registry.ResourceMetadata {
	return registry.ResourceMetadata{
		Type: "articles",
		Attributes: map[string]registry.AttributeMetadata{
			"title": {Name: "title"},
			"body":  {Name: "body"},
		},
		Relationships: map[string]registry.RelationshipMetadata{
			"author": {Name: "author", TargetType: "authors"},
			"tags":   {Name: "tags", ToMany: true, TargetType: "tags"},
		},
	}
}

func TestBuild_AttributesAndToOneRelationship(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data":{"type":"articles","attributes":{"title":"X"},"relationships":{"author":{"data":{"type":"authors","id":"A1"}}}}}`)

	cs, id, lid, errs := Build(body, articleMeta(), registry.GroupCreate)
	require.False(t, errs.HasErrors())
	assert.Empty(t, id)
	assert.Empty(t, lid)
	assert.Equal(t, "X", cs.Attributes["title"])
	assert.False(t, cs.HasAttribute("body"))
	require.NotNil(t, cs.ToOne["author"])
	assert.Equal(t, "A1", cs.ToOne["author"].ID)
}

func TestBuild_ToManyCannotBeNull(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data":{"type":"articles","attributes":{"title":"X"},"relationships":{"tags":{"data":null}}}}`)
	_, _, _, errs := Build(body, articleMeta(), registry.GroupCreate)
	require.True(t, errs.HasErrors())
	assert.Equal(t, "invalid-relationship-data", string(errs.Errors[0].Code))
}

func TestBuild_ToManyEmptyArrayClears(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data":{"type":"articles","attributes":{"title":"X"},"relationships":{"tags":{"data":[]}}}}`)
	cs, _, _, errs := Build(body, articleMeta(), registry.GroupCreate)
	require.False(t, errs.HasErrors())
	assert.Empty(t, cs.ToMany["tags"])
	_, present := cs.ToMany["tags"]
	assert.True(t, present)
}

func TestBuild_UnknownAttributeFails(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data":{"type":"articles","attributes":{"bogus":"X"}}}`)
	_, _, _, errs := Build(body, articleMeta(), registry.GroupCreate)
	require.True(t, errs.HasErrors())
	assert.Equal(t, "unknown-attribute", string(errs.Errors[0].Code))
}

func TestBuild_ToOneNullMeansClear(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data":{"type":"articles","attributes":{"title":"X"},"relationships":{"author":{"data":null}}}}`)
	cs, _, _, errs := Build(body, articleMeta(), registry.GroupCreate)
	require.False(t, errs.HasErrors())
	_, present := cs.ToOne["author"]
	assert.True(t, present)
	assert.Nil(t, cs.ToOne["author"])
}
