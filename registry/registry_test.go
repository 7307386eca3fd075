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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articleAuthorTypes() *Builder {
	return NewBuilder().
		Register(ResourceMetadata{
			Type: "articles",
			Attributes: map[string]AttributeMetadata{
				"title": {Name: "title", PropertyPath: "title", Types: []string{"string"}},
			},
			Relationships: map[string]RelationshipMetadata{
				"author": {Name: "author", TargetType: "authors"},
			},
		}).
		Register(ResourceMetadata{
			Type: "authors",
			Attributes: map[string]AttributeMetadata{
				"name": {Name: "name", PropertyPath: "name", Types: []string{"string"}},
			},
		})
}

func TestBuilder_BuildSucceeds(t *testing.T) {
	t.Parallel()

	reg, err := articleAuthorTypes().Build()
	require.NoError(t, err)

	m, ok := reg.GetByType("articles")
	require.True(t, ok)
	assert.Equal(t, "articles", m.Type)

	_, ok = reg.GetByType("nope")
	assert.False(t, ok)
}

func TestBuilder_DuplicateTypeFails(t *testing.T) {
	t.Parallel()

	b := articleAuthorTypes().Register(ResourceMetadata{Type: "articles"})
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuilder_UnresolvedRelationshipTargetFails(t *testing.T) {
	t.Parallel()

	b := NewBuilder().Register(ResourceMetadata{
		Type: "articles",
		Relationships: map[string]RelationshipMetadata{
			"author": {Name: "author", TargetType: "authors"},
		},
	})
	_, err := b.Build()
	assert.Error(t, err)
}

func TestResourceMetadata_NameCollides(t *testing.T) {
	t.Parallel()

	m := ResourceMetadata{
		Relationships: map[string]RelationshipMetadata{"author": {}},
	}
	assert.True(t, m.NameCollides("id"))
	assert.True(t, m.NameCollides("type"))
	assert.True(t, m.NameCollides("author"))
	assert.False(t, m.NameCollides("title"))
}

func TestAttributeMetadata_InGroup_DefaultsToReadWrite(t *testing.T) {
	t.Parallel()

	a := AttributeMetadata{Name: "title"}
	assert.True(t, a.InGroup(GroupRead))
	assert.True(t, a.InGroup(GroupWrite))
	assert.False(t, a.InGroup(GroupCreate))
}
