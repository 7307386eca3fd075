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

package include

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jsonapi.dev/engine/criteria"
)

type fakeLoader struct {
	byParent map[string][]Entity // key: parentType+"/"+relName
}

func (f fakeLoader) LoadRelated(parentType string, parentIDs []string, rel string) ([]Entity, error) {
	var out []Entity
	for _, id := range parentIDs {
		out = append(out, f.byParent[parentType+"/"+rel+"/"+id]...)
	}
	return out, nil
}

func TestExpand_DeduplicatesSharedAuthor(t *testing.T) {
	t.Parallel()

	loader := fakeLoader{byParent: map[string][]Entity{
		"articles/author/1": {{Type: "authors", ID: "A1"}},
		"articles/author/2": {{Type: "authors", ID: "A1"}},
	}}

	primary := []Entity{{Type: "articles", ID: "1"}, {Type: "articles", ID: "2"}}
	tree := []*criteria.IncludeNode{{Relationship: "author"}}

	included, err := Expand(primary, tree, loader)
	require.Nil(t, err)
	require.Len(t, included, 1)
	assert.Equal(t, "A1", included[0].ID)
}

func TestExpand_PrimaryNeverReappearsInIncluded(t *testing.T) {
	t.Parallel()

	loader := fakeLoader{byParent: map[string][]Entity{
		"articles/related/1": {{Type: "articles", ID: "1"}, {Type: "articles", ID: "3"}},
	}}

	primary := []Entity{{Type: "articles", ID: "1"}}
	tree := []*criteria.IncludeNode{{Relationship: "related"}}

	included, err := Expand(primary, tree, loader)
	require.Nil(t, err)
	require.Len(t, included, 1)
	assert.Equal(t, "3", included[0].ID)
}

func TestExpand_MultiLevelBFS(t *testing.T) {
	t.Parallel()

	loader := fakeLoader{byParent: map[string][]Entity{
		"articles/author/1":  {{Type: "authors", ID: "A1"}},
		"authors/company/A1": {{Type: "companies", ID: "C1"}},
	}}

	primary := []Entity{{Type: "articles", ID: "1"}}
	tree := []*criteria.IncludeNode{
		{Relationship: "author", Children: []*criteria.IncludeNode{{Relationship: "company"}}},
	}

	included, err := Expand(primary, tree, loader)
	require.Nil(t, err)
	require.Len(t, included, 2)
	assert.Equal(t, "A1", included[0].ID)
	assert.Equal(t, "C1", included[1].ID)
}

// TestExpand_BFSAcrossSiblingRoots exercises include=author.comments,tags:
// spec.md §4.6 requires every node at depth k, across every root, to be
// resolved before any node at depth k+1 — so both root siblings (author,
// tags) must appear in included before author's child (comments), not
// author's whole subtree depth-completed before tags is ever visited.
func TestExpand_BFSAcrossSiblingRoots(t *testing.T) {
	t.Parallel()

	loader := fakeLoader{byParent: map[string][]Entity{
		"articles/author/1":   {{Type: "authors", ID: "A1"}},
		"articles/tags/1":     {{Type: "tags", ID: "T1"}},
		"authors/comments/A1": {{Type: "comments", ID: "CM1"}},
	}}

	primary := []Entity{{Type: "articles", ID: "1"}}
	tree := []*criteria.IncludeNode{
		{Relationship: "author", Children: []*criteria.IncludeNode{{Relationship: "comments"}}},
		{Relationship: "tags"},
	}

	included, err := Expand(primary, tree, loader)
	require.Nil(t, err)
	require.Len(t, included, 3)
	assert.Equal(t, "A1", included[0].ID)
	assert.Equal(t, "T1", included[1].ID)
	assert.Equal(t, "CM1", included[2].ID)
}
