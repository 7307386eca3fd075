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

package surrogate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_SingleResource(t *testing.T) {
	t.Parallel()

	got := Keys([]Ref{{Type: "articles", ID: "42"}})
	assert.Equal(t, "articles articles:42", got)
}

func TestKeys_DeduplicatesAndGroupsByType(t *testing.T) {
	t.Parallel()

	got := Keys([]Ref{
		{Type: "articles", ID: "1"},
		{Type: "authors", ID: "A1"},
		{Type: "articles", ID: "1"},
		{Type: "articles", ID: "2"},
	})
	assert.Equal(t, "articles articles:1 authors authors:A1 articles:2", got)
}
