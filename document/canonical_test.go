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

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_SortsKeys(t *testing.T) {
	t.Parallel()

	out := Canonicalize(map[string]any{"b": 1, "a": 2})
	assert.Equal(t, `{"a":2,"b":1}`, string(out))
}

func TestCanonicalize_IsDeterministicAcrossCalls(t *testing.T) {
	t.Parallel()

	v := map[string]any{"title": "X", "count": 3, "ratio": 1.5, "tags": []any{"a", "b"}, "deleted": nil}
	first := Canonicalize(v)
	second := Canonicalize(v)
	assert.Equal(t, string(first), string(second))
}

func TestCanonicalize_IntegerFloatsHaveNoDecimalPoint(t *testing.T) {
	t.Parallel()

	out := Canonicalize(map[string]any{"n": 3.0})
	assert.Equal(t, `{"n":3}`, string(out))
}

func TestCanonicalize_NonIntegerFloat(t *testing.T) {
	t.Parallel()

	out := Canonicalize(map[string]any{"n": 1.5})
	assert.Equal(t, `{"n":1.5}`, string(out))
}
