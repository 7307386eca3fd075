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

package precondition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRead_IfNoneMatchHit(t *testing.T) {
	t.Parallel()

	etag := StrongFromBytes([]byte(`{"a":1}`))
	outcome := EvaluateRead(Headers{IfNoneMatch: etag.String()}, State{ETag: etag})
	assert.Equal(t, NotModified, outcome)
}

func TestEvaluateRead_IfNoneMatchMiss(t *testing.T) {
	t.Parallel()

	current := StrongFromBytes([]byte(`{"a":1}`))
	stale := StrongFromBytes([]byte(`{"a":2}`))
	outcome := EvaluateRead(Headers{IfNoneMatch: stale.String()}, State{ETag: current})
	assert.Equal(t, Proceed, outcome)
}

func TestEvaluateWrite_StaleIfMatchFails(t *testing.T) {
	t.Parallel()

	current := StrongFromBytes([]byte(`{"a":1}`))
	stale := StrongFromBytes([]byte(`{"a":2}`))

	outcome, err := EvaluateWrite(Headers{IfMatch: stale.String()}, State{ETag: current}, RequirePolicy{})
	require.NotNil(t, err)
	assert.Equal(t, PreconditionFailed, outcome)
	assert.Equal(t, "precondition-failed", string(err.Code))
}

func TestEvaluateWrite_MatchingIfMatchSucceeds(t *testing.T) {
	t.Parallel()

	current := StrongFromBytes([]byte(`{"a":1}`))
	outcome, err := EvaluateWrite(Headers{IfMatch: current.String()}, State{ETag: current}, RequirePolicy{})
	require.Nil(t, err)
	assert.Equal(t, Proceed, outcome)
}

func TestEvaluateWrite_RequiresConditionalHeaderWhenPolicySet(t *testing.T) {
	t.Parallel()

	outcome, err := EvaluateWrite(Headers{}, State{}, RequirePolicy{RequireIfMatchOnWrite: true})
	require.NotNil(t, err)
	assert.Equal(t, PreconditionRequired, outcome)
}

func TestEvaluateWrite_IfUnmodifiedSince(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	state := State{LastModified: base.Add(time.Hour)}
	h := Headers{IfUnmodifiedSince: base.Format(time.RFC1123)}

	outcome, err := EvaluateWrite(h, state, RequirePolicy{})
	require.NotNil(t, err)
	assert.Equal(t, PreconditionFailed, outcome)
}

func TestETag_StringQuoting(t *testing.T) {
	t.Parallel()

	strong := ETag{Value: "abc"}
	weak := ETag{Value: "abc", Weak: true}
	assert.Equal(t, `"abc"`, strong.String())
	assert.Equal(t, `W/"abc"`, weak.String())
}
