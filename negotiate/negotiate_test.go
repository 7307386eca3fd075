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

package negotiate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiate_PlainRequestAccepted(t *testing.T) {
	t.Parallel()

	res, errs := Negotiate(Config{}, "GET", "/api/articles", "", "application/vnd.api+json", false)
	require.Nil(t, errs)
	assert.Equal(t, "application/vnd.api+json", res.ResponseContentType)
}

func TestNegotiate_WriteRejectsExtraContentTypeParam(t *testing.T) {
	t.Parallel()

	_, errs := Negotiate(Config{}, "POST", "/api/articles", "application/vnd.api+json; charset=utf-8", "", true)
	require.NotNil(t, errs)
	assert.Equal(t, "unsupported-media-type", string(errs.Errors[0].Code))
}

func TestNegotiate_AcceptWithUnknownTypeRejected(t *testing.T) {
	t.Parallel()

	_, errs := Negotiate(Config{}, "GET", "/api/articles", "", "text/html", false)
	require.NotNil(t, errs)
	assert.Equal(t, "not-acceptable", string(errs.Errors[0].Code))
}

func TestNegotiate_AtomicEndpointRequiresExtension(t *testing.T) {
	t.Parallel()

	cfg := Config{AtomicPath: "/api/operations"}
	_, errs := Negotiate(cfg, "POST", "/api/operations",
		"application/vnd.api+json", "application/vnd.api+json", true)
	require.NotNil(t, errs)

	res, errs2 := Negotiate(cfg, "POST", "/api/operations",
		`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`,
		`application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`, true)
	require.Nil(t, errs2)
	assert.True(t, res.AtomicRequested)
	assert.Equal(t, `application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`, res.ResponseContentType)
}

func TestNegotiate_ResponseContentTypeEchoesResolvedProfile(t *testing.T) {
	t.Parallel()

	cfg := Config{StrictProfiles: true, KnownProfiles: map[string]bool{"https://example.com/profiles/audit": true}}
	res, errs := Negotiate(cfg, "GET", "/api/articles", "",
		`application/vnd.api+json; profile="https://example.com/profiles/audit"`, false)
	require.Nil(t, errs)
	assert.Equal(t, `application/vnd.api+json; profile="https://example.com/profiles/audit"`, res.ResponseContentType)
}

func TestNegotiate_UnknownExtRejected(t *testing.T) {
	t.Parallel()

	_, errs := Negotiate(Config{}, "GET", "/api/articles", "", `application/vnd.api+json; ext="https://example.com/ext/bogus"`, false)
	require.NotNil(t, errs)
}

func TestNegotiate_StrictUnknownProfileRejected(t *testing.T) {
	t.Parallel()

	cfg := Config{StrictProfiles: true, KnownProfiles: map[string]bool{"https://example.com/profiles/audit": true}}
	_, errs := Negotiate(cfg, "GET", "/api/articles", "", `application/vnd.api+json; profile="https://example.com/profiles/unknown"`, false)
	require.NotNil(t, errs)
	assert.Equal(t, "unsupported-profile", string(errs.Errors[0].Code))
}
