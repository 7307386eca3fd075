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

// Package jsonapi holds the shared wire-level types of the engine: the
// request abstraction every component takes instead of a concrete HTTP
// request/response pair, and the JSON:API document shapes themselves.
package jsonapi

import (
	"io"
	"net/url"

	"github.com/bytedance/sonic"
)

// Version is the JSON:API specification version this engine implements.
const Version = "1.1"

// AtomicExtension is the media-type ext token for the Atomic Operations
// extension.
const AtomicExtension = "https://jsonapi.org/ext/atomic"

// BaseMediaType is the JSON:API media type, without parameters.
const BaseMediaType = "application/vnd.api+json"

// RequestContext is the engine's explicit substitute for a global
// *http.Request/http.ResponseWriter pair. Every component receives one of
// these rather than reaching into ambient state.
type RequestContext struct {
	Method  string
	URL     *url.URL
	Headers map[string][]string
	Body    io.Reader
}

// RequestMethod implements logging.RequestInfo.
func (r *RequestContext) RequestMethod() string { return r.Method }

// RequestPath implements logging.RequestInfo.
func (r *RequestContext) RequestPath() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Path
}

// RequestQuery implements logging.RequestInfo.
func (r *RequestContext) RequestQuery() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.RawQuery
}

// Header returns the first value of the named header, case-sensitively as
// stored. Callers normalize casing when constructing RequestContext.
func (r *RequestContext) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	values := r.Headers[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Ref is a resource identifier: exactly one of ID or LID is set.
type Ref struct {
	Type string
	ID   string
	LID  string
}

// IsLID reports whether this ref is a local-id placeholder awaiting
// resolution within the current atomic request.
func (r Ref) IsLID() bool {
	return r.LID != ""
}

// ResourceIdentifier is the wire shape of a bare {type,id} pair.
type ResourceIdentifier struct {
	Type string         `json:"type"`
	ID   string         `json:"id,omitempty"`
	LID  string         `json:"lid,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Linkage is the tri-state wire value of a "data" member (on a relationship
// object or a top-level document). encoding/json's (and sonic's) "omitempty"
// only ever checks whether the field itself is nil, so a plain `any` field
// can't distinguish "never set" (omit the "data" key) from "explicitly null"
// (emit `"data":null`, e.g. a null to-one relationship or a not-found
// to-one "related" response). A nil *Linkage omits the key via omitempty; a
// non-nil *Linkage with Value == nil marshals to JSON null.
type Linkage struct {
	Value any // nil, ResourceIdentifier, []ResourceIdentifier, *ResourceObject, or []*ResourceObject
}

// LinkageOf wraps v as a present "data" member.
func LinkageOf(v any) *Linkage { return &Linkage{Value: v} }

// NullLinkage returns a present "data" member that marshals to JSON null.
func NullLinkage() *Linkage { return &Linkage{} }

// MarshalJSON renders the wrapped value, nil becoming the JSON null literal.
func (l *Linkage) MarshalJSON() ([]byte, error) {
	if l == nil || l.Value == nil {
		return []byte("null"), nil
	}
	return sonic.Marshal(l.Value)
}

// RelationshipObject is the wire shape of one entry under "relationships".
type RelationshipObject struct {
	Links *LinksObject   `json:"links,omitempty"`
	Data  *Linkage       `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// LinksObject is the wire shape of a "links" member.
type LinksObject struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related,omitempty"`
	First   string `json:"first,omitempty"`
	Last    string `json:"last,omitempty"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// ResourceObject is the wire shape of one entry in "data"/"included".
type ResourceObject struct {
	Type          string                        `json:"type"`
	ID            string                        `json:"id,omitempty"`
	Attributes    map[string]any                `json:"attributes,omitempty"`
	Relationships map[string]*RelationshipObject `json:"relationships,omitempty"`
	Links         *LinksObject                  `json:"links,omitempty"`
	Meta          map[string]any                `json:"meta,omitempty"`
}

// JSONAPIObject is the top-level "jsonapi" member.
type JSONAPIObject struct {
	Version string         `json:"version"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Document is a complete top-level JSON:API document.
type Document struct {
	JSONAPI  JSONAPIObject      `json:"jsonapi"`
	Data     *Linkage           `json:"data,omitempty"`
	Included []*ResourceObject  `json:"included,omitempty"`
	Links    *LinksObject       `json:"links,omitempty"`
	Meta     map[string]any     `json:"meta,omitempty"`
	Errors   any                `json:"errors,omitempty"`
}
