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
	"time"

	"jsonapi.dev/engine/jsonapierr"
)

// Outcome is the result of evaluating conditional headers against a
// resource's current validators.
type Outcome int

const (
	// Proceed means the request should execute normally.
	Proceed Outcome = iota
	// NotModified means a 304 should be returned with no body (conditional GET).
	NotModified
	// PreconditionFailed means a 412 should be returned (conditional write).
	PreconditionFailed
	// PreconditionRequired means a 428 should be returned (policy requires a
	// conditional header that was absent).
	PreconditionRequired
)

// State is the current validators of the target resource, as computed by
// the host-facing document builder.
type State struct {
	ETag         ETag
	LastModified time.Time
}

// Headers carries the conditional request headers present on the inbound
// request.
type Headers struct {
	IfMatch           string
	IfNoneMatch       string
	IfModifiedSince   string
	IfUnmodifiedSince string
}

// RequirePolicy controls whether a write without any conditional header is
// rejected (428) rather than allowed to proceed unconditionally.
type RequirePolicy struct {
	RequireIfMatchOnWrite bool
}

// EvaluateRead evaluates a conditional GET (spec.md §4.7): If-None-Match
// takes priority over If-Modified-Since per RFC 7232 §6.
func EvaluateRead(h Headers, state State) Outcome {
	if h.IfNoneMatch != "" {
		tags, any := ParseList(h.IfNoneMatch)
		if Matches(tags, any, state.ETag, false) {
			return NotModified
		}
		return Proceed
	}
	if h.IfModifiedSince != "" {
		if t, err := time.Parse(time.RFC1123, h.IfModifiedSince); err == nil {
			if !state.LastModified.After(t) {
				return NotModified
			}
		}
	}
	return Proceed
}

// EvaluateWrite evaluates a conditional PATCH/DELETE (spec.md §4.7).
func EvaluateWrite(h Headers, state State, policy RequirePolicy) (Outcome, *jsonapierr.E) {
	if h.IfMatch != "" {
		tags, any := ParseList(h.IfMatch)
		if !Matches(tags, any, state.ETag, true) {
			return PreconditionFailed, jsonapierr.New(jsonapierr.CodePreconditionFailed,
				"If-Match does not match the current entity tag")
		}
		return Proceed, nil
	}

	if h.IfUnmodifiedSince != "" {
		if t, err := time.Parse(time.RFC1123, h.IfUnmodifiedSince); err == nil {
			if state.LastModified.After(t) {
				return PreconditionFailed, jsonapierr.New(jsonapierr.CodePreconditionFailed,
					"resource was modified after If-Unmodified-Since")
			}
		}
		return Proceed, nil
	}

	if policy.RequireIfMatchOnWrite {
		return PreconditionRequired, jsonapierr.New(jsonapierr.CodePreconditionRequired,
			"this endpoint requires If-Match or If-Unmodified-Since")
	}

	return Proceed, nil
}
