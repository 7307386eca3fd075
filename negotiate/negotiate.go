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

// Package negotiate decides whether a request is acceptable and which
// response media type and profile set to use (spec.md §4.3).
package negotiate

import (
	"strings"

	"jsonapi.dev/engine/jsonapi"
	"jsonapi.dev/engine/jsonapierr"
)

// MediaType is one parsed media-type value, with its recognized
// parameters split out for JSON:API-specific handling.
type MediaType struct {
	Ext     []string
	Profile []string
	Other   map[string]string
}

// Channel overrides strict negotiation for a URL scope (e.g. a sandbox or
// documentation UI). Matching is first-wins by PathPrefix.
type Channel struct {
	PathPrefix       string
	AllowedMediaTypes []string
}

// Config controls negotiation policy.
type Config struct {
	StrictProfiles  bool
	KnownProfiles   map[string]bool
	Channels        []Channel
	AtomicPath      string // path that requires the atomic extension token
}

// Result is the resolved negotiation outcome for one request.
type Result struct {
	ResponseContentType string
	Profiles            []string
	AtomicRequested     bool
}

// Negotiate validates Content-Type (for write requests with a body) and
// Accept, returning the resolved Result or an aggregate of violations.
func Negotiate(cfg Config, method string, path string, contentType string, accept string, hasBody bool) (*Result, *jsonapierr.Multi) {
	errs := &jsonapierr.Multi{}

	for _, ch := range cfg.Channels {
		if strings.HasPrefix(path, ch.PathPrefix) {
			return negotiateChannel(ch, contentType, accept), nil
		}
	}

	requiresAtomic := cfg.AtomicPath != "" && path == cfg.AtomicPath

	if hasBody {
		mt, raw, ok := parseMediaType(contentType)
		if !ok || raw != jsonapi.BaseMediaType {
			errs.Add(jsonapierr.New(jsonapierr.CodeUnsupportedMediaType,
				"Content-Type must be "+jsonapi.BaseMediaType).WithHeader("Content-Type"))
		} else if err := validateParams(mt, cfg, requiresAtomic, true); err != nil {
			errs.Add(err)
		}
	}

	result := &Result{}

	if accept != "" {
		matched := false
		var acceptedMT MediaType
		var profileErr *jsonapierr.E
		for _, offer := range strings.Split(accept, ",") {
			mt, raw, ok := parseMediaType(strings.TrimSpace(offer))
			if !ok {
				continue
			}
			if raw != jsonapi.BaseMediaType && raw != "*/*" {
				continue
			}
			if err := validateParams(mt, cfg, requiresAtomic, false); err != nil {
				if err.Code == jsonapierr.CodeUnsupportedProfile && profileErr == nil {
					profileErr = err
				}
				continue
			}
			matched = true
			acceptedMT = mt
			break
		}
		if !matched && profileErr != nil {
			errs.Add(profileErr.WithHeader("Accept"))
		} else if !matched {
			errs.Add(jsonapierr.New(jsonapierr.CodeNotAcceptable,
				"no acceptable media type matched "+jsonapi.BaseMediaType).WithHeader("Accept"))
		} else {
			result.Profiles = resolveProfiles(acceptedMT, cfg)
			result.AtomicRequested = containsStr(acceptedMT.Ext, jsonapi.AtomicExtension)
		}
	}

	if requiresAtomic && !result.AtomicRequested {
		errs.Add(jsonapierr.New(jsonapierr.CodeNotAcceptable,
			"atomic operations endpoint requires ext=\""+jsonapi.AtomicExtension+"\"").WithHeader("Accept"))
	}

	if errs.HasErrors() {
		return nil, errs
	}

	result.ResponseContentType = buildContentType(result.AtomicRequested, result.Profiles)
	return result, nil
}

// buildContentType echoes the negotiated media type back into the response
// Content-Type header, carrying the atomic extension token and any resolved
// profile URIs (spec.md §6's bit-exact behavior: "Content-Type header on
// responses echoes the request media type, with the atomic extension for
// atomic requests").
func buildContentType(atomicRequested bool, profiles []string) string {
	var params []string
	if atomicRequested {
		params = append(params, `ext="`+jsonapi.AtomicExtension+`"`)
	}
	if len(profiles) > 0 {
		params = append(params, `profile="`+strings.Join(profiles, " ")+`"`)
	}
	if len(params) == 0 {
		return jsonapi.BaseMediaType
	}
	return jsonapi.BaseMediaType + "; " + strings.Join(params, "; ")
}

func negotiateChannel(ch Channel, contentType, accept string) *Result {
	ct := jsonapi.BaseMediaType
	if len(ch.AllowedMediaTypes) > 0 {
		ct = ch.AllowedMediaTypes[0]
	}
	return &Result{ResponseContentType: ct}
}

// validateParams enforces that only "ext" and "profile" parameters appear,
// and that every ext token is recognized (spec.md §4.3, §9 Open Question:
// unknown ext values are always rejected under strict negotiation).
func validateParams(mt MediaType, cfg Config, requiresAtomic, isContentType bool) *jsonapierr.E {
	for k := range mt.Other {
		code := jsonapierr.CodeUnsupportedMediaType
		if !isContentType {
			code = jsonapierr.CodeNotAcceptable
		}
		return jsonapierr.New(code, "unrecognized media-type parameter \""+k+"\"")
	}
	for _, ext := range mt.Ext {
		if ext != jsonapi.AtomicExtension {
			code := jsonapierr.CodeUnsupportedMediaType
			if !isContentType {
				code = jsonapierr.CodeNotAcceptable
			}
			return jsonapierr.New(code, "unknown extension \""+ext+"\"")
		}
	}
	if cfg.StrictProfiles {
		for _, p := range mt.Profile {
			if !cfg.KnownProfiles[p] {
				return jsonapierr.New(jsonapierr.CodeUnsupportedProfile, "unknown profile \""+p+"\"")
			}
		}
	}
	return nil
}

func resolveProfiles(mt MediaType, cfg Config) []string {
	var out []string
	for _, p := range mt.Profile {
		if !cfg.StrictProfiles || cfg.KnownProfiles[p] {
			out = append(out, p)
		}
	}
	return out
}

// parseMediaType splits "application/vnd.api+json; ext=\"...\"; profile=\"...\""
// into its base type and recognized parameters.
func parseMediaType(raw string) (mt MediaType, base string, ok bool) {
	parts := strings.Split(raw, ";")
	if len(parts) == 0 {
		return mt, "", false
	}
	base = strings.TrimSpace(parts[0])
	mt.Other = make(map[string]string)

	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.Trim(strings.TrimSpace(kv[1]), `"`)

		switch key {
		case "ext":
			mt.Ext = append(mt.Ext, strings.Fields(val)...)
		case "profile":
			mt.Profile = append(mt.Profile, strings.Fields(val)...)
		default:
			mt.Other[key] = val
		}
	}
	return mt, base, true
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
