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

// Package constraint checks registry-declared attribute constraints
// (spec.md §4.10's 422 path) against the attributes of a ChangeSet, using
// go-playground/validator tag strings rather than a full struct walk,
// since an attribute map has no static Go type to reflect over.
package constraint

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/registry"
)

var (
	reUsername = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	reSlug     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

var (
	once sync.Once
	v    *validator.Validate
)

func shared() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		registerBuiltins(v)
	})
	return v
}

// registerBuiltins adds the domain-specific tags beyond validator's stock
// set: "username" and "slug" for identifier-shaped attributes, and
// "strong_password" for a minimum-length password rule.
func registerBuiltins(v *validator.Validate) {
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return reUsername.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return reSlug.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) >= 8
	})
}

// Check validates every attribute in attrs that meta declares a
// ValidateTag for, returning one jsonapierr.E per failing field, pointed
// at "/data/attributes/{name}". Attributes absent from attrs (not
// present in the request) are skipped; "required" is enforced by
// presence tracking upstream, not here.
func Check(meta registry.ResourceMetadata, attrs map[string]any) []*jsonapierr.E {
	var out []*jsonapierr.E

	validate := shared()
	for name, value := range attrs {
		attr, ok := meta.Attribute(name)
		if !ok || attr.ValidateTag == "" {
			continue
		}
		if err := validate.Var(value, attr.ValidateTag); err != nil {
			out = append(out, jsonapierr.New(jsonapierr.CodeUnprocessableEntity,
				fmt.Sprintf("attribute %q failed constraint %q", name, attr.ValidateTag)).
				WithPointer("/data/attributes/"+name))
		}
	}
	return out
}
