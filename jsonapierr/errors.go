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

// Package jsonapierr is the engine's central error taxonomy and the sole
// place that renders a JSON:API error document. Every error path in the
// engine produces a value satisfying Typed (an *E, which also carries the
// optional source pointer/parameter/header), and
// this package is the only thing that knows how to turn one or many such
// values into the wire {errors, jsonapi} shape.
package jsonapierr

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Code is one of the error codes enumerated in the taxonomy below.
type Code string

// Status/code pairs from the taxonomy. Names mirror the kebab-case codes
// a JSON:API client would match on.
const (
	CodeInvalidIncludePath      Code = "invalid-include-path"
	CodeInvalidFieldset         Code = "invalid-fieldset"
	CodeInvalidSortField        Code = "invalid-sort-field"
	CodeInvalidFilter           Code = "invalid-filter"
	CodeUnknownLID              Code = "unknown-lid"
	CodeDuplicateLID            Code = "duplicate-lid"
	CodeUnknownOperation        Code = "unknown-operation"
	CodeUnknownAttribute        Code = "unknown-attribute"
	CodeUnknownRelationship     Code = "unknown-relationship"
	CodeInvalidRelationshipData Code = "invalid-relationship-data"
	CodeIncludeTooDeep          Code = "include-too-deep"
	CodeForbiddenClientID       Code = "forbidden-client-generated-id"
	CodeNotFound                Code = "not-found"
	CodeMethodNotAllowed        Code = "method-not-allowed"
	CodeNotAcceptable           Code = "not-acceptable"
	CodeConflict                Code = "conflict"
	CodePreconditionFailed      Code = "precondition-failed"
	CodePreconditionRequired    Code = "precondition-required"
	CodeUnsupportedMediaType    Code = "unsupported-media-type"
	CodeUnsupportedProfile      Code = "unsupported-profile"
	CodeUnprocessableEntity     Code = "unprocessable-entity"
	CodeInternal                Code = "internal"
)

// statusByCode is the status half of the spec.md §7 taxonomy table.
var statusByCode = map[Code]int{
	CodeInvalidIncludePath:      http.StatusBadRequest,
	CodeInvalidFieldset:         http.StatusBadRequest,
	CodeInvalidSortField:        http.StatusBadRequest,
	CodeInvalidFilter:           http.StatusBadRequest,
	CodeUnknownLID:              http.StatusBadRequest,
	CodeDuplicateLID:            http.StatusBadRequest,
	CodeUnknownOperation:        http.StatusBadRequest,
	CodeUnknownAttribute:        http.StatusBadRequest,
	CodeUnknownRelationship:     http.StatusBadRequest,
	CodeInvalidRelationshipData: http.StatusBadRequest,
	CodeIncludeTooDeep:          http.StatusBadRequest,
	CodeUnsupportedProfile:      http.StatusBadRequest,
	CodeForbiddenClientID:       http.StatusForbidden,
	CodeNotFound:                http.StatusNotFound,
	CodeMethodNotAllowed:        http.StatusMethodNotAllowed,
	CodeNotAcceptable:           http.StatusNotAcceptable,
	CodeConflict:                http.StatusConflict,
	CodePreconditionFailed:      http.StatusPreconditionFailed,
	CodePreconditionRequired:    http.StatusPreconditionRequired,
	CodeUnsupportedMediaType:    http.StatusUnsupportedMediaType,
	CodeUnprocessableEntity:     http.StatusUnprocessableEntity,
	CodeInternal:                http.StatusInternalServerError,
}

// Source locates the offending part of the request, per JSON:API's
// error.source member.
type Source struct {
	Pointer   string
	Parameter string
	Header    string
}

// E is a single JSON:API error object in progress. Construct with New and
// refine with the With* methods.
type E struct {
	Code   Code
	Detail string
	Source Source
	Meta   map[string]any
}

// New builds an error for the given taxonomy code with a human-readable
// detail message.
func New(code Code, detail string) *E {
	return &E{Code: code, Detail: detail}
}

// WithPointer sets source.pointer and returns the receiver for chaining.
func (e *E) WithPointer(pointer string) *E {
	e.Source.Pointer = pointer
	return e
}

// WithParameter sets source.parameter and returns the receiver for chaining.
func (e *E) WithParameter(param string) *E {
	e.Source.Parameter = param
	return e
}

// WithHeader sets source.header and returns the receiver for chaining.
func (e *E) WithHeader(header string) *E {
	e.Source.Header = header
	return e
}

// WithMeta attaches non-standard meta information.
func (e *E) WithMeta(meta map[string]any) *E {
	e.Meta = meta
	return e
}

// Status returns the HTTP status for this error's code.
func (e *E) Status() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error implements the error interface so *E can flow through normal Go
// error-handling paths before being collected into a document.
func (e *E) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// HTTPStatus implements Typed.
func (e *E) HTTPStatus() int { return e.Status() }

// Typed is implemented by any error that knows its own HTTP status.
// Generalizes the teacher's errors.ErrorType interface.
type Typed interface {
	HTTPStatus() int
}

// Multi aggregates zero or more *E values produced while validating or
// parsing a single request. spec.md §7's aggregation policy: query and
// document parsing collect every detectable violation instead of
// short-circuiting on the first.
type Multi struct {
	Errors []*E
}

// Add appends an error to the aggregate.
func (m *Multi) Add(e *E) { m.Errors = append(m.Errors, e) }

// HasErrors reports whether any error has been collected.
func (m *Multi) HasErrors() bool { return len(m.Errors) > 0 }

// Error implements the error interface, combining all collected details.
func (m *Multi) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %s", len(m.Errors), m.Errors[0].Error())
}

// HTTPStatus returns the status of the first collected error: per spec.md
// §7, a response carries one status even when it aggregates several error
// objects, and it is driven by the first (and in practice only, since the
// parser stops mixing codes) violation found.
func (m *Multi) HTTPStatus() int {
	if len(m.Errors) == 0 {
		return http.StatusInternalServerError
	}
	return m.Errors[0].HTTPStatus()
}

// generateErrorID mirrors the teacher's error-object id generation
// (errors/jsonapi.go), swapped from its ad-hoc generator to google/uuid.
func generateErrorID() string {
	return uuid.NewString()
}
