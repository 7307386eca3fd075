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

// Package engine implements the Pipeline Controller: the single request
// entry point that wires negotiation, routing, dispatch, and the atomic
// extension into one instrumented call (spec.md §4.1, §4.9).
package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"jsonapi.dev/engine/collab"
	"jsonapi.dev/engine/dispatch"
	"jsonapi.dev/engine/document"
	"jsonapi.dev/engine/hooks"
	"jsonapi.dev/engine/jsonapi"
	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/logging"
	"jsonapi.dev/engine/negotiate"
	"jsonapi.dev/engine/registry"
)

// Result is the fully-rendered outcome of one Handle call, ready for the
// host to write to the wire.
type Result struct {
	Status  int
	Body    []byte
	Headers map[string]string
}

// Engine is the built Pipeline Controller. Build one with New; it is safe
// for concurrent use by multiple goroutines, per spec.md §5 ("the engine
// holds no per-request mutable state outside the call stack").
type Engine struct {
	cfg        *Config
	reg        *registry.Registry
	dispatcher *dispatch.Dispatcher
	builder    *document.Builder
	acc        document.Accessor
	hookDisp   *hooks.Dispatcher
	txm        collab.TransactionManager
	persister  collab.ResourcePersister
	relUpdater collab.RelationshipUpdater
	purger     collab.SurrogatePurger

	tracer trace.Tracer
	meter  metric.Meter

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	errorCount      metric.Int64Counter
}

// Collaborators bundles every host-supplied interface the engine calls
// through (spec.md §6). Fields a host's enabled endpoints never reach are
// safe to leave nil.
type Collaborators struct {
	Repo       collab.ResourceRepository
	Persister  collab.ResourcePersister
	RelReader  collab.RelationshipReader
	RelUpdater collab.RelationshipUpdater
	Existence  collab.ExistenceChecker
	TxManager  collab.TransactionManager
	Purger     collab.SurrogatePurger
	Accessor   document.Accessor
}

// New builds an Engine bound to reg, the host's collaborators, and any
// registered profiles, applying cfg.
func New(cfg *Config, reg *registry.Registry, collabs Collaborators, profiles ...*hooks.Profile) (*Engine, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if reg == nil {
		return nil, fmt.Errorf("engine: registry is required")
	}
	if collabs.Accessor == nil {
		return nil, fmt.Errorf("engine: an Accessor is required")
	}
	if collabs.TxManager == nil {
		return nil, fmt.Errorf("engine: a TransactionManager is required for the atomic extension")
	}

	hookDisp := hooks.NewDispatcher(profiles...)

	dcfg := dispatch.Config{
		RoutePrefix:               cfg.routePrefix,
		AllowRelationshipWrites:   cfg.allowRelationshipWrites,
		RelationshipWriteResponse: cfg.relationshipWriteResponse,
		Document:                  cfg.document,
		Limits:                    cfg.limits,
		Precondition:              cfg.precondition,
		WeakETagForCollections:    cfg.weakETagForCollections,
	}
	dispatcher := dispatch.New(dcfg, reg, collabs.Accessor, collabs.Repo, collabs.Persister, collabs.RelReader, collabs.RelUpdater, collabs.Existence, hookDisp)

	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := cfg.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	e := &Engine{
		cfg:        cfg,
		reg:        reg,
		dispatcher: dispatcher,
		builder:    document.NewBuilder(reg, cfg.document),
		acc:        collabs.Accessor,
		hookDisp:   hookDisp,
		txm:        collabs.TxManager,
		persister:  collabs.Persister,
		relUpdater: collabs.RelUpdater,
		purger:     collabs.Purger,
		tracer:     tp.Tracer("jsonapi.dev/engine"),
		meter:      mp.Meter("jsonapi.dev/engine"),
	}
	if err := e.initMetrics(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initMetrics() error {
	var err error
	e.requestDuration, err = e.meter.Float64Histogram(
		"jsonapi_engine_request_duration_seconds",
		metric.WithDescription("Duration of engine-handled requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("engine: failed to create request duration histogram: %w", err)
	}
	e.requestCount, err = e.meter.Int64Counter(
		"jsonapi_engine_requests_total",
		metric.WithDescription("Total number of requests handled by the engine"),
	)
	if err != nil {
		return fmt.Errorf("engine: failed to create request count counter: %w", err)
	}
	e.errorCount, err = e.meter.Int64Counter(
		"jsonapi_engine_errors_total",
		metric.WithDescription("Total number of requests that ended in a JSON:API error document"),
	)
	if err != nil {
		return fmt.Errorf("engine: failed to create error count counter: %w", err)
	}
	return nil
}

// Handle is the single top-level request entry point (spec.md §4.1):
// negotiate, route, dispatch (or run the atomic extension), render, and
// instrument, in that order.
func (e *Engine) Handle(ctx context.Context, req *jsonapi.RequestContext) *Result {
	start := time.Now()

	spanName := fmt.Sprintf("%s %s", req.Method, req.RequestPath())
	ctx, span := e.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.route", req.RequestPath()),
		attribute.String("service.name", e.cfg.serviceName),
		attribute.String("service.version", e.cfg.serviceVersion),
	)
	defer span.End()

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err == nil {
			body = b
		}
	}

	result := e.handle(ctx, req, body)

	span.SetAttributes(attribute.Int("http.status_code", result.Status))
	if result.Status >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", result.Status))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	attrs := metric.WithAttributes(
		attribute.String("method", req.Method),
		attribute.Int("status", result.Status),
	)
	e.requestCount.Add(ctx, 1, attrs)
	e.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if result.Status >= 400 {
		e.errorCount.Add(ctx, 1, attrs)
	}

	if e.cfg.logger != nil {
		e.cfg.logger.LogRequest(req, "status", result.Status)
		e.cfg.logger.LogDuration("jsonapi_engine.handle", start, "status", result.Status)
	}

	return result
}

func (e *Engine) handle(ctx context.Context, req *jsonapi.RequestContext, body []byte) *Result {
	negResult, negErrs := negotiate.Negotiate(e.cfg.negotiate, req.Method, req.RequestPath(), req.Header("Content-Type"), req.Header("Accept"), len(body) > 0)
	if negErrs != nil {
		return e.renderErrors(negErrs)
	}

	route, ok := dispatch.ParseRoute(req.RequestPath(), e.cfg.routePrefix)
	if !ok && req.RequestPath() != e.cfg.atomicPath {
		m := &jsonapierr.Multi{}
		m.Add(jsonapierr.New(jsonapierr.CodeNotFound, "no route matches \""+req.RequestPath()+"\""))
		return e.renderErrors(m)
	}

	if req.RequestPath() == e.cfg.atomicPath {
		if req.Method != http.MethodPost {
			m := &jsonapierr.Multi{}
			m.Add(jsonapierr.New(jsonapierr.CodeMethodNotAllowed, "the atomic operations endpoint only accepts POST"))
			return e.renderErrors(m)
		}
		return e.handleAtomic(ctx, body, negResult.ResponseContentType)
	}

	active := hooks.ResolveActive(e.cfg.profiles, route.Type, negResult.Profiles)

	resp, errs := e.dispatcher.Dispatch(ctx, req, route, active, body)
	if errs != nil {
		return e.renderErrors(errs)
	}

	if e.purger != nil && resp.SurrogateKeys != "" && isWriteMethod(req.Method) {
		_ = e.purger.Purge(ctx, splitKeys(resp.SurrogateKeys))
	}

	return e.renderResponse(resp, negResult.ResponseContentType)
}

func (e *Engine) renderResponse(resp *dispatch.Response, contentType string) *Result {
	headers := resp.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = contentType
	if resp.SurrogateKeys != "" {
		headers["Surrogate-Key"] = resp.SurrogateKeys
	}

	if resp.NoBody {
		return &Result{Status: resp.Status, Headers: headers}
	}

	body, err := sonicMarshal(resp.Doc)
	if err != nil {
		m := &jsonapierr.Multi{}
		m.Add(jsonapierr.New(jsonapierr.CodeInternal, "failed to render response document: "+err.Error()))
		return e.renderErrors(m)
	}
	return &Result{Status: resp.Status, Body: body, Headers: headers}
}

func (e *Engine) renderErrors(errs *jsonapierr.Multi) *Result {
	status, doc := jsonapierr.DocumentFromMulti(errs)
	body, err := sonicMarshal(doc)
	if err != nil {
		return &Result{Status: http.StatusInternalServerError, Body: []byte(`{"errors":[{"title":"Internal server error"}]}`)}
	}
	if e.cfg.logger != nil {
		e.cfg.logger.LogError(errs, "jsonapi_engine request ended in error", "status", status)
	}
	return &Result{Status: status, Body: body, Headers: map[string]string{"Content-Type": jsonapi.BaseMediaType}}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodPut:
		return true
	default:
		return false
	}
}

func splitKeys(keys string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(keys); i++ {
		if i == len(keys) || keys[i] == ' ' {
			if i > start {
				out = append(out, keys[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// atomicEnabled reports whether the atomic extension has everything it
// needs wired: a persister and a transaction manager are the minimum.
func (e *Engine) atomicEnabled() bool {
	return e.persister != nil && e.txm != nil
}

func sonicMarshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}
