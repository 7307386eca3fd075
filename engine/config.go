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

package engine

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"jsonapi.dev/engine/criteria"
	"jsonapi.dev/engine/dispatch"
	"jsonapi.dev/engine/document"
	"jsonapi.dev/engine/hooks"
	"jsonapi.dev/engine/logging"
	"jsonapi.dev/engine/negotiate"
	"jsonapi.dev/engine/precondition"
)

// Config holds the Pipeline Controller's configuration. Build one with
// NewConfig and a list of Options; the zero Config is never used directly.
type Config struct {
	serviceName    string
	serviceVersion string

	routePrefix string
	atomicPath  string

	limits        criteria.Limits
	maxOperations int

	document     document.Config
	negotiate    negotiate.Config
	precondition precondition.RequirePolicy

	allowRelationshipWrites   bool
	relationshipWriteResponse dispatch.WriteResponseMode
	weakETagForCollections    bool

	profiles hooks.ActivationConfig

	logger         *logging.Config
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// Option configures a Config. Follows the teacher's functional-options
// convention (app.Option, logging.Option): each Option is a closure over
// one field, applied in the order passed to NewConfig.
type Option func(*Config)

// NewConfig builds a Config from defaults plus the given Options.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		serviceName:    "jsonapi-engine",
		serviceVersion: "1.0.0",
		routePrefix:    "/api",
		atomicPath:     "/api/operations",
		limits:         criteria.DefaultLimits(),
		maxOperations:  10,
		document:       document.Config{RoutePrefix: "/api"},
		negotiate:      negotiate.Config{StrictProfiles: false},
		precondition:   precondition.RequirePolicy{},
		logger:         logging.MustNew(logging.WithJSONHandler(), logging.WithServiceName("jsonapi-engine")),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.document.RoutePrefix = cfg.routePrefix
	cfg.negotiate.AtomicPath = cfg.atomicPath
	return cfg
}

// WithServiceName sets the service name attached to spans, metrics, and log
// entries.
func WithServiceName(name string) Option {
	return func(c *Config) { c.serviceName = name }
}

// WithServiceVersion sets the service version attached to spans, metrics,
// and log entries.
func WithServiceVersion(version string) Option {
	return func(c *Config) { c.serviceVersion = version }
}

// WithRoutePrefix sets the shared route prefix every endpoint is mounted
// under (spec.md §4.8, default "/api").
func WithRoutePrefix(prefix string) Option {
	return func(c *Config) { c.routePrefix = prefix }
}

// WithAtomicPath sets the POST-only atomic-operations endpoint path
// (spec.md §6, default "/api/operations").
func WithAtomicPath(path string) Option {
	return func(c *Config) { c.atomicPath = path }
}

// WithLimits sets the Query Parser's DoS guards (spec.md §4.2).
func WithLimits(limits criteria.Limits) Option {
	return func(c *Config) { c.limits = limits }
}

// WithMaxOperations sets the Atomic Engine's max batch size
// (spec.md §4.9 "Limits").
func WithMaxOperations(n int) Option {
	return func(c *Config) { c.maxOperations = n }
}

// WithLinkage sets the Document Builder's relationship-linkage policy
// (spec.md §4.5).
func WithLinkage(mode document.LinkageMode) Option {
	return func(c *Config) { c.document.Linkage = mode }
}

// WithStrictProfiles rejects any profile= parameter not present in known,
// rather than silently ignoring it (spec.md §4.3).
func WithStrictProfiles(known map[string]bool) Option {
	return func(c *Config) {
		c.negotiate.StrictProfiles = true
		c.negotiate.KnownProfiles = known
	}
}

// WithChannel registers a negotiation override for a URL path prefix
// (spec.md §4.3, e.g. a documentation UI scope).
func WithChannel(ch negotiate.Channel) Option {
	return func(c *Config) { c.negotiate.Channels = append(c.negotiate.Channels, ch) }
}

// WithRequireIfMatchOnWrite rejects unconditional writes with 428, rather
// than allowing them through (spec.md §4.7).
func WithRequireIfMatchOnWrite() Option {
	return func(c *Config) { c.precondition.RequireIfMatchOnWrite = true }
}

// WithWeakETagForCollections sets the dispatcher's WeakETagForCollections
// flag (spec.md §4.7). The collection endpoint emits no ETag, so the flag
// does not change any response.
func WithWeakETagForCollections() Option {
	return func(c *Config) { c.weakETagForCollections = true }
}

// WithRelationshipWrites enables the relationship-write endpoints and sets
// their response shape (spec.md §4.8). Relationship writes are disabled
// (405) by default.
func WithRelationshipWrites(mode dispatch.WriteResponseMode) Option {
	return func(c *Config) {
		c.allowRelationshipWrites = true
		c.relationshipWriteResponse = mode
	}
}

// WithProfiles sets which profiles activate by default and per resource
// type (spec.md §4.12).
func WithProfiles(cfg hooks.ActivationConfig) Option {
	return func(c *Config) { c.profiles = cfg }
}

// WithLogger attaches a logging.Config for the engine's per-request and
// per-error structured logging (SPEC_FULL.md §1.1). Without this option,
// NewConfig's default JSON logger is used; passing nil makes the engine log
// nothing.
func WithLogger(logger *logging.Config) Option {
	return func(c *Config) { c.logger = logger }
}

// WithMeterProvider overrides the OpenTelemetry MeterProvider used for the
// engine's request-duration, request-count and error-count instruments. Defaults to the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) { c.meterProvider = mp }
}

// WithTracerProvider overrides the OpenTelemetry TracerProvider used for
// the per-request span. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) { c.tracerProvider = tp }
}
