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

// Package logging provides the engine's structured logging, independent of
// any concrete HTTP stack.
//
// Design philosophy: this package abstracts logging providers to enable:
//   - Zero-dependency default (slog in stdlib)
//   - Drop-in replacements for a host's existing logging infrastructure
//   - Testing with in-memory or no-op providers
//
// The abstraction lets a host swap sinks (stdout JSON, a collector, a
// console for local development) without touching the engine's call sites.
//
// # Basic Usage
//
//	logger := logging.MustNew(logging.WithConsoleHandler())
//	defer logger.Shutdown(context.Background())
//	logger.Info("engine started", "port", 8080)
//
// # Structured Logging
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithServiceName("jsonapi-engine"),
//	    logging.WithDebugLevel(),
//	)
//	defer logger.Shutdown(context.Background())
//	logger.Info("request dispatched",
//	    "method", "GET",
//	    "path", "/api/articles",
//	    "status", 200,
//	)
//
// # Convenience Methods
//
// The package provides helper methods for common pipeline-logging patterns:
//
//	// inbound request logging, via the RequestInfo interface
//	// (jsonapi.RequestContext satisfies it directly)
//	logger.LogRequest(reqCtx, "status", 200, "duration_ms", 45)
//
//	// error logging with pipeline context
//	logger.LogError(err, "persister rejected create", "type", "articles")
//
//	// duration tracking for a pipeline phase
//	start := time.Now()
//	logger.LogDuration("include expansion completed", start, "resources", count)
//
// # Log Sampling
//
// Reduce log volume in high-traffic scenarios:
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithSampling(logging.SamplingConfig{
//	        Initial:    100,          // Log first 100 entries
//	        Thereafter: 100,          // Then log 1 in 100
//	        Tick:       time.Minute,  // Reset every minute
//	    }),
//	)
//
// Note: Errors (level >= ERROR) always bypass sampling.
//
// # Dynamic Log Levels
//
// Change log levels at runtime:
//
//	logger.SetLevel(logging.LevelDebug)  // Enable debug logging
//	logger.SetLevel(logging.LevelWarn)   // Reduce to warnings only
//
// # Global Logger Registration
//
// To register as the global slog default (for use with slog.Info(), etc.):
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithGlobalLogger(), // Sets slog.SetDefault()
//	)
//
// By default, loggers are NOT registered globally to allow multiple independent
// logger instances in the same process (for example, one per mounted engine).
//
// # Sensitive Data Redaction
//
// Sensitive data (password, token, secret, api_key, authorization) is
// automatically redacted from all log output. Additional sanitization can be
// configured using WithReplaceAttr — useful for redacting attribute values a
// resource's metadata marks as sensitive.
//
// # Context-Aware Logging
//
// Trace correlation with OpenTelemetry is automatic. When using
// slog.*Context methods with a context that contains an active OTel span
// (the engine starts one per request, see engine.Engine.Handle), trace_id
// and span_id are injected into every log record:
//
//	slog.InfoContext(ctx, "dispatching collection read", "type", "articles")
//	// Automatically includes trace_id and span_id if context has active span
//
// See the Example functions in logging.go for more examples.
package logging
