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

package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRequest is the minimal RequestInfo a component like
// jsonapi.RequestContext provides.
type fakeRequest struct {
	method, path, query string
}

func (r fakeRequest) RequestMethod() string { return r.method }
func (r fakeRequest) RequestPath() string   { return r.path }
func (r fakeRequest) RequestQuery() string  { return r.query }

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	logger, err := New()
	require.NoError(t, err)
	assert.Equal(t, "rivaas", logger.ServiceName())
	assert.Equal(t, LevelInfo, logger.Level())
}

func TestNew_AppliesOptions(t *testing.T) {
	t.Parallel()

	logger, err := New(WithServiceName("jsonapi-engine"), WithDebugLevel())
	require.NoError(t, err)
	assert.Equal(t, "jsonapi-engine", logger.ServiceName())
	assert.Equal(t, LevelDebug, logger.Level())
}

func TestMustNew_PanicsOnInvalidHandler(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNew(WithHandlerType("bogus"))
	})
}

func TestLogRequest_IncludesMethodPathAndQuery(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()
	logger.LogRequest(fakeRequest{method: "GET", path: "/api/articles", query: "filter[title]=foo"}, "status", 200)

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "http request", entries[0].Message)
	assert.Equal(t, "GET", entries[0].Attrs["method"])
	assert.Equal(t, "/api/articles", entries[0].Attrs["path"])
	assert.Equal(t, "filter[title]=foo", entries[0].Attrs["query"])
	assert.InEpsilon(t, float64(200), entries[0].Attrs["status"], 0)
}

func TestLogRequest_OmitsQueryWhenEmpty(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()
	logger.LogRequest(fakeRequest{method: "GET", path: "/api/articles"})

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, hasQuery := entries[0].Attrs["query"]
	assert.False(t, hasQuery)
}

func TestLogError_IncludesErrorMessage(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()
	logger.LogError(errors.New("persister rejected create"), "dispatch failed", "type", "articles")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dispatch failed", entries[0].Message)
	assert.Equal(t, "persister rejected create", entries[0].Attrs["error"])
	assert.Equal(t, "articles", entries[0].Attrs["type"])
}

func TestLogDuration_IncludesDurationFields(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()
	logger.LogDuration("include expansion completed", time.Now().Add(-5*time.Millisecond))

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "include expansion completed", entries[0].Message)
	assert.Contains(t, entries[0].Attrs, "duration_ms")
	assert.Contains(t, entries[0].Attrs, "duration")
}

func TestShutdown_SilencesFurtherLogs(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()
	require.NoError(t, logger.Shutdown(context.Background()))

	logger.LogRequest(fakeRequest{method: "GET", path: "/api/articles"})

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewContextLogger_NoActiveSpan(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()
	cl := NewContextLogger(context.Background(), logger)
	cl.Info("dispatching request", "type", "articles", "id", "123")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, cl.TraceID())
	assert.Empty(t, cl.SpanID())
	assert.Equal(t, "123", entries[0].Attrs["id"])
}

func TestFakeRequestSatisfiesRequestInfo(t *testing.T) {
	t.Parallel()

	var _ RequestInfo = fakeRequest{}
}
