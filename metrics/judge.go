/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics exposes OpenTelemetry instruments for the LLM judge calls.
// Counter creation degrades to no-ops on failure so metrics can never take
// down an evaluation.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Judge records token usage and latency for judge endpoint calls, with the
// model name as a dimension.
type Judge struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	calls            metric.Int64Counter
	latency          metric.Float64Histogram
}

// NewJudge creates judge metrics on the given meter name.
func NewJudge(meterName string) *Judge {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("judge.token.prompt",
		metric.WithDescription("Prompt tokens consumed by judge calls"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics disabled", "error", err)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("judge.token.completion",
		metric.WithDescription("Completion tokens produced by judge calls"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics disabled", "error", err)
		completionTokens = noop.Int64Counter{}
	}

	calls, err := meter.Int64Counter("judge.calls",
		metric.WithDescription("Judge endpoint invocations"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create calls counter, metrics disabled", "error", err)
		calls = noop.Int64Counter{}
	}

	latency, err := meter.Float64Histogram("judge.latency",
		metric.WithDescription("Judge endpoint call latency"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("Failed to create latency histogram, metrics disabled", "error", err)
		latency = noop.Float64Histogram{}
	}

	return &Judge{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		calls:            calls,
		latency:          latency,
	}
}

// RecordCall records one judge invocation with its token usage and duration.
func (j *Judge) RecordCall(ctx context.Context, model string, promptTokens, completionTokens int64, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("model", model))
	j.promptTokens.Add(ctx, promptTokens, attrs)
	j.completionTokens.Add(ctx, completionTokens, attrs)
	j.calls.Add(ctx, 1, attrs)
	j.latency.Record(ctx, elapsed.Seconds(), attrs)
}
