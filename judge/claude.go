/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"

	"github.com/themailman05/factory/braintrust"
	"github.com/themailman05/factory/metrics"
	"github.com/themailman05/factory/record"
	"github.com/themailman05/factory/retry"
)

const (
	defaultMaxTokens = 2000
	scorerName       = "llm-pr-scorer"
)

// TraceSink receives one trace entry per judge call, independent of the
// final run record. Required for cost and latency observability of the
// judge calls themselves; delivery is best-effort.
type TraceSink interface {
	Log(ctx context.Context, ev braintrust.Event) error
}

var _ TraceSink = (*braintrust.Logger)(nil)

// Claude implements Interface against the Anthropic API with deterministic
// sampling: temperature zero, fixed model, bounded output.
type Claude struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	retryConfig retry.Config
	sink        TraceSink
	metrics     *metrics.Judge
}

// Option configures a Claude judge.
type Option func(*Claude)

// WithTraceSink wires per-call trace logging.
func WithTraceSink(sink TraceSink) Option {
	return func(c *Claude) { c.sink = sink }
}

// WithRetryConfig overrides the transient-error retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Claude) { c.retryConfig = cfg }
}

// NewClaude constructs a Claude judge.
func NewClaude(apiKey, model string, opts ...Option) (*Claude, error) {
	if model == "" {
		return nil, errors.New("judge model cannot be empty")
	}
	c := &Claude{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   defaultMaxTokens,
		retryConfig: retry.DefaultConfig(),
		metrics:     metrics.NewJudge("factory.eval.judge"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Judge implements Interface.
func (c *Claude) Judge(ctx context.Context, req *Request) (*Verdict, error) {
	log := clog.FromContext(ctx)

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("building scoring prompt: %w", err)
	}

	log.With("prompt_length", len(prompt)).
		With("model", c.model).
		Info("Submitting run evidence to judge")

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemInstructions}},
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
	}
	params.Temperature = anthropic.Float(0)

	start := time.Now()
	message, err := retry.WithBackoff(ctx, c.retryConfig, "judge_message", isRetryableError, func() (anthropic.Message, error) {
		stream := c.client.Messages.NewStreaming(ctx, params)
		var msg anthropic.Message
		for stream.Next() {
			if err := msg.Accumulate(stream.Current()); err != nil {
				return msg, fmt.Errorf("accumulating event: %w", err)
			}
		}
		if err := stream.Err(); err != nil {
			return msg, err
		}
		return msg, nil
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}

	c.metrics.RecordCall(ctx, c.model, message.Usage.InputTokens, message.Usage.OutputTokens, elapsed)

	var text string
	for _, content := range message.Content {
		if content.Type == "text" {
			text = content.Text
		}
	}
	if text == "" {
		c.logTrace(ctx, req, prompt, text, elapsed, message, errors.New("empty response"))
		return nil, fmt.Errorf("%w: no text content in judge response", ErrMalformedVerdict)
	}

	verdict, parseErr := ParseVerdict(text)
	c.logTrace(ctx, req, prompt, text, elapsed, message, parseErr)
	if parseErr != nil {
		log.With("response", text).With("error", parseErr.Error()).
			Error("Judge returned unparseable verdict")
		return nil, parseErr
	}

	log.With("verdict", verdict.Verdict).
		With("overall", verdict.Overall.Score).
		Info("Judge verdict parsed")
	return verdict, nil
}

// logTrace records the call itself to the telemetry sink, best-effort.
func (c *Claude) logTrace(ctx context.Context, req *Request, prompt, response string, elapsed time.Duration, msg anthropic.Message, callErr error) {
	if c.sink == nil {
		return
	}
	meta := map[string]any{
		"scorer":        scorerName,
		"model":         c.model,
		"prompt_length": len(prompt),
		"latency_ms":    elapsed.Milliseconds(),
		"input_tokens":  msg.Usage.InputTokens,
		"output_tokens": msg.Usage.OutputTokens,
		"status":        string(req.Status),
		"iterations":    req.Iterations,
		"branch":        req.Branch,
	}
	if callErr != nil {
		meta["error"] = callErr.Error()
	}
	// Log failures are already warned inside the sink.
	_ = c.sink.Log(ctx, braintrust.Event{
		Input:    record.TaskTitle(req.TaskText),
		Output:   clip(response, 4000),
		Metadata: meta,
	})
}

// isRetryableError returns true for rate limit, overloaded, and transient
// server errors from the judge endpoint.
func isRetryableError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}
