/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package braintrust is a narrow client for the experiment-tracking backend:
// append-to-log, append-to-named-experiment and upsert-into-named-dataset,
// each keyed by project. Containers are registered by name, so repeated
// invocations with the same derived name are idempotent.
package braintrust

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the backend's REST surface with bearer-key auth.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New constructs a Client. An empty apiKey is allowed; requests will be
// rejected by the backend, surfacing as transport errors at the call sites
// that care.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Event is one logged entry. Expected is distinct from Output to enable
// downstream diffing between predicted and actual; DatasetRecordID links a
// replay entry back to its originating dataset row so the backend can
// compute per-row score deltas.
type Event struct {
	ID              string             `json:"id,omitempty"`
	Input           any                `json:"input,omitempty"`
	Output          any                `json:"output,omitempty"`
	Expected        any                `json:"expected,omitempty"`
	Scores          map[string]float64 `json:"scores,omitempty"`
	Metadata        map[string]any     `json:"metadata,omitempty"`
	DatasetRecordID string             `json:"dataset_record_id,omitempty"`
}

type container struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Logger appends trace entries to the continuously-growing project log.
func (c *Client) Logger(ctx context.Context, project string) (*Logger, error) {
	proj, err := c.register(ctx, "/v1/project", map[string]string{"name": project})
	if err != nil {
		return nil, fmt.Errorf("registering project %q: %w", project, err)
	}
	return &Logger{client: c, projectID: proj.ID}, nil
}

// Experiment creates or reuses the named experiment under project.
func (c *Client) Experiment(ctx context.Context, project, name string) (*Experiment, error) {
	proj, err := c.register(ctx, "/v1/project", map[string]string{"name": project})
	if err != nil {
		return nil, fmt.Errorf("registering project %q: %w", project, err)
	}
	exp, err := c.register(ctx, "/v1/experiment", map[string]string{
		"project_id": proj.ID,
		"name":       name,
	})
	if err != nil {
		return nil, fmt.Errorf("registering experiment %q: %w", name, err)
	}
	return &Experiment{client: c, id: exp.ID, name: name}, nil
}

// Dataset creates or reuses the named dataset under project.
func (c *Client) Dataset(ctx context.Context, project, name string) (*Dataset, error) {
	proj, err := c.register(ctx, "/v1/project", map[string]string{"name": project})
	if err != nil {
		return nil, fmt.Errorf("registering project %q: %w", project, err)
	}
	ds, err := c.register(ctx, "/v1/dataset", map[string]string{
		"project_id": proj.ID,
		"name":       name,
	})
	if err != nil {
		return nil, fmt.Errorf("registering dataset %q: %w", name, err)
	}
	return &Dataset{client: c, id: ds.ID, name: name}, nil
}

func (c *Client) register(ctx context.Context, path string, body map[string]string) (*container, error) {
	var out container
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) insert(ctx context.Context, path string, events []Event) error {
	return c.do(ctx, http.MethodPost, path, map[string]any{"events": events}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
