/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package trello enriches judge prompts with ticket context when a card
// reference appears in the task text. Absence is not failure: missing
// credentials or no extractable card ID yield a nil Enrichment with no
// error, and only transport problems surface.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const defaultBaseURL = "https://api.trello.com"

var (
	cardURLPattern = regexp.MustCompile(`trello\.com/c/(\w+)`)
	cardRefPattern = regexp.MustCompile(`(?i)Card[:\s]+(\w+)`)
)

// Enrichment is the ticket context attached to a judge prompt.
type Enrichment struct {
	CardID string
	Name   string
	Desc   string
}

// String renders the enrichment the way it is embedded in prompts.
func (e *Enrichment) String() string {
	return fmt.Sprintf("Card: %s\n%s", e.Name, e.Desc)
}

// Client fetches card context from the ticket-tracking API.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	http    *http.Client
}

// New constructs a Client. Empty credentials produce a client whose Enrich
// always returns (nil, nil).
func New(apiKey, token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ExtractCardID finds a card reference in task text via a card URL or a
// "Card: <id>" marker. Returns "" when neither is present.
func ExtractCardID(taskText string) string {
	if m := cardURLPattern.FindStringSubmatch(taskText); m != nil {
		return m[1]
	}
	if m := cardRefPattern.FindStringSubmatch(taskText); m != nil {
		return m[1]
	}
	return ""
}

// Enrich looks up the card referenced by taskText. A nil, nil return means
// no enrichment applies; an error means a lookup was attempted and failed,
// which callers log and continue past.
func (c *Client) Enrich(ctx context.Context, taskText string) (*Enrichment, error) {
	if c.apiKey == "" || c.token == "" {
		return nil, nil
	}
	cardID := ExtractCardID(taskText)
	if cardID == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/1/cards/%s?key=%s&token=%s&fields=name,desc",
		c.baseURL, url.PathEscape(cardID), url.QueryEscape(c.apiKey), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building card request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching card %s: %w", cardID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching card %s: status %d", cardID, resp.StatusCode)
	}

	var card struct {
		Name string `json:"name"`
		Desc string `json:"desc"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("decoding card %s: %w", cardID, err)
	}

	return &Enrichment{CardID: cardID, Name: card.Name, Desc: card.Desc}, nil
}
