// Package backend is the HTTP/JSON client for the orchestrator REST API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aixgo-dev/agentviz/internal/snapshot"
)

// Config configures a Client
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond paces outgoing requests (0 = unlimited). Burst is the
	// number of requests allowed at once, which matters during detail fan-out.
	RequestsPerSecond float64
	Burst             int
}

// Tool describes a tool the orchestrator can hand to agents.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Client talks to the orchestrator. It implements snapshot.Source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ snapshot.Source = (*Client)(nil)

// NewClient creates a client targeting cfg.BaseURL (e.g. "http://localhost:5000").
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Roster lists the agents known to the orchestrator, in backend order.
func (c *Client) Roster(ctx context.Context) ([]snapshot.RosterEntry, error) {
	var entries []snapshot.RosterEntry
	if err := c.getJSON(ctx, "/agents", &entries); err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return entries, nil
}

// AgentDetail fetches one agent's record.
func (c *Client) AgentDetail(ctx context.Context, id string) (snapshot.Detail, error) {
	var detail snapshot.Detail
	if err := c.getJSON(ctx, "/agent/"+url.PathEscape(id), &detail); err != nil {
		return snapshot.Detail{}, fmt.Errorf("getting agent %s: %w", id, err)
	}
	return detail, nil
}

// Tools lists every tool available to the orchestrator.
func (c *Client) Tools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	if err := c.getJSON(ctx, "/tools", &tools); err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	return tools, nil
}

// Ping checks that the roster endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Roster(ctx)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
