// Package execute talks to the external code-execution service. The
// service is an opaque collaborator: one request in, one combined
// stdout/stderr result (or one error) out. No retries.
package execute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public Piston endpoint used when no private
// execution service is configured.
const DefaultBaseURL = "https://emkc.org/api/v2/piston"

const requestTimeout = 30 * time.Second

// Request describes one execution of user source code.
type Request struct {
	Language string
	Version  string
	Code     string
	Stdin    string
}

// Result is the combined stdout/stderr of one execution.
type Result struct {
	Output string
}

// Runner is implemented by Client and by test fakes in the relay.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Client is an HTTP client for a Piston-compatible execution API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
	Stdin    string        `json:"stdin,omitempty"`
}

type executeFile struct {
	Content string `json:"content"`
}

type executeResponse struct {
	Run struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		Output string `json:"output"`
		Code   int    `json:"code"`
	} `json:"run"`
	Message string `json:"message"`
}

// Run submits the source for execution and returns its combined output.
// A non-2xx status or transport failure is returned as an error; the relay
// converts it into a synthetic error result so the room always receives
// exactly one response per request.
func (c *Client) Run(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(executeRequest{
		Language: req.Language,
		Version:  req.Version,
		Files:    []executeFile{{Content: req.Code}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read execute response: %w", err)
	}

	var parsed executeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode execute response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Message != "" {
			return Result{}, fmt.Errorf("execution service: %s", parsed.Message)
		}
		return Result{}, fmt.Errorf("execution service: status %d", resp.StatusCode)
	}

	out := parsed.Run.Output
	if out == "" {
		out = parsed.Run.Stdout + parsed.Run.Stderr
	}
	return Result{Output: out}, nil
}
