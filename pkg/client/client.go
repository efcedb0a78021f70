// Package client provides the Go SDK for the snarkgate HTTP API: submitting
// proofs and retrieving, listing, and deleting submissions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SubmitRequest is the payload for Submit. Proof and VerificationKey must be
// Base64-encoded.
type SubmitRequest struct {
	Proof           string   `json:"proof"`
	PublicInputs    []string `json:"public_inputs"`
	VerificationKey string   `json:"verification_key"`
	ProofSystem     string   `json:"proof_system"`
	Submitter       string   `json:"submitter"`
	Notes           string   `json:"notes,omitempty"`
}

// SubmitResult holds the acknowledgment returned by Submit and Delete.
type SubmitResult struct {
	Success bool    `json:"success"`
	ID      *uint64 `json:"id,omitempty"`
	Message string  `json:"message"`
}

// SnarkDetails holds the full submission record returned by Get.
type SnarkDetails struct {
	ID              uint64   `json:"id"`
	Proof           string   `json:"proof"`
	PublicInputs    []string `json:"public_inputs"`
	VerificationKey string   `json:"verification_key"`
	ProofSystem     string   `json:"proof_system"`
	Submitter       string   `json:"submitter"`
	Submitted       string   `json:"submitted"`
	Status          string   `json:"status"`
	ErrorMessage    *string  `json:"error_message,omitempty"`
	Notes           string   `json:"notes"`
}

// SnarkSummary is one row of a List result.
type SnarkSummary struct {
	ID          uint64 `json:"id"`
	ProofSystem string `json:"proof_system"`
	Submitter   string `json:"submitter"`
	Submitted   string `json:"submitted"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// SnarkList is the result of List.
type SnarkList struct {
	Snarks []SnarkSummary `json:"snarks"`
	Total  int            `json:"total"`
}

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// Client is the snarkgate SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a Client for the gateway at base (e.g. "http://localhost:8080").
func New(base string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit sends a proof submission. On success the gateway replies 201 with
// the assigned id.
func (c *Client) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	var out SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/snark", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get retrieves the full record for a submission id.
func (c *Client) Get(ctx context.Context, id uint64) (*SnarkDetails, error) {
	var out SnarkDetails
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/snark/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List retrieves the summaries of all submissions.
func (c *Client) List(ctx context.Context) (*SnarkList, error) {
	var out SnarkList
	if err := c.do(ctx, http.MethodGet, "/api/v1/snarks", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a submission by id.
func (c *Client) Delete(ctx context.Context, id uint64) (*SubmitResult, error) {
	var out SubmitResult
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/snark/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON round trip against the gateway.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
