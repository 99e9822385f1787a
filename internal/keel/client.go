package keel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	approvalsPath    = "/v1/approvals"
	maxResponseBytes = 10 << 20 // prevent unbounded reads from API responses
)

// Client is a thin HTTP wrapper around the Keel approval API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	tracer   trace.Tracer
}

// NewClient creates a Keel API client. username/password may be empty when
// the Keel instance runs without basic auth.
func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
		tracer:   otel.Tracer("keelbot/keel"),
	}
}

// approvalVote is the request body for approval mutations.
type approvalVote struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Voter      string `json:"voter,omitempty"`
	Action     string `json:"action,omitempty"`
}

// List fetches the full approval listing. No filtering: callers rely on
// seeing archived/rejected/approved items so terminal states can be rendered.
func (c *Client) List(ctx context.Context) ([]Approval, error) {
	ctx, span := c.tracer.Start(ctx, "keel.List")
	defer span.End()

	var items []Approval
	if err := c.do(ctx, http.MethodGet, approvalsPath, nil, &items); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("keel.approvals", len(items)))
	return items, nil
}

// ListOpen fetches the listing and keeps only open (non-archived,
// non-rejected) approvals. Used for approve/reject resolution where voting
// on a closed item would be rejected by the API anyway.
func (c *Client) ListOpen(ctx context.Context) ([]Approval, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	open := items[:0]
	for _, item := range items {
		if item.Open() {
			open = append(open, item)
		}
	}
	return open, nil
}

// Approve casts an approve vote on behalf of voter.
func (c *Client) Approve(ctx context.Context, id, identifier, voter string) error {
	return c.vote(ctx, "approve", id, identifier, voter)
}

// Reject rejects the approval on behalf of voter.
func (c *Client) Reject(ctx context.Context, id, identifier, voter string) error {
	return c.vote(ctx, "reject", id, identifier, voter)
}

func (c *Client) vote(ctx context.Context, action, id, identifier, voter string) error {
	ctx, span := c.tracer.Start(ctx, "keel."+action,
		trace.WithAttributes(attribute.String("keel.approval_id", id)))
	defer span.End()

	err := c.do(ctx, http.MethodPost, approvalsPath, approvalVote{
		ID:         id,
		Identifier: identifier,
		Voter:      voter,
		Action:     action,
	}, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Delete removes an approval entirely.
func (c *Client) Delete(ctx context.Context, id, identifier, voter string) error {
	ctx, span := c.tracer.Start(ctx, "keel.Delete",
		trace.WithAttributes(attribute.String("keel.approval_id", id)))
	defer span.End()

	err := c.do(ctx, http.MethodDelete, approvalsPath, approvalVote{
		ID:         id,
		Identifier: identifier,
		Voter:      voter,
	}, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// do sends one JSON request and decodes the response into out (if non-nil).
// Non-2xx responses become *APIError carrying the response body text.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("keel: marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("keel: create %s %s request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("keel: %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("keel: read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Status: resp.StatusCode,
			Detail: strings.TrimSpace(string(respBody)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("keel: decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}
