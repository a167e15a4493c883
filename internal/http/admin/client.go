package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/http/records"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

// APIError is a non-2xx answer from the payrecon API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status=%d: %s", e.StatusCode, e.Message)
}

// Client calls the admin and records APIs with a bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func (c *Client) Record(ctx context.Context, id uuid.UUID) (*records.RecordResponse, error) {
	var rec records.RecordResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/records/"+id.String(), nil, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (c *Client) Records(ctx context.Context, kind payable.Kind, status payable.Status) ([]records.RecordResponse, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", string(kind))
	}

	if status != "" {
		q.Set("status", string(status))
	}

	path := "/api/v1/records"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []records.RecordResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) Ledger(ctx context.Context, id uuid.UUID) ([]records.LedgerResponse, error) {
	var out []records.LedgerResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/records/"+id.String()+"/ledger", nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) Audit(ctx context.Context, id uuid.UUID) ([]records.AuditResponse, error) {
	var out []records.AuditResponse
	if err := c.do(ctx, http.MethodGet, "/admin/records/"+id.String()+"/audit", nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) ForceTransition(ctx context.Context, id uuid.UUID, status payable.Status, reason string) (*TransitionResponse, error) {
	in := transitionRequest{Status: status, Reason: reason}

	var out TransitionResponse
	if err := c.do(ctx, http.MethodPost, "/admin/records/"+id.String()+"/transition", in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Reactivate(ctx context.Context, id uuid.UUID, reason string) (*TransitionResponse, error) {
	var out TransitionResponse
	if err := c.do(ctx, http.MethodPost, "/admin/records/"+id.String()+"/reactivate", reasonRequest{Reason: reason}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Purge(ctx context.Context, id uuid.UUID, reason string) error {
	return c.do(ctx, http.MethodDelete, "/admin/records/"+id.String(), reasonRequest{Reason: reason}, nil)
}

// DeadLetters lists letters. Without all, resolved letters are hidden.
func (c *Client) DeadLetters(ctx context.Context, reason string, all bool, limit int) ([]LetterResponse, error) {
	q := url.Values{}
	if reason != "" {
		q.Set("reason", reason)
	}

	if all {
		q.Set("all", "true")
	}

	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/admin/dead-letters"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []LetterResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) DeadLetter(ctx context.Context, id uuid.UUID) (*LetterResponse, error) {
	var out LetterResponse
	if err := c.do(ctx, http.MethodGet, "/admin/dead-letters/"+id.String(), nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) RetryDeadLetter(ctx context.Context, id uuid.UUID) (*LetterResponse, error) {
	var out LetterResponse
	if err := c.do(ctx, http.MethodPost, "/admin/dead-letters/"+id.String()+"/retry", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Sweep runs one dead-letter sweep on the server and returns how many
// letters were retried.
func (c *Client) Sweep(ctx context.Context) (int, error) {
	var out struct {
		Retried int `json:"retried"`
	}

	if err := c.do(ctx, http.MethodPost, "/admin/dead-letters/sweep", nil, &out); err != nil {
		return 0, err
	}

	return out.Retried, nil
}
