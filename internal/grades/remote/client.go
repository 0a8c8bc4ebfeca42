// Package remote implements grades.Service against a running HTTP API, for
// smoke tooling and service-to-service callers.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gradebook.org/internal/grades"
)

// Client talks to the score endpoints of a gradebook API instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ grades.Service = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient constructs a client for the given base URL. The token is sent as
// a bearer credential on every request.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Items []grades.Score `json:"items"`
	Count int            `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) SubmitScore(ctx context.Context, sub grades.Submission) (grades.Score, error) {
	var sc grades.Score
	err := c.do(ctx, http.MethodPost, "/v1/scores", sub, http.StatusCreated, &sc)
	return sc, err
}

func (c *Client) GetScore(ctx context.Context, id string) (grades.Score, error) {
	var sc grades.Score
	err := c.do(ctx, http.MethodGet, "/v1/scores/"+url.PathEscape(id), nil, http.StatusOK, &sc)
	return sc, err
}

func (c *Client) ListScores(ctx context.Context, f grades.Filter) ([]grades.Score, error) {
	q := url.Values{}
	if f.StudentID != "" {
		q.Set("studentId", f.StudentID)
	}
	if f.SubjectID != "" {
		q.Set("subjectId", f.SubjectID)
	}
	if f.Semester != "" {
		q.Set("semester", f.Semester)
	}
	if f.ClassName != "" {
		q.Set("className", f.ClassName)
	}
	path := "/v1/scores"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) UpdateScore(ctx context.Context, id string, comp grades.Components) (grades.Score, error) {
	var sc grades.Score
	err := c.do(ctx, http.MethodPut, "/v1/scores/"+url.PathEscape(id), comp, http.StatusOK, &sc)
	return sc, err
}

func (c *Client) DeleteScore(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/scores/"+url.PathEscape(id), nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, dst any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// apiError maps response statuses back onto the service sentinel errors so
// callers can use errors.Is regardless of transport.
func apiError(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er)
	msg := er.Error
	if msg == "" {
		msg = resp.Status
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", grades.ErrNotFound, msg)
	}
	return fmt.Errorf("api status %d: %s", resp.StatusCode, msg)
}
