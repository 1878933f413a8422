// Package backend is the HTTP client for the external REST backend that owns
// subscriptions, ideas, evidence, users and projects.
//
// Every collection supports list (optional page/size/sort), create, partial
// update and delete. List endpoints answer with a paginated envelope; single
// item operations answer with the bare entity. The client performs exactly one
// request per call: there is no retry, backoff or idempotency handling.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ideaboard/api/internal/store"
)

type Collection string

const (
	Subscriptions Collection = "subscriptions"
	Ideas         Collection = "ideas"
	Evidence      Collection = "evidence"
	Users         Collection = "users"
	Projects      Collection = "projects"
)

// ErrNetworkFailure matches every failed exchange with the backend: transport
// errors as well as unexpected status codes.
var ErrNetworkFailure = errors.New("backend request failed")

// StatusError reports a response whose status code was not expected.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNetworkFailure:
		return true
	case store.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case store.ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// NewClient creates a client for baseURL (scheme and host, no trailing /api).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func collectionPath(collection Collection, parts ...string) string {
	p := "/api/" + string(collection)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

type pageQuery struct {
	req store.PageRequest
	set bool
}

func (r pageQuery) encode() string {
	values := url.Values{}
	if r.set {
		values.Set("page", strconv.Itoa(r.req.Page))
		if r.req.Size > 0 {
			values.Set("size", strconv.Itoa(r.req.Size))
		}
	}
	if r.req.Sort != "" {
		values.Set("sort", r.req.Sort)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func paged(req *store.PageRequest) pageQuery {
	if req == nil {
		return pageQuery{}
	}
	return pageQuery{req: *req, set: true}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, reader, contentType)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetworkFailure, req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// readResponse reads the body and checks the status code against expected.
func readResponse(resp *http.Response, expected ...int) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrNetworkFailure, err)
	}
	for _, code := range expected {
		if resp.StatusCode == code {
			return body, nil
		}
	}
	return nil, &StatusError{
		Method:     resp.Request.Method,
		Path:       resp.Request.URL.Path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// Result is the outcome of a single successful exchange.
type Result struct {
	StatusCode int
	Body       json.RawMessage
}

// ID extracts the "id" attribute of a created entity, if any. Numeric ids are
// returned in their decimal form.
func (r Result) ID() string {
	var entity map[string]any
	if err := json.Unmarshal(r.Body, &entity); err != nil {
		return ""
	}
	switch id := entity["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// List fetches a collection. A nil page request sends no paging parameters.
func (c *Client) List(ctx context.Context, collection Collection, req *store.PageRequest) (Listing, error) {
	path := collectionPath(collection)
	resp, err := c.doJSON(ctx, http.MethodGet, path+paged(req).encode(), nil)
	if err != nil {
		return Listing{}, err
	}
	status := resp.StatusCode
	body, err := readResponse(resp, http.StatusOK)
	if err != nil {
		return Listing{}, err
	}
	return newListing(status, body), nil
}

func (c *Client) Create(ctx context.Context, collection Collection, payload any) (Result, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, collectionPath(collection), payload)
	if err != nil {
		return Result{}, err
	}
	status := resp.StatusCode
	body, err := readResponse(resp, http.StatusOK, http.StatusCreated)
	if err != nil {
		return Result{}, err
	}
	return Result{StatusCode: status, Body: body}, nil
}

func (c *Client) Update(ctx context.Context, collection Collection, id string, patch any) (Result, error) {
	resp, err := c.doJSON(ctx, http.MethodPatch, collectionPath(collection, id), patch)
	if err != nil {
		return Result{}, err
	}
	status := resp.StatusCode
	body, err := readResponse(resp, http.StatusOK)
	if err != nil {
		return Result{}, err
	}
	return Result{StatusCode: status, Body: body}, nil
}

func (c *Client) Delete(ctx context.Context, collection Collection, id string) (Result, error) {
	resp, err := c.doJSON(ctx, http.MethodDelete, collectionPath(collection, id), nil)
	if err != nil {
		return Result{}, err
	}
	status := resp.StatusCode
	body, err := readResponse(resp, http.StatusOK, http.StatusNoContent)
	if err != nil {
		return Result{}, err
	}
	return Result{StatusCode: status, Body: body}, nil
}

// Ping issues a minimal list request against the users collection.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.List(ctx, Users, &store.PageRequest{Page: 0, Size: 1})
	return err
}
