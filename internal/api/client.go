// Package api is the HTTP gateway to the SeeForMe backend. It attaches
// bearer tokens, serializes JSON bodies and normalizes failures into a
// typed error; it knows nothing about individual endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leekHotline/seeforme/internal/keystore"
)

type Client struct {
	baseURL string
	tokens  keystore.Store
	httpc   *http.Client
}

func New(baseURL string, timeout time.Duration, tokens keystore.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Options controls a single call. The zero value is a GET with auth.
type Options struct {
	Method string
	Body   any // JSON-encoded when non-nil

	// RawBody bypasses JSON serialization (binary uploads). The caller
	// sets ContentType, or leaves it empty for the transport default.
	RawBody     io.Reader
	ContentType string

	Header http.Header
	NoAuth bool
}

// Do performs one request and returns the raw response body. A non-2xx
// response or transport failure comes back as *Error.
func (c *Client) Do(ctx context.Context, endpoint string, opts Options) ([]byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	switch {
	case opts.RawBody != nil:
		body = opts.RawBody
		contentType = opts.ContentType
	case opts.Body != nil:
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, vals := range opts.Header {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// The token is read from the store on every call rather than cached,
	// so a refresh or logout in another flow is always respected.
	if !opts.NoAuth {
		token, err := c.tokens.Get(keystore.KeyAccessToken)
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, cause: err}
	}
	return raw, nil
}

// GetJSON issues an authenticated GET and decodes into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	return c.doJSON(ctx, endpoint, Options{}, out)
}

// PostJSON issues an authenticated POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body, out any) error {
	return c.doJSON(ctx, endpoint, Options{Method: http.MethodPost, Body: body}, out)
}

// PostJSONPublic is PostJSON without a bearer token, for the auth
// endpoints that are called before any credentials exist.
func (c *Client) PostJSONPublic(ctx context.Context, endpoint string, body, out any) error {
	return c.doJSON(ctx, endpoint, Options{Method: http.MethodPost, Body: body, NoAuth: true}, out)
}

// PatchJSON issues an authenticated PATCH with a JSON body.
func (c *Client) PatchJSON(ctx context.Context, endpoint string, body, out any) error {
	return c.doJSON(ctx, endpoint, Options{Method: http.MethodPatch, Body: body}, out)
}

// PutRaw streams body to endpoint unmodified. Used for presigned upload
// URLs, which are absolute and carry their own content type.
func (c *Client) PutRaw(ctx context.Context, endpoint, contentType string, body io.Reader) error {
	_, err := c.Do(ctx, endpoint, Options{
		Method:      http.MethodPut,
		RawBody:     body,
		ContentType: contentType,
		NoAuth:      true,
	})
	return err
}

func (c *Client) doJSON(ctx context.Context, endpoint string, opts Options, out any) error {
	raw, err := c.Do(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

// resolve prefixes relative endpoints with the base URL; absolute URLs
// (presigned uploads) pass through untouched.
func (c *Client) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{
		Status: resp.StatusCode,
		Kind:   kindForStatus(resp.StatusCode),
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}
	// Error bodies are {"detail": "..."} when present; anything else is
	// ignored rather than failing the failure path.
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}
