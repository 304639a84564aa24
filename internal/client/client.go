// Package client talks to the import API over HTTP. It implements the
// collaborator interfaces of package session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/session"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 5 * time.Minute

// maxErrorBody limits how much of an error response is read.
const maxErrorBody = 1 << 20

// Client calls the analyze and confirm endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ session.Analyzer  = (*Client)(nil)
	_ session.Confirmer = (*Client)(nil)
)

// Analyze uploads the workbook and returns its preview.
func (c *Client) Analyze(ctx context.Context, up session.Upload) (*core.AnalyzeResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", up.Name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(up.Data); err != nil {
		return nil, err
	}

	if err := mw.WriteField("is_default_mode", strconv.FormatBool(up.Mode == core.ModeDefault)); err != nil {
		return nil, err
	}
	if up.Mode == core.ModeExplicit {
		cfg, err := up.Config.Encode()
		if err != nil {
			return nil, err
		}
		if err := mw.WriteField("mapping_config", cfg); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var resp core.AnalyzeResponse
	if err := c.do(ctx, http.MethodPost, "/api/import/analyze", mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Confirm submits preview rows for import.
func (c *Client) Confirm(ctx context.Context, req core.ConfirmRequest) (*core.ImportResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var res core.ImportResult
	if err := c.do(ctx, http.MethodPost, "/api/import/confirm", "application/json", bytes.NewReader(payload), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Purposes lists the purpose options known to the server.
func (c *Client) Purposes(ctx context.Context) ([]core.PurposeOption, error) {
	var out []core.PurposeOption
	if err := c.do(ctx, http.MethodGet, "/api/purposes", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export downloads the stored herd as an xlsx workbook into w.
func (c *Client) Export(ctx context.Context, w io.Writer) error {
	return c.do(ctx, http.MethodGet, "/api/export", "", nil, w)
}

// do sends a request and decodes a 2xx response into out. An io.Writer out
// receives the raw body instead. Failures are
// returned as *core.TransportError when no usable response arrived and as
// *core.ServerError when the server answered with an error document.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &core.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if w, ok := out.(io.Writer); ok {
			if _, err := io.Copy(w, resp.Body); err != nil {
				return &core.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
			}
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &core.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	return errorFromResponse(resp)
}

func errorFromResponse(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &core.TransportError{Status: resp.StatusCode, Err: err}
	}

	var body core.ErrorBody
	if err := json.Unmarshal(data, &body); err == nil && !isEmptyBody(body) {
		return &core.ServerError{Status: resp.StatusCode, Body: body}
	}

	return &core.TransportError{
		Status: resp.StatusCode,
		Err:    errors.New(http.StatusText(resp.StatusCode)),
	}
}

func isEmptyBody(b core.ErrorBody) bool {
	return b.Error == "" && b.Code == "" && len(b.FieldErrors) == 0 && b.Details == nil
}
