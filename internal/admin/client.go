package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// DefaultClientTimeout bounds a single API request.
const DefaultClientTimeout = 30 * time.Second

// maxResponseSize bounds the decoded response bodies.
const maxResponseSize = 16 << 20

// APIError is an error response of the marker API.
type APIError struct {
	Status  int
	Message string
	Action  string
	Code    string
	Kind    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (Code: %s)", e.Message, e.Code)
	}
	return e.Message
}

// Unwrap maps the error kind back to the matching core error so callers
// can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Kind {
	case "NotFound":
		return core.ErrNotFound
	case "RevisionConflict":
		return core.ErrRevisionConflict
	case "UnsupportedFileType":
		return core.ErrUnsupportedFileType
	case "MissingRequiredColumns":
		return core.ErrMissingRequiredColumns
	case "NoMarkers":
		return core.ErrNoMarkers
	case "Busy":
		return core.ErrTooManyImports
	}
	return nil
}

// HTTPClient implements API against the marker HTTP endpoints.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
	apiKey  string
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithToken authenticates requests with a session token.
func WithToken(token string) ClientOption {
	return func(c *HTTPClient) { c.token = token }
}

// WithAPIKey authenticates requests with an API key.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) { c.http = hc }
}

// NewHTTPClient creates a client for the server at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type markerResponse struct {
	Message string      `json:"message"`
	Marker  core.Marker `json:"marker"`
}

type markersResponse struct {
	Markers []core.Marker `json:"markers"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
	Kind    string `json:"kind"`
}

// List returns the markers of a map.
func (c *HTTPClient) List(ctx context.Context, mapID string) ([]core.Marker, error) {
	var resp markersResponse
	if err := c.do(ctx, http.MethodGet, c.mapPath(mapID, "markers"), nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Markers, nil
}

// Create adds a marker.
func (c *HTTPClient) Create(ctx context.Context, mapID string, raw core.RawMarker) (core.Marker, error) {
	return c.sendMarker(ctx, http.MethodPost, c.mapPath(mapID, "markers"), raw)
}

// Update replaces a marker.
func (c *HTTPClient) Update(ctx context.Context, mapID, markerID string, raw core.RawMarker) (core.Marker, error) {
	return c.sendMarker(ctx, http.MethodPut, c.mapPath(mapID, "markers", markerID), raw)
}

// Delete removes a marker.
func (c *HTTPClient) Delete(ctx context.Context, mapID, markerID string) error {
	return c.do(ctx, http.MethodDelete, c.mapPath(mapID, "markers", markerID), nil, "", nil)
}

// Import uploads a CSV file as the csv_file form field.
func (c *HTTPClient) Import(ctx context.Context, mapID, fileName string, body []byte) (*core.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="csv_file"; filename=%q`, fileName))
	h.Set("Content-Type", "text/csv")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(body); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res core.ImportResult
	if err := c.do(ctx, http.MethodPost, c.mapPath(mapID, "import"), &buf, mw.FormDataContentType(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) sendMarker(ctx context.Context, method, path string, raw core.RawMarker) (core.Marker, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return core.Marker{}, fmt.Errorf("encode marker: %w", err)
	}
	var resp markerResponse
	if err := c.do(ctx, method, path, bytes.NewReader(data), "application/json", &resp); err != nil {
		return core.Marker{}, err
	}
	return resp.Marker, nil
}

func (c *HTTPClient) mapPath(mapID string, parts ...string) string {
	segments := []string{"api", "maps", url.PathEscape(mapID)}
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return "/" + strings.Join(segments, "/")
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err != nil || (er.Message == "" && er.Error == "") {
		return &APIError{Status: status, Message: http.StatusText(status)}
	}
	msg := er.Message
	if msg == "" {
		msg = er.Error
	}
	return &APIError{Status: status, Message: msg, Action: er.Action, Code: er.Code, Kind: er.Kind}
}
