// Package apiclient talks to the remote ingest and analysis service over HTTP.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/telemetry"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
)

// maxResponseBytes bounds how much of a response body is buffered.
const maxResponseBytes = 64 << 20

// Endpoint labels used for logs and metrics.
const (
	uploadEndpoint   = "upload"
	generateEndpoint = "generate_graph"
	fetchEndpoint    = "fetch_graph"
)

// Client implements contract.ServiceClient against a base URL such as http://localhost:5000.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ contract.ServiceClient = &Client{} // Compile-time check

// New creates a client. A zero timeout means no client-side deadline.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "apiclient").Logger(),
	}
}

// Upload streams the archive as multipart form data under the "project" field.
func (c *Client) Upload(ctx context.Context, archive schema.Archive) (schema.RawResponse, error) {
	file, err := os.Open(archive.Path)
	if err != nil {
		return schema.RawResponse{}, fmt.Errorf("failed to open archive %s: %w", archive.Path, err)
	}
	defer func() { _ = file.Close() }()

	name := archive.Name
	if name == "" {
		name = filepath.Base(archive.Path)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(schema.UploadFieldName, name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+schema.UploadPath, pr)
	if err != nil {
		_ = pr.Close()
		return schema.RawResponse{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, uploadEndpoint)
	// Unblock the writer goroutine if the transport stopped reading early
	_ = pr.Close()
	return resp, err
}

// GenerateGraph requests analysis of an uploaded project. The request has no body.
func (c *Client) GenerateGraph(ctx context.Context, projectID string) (schema.RawResponse, error) {
	endpoint := c.baseURL + schema.GenerateGraphPath + url.PathEscape(projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return schema.RawResponse{}, fmt.Errorf("failed to build analysis request: %w", err)
	}
	return c.do(req, generateEndpoint)
}

// FetchGraph retrieves the stored graph of a project.
func (c *Client) FetchGraph(ctx context.Context, projectID string) (schema.RawResponse, error) {
	endpoint := c.baseURL + schema.FetchGraphPath + url.PathEscape(projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return schema.RawResponse{}, fmt.Errorf("failed to build graph request: %w", err)
	}
	return c.do(req, fetchEndpoint)
}

// do sends the request and buffers the response body regardless of status.
func (c *Client) do(req *http.Request, endpoint string) (schema.RawResponse, error) {
	requestID := uuid.NewString()
	req.Header.Set(schema.RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	log := c.log.With().Str("endpoint", endpoint).Str("request_id", requestID).Logger()
	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("sending request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.RecordRequest(endpoint, 0, time.Since(start))
		log.Debug().Err(err).Msg("request failed")
		return schema.RawResponse{}, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	telemetry.RecordRequest(endpoint, resp.StatusCode, elapsed)
	if err != nil {
		return schema.RawResponse{}, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", elapsed).Int("bytes", len(body)).Msg("received response")
	return schema.RawResponse{Status: resp.StatusCode, Body: body}, nil
}
