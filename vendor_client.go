package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const RequestIDHeader = "X-Request-ID"

// MaxVendorResponseBytes bounds a vendor response body. Document reader
// responses carry every cropped image and can be tens of megabytes.
const MaxVendorResponseBytes = 64 << 20

var ErrVendorResponseTooLarge = errors.New("vendor response exceeds size limit")

// VendorError is returned when a vendor call fails. StatusCode is zero when
// no response was received.
type VendorError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *VendorError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s request failed with status %d", e.Operation, e.StatusCode)
}

func (e *VendorError) Unwrap() error {
	return e.Err
}

// Message is the error text returned to the browser.
func (e *VendorError) Message() string {
	return e.Operation + " request failed."
}

// ResponseStatus is the vendor status, or 502 when the vendor was not reached.
func (e *VendorError) ResponseStatus() int {
	if e.StatusCode == 0 {
		return http.StatusBadGateway
	}
	return e.StatusCode
}

// Details is the raw vendor body, or the transport error.
func (e *VendorError) Details() string {
	if e.StatusCode == 0 && e.Err != nil {
		return e.Err.Error()
	}
	return e.Body
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// vendorClient holds what the face and document reader clients share: a base
// URL, the optional API key header and an http.Client with a fixed timeout.
type vendorClient struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	httpClient   *http.Client
	maxBodyBytes int64
}

func newVendorClient(baseURL, apiKey, apiKeyHeader string, timeout time.Duration) vendorClient {
	return vendorClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		apiKeyHeader: apiKeyHeader,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBodyBytes: MaxVendorResponseBytes,
	}
}

// endpointURL joins the base URL and an endpoint. Absolute endpoints are used
// as they are.
func (c vendorClient) endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func (c vendorClient) postJSON(ctx context.Context, operation, url string, payload any) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, operation)
}

func (c vendorClient) get(ctx context.Context, operation, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	return c.do(req, operation)
}

// do sends req and returns the body and status of a 2xx response. Anything
// else is a *VendorError.
func (c vendorClient) do(req *http.Request, operation string) ([]byte, int, error) {
	req.Header.Set("Accept", "application/json")
	if c.apiKeyHeader != "" && c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}
	requestID := requestIDFromContext(req.Context())
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	slog.Debug("Calling vendor", "operation", operation, "method", req.Method, "url", req.URL.String(), "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Vendor call failed", "operation", operation, "error", err, "request_id", requestID)
		return nil, 0, &VendorError{Operation: operation, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Debug("failed to close vendor response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, 0, &VendorError{Operation: operation, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		slog.Error("Vendor response too large", "operation", operation, "limit", c.maxBodyBytes, "request_id", requestID)
		return nil, 0, &VendorError{Operation: operation, Err: ErrVendorResponseTooLarge}
	}

	slog.Debug("Vendor responded",
		"operation", operation,
		"status_code", resp.StatusCode,
		"body_size", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("Vendor returned an error status", "operation", operation, "status_code", resp.StatusCode, "request_id", requestID)
		return nil, resp.StatusCode, &VendorError{Operation: operation, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, resp.StatusCode, nil
}
