// Package gateway holds the typed HTTP clients for the bill,
// acquisition and customer services. Every call is a single request
// with a fixed timeout; 404 maps to a NotFoundError, any other non-2xx
// or transport error maps to a RemoteFailureError. No retries here,
// callers decide.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
)

type client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func newClient(service, baseURL string, timeout time.Duration, logger *zap.Logger) *client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &client{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named(service),
	}
}

// doJSON issues one request and decodes a 2xx response body into out.
// notFoundKey names the entity key used in the NotFoundError on a 404.
func (c *client) doJSON(ctx context.Context, method, path string, body any, out any, notFoundEntity, notFoundKey string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.RemoteFailureError{Service: c.service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return apperr.NewNotFound(notFoundEntity, notFoundKey)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("upstream error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return &apperr.RemoteFailureError{Service: c.service, Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.RemoteFailureError{Service: c.service, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
